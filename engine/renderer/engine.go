package renderer

import (
	"fmt"

	"github.com/spaghettifunk/gondola/engine/core"
	"github.com/spaghettifunk/gondola/engine/math"
)

/**
 * @brief The factory and owner of every renderer object. Importers hold a
 * non-owning reference to an Engine and create objects through it; callers
 * decide when the engine itself goes away.
 */
type Engine struct {
	backend Backend
	ids     *core.IdentifierPool

	textures      map[*Texture]struct{}
	vertexBuffers map[*VertexBuffer]struct{}
	indexBuffers  map[*IndexBuffer]struct{}
	materials     map[*Material]struct{}
	instances     map[*MaterialInstance]struct{}

	renderables map[Entity]*Renderable
	lights      map[Entity]*Light

	defaults *DefaultTextures
}

func NewEngine(backend Backend) (*Engine, error) {
	if backend == nil {
		return nil, fmt.Errorf("engine requires a backend")
	}
	if err := backend.Initialize(); err != nil {
		return nil, err
	}

	e := &Engine{
		backend:       backend,
		ids:           core.NewIdentifierPool(),
		textures:      make(map[*Texture]struct{}),
		vertexBuffers: make(map[*VertexBuffer]struct{}),
		indexBuffers:  make(map[*IndexBuffer]struct{}),
		materials:     make(map[*Material]struct{}),
		instances:     make(map[*MaterialInstance]struct{}),
		renderables:   make(map[Entity]*Renderable),
		lights:        make(map[Entity]*Light),
	}

	defaults, err := createDefaultTextures(e)
	if err != nil {
		backend.Shutdown()
		return nil, err
	}
	e.defaults = defaults

	return e, nil
}

// Shutdown destroys every object still owned by the engine and then the
// backend. Anything created after this point fails.
func (e *Engine) Shutdown() error {
	for ent := range e.renderables {
		e.DestroyEntity(ent)
	}
	for ent := range e.lights {
		e.DestroyEntity(ent)
	}
	for mi := range e.instances {
		e.DestroyMaterialInstance(mi)
	}
	for m := range e.materials {
		if err := e.DestroyMaterial(m); err != nil {
			core.LogError(err.Error())
		}
	}
	for vb := range e.vertexBuffers {
		e.DestroyVertexBuffer(vb)
	}
	for ib := range e.indexBuffers {
		e.DestroyIndexBuffer(ib)
	}
	for t := range e.textures {
		e.DestroyTexture(t)
	}
	e.defaults = nil
	return e.backend.Shutdown()
}

func (e *Engine) Backend() Backend {
	return e.backend
}

func (e *Engine) DefaultTextures() *DefaultTextures {
	return e.defaults
}

/**
 * ------------------------------------------
 * Textures
 * ------------------------------------------
 */

func (e *Engine) CreateTexture(name string, width, height uint32, channelCount, mipLevels uint8) (*Texture, error) {
	if width == 0 || height == 0 || mipLevels == 0 {
		return nil, fmt.Errorf("texture '%s': invalid dimensions %dx%d with %d levels", name, width, height, mipLevels)
	}
	t := &Texture{
		Name:         name,
		Width:        width,
		Height:       height,
		ChannelCount: channelCount,
		MipLevels:    mipLevels,
		engine:       e,
	}
	t.ID = e.ids.Acquire(t)
	if err := e.backend.TextureCreate(t); err != nil {
		e.ids.Release(t.ID)
		return nil, err
	}
	e.textures[t] = struct{}{}
	return t, nil
}

// CreateDeferredTexture creates a texture whose storage dimensions are
// unknown until the caller fulfils the external image and calls Resize.
func (e *Engine) CreateDeferredTexture(name string, channelCount uint8) (*Texture, error) {
	t := &Texture{
		Name:         name,
		ChannelCount: channelCount,
		MipLevels:    1,
		Flags:        TextureFlagBits(TextureFlagDeferredStorage),
		engine:       e,
	}
	t.ID = e.ids.Acquire(t)
	if err := e.backend.TextureCreate(t); err != nil {
		e.ids.Release(t.ID)
		return nil, err
	}
	e.textures[t] = struct{}{}
	return t, nil
}

func (e *Engine) DestroyTexture(t *Texture) {
	if t == nil {
		return
	}
	if _, ok := e.textures[t]; !ok {
		core.LogWarn("destroy of unknown texture '%s' ignored", t.Name)
		return
	}
	e.backend.TextureDestroy(t)
	e.ids.Release(t.ID)
	delete(e.textures, t)
	t.ID = InvalidID
	t.Generation = InvalidID
	t.engine = nil
}

/**
 * ------------------------------------------
 * Buffers
 * ------------------------------------------
 */

func (e *Engine) CreateVertexBuffer(name string, vertexCount uint32, attributes []VertexAttribute) (*VertexBuffer, error) {
	if vertexCount == 0 {
		return nil, fmt.Errorf("vertex buffer '%s': vertex count must be > 0", name)
	}
	if len(attributes) == 0 {
		return nil, fmt.Errorf("vertex buffer '%s': at least one attribute is required", name)
	}
	vb := &VertexBuffer{
		Name:        name,
		VertexCount: vertexCount,
		Attributes:  append([]VertexAttribute(nil), attributes...),
		engine:      e,
	}
	vb.ID = e.ids.Acquire(vb)
	if err := e.backend.VertexBufferCreate(vb); err != nil {
		e.ids.Release(vb.ID)
		return nil, err
	}
	e.vertexBuffers[vb] = struct{}{}
	return vb, nil
}

func (e *Engine) DestroyVertexBuffer(vb *VertexBuffer) {
	if vb == nil {
		return
	}
	if _, ok := e.vertexBuffers[vb]; !ok {
		core.LogWarn("destroy of unknown vertex buffer '%s' ignored", vb.Name)
		return
	}
	e.backend.VertexBufferDestroy(vb)
	e.ids.Release(vb.ID)
	delete(e.vertexBuffers, vb)
	vb.ID = InvalidID
	vb.engine = nil
}

func (e *Engine) CreateIndexBuffer(name string, indexType IndexType, indexCount uint32) (*IndexBuffer, error) {
	if indexCount == 0 {
		return nil, fmt.Errorf("index buffer '%s': index count must be > 0", name)
	}
	ib := &IndexBuffer{
		Name:       name,
		IndexType:  indexType,
		IndexCount: indexCount,
		engine:     e,
	}
	ib.ID = e.ids.Acquire(ib)
	if err := e.backend.IndexBufferCreate(ib); err != nil {
		e.ids.Release(ib.ID)
		return nil, err
	}
	e.indexBuffers[ib] = struct{}{}
	return ib, nil
}

func (e *Engine) DestroyIndexBuffer(ib *IndexBuffer) {
	if ib == nil {
		return
	}
	if _, ok := e.indexBuffers[ib]; !ok {
		core.LogWarn("destroy of unknown index buffer '%s' ignored", ib.Name)
		return
	}
	e.backend.IndexBufferDestroy(ib)
	e.ids.Release(ib.ID)
	delete(e.indexBuffers, ib)
	ib.ID = InvalidID
	ib.engine = nil
}

/**
 * ------------------------------------------
 * Materials
 * ------------------------------------------
 */

func (e *Engine) CreateMaterial(config MaterialConfig) (*Material, error) {
	if config.Name == "" {
		config.Name = DefaultMaterialName
	}
	m := &Material{
		Name:   config.Name,
		Config: config,
		engine: e,
	}
	m.ID = e.ids.Acquire(m)
	if err := e.backend.MaterialCreate(m); err != nil {
		e.ids.Release(m.ID)
		return nil, err
	}
	e.materials[m] = struct{}{}
	return m, nil
}

func (e *Engine) DestroyMaterial(m *Material) error {
	if m == nil {
		return nil
	}
	if _, ok := e.materials[m]; !ok {
		core.LogWarn("destroy of unknown material '%s' ignored", m.Name)
		return nil
	}
	if m.instanceCount > 0 {
		return fmt.Errorf("material '%s' still has %d live instances", m.Name, m.instanceCount)
	}
	e.backend.MaterialDestroy(m)
	e.ids.Release(m.ID)
	delete(e.materials, m)
	m.ID = InvalidID
	m.engine = nil
	return nil
}

func (e *Engine) CreateMaterialInstance(m *Material, name string) (*MaterialInstance, error) {
	if m == nil {
		return nil, fmt.Errorf("material instance '%s': material is nil", name)
	}
	if _, ok := e.materials[m]; !ok {
		return nil, fmt.Errorf("material instance '%s': material '%s' is not owned by this engine", name, m.Name)
	}
	mi := &MaterialInstance{
		Name:              name,
		BaseColorFactor:   math.NewVec4One(),
		MetallicFactor:    1.0,
		RoughnessFactor:   1.0,
		NormalScale:       1.0,
		OcclusionStrength: 1.0,
		AlphaCutoff:       0.5,
		material:          m,
		engine:            e,
	}
	mi.ID = e.ids.Acquire(mi)
	m.instanceCount++
	e.instances[mi] = struct{}{}
	return mi, nil
}

func (e *Engine) DestroyMaterialInstance(mi *MaterialInstance) {
	if mi == nil {
		return
	}
	if _, ok := e.instances[mi]; !ok {
		core.LogWarn("destroy of unknown material instance '%s' ignored", mi.Name)
		return
	}
	mi.material.instanceCount--
	e.ids.Release(mi.ID)
	delete(e.instances, mi)
	mi.ID = InvalidID
	mi.engine = nil
}

/**
 * ------------------------------------------
 * Entities
 * ------------------------------------------
 */

func (e *Engine) CreateEntity(name string) Entity {
	ent := Entity(e.ids.Acquire(name))
	core.LogDebug("entity %d created for '%s'", ent, name)
	return ent
}

func (e *Engine) DestroyEntity(ent Entity) {
	delete(e.renderables, ent)
	delete(e.lights, ent)
	if err := e.ids.Release(uint32(ent)); err != nil {
		core.LogWarn(err.Error())
	}
}

func (e *Engine) SetRenderable(ent Entity, r *Renderable) {
	e.renderables[ent] = r
}

func (e *Engine) Renderable(ent Entity) *Renderable {
	return e.renderables[ent]
}

func (e *Engine) SetLight(ent Entity, l *Light) {
	e.lights[ent] = l
}

func (e *Engine) Light(ent Entity) *Light {
	return e.lights[ent]
}
