package gltf

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/gondola/engine/math"
	"github.com/spaghettifunk/gondola/engine/renderer"
)

type cameraSettings struct {
	perspective bool
	fovy        float32
	aspectRatio float32
	xmag        float32
	ymag        float32
	near        float32
	far         float32
}

/**
 * @brief Owns the bundle of engine objects created from one glTF
 * document: entities (renderables and lights), textures, vertex and
 * index buffers, and material instances.
 *
 * Assets are created and destroyed by an AssetLoader and are immutable
 * once returned. Accessor slices are read-only views into the asset.
 *
 * Materials themselves live in the loader's cache, not here.
 */
type Asset struct {
	id     uuid.UUID
	engine *renderer.Engine

	entities      []renderer.Entity
	instances     []*renderer.MaterialInstance
	textures      []*renderer.Texture
	vertexBuffers []*renderer.VertexBuffer
	indexBuffers  []*renderer.IndexBuffer

	bufferAccessors []BufferAccessor
	pixelAccessors  []PixelAccessor

	camera *cameraSettings
	bounds math.Extents3D

	released bool
}

// ID returns the unique identifier assigned to the asset at load time.
func (a *Asset) ID() uuid.UUID {
	return a.id
}

// Entities returns the renderable and light entities of the asset.
func (a *Asset) Entities() []renderer.Entity {
	return a.entities
}

// MaterialInstances returns the instances already bound to renderables
// and textures.
func (a *Asset) MaterialInstances() []*renderer.MaterialInstance {
	return a.instances
}

// BufferAccessors returns the loading instructions for vertex and index
// data the loader did not fetch. Empty for fully resident assets.
func (a *Asset) BufferAccessors() []BufferAccessor {
	return a.bufferAccessors
}

// PixelAccessors returns the loading instructions for image data the
// loader did not fetch. Empty for fully resident assets.
func (a *Asset) PixelAccessors() []PixelAccessor {
	return a.pixelAccessors
}

// Bounds returns the union of the local bounds of every renderable.
func (a *Asset) Bounds() math.Extents3D {
	return a.bounds
}

// UpdateCamera pushes the camera settings found in the document onto the
// caller's camera. Returns false when the document declared no camera.
func (a *Asset) UpdateCamera(camera *renderer.Camera) bool {
	if a.camera == nil || camera == nil {
		return false
	}
	if a.camera.perspective {
		camera.SetPerspectiveProjection(a.camera.fovy, a.camera.aspectRatio, a.camera.near, a.camera.far)
	} else {
		camera.SetOrthographicProjection(a.camera.xmag, a.camera.ymag, a.camera.near, a.camera.far)
	}
	return true
}

// release destroys every engine object owned by the asset. Cached
// materials are the loader's and are left alone.
func (a *Asset) release() {
	if a.released {
		return
	}
	for _, ent := range a.entities {
		a.engine.DestroyEntity(ent)
	}
	for _, mi := range a.instances {
		a.engine.DestroyMaterialInstance(mi)
	}
	for _, vb := range a.vertexBuffers {
		a.engine.DestroyVertexBuffer(vb)
	}
	for _, ib := range a.indexBuffers {
		a.engine.DestroyIndexBuffer(ib)
	}
	for _, t := range a.textures {
		a.engine.DestroyTexture(t)
	}
	a.entities = nil
	a.instances = nil
	a.vertexBuffers = nil
	a.indexBuffers = nil
	a.textures = nil
	a.bufferAccessors = nil
	a.pixelAccessors = nil
	a.released = true
}
