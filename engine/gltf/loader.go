package gltf

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/gondola/engine/core"
	"github.com/spaghettifunk/gondola/engine/renderer"
)

/**
 * @brief Consumes glTF 2.0 content (either JSON or GLB) and produces
 * bundles of renderables, material instances, vertex buffers, index
 * buffers, textures and light sources, expressed as engine objects.
 *
 * For JSON-based assets the loader does not fetch external buffer or
 * image data. Callers query the uris on the returned Asset and load the
 * data themselves, typically through the assets package.
 *
 * The loader also owns a cache of Material objects that is re-used
 * across loads and outlives the assets. Destroying the loader does not
 * free the cache, see DestroyMaterials.
 */
type AssetLoader struct {
	engine  *renderer.Engine
	options Options

	materialCache map[string]*renderer.Material
	materialOrder []*renderer.Material

	assets map[*Asset]struct{}
}

// NewAssetLoader takes a non-owning reference to an Engine, used only for
// the creation of engine objects.
func NewAssetLoader(engine *renderer.Engine, options Options) (*AssetLoader, error) {
	if engine == nil {
		return nil, fmt.Errorf("gltf: asset loader requires an engine")
	}
	if options.ProxyFactor < 0 || options.ProxyFactor > 1 {
		return nil, fmt.Errorf("gltf: proxy factor %f out of range [0, 1]", options.ProxyFactor)
	}
	return &AssetLoader{
		engine:        engine,
		options:       options,
		materialCache: make(map[string]*renderer.Material),
		assets:        make(map[*Asset]struct{}),
	}, nil
}

// CreateAssetFromJSON parses a JSON glTF payload into an Asset.
func (l *AssetLoader) CreateAssetFromJSON(data []byte) (*Asset, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	if isBinaryPayload(data) {
		return nil, ErrBinaryPayload
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	return l.createAsset(doc)
}

// CreateAssetFromBinary parses a GLB payload into an Asset. The embedded
// chunk is uploaded eagerly, so only uris outside the chunk come back as
// accessors.
func (l *AssetLoader) CreateAssetFromBinary(data []byte) (*Asset, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	if !isBinaryPayload(data) {
		return nil, ErrNotBinaryPayload
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	return l.createAsset(doc)
}

// DestroyAsset releases every engine object owned by the asset. Cached
// materials stay alive. Destroying an asset twice is a warned no-op.
func (l *AssetLoader) DestroyAsset(asset *Asset) {
	if asset == nil {
		return
	}
	if _, ok := l.assets[asset]; !ok {
		core.LogWarn("destroy of unknown or already destroyed asset '%s' ignored", asset.id)
		return
	}
	asset.release()
	delete(l.assets, asset)
}

// MaterialsCount returns the number of cached materials.
func (l *AssetLoader) MaterialsCount() int {
	return len(l.materialOrder)
}

// Materials returns the cached materials in creation order. The slice is
// a snapshot, the materials are not.
func (l *AssetLoader) Materials() []*renderer.Material {
	return append([]*renderer.Material(nil), l.materialOrder...)
}

// DestroyMaterials destroys every cached material. Materials still bound
// by live assets are kept in the cache and reported as an error; destroy
// the assets first.
func (l *AssetLoader) DestroyMaterials() error {
	var errs []error
	survivors := make([]*renderer.Material, 0)
	for _, m := range l.materialOrder {
		if err := l.engine.DestroyMaterial(m); err != nil {
			errs = append(errs, err)
			survivors = append(survivors, m)
			continue
		}
	}
	l.materialOrder = survivors
	l.materialCache = make(map[string]*renderer.Material, len(survivors))
	for _, m := range survivors {
		l.materialCache[materialSignature(m.Config)] = m
	}
	return errors.Join(errs...)
}

// acquireMaterial returns the cached material for the configuration,
// creating it on first use.
func (l *AssetLoader) acquireMaterial(config renderer.MaterialConfig) (*renderer.Material, error) {
	signature := materialSignature(config)
	if m, ok := l.materialCache[signature]; ok {
		return m, nil
	}
	config.Name = signature
	m, err := l.engine.CreateMaterial(config)
	if err != nil {
		return nil, err
	}
	l.materialCache[signature] = m
	l.materialOrder = append(l.materialOrder, m)
	core.LogDebug("material '%s' created and cached", signature)
	return m, nil
}
