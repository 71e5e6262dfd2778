package assets

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/gondola/engine/assets/loaders"
	"github.com/spaghettifunk/gondola/engine/core"
	"github.com/spaghettifunk/gondola/engine/gltf"
)

/**
 * @brief Completes assets that came back from the loader with deferred
 * accessors, by resolving the external uris and pushing the data into
 * the destination buffers and textures.
 */
type Fulfiller struct {
	resolver *Resolver
	options  gltf.Options
}

func NewFulfiller(resolver *Resolver, options gltf.Options) *Fulfiller {
	return &Fulfiller{resolver: resolver, options: options}
}

// FulfilAsset resolves every deferred accessor of the asset. Buffers
// behind the same uri are read once. Individual failures do not stop the
// remaining accessors; all errors come back joined.
func (f *Fulfiller) FulfilAsset(asset *gltf.Asset) error {
	var errs []error

	payloads := make(map[string][]byte)
	fetch := func(uri string) ([]byte, error) {
		if data, ok := payloads[uri]; ok {
			return data, nil
		}
		data, err := f.resolver.ReadURI(uri)
		if err != nil {
			return nil, err
		}
		payloads[uri] = data
		return data, nil
	}

	for _, acc := range asset.BufferAccessors() {
		data, err := fetch(acc.URI)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := f.FulfilBuffer(acc, data); err != nil {
			errs = append(errs, err)
		}
	}

	for _, acc := range asset.PixelAccessors() {
		data, err := fetch(acc.URI)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := f.FulfilPixels(acc, data); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		core.LogInfo("asset %s fulfilled: %d buffer ranges, %d images",
			asset.ID(), len(asset.BufferAccessors()), len(asset.PixelAccessors()))
	}
	return errors.Join(errs...)
}

// FulfilBuffer pushes the accessor's byte range of the source buffer
// into its destination.
func (f *Fulfiller) FulfilBuffer(acc gltf.BufferAccessor, data []byte) error {
	end := uint64(acc.ByteOffset) + uint64(acc.ByteSize)
	if end > uint64(len(data)) {
		return fmt.Errorf("assets: uri '%s': range %d+%d exceeds %d payload bytes",
			acc.URI, acc.ByteOffset, acc.ByteSize, len(data))
	}
	chunk := data[acc.ByteOffset:end]

	if acc.IndexBuffer != nil {
		return acc.IndexBuffer.SetBuffer(chunk)
	}
	if acc.VertexBuffer != nil {
		return acc.VertexBuffer.SetBufferAt(acc.BufferIndex, chunk)
	}
	return fmt.Errorf("assets: uri '%s': accessor has no destination buffer", acc.URI)
}

// FulfilPixels decodes the source image and pushes the pixels into the
// destination texture. A zero destination rectangle means the whole
// image, realizing the texture storage first.
func (f *Fulfiller) FulfilPixels(acc gltf.PixelAccessor, data []byte) error {
	decoded, err := loaders.DecodeImage(data)
	if err != nil {
		return fmt.Errorf("assets: uri '%s': %w", acc.URI, err)
	}
	if f.options.FlipTextureY {
		decoded.FlipY()
	}
	if f.options.MaxTextureSize > 0 {
		decoded = decoded.Downscale(f.options.MaxTextureSize)
	}

	if acc.Width != 0 || acc.Height != 0 {
		return acc.Texture.SetImage(acc.Level, acc.X, acc.Y, acc.Width, acc.Height, decoded.Pixels)
	}

	mipLevels := uint8(1)
	if f.options.GenerateMipmaps {
		mipLevels = loaders.FullMipLevels(decoded.Width, decoded.Height)
	}
	if err := acc.Texture.Resize(decoded.Width, decoded.Height, mipLevels); err != nil {
		return err
	}

	levels := []*loaders.ImageData{decoded}
	if mipLevels > 1 {
		levels = decoded.MipChain()
	}
	for level, img := range levels {
		if err := acc.Texture.SetImage(level, 0, 0, img.Width, img.Height, img.Pixels); err != nil {
			return err
		}
	}
	return nil
}
