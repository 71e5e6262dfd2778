package gltf

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/spaghettifunk/gondola/engine/assets/loaders"
	"github.com/spaghettifunk/gondola/engine/core"
	"github.com/spaghettifunk/gondola/engine/renderer"
)

const extTextureWebp = "EXT_texture_webp"

// textureMapFor resolves a glTF texture reference into an engine texture
// map. Images are shared between maps sampling the same image index.
func (im *importer) textureMapFor(textureIndex int, use renderer.TextureUse, uvSet uint8) (*renderer.TextureMap, error) {
	if textureIndex < 0 || textureIndex >= len(im.doc.Textures) {
		return nil, fmt.Errorf("gltf: texture index %d out of range", textureIndex)
	}
	tex := im.doc.Textures[textureIndex]

	imageIndex, err := im.textureSource(tex)
	if err != nil {
		return nil, err
	}

	texture, err := im.textureForImage(imageIndex)
	if err != nil {
		return nil, err
	}

	tm := &renderer.TextureMap{
		Texture:       texture,
		Use:           use,
		FilterMinify:  renderer.TextureFilterModeLinear,
		FilterMagnify: renderer.TextureFilterModeLinear,
		RepeatU:       renderer.TextureRepeatRepeat,
		RepeatV:       renderer.TextureRepeatRepeat,
		UVSet:         uvSet,
	}
	im.applySampler(tex, tm)
	return tm, nil
}

// textureSource picks the image index of a texture, preferring a webp
// source advertised through EXT_texture_webp over the fallback source.
func (im *importer) textureSource(tex *gltf.Texture) (int, error) {
	if raw, ok := tex.Extensions[extTextureWebp]; ok {
		var ext struct {
			Source *int `json:"source"`
		}
		var payload []byte
		switch v := raw.(type) {
		case json.RawMessage:
			payload = v
		case []byte:
			payload = v
		}
		if payload != nil && json.Unmarshal(payload, &ext) == nil && ext.Source != nil {
			return *ext.Source, nil
		}
	}
	if tex.Source == nil {
		return 0, fmt.Errorf("gltf: texture '%s' has no image source", tex.Name)
	}
	return int(*tex.Source), nil
}

func (im *importer) applySampler(tex *gltf.Texture, tm *renderer.TextureMap) {
	if tex.Sampler == nil || int(*tex.Sampler) >= len(im.doc.Samplers) {
		return
	}
	sampler := im.doc.Samplers[*tex.Sampler]

	if sampler.MagFilter == gltf.MagNearest {
		tm.FilterMagnify = renderer.TextureFilterModeNearest
	}
	switch sampler.MinFilter {
	case gltf.MinNearest, gltf.MinNearestMipMapNearest, gltf.MinNearestMipMapLinear:
		tm.FilterMinify = renderer.TextureFilterModeNearest
	}
	tm.RepeatU = wrapToRepeat(sampler.WrapS)
	tm.RepeatV = wrapToRepeat(sampler.WrapT)
}

func wrapToRepeat(mode gltf.WrappingMode) renderer.TextureRepeat {
	switch mode {
	case gltf.WrapClampToEdge:
		return renderer.TextureRepeatClampToEdge
	case gltf.WrapMirroredRepeat:
		return renderer.TextureRepeatMirroredRepeat
	}
	return renderer.TextureRepeatRepeat
}

// textureForImage returns the engine texture for a glTF image index,
// creating it on first use. Resident images are decoded and uploaded,
// external ones become deferred textures with a pixel accessor.
func (im *importer) textureForImage(imageIndex int) (*renderer.Texture, error) {
	if texture, ok := im.imageTextures[imageIndex]; ok {
		return texture, nil
	}
	if imageIndex < 0 || imageIndex >= len(im.doc.Images) {
		return nil, fmt.Errorf("gltf: image index %d out of range", imageIndex)
	}
	img := im.doc.Images[imageIndex]

	name := img.Name
	if name == "" {
		name = fmt.Sprintf("image_%d", imageIndex)
	}

	payload, external, err := im.imagePayload(img)
	if err != nil {
		return nil, err
	}

	var texture *renderer.Texture
	if external {
		texture, err = im.engine.CreateDeferredTexture(name, 4)
		if err != nil {
			return nil, err
		}
		im.asset.pixelAccessors = append(im.asset.pixelAccessors, PixelAccessor{
			URI:     img.URI,
			Texture: texture,
		})
	} else {
		texture, err = im.uploadImage(name, payload)
		if err != nil {
			return nil, err
		}
	}

	im.asset.textures = append(im.asset.textures, texture)
	im.imageTextures[imageIndex] = texture
	return texture, nil
}

// imagePayload fetches the bytes of a resident image, or reports the
// image as external when its uri must be resolved by the caller.
func (im *importer) imagePayload(img *gltf.Image) ([]byte, bool, error) {
	if img.BufferView != nil {
		if !resident(im.doc, int(*img.BufferView)) {
			// bufferView images live in the GLB chunk or a data uri, an
			// unread backing buffer means a malformed document
			return nil, false, fmt.Errorf("gltf: image '%s' buffer view has no resident data", img.Name)
		}
		data, err := modeler.ReadBufferView(im.doc, im.doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, false, fmt.Errorf("gltf: image '%s': %w", img.Name, err)
		}
		return data, false, nil
	}

	if strings.HasPrefix(img.URI, "data:") {
		comma := strings.IndexByte(img.URI, ',')
		if comma < 0 {
			return nil, false, fmt.Errorf("gltf: image '%s' has a malformed data uri", img.Name)
		}
		data, err := base64.StdEncoding.DecodeString(img.URI[comma+1:])
		if err != nil {
			return nil, false, fmt.Errorf("gltf: image '%s' has a malformed data uri: %w", img.Name, err)
		}
		return data, false, nil
	}

	if img.URI == "" {
		return nil, false, fmt.Errorf("gltf: image '%s' has neither uri nor buffer view", img.Name)
	}
	return nil, true, nil
}

// uploadImage decodes resident image bytes and creates a fully realized
// texture, including the mip chain when enabled.
func (im *importer) uploadImage(name string, payload []byte) (*renderer.Texture, error) {
	decoded, err := loaders.DecodeImage(payload)
	if err != nil {
		return nil, fmt.Errorf("gltf: image '%s': %w", name, err)
	}
	if im.options.FlipTextureY {
		decoded.FlipY()
	}
	if im.options.MaxTextureSize > 0 {
		decoded = decoded.Downscale(im.options.MaxTextureSize)
	}

	mipLevels := uint8(1)
	if im.options.GenerateMipmaps {
		mipLevels = loaders.FullMipLevels(decoded.Width, decoded.Height)
	}

	texture, err := im.engine.CreateTexture(name, decoded.Width, decoded.Height, decoded.ChannelCount, mipLevels)
	if err != nil {
		return nil, err
	}

	levels := []*loaders.ImageData{decoded}
	if mipLevels > 1 {
		levels = decoded.MipChain()
	}
	for level, data := range levels {
		if err := texture.SetImage(level, 0, 0, data.Width, data.Height, data.Pixels); err != nil {
			return nil, err
		}
	}
	core.LogDebug("texture '%s' uploaded: %dx%d, %d mip levels", name, decoded.Width, decoded.Height, mipLevels)
	return texture, nil
}
