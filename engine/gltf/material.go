package gltf

import (
	"fmt"
	"strings"

	"github.com/qmuntal/gltf"

	"github.com/spaghettifunk/gondola/engine/math"
	"github.com/spaghettifunk/gondola/engine/renderer"
)

// materialSignature derives the cache key of a material configuration.
// Everything that changes the compiled shader is part of the key, factor
// values are not.
func materialSignature(config renderer.MaterialConfig) string {
	var sb strings.Builder
	sb.WriteString("pbr")
	if config.Shading == renderer.ShadingUnlit {
		sb.WriteString("_unlit")
	}
	switch config.AlphaMode {
	case renderer.AlphaMask:
		sb.WriteString("_mask")
	case renderer.AlphaBlend:
		sb.WriteString("_blend")
	}
	if config.DoubleSided {
		sb.WriteString("_ds")
	}
	sb.WriteString(fmt.Sprintf("_f%02x", uint16(config.Features)))
	return sb.String()
}

// materialInstanceFor resolves the material of a primitive into a cached
// Material plus a fresh instance with the primitive's factors and maps.
// Primitives without a material get an instance of the default
// configuration.
func (im *importer) materialInstanceFor(prim *gltf.Primitive, name string, hasVertexColors, hasSkin bool) (*renderer.MaterialInstance, error) {
	var src *gltf.Material
	if prim.Material != nil {
		if int(*prim.Material) >= len(im.doc.Materials) {
			return nil, fmt.Errorf("gltf: primitive '%s' references material %d out of range", name, *prim.Material)
		}
		src = im.doc.Materials[*prim.Material]
	}

	config := renderer.MaterialConfig{Shading: renderer.ShadingLit}
	if hasVertexColors {
		config.Features |= renderer.FeatureVertexColors
	}
	if hasSkin {
		config.Features |= renderer.FeatureSkinning
	}

	if src == nil {
		m, err := im.loader.acquireMaterial(config)
		if err != nil {
			return nil, err
		}
		return im.createInstance(m, name)
	}

	switch src.AlphaMode {
	case gltf.AlphaMask:
		config.AlphaMode = renderer.AlphaMask
	case gltf.AlphaBlend:
		config.AlphaMode = renderer.AlphaBlend
	}
	config.DoubleSided = src.DoubleSided

	pbr := src.PBRMetallicRoughness
	if pbr != nil {
		if pbr.BaseColorTexture != nil {
			config.Features |= renderer.FeatureBaseColorTexture
		}
		if pbr.MetallicRoughnessTexture != nil {
			config.Features |= renderer.FeatureMetallicRoughnessTexture
		}
	}
	if src.NormalTexture != nil && src.NormalTexture.Index != nil {
		config.Features |= renderer.FeatureNormalTexture
	}
	if src.OcclusionTexture != nil && src.OcclusionTexture.Index != nil {
		config.Features |= renderer.FeatureOcclusionTexture
	}
	if src.EmissiveTexture != nil {
		config.Features |= renderer.FeatureEmissiveTexture
	}

	m, err := im.loader.acquireMaterial(config)
	if err != nil {
		return nil, err
	}
	instanceName := src.Name
	if instanceName == "" {
		instanceName = name
	}
	instance, err := im.createInstance(m, instanceName)
	if err != nil {
		return nil, err
	}

	if pbr != nil {
		if pbr.BaseColorFactor != nil {
			f := *pbr.BaseColorFactor
			instance.BaseColorFactor = math.NewVec4(float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3]))
		}
		if pbr.MetallicFactor != nil {
			instance.MetallicFactor = float32(*pbr.MetallicFactor)
		}
		if pbr.RoughnessFactor != nil {
			instance.RoughnessFactor = float32(*pbr.RoughnessFactor)
		}
		if pbr.BaseColorTexture != nil {
			tm, err := im.textureMapFor(int(pbr.BaseColorTexture.Index), renderer.TextureUseMapBaseColor, uint8(pbr.BaseColorTexture.TexCoord))
			if err != nil {
				return nil, err
			}
			instance.BaseColorMap = tm
		}
		if pbr.MetallicRoughnessTexture != nil {
			tm, err := im.textureMapFor(int(pbr.MetallicRoughnessTexture.Index), renderer.TextureUseMapMetallicRoughness, uint8(pbr.MetallicRoughnessTexture.TexCoord))
			if err != nil {
				return nil, err
			}
			instance.MetallicRoughnessMap = tm
		}
	}

	if src.NormalTexture != nil && src.NormalTexture.Index != nil {
		tm, err := im.textureMapFor(int(*src.NormalTexture.Index), renderer.TextureUseMapNormal, uint8(src.NormalTexture.TexCoord))
		if err != nil {
			return nil, err
		}
		instance.NormalMap = tm
		if src.NormalTexture.Scale != nil {
			instance.NormalScale = float32(*src.NormalTexture.Scale)
		}
	}
	if src.OcclusionTexture != nil && src.OcclusionTexture.Index != nil {
		tm, err := im.textureMapFor(int(*src.OcclusionTexture.Index), renderer.TextureUseMapOcclusion, uint8(src.OcclusionTexture.TexCoord))
		if err != nil {
			return nil, err
		}
		instance.OcclusionMap = tm
		if src.OcclusionTexture.Strength != nil {
			instance.OcclusionStrength = float32(*src.OcclusionTexture.Strength)
		}
	}
	if src.EmissiveTexture != nil {
		tm, err := im.textureMapFor(int(src.EmissiveTexture.Index), renderer.TextureUseMapEmissive, uint8(src.EmissiveTexture.TexCoord))
		if err != nil {
			return nil, err
		}
		instance.EmissiveMap = tm
	}
	instance.EmissiveFactor = math.NewVec3(
		float32(src.EmissiveFactor[0]),
		float32(src.EmissiveFactor[1]),
		float32(src.EmissiveFactor[2]),
	)
	if src.AlphaCutoff != nil {
		instance.AlphaCutoff = float32(*src.AlphaCutoff)
	}

	return instance, nil
}

func (im *importer) createInstance(m *renderer.Material, name string) (*renderer.MaterialInstance, error) {
	instance, err := im.engine.CreateMaterialInstance(m, name)
	if err != nil {
		return nil, err
	}
	im.asset.instances = append(im.asset.instances, instance)
	return instance, nil
}
