package renderer

import (
	"github.com/spaghettifunk/gondola/engine/math"
)

/** @brief The name of the default material. */
const DefaultMaterialName string = "default"

type ShadingModel int

const (
	ShadingLit ShadingModel = iota
	ShadingUnlit
)

type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

/** @brief Bit flags describing which texture maps a material samples. */
type MaterialFeatures uint16

const (
	FeatureBaseColorTexture MaterialFeatures = 1 << iota
	FeatureMetallicRoughnessTexture
	FeatureNormalTexture
	FeatureOcclusionTexture
	FeatureEmissiveTexture
	FeatureSkinning
	FeatureVertexColors
)

/**
 * @brief Material configuration, the shader-level definition a material
 * is created from. Two materials with the same configuration can share
 * one compiled material.
 */
type MaterialConfig struct {
	/** @brief The name of the material. */
	Name string
	/** @brief The shading model. */
	Shading ShadingModel
	/** @brief How alpha is interpreted when rendering. */
	AlphaMode AlphaMode
	/** @brief Indicates if back faces are rendered. */
	DoubleSided bool
	/** @brief The texture maps and vertex streams the material consumes. */
	Features MaterialFeatures
}

/**
 * @brief A material, the compiled shader-level definition instances are
 * created from.
 */
type Material struct {
	/** @brief The material id. */
	ID uint32
	/** @brief The material name. */
	Name string
	/** @brief The configuration the material was created from. */
	Config MaterialConfig
	/** @brief The material generation. Incremented every time the material is changed. */
	Generation uint32

	engine        *Engine
	instanceCount int
}

// InstanceCount reports how many live instances were created from this
// material.
func (m *Material) InstanceCount() int {
	return m.instanceCount
}

/**
 * @brief A material instance carries per-renderable parameter values and
 * texture bindings for one Material.
 */
type MaterialInstance struct {
	/** @brief The instance id. */
	ID uint32
	/** @brief The instance name. */
	Name string

	/** @brief The base color multiplier. */
	BaseColorFactor math.Vec4
	/** @brief The metalness multiplier. */
	MetallicFactor float32
	/** @brief The roughness multiplier. */
	RoughnessFactor float32
	/** @brief The scale applied to the sampled normal. */
	NormalScale float32
	/** @brief The strength of the sampled occlusion. */
	OcclusionStrength float32
	/** @brief The emissive color. */
	EmissiveFactor math.Vec3
	/** @brief The cutoff threshold when the material alpha mode is mask. */
	AlphaCutoff float32

	BaseColorMap         *TextureMap
	MetallicRoughnessMap *TextureMap
	NormalMap            *TextureMap
	OcclusionMap         *TextureMap
	EmissiveMap          *TextureMap

	material *Material
	engine   *Engine
}

// Material returns the definition this instance was created from.
func (mi *MaterialInstance) Material() *Material {
	return mi.material
}

// Textures returns the non-nil texture maps bound to the instance.
func (mi *MaterialInstance) Textures() []*TextureMap {
	maps := make([]*TextureMap, 0, 5)
	for _, tm := range []*TextureMap{mi.BaseColorMap, mi.MetallicRoughnessMap, mi.NormalMap, mi.OcclusionMap, mi.EmissiveMap} {
		if tm != nil {
			maps = append(maps, tm)
		}
	}
	return maps
}
