package renderer

import (
	"github.com/spaghettifunk/gondola/engine/math"
)

/** @brief A sentinel for ids that do not reference a live object. */
const InvalidID uint32 = 0xFFFFFFFF

/** @brief An entity handle. Components are attached through the Engine. */
type Entity uint32

/** @brief The entity value that references nothing. */
const EntityNil Entity = Entity(InvalidID)

/**
 * @brief A renderable component: geometry plus material bindings placed
 * in the world.
 */
type Renderable struct {
	/** @brief The renderable name, usually the source node name. */
	Name string
	/** @brief The vertex streams of the geometry. */
	VertexBuffer *VertexBuffer
	/** @brief The index range of the geometry. */
	IndexBuffer *IndexBuffer
	/** @brief The material instance bound to the geometry. */
	MaterialInstance *MaterialInstance
	/** @brief The world matrix composed from the node hierarchy. */
	WorldMatrix math.Mat4
	/** @brief The axis-aligned bounds of the geometry in local coordinates. */
	Bounds math.Extents3D
	/** @brief Optional skin binding when the geometry is skinned. */
	Skin *SkinBinding
	/** @brief Optional simplified stand-in geometry, kept on the host. */
	Proxy *ProxyGeometry
}

/**
 * @brief Connects a skinned renderable to the entities acting as its
 * joints. Holds one inverse bind matrix per joint.
 */
type SkinBinding struct {
	Name                string
	Joints              []Entity
	InverseBindMatrices []math.Mat4
}

/** @brief Simplified host-side geometry used as a collision or occlusion proxy. */
type ProxyGeometry struct {
	Positions []math.Vec3
	Indices   []uint32
}

type LightType int

const (
	LightDirectional LightType = iota
	LightPoint
	LightSpot
)

/**
 * @brief A punctual light component.
 */
type Light struct {
	/** @brief The light name. */
	Name string
	/** @brief The light type. */
	Type LightType
	/** @brief The linear RGB color of the light. */
	Color math.Vec3
	/** @brief Intensity in candela for point/spot lights, lux for directional. */
	Intensity float32
	/** @brief The distance after which the light has no effect. Zero means unbounded. */
	Range float32
	/** @brief The inner cone angle in radians. Spot lights only. */
	InnerConeAngle float32
	/** @brief The outer cone angle in radians. Spot lights only. */
	OuterConeAngle float32
	/** @brief The world matrix placing and orienting the light. */
	WorldMatrix math.Mat4
}
