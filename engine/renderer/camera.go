package renderer

import (
	"github.com/spaghettifunk/gondola/engine/math"
)

type ProjectionType int

const (
	ProjectionPerspective ProjectionType = iota
	ProjectionOrthographic
)

/**
 * @brief A camera owned by the caller. Importers push projection settings
 * onto it, the caller drives the view.
 */
type Camera struct {
	Projection ProjectionType
	/** @brief Vertical field of view in radians. Perspective only. */
	FovY float32
	/** @brief Width over height. Perspective only. */
	AspectRatio float32
	/** @brief Half the horizontal frustum size. Orthographic only. */
	XMag float32
	/** @brief Half the vertical frustum size. Orthographic only. */
	YMag float32
	Near float32
	Far  float32

	projection math.Mat4
	dirty      bool
}

func NewCamera() *Camera {
	return &Camera{
		Projection:  ProjectionPerspective,
		FovY:        math.DegToRad(60.0),
		AspectRatio: 16.0 / 9.0,
		Near:        0.1,
		Far:         1000.0,
		dirty:       true,
	}
}

func (c *Camera) SetPerspectiveProjection(fovyRadians, aspectRatio, near, far float32) {
	c.Projection = ProjectionPerspective
	c.FovY = fovyRadians
	c.AspectRatio = aspectRatio
	c.Near = near
	c.Far = far
	c.dirty = true
}

func (c *Camera) SetOrthographicProjection(xmag, ymag, near, far float32) {
	c.Projection = ProjectionOrthographic
	c.XMag = xmag
	c.YMag = ymag
	c.Near = near
	c.Far = far
	c.dirty = true
}

// ProjectionMatrix returns the projection, recomputing it after any
// settings change.
func (c *Camera) ProjectionMatrix() math.Mat4 {
	if c.dirty {
		if c.Projection == ProjectionOrthographic {
			c.projection = math.NewMat4Orthographic(-c.XMag, c.XMag, -c.YMag, c.YMag, c.Near, c.Far)
		} else {
			c.projection = math.NewMat4Perspective(c.FovY, c.AspectRatio, c.Near, c.Far)
		}
		c.dirty = false
	}
	return c.projection
}
