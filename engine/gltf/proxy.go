package gltf

import (
	"github.com/fogleman/simplify"

	"github.com/spaghettifunk/gondola/engine/math"
	"github.com/spaghettifunk/gondola/engine/renderer"
)

// buildProxyGeometry decimates a triangle mesh down to factor of its
// triangle count, producing the coarse positions used for occlusion and
// picking queries. Returns nil for degenerate inputs.
func buildProxyGeometry(positions [][3]float32, indices []uint32, factor float64) *renderer.ProxyGeometry {
	if len(positions) == 0 || len(indices) < 3 {
		return nil
	}

	triangles := make([]*simplify.Triangle, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(a) >= len(positions) || int(b) >= len(positions) || int(c) >= len(positions) {
			return nil
		}
		triangles = append(triangles, simplify.NewTriangle(
			toVector(positions[a]),
			toVector(positions[b]),
			toVector(positions[c]),
		))
	}
	if len(triangles) == 0 {
		return nil
	}

	simplified := simplify.NewMesh(triangles).Simplify(factor)
	if len(simplified.Triangles) == 0 {
		return nil
	}

	proxy := &renderer.ProxyGeometry{}
	lookup := make(map[simplify.Vector]uint32)
	for _, t := range simplified.Triangles {
		for _, v := range []simplify.Vector{t.V1, t.V2, t.V3} {
			index, ok := lookup[v]
			if !ok {
				index = uint32(len(proxy.Positions))
				lookup[v] = index
				proxy.Positions = append(proxy.Positions, math.NewVec3(float32(v.X), float32(v.Y), float32(v.Z)))
			}
			proxy.Indices = append(proxy.Indices, index)
		}
	}
	return proxy
}

func toVector(p [3]float32) simplify.Vector {
	return simplify.Vector{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}
