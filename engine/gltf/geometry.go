package gltf

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/spaghettifunk/gondola/engine/core"
	"github.com/spaghettifunk/gondola/engine/math"
	"github.com/spaghettifunk/gondola/engine/renderer"
)

// primitiveGeometry is what one glTF primitive contributes to a
// renderable.
type primitiveGeometry struct {
	vertexBuffer    *renderer.VertexBuffer
	indexBuffer     *renderer.IndexBuffer
	bounds          math.Extents3D
	proxy           *renderer.ProxyGeometry
	hasVertexColors bool
}

// The canonical slot order of imported vertex streams. Slots are only
// allocated for attributes the primitive actually carries.
var vertexAttributeOrder = []struct {
	attribute  string
	semantic   renderer.AttributeSemantic
	format     renderer.AttributeFormat
	normalized bool
}{
	{gltf.POSITION, renderer.AttributePosition, renderer.FormatFloat3, false},
	{gltf.NORMAL, renderer.AttributeNormal, renderer.FormatFloat3, false},
	{gltf.TANGENT, renderer.AttributeTangent, renderer.FormatFloat4, false},
	{gltf.TEXCOORD_0, renderer.AttributeTexcoord0, renderer.FormatFloat2, false},
	{gltf.COLOR_0, renderer.AttributeColor0, renderer.FormatUbyte4, true},
	{gltf.JOINTS_0, renderer.AttributeJoints0, renderer.FormatUshort4, false},
	{gltf.WEIGHTS_0, renderer.AttributeWeights0, renderer.FormatFloat4, false},
}

func (im *importer) accessor(index int) (*gltf.Accessor, error) {
	if index < 0 || index >= len(im.doc.Accessors) {
		return nil, fmt.Errorf("gltf: accessor index %d out of range", index)
	}
	return im.doc.Accessors[index], nil
}

func (im *importer) accessorResident(acc *gltf.Accessor) bool {
	return acc.BufferView != nil && resident(im.doc, int(*acc.BufferView))
}

// formatForAccessor maps a raw accessor layout onto an engine attribute
// format, for streams that are uploaded by the caller untouched.
func formatForAccessor(acc *gltf.Accessor) (renderer.AttributeFormat, bool) {
	switch {
	case acc.ComponentType == gltf.ComponentFloat && acc.Type == gltf.AccessorVec2:
		return renderer.FormatFloat2, true
	case acc.ComponentType == gltf.ComponentFloat && acc.Type == gltf.AccessorVec3:
		return renderer.FormatFloat3, true
	case acc.ComponentType == gltf.ComponentFloat && acc.Type == gltf.AccessorVec4:
		return renderer.FormatFloat4, true
	case acc.ComponentType == gltf.ComponentUbyte && acc.Type == gltf.AccessorVec4:
		return renderer.FormatUbyte4, true
	case acc.ComponentType == gltf.ComponentUshort && acc.Type == gltf.AccessorVec4:
		return renderer.FormatUshort4, true
	}
	return 0, false
}

// indexPlan resolves what happens to the index data of a primitive
// before any engine object is created.
type indexPlan struct {
	indexType renderer.IndexType
	count     uint32
	// resident data, already widened to u32; nil when deferred or synthesized
	values []uint32
	// synthesized linear indices (no accessor)
	synthesize bool
	// deferred range
	deferred bool
	accessor *gltf.Accessor
}

func (im *importer) planIndices(prim *gltf.Primitive, vertexCount uint32, name string) (*indexPlan, error) {
	if prim.Indices == nil {
		plan := &indexPlan{count: vertexCount, synthesize: true, indexType: renderer.IndexTypeUshort}
		if vertexCount > 0xFFFF {
			plan.indexType = renderer.IndexTypeUint
		}
		return plan, nil
	}

	acc, err := im.accessor(int(*prim.Indices))
	if err != nil {
		return nil, err
	}
	if acc.Count == 0 {
		return nil, fmt.Errorf("gltf: primitive '%s' has an empty index accessor", name)
	}

	plan := &indexPlan{count: acc.Count, accessor: acc}

	if im.accessorResident(acc) {
		values, err := modeler.ReadIndices(im.doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("gltf: primitive '%s': %w", name, err)
		}
		plan.values = values
		plan.indexType = renderer.IndexTypeUint
		if acc.ComponentType != gltf.ComponentUint {
			plan.indexType = renderer.IndexTypeUshort
		}
		return plan, nil
	}

	switch acc.ComponentType {
	case gltf.ComponentUshort:
		plan.indexType = renderer.IndexTypeUshort
	case gltf.ComponentUint:
		plan.indexType = renderer.IndexTypeUint
	default:
		// u8 ranges cannot be pushed into a 16-bit buffer untouched
		core.LogWarn("primitive '%s' uses externally stored 8-bit indices, skipped", name)
		return nil, nil
	}
	plan.deferred = true
	return plan, nil
}

// importPrimitive turns one triangle primitive into engine buffers.
// Returns nil without error for primitives the importer does not handle.
func (im *importer) importPrimitive(prim *gltf.Primitive, name string) (*primitiveGeometry, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		core.LogWarn("primitive '%s' has non-triangle mode %d, skipped", name, prim.Mode)
		return nil, nil
	}

	posIndex, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		core.LogWarn("primitive '%s' has no POSITION attribute, skipped", name)
		return nil, nil
	}
	posAcc, err := im.accessor(int(posIndex))
	if err != nil {
		return nil, err
	}
	vertexCount := posAcc.Count
	if vertexCount == 0 {
		core.LogWarn("primitive '%s' has no vertices, skipped", name)
		return nil, nil
	}

	plan, err := im.planIndices(prim, vertexCount, name)
	if err != nil || plan == nil {
		return nil, err
	}

	// Plan the vertex layout first so the buffer is created with its
	// final slot count.
	type plannedSlot struct {
		semantic renderer.AttributeSemantic
		accessor *gltf.Accessor
		resident bool
	}
	var layout []renderer.VertexAttribute
	var slots []plannedSlot

	for _, entry := range vertexAttributeOrder {
		accIndex, ok := prim.Attributes[entry.attribute]
		if !ok {
			continue
		}
		acc, err := im.accessor(int(accIndex))
		if err != nil {
			return nil, err
		}
		if acc.Count != vertexCount {
			core.LogWarn("primitive '%s': attribute %s has %d elements for %d vertices, dropped",
				name, entry.attribute, acc.Count, vertexCount)
			continue
		}
		isResident := im.accessorResident(acc)
		format := entry.format
		if !isResident {
			var ok bool
			if format, ok = formatForAccessor(acc); !ok {
				core.LogWarn("primitive '%s': attribute %s has an unsupported external layout, dropped", name, entry.attribute)
				continue
			}
		}
		layout = append(layout, renderer.VertexAttribute{
			Semantic:   entry.semantic,
			Format:     format,
			Normalized: entry.normalized,
		})
		slots = append(slots, plannedSlot{semantic: entry.semantic, accessor: acc, resident: isResident})
	}

	vb, err := im.engine.CreateVertexBuffer(name, vertexCount, layout)
	if err != nil {
		return nil, err
	}
	im.asset.vertexBuffers = append(im.asset.vertexBuffers, vb)

	geometry := &primitiveGeometry{vertexBuffer: vb}

	var positions [][3]float32
	for slot, planned := range slots {
		if planned.semantic == renderer.AttributeColor0 {
			geometry.hasVertexColors = true
		}

		if !planned.resident {
			uri, offset, size, err := accessorByteRange(im.doc, planned.accessor)
			if err != nil {
				return nil, err
			}
			im.asset.bufferAccessors = append(im.asset.bufferAccessors, BufferAccessor{
				URI:          uri,
				VertexBuffer: vb,
				BufferIndex:  slot,
				ByteOffset:   offset,
				ByteSize:     size,
			})
			continue
		}

		data, pos, err := im.readVertexStream(planned.semantic, planned.accessor)
		if err != nil {
			return nil, fmt.Errorf("gltf: primitive '%s': %w", name, err)
		}
		if pos != nil {
			positions = pos
		}
		if err := vb.SetBufferAt(slot, data); err != nil {
			return nil, err
		}
	}

	ib, err := im.buildIndexBuffer(plan, name)
	if err != nil {
		return nil, err
	}
	geometry.indexBuffer = ib

	if positions != nil {
		geometry.bounds = positionBounds(positions)

		if im.options.ProxyFactor > 0 && plan.values != nil {
			geometry.proxy = buildProxyGeometry(positions, plan.values, im.options.ProxyFactor)
		} else if im.options.ProxyFactor > 0 && plan.synthesize {
			geometry.proxy = buildProxyGeometry(positions, linearIndices(vertexCount), im.options.ProxyFactor)
		}
	}

	return geometry, nil
}

// readVertexStream decodes a resident attribute into the packed bytes of
// its engine format. Positions are additionally returned for bounds and
// proxy generation.
func (im *importer) readVertexStream(semantic renderer.AttributeSemantic, acc *gltf.Accessor) ([]uint8, [][3]float32, error) {
	switch semantic {
	case renderer.AttributePosition:
		values, err := modeler.ReadPosition(im.doc, acc, nil)
		if err != nil {
			return nil, nil, err
		}
		return packFloat3(values), values, nil
	case renderer.AttributeNormal:
		values, err := modeler.ReadNormal(im.doc, acc, nil)
		if err != nil {
			return nil, nil, err
		}
		return packFloat3(values), nil, nil
	case renderer.AttributeTangent:
		values, err := modeler.ReadTangent(im.doc, acc, nil)
		if err != nil {
			return nil, nil, err
		}
		return packFloat4(values), nil, nil
	case renderer.AttributeTexcoord0:
		values, err := modeler.ReadTextureCoord(im.doc, acc, nil)
		if err != nil {
			return nil, nil, err
		}
		return packFloat2(values), nil, nil
	case renderer.AttributeColor0:
		values, err := modeler.ReadColor(im.doc, acc, nil)
		if err != nil {
			return nil, nil, err
		}
		return packUbyte4(values), nil, nil
	case renderer.AttributeJoints0:
		values, err := modeler.ReadJoints(im.doc, acc, nil)
		if err != nil {
			return nil, nil, err
		}
		return packUshort4(values), nil, nil
	case renderer.AttributeWeights0:
		values, err := modeler.ReadWeights(im.doc, acc, nil)
		if err != nil {
			return nil, nil, err
		}
		return packFloat4(values), nil, nil
	}
	return nil, nil, fmt.Errorf("unhandled vertex semantic %s", semantic)
}

func (im *importer) buildIndexBuffer(plan *indexPlan, name string) (*renderer.IndexBuffer, error) {
	ib, err := im.engine.CreateIndexBuffer(name, plan.indexType, plan.count)
	if err != nil {
		return nil, err
	}
	im.asset.indexBuffers = append(im.asset.indexBuffers, ib)

	switch {
	case plan.synthesize:
		plan.values = linearIndices(plan.count)
		fallthrough
	case plan.values != nil:
		var data []uint8
		if plan.indexType == renderer.IndexTypeUshort {
			data = packIndices16(plan.values)
		} else {
			data = packIndices32(plan.values)
		}
		if err := ib.SetBuffer(data); err != nil {
			return nil, err
		}
	case plan.deferred:
		uri, offset, size, err := accessorByteRange(im.doc, plan.accessor)
		if err != nil {
			return nil, err
		}
		im.asset.bufferAccessors = append(im.asset.bufferAccessors, BufferAccessor{
			URI:         uri,
			IndexBuffer: ib,
			BufferIndex: -1,
			ByteOffset:  offset,
			ByteSize:    size,
		})
	}
	return ib, nil
}

func linearIndices(count uint32) []uint32 {
	values := make([]uint32, count)
	for i := range values {
		values[i] = uint32(i)
	}
	return values
}

func positionBounds(positions [][3]float32) math.Extents3D {
	points := make([]math.Vec3, len(positions))
	for i, p := range positions {
		points[i] = math.NewVec3(p[0], p[1], p[2])
	}
	return math.NewExtents3D(points)
}
