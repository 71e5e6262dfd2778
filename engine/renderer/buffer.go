package renderer

import "fmt"

/** @brief The vertex attribute semantics understood by the engine. */
type AttributeSemantic int

const (
	AttributePosition AttributeSemantic = iota
	AttributeNormal
	AttributeTangent
	AttributeTexcoord0
	AttributeColor0
	AttributeJoints0
	AttributeWeights0
)

func (s AttributeSemantic) String() string {
	switch s {
	case AttributePosition:
		return "position"
	case AttributeNormal:
		return "normal"
	case AttributeTangent:
		return "tangent"
	case AttributeTexcoord0:
		return "texcoord0"
	case AttributeColor0:
		return "color0"
	case AttributeJoints0:
		return "joints0"
	case AttributeWeights0:
		return "weights0"
	}
	return "unknown"
}

/** @brief The storage format of a single vertex attribute. */
type AttributeFormat int

const (
	FormatFloat2 AttributeFormat = iota
	FormatFloat3
	FormatFloat4
	FormatUbyte4
	FormatUshort4
)

// ByteSize returns the per-vertex size of the format.
func (f AttributeFormat) ByteSize() uint32 {
	switch f {
	case FormatFloat2:
		return 8
	case FormatFloat3:
		return 12
	case FormatFloat4:
		return 16
	case FormatUbyte4:
		return 4
	case FormatUshort4:
		return 8
	}
	return 0
}

type VertexAttribute struct {
	Semantic   AttributeSemantic
	Format     AttributeFormat
	Normalized bool
}

/**
 * @brief A vertex buffer with one backing buffer per attribute.
 * The slot index of an attribute is its position in Attributes.
 */
type VertexBuffer struct {
	/** @brief The unique buffer identifier. */
	ID uint32
	/** @brief The buffer name, useful for debugging. */
	Name string
	/** @brief The number of vertices held by every slot. */
	VertexCount uint32
	/** @brief The attribute layout. */
	Attributes []VertexAttribute

	engine *Engine
}

// SetBufferAt uploads attribute data into the given slot. The data must
// cover every vertex; trailing stride padding beyond that is tolerated.
func (vb *VertexBuffer) SetBufferAt(slot int, data []uint8) error {
	if vb.engine == nil {
		return fmt.Errorf("vertex buffer '%s' does not belong to a live engine", vb.Name)
	}
	if slot < 0 || slot >= len(vb.Attributes) {
		return fmt.Errorf("vertex buffer '%s': slot %d out of range (slots=%d)", vb.Name, slot, len(vb.Attributes))
	}
	want := uint64(vb.Attributes[slot].Format.ByteSize()) * uint64(vb.VertexCount)
	if uint64(len(data)) < want {
		return fmt.Errorf("vertex buffer '%s' slot %d: %d bytes provided, %d required",
			vb.Name, slot, len(data), want)
	}
	return vb.engine.backend.VertexBufferWrite(vb, slot, data)
}

/** @brief The width of the indices held by an index buffer. */
type IndexType int

const (
	IndexTypeUshort IndexType = iota
	IndexTypeUint
)

func (it IndexType) ByteSize() uint32 {
	if it == IndexTypeUint {
		return 4
	}
	return 2
}

type IndexBuffer struct {
	/** @brief The unique buffer identifier. */
	ID uint32
	/** @brief The buffer name, useful for debugging. */
	Name string
	/** @brief The width of each index. */
	IndexType IndexType
	/** @brief The number of indices. */
	IndexCount uint32

	engine *Engine
}

// SetBuffer uploads the whole index range.
func (ib *IndexBuffer) SetBuffer(data []uint8) error {
	if ib.engine == nil {
		return fmt.Errorf("index buffer '%s' does not belong to a live engine", ib.Name)
	}
	want := uint64(ib.IndexType.ByteSize()) * uint64(ib.IndexCount)
	if uint64(len(data)) < want {
		return fmt.Errorf("index buffer '%s': %d bytes provided, %d required", ib.Name, len(data), want)
	}
	return ib.engine.backend.IndexBufferWrite(ib, data)
}
