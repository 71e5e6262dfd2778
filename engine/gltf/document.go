package gltf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
)

var (
	// ErrEmptyPayload is returned when no bytes were provided at all.
	ErrEmptyPayload = errors.New("gltf: empty payload")
	// ErrBinaryPayload is returned by CreateAssetFromJSON when the bytes
	// carry the GLB magic.
	ErrBinaryPayload = errors.New("gltf: payload is binary glTF, use CreateAssetFromBinary")
	// ErrNotBinaryPayload is returned by CreateAssetFromBinary when the
	// bytes do not carry the GLB magic.
	ErrNotBinaryPayload = errors.New("gltf: payload is not binary glTF, use CreateAssetFromJSON")
)

var glbMagic = []byte("glTF")

func isBinaryPayload(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], glbMagic)
}

// decodeDocument parses glTF content. External buffer uris are left
// unread on purpose: the decoder gets no filesystem, so only GLB chunks
// and base64 data uris come back resident.
func decodeDocument(data []byte) (*gltf.Document, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("gltf: malformed document: %w", err)
	}
	return doc, nil
}

// resident reports whether the data behind a buffer view is available
// without fetching anything.
func resident(doc *gltf.Document, bufferView int) bool {
	if bufferView < 0 || bufferView >= len(doc.BufferViews) {
		return false
	}
	bv := doc.BufferViews[bufferView]
	if int(bv.Buffer) >= len(doc.Buffers) {
		return false
	}
	return len(doc.Buffers[bv.Buffer].Data) > 0
}

func componentSize(c gltf.ComponentType) uint32 {
	switch c {
	case gltf.ComponentFloat, gltf.ComponentUint:
		return 4
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	}
	return 0
}

func elementCount(t gltf.AccessorType) uint32 {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4:
		return 4
	case gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	}
	return 0
}

// accessorByteRange resolves an accessor into the byte range the caller
// must read from the underlying buffer. Stride padding between elements
// is included, trailing padding after the last element is not.
func accessorByteRange(doc *gltf.Document, acc *gltf.Accessor) (uri string, offset, size uint32, err error) {
	if acc.BufferView == nil {
		return "", 0, 0, fmt.Errorf("gltf: accessor '%s' has no buffer view", acc.Name)
	}
	if int(*acc.BufferView) >= len(doc.BufferViews) {
		return "", 0, 0, fmt.Errorf("gltf: accessor '%s' references buffer view %d out of range", acc.Name, *acc.BufferView)
	}
	bv := doc.BufferViews[*acc.BufferView]
	if int(bv.Buffer) >= len(doc.Buffers) {
		return "", 0, 0, fmt.Errorf("gltf: buffer view references buffer %d out of range", bv.Buffer)
	}
	buffer := doc.Buffers[bv.Buffer]

	elemSize := componentSize(acc.ComponentType) * elementCount(acc.Type)
	if elemSize == 0 {
		return "", 0, 0, fmt.Errorf("gltf: accessor '%s' has unsupported component/type combination", acc.Name)
	}
	size = elemSize * acc.Count
	if stride := bv.ByteStride; stride > elemSize && acc.Count > 0 {
		size = stride*(acc.Count-1) + elemSize
	}
	offset = bv.ByteOffset + acc.ByteOffset

	if uint64(offset)+uint64(size) > uint64(buffer.ByteLength) && buffer.ByteLength > 0 {
		return "", 0, 0, fmt.Errorf("gltf: accessor '%s' range %d+%d exceeds buffer length %d",
			acc.Name, offset, size, buffer.ByteLength)
	}
	return buffer.URI, offset, size, nil
}
