package gltf

import (
	"encoding/binary"
	gomath "math"
)

// Packing helpers turning decoded accessor data into the little-endian
// layout the engine buffers expect.

func packFloat2(values [][2]float32) []uint8 {
	data := make([]uint8, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*8:], gomath.Float32bits(v[0]))
		binary.LittleEndian.PutUint32(data[i*8+4:], gomath.Float32bits(v[1]))
	}
	return data
}

func packFloat3(values [][3]float32) []uint8 {
	data := make([]uint8, len(values)*12)
	for i, v := range values {
		for j := 0; j < 3; j++ {
			binary.LittleEndian.PutUint32(data[i*12+j*4:], gomath.Float32bits(v[j]))
		}
	}
	return data
}

func packFloat4(values [][4]float32) []uint8 {
	data := make([]uint8, len(values)*16)
	for i, v := range values {
		for j := 0; j < 4; j++ {
			binary.LittleEndian.PutUint32(data[i*16+j*4:], gomath.Float32bits(v[j]))
		}
	}
	return data
}

func packUbyte4(values [][4]uint8) []uint8 {
	data := make([]uint8, len(values)*4)
	for i, v := range values {
		copy(data[i*4:], v[:])
	}
	return data
}

func packUshort4(values [][4]uint16) []uint8 {
	data := make([]uint8, len(values)*8)
	for i, v := range values {
		for j := 0; j < 4; j++ {
			binary.LittleEndian.PutUint16(data[i*8+j*2:], v[j])
		}
	}
	return data
}

func packIndices16(values []uint32) []uint8 {
	data := make([]uint8, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}
	return data
}

func packIndices32(values []uint32) []uint8 {
	data := make([]uint8, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
	return data
}
