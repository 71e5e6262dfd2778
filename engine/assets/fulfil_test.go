package assets

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	gomath "math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/gondola/engine/gltf"
	"github.com/spaghettifunk/gondola/engine/renderer"
)

func writeTriangleBin(t *testing.T, dir string) {
	t.Helper()
	buf := new(bytes.Buffer)
	for _, p := range [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}} {
		for _, v := range p {
			binary.Write(buf, binary.LittleEndian, gomath.Float32bits(v))
		}
	}
	for _, i := range []uint16{0, 1, 2} {
		binary.Write(buf, binary.LittleEndian, i)
	}
	if err := os.WriteFile(filepath.Join(dir, "mesh.bin"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeAlbedoPNG(t *testing.T, dir string, size int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "albedo.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func externalTriangleDoc() []byte {
	return []byte(`{
		"asset": {"version": "2.0"},
		"nodes": [{"name": "tri", "mesh": 0}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
		"materials": [{"pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}}],
		"textures": [{"source": 0}],
		"images": [{"uri": "albedo.png"}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"uri": "mesh.bin", "byteLength": 42}]
	}`)
}

func TestFulfilAsset(t *testing.T) {
	root := t.TempDir()
	writeTriangleBin(t, root)
	writeAlbedoPNG(t, root, 4)

	backend := renderer.NewHeadlessBackend()
	engine, err := renderer.NewEngine(backend)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer engine.Shutdown()

	options := gltf.DefaultOptions()
	options.GenerateMipmaps = false
	loader, err := gltf.NewAssetLoader(engine, options)
	if err != nil {
		t.Fatalf("loader: %v", err)
	}

	asset, err := loader.CreateAssetFromJSON(externalTriangleDoc())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(asset.BufferAccessors()) != 2 || len(asset.PixelAccessors()) != 1 {
		t.Fatalf("unexpected deferral: %d buffers, %d pixels",
			len(asset.BufferAccessors()), len(asset.PixelAccessors()))
	}

	resolver, err := NewResolver(root)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	defer resolver.Close()

	if err := NewFulfiller(resolver, options).FulfilAsset(asset); err != nil {
		t.Fatalf("fulfil: %v", err)
	}

	r := engine.Renderable(asset.Entities()[0])
	if got := len(backend.VertexData[r.VertexBuffer][0]); got != 36 {
		t.Fatalf("expected 36 position bytes after fulfilment, got %d", got)
	}
	if got := len(backend.IndexData[r.IndexBuffer]); got != 6 {
		t.Fatalf("expected 6 index bytes after fulfilment, got %d", got)
	}

	texture := asset.PixelAccessors()[0].Texture
	if texture.Width != 4 || texture.Height != 4 {
		t.Fatalf("deferred texture not realized: %dx%d", texture.Width, texture.Height)
	}
	if texture.Flags&renderer.TextureFlagBits(renderer.TextureFlagDeferredStorage) != 0 {
		t.Fatal("deferred storage flag should clear after resize")
	}
	if got := backend.TexturePixels[texture]; got != 4*4*4 {
		t.Fatalf("expected 64 pixel bytes uploaded, got %d", got)
	}
}

func TestFulfilBufferRangeValidation(t *testing.T) {
	backend := renderer.NewHeadlessBackend()
	engine, err := renderer.NewEngine(backend)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer engine.Shutdown()

	ib, err := engine.CreateIndexBuffer("idx", renderer.IndexTypeUshort, 3)
	if err != nil {
		t.Fatal(err)
	}

	root := t.TempDir()
	resolver, err := NewResolver(root)
	if err != nil {
		t.Fatal(err)
	}
	defer resolver.Close()
	fulfiller := NewFulfiller(resolver, gltf.DefaultOptions())

	acc := gltf.BufferAccessor{URI: "mesh.bin", IndexBuffer: ib, BufferIndex: -1, ByteOffset: 4, ByteSize: 6}
	if err := fulfiller.FulfilBuffer(acc, make([]byte, 8)); err == nil {
		t.Fatal("range past the payload end must fail")
	}
	if err := fulfiller.FulfilBuffer(acc, make([]byte, 10)); err != nil {
		t.Fatalf("valid range: %v", err)
	}
	if got := len(backend.IndexData[ib]); got != 6 {
		t.Fatalf("expected 6 bytes uploaded, got %d", got)
	}
}
