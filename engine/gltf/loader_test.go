package gltf

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	gomath "math"
	"testing"

	"github.com/spaghettifunk/gondola/engine/renderer"
)

func newTestEngine(t *testing.T) (*renderer.Engine, *renderer.HeadlessBackend) {
	t.Helper()
	backend := renderer.NewHeadlessBackend()
	engine, err := renderer.NewEngine(backend)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(func() { engine.Shutdown() })
	return engine, backend
}

func newTestLoader(t *testing.T, engine *renderer.Engine) *AssetLoader {
	t.Helper()
	loader, err := NewAssetLoader(engine, DefaultOptions())
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	return loader
}

// triangleBin packs the binary payload shared by the triangle fixtures:
// three vec3 positions followed by three u16 indices.
func triangleBin() []byte {
	buf := new(bytes.Buffer)
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	for _, p := range positions {
		for _, v := range p {
			binary.Write(buf, binary.LittleEndian, gomath.Float32bits(v))
		}
	}
	for _, i := range []uint16{0, 1, 2} {
		binary.Write(buf, binary.LittleEndian, i)
	}
	return buf.Bytes()
}

// triangleJSON builds a single-triangle document whose buffer points at
// the given uri.
func triangleJSON(bufferURI string, extra string) []byte {
	doc := fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"scene": 0,
		"scenes": [{"nodes": [0]}],
		"nodes": [{"name": "tri", "mesh": 0}],
		"meshes": [{"name": "triangle", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"uri": %q, "byteLength": 42}]%s
	}`, bufferURI, extra)
	return []byte(doc)
}

func embeddedTriangleJSON(extra string) []byte {
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(triangleBin())
	return triangleJSON(uri, extra)
}

func TestCreateAssetFromJSONEmbedded(t *testing.T) {
	engine, backend := newTestEngine(t)
	loader := newTestLoader(t, engine)

	asset, err := loader.CreateAssetFromJSON(embeddedTriangleJSON(""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(asset.Entities()) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(asset.Entities()))
	}
	if len(asset.BufferAccessors()) != 0 {
		t.Fatalf("embedded asset should have no deferred buffers, got %d", len(asset.BufferAccessors()))
	}
	if len(asset.MaterialInstances()) != 1 {
		t.Fatalf("expected 1 material instance, got %d", len(asset.MaterialInstances()))
	}

	r := engine.Renderable(asset.Entities()[0])
	if r == nil {
		t.Fatal("node entity has no renderable")
	}
	slots := backend.VertexData[r.VertexBuffer]
	if got := len(slots[0]); got != 36 {
		t.Fatalf("expected 36 position bytes uploaded, got %d", got)
	}
	if got := len(backend.IndexData[r.IndexBuffer]); got != 6 {
		t.Fatalf("expected 6 index bytes uploaded, got %d", got)
	}

	bounds := asset.Bounds()
	if bounds.Min.X != 0 || bounds.Min.Y != 0 || bounds.Max.X != 1 || bounds.Max.Y != 1 {
		t.Fatalf("unexpected bounds: %+v", bounds)
	}
}

func TestCreateAssetFromJSONExternalBuffer(t *testing.T) {
	engine, backend := newTestEngine(t)
	loader := newTestLoader(t, engine)

	asset, err := loader.CreateAssetFromJSON(triangleJSON("mesh.bin", ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	accessors := asset.BufferAccessors()
	if len(accessors) != 2 {
		t.Fatalf("expected 2 deferred ranges, got %d", len(accessors))
	}

	var vertexRange, indexRange *BufferAccessor
	for i := range accessors {
		if accessors[i].VertexBuffer != nil {
			vertexRange = &accessors[i]
		}
		if accessors[i].IndexBuffer != nil {
			indexRange = &accessors[i]
		}
	}
	if vertexRange == nil || indexRange == nil {
		t.Fatal("expected one vertex and one index range")
	}
	if vertexRange.URI != "mesh.bin" || indexRange.URI != "mesh.bin" {
		t.Fatalf("unexpected uris: %q %q", vertexRange.URI, indexRange.URI)
	}
	if vertexRange.BufferIndex != 0 {
		t.Fatalf("expected position slot 0, got %d", vertexRange.BufferIndex)
	}
	if vertexRange.ByteOffset != 0 || vertexRange.ByteSize != 36 {
		t.Fatalf("unexpected vertex range: %d+%d", vertexRange.ByteOffset, vertexRange.ByteSize)
	}
	if indexRange.ByteOffset != 36 || indexRange.ByteSize != 6 {
		t.Fatalf("unexpected index range: %d+%d", indexRange.ByteOffset, indexRange.ByteSize)
	}
	if indexRange.BufferIndex != -1 {
		t.Fatalf("index range should carry slot -1, got %d", indexRange.BufferIndex)
	}

	// Nothing was uploaded for the deferred ranges.
	r := engine.Renderable(asset.Entities()[0])
	if len(backend.VertexData[r.VertexBuffer][0]) != 0 {
		t.Fatal("external vertex data must not be uploaded at import time")
	}
}

func TestAccessorRangeExceedsBufferLength(t *testing.T) {
	engine, backend := newTestEngine(t)
	loader := newTestLoader(t, engine)

	baseline := backend.LiveObjects

	// The declared buffer is too short for the 36-byte position range.
	doc := bytes.Replace(triangleJSON("mesh.bin", ""),
		[]byte(`"byteLength": 42`),
		[]byte(`"byteLength": 20`), 1)

	if _, err := loader.CreateAssetFromJSON(doc); err == nil {
		t.Fatal("accessor range past the buffer end should fail the load")
	}
	// The half-built asset must not leak backend objects.
	if backend.LiveObjects != baseline {
		t.Fatalf("expected baseline live objects after failed load, got %d (baseline %d)", backend.LiveObjects, baseline)
	}
}

func TestExternalUbyteIndicesSkipped(t *testing.T) {
	engine, _ := newTestEngine(t)
	loader := newTestLoader(t, engine)

	// 8-bit indices in an unfetched buffer cannot be deferred into a
	// 16-bit index buffer, the primitive is dropped.
	doc := bytes.Replace(triangleJSON("mesh.bin", ""),
		[]byte(`"componentType": 5123`),
		[]byte(`"componentType": 5121`), 1)

	asset, err := loader.CreateAssetFromJSON(doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r := engine.Renderable(asset.Entities()[0]); r != nil {
		t.Fatal("skipped primitive should leave the node entity without a renderable")
	}
	if got := len(asset.BufferAccessors()); got != 0 {
		t.Fatalf("skipped primitive should defer nothing, got %d ranges", got)
	}
}

func TestEntryPointMismatch(t *testing.T) {
	engine, _ := newTestEngine(t)
	loader := newTestLoader(t, engine)

	glb := buildGLB(t, embeddedTriangleJSON(""), nil)

	if _, err := loader.CreateAssetFromJSON(glb); !errors.Is(err, ErrBinaryPayload) {
		t.Fatalf("expected ErrBinaryPayload, got %v", err)
	}
	if _, err := loader.CreateAssetFromBinary(embeddedTriangleJSON("")); !errors.Is(err, ErrNotBinaryPayload) {
		t.Fatalf("expected ErrNotBinaryPayload, got %v", err)
	}
	if _, err := loader.CreateAssetFromJSON(nil); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

// buildGLB assembles a binary container from a JSON chunk and an
// optional BIN chunk.
func buildGLB(t *testing.T, jsonDoc, bin []byte) []byte {
	t.Helper()

	pad := func(data []byte, filler byte) []byte {
		for len(data)%4 != 0 {
			data = append(data, filler)
		}
		return data
	}
	jsonDoc = pad(jsonDoc, ' ')

	buf := new(bytes.Buffer)
	total := 12 + 8 + len(jsonDoc)
	if bin != nil {
		bin = pad(bin, 0)
		total += 8 + len(bin)
	}

	buf.WriteString("glTF")
	binary.Write(buf, binary.LittleEndian, uint32(2))
	binary.Write(buf, binary.LittleEndian, uint32(total))

	binary.Write(buf, binary.LittleEndian, uint32(len(jsonDoc)))
	binary.Write(buf, binary.LittleEndian, uint32(0x4E4F534A)) // JSON
	buf.Write(jsonDoc)

	if bin != nil {
		binary.Write(buf, binary.LittleEndian, uint32(len(bin)))
		binary.Write(buf, binary.LittleEndian, uint32(0x004E4942)) // BIN
		buf.Write(bin)
	}
	return buf.Bytes()
}

func TestCreateAssetFromBinary(t *testing.T) {
	engine, backend := newTestEngine(t)
	loader := newTestLoader(t, engine)

	jsonDoc := []byte(`{
		"asset": {"version": "2.0"},
		"nodes": [{"name": "tri", "mesh": 0}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"byteLength": 42}]
	}`)

	asset, err := loader.CreateAssetFromBinary(buildGLB(t, jsonDoc, triangleBin()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(asset.BufferAccessors()) != 0 {
		t.Fatalf("glb chunk data must be resident, got %d deferred ranges", len(asset.BufferAccessors()))
	}
	r := engine.Renderable(asset.Entities()[0])
	if got := len(backend.VertexData[r.VertexBuffer][0]); got != 36 {
		t.Fatalf("expected 36 position bytes uploaded, got %d", got)
	}
}

func TestMaterialCacheSharedAcrossAssets(t *testing.T) {
	engine, _ := newTestEngine(t)
	loader := newTestLoader(t, engine)

	// Two materials with different factors share one shader-level
	// definition.
	extra := `,
		"materials": [
			{"pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1]}},
			{"pbrMetallicRoughness": {"baseColorFactor": [0, 1, 0, 1]}}
		]`
	doc := bytes.Replace(embeddedTriangleJSON(extra),
		[]byte(`"indices": 1}`),
		[]byte(`"indices": 1, "material": 0}`), 1)

	first, err := loader.CreateAssetFromJSON(doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	doc = bytes.Replace(doc, []byte(`"material": 0`), []byte(`"material": 1`), 1)
	second, err := loader.CreateAssetFromJSON(doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loader.MaterialsCount() != 1 {
		t.Fatalf("expected 1 cached material, got %d", loader.MaterialsCount())
	}
	if first.MaterialInstances()[0].Material() != second.MaterialInstances()[0].Material() {
		t.Fatal("instances of identical configurations should share one material")
	}
	if got := first.MaterialInstances()[0].BaseColorFactor.X; got != 1 {
		t.Fatalf("first base color factor lost: %v", got)
	}
	if got := second.MaterialInstances()[0].BaseColorFactor.Y; got != 1 {
		t.Fatalf("second base color factor lost: %v", got)
	}
}

func TestDestroyAssetAndMaterials(t *testing.T) {
	engine, backend := newTestEngine(t)
	loader := newTestLoader(t, engine)

	baseline := backend.LiveObjects

	asset, err := loader.CreateAssetFromJSON(embeddedTriangleJSON(""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if backend.LiveObjects <= baseline {
		t.Fatal("loading should create backend objects")
	}

	// Materials are still referenced by the live asset.
	if err := loader.DestroyMaterials(); err == nil {
		t.Fatal("destroying materials with live instances should fail")
	}
	if loader.MaterialsCount() != 1 {
		t.Fatalf("material with live instances must survive, count=%d", loader.MaterialsCount())
	}

	loader.DestroyAsset(asset)
	// The material cache outlives the asset.
	if backend.LiveObjects != baseline+1 {
		t.Fatalf("expected only the cached material to remain, live=%d baseline=%d", backend.LiveObjects, baseline)
	}

	// Double destroy is a no-op.
	loader.DestroyAsset(asset)

	if err := loader.DestroyMaterials(); err != nil {
		t.Fatalf("destroy materials: %v", err)
	}
	if loader.MaterialsCount() != 0 {
		t.Fatalf("cache should be empty, count=%d", loader.MaterialsCount())
	}
	if backend.LiveObjects != baseline {
		t.Fatalf("expected baseline live objects, got %d", backend.LiveObjects)
	}
}

func TestEmbeddedImageTexture(t *testing.T) {
	engine, backend := newTestEngine(t)
	options := DefaultOptions()
	options.GenerateMipmaps = false
	loader, err := NewAssetLoader(engine, options)
	if err != nil {
		t.Fatalf("loader: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < 4; i++ {
		img.Set(i%2, i/2, color.RGBA{R: 255, A: 255})
	}
	pngBuf := new(bytes.Buffer)
	if err := png.Encode(pngBuf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	imageURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBuf.Bytes())

	extra := fmt.Sprintf(`,
		"materials": [{"pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}}],
		"textures": [{"source": 0}],
		"images": [{"uri": %q}]`, imageURI)
	doc := bytes.Replace(embeddedTriangleJSON(extra),
		[]byte(`"indices": 1}`),
		[]byte(`"indices": 1, "material": 0}`), 1)

	asset, err := loader.CreateAssetFromJSON(doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	instance := asset.MaterialInstances()[0]
	if instance.BaseColorMap == nil {
		t.Fatal("base color map not bound")
	}
	texture := instance.BaseColorMap.Texture
	if texture.Width != 2 || texture.Height != 2 {
		t.Fatalf("unexpected texture dimensions %dx%d", texture.Width, texture.Height)
	}
	if got := backend.TexturePixels[texture]; got != 16 {
		t.Fatalf("expected 16 pixel bytes uploaded, got %d", got)
	}
	if instance.Material().Config.Features&renderer.FeatureBaseColorTexture == 0 {
		t.Fatal("material config should advertise the base color texture")
	}
	if len(asset.PixelAccessors()) != 0 {
		t.Fatal("embedded image should not defer")
	}
}

func TestExternalImageDefers(t *testing.T) {
	engine, _ := newTestEngine(t)
	loader := newTestLoader(t, engine)

	extra := `,
		"materials": [{"pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}}],
		"textures": [{"source": 0}],
		"images": [{"uri": "albedo.png"}]`
	doc := bytes.Replace(embeddedTriangleJSON(extra),
		[]byte(`"indices": 1}`),
		[]byte(`"indices": 1, "material": 0}`), 1)

	asset, err := loader.CreateAssetFromJSON(doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	pixels := asset.PixelAccessors()
	if len(pixels) != 1 {
		t.Fatalf("expected 1 pixel accessor, got %d", len(pixels))
	}
	acc := pixels[0]
	if acc.URI != "albedo.png" {
		t.Fatalf("unexpected uri %q", acc.URI)
	}
	if acc.Width != 0 || acc.Height != 0 {
		t.Fatal("external image dimensions are unknown until decode")
	}
	if acc.Texture.Width != 0 {
		t.Fatal("deferred texture should have no storage yet")
	}
	if acc.Texture.Flags&renderer.TextureFlagBits(renderer.TextureFlagDeferredStorage) == 0 {
		t.Fatal("deferred texture should carry the deferred storage flag")
	}
}

func TestSkinBinding(t *testing.T) {
	engine, _ := newTestEngine(t)
	loader := newTestLoader(t, engine)

	extra := `,
		"skins": [{"joints": [1, 2]}]`
	doc := bytes.Replace(embeddedTriangleJSON(extra),
		[]byte(`"nodes": [{"name": "tri", "mesh": 0}]`),
		[]byte(`"nodes": [{"name": "tri", "mesh": 0, "skin": 0}, {"name": "hip"}, {"name": "knee"}]`), 1)

	asset, err := loader.CreateAssetFromJSON(doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	r := engine.Renderable(asset.Entities()[0])
	if r.Skin == nil {
		t.Fatal("skinned renderable has no binding")
	}
	if len(r.Skin.Joints) != 2 {
		t.Fatalf("expected 2 joints, got %d", len(r.Skin.Joints))
	}
	if len(r.Skin.InverseBindMatrices) != 2 {
		t.Fatalf("expected 2 inverse bind matrices, got %d", len(r.Skin.InverseBindMatrices))
	}
	// Absent ibm accessor means identity.
	if r.Skin.InverseBindMatrices[0].Data[0] != 1 || r.Skin.InverseBindMatrices[0].Data[5] != 1 {
		t.Fatal("expected identity inverse bind matrices")
	}
	if r.MaterialInstance.Material().Config.Features&renderer.FeatureSkinning == 0 {
		t.Fatal("skinned primitive should use a skinning material")
	}
}

func TestPunctualLights(t *testing.T) {
	engine, _ := newTestEngine(t)
	loader := newTestLoader(t, engine)

	extra := `,
		"extensionsUsed": ["KHR_lights_punctual"],
		"extensions": {"KHR_lights_punctual": {"lights": [
			{"name": "sun", "type": "directional", "intensity": 3},
			{"name": "bulb", "type": "spot", "spot": {"outerConeAngle": 0.5}}
		]}}`
	doc := bytes.Replace(embeddedTriangleJSON(extra),
		[]byte(`"nodes": [{"name": "tri", "mesh": 0}]`),
		[]byte(`"nodes": [
			{"name": "tri", "mesh": 0},
			{"name": "sun", "extensions": {"KHR_lights_punctual": {"light": 0}}},
			{"name": "bulb", "extensions": {"KHR_lights_punctual": {"light": 1}}}
		]`), 1)

	asset, err := loader.CreateAssetFromJSON(doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var sun, bulb *renderer.Light
	for _, ent := range asset.Entities() {
		if l := engine.Light(ent); l != nil {
			switch l.Name {
			case "sun":
				sun = l
			case "bulb":
				bulb = l
			}
		}
	}
	if sun == nil || bulb == nil {
		t.Fatal("expected both lights to be created")
	}
	if sun.Type != renderer.LightDirectional || sun.Intensity != 3 {
		t.Fatalf("unexpected sun: %+v", sun)
	}
	if bulb.Type != renderer.LightSpot || bulb.OuterConeAngle != 0.5 {
		t.Fatalf("unexpected bulb: %+v", bulb)
	}
}

func TestUpdateCamera(t *testing.T) {
	engine, _ := newTestEngine(t)
	loader := newTestLoader(t, engine)

	extra := `,
		"cameras": [{"type": "perspective", "perspective": {"yfov": 1.2, "znear": 0.5, "zfar": 50}}]`
	doc := bytes.Replace(embeddedTriangleJSON(extra),
		[]byte(`"nodes": [{"name": "tri", "mesh": 0}]`),
		[]byte(`"nodes": [{"name": "tri", "mesh": 0}, {"name": "eye", "camera": 0}]`), 1)

	asset, err := loader.CreateAssetFromJSON(doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	camera := renderer.NewCamera()
	if !asset.UpdateCamera(camera) {
		t.Fatal("camera settings should have been found")
	}
	if camera.FovY != 1.2 || camera.Near != 0.5 || camera.Far != 50 {
		t.Fatalf("camera not updated: %+v", camera)
	}

	// Documents without cameras leave the target untouched.
	plain, err := loader.CreateAssetFromJSON(embeddedTriangleJSON(""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if plain.UpdateCamera(camera) {
		t.Fatal("no camera in the document, update should report false")
	}
}

func TestMaterialSignature(t *testing.T) {
	base := renderer.MaterialConfig{Shading: renderer.ShadingLit}

	masked := base
	masked.AlphaMode = renderer.AlphaMask
	textured := base
	textured.Features = renderer.FeatureBaseColorTexture

	if materialSignature(base) == materialSignature(masked) {
		t.Fatal("alpha mode must change the signature")
	}
	if materialSignature(base) == materialSignature(textured) {
		t.Fatal("features must change the signature")
	}
	if materialSignature(base) != materialSignature(renderer.MaterialConfig{Shading: renderer.ShadingLit}) {
		t.Fatal("identical configurations must collapse")
	}
}
