package renderer

import (
	"testing"
)

func newEngine(t *testing.T) (*Engine, *HeadlessBackend) {
	t.Helper()
	backend := NewHeadlessBackend()
	engine, err := NewEngine(backend)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(func() { engine.Shutdown() })
	return engine, backend
}

func TestDefaultTextures(t *testing.T) {
	engine, backend := newEngine(t)

	defaults := engine.DefaultTextures()
	if defaults.White == nil || defaults.Normal == nil {
		t.Fatal("default textures missing")
	}
	if backend.TexturePixels[defaults.White] != 4 {
		t.Fatal("white fallback should be a single uploaded pixel")
	}
	if backend.LiveObjects != 2 {
		t.Fatalf("expected 2 live objects after startup, got %d", backend.LiveObjects)
	}
}

func TestTextureLifecycle(t *testing.T) {
	engine, backend := newEngine(t)

	texture, err := engine.CreateTexture("checker", 4, 4, 4, 3)
	if err != nil {
		t.Fatal(err)
	}

	if err := texture.SetImage(0, 0, 0, 4, 4, make([]uint8, 64)); err != nil {
		t.Fatalf("level 0 upload: %v", err)
	}
	if err := texture.SetImage(2, 0, 0, 1, 1, make([]uint8, 4)); err != nil {
		t.Fatalf("smallest mip upload: %v", err)
	}

	if err := texture.SetImage(3, 0, 0, 1, 1, make([]uint8, 4)); err == nil {
		t.Fatal("mip level past the chain must fail")
	}
	if err := texture.SetImage(0, 2, 2, 4, 4, make([]uint8, 64)); err == nil {
		t.Fatal("rect outside the level must fail")
	}
	if err := texture.SetImage(0, 0, 0, 4, 4, make([]uint8, 10)); err == nil {
		t.Fatal("short pixel data must fail")
	}

	generation := texture.Generation
	if err := texture.SetImage(0, 1, 1, 2, 2, make([]uint8, 16)); err != nil {
		t.Fatalf("partial upload: %v", err)
	}
	if texture.Generation != generation+1 {
		t.Fatal("upload should bump the generation")
	}

	engine.DestroyTexture(texture)
	if texture.ID != InvalidID {
		t.Fatal("destroyed texture should carry the invalid id")
	}
	if _, ok := backend.TexturePixels[texture]; ok {
		t.Fatal("backend storage should be gone")
	}
	// Destroying again is a warned no-op.
	engine.DestroyTexture(texture)
}

func TestDeferredTexture(t *testing.T) {
	engine, _ := newEngine(t)

	texture, err := engine.CreateDeferredTexture("external", 4)
	if err != nil {
		t.Fatal(err)
	}
	if texture.Width != 0 || texture.Height != 0 {
		t.Fatal("deferred texture must start without storage")
	}
	if err := texture.SetImage(0, 0, 0, 2, 2, make([]uint8, 16)); err == nil {
		t.Fatal("upload before resize must fail")
	}

	if err := texture.Resize(8, 8, 4); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if texture.Flags&TextureFlagBits(TextureFlagDeferredStorage) != 0 {
		t.Fatal("resize should clear the deferred flag")
	}
	if err := texture.SetImage(0, 0, 0, 8, 8, make([]uint8, 256)); err != nil {
		t.Fatalf("upload after resize: %v", err)
	}
}

func TestVertexBufferSlots(t *testing.T) {
	engine, backend := newEngine(t)

	vb, err := engine.CreateVertexBuffer("quad", 4, []VertexAttribute{
		{Semantic: AttributePosition, Format: FormatFloat3},
		{Semantic: AttributeTexcoord0, Format: FormatFloat2},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := vb.SetBufferAt(0, make([]uint8, 4*12)); err != nil {
		t.Fatalf("position slot: %v", err)
	}
	if err := vb.SetBufferAt(1, make([]uint8, 4*8)); err != nil {
		t.Fatalf("texcoord slot: %v", err)
	}
	if err := vb.SetBufferAt(2, make([]uint8, 16)); err == nil {
		t.Fatal("slot out of range must fail")
	}
	if err := vb.SetBufferAt(0, make([]uint8, 10)); err == nil {
		t.Fatal("short data must fail")
	}

	if got := len(backend.VertexData[vb][0]); got != 48 {
		t.Fatalf("expected 48 bytes in slot 0, got %d", got)
	}

	// Creation rejects empty layouts and zero counts.
	if _, err := engine.CreateVertexBuffer("bad", 0, []VertexAttribute{{}}); err == nil {
		t.Fatal("zero vertices must fail")
	}
	if _, err := engine.CreateVertexBuffer("bad", 4, nil); err == nil {
		t.Fatal("empty layout must fail")
	}
}

func TestMaterialInstanceBookkeeping(t *testing.T) {
	engine, _ := newEngine(t)

	m, err := engine.CreateMaterial(MaterialConfig{Name: "lit"})
	if err != nil {
		t.Fatal(err)
	}

	mi, err := engine.CreateMaterialInstance(m, "lit_0")
	if err != nil {
		t.Fatal(err)
	}
	if mi.BaseColorFactor.X != 1 || mi.MetallicFactor != 1 || mi.AlphaCutoff != 0.5 {
		t.Fatalf("unexpected instance defaults: %+v", mi)
	}
	if m.InstanceCount() != 1 {
		t.Fatalf("expected 1 instance, got %d", m.InstanceCount())
	}

	if err := engine.DestroyMaterial(m); err == nil {
		t.Fatal("destroying a material with live instances must fail")
	}

	engine.DestroyMaterialInstance(mi)
	if m.InstanceCount() != 0 {
		t.Fatalf("expected 0 instances, got %d", m.InstanceCount())
	}
	if err := engine.DestroyMaterial(m); err != nil {
		t.Fatalf("destroy material: %v", err)
	}
}

func TestEntityComponents(t *testing.T) {
	engine, _ := newEngine(t)

	ent := engine.CreateEntity("node")
	if engine.Renderable(ent) != nil {
		t.Fatal("fresh entity should have no renderable")
	}

	r := &Renderable{Name: "node"}
	engine.SetRenderable(ent, r)
	if engine.Renderable(ent) != r {
		t.Fatal("renderable not attached")
	}

	l := &Light{Name: "lamp", Type: LightPoint}
	engine.SetLight(ent, l)
	if engine.Light(ent) != l {
		t.Fatal("light not attached")
	}

	engine.DestroyEntity(ent)
	if engine.Renderable(ent) != nil || engine.Light(ent) != nil {
		t.Fatal("components should be gone with the entity")
	}
}
