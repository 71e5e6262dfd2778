package math

import (
	gomath "math"
	"testing"
)

func TestVec3Ops(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)

	if got := a.Add(b); got != NewVec3(5, 7, 9) {
		t.Fatalf("add: %+v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Fatalf("dot: %v", got)
	}
	if got := NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0)); got != NewVec3(0, 0, 1) {
		t.Fatalf("cross: %+v", got)
	}
	if got := NewVec3(3, 0, 4).Length(); got != 5 {
		t.Fatalf("length: %v", got)
	}
	n := NewVec3(0, 0, 9).Normalized()
	if !n.Compare(NewVec3(0, 0, 1), 1e-6) {
		t.Fatalf("normalized: %+v", n)
	}
	if got := a.Min(b); got != a {
		t.Fatalf("min: %+v", got)
	}
	if got := a.Max(b); got != b {
		t.Fatalf("max: %+v", got)
	}
}

func TestMat4TranslationAndTransform(t *testing.T) {
	m := NewMat4Translation(NewVec3(1, 2, 3))
	p := NewVec3(0, 0, 0).Transform(m)
	if !p.Compare(NewVec3(1, 2, 3), 1e-6) {
		t.Fatalf("translated point: %+v", p)
	}

	scaled := NewVec3(1, 1, 1).Transform(NewMat4Scale(NewVec3(2, 3, 4)))
	if !scaled.Compare(NewVec3(2, 3, 4), 1e-6) {
		t.Fatalf("scaled point: %+v", scaled)
	}

	// Composition applies right to left.
	combined := NewMat4Translation(NewVec3(1, 0, 0)).Mul(NewMat4Scale(NewVec3(2, 2, 2)))
	q := NewVec3(1, 0, 0).Transform(combined)
	if !q.Compare(NewVec3(3, 0, 0), 1e-6) {
		t.Fatalf("composed point: %+v", q)
	}
}

func TestMat4FromColumnMajor(t *testing.T) {
	var values [16]float64
	values[0], values[5], values[10], values[15] = 1, 1, 1, 1
	values[12], values[13], values[14] = 7, 8, 9 // translation column

	m := NewMat4FromColumnMajor(values)
	p := NewVec3(0, 0, 0).Transform(m)
	if !p.Compare(NewVec3(7, 8, 9), 1e-6) {
		t.Fatalf("translation lost in conversion: %+v", p)
	}
}

func TestQuaternionRotation(t *testing.T) {
	// 90 degrees around z turns x into y.
	half := float32(gomath.Pi / 4)
	q := Quaternion{Z: float32(gomath.Sin(float64(half))), W: float32(gomath.Cos(float64(half)))}

	p := NewVec3(1, 0, 0).Transform(q.ToMat4())
	if !p.Compare(NewVec3(0, 1, 0), 1e-5) {
		t.Fatalf("rotated point: %+v", p)
	}

	if got := NewQuatIdentity().ToMat4(); got != NewMat4Identity() {
		t.Fatal("identity quaternion should produce the identity matrix")
	}
}

func TestExtents3D(t *testing.T) {
	e := NewExtents3D([]Vec3{
		NewVec3(1, -2, 0),
		NewVec3(-1, 4, 2),
		NewVec3(0, 0, -3),
	})
	if e.Min != NewVec3(-1, -2, -3) || e.Max != NewVec3(1, 4, 2) {
		t.Fatalf("extents: %+v", e)
	}
	if got := e.Center(); !got.Compare(NewVec3(0, 1, -0.5), 1e-6) {
		t.Fatalf("center: %+v", got)
	}

	u := e.Union(NewExtents3D([]Vec3{NewVec3(5, 0, 0)}))
	if u.Max.X != 5 || u.Min.X != -1 {
		t.Fatalf("union: %+v", u)
	}
}

func TestTransformHierarchy(t *testing.T) {
	parent := TransformFromPositionRotationScale(NewVec3(10, 0, 0), NewQuatIdentity(), NewVec3One())
	child := TransformFromPositionRotationScale(NewVec3(0, 5, 0), NewQuatIdentity(), NewVec3One())
	child.Parent = parent

	p := NewVec3(0, 0, 0).Transform(child.GetWorld())
	if !p.Compare(NewVec3(10, 5, 0), 1e-5) {
		t.Fatalf("world position: %+v", p)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Fatalf("clamp high: %v", got)
	}
	if got := Clamp(-1.5, 0.0, 3.0); got != 0 {
		t.Fatalf("clamp low: %v", got)
	}
	if got := Clamp(2, 0, 3); got != 2 {
		t.Fatalf("clamp inside: %v", got)
	}
}
