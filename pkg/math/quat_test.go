package math

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := math32.Sqrt(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)
	if abs(length-1.0) > 0.0001 {
		t.Errorf("Normalized quaternion should have length 1, got %v", length)
	}
}

func TestQuatToMat4(t *testing.T) {
	// Identity quaternion should produce identity matrix
	m := QuatIdentity().ToMat4()

	identity := Identity()
	for i := 0; i < 16; i++ {
		if abs(m[i]-identity[i]) > 0.0001 {
			t.Errorf("Identity quat should produce identity matrix, element %d: got %v, want %v", i, m[i], identity[i])
		}
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	// 90 degrees around Y axis
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, math32.Pi/2)

	expectedW := math32.Cos(math32.Pi / 4)
	expectedY := math32.Sin(math32.Pi / 4)

	if abs(q.W-expectedW) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if abs(q.Y-expectedY) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}

func TestQuatRotate(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{0, 0, 1}, math32.Pi/2)
	got := q.Rotate(Vec3{1, 0, 0})
	if got.Distance(Vec3{0, 1, 0}) > 0.001 {
		t.Errorf("Rotate((1,0,0)) by 90deg about Z = %v, want (0, 1, 0)", got)
	}
}

func TestQuatBasisOrthonormal(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{1, 1, 0}.Normalize(), 0.7)
	b := q.Basis()
	for i := 0; i < 3; i++ {
		if abs(b[i].Length()-1) > 0.001 {
			t.Errorf("basis axis %d length = %v, want 1", i, b[i].Length())
		}
		for j := i + 1; j < 3; j++ {
			if abs(b[i].Dot(b[j])) > 0.001 {
				t.Errorf("basis axes %d and %d not orthogonal: dot = %v", i, j, b[i].Dot(b[j]))
			}
		}
	}
}

func TestQuatMulComposes(t *testing.T) {
	a := QuatFromAxisAngle(Vec3{0, 1, 0}, math32.Pi/4)
	got := a.Mul(a).Rotate(Vec3{1, 0, 0})
	want := QuatFromAxisAngle(Vec3{0, 1, 0}, math32.Pi/2).Rotate(Vec3{1, 0, 0})
	if got.Distance(want) > 0.001 {
		t.Errorf("a*a rotation = %v, want %v", got, want)
	}
}
