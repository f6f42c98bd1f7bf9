package astro

import (
	"math"
	"testing"
)

func TestVector3_Basics(t *testing.T) {
	v := Vector3{X: 3, Y: 4, Z: 0}

	if m := v.Mag(); m != 5 {
		t.Errorf("Mag = %v, want 5", m)
	}
	if n := v.Norm(); math.Abs(n.Mag()-1) > 1e-12 {
		t.Errorf("Norm magnitude = %v, want 1", n.Mag())
	}
	if d := v.Dot(Vector3{X: 1, Y: 1, Z: 1}); d != 7 {
		t.Errorf("Dot = %v, want 7", d)
	}
	if s := v.Sub(Vector3{X: 3, Y: 4, Z: 0}); !s.IsZero() {
		t.Errorf("Sub of self = %+v, want zero", s)
	}
}

func TestVector3_NormZero(t *testing.T) {
	if n := (Vector3{}).Norm(); !n.IsZero() {
		t.Errorf("Norm of zero vector = %+v, want zero", n)
	}
}

func TestVector3_AngleTo(t *testing.T) {
	x := Vector3{X: 1}
	y := Vector3{Y: 1}

	if a := x.AngleTo(y); math.Abs(a-math.Pi/2) > 1e-12 {
		t.Errorf("angle(x, y) = %v, want pi/2", a)
	}
	if a := x.AngleTo(x.Scale(3.5)); a > 1e-7 {
		t.Errorf("angle(x, 3.5x) = %v, want 0", a)
	}
	if a := x.AngleTo(x.Scale(-1)); math.Abs(a-math.Pi) > 1e-7 {
		t.Errorf("angle(x, -x) = %v, want pi", a)
	}
}
