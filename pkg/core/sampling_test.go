package core

import (
	"math"
	"math/rand"
	"testing"
)

func TestRandomVec3_Range(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		v := RandomVec3(random, 0, 1)
		for _, c := range []float64{v.X, v.Y, v.Z} {
			if c < 0 || c >= 1 {
				t.Fatalf("Component %f outside [0, 1)", c)
			}
		}
	}
}

func TestRandomSamplers(t *testing.T) {
	random := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		if p := RandomInUnitSphere(random); p.LengthSquared() >= 1 {
			t.Fatalf("Point %v outside unit sphere", p)
		}

		d := RandomInUnitDisk(random)
		if d.LengthSquared() >= 1 || d.Z != 0 {
			t.Fatalf("Point %v outside unit disk", d)
		}

		if u := RandomUnitVector(random); math.Abs(u.Length()-1) > 1e-12 {
			t.Fatalf("Random unit vector %v has length %f", u, u.Length())
		}
	}
}

func TestRandomUnitVector_Unbiased(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	var sum Vec3
	const n = 20000
	for i := 0; i < n; i++ {
		sum.AddAssign(RandomUnitVector(random))
	}
	mean := sum.Divide(n)
	if mean.Length() > 0.03 {
		t.Errorf("Expected mean direction near zero, got %v", mean)
	}
}

func TestAABB_Hit(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	tests := []struct {
		name     string
		ray      Ray
		rayT     Interval
		expected bool
	}{
		{"straight through", NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1)), NewInterval(0.001, math.Inf(1)), true},
		{"miss to the side", NewRay(NewVec3(3, 0, 5), NewVec3(0, 0, -1)), NewInterval(0.001, math.Inf(1)), false},
		{"box behind interval", NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1)), NewInterval(0.001, 3), false},
		{"parallel inside slab", NewRay(NewVec3(0.5, 0.5, 5), NewVec3(0, 0, -1)), UniverseInterval, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.Hit(tt.ray, tt.rayT); got != tt.expected {
				t.Errorf("Expected %t, got %t", tt.expected, got)
			}
		})
	}
}
