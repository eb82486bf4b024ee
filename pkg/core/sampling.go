package core

import (
	"math"
	"math/rand"
)

// RandomFloat returns a uniform value in [min, max)
func RandomFloat(random *rand.Rand, min, max float64) float64 {
	return min + (max-min)*random.Float64()
}

// RandomVec3 returns a vector with each component uniform in [min, max)
func RandomVec3(random *rand.Rand, min, max float64) Vec3 {
	return Vec3{
		X: RandomFloat(random, min, max),
		Y: RandomFloat(random, min, max),
		Z: RandomFloat(random, min, max),
	}
}

// RandomInUnitSphere generates a random point strictly inside the unit sphere
// by rejection sampling the enclosing cube
func RandomInUnitSphere(random *rand.Rand) Vec3 {
	for {
		p := RandomVec3(random, -1, 1)
		if p.LengthSquared() < 1.0 {
			return p
		}
	}
}

// RandomInUnitDisk generates a random point in a unit disk (for depth of field)
func RandomInUnitDisk(random *rand.Rand) Vec3 {
	for {
		// Generate random point in [-1,1] x [-1,1] square
		p := NewVec3(RandomFloat(random, -1, 1), RandomFloat(random, -1, 1), 0)
		// Accept if inside unit disk
		if p.LengthSquared() < 1.0 {
			return p
		}
	}
}

// RandomUnitVector returns a uniformly distributed direction.
// Candidates with squared length at or below 1e-160 are rejected so the
// normalization never divides by a value that underflows.
func RandomUnitVector(random *rand.Rand) Vec3 {
	for {
		p := RandomVec3(random, -1, 1)
		lensq := p.LengthSquared()
		if 1e-160 < lensq && lensq <= 1.0 {
			return p.Divide(math.Sqrt(lensq))
		}
	}
}
