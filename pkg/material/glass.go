package material

import (
	"math"
	"math/rand"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

// Glass represents a transparent dielectric that can both reflect and refract
type Glass struct {
	RefractionIndex float64 // Index of refraction (e.g., 1.5 for glass)
}

// NewGlass creates a new glass material
func NewGlass(refractionIndex float64) Glass {
	return Glass{RefractionIndex: refractionIndex}
}

// Scatter implements the Material interface for dielectric scattering
func (g Glass) Scatter(rayIn core.Ray, hit HitRecord, random *rand.Rand) (ScatterResult, bool) {
	// Clear glass absorbs nothing
	attenuation := core.NewColor(1.0, 1.0, 1.0)

	refractionRatio := g.RefractionIndex
	if hit.FrontFace {
		refractionRatio = 1.0 / g.RefractionIndex // entering from outside
	}

	unitDirection := rayIn.Direction.UnitVector()
	cosTheta := math.Min(unitDirection.Negate().Dot(hit.Normal), 1.0)
	sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)

	cannotRefract := refractionRatio*sinTheta > 1.0

	var direction core.Vec3
	if cannotRefract || Reflectance(cosTheta, refractionRatio) > random.Float64() {
		direction = core.Reflect(unitDirection, hit.Normal)
	} else {
		direction = core.Refract(unitDirection, hit.Normal, refractionRatio)
	}

	return ScatterResult{
		Scattered:   core.NewRay(hit.Point, direction),
		Attenuation: attenuation,
	}, true
}

// Kind implements Material
func (g Glass) Kind() Kind { return KindGlass }

func (Glass) isMaterial() {}

// Reflectance calculates the Fresnel reflectance using Schlick's approximation
func Reflectance(cosine, refractionRatio float64) float64 {
	r0 := (1 - refractionRatio) / (1 + refractionRatio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
