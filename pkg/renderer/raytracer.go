package renderer

import (
	"math"
	"math/rand"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
)

// hitInterval skips hits closer than 0.001 to avoid shadow acne
var hitInterval = core.NewInterval(0.001, math.Inf(1))

var (
	skyHorizon = core.NewColor(1.0, 1.0, 1.0)
	skyZenith  = core.NewColor(0.5, 0.7, 1.0)
)

// pathTracer resolves ray colors for a single worker. It owns its random source
// and is not safe for concurrent use.
type pathTracer struct {
	world  geometry.Hittable
	random *rand.Rand
	rays   int64 // Rays intersected against the world
}

// RayColor returns the color carried back along ray, following at most depth bounces
func RayColor(ray core.Ray, depth int, world geometry.Hittable, random *rand.Rand) core.Color {
	pt := &pathTracer{world: world, random: random}
	return pt.rayColor(ray, depth)
}

func (pt *pathTracer) rayColor(ray core.Ray, depth int) core.Color {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Color{}
	}

	pt.rays++
	hit, isHit := pt.world.Hit(ray, hitInterval)
	if !isHit {
		return SkyColor(ray)
	}

	scatter, didScatter := hit.Material.Scatter(ray, hit, pt.random)
	if !didScatter {
		return core.Color{} // Material absorbed the ray
	}

	return scatter.Attenuation.MultiplyVec(pt.rayColor(scatter.Scattered, depth-1))
}

// SkyColor returns the background gradient for a ray that escaped the scene
func SkyColor(ray core.Ray) core.Color {
	unitDirection := ray.Direction.UnitVector()
	t := 0.5 * (unitDirection.Y + 1.0)
	return skyHorizon.Multiply(1.0 - t).Add(skyZenith.Multiply(t))
}
