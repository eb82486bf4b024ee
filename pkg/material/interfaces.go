package material

import (
	"math/rand"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

// Material is the closed set of surface scattering models: Lambertian, Metal and Glass.
// The unexported marker method keeps other packages from adding variants.
type Material interface {
	// Scatter produces the outgoing ray and its attenuation, or false if the ray is absorbed
	Scatter(rayIn core.Ray, hit HitRecord, random *rand.Rand) (ScatterResult, bool)

	// Kind returns the variant tag used by scene files ("Lambertian", "Metal" or "Glass")
	Kind() Kind

	isMaterial()
}

// Kind tags a Material variant
type Kind string

const (
	KindLambertian Kind = "Lambertian"
	KindMetal      Kind = "Metal"
	KindGlass      Kind = "Glass"
)

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   core.Ray   // The scattered ray
	Attenuation core.Color // Color attenuation
}

// HitRecord contains information about a ray-object intersection.
// Material holds a value copy of the surface's material so the record stays
// valid independently of the object it came from.
type HitRecord struct {
	Point     core.Point3D // Point of intersection
	Normal    core.Vec3    // Unit surface normal, facing against the incoming ray
	Material  Material     // Material of the hit object
	T         float64      // Parameter t along the ray
	FrontFace bool         // Whether ray hit the outward-facing side
}

// SetFaceNormal sets the normal vector and determines front/back face.
// outwardNormal must have unit length.
func (h *HitRecord) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}
