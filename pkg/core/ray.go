package core

// Ray represents a ray with an origin and direction
type Ray struct {
	Origin    Point3D
	Direction Vec3
}

// NewRay creates a new ray
func NewRay(origin Point3D, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Point3D {
	return r.Origin.Add(r.Direction.Multiply(t))
}
