package geometry

import (
	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/material"
)

// Hittable is anything a ray can be intersected with.
// Hit reports a hit only when its t lies within rayT; the record is unspecified on a miss.
type Hittable interface {
	Hit(ray core.Ray, rayT core.Interval) (material.HitRecord, bool)
}

// Bounded is a Hittable with a finite bounding box, required for BVH construction
type Bounded interface {
	Hittable
	BoundingBox() core.AABB
}
