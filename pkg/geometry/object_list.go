package geometry

import (
	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/material"
)

// ObjectList is an ordered collection of hittables searched linearly for the closest hit
type ObjectList struct {
	Objects []Hittable
}

// NewObjectList creates an object list holding the given objects
func NewObjectList(objects ...Hittable) *ObjectList {
	return &ObjectList{Objects: objects}
}

// Add appends an object to the list
func (l *ObjectList) Add(object Hittable) {
	l.Objects = append(l.Objects, object)
}

// Clear removes every object from the list
func (l *ObjectList) Clear() {
	l.Objects = nil
}

// Len returns the number of objects in the list
func (l *ObjectList) Len() int {
	return len(l.Objects)
}

// Hit returns the closest hit among all objects. Each object is tested against
// [rayT.Min, closestSoFar] so no later object can replace a nearer hit.
func (l *ObjectList) Hit(ray core.Ray, rayT core.Interval) (material.HitRecord, bool) {
	var closest material.HitRecord
	hitAnything := false
	closestSoFar := rayT.Max

	for _, object := range l.Objects {
		if hit, ok := object.Hit(ray, core.NewInterval(rayT.Min, closestSoFar)); ok {
			hitAnything = true
			closestSoFar = hit.T
			closest = hit
		}
	}

	return closest, hitAnything
}
