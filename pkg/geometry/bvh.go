package geometry

import (
	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/material"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Objects     []Bounded // Objects of a leaf node (nil for internal nodes)
}

// BVH is a Bounding Volume Hierarchy over bounded objects. It returns the same
// closest hit as an ObjectList over the same objects.
type BVH struct {
	Root *BVHNode
}

// Leaf threshold: if we have this many or fewer objects, store them in a leaf node
const leafThreshold = 4

// NewBVH constructs a BVH from a slice of objects. The input slice is not modified.
func NewBVH(objects []Bounded) *BVH {
	if len(objects) == 0 {
		return &BVH{}
	}

	objectsCopy := make([]Bounded, len(objects))
	copy(objectsCopy, objects)

	return &BVH{Root: buildBVH(objectsCopy)}
}

// buildBVH recursively splits objects at the midpoint of the longest axis
func buildBVH(objects []Bounded) *BVHNode {
	boundingBox := objects[0].BoundingBox()
	for _, object := range objects[1:] {
		boundingBox = boundingBox.Union(object.BoundingBox())
	}

	leaf := &BVHNode{BoundingBox: boundingBox, Objects: objects}
	if len(objects) <= leafThreshold {
		return leaf
	}

	axis := boundingBox.LongestAxis()
	minVal, maxVal := core.Axis(boundingBox.Min, axis), core.Axis(boundingBox.Max, axis)
	if maxVal <= minVal {
		return leaf
	}
	splitPos := (minVal + maxVal) * 0.5

	var left, right []Bounded
	for _, object := range objects {
		if core.Axis(object.BoundingBox().Center(), axis) < splitPos {
			left = append(left, object)
		} else {
			right = append(right, object)
		}
	}

	// All centers landed on one side
	if len(left) == 0 || len(right) == 0 {
		return leaf
	}

	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(left),
		Right:       buildBVH(right),
	}
}

// Hit tests if a ray intersects any object in the BVH
func (bvh *BVH) Hit(ray core.Ray, rayT core.Interval) (material.HitRecord, bool) {
	if bvh.Root == nil {
		return material.HitRecord{}, false
	}
	return bvh.hitNode(bvh.Root, ray, rayT)
}

func (bvh *BVH) hitNode(node *BVHNode, ray core.Ray, rayT core.Interval) (material.HitRecord, bool) {
	if !node.BoundingBox.Hit(ray, rayT) {
		return material.HitRecord{}, false
	}

	var closest material.HitRecord
	hitAnything := false
	closestSoFar := rayT.Max

	if node.Objects != nil {
		for _, object := range node.Objects {
			if hit, ok := object.Hit(ray, core.NewInterval(rayT.Min, closestSoFar)); ok {
				hitAnything = true
				closestSoFar = hit.T
				closest = hit
			}
		}
		return closest, hitAnything
	}

	for _, child := range []*BVHNode{node.Left, node.Right} {
		if child == nil {
			continue
		}
		if hit, ok := bvh.hitNode(child, ray, core.NewInterval(rayT.Min, closestSoFar)); ok {
			hitAnything = true
			closestSoFar = hit.T
			closest = hit
		}
	}

	return closest, hitAnything
}

// BoundingBox returns the overall bounding box of the BVH
func (bvh *BVH) BoundingBox() core.AABB {
	if bvh.Root == nil {
		return core.AABB{}
	}
	return bvh.Root.BoundingBox
}

// Depth returns the number of levels in the tree
func (bvh *BVH) Depth() int {
	var depth func(node *BVHNode) int
	depth = func(node *BVHNode) int {
		if node == nil {
			return 0
		}
		return 1 + max(depth(node.Left), depth(node.Right))
	}
	return depth(bvh.Root)
}
