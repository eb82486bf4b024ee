package scene

import (
	"fmt"

	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name         string
	Metadata     Metadata
	CameraConfig renderer.CameraConfig
	Objects      *geometry.ObjectList // Spheres in the scene
}

// Metadata describes a scene for listings. It is optional in scene files.
type Metadata struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Group       string `json:"group,omitempty"`
	Variant     string `json:"variant,omitempty"`
}

// Overrides replace camera parameters when non-zero
type Overrides struct {
	Width           int
	Height          int
	SamplesPerPixel int
	MaxDepth        int
}

// New creates an empty scene viewed through the given camera
func New(cameraConfig renderer.CameraConfig) *Scene {
	return &Scene{
		CameraConfig: cameraConfig,
		Objects:      geometry.NewObjectList(),
	}
}

// Validate rejects camera parameters the renderer cannot work with
func (s *Scene) Validate() error {
	cfg := s.CameraConfig
	if cfg.Width < 1 {
		return fmt.Errorf("camera width must be at least 1, got %d", cfg.Width)
	}
	if cfg.Height < 0 {
		return fmt.Errorf("camera height must not be negative, got %d", cfg.Height)
	}
	if cfg.SamplesPerPixel < 1 {
		return fmt.Errorf("samples_per_pixel must be at least 1, got %d", cfg.SamplesPerPixel)
	}
	if cfg.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", cfg.MaxDepth)
	}
	return nil
}

// ApplyOverrides replaces camera parameters set in o. Changing only the width keeps the aspect ratio.
func (s *Scene) ApplyOverrides(o Overrides) {
	cfg := &s.CameraConfig
	if o.Width > 0 {
		if o.Height == 0 && cfg.Width > 0 {
			cfg.Height = o.Width * cfg.Height / cfg.Width
		}
		cfg.Width = o.Width
	}
	if o.Height > 0 {
		cfg.Height = o.Height
	}
	if o.SamplesPerPixel > 0 {
		cfg.SamplesPerPixel = o.SamplesPerPixel
	}
	if o.MaxDepth > 0 {
		cfg.MaxDepth = o.MaxDepth
	}
}

// Camera builds an initialized camera for the scene
func (s *Scene) Camera() *renderer.Camera {
	return renderer.NewCamera(s.CameraConfig)
}

// World returns the hittable the renderer intersects: the object list itself, or a
// BVH over the same objects
func (s *Scene) World(useBVH bool) geometry.Hittable {
	if !useBVH {
		return s.Objects
	}

	bounded := make([]geometry.Bounded, 0, s.Objects.Len())
	for _, obj := range s.Objects.Objects {
		if b, ok := obj.(geometry.Bounded); ok {
			bounded = append(bounded, b)
		} else {
			// Unbounded objects cannot go in a BVH; fall back to the linear scan
			return s.Objects
		}
	}
	return geometry.NewBVH(bounded)
}

// GetPrimitiveCount returns the number of objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return s.Objects.Len()
}
