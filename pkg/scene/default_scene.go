package scene

import (
	"math/rand"
	"sort"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"github.com/df07/go-sphere-pathtracer/pkg/material"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
)

// builtIn is a scene constructor. The seed only matters for randomized layouts.
type builtIn struct {
	info SceneInfo
	new  func(seed int64) *Scene
}

var builtIns = map[string]builtIn{
	"default": {
		info: SceneInfo{
			Name:        "Default Scene",
			Description: "Ground, diffuse center sphere, hollow glass sphere and fuzzy gold metal",
		},
		new: func(int64) *Scene { return NewDefaultScene() },
	},
	"defocus": {
		info: SceneInfo{
			Name:        "Defocus Blur",
			Description: "Default scene seen from above with a wide aperture",
		},
		new: func(int64) *Scene { return NewDefocusScene() },
	},
	"final": {
		info: SceneInfo{
			Name:        "Random Spheres",
			Description: "Field of small random spheres around three large ones",
		},
		new: NewFinalScene,
	},
}

// BuiltInNames returns the names of the built-in scenes in sorted order
func BuiltInNames() []string {
	names := make([]string, 0, len(builtIns))
	for name := range builtIns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBuiltIn creates the named built-in scene
func NewBuiltIn(name string, seed int64) (*Scene, bool) {
	b, ok := builtIns[name]
	if !ok {
		return nil, false
	}
	s := b.new(seed)
	s.Name = name
	return s, true
}

// NewDefaultScene creates a default scene with spheres, ground, and camera
func NewDefaultScene() *Scene {
	s := New(renderer.CameraConfig{
		Width:           400,
		Height:          225,
		SamplesPerPixel: 100,
		MaxDepth:        50,
		VFov:            90,
		LookFrom:        core.NewVec3(0, 0, 0),
		LookAt:          core.NewVec3(0, 0, -1),
		VUp:             core.NewVec3(0, 1, 0),
		DefocusAngle:    0,
		FocusDist:       1,
	})
	addDefaultSpheres(s)
	return s
}

// NewDefocusScene creates the default spheres seen through a wide aperture
func NewDefocusScene() *Scene {
	s := New(renderer.CameraConfig{
		Width:           400,
		Height:          225,
		SamplesPerPixel: 100,
		MaxDepth:        50,
		VFov:            20,
		LookFrom:        core.NewVec3(-2, 2, 1),
		LookAt:          core.NewVec3(0, 0, -1),
		VUp:             core.NewVec3(0, 1, 0),
		DefocusAngle:    10,
		FocusDist:       3.4,
	})
	addDefaultSpheres(s)
	return s
}

func addDefaultSpheres(s *Scene) {
	ground := material.NewLambertian(core.NewColor(0.8, 0.8, 0.0))
	center := material.NewLambertian(core.NewColor(0.1, 0.2, 0.5))
	glass := material.NewGlass(1.5)
	bubble := material.NewGlass(1.0 / 1.5)
	gold := material.NewMetal(core.NewColor(0.8, 0.6, 0.2), 1.0)

	s.Objects.Add(geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, ground))
	s.Objects.Add(geometry.NewSphere(core.NewVec3(0, 0, -1.2), 0.5, center))
	s.Objects.Add(geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, glass))
	// Air bubble inside the glass sphere makes it hollow
	s.Objects.Add(geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.4, bubble))
	s.Objects.Add(geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, gold))
}

// NewFinalScene creates a large ground sphere covered in small random spheres. The
// layout is a function of seed.
func NewFinalScene(seed int64) *Scene {
	s := New(renderer.CameraConfig{
		Width:           400,
		Height:          225,
		SamplesPerPixel: 50,
		MaxDepth:        50,
		VFov:            20,
		LookFrom:        core.NewVec3(13, 2, 3),
		LookAt:          core.NewVec3(0, 0, 0),
		VUp:             core.NewVec3(0, 1, 0),
		DefocusAngle:    0.6,
		FocusDist:       10,
	})
	random := rand.New(rand.NewSource(seed))

	s.Objects.Add(geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000, material.NewLambertian(core.NewColor(0.5, 0.5, 0.5))))

	clearing := core.NewVec3(4, 0.2, 0)
	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := random.Float64()
			center := core.NewVec3(float64(a)+0.9*random.Float64(), 0.2, float64(b)+0.9*random.Float64())
			if center.Distance(clearing) <= 0.9 {
				continue
			}

			var mat material.Material
			switch {
			case chooseMat < 0.8:
				albedo := core.RandomVec3(random, 0, 1).MultiplyVec(core.RandomVec3(random, 0, 1))
				mat = material.NewLambertian(albedo)
			case chooseMat < 0.95:
				albedo := core.RandomVec3(random, 0.5, 1)
				mat = material.NewMetal(albedo, core.RandomFloat(random, 0, 0.5))
			default:
				mat = material.NewGlass(1.5)
			}
			s.Objects.Add(geometry.NewSphere(center, 0.2, mat))
		}
	}

	s.Objects.Add(geometry.NewSphere(core.NewVec3(0, 1, 0), 1.0, material.NewGlass(1.5)))
	s.Objects.Add(geometry.NewSphere(core.NewVec3(-4, 1, 0), 1.0, material.NewLambertian(core.NewColor(0.4, 0.2, 0.1))))
	s.Objects.Add(geometry.NewSphere(core.NewVec3(4, 1, 0), 1.0, material.NewMetal(core.NewColor(0.7, 0.6, 0.5), 0.0)))

	return s
}
