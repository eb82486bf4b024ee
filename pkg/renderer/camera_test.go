package renderer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func testCameraConfig() CameraConfig {
	return CameraConfig{
		Height:          90,
		Width:           160,
		SamplesPerPixel: 4,
		MaxDepth:        10,
		VFov:            90,
		LookFrom:        core.NewVec3(0, 0, 0),
		LookAt:          core.NewVec3(0, 0, -1),
		VUp:             core.NewVec3(0, 1, 0),
		DefocusAngle:    0,
		FocusDist:       1,
	}
}

func TestCamera_InitializeIsIdempotent(t *testing.T) {
	config := testCameraConfig()
	config.LookFrom = core.NewVec3(13, 2, 3)
	config.DefocusAngle = 0.6
	config.FocusDist = 10

	camera := NewCamera(config)
	first := *camera

	camera.Initialize()
	if diff := cmp.Diff(first, *camera, cmp.AllowUnexported(Camera{})); diff != "" {
		t.Errorf("Re-initializing changed derived fields (-first +second):\n%s", diff)
	}

	other := NewCamera(config)
	if diff := cmp.Diff(first, *other, cmp.AllowUnexported(Camera{})); diff != "" {
		t.Errorf("Identical configs produced different cameras (-first +other):\n%s", diff)
	}
}

func TestCamera_Basis(t *testing.T) {
	camera := NewCamera(testCameraConfig())

	approx := cmpopts.EquateApprox(0, 1e-12)
	tests := []struct {
		name     string
		got      core.Vec3
		expected core.Vec3
	}{
		{"w points backwards", camera.w, core.NewVec3(0, 0, 1)},
		{"u points right", camera.u, core.NewVec3(1, 0, 0)},
		{"v points up", camera.v, core.NewVec3(0, 1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, tt.got, approx); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestCamera_SetConfigRecomputes(t *testing.T) {
	camera := NewCamera(testCameraConfig())

	config := testCameraConfig()
	config.LookFrom = core.NewVec3(0, 0, 5)
	camera.SetConfig(config)

	if diff := cmp.Diff(NewCamera(config).pixel00Loc, camera.pixel00Loc); diff != "" {
		t.Errorf("SetConfig did not recompute pixel00 (-want +got):\n%s", diff)
	}
}

func TestCamera_ClampsHeight(t *testing.T) {
	config := testCameraConfig()
	config.Height = 0

	camera := NewCamera(config)
	if camera.Height() != 1 {
		t.Errorf("Expected height clamped to 1, got %d", camera.Height())
	}
}

func TestCamera_GetRayCentered(t *testing.T) {
	config := testCameraConfig()
	config.Width, config.Height = 2, 2
	camera := NewCamera(config)
	random := rand.New(rand.NewSource(42))

	// 90 degree fov at focus distance 1: the viewport spans [-1, 1] on both axes
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			for s := 0; s < 100; s++ {
				ray := camera.GetRay(i, j, random)
				if ray.Origin != config.LookFrom {
					t.Fatalf("Expected pinhole origin %v, got %v", config.LookFrom, ray.Origin)
				}
				d := ray.Direction
				if math.Abs(d.Z+1) > 1e-12 {
					t.Fatalf("Expected ray to reach the focus plane at z=-1, got %v", d)
				}
				// Pixel (i, j) covers x in [i-1, i], y in [-j, 1-j]
				if d.X < float64(i)-1 || d.X > float64(i) || d.Y < -float64(j) || d.Y > 1-float64(j) {
					t.Fatalf("Ray %v outside pixel (%d, %d)", d, i, j)
				}
			}
		}
	}
}

func TestCamera_DefocusOrigins(t *testing.T) {
	config := testCameraConfig()
	config.DefocusAngle = 10
	config.FocusDist = 2
	camera := NewCamera(config)
	random := rand.New(rand.NewSource(42))

	radius := config.FocusDist * math.Tan(degreesToRadians(config.DefocusAngle/2))
	moved := false
	for s := 0; s < 200; s++ {
		ray := camera.GetRay(80, 45, random)
		offset := ray.Origin.Subtract(config.LookFrom)
		if offset.Length() > radius+1e-12 {
			t.Fatalf("Origin %v outside defocus disk of radius %f", ray.Origin, radius)
		}
		if math.Abs(offset.Z) > 1e-12 {
			t.Fatalf("Origin %v not in the lens plane", ray.Origin)
		}
		if offset.Length() > 0 {
			moved = true
		}
	}
	if !moved {
		t.Error("Expected origins sampled across the defocus disk")
	}
}

func TestCamera_CenterRaySymmetric(t *testing.T) {
	camera := NewCamera(testCameraConfig())
	approx := cmpopts.EquateApprox(0, 1e-12)

	topLeft := camera.CenterRay(0, 0)
	bottomRight := camera.CenterRay(camera.Width()-1, camera.Height()-1)

	if topLeft.Origin != (core.Vec3{}) || bottomRight.Origin != (core.Vec3{}) {
		t.Errorf("Expected rays from the camera center, got %v and %v", topLeft.Origin, bottomRight.Origin)
	}
	mirrored := core.NewVec3(-bottomRight.Direction.X, -bottomRight.Direction.Y, bottomRight.Direction.Z)
	if diff := cmp.Diff(topLeft.Direction, mirrored, approx); diff != "" {
		t.Errorf("Corner rays are not symmetric (-topLeft +mirrored bottomRight):\n%s", diff)
	}
	if topLeft.Direction.X >= 0 || topLeft.Direction.Y <= 0 {
		t.Errorf("Expected the top-left ray to point up and left, got %v", topLeft.Direction)
	}
}
