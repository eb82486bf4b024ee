package material

import (
	"math/rand"
	"testing"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/google/go-cmp/cmp"
)

func TestLambertian_AlwaysScattersWithAlbedo(t *testing.T) {
	albedo := core.NewColor(0.5, 0.7, 0.9)
	lambertian := NewLambertian(albedo)
	random := rand.New(rand.NewSource(42))

	normal := core.NewVec3(0, 0, 1)
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    normal,
		FrontFace: true,
		Material:  lambertian,
	}
	ray := core.NewRay(core.NewVec3(0, 0, 1), core.NewVec3(0, 0, -1))

	for i := 0; i < 1000; i++ {
		scatter, didScatter := lambertian.Scatter(ray, hit, random)
		if !didScatter {
			t.Fatal("Lambertian should always scatter")
		}
		if diff := cmp.Diff(albedo, scatter.Attenuation); diff != "" {
			t.Fatalf("Attenuation should equal albedo (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(hit.Point, scatter.Scattered.Origin); diff != "" {
			t.Fatalf("Scattered ray should start at the hit point (-want +got):\n%s", diff)
		}
		// normal + unit vector never points below the surface
		if scatter.Scattered.Direction.Dot(normal) < 0 {
			t.Fatalf("Scattered direction %v points into the surface", scatter.Scattered.Direction)
		}
		if scatter.Scattered.Direction.NearZero() {
			t.Fatalf("Scattered direction is degenerate")
		}
	}
}

func TestMaterialKinds(t *testing.T) {
	tests := []struct {
		material Material
		expected Kind
	}{
		{NewLambertian(core.NewColor(1, 1, 1)), KindLambertian},
		{NewMetal(core.NewColor(1, 1, 1), 0), KindMetal},
		{NewGlass(1.5), KindGlass},
	}
	for _, tt := range tests {
		if got := tt.material.Kind(); got != tt.expected {
			t.Errorf("Expected kind %s, got %s", tt.expected, got)
		}
	}
}

func TestHitRecord_SetFaceNormal(t *testing.T) {
	outward := core.NewVec3(0, 1, 0)

	var front HitRecord
	front.SetFaceNormal(core.NewRay(core.NewVec3(0, 2, 0), core.NewVec3(0, -1, 0)), outward)
	if !front.FrontFace || front.Normal != outward {
		t.Errorf("Expected front face with outward normal, got front=%t normal=%v", front.FrontFace, front.Normal)
	}

	var back HitRecord
	back.SetFaceNormal(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0)), outward)
	if back.FrontFace || back.Normal != outward.Negate() {
		t.Errorf("Expected back face with flipped normal, got front=%t normal=%v", back.FrontFace, back.Normal)
	}
}
