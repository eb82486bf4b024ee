package renderer

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCalculateAverageLuminance(t *testing.T) {
	// 2x2 image
	// Top-left: Red (1, 0, 0) -> Lum = 0.2126
	// Top-right: Green (0, 1, 0) -> Lum = 0.7152
	// Bottom-left: Blue (0, 0, 1) -> Lum = 0.0722
	// Bottom-right: Black (0, 0, 0) -> Lum = 0.0

	// Expected average: (0.2126 + 0.7152 + 0.0722 + 0.0) / 4 = 1.0 / 4 = 0.25
	img := &Image{
		Width:  2,
		Height: 2,
		Pix: []byte{
			255, 0, 0, 0, 255, 0,
			0, 0, 255, 0, 0, 0,
		},
	}

	avgLum := CalculateAverageLuminance(img)
	expected := 0.25
	tolerance := 0.0001

	if avgLum < expected-tolerance || avgLum > expected+tolerance {
		t.Errorf("Expected average luminosity %f, got %f", expected, avgLum)
	}
}

func TestCalculateAverageLuminance_Empty(t *testing.T) {
	if got := CalculateAverageLuminance(&Image{}); got != 0 {
		t.Errorf("Expected 0 for an empty image, got %f", got)
	}
}

func TestImage_ToRGBA(t *testing.T) {
	img := &Image{Width: 2, Height: 1, Pix: []byte{10, 20, 30, 40, 50, 60}}
	rgba := img.ToRGBA()

	if diff := cmp.Diff([]uint8{10, 20, 30, 255, 40, 50, 60, 255}, rgba.Pix); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestRenderStats_RaysPerSecond(t *testing.T) {
	s := RenderStats{TotalRays: 1000, Duration: 2 * time.Second}
	if got := s.RaysPerSecond(); got != 500 {
		t.Errorf("Expected 500 rays/s, got %f", got)
	}
	if got := (RenderStats{TotalRays: 10}).RaysPerSecond(); got != 0 {
		t.Errorf("Expected 0 for zero duration, got %f", got)
	}
}
