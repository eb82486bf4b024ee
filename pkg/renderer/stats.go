package renderer

import (
	"image"
	"image/color"
	"time"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Width           int           // Image width in pixels
	Height          int           // Image height in pixels
	TotalPixels     int           // Total number of pixels rendered
	SamplesPerPixel int           // Samples taken per pixel
	TotalSamples    int           // Total number of camera rays
	TotalRays       int64         // Camera and scattered rays intersected against the scene
	MaxDepth        int           // Bounce budget per camera ray
	Workers         int           // Rows rendered concurrently
	Seed            int64         // Seed the per-row random sources derive from
	Duration        time.Duration // Wall time of the render
}

// RaysPerSecond returns the intersection throughput of the render
func (s RenderStats) RaysPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.TotalRays) / s.Duration.Seconds()
}

// Image is the rendered output: Width*Height packed RGB triples, top row first
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// RGBAt returns the bytes of pixel (x, y)
func (img *Image) RGBAt(x, y int) (r, g, b uint8) {
	i := (y*img.Width + x) * 3
	return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
}

// ToRGBA converts the packed RGB buffer into an opaque image.RGBA
func (img *Image) ToRGBA() *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b := img.RGBAt(x, y)
			rgba.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return rgba
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of the image in [0, 1]
func CalculateAverageLuminance(img *Image) float64 {
	pixels := img.Width * img.Height
	if pixels == 0 {
		return 0
	}

	var total float64
	for i := 0; i+2 < len(img.Pix); i += 3 {
		r := float64(img.Pix[i]) / 255.0
		g := float64(img.Pix[i+1]) / 255.0
		b := float64(img.Pix[i+2]) / 255.0
		total += 0.2126*r + 0.7152*g + 0.0722*b
	}
	return total / float64(pixels)
}
