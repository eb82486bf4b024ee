package renderer

import (
	"math"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

var intensity = core.NewInterval(0.000, 0.999)

// LinearToGamma applies gamma 2 correction. Non-positive components map to 0.
func LinearToGamma(linear float64) float64 {
	if linear > 0 {
		return math.Sqrt(linear)
	}
	return 0
}

// WriteColor appends the quantized RGB bytes of pixelColor to buf
func WriteColor(buf []byte, pixelColor core.Color) []byte {
	r := LinearToGamma(pixelColor.X)
	g := LinearToGamma(pixelColor.Y)
	b := LinearToGamma(pixelColor.Z)

	return append(buf,
		byte(256*intensity.Clamp(r)),
		byte(256*intensity.Clamp(g)),
		byte(256*intensity.Clamp(b)),
	)
}
