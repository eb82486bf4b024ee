package renderer

import (
	"math"
	"math/rand"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

// CameraConfig holds the declared camera parameters. Field names match the scene file format.
type CameraConfig struct {
	Height          int          `json:"height"`
	Width           int          `json:"width"`
	SamplesPerPixel int          `json:"samples_per_pixel"`
	MaxDepth        int          `json:"max_depth"`
	VFov            float64      `json:"vfov"`     // Vertical field of view in degrees
	LookFrom        core.Point3D `json:"lookfrom"` // Camera position
	LookAt          core.Point3D `json:"lookat"`   // Point the camera looks at
	VUp             core.Vec3    `json:"vup"`      // Camera-relative up direction
	DefocusAngle    float64      `json:"defocus_angle"`
	FocusDist       float64      `json:"focus_dist"`
}

// Camera generates rays for rendering. The derived fields are a pure function of
// the config and are recomputed by Initialize.
type Camera struct {
	config CameraConfig

	aspectRatio       float64
	pixelSamplesScale float64
	center            core.Point3D
	pixel00Loc        core.Point3D // Location of pixel (0, 0)
	pixelDeltaU       core.Vec3    // Offset to the pixel to the right
	pixelDeltaV       core.Vec3    // Offset to the pixel below
	u, v, w           core.Vec3    // Camera frame basis vectors
	defocusDiskU      core.Vec3
	defocusDiskV      core.Vec3
}

// NewCamera creates a camera and computes its derived viewport
func NewCamera(config CameraConfig) *Camera {
	camera := &Camera{config: config}
	camera.Initialize()
	return camera
}

// Initialize recomputes every derived field from the declared config
func (c *Camera) Initialize() {
	cfg := &c.config

	// Aspect ratio is taken before the height clamp
	c.aspectRatio = float64(cfg.Width) / float64(cfg.Height)
	if cfg.Height < 1 {
		cfg.Height = 1
	}

	c.pixelSamplesScale = 1.0 / float64(cfg.SamplesPerPixel)
	c.center = cfg.LookFrom

	// Viewport dimensions at the focus plane
	theta := degreesToRadians(cfg.VFov)
	h := math.Tan(theta / 2)
	viewportHeight := 2 * h * cfg.FocusDist
	viewportWidth := viewportHeight * (float64(cfg.Width) / float64(cfg.Height))

	// Orthonormal camera basis
	c.w = cfg.LookFrom.Subtract(cfg.LookAt).UnitVector()
	c.u = cfg.VUp.Cross(c.w).UnitVector()
	c.v = c.w.Cross(c.u)

	// Vectors across the horizontal and down the vertical viewport edges
	viewportU := c.u.Multiply(viewportWidth)
	viewportV := c.v.Negate().Multiply(viewportHeight)

	c.pixelDeltaU = viewportU.Divide(float64(cfg.Width))
	c.pixelDeltaV = viewportV.Divide(float64(cfg.Height))

	viewportUpperLeft := c.center.
		Subtract(c.w.Multiply(cfg.FocusDist)).
		Subtract(viewportU.Divide(2)).
		Subtract(viewportV.Divide(2))
	c.pixel00Loc = viewportUpperLeft.Add(c.pixelDeltaU.Add(c.pixelDeltaV).Multiply(0.5))

	defocusRadius := cfg.FocusDist * math.Tan(degreesToRadians(cfg.DefocusAngle/2))
	c.defocusDiskU = c.u.Multiply(defocusRadius)
	c.defocusDiskV = c.v.Multiply(defocusRadius)
}

// Config returns the declared parameters (height already clamped)
func (c *Camera) Config() CameraConfig {
	return c.config
}

// SetConfig replaces the declared parameters and recomputes the viewport
func (c *Camera) SetConfig(config CameraConfig) {
	c.config = config
	c.Initialize()
}

// Width returns the image width in pixels
func (c *Camera) Width() int { return c.config.Width }

// Height returns the image height in pixels
func (c *Camera) Height() int { return c.config.Height }

// AspectRatio returns width over the declared height
func (c *Camera) AspectRatio() float64 { return c.aspectRatio }

// GetRay builds a camera ray for pixel (i, j), jittered uniformly within the pixel
// and originating on the defocus disk when defocus is enabled
func (c *Camera) GetRay(i, j int, random *rand.Rand) core.Ray {
	offsetX, offsetY := random.Float64()-0.5, random.Float64()-0.5
	pixelSample := c.pixel00Loc.
		Add(c.pixelDeltaU.Multiply(float64(i) + offsetX)).
		Add(c.pixelDeltaV.Multiply(float64(j) + offsetY))

	origin := c.center
	if c.config.DefocusAngle > 0 {
		origin = c.defocusDiskSample(random)
	}

	return core.NewRay(origin, pixelSample.Subtract(origin))
}

// CenterRay returns the unjittered ray from the camera center through the middle of pixel (i, j)
func (c *Camera) CenterRay(i, j int) core.Ray {
	pixelCenter := c.pixel00Loc.
		Add(c.pixelDeltaU.Multiply(float64(i))).
		Add(c.pixelDeltaV.Multiply(float64(j)))
	return core.NewRay(c.center, pixelCenter.Subtract(c.center))
}

// defocusDiskSample returns a random point on the camera's defocus disk
func (c *Camera) defocusDiskSample(random *rand.Rand) core.Point3D {
	p := core.RandomInUnitDisk(random)
	return c.center.Add(c.defocusDiskU.Multiply(p.X)).Add(c.defocusDiskV.Multiply(p.Y))
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
