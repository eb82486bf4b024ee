package renderer

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Renderer renders a world through a camera, one row per task
type Renderer struct {
	camera *Camera
	world  geometry.Hittable

	workers  int
	seed     int64
	logger   core.Logger
	progress ProgressFunc
}

// RendererOpt configures a Renderer
type RendererOpt func(*Renderer)

// WithWorkers bounds the number of rows rendered concurrently. Values < 1 use runtime.NumCPU().
func WithWorkers(workers int) RendererOpt {
	return func(r *Renderer) {
		if workers >= 1 {
			r.workers = workers
		}
	}
}

// WithSeed fixes the seed the per-row random sources derive from. 0 picks a time based seed.
func WithSeed(seed int64) RendererOpt {
	return func(r *Renderer) {
		if seed != 0 {
			r.seed = seed
		}
	}
}

// WithLogger sets the logger used for render summaries
func WithLogger(logger core.Logger) RendererOpt {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithProgress registers a callback invoked after each finished row
func WithProgress(progress ProgressFunc) RendererOpt {
	return func(r *Renderer) {
		r.progress = progress
	}
}

// NewRenderer creates a renderer. The camera and world must not be mutated while rendering.
func NewRenderer(camera *Camera, world geometry.Hittable, opts ...RendererOpt) *Renderer {
	r := &Renderer{
		camera:  camera,
		world:   world,
		workers: runtime.NumCPU(),
		seed:    time.Now().UnixNano(),
		logger:  NewDefaultLogger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Seed returns the seed this renderer's output is a function of
func (r *Renderer) Seed() int64 {
	return r.seed
}

// rowRandom returns the random source for row j. Rows never share a source, so
// output for a given seed does not depend on scheduling or worker count.
func rowRandom(seed int64, j int) *rand.Rand {
	return rand.New(rand.NewSource(seed*1000003 + int64(j)))
}

// Render traces every pixel and returns the gamma corrected image. Cancelling ctx
// stops scheduling new rows and returns ctx.Err().
func (r *Renderer) Render(ctx context.Context) (*Image, RenderStats, error) {
	tracer := otel.Tracer("github.com/df07/go-sphere-pathtracer/pkg/renderer")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Renderer.Render")
	defer span.End()

	cfg := r.camera.Config()
	width, height := cfg.Width, cfg.Height
	span.SetAttributes(
		attribute.Int64("width", int64(width)),
		attribute.Int64("height", int64(height)),
		attribute.Int64("samples_per_pixel", int64(cfg.SamplesPerPixel)),
		attribute.Int64("workers", int64(r.workers)),
		attribute.Int64("seed", r.seed),
	)

	start := time.Now()
	img := &Image{Width: width, Height: height, Pix: make([]byte, width*height*3)}

	var rowsDone, totalRays int64
	err := r.renderRows(ctx, img, func(rays int64) {
		atomic.AddInt64(&totalRays, rays)
		done := atomic.AddInt64(&rowsDone, 1)
		stats.Record(ctx, rowsRendered.M(1), raysTraced.M(rays))
		if r.progress != nil {
			r.progress(int(done), height)
		}
	})

	renderStats := RenderStats{
		Width:           width,
		Height:          height,
		TotalPixels:     width * height,
		SamplesPerPixel: cfg.SamplesPerPixel,
		TotalSamples:    int(rowsDone) * width * cfg.SamplesPerPixel,
		TotalRays:       totalRays,
		MaxDepth:        cfg.MaxDepth,
		Workers:         r.workers,
		Seed:            r.seed,
		Duration:        time.Since(start),
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	stats.RecordWithOptions(ctx,
		stats.WithTags(tag.Insert(outcomeKey, outcome)),
		stats.WithMeasurements(renderTime.M(float64(renderStats.Duration)/float64(time.Millisecond))))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, renderStats, err
	}

	r.logger.Printf("Rendered %dx%d at %d spp in %v (%d rays, %.0f rays/s)\n",
		width, height, cfg.SamplesPerPixel, renderStats.Duration.Round(time.Millisecond),
		renderStats.TotalRays, renderStats.RaysPerSecond())

	return img, renderStats, nil
}

// renderRows renders each row into its own slice of img.Pix with at most r.workers rows in flight
func (r *Renderer) renderRows(ctx context.Context, img *Image, rowDone func(rays int64)) error {
	eg, egCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(r.workers))

	rowBytes := img.Width * 3
	var finished int64
	var scheduleErr error
	for j := 0; j < img.Height; j++ {
		j := j

		if err := sem.Acquire(egCtx, 1); err != nil {
			scheduleErr = fmt.Errorf("while acquiring row semaphore: %w", err)
			break
		}

		eg.Go(func() error {
			defer sem.Release(1)
			if err := egCtx.Err(); err != nil {
				return err
			}
			row := img.Pix[j*rowBytes : (j+1)*rowBytes : (j+1)*rowBytes]
			rays := r.renderRow(j, row)
			atomic.AddInt64(&finished, 1)
			rowDone(rays)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("while rendering rows: %w", err)
	}
	if scheduleErr != nil {
		return scheduleErr
	}
	// Cancellation after the last row was scheduled only matters if rows were skipped
	if atomic.LoadInt64(&finished) < int64(img.Height) {
		return ctx.Err()
	}
	return nil
}

// renderRow traces row j into row (len 3*width) and returns the number of rays traced
func (r *Renderer) renderRow(j int, row []byte) int64 {
	cfg := r.camera.Config()
	pt := &pathTracer{world: r.world, random: rowRandom(r.seed, j)}

	row = row[:0]
	for i := 0; i < cfg.Width; i++ {
		var pixelColor core.Color
		for sample := 0; sample < cfg.SamplesPerPixel; sample++ {
			ray := r.camera.GetRay(i, j, pt.random)
			pixelColor.AddAssign(pt.rayColor(ray, cfg.MaxDepth))
		}
		pixelColor.MultiplyAssign(r.camera.pixelSamplesScale)
		row = WriteColor(row, pixelColor)
	}

	return pt.rays
}
