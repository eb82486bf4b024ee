package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-sphere-pathtracer/pkg/cache"
	"github.com/df07/go-sphere-pathtracer/pkg/imageio"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
	"github.com/df07/go-sphere-pathtracer/pkg/scene"
	"github.com/golang/glog"
)

var (
	sceneRef  = flag.String("scene", "default", "Built-in scene name, file:<name> from the scenes directory, or path to a .json/.yaml scene file")
	out       = flag.String("out", "", "Output PNG path or gs://bucket/object (default output/<scene>/render_<timestamp>.png)")
	workers   = flag.Int("workers", 0, "Number of render workers (0 = number of CPUs)")
	seed      = flag.Int64("seed", 0, "Random seed; 0 picks one from the clock")
	spp       = flag.Int("spp", 0, "Override samples per pixel")
	maxDepth  = flag.Int("max_depth", 0, "Override maximum bounce depth")
	width     = flag.Int("width", 0, "Override image width, keeping the aspect ratio unless -height is also set")
	height    = flag.Int("height", 0, "Override image height")
	useBVH    = flag.Bool("bvh", false, "Intersect through a BVH instead of the linear object list")
	cacheDir  = flag.String("cache_dir", "", "Directory of the render cache; only used with a non-zero -seed")
	scenesDir = flag.String("scenes_dir", "", "Directory of scene files (default: scenes or ../scenes)")
	help      = flag.Bool("help", false, "Show help information")
)

// options collects the flag values run needs
type options struct {
	SceneRef  string
	Out       string
	Workers   int
	Seed      int64
	Overrides scene.Overrides
	UseBVH    bool
	CacheDir  string
	ScenesDir string
}

func main() {
	flag.Parse()
	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	if *help {
		printHelp()
		return
	}

	opts := options{
		SceneRef: *sceneRef,
		Out:      *out,
		Workers:  *workers,
		Seed:     *seed,
		Overrides: scene.Overrides{
			Width:           *width,
			Height:          *height,
			SamplesPerPixel: *spp,
			MaxDepth:        *maxDepth,
		},
		UseBVH:    *useBVH,
		CacheDir:  *cacheDir,
		ScenesDir: *scenesDir,
	}
	if opts.ScenesDir == "" {
		opts.ScenesDir = scene.FindScenesDir()
	}
	glog.Infof("Flags: scene=%q out=%q workers=%d seed=%d bvh=%t cache_dir=%q scenes_dir=%q",
		opts.SceneRef, opts.Out, opts.Workers, opts.Seed, opts.UseBVH, opts.CacheDir, opts.ScenesDir)

	if err := renderer.RegisterViews(); err != nil {
		glog.Fatalf("Error while registering metric views: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dest, err := run(ctx, opts, renderer.NewTerminalProgressReporter(os.Stderr).Report, time.Now())
	if err != nil {
		glog.Flush()
		glog.Fatalf("Error: %v", err)
	}
	glog.Infof("Render saved as %s", dest)
}

func printHelp() {
	fmt.Println("Sphere Path Tracer")
	fmt.Println("Usage: pathtracer [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Built-in scenes:")
	for _, name := range scene.BuiltInNames() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println()
	fmt.Println("Output will be saved to output/<scene>/render_<timestamp>.png unless -out is given")
}

// run renders the selected scene and writes the PNG, returning where it went
func run(ctx context.Context, opts options, progress renderer.ProgressFunc, now time.Time) (string, error) {
	s, err := scene.Resolve(ctx, opts.SceneRef, opts.ScenesDir, opts.Seed)
	if err != nil {
		return "", err
	}
	s.ApplyOverrides(opts.Overrides)
	if err := s.Validate(); err != nil {
		return "", fmt.Errorf("while applying overrides: %w", err)
	}

	dest := opts.Out
	if dest == "" {
		dest = defaultOutputPath(s.Name, now)
	}

	// Only fixed seeds are reproducible, so only they can be cached
	var renderCache *cache.Cache
	var cacheKey string
	if opts.CacheDir != "" && opts.Seed != 0 {
		sceneJSON, err := s.MarshalJSON()
		if err != nil {
			return "", fmt.Errorf("while encoding scene for the cache key: %w", err)
		}
		cacheKey = cache.Key(sceneJSON, opts.Seed)

		renderCache, err = cache.Open(opts.CacheDir)
		if err != nil {
			return "", err
		}
		defer renderCache.Close()

		data, ok, err := renderCache.Get(cacheKey)
		if err != nil {
			return "", err
		}
		if ok {
			glog.Infof("Using cached render %s", cacheKey)
			return dest, imageio.Write(ctx, dest, data)
		}
	}

	glog.Infof("Rendering %q: %dx%d, %d samples per pixel, max depth %d, %d objects",
		s.Name, s.CameraConfig.Width, s.CameraConfig.Height, s.CameraConfig.SamplesPerPixel,
		s.CameraConfig.MaxDepth, s.GetPrimitiveCount())

	r := renderer.NewRenderer(s.Camera(), s.World(opts.UseBVH),
		renderer.WithWorkers(opts.Workers),
		renderer.WithSeed(opts.Seed),
		renderer.WithLogger(renderer.NewDefaultLogger()),
		renderer.WithProgress(progress),
	)
	img, stats, err := r.Render(ctx)
	if err != nil {
		return "", fmt.Errorf("while rendering: %w", err)
	}
	glog.Infof("Render completed in %v (seed %d, %d rays, %.0f rays/s)",
		stats.Duration, stats.Seed, stats.TotalRays, stats.RaysPerSecond())

	data, err := imageio.EncodePNG(img)
	if err != nil {
		return "", err
	}

	if renderCache != nil {
		if err := renderCache.Put(cacheKey, data); err != nil {
			glog.Warningf("Failed to cache render: %v", err)
		}
	}

	if err := imageio.Write(ctx, dest, data); err != nil {
		return "", err
	}
	return dest, nil
}

// defaultOutputPath places renders under output/<scene>/ with a timestamped name
func defaultOutputPath(sceneName string, now time.Time) string {
	dir := strings.NewReplacer("/", "_", `\`, "_", " ", "_").Replace(sceneName)
	if dir == "" {
		dir = "scene"
	}
	return filepath.Join("output", dir, fmt.Sprintf("render_%s.png", now.Format("20060102_150405")))
}
