package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/df07/go-sphere-pathtracer/pkg/scene"
	"github.com/golang/glog"
)

const (
	minDimension = 16
	maxDimension = 2000
	maxSamples   = 10000
	maxBounces   = 1000
)

// Server handles web requests for the path tracer
type Server struct {
	port      int
	scenesDir string
	metrics   *Wrapper
}

// NewServer creates a new web server. Scene files are listed from scenesDir.
func NewServer(port int, scenesDir string) *Server {
	s := &Server{port: port, scenesDir: scenesDir}
	s.metrics = NewMetricsWrapper(s.routes())
	return s
}

// Handler returns the instrumented handler serving every endpoint
func (s *Server) Handler() http.Handler {
	return s.metrics
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir("static/")))
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start registers metric views and serves until the listener fails
func (s *Server) Start() error {
	if err := s.metrics.RegisterMetrics(); err != nil {
		return fmt.Errorf("while registering request metrics: %w", err)
	}

	addr := fmt.Sprintf(":%d", s.port)
	glog.Infof("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// RenderRequest holds the scene selection and overrides shared by render and inspect
type RenderRequest struct {
	Scene           string `json:"scene"`           // Built-in name or file:<name>
	Width           int    `json:"width"`           // Image width, 0 keeps the scene's
	Height          int    `json:"height"`          // Image height, 0 keeps the scene's aspect ratio
	SamplesPerPixel int    `json:"samplesPerPixel"` // 0 keeps the scene's
	MaxDepth        int    `json:"maxDepth"`        // 0 keeps the scene's
	Seed            int64  `json:"seed"`            // 0 picks a time based seed
	UseBVH          bool   `json:"useBVH"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Warningf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and scene files
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(r.Context(), s.scenesDir, NewWebLogger("scenes", nil))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// handleSceneConfig returns a scene in the scene file layout along with request limits
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	req := &RenderRequest{}
	if err := parseSceneParams(r.URL.Query(), req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	sceneObj, err := s.createScene(r, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sceneJSON, err := sceneObj.MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := map[string]interface{}{
		"scene":  req.Scene,
		"name":   sceneObj.Name,
		"config": json.RawMessage(sceneJSON),
		"limits": map[string]interface{}{
			"width":           map[string]int{"min": minDimension, "max": maxDimension},
			"height":          map[string]int{"min": minDimension, "max": maxDimension},
			"samplesPerPixel": map[string]int{"min": 1, "max": maxSamples},
			"maxDepth":        map[string]int{"min": 1, "max": maxBounces},
		},
	}
	writeJSON(w, http.StatusOK, response)
}

// parseSceneParams parses the scene selection and overrides from the query
func parseSceneParams(values url.Values, req *RenderRequest) error {
	req.Scene = values.Get("scene")
	if req.Scene == "" {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 0, minDimension, maxDimension); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(values, "height", 0, minDimension, maxDimension); err != nil {
		return err
	}
	if req.SamplesPerPixel, err = parseIntParam(values, "spp", 0, 1, maxSamples); err != nil {
		return err
	}
	if req.MaxDepth, err = parseIntParam(values, "maxDepth", 0, 1, maxBounces); err != nil {
		return err
	}
	if value := values.Get("seed"); value != "" {
		if req.Seed, err = strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("invalid seed: %s", value)
		}
	}
	if value := values.Get("bvh"); value != "" {
		if req.UseBVH, err = strconv.ParseBool(value); err != nil {
			return fmt.Errorf("invalid bvh: %s", value)
		}
	}
	return nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene resolves the requested scene and applies the request's overrides.
// Only built-in scenes and files from the scenes directory can be selected.
func (s *Server) createScene(r *http.Request, req *RenderRequest) (*scene.Scene, error) {
	if _, ok := scene.NewBuiltIn(req.Scene, 1); !ok && !strings.HasPrefix(req.Scene, "file:") {
		return nil, fmt.Errorf("unknown scene: %s", req.Scene)
	}

	sceneObj, err := scene.Resolve(r.Context(), req.Scene, s.scenesDir, req.Seed)
	if err != nil {
		return nil, err
	}
	sceneObj.ApplyOverrides(scene.Overrides{
		Width:           req.Width,
		Height:          req.Height,
		SamplesPerPixel: req.SamplesPerPixel,
		MaxDepth:        req.MaxDepth,
	})
	if err := sceneObj.Validate(); err != nil {
		return nil, err
	}
	return sceneObj, nil
}
