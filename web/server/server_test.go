package server

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-sphere-pathtracer/pkg/scene"
	"github.com/google/go-cmp/cmp"
	"go.opencensus.io/stats/view"
)

const testSceneFile = `camera:
  height: 90
  width: 160
  samples_per_pixel: 4
  max_depth: 5
  vfov: 90
  lookfrom: {x: 0, y: 0, z: 0}
  lookat: {x: 0, y: 0, z: -1}
  vup: {x: 0, y: 1, z: 0}
  defocus_angle: 0
  focus_dist: 1
object_list:
  objects:
    - Sphere:
        center: {x: 0, y: 0, z: -1}
        radius: 0.5
        material:
          Metal: {albedo: silver, fuzz: 0.1}
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mirror-ball.yaml"), []byte(testSceneFile), 0644); err != nil {
		t.Fatal(err)
	}
	return NewServer(0, dir)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

type sseEvent struct {
	Type string
	Data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.Type = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.Data = strings.TrimPrefix(line, "data: ")
		case line == "":
			events = append(events, current)
			current = sseEvent{}
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Scanning SSE body: %v", err)
	}
	return events
}

func TestHandleHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body)
	}
}

func TestHandleScenes(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/scenes")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var response scene.ScenesResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, group := range response.Groups {
		for _, s := range group.Scenes {
			ids = append(ids, s.ID)
		}
	}
	want := append(scene.BuiltInNames(), "file:mirror-ball")
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("Scene IDs (-want +got):\n%s", diff)
	}
}

func TestHandleSceneConfig(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expectedWidth  int
	}{
		{"default", "/api/scene-config", http.StatusOK, 400},
		{"width override", "/api/scene-config?scene=final&width=200", http.StatusOK, 200},
		{"scene file", "/api/scene-config?scene=file:mirror-ball", http.StatusOK, 160},
		{"unknown scene", "/api/scene-config?scene=cornell-box", http.StatusBadRequest, 0},
		{"path not allowed", "/api/scene-config?scene=" + filepath.Join(s.scenesDir, "mirror-ball.yaml"), http.StatusBadRequest, 0},
		{"width too small", "/api/scene-config?width=1", http.StatusBadRequest, 0},
		{"bad seed", "/api/scene-config?seed=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			if rec.Code != tt.expectedStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.expectedStatus, rec.Code, rec.Body)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var response struct {
				Config json.RawMessage `json:"config"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatal(err)
			}
			parsed, err := scene.Parse(response.Config, scene.FormatJSON)
			if err != nil {
				t.Fatalf("Returned config does not parse: %v", err)
			}
			if parsed.CameraConfig.Width != tt.expectedWidth {
				t.Errorf("Expected width %d, got %d", tt.expectedWidth, parsed.CameraConfig.Width)
			}
		})
	}
}

func renderEvents(t *testing.T, s *Server, target string) []sseEvent {
	t.Helper()
	rec := get(t, s, target)
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected an event stream, got %q", ct)
	}
	return parseSSE(t, rec.Body.String())
}

func TestHandleRender(t *testing.T) {
	s := newTestServer(t)
	events := renderEvents(t, s, "/api/render?scene=default&width=32&spp=2&maxDepth=4&seed=5")

	counts := map[string]int{}
	var image ImageUpdate
	for _, event := range events {
		counts[event.Type]++
		if event.Type == "image" {
			if err := json.Unmarshal([]byte(event.Data), &image); err != nil {
				t.Fatalf("Decoding image event: %v", err)
			}
		}
	}

	if counts["error"] != 0 {
		t.Fatalf("Unexpected error events: %v", events)
	}
	if counts["image"] != 1 || counts["complete"] != 1 {
		t.Fatalf("Expected one image and one complete event, got %v", counts)
	}
	if events[len(events)-1].Type != "complete" {
		t.Errorf("Expected complete to be last, got %q", events[len(events)-1].Type)
	}
	if counts["progress"] == 0 || counts["progress"] > 18 {
		t.Errorf("Expected between 1 and 18 progress events, got %d", counts["progress"])
	}

	if image.Width != 32 || image.Height != 18 {
		t.Errorf("Expected 32x18, got %dx%d", image.Width, image.Height)
	}
	if image.Stats.Seed != 5 || image.Stats.SamplesPerPixel != 2 || image.PrimitiveCount != 5 {
		t.Errorf("Unexpected stats: %+v, primitives %d", image.Stats, image.PrimitiveCount)
	}

	data, err := base64.StdEncoding.DecodeString(image.ImageData)
	if err != nil {
		t.Fatalf("Decoding base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decoding PNG: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 18 {
		t.Errorf("Expected a 32x18 PNG, got %v", img.Bounds())
	}

	// Same seed, same pixels
	again := renderEvents(t, s, "/api/render?scene=default&width=32&spp=2&maxDepth=4&seed=5&bvh=true")
	for _, event := range again {
		if event.Type != "image" {
			continue
		}
		var second ImageUpdate
		if err := json.Unmarshal([]byte(event.Data), &second); err != nil {
			t.Fatal(err)
		}
		if second.ImageData != image.ImageData {
			t.Error("Expected identical images for the same seed")
		}
	}
}

func TestHandleRender_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		target string
	}{
		{"unknown scene", "/api/render?scene=nope"},
		{"bad spp", "/api/render?spp=0"},
		{"bad bvh", "/api/render?bvh=maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := renderEvents(t, s, tt.target)
			if len(events) != 1 || events[0].Type != "error" {
				t.Errorf("Expected a single error event, got %v", events)
			}
		})
	}
}

func TestHandleInspect(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name             string
		target           string
		expectedHit      bool
		expectedMaterial string
		expectedGeometry string
	}{
		{"center sphere", "/api/inspect?scene=default&x=200&y=112", true, "lambertian", "sphere"},
		{"sky", "/api/inspect?scene=default&x=200&y=0", false, "", ""},
		{"ground", "/api/inspect?scene=default&x=200&y=224", true, "lambertian", "sphere"},
		{"scene file", "/api/inspect?scene=file:mirror-ball&x=80&y=45", true, "metal", "sphere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
			}
			var response InspectResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatal(err)
			}
			if response.Hit != tt.expectedHit {
				t.Fatalf("Expected hit=%t, got %t", tt.expectedHit, response.Hit)
			}
			if response.MaterialType != tt.expectedMaterial || response.GeometryType != tt.expectedGeometry {
				t.Errorf("Expected %s/%s, got %s/%s", tt.expectedMaterial, tt.expectedGeometry, response.MaterialType, response.GeometryType)
			}
			if tt.expectedHit && (response.Distance <= 0 || !response.FrontFace) {
				t.Errorf("Expected a front-face hit in front of the camera, got %+v", response)
			}
		})
	}
}

func TestHandleInspect_BadRequests(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{
		"/api/inspect?scene=default&x=abc&y=1",
		"/api/inspect?scene=default&x=1",
		"/api/inspect?scene=default&x=400&y=0",
		"/api/inspect?scene=default&x=-1&y=0",
		"/api/inspect?scene=nope&x=1&y=1",
	} {
		t.Run(target, func(t *testing.T) {
			if rec := get(t, s, target); rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestMetricsWrapper_CountsRequests(t *testing.T) {
	s := newTestServer(t)
	if err := s.metrics.RegisterMetrics(); err != nil {
		t.Fatalf("RegisterMetrics() error: %v", err)
	}
	defer view.Unregister(s.metrics.requestCountView)

	get(t, s, "/api/health")
	get(t, s, "/api/scene-config?scene=nope")

	rows, err := view.RetrieveData(s.metrics.requestCountView.Name)
	if err != nil {
		t.Fatalf("RetrieveData() error: %v", err)
	}

	counts := map[string]int64{}
	for _, row := range rows {
		var path, status string
		for _, tag := range row.Tags {
			switch tag.Key {
			case pathKey:
				path = tag.Value
			case statusKey:
				status = tag.Value
			}
		}
		counts[path+" "+status] = row.Data.(*view.CountData).Value
	}

	want := map[string]int64{
		"/api/health 200":       1,
		"/api/scene-config 400": 1,
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("Request counts (-want +got):\n%s", diff)
	}
}
