package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/df07/go-sphere-pathtracer/pkg/imageio"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
	"github.com/golang/glog"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "progress", "image", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// ProgressUpdate reports finished rows during a render
type ProgressUpdate struct {
	RowsDone  int   `json:"rowsDone"`
	TotalRows int   `json:"totalRows"`
	ElapsedMs int64 `json:"elapsedMs"`
}

// ImageUpdate carries the finished render
type ImageUpdate struct {
	ImageData      string `json:"imageData"` // Base64 encoded PNG
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	ElapsedMs      int64  `json:"elapsedMs"`
	Stats          Stats  `json:"stats"`
	PrimitiveCount int    `json:"primitiveCount"`
}

// Stats represents render statistics
type Stats struct {
	TotalPixels     int     `json:"totalPixels"`
	SamplesPerPixel int     `json:"samplesPerPixel"`
	TotalSamples    int     `json:"totalSamples"`
	TotalRays       int64   `json:"totalRays"`
	RaysPerSecond   float64 `json:"raysPerSecond"`
	MaxDepth        int     `json:"maxDepth"`
	Workers         int     `json:"workers"`
	Seed            int64   `json:"seed"`
}

// handleRender renders the requested scene, streaming progress and the final
// image via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Single writer goroutine; the handler waits for it so nothing writes to w after return
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(ctx, w, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req := &RenderRequest{}
	if err := parseSceneParams(r.URL.Query(), req); err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	sceneObj, err := s.createScene(r, req)
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	consoleChan := make(chan ConsoleMessage, 50)
	webLogger := NewWebLogger(fmt.Sprintf("render-%d", time.Now().UnixNano()), consoleChan)
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()

	startTime := time.Now()
	rt := renderer.NewRenderer(sceneObj.Camera(), sceneObj.World(req.UseBVH),
		renderer.WithSeed(req.Seed),
		renderer.WithLogger(webLogger),
		renderer.WithProgress(func(rowsDone, totalRows int) {
			s.sendJSON(sseEventChan, "progress", ProgressUpdate{
				RowsDone:  rowsDone,
				TotalRows: totalRows,
				ElapsedMs: time.Since(startTime).Milliseconds(),
			})
		}),
	)
	webLogger.Printf("Rendering %s: %dx%d, %d spp, %d objects\n", sceneObj.Name,
		sceneObj.CameraConfig.Width, sceneObj.CameraConfig.Height,
		sceneObj.CameraConfig.SamplesPerPixel, sceneObj.GetPrimitiveCount())

	img, stats, err := rt.Render(ctx)

	// Flush console output ahead of the result
	close(consoleChan)
	<-consoleDone

	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	imageData, err := s.imageToBase64PNG(img)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Encoding failed: %v", err))
		return
	}

	update := ImageUpdate{
		ImageData: imageData,
		Width:     img.Width,
		Height:    img.Height,
		ElapsedMs: time.Since(startTime).Milliseconds(),
		Stats: Stats{
			TotalPixels:     stats.TotalPixels,
			SamplesPerPixel: stats.SamplesPerPixel,
			TotalSamples:    stats.TotalSamples,
			TotalRays:       stats.TotalRays,
			RaysPerSecond:   stats.RaysPerSecond(),
			MaxDepth:        stats.MaxDepth,
			Workers:         stats.Workers,
			Seed:            stats.Seed,
		},
		PrimitiveCount: sceneObj.GetPrimitiveCount(),
	}
	data, err := json.Marshal(update)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Encoding failed: %v", err))
		return
	}
	s.send(ctx, sseEventChan, SSEEvent{Type: "image", Data: string(data)})
	s.send(ctx, sseEventChan, SSEEvent{Type: "complete", Data: "Rendering completed"})
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents writes events until the channel is closed or the client goes away
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan <-chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}

			if ctx.Err() != nil {
				// Client disconnected, stop sending messages
				return
			}

			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			return
		}
	}
}

// streamConsoleMessages forwards console messages until consoleChan is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for consoleMsg := range consoleChan {
		if ctx.Err() != nil {
			continue
		}
		s.sendJSON(sseEventChan, "console", consoleMsg)
	}
}

// sendJSON queues a JSON event, dropping it when the writer is behind
func (s *Server) sendJSON(sseEventChan chan<- SSEEvent, eventType string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		glog.Errorf("Error marshaling %s event: %v", eventType, err)
		return
	}
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: string(data)}:
	default:
		// Channel full, skip message to avoid blocking
	}
}

// send queues an event that must not be dropped unless the client is gone
func (s *Server) send(ctx context.Context, sseEventChan chan<- SSEEvent, event SSEEvent) {
	select {
	case sseEventChan <- event:
	case <-ctx.Done():
	}
}

// imageToBase64PNG converts a rendered image to base64-encoded PNG
func (s *Server) imageToBase64PNG(img *renderer.Image) (string, error) {
	data, err := imageio.EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	s.send(ctx, sseEventChan, SSEEvent{Type: "error", Data: message})
}
