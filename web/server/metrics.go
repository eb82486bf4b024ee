package server

import (
	"net/http"
	"strconv"

	"github.com/golang/glog"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	pathKey   = tag.MustNewKey("path")
	statusKey = tag.MustNewKey("status")
)

// Wrapper counts the requests served by an inner handler
type Wrapper struct {
	requestCount     *stats.Int64Measure
	requestCountView *view.View

	inner http.Handler
}

// NewMetricsWrapper instruments inner with a request counter tagged by path and status
func NewMetricsWrapper(inner http.Handler) *Wrapper {
	h := &Wrapper{}

	h.requestCount = stats.Int64("pathtracer/web/requests", "", stats.UnitDimensionless)
	h.requestCountView = &view.View{
		Name:        "pathtracer/web/requests",
		Description: "Counter of requests that have been handled",

		TagKeys: []tag.Key{pathKey, statusKey},

		Measure:     h.requestCount,
		Aggregation: view.Count(),
	}

	h.inner = inner

	return h
}

// RegisterMetrics registers the request count view
func (h *Wrapper) RegisterMetrics() error {
	return view.Register(h.requestCountView)
}

// statusRecorder remembers the status code written through it. Flush is passed
// through so server-sent events keep streaming.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (h *Wrapper) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.inner.ServeHTTP(rec, r)

	glog.V(1).Infof("Served path=%q status=%d useragent=%q", r.URL.Path, rec.status, r.Header["User-Agent"])

	stats.RecordWithOptions(
		r.Context(),
		stats.WithTags(
			tag.Insert(pathKey, r.URL.Path),
			tag.Insert(statusKey, strconv.Itoa(rec.status)),
		),
		stats.WithMeasurements(h.requestCount.M(1)))
}
