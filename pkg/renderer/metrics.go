package renderer

import (
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	rowsRendered = stats.Int64("pathtracer/rows_rendered", "Image rows rendered", stats.UnitDimensionless)
	raysTraced   = stats.Int64("pathtracer/rays_traced", "Rays intersected against the scene", stats.UnitDimensionless)
	renderTime   = stats.Float64("pathtracer/render_time", "Wall time of a full render", stats.UnitMilliseconds)

	outcomeKey = tag.MustNewKey("outcome")
)

// Views exposes the renderer's measures for registration with an exporter
var Views = []*view.View{
	{
		Name:        "pathtracer/rows_rendered",
		Description: "Counter of image rows that have been rendered",
		Measure:     rowsRendered,
		Aggregation: view.Count(),
	},
	{
		Name:        "pathtracer/rays_traced",
		Description: "Total rays intersected against the scene",
		Measure:     raysTraced,
		Aggregation: view.Sum(),
	},
	{
		Name:        "pathtracer/render_time",
		Description: "Distribution of render wall times",
		TagKeys:     []tag.Key{outcomeKey},
		Measure:     renderTime,
		Aggregation: view.Distribution(100, 500, 1000, 5000, 15000, 60000, 300000),
	},
}

// RegisterViews registers the renderer's views with opencensus
func RegisterViews() error {
	return view.Register(Views...)
}
