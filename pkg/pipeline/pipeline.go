// Package pipeline runs the flow visualization pipeline shared by the CLI,
// the HTTP server and the terminal inspector.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Transform: validate the document, then build the positioned
//     {nodes, edges} graph (auto layout or author offsets)
//  2. Render: draw the graph as DOT, SVG, PNG or PDF
//
// Both stages are cached by content hash through [cache.Cache], so a flow
// that did not change is never laid out twice.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Formats = []render.Format{render.FormatSVG}
//	result, err := runner.Execute(ctx, doc, opts)
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts[render.FormatSVG]
//
// Front-ends that must always draw something use [Runner.TransformOrEmpty],
// which logs a transform failure and returns an empty graph.
//
// # Re-entrancy
//
// When flows are loaded asynchronously, [Latest] makes sure that only the
// most recently requested flow is applied; results of superseded requests
// are dropped.
package pipeline

import (
	"time"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/render"
)

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run.
type Options struct {
	// AutoLayout computes positions with the layout engine; otherwise
	// positions come from each state's properties.offset.
	AutoLayout bool `json:"auto_layout"`

	// Layout is the spacing used with AutoLayout.
	Layout layout.Options `json:"layout"`

	// Refresh skips cache reads. Results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Formats to render. Empty means transform only.
	Formats []render.Format `json:"formats,omitempty"`

	// Render configures DOT generation.
	Render render.Options `json:"-"`

	// Selected projects edges around this node before rendering.
	Selected string `json:"selected,omitempty"`
}

// DefaultOptions returns auto layout with default spacing and no rendering.
func DefaultOptions() Options {
	return Options{AutoLayout: true, Layout: layout.DefaultOptions()}
}

func (o Options) graphOptions() graph.Options {
	return graph.Options{AutoLayout: o.AutoLayout, Layout: o.Layout.Normalized()}
}

// =============================================================================
// Result
// =============================================================================

// Result holds the outputs of [Runner.Execute].
type Result struct {
	// Graph is the transformed flow, projected for Options.Selected.
	Graph *graph.Graph

	// DocHash is the content hash of the input document.
	DocHash string

	// GraphHash is the content hash of the unprojected graph.
	GraphHash string

	// Artifacts holds rendered outputs keyed by format.
	Artifacts map[render.Format][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains run statistics.
type Stats struct {
	NodeCount     int
	EdgeCount     int
	TransformTime time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits per stage.
type CacheInfo struct {
	TransformHit bool
	RenderHit    bool // all artifacts came from cache
}
