package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/cache"
	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/render"
)

// Runner executes the pipeline with caching.
//
// The Runner keeps no per-flow state, so one Runner can serve many
// goroutines with different documents and options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the per-kind default expiry when positive.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means DefaultKeyer and a nil logger discards output.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute transforms doc and renders the requested formats.
func (r *Runner) Execute(ctx context.Context, doc *flow.Document, opts Options) (*Result, error) {
	result := &Result{Artifacts: make(map[render.Format][]byte)}

	start := time.Now()
	g, hit, err := r.TransformWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	result.Stats.TransformTime = time.Since(start)
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)
	result.CacheInfo.TransformHit = hit
	if hash, err := docHash(doc); err == nil {
		result.DocHash = hash
	}
	if data, err := graph.MarshalGraph(g); err == nil {
		result.GraphHash = cache.Hash(data)
	}

	if opts.Selected != "" {
		g = graph.ProjectGraph(g, opts.Selected)
	}
	result.Graph = g

	if len(opts.Formats) == 0 {
		return result, nil
	}

	start = time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered flow",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)
	return result, nil
}

// Transform validates doc and converts it into a positioned graph.
func (r *Runner) Transform(ctx context.Context, doc *flow.Document, opts Options) (*graph.Graph, error) {
	g, _, err := r.TransformWithCacheInfo(ctx, doc, opts)
	return g, err
}

// TransformWithCacheInfo is [Runner.Transform] that also reports whether
// the graph came from cache.
func (r *Runner) TransformWithCacheInfo(ctx context.Context, doc *flow.Document, opts Options) (*graph.Graph, bool, error) {
	if err := doc.Validate(); err != nil {
		return nil, false, err
	}

	hash, hashErr := docHash(doc)
	if hashErr != nil {
		r.Logger.Warn("flow cannot be hashed, skipping graph cache", "error", hashErr)
	}
	cacheable := hashErr == nil
	gopts := opts.graphOptions()
	key := r.Keyer.GraphKey(hash, cache.GraphKeyOpts{
		AutoLayout:        gopts.AutoLayout,
		HorizontalSpacing: gopts.Layout.HorizontalSpacing,
		VerticalSpacing:   gopts.Layout.VerticalSpacing,
		StartX:            gopts.Layout.StartX,
		StartY:            gopts.Layout.StartY,
		LevelSkew:         gopts.Layout.LevelSkew,
	})

	if cacheable && !opts.Refresh {
		if data, err := cache.Lookup(ctx, r.Cache, cache.KeyTypeGraph, key); err == nil {
			if g, err := graph.UnmarshalGraph(data); err == nil {
				r.Logger.Debug("graph cache hit", "key", key)
				return g, true, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			r.Logger.Warn("graph cache read failed", "error", err)
		}
	}

	hooks := observability.Pipeline()
	hooks.OnTransformStart(ctx, hash, len(doc.States))
	start := time.Now()
	g, err := graph.TransformWithOptions(doc, gopts)
	if err != nil {
		hooks.OnTransformComplete(ctx, hash, 0, 0, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnTransformComplete(ctx, hash, len(g.Nodes), len(g.Edges), time.Since(start), nil)

	r.Logger.Debug("transformed flow",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"auto_layout", gopts.AutoLayout,
		"optimization", graph.Optimization(len(g.Nodes)))

	if !cacheable {
		return g, false, nil
	}
	if data, err := graph.MarshalGraph(g); err == nil {
		if err := cache.Put(ctx, r.Cache, cache.KeyTypeGraph, key, data, r.ttl(cache.TTLGraph)); err != nil {
			r.Logger.Warn("graph cache write failed", "error", err)
		}
	}
	return g, false, nil
}

// TransformOrEmpty is [Runner.Transform] for front-ends: a failure is
// logged and an empty graph is returned alongside the error so there is
// always something to draw.
func (r *Runner) TransformOrEmpty(ctx context.Context, doc *flow.Document, opts Options) (*graph.Graph, error) {
	g, err := r.Transform(ctx, doc, opts)
	if err != nil {
		r.Logger.Error("transform failed, showing empty graph", "error", errs.UserMessage(err))
		return &graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}, err
	}
	return g, nil
}

// RenderWithCacheInfo draws g in every format of opts.Formats. The
// returned bool is true only when every artifact came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.Graph, opts Options) (map[render.Format][]byte, bool, error) {
	data, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, false, fmt.Errorf("encode graph: %w", err)
	}
	graphHash := cache.Hash(data)

	formats := make([]string, len(opts.Formats))
	for i, f := range opts.Formats {
		formats[i] = string(f)
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, formats)
	start := time.Now()

	out := make(map[render.Format][]byte, len(opts.Formats))
	allHit := true
	for _, f := range opts.Formats {
		key := r.Keyer.RenderKey(graphHash, cache.RenderKeyOpts{
			Format:   string(f),
			Scale:    opts.Render.Scale,
			Detailed: opts.Render.Detailed,
		})
		if !opts.Refresh {
			if cached, err := cache.Lookup(ctx, r.Cache, cache.KeyTypeRender, key); err == nil {
				out[f] = cached
				continue
			}
		}
		allHit = false

		artifact, err := render.Render(ctx, g, f, opts.Render)
		if err != nil {
			hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
			return nil, false, err
		}
		out[f] = artifact
		if err := cache.Put(ctx, r.Cache, cache.KeyTypeRender, key, artifact, r.ttl(cache.TTLRender)); err != nil {
			r.Logger.Warn("render cache write failed", "format", f, "error", err)
		}
	}
	hooks.OnRenderComplete(ctx, formats, time.Since(start), nil)
	return out, allHit, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// docHash hashes the canonical JSON encoding of doc.
func docHash(doc *flow.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("hash flow: %w", err)
	}
	return cache.Hash(data), nil
}
