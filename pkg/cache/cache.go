// Package cache stores transform and render results keyed by content hash.
//
// A flow's graph depends only on the document bytes and the layout options,
// so repeated requests for the same flow (CLI reruns, server polling) can
// skip the transform entirely. Backends:
//
//   - [NullCache]: caching disabled
//   - [FileCache]: JSON entries on disk, used by the CLI
//   - [RedisCache]: shared cache for the HTTP server
//
// Keys are produced by a [Keyer]; [NewScopedKeyer] adds a namespace prefix
// when several deployments share one Redis.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/flowlens/pkg/observability"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// A miss is reported as (nil, false, nil), never as an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default TTLs per entry kind.
const (
	TTLGraph  = 24 * time.Hour
	TTLRender = 7 * 24 * time.Hour
)

// Key types reported to observability hooks.
const (
	KeyTypeGraph  = "graph"
	KeyTypeRender = "render"
)

// =============================================================================
// Keys
// =============================================================================

// Keyer builds cache keys.
type Keyer interface {
	// GraphKey identifies the graph built from a document hash and options.
	GraphKey(docHash string, opts GraphKeyOpts) string

	// RenderKey identifies a rendered artifact of a graph hash.
	RenderKey(graphHash string, opts RenderKeyOpts) string
}

// GraphKeyOpts are the transform inputs that change the resulting graph.
type GraphKeyOpts struct {
	AutoLayout        bool    `json:"auto_layout"`
	HorizontalSpacing float64 `json:"h"`
	VerticalSpacing   float64 `json:"v"`
	StartX            float64 `json:"x"`
	StartY            float64 `json:"y"`
	LevelSkew         float64 `json:"skew"`
}

// RenderKeyOpts are the render inputs that change the artifact bytes.
type RenderKeyOpts struct {
	Format   string  `json:"format"`
	Scale    float64 `json:"scale,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
}

// DefaultKeyer hashes key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GraphKey returns "graph:<sha256>".
func (DefaultKeyer) GraphKey(docHash string, opts GraphKeyOpts) string {
	return hashKey(KeyTypeGraph, docHash, opts)
}

// RenderKey returns "render:<sha256>".
func (DefaultKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return hashKey(KeyTypeRender, graphHash, opts)
}

// =============================================================================
// Instrumented access
// =============================================================================

// Lookup reads key from c and reports a hit or miss to the cache hooks.
// A miss returns ErrCacheMiss.
func Lookup(ctx context.Context, c Cache, keyType, key string) ([]byte, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, ErrCacheMiss
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, nil
}

// Put writes data under key and reports the write to the cache hooks.
func Put(ctx context.Context, c Cache, keyType, key string, data []byte, ttl time.Duration) error {
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return nil
}

var (
	_ Keyer = DefaultKeyer{}
	_ Keyer = (*ScopedKeyer)(nil)
)
