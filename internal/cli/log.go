// Package cli implements the flowlens command-line interface.
//
// Commands work on flow references: a file path, "sample:<name>" for a
// catalog sample, or the id of a stored flow. The CLI is built using cobra
// and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - import, list, show, export, edit, overwrite, save, delete: manage flows
//   - graph: write the positioned {nodes, edges} JSON of a flow
//   - render: draw a flow as SVG, PNG, PDF or DOT
//   - inspect: browse a flow interactively in the terminal
//   - serve: expose the HTTP API
//   - cache: manage the transform cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports pipeline, cache and store events.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Imported flow (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// =============================================================================
// Observability
// =============================================================================

// logHooks reports pipeline, cache and store events at debug level.
type logHooks struct {
	logger *log.Logger
}

func registerHooks(l *log.Logger) {
	h := &logHooks{logger: l}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetStoreHooks(h)
}

func (h *logHooks) OnTransformStart(_ context.Context, flowKey string, stateCount int) {
	h.logger.Debug("transform start", "flow", short(flowKey), "states", stateCount)
}

func (h *logHooks) OnTransformComplete(_ context.Context, flowKey string, nodeCount, edgeCount int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("transform failed", "flow", short(flowKey), "error", err)
		return
	}
	h.logger.Debug("transform done", "flow", short(flowKey), "nodes", nodeCount, "edges", edgeCount, "duration", d)
}

func (h *logHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render start", "formats", formats)
}

func (h *logHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.logger.Debug("render done", "formats", formats, "duration", d, "error", err)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnStoreOp(_ context.Context, backend, op string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("store call failed", "backend", backend, "op", op, "error", err)
		return
	}
	h.logger.Debug("store", "backend", backend, "op", op, "duration", d)
}

// short trims a content hash for log output.
func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

var (
	_ observability.PipelineHooks = (*logHooks)(nil)
	_ observability.CacheHooks    = (*logHooks)(nil)
	_ observability.StoreHooks    = (*logHooks)(nil)
)
