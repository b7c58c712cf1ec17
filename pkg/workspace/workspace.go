// Package workspace holds the flow a user is looking at and applies the
// application operations to it: open, import, edit, overwrite, save,
// delete and export.
//
// A [Workspace] owns one current flow. Persistence is injected as a
// [store.Store]; nothing here reaches for a global handle, so tests run
// against [store.NewMemoryStore].
//
// # Warnings
//
// Operations that succeed in memory but fail to persist return the updated
// [Flow] together with an error coded STORAGE_FAILED. The change is kept;
// callers report the error as a warning ([IsWarning]) instead of discarding
// the user's work.
package workspace

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/graph"
	flowio "github.com/matzehuels/flowlens/pkg/io"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/samples"
	"github.com/matzehuels/flowlens/pkg/store"
)

// ErrSuperseded is returned by the Open functions when a newer request
// replaced the flow before this one finished loading.
var ErrSuperseded = errors.New("workspace: superseded by a newer request")

// Flow is the current flow and where it came from.
type Flow struct {
	Doc *flow.Document

	// ID is the store id, empty while the flow is unsaved.
	ID string

	// Name is shown in titles and used for export file names.
	Name string

	// Sample is the catalog name when the flow was opened from a sample.
	Sample string
}

// Stored reports whether f has a copy in the store.
func (f *Flow) Stored() bool { return f != nil && f.ID != "" }

// Workspace is safe for concurrent use.
type Workspace struct {
	store  store.Store
	runner *pipeline.Runner
	logger *log.Logger
	latest pipeline.Latest
	now    func() time.Time

	mu       sync.RWMutex
	current  *Flow
	selected string
	opts     pipeline.Options
}

// New creates an empty workspace. A nil runner transforms without a cache
// and a nil logger discards output.
func New(s store.Store, runner *pipeline.Runner, logger *log.Logger) *Workspace {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	return &Workspace{
		store:  s,
		runner: runner,
		logger: logger,
		now:    time.Now,
		opts:   pipeline.DefaultOptions(),
	}
}

// IsWarning reports whether err leaves the operation applied in memory.
func IsWarning(err error) bool {
	return errs.Is(err, errs.ErrCodeStorage)
}

// Current returns the current flow, or nil.
func (w *Workspace) Current() *Flow {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.current == nil {
		return nil
	}
	f := *w.current
	return &f
}

// Selected returns the selected state name.
func (w *Workspace) Selected() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.selected
}

// Options returns the transform options used by [Workspace.Graph].
func (w *Workspace) Options() pipeline.Options {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.opts
}

// SetOptions replaces the transform options. Toggling AutoLayout is a view
// change; offsets in the document are never rewritten.
func (w *Workspace) SetOptions(opts pipeline.Options) {
	w.mu.Lock()
	w.opts = opts
	w.mu.Unlock()
}

// Select focuses a state. An empty name clears the selection.
func (w *Workspace) Select(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if name != "" && (w.current == nil || !w.current.Doc.HasState(name)) {
		return errs.New(errs.ErrCodeStateNotFound, "state %q not found", name)
	}
	w.selected = name
	return nil
}

// Close clears the current flow without touching the store.
func (w *Workspace) Close() {
	w.mu.Lock()
	w.current, w.selected = nil, ""
	w.mu.Unlock()
}

// =============================================================================
// Graph
// =============================================================================

// Graph transforms the current flow and projects the selection. Very
// large flows are not highlighted. A transform failure yields an empty
// graph together with the error.
func (w *Workspace) Graph(ctx context.Context) (*graph.Graph, error) {
	w.mu.RLock()
	cur, selected, opts := w.current, w.selected, w.opts
	w.mu.RUnlock()
	if cur == nil {
		return &graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}, nil
	}

	g, err := w.runner.TransformOrEmpty(ctx, cur.Doc, opts)
	if err != nil {
		return g, err
	}
	if !graph.ShouldHighlight(len(g.Nodes)) {
		selected = ""
	}
	return graph.ProjectGraph(g, selected), nil
}

// =============================================================================
// Open
// =============================================================================

// OpenSample makes the named catalog sample current. The flow is not saved.
func (w *Workspace) OpenSample(ctx context.Context, name string) (*Flow, error) {
	return w.open(ctx, "sample:"+name, func() (*Flow, error) {
		doc, err := samples.Get(name)
		if err != nil {
			return nil, err
		}
		return &Flow{Doc: doc, Name: samples.Title(name), Sample: name}, nil
	})
}

// Open makes the stored flow with the given id current.
func (w *Workspace) Open(ctx context.Context, id string) (*Flow, error) {
	return w.open(ctx, "store:"+id, func() (*Flow, error) {
		rec, err := store.MustGet(ctx, w.store, id)
		if err != nil {
			return nil, err
		}
		return &Flow{Doc: rec.Flow, ID: rec.ID, Name: rec.Name}, nil
	})
}

// OpenDocument makes an already decoded document current without saving
// it, as when viewing a file. doc must be valid.
func (w *Workspace) OpenDocument(ctx context.Context, doc *flow.Document, name string) (*Flow, error) {
	return w.open(ctx, "doc:"+name, func() (*Flow, error) {
		if err := doc.Validate(); err != nil {
			return nil, err
		}
		if name == "" {
			name = doc.FriendlyName
		}
		return &Flow{Doc: doc, Name: name}, nil
	})
}

// open loads a flow and applies it only if no newer open started meanwhile.
// Switching flows clears the selection.
func (w *Workspace) open(ctx context.Context, key string, load func() (*Flow, error)) (*Flow, error) {
	ticket := w.latest.Begin(key)
	f, err := load()
	if err != nil {
		return nil, err
	}
	// Warm the cache so the first Graph call after switching is cheap.
	if _, err := w.runner.Transform(ctx, f.Doc, w.Options()); err != nil {
		w.logger.Warn("opened flow does not transform", "flow", f.Name, "error", errs.UserMessage(err))
	}

	if !w.latest.Commit(ticket, func() { w.setCurrent(f) }) {
		w.logger.Debug("dropped superseded load", "key", key)
		return nil, ErrSuperseded
	}
	w.logger.Info("opened flow", "name", f.Name, "id", f.ID, "states", len(f.Doc.States))
	return w.Current(), nil
}

// Restore makes f current again with selected focused, superseding any
// open still in flight. A nil f closes the current flow.
func (w *Workspace) Restore(f *Flow, selected string) error {
	if f == nil {
		w.latest.Commit(w.latest.Begin("restore"), w.Close)
		return nil
	}
	if selected != "" && !f.Doc.HasState(selected) {
		return errs.New(errs.ErrCodeStateNotFound, "state %q not found", selected)
	}
	restored := *f
	w.latest.Commit(w.latest.Begin("restore:"+f.Name), func() {
		w.mu.Lock()
		w.current, w.selected = &restored, selected
		w.mu.Unlock()
	})
	w.logger.Debug("restored flow", "name", f.Name, "id", f.ID)
	return nil
}

func (w *Workspace) setCurrent(f *Flow) {
	w.mu.Lock()
	w.current, w.selected = f, ""
	w.mu.Unlock()
}

// =============================================================================
// Import
// =============================================================================

// Import decodes data, names it and saves it. fileName seeds the name and,
// when it has an extension, selects the format; otherwise the format is
// sniffed from data.
//
// An invalid document is rejected with INVALID_FLOW (or INVALID_FORMAT for
// unreadable bytes) and the current flow is left unchanged. If saving
// fails, the imported flow is still current but unsaved and the error is a
// warning.
func (w *Workspace) Import(ctx context.Context, data []byte, fileName string) (*Flow, error) {
	format := flowio.Sniff(data)
	if filepath.Ext(fileName) != "" {
		format = flowio.DetectFormat(fileName)
	}
	doc, err := flowio.Decode(data, format)
	if err != nil {
		return nil, err
	}

	name := w.importName(doc, fileName)
	named := doc.WithFriendlyName(name)
	ticket := w.latest.Begin("import:" + name)

	id, saveErr := w.store.Save(ctx, named, name)
	f := &Flow{Doc: named, ID: id, Name: name}
	if saveErr != nil {
		// Unsaved imports keep the document as read.
		f = &Flow{Doc: doc, Name: name}
	}
	if !w.latest.Commit(ticket, func() { w.setCurrent(f) }) {
		return nil, ErrSuperseded
	}
	if saveErr != nil {
		w.logger.Warn("imported flow could not be saved", "name", name, "error", saveErr)
		return w.Current(), storageErr(saveErr, "flow imported but not saved")
	}
	w.logger.Info("imported flow", "name", name, "id", id)
	return w.Current(), nil
}

func (w *Workspace) importName(doc *flow.Document, fileName string) string {
	if fileName != "" {
		base := flowio.BaseName(fileName)
		if doc.FriendlyName != "" {
			return doc.FriendlyName + " (" + base + ")"
		}
		return base
	}
	if doc.FriendlyName != "" {
		return doc.FriendlyName
	}
	return "Imported flow " + w.now().Format("2006-01-02 15:04:05")
}

// =============================================================================
// Edit
// =============================================================================

// EditState replaces the state with the same name. A stored flow is
// updated in the store as well; a store failure keeps the in-memory edit
// and is returned as a warning.
func (w *Workspace) EditState(ctx context.Context, st flow.State) (*Flow, error) {
	w.mu.Lock()
	if w.current == nil {
		w.mu.Unlock()
		return nil, errNoFlow()
	}
	doc, err := w.current.Doc.ReplaceState(st)
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	next := *w.current
	next.Doc = doc
	w.current = &next
	w.mu.Unlock()

	return w.autosave(ctx, &next)
}

// Overwrite replaces the whole document with data, as a JSON editor does.
// data must be a valid flow; otherwise the current flow is unchanged.
func (w *Workspace) Overwrite(ctx context.Context, data []byte) (*Flow, error) {
	doc, err := flowio.Decode(data, flowio.Sniff(data))
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.current == nil {
		w.mu.Unlock()
		return nil, errNoFlow()
	}
	next := *w.current
	next.Doc = doc
	w.current = &next
	if w.selected != "" && !doc.HasState(w.selected) {
		w.selected = ""
	}
	w.mu.Unlock()

	return w.autosave(ctx, &next)
}

func (w *Workspace) autosave(ctx context.Context, f *Flow) (*Flow, error) {
	if !f.Stored() {
		return f, nil
	}
	ok, err := w.store.Update(ctx, f.ID, f.Doc)
	if err != nil {
		w.logger.Warn("autosave failed", "id", f.ID, "error", err)
		return f, storageErr(err, "change kept but not saved")
	}
	if !ok {
		w.logger.Warn("autosave target vanished", "id", f.ID)
		return f, errs.New(errs.ErrCodeStorage, "flow %s is no longer stored; change kept but not saved", f.ID)
	}
	return f, nil
}

// =============================================================================
// Save / Delete
// =============================================================================

// SaveAs stores a new copy of the current flow and makes it current. An
// empty name falls back to the flow's friendly name.
func (w *Workspace) SaveAs(ctx context.Context, name string) (*Flow, error) {
	cur := w.Current()
	if cur == nil {
		return nil, errNoFlow()
	}
	if name != "" {
		if err := errs.ValidateFlowName(name); err != nil {
			return nil, err
		}
	}
	id, err := w.store.Save(ctx, cur.Doc, name)
	if err != nil {
		return nil, storageErr(err, "save flow")
	}
	rec, err := store.MustGet(ctx, w.store, id)
	if err != nil {
		return nil, storageErr(err, "reload saved flow")
	}

	w.mu.Lock()
	next := *cur
	next.ID, next.Name, next.Sample = id, rec.Name, ""
	w.current = &next
	w.mu.Unlock()
	w.logger.Info("saved flow", "name", next.Name, "id", id)
	return &next, nil
}

// SaveChanges writes the current flow over its stored copy.
func (w *Workspace) SaveChanges(ctx context.Context) error {
	cur := w.Current()
	if cur == nil {
		return errNoFlow()
	}
	if !cur.Stored() {
		return errs.New(errs.ErrCodeInvalidState, "flow %q has not been saved yet", cur.Name)
	}
	ok, err := w.store.Update(ctx, cur.ID, cur.Doc)
	if err != nil {
		return storageErr(err, "save changes")
	}
	if !ok {
		return errs.New(errs.ErrCodeFlowNotFound, "flow %s not found", cur.ID)
	}
	return nil
}

// Delete removes a stored flow. Deleting the current flow clears it.
func (w *Workspace) Delete(ctx context.Context, id string) error {
	ok, err := w.store.Delete(ctx, id)
	if err != nil {
		return storageErr(err, "delete flow")
	}
	if !ok {
		return errs.New(errs.ErrCodeFlowNotFound, "flow %s not found", id)
	}

	w.mu.Lock()
	if w.current != nil && w.current.ID == id {
		w.current, w.selected = nil, ""
	}
	w.mu.Unlock()
	w.logger.Info("deleted flow", "id", id)
	return nil
}

// List returns the stored flows in creation order.
func (w *Workspace) List(ctx context.Context) ([]store.Summary, error) {
	list, err := w.store.List(ctx)
	if err != nil {
		return nil, storageErr(err, "list flows")
	}
	return list, nil
}

// =============================================================================
// Export
// =============================================================================

// Export encodes the current flow and suggests a file name for it.
func (w *Workspace) Export(f flowio.Format) ([]byte, string, error) {
	cur := w.Current()
	if cur == nil {
		return nil, "", errNoFlow()
	}
	data, err := flowio.Encode(cur.Doc, f)
	if err != nil {
		return nil, "", err
	}
	return data, flowio.ExportFileName(cur.Name, f), nil
}

func errNoFlow() error {
	return errs.New(errs.ErrCodeInvalidState, "no flow is open")
}

func storageErr(err error, msg string) error {
	if errs.GetCode(err) == errs.ErrCodeStorage {
		return err
	}
	return errs.Wrap(errs.ErrCodeStorage, err, "%s", msg)
}
