package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowlens/pkg/buildinfo"
	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/graph"
	flowio "github.com/matzehuels/flowlens/pkg/io"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/samples"
	"github.com/matzehuels/flowlens/pkg/store"
	"github.com/matzehuels/flowlens/pkg/workspace"
)

// OptimizationHeader carries the large-flow optimisation level of a graph.
const OptimizationHeader = "X-Flow-Optimization"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Get()})
}

// =============================================================================
// Flows
// =============================================================================

func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleImportFlow(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// The name stands in for a dropped file's name; the extension only
	// steers decoding and is stripped again when naming.
	fileName := r.URL.Query().Get("name")
	if fileName != "" {
		if isYAML(r.Header.Get("Content-Type")) {
			fileName += flowio.FormatYAML.Ext()
		} else {
			fileName += flowio.FormatJSON.Ext()
		}
	}

	ws := workspace.New(s.store, s.runner, s.logger)
	f, err := ws.Import(r.Context(), data, fileName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, store.Summary{ID: f.ID, Name: f.Name})
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	rec, err := store.MustGet(r.Context(), s.store, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleOverwriteFlow(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.openStored(w, r)
	if !ok {
		return
	}
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := ws.Overwrite(r.Context(), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeRecord(w, r, f.ID)
}

func (s *Server) handleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	ws := workspace.New(s.store, s.runner, s.logger)
	if err := ws.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReplaceState(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var st flow.State
	if err := json.Unmarshal(data, &st); err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrCodeInvalidState, err, "state body is not valid JSON"))
		return
	}
	if name := chi.URLParam(r, "name"); st.Name != name {
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidState, "state name %q does not match %q", st.Name, name))
		return
	}

	ws, ok := s.openStored(w, r)
	if !ok {
		return
	}
	f, err := ws.EditState(r.Context(), st)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeRecord(w, r, f.ID)
}

func (s *Server) handleFlowGraph(w http.ResponseWriter, r *http.Request) {
	rec, err := store.MustGet(r.Context(), s.store, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeGraph(w, r, rec.Flow)
}

func (s *Server) handleExportFlow(w http.ResponseWriter, r *http.Request) {
	format := flowio.FormatJSON
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := flowio.ParseFormat(v)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		format = f
	}

	ws, ok := s.openStored(w, r)
	if !ok {
		return
	}
	data, name, err := ws.Export(format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	writeBytes(w, format.ContentType(), data)
}

func (s *Server) handleRenderFlow(w http.ResponseWriter, r *http.Request) {
	format := render.FormatSVG
	if v := r.URL.Query().Get("format"); v != "" {
		formats, err := render.ParseFormats(v)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if len(formats) != 1 {
			s.writeError(w, r, errs.New(errs.ErrCodeInvalidFormat, "render one format per request"))
			return
		}
		format = formats[0]
	}

	rec, err := store.MustGet(r.Context(), s.store, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.graphOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []render.Format{format}
	res, err := s.runner.Execute(r.Context(), rec.Flow, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBytes(w, format.ContentType(), res.Artifacts[format])
}

// =============================================================================
// Samples
// =============================================================================

func (s *Server) handleListSamples(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, samples.List())
}

func (s *Server) handleSampleGraph(w http.ResponseWriter, r *http.Request) {
	doc, err := samples.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeGraph(w, r, doc)
}

// =============================================================================
// Helpers
// =============================================================================

// graphOptions reads layout, selected and force from the query.
// force=true highlights even flows too large for it by default.
func (s *Server) graphOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := s.Defaults
	switch q.Get("layout") {
	case "":
	case "auto":
		opts.AutoLayout = true
	case "offset":
		opts.AutoLayout = false
	default:
		return opts, errs.New(errs.ErrCodeInvalidInput, "layout must be auto or offset")
	}
	opts.Selected = q.Get("selected")
	return opts, nil
}

func (s *Server) writeGraph(w http.ResponseWriter, r *http.Request, doc *flow.Document) {
	opts, err := s.graphOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Selected != "" && !doc.HasState(opts.Selected) {
		s.writeError(w, r, errs.New(errs.ErrCodeStateNotFound, "state %q not found", opts.Selected))
		return
	}

	g, err := s.runner.Transform(r.Context(), doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if opts.Selected != "" && (force || graph.ShouldHighlight(len(g.Nodes))) {
		g = graph.ProjectGraph(g, opts.Selected)
	}
	w.Header().Set(OptimizationHeader, string(graph.Optimization(len(g.Nodes))))
	writeJSON(w, http.StatusOK, g)
}

// openStored loads the flow named by the id URL parameter into a fresh
// workspace. On failure the error is written and ok is false.
func (s *Server) openStored(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, bool) {
	ws := workspace.New(s.store, s.runner, s.logger)
	if _, err := ws.Open(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return ws, true
}

func (s *Server) writeRecord(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := store.MustGet(r.Context(), s.store, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read request body")
	}
	if len(data) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "request body is empty")
	}
	return data, nil
}
