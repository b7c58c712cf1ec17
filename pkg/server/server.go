// Package server exposes flows over HTTP for browser front-ends.
//
// The API hands out exactly the {nodes, edges} graph produced by the
// transformer so any diagramming library can draw it:
//
//	GET    /healthz
//	GET    /api/flows                      list stored flows
//	POST   /api/flows?name=                import (JSON or YAML body)
//	GET    /api/flows/{id}                 stored record
//	PUT    /api/flows/{id}                 overwrite the document
//	DELETE /api/flows/{id}
//	PUT    /api/flows/{id}/states/{name}   replace one state
//	GET    /api/flows/{id}/graph           ?layout=auto|offset&selected=NAME
//	GET    /api/flows/{id}/export          ?format=json|yaml
//	GET    /api/flows/{id}/render          ?format=svg|png|dot
//	GET    /api/samples
//	GET    /api/samples/{name}/graph
//
// Errors are JSON bodies of the form {"error": {"code", "message"}} with
// the status derived from the error code.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 10 << 20

const shutdownTimeout = 5 * time.Second

// Server serves the flow API. It keeps no per-client state: every request
// names the flow it works on.
type Server struct {
	store  store.Store
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router

	// Defaults are the transform options used when a request does not
	// override them.
	Defaults pipeline.Options
}

// New builds the router. A nil runner transforms without a cache and a nil
// logger discards output.
func New(s store.Store, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	srv := &Server{
		store:    s,
		runner:   runner,
		logger:   logger,
		Defaults: pipeline.DefaultOptions(),
	}
	srv.router = srv.routes()
	return srv
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/flows", func(r chi.Router) {
			r.Get("/", s.handleListFlows)
			r.Post("/", s.handleImportFlow)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetFlow)
				r.Put("/", s.handleOverwriteFlow)
				r.Delete("/", s.handleDeleteFlow)
				r.Put("/states/{name}", s.handleReplaceState)
				r.Get("/graph", s.handleFlowGraph)
				r.Get("/export", s.handleExportFlow)
				r.Get("/render", s.handleRenderFlow)
			})
		})
		r.Get("/samples", s.handleListSamples)
		r.Get("/samples/{name}/graph", s.handleSampleGraph)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
