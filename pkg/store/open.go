package store

import (
	"context"
	"path/filepath"
	"time"

	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/observability"
)

// Backend names accepted by [Open].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendFile, BackendSQLite, BackendRedis, BackendMongo, BackendMemory}

// Config selects and configures a backend.
type Config struct {
	Backend string

	// Path is the JSON file (file) or database file (sqlite).
	Path string

	RedisAddr   string
	RedisPrefix string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Open builds the configured backend and wraps it with store hooks.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case BackendMemory:
		s = NewMemoryStore()
	case BackendFile, "":
		s, err = NewFileStore(cfg.Path)
	case BackendSQLite:
		path := cfg.Path
		if path == "" {
			dir, derr := DefaultDataDir()
			if derr != nil {
				return nil, derr
			}
			path = filepath.Join(dir, "flows.db")
		}
		s, err = OpenSQLite(path)
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, errs.New(errs.ErrCodeInvalidInput, "redis store needs an address")
		}
		s, err = OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, errs.New(errs.ErrCodeInvalidInput, "mongo store needs a URI")
		}
		s, err = OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	default:
		return nil, errs.New(errs.ErrCodeUnsupported, "unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	name := cfg.Backend
	if name == "" {
		name = BackendFile
	}
	return Instrument(s, name), nil
}

// =============================================================================
// Instrumentation
// =============================================================================

// Instrument reports every call on s to the registered store hooks.
func Instrument(s Store, backend string) Store {
	return &instrumented{inner: s, backend: backend}
}

type instrumented struct {
	inner   Store
	backend string
}

func (s *instrumented) report(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnStoreOp(ctx, s.backend, op, time.Since(start), err)
}

func (s *instrumented) Save(ctx context.Context, doc *flow.Document, name string) (id string, err error) {
	defer func(start time.Time) { s.report(ctx, "save", start, err) }(time.Now())
	return s.inner.Save(ctx, doc, name)
}

func (s *instrumented) Get(ctx context.Context, id string) (rec *Record, err error) {
	defer func(start time.Time) { s.report(ctx, "get", start, err) }(time.Now())
	return s.inner.Get(ctx, id)
}

func (s *instrumented) Update(ctx context.Context, id string, doc *flow.Document) (ok bool, err error) {
	defer func(start time.Time) { s.report(ctx, "update", start, err) }(time.Now())
	return s.inner.Update(ctx, id, doc)
}

func (s *instrumented) Delete(ctx context.Context, id string) (ok bool, err error) {
	defer func(start time.Time) { s.report(ctx, "delete", start, err) }(time.Now())
	return s.inner.Delete(ctx, id)
}

func (s *instrumented) List(ctx context.Context) (out []Summary, err error) {
	defer func(start time.Time) { s.report(ctx, "list", start, err) }(time.Now())
	return s.inner.List(ctx)
}

func (s *instrumented) Close() error {
	return s.inner.Close()
}

// Unwrap returns the underlying backend.
func (s *instrumented) Unwrap() Store {
	return s.inner
}

var _ Store = (*instrumented)(nil)
