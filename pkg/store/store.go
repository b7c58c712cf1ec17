// Package store persists flow documents.
//
// Every backend implements [Store]:
//
//   - [MemoryStore]: process-local, for tests and the HTTP server demo mode
//   - [FileStore]: a single JSON file, the CLI default
//   - [SQLiteStore]: a local SQLite database
//   - [RedisStore]: JSON values plus a sorted set for creation order
//   - [MongoStore]: one document per flow
//
// Missing flows are not errors: Get returns (nil, nil) and Update/Delete
// return false. Backend failures are coded STORAGE_FAILED so callers can
// tell them apart from bad input.
//
// Use [Open] to build a backend from [Config]; it wraps the result with
// observability hooks.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
)

// ErrNotFound is the cause of the FLOW_NOT_FOUND error returned by [MustGet].
var ErrNotFound = errors.New("flow not found")

// Store is the persistence contract for flow documents.
type Store interface {
	// Save stores a copy of doc under a new id. An empty name falls back to
	// the document's friendly name, then to "Flow <id>".
	Save(ctx context.Context, doc *flow.Document, name string) (string, error)

	// Get returns the stored flow, or nil if id is unknown.
	Get(ctx context.Context, id string) (*Record, error)

	// Update replaces the document stored under id. It reports false if id
	// is unknown.
	Update(ctx context.Context, id string, doc *flow.Document) (bool, error)

	// Delete removes id. It reports false if id is unknown.
	Delete(ctx context.Context, id string) (bool, error)

	// List returns all flows ordered by creation time.
	List(ctx context.Context) ([]Summary, error)

	Close() error
}

// Summary describes a stored flow without its document.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Record is a stored flow.
type Record struct {
	Summary
	Flow *flow.Document `json:"flow"`
}

// MustGet is Get with a FLOW_NOT_FOUND error for unknown ids.
func MustGet(ctx context.Context, s Store, id string) (*Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errs.Wrap(errs.ErrCodeFlowNotFound, ErrNotFound, "flow %q not found", id)
	}
	return rec, nil
}

// =============================================================================
// Shared helpers
// =============================================================================

// entry is the serialized form used by the file and Redis backends.
type entry struct {
	Summary
	Flow json.RawMessage `json:"flow"`
}

func newID() string {
	return uuid.NewString()
}

// now returns the current time at millisecond precision, the resolution
// every backend can store.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// DisplayName picks the stored name for a flow: the explicit name, else
// the document's friendly name, else "Flow <id>". Names are NFC-normalized.
func DisplayName(doc *flow.Document, name, id string) string {
	if n := normalizeName(name); n != "" {
		return n
	}
	if doc != nil {
		if n := normalizeName(doc.FriendlyName); n != "" {
			return n
		}
	}
	return "Flow " + id
}

func normalizeName(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func encodeFlow(doc *flow.Document) ([]byte, error) {
	if doc == nil {
		return nil, errs.New(errs.ErrCodeInvalidFlow, "cannot store a nil flow")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFlow, err, "encode flow")
	}
	return data, nil
}

func decodeFlow(data []byte) (*flow.Document, error) {
	var doc flow.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, storageErr("decode stored flow", err)
	}
	return &doc, nil
}

func (e *entry) record() (*Record, error) {
	doc, err := decodeFlow(e.Flow)
	if err != nil {
		return nil, err
	}
	return &Record{Summary: e.Summary, Flow: doc}, nil
}

// storageErr codes a backend failure as STORAGE_FAILED.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var coded *errs.Error
	if errors.As(err, &coded) {
		return err
	}
	return errs.Wrap(errs.ErrCodeStorage, err, "%s", op)
}
