package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/observability"
)

const sampleJSON = `{
  "initial_state": "Trigger",
  "friendly_name": "Support Line",
  "custom_top": {"keep": true},
  "states": [
    {"name": "Trigger", "type": "trigger", "properties": {"offset": {"x": 10, "y": 20}},
     "transitions": [{"event": "incomingCall", "next": "Menu"}]},
    {"name": "Menu", "type": "gather-input-on-call", "properties": {"timeout": 5},
     "transitions": [{"event": "keypress", "next": "Ghost"}]}
  ]
}`

func sampleDoc(t *testing.T) *flow.Document {
	t.Helper()
	doc, err := flow.Parse([]byte(sampleJSON))
	require.NoError(t, err)
	return doc
}

// storeFactories returns a fresh store per backend that runs without
// external services.
func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "flows.json"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "flows.db"))
			require.NoError(t, err)
			return s
		},
		"instrumented": func(t *testing.T) Store { return Instrument(NewMemoryStore(), "memory") },
	}
}

func TestStores(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			runStoreSuite(t, factory)
		})
	}
}

// runStoreSuite checks the persistence contract against any backend.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		doc := sampleDoc(t)
		id, err := s.Save(ctx, doc, "My Flow")
		require.NoError(t, err)
		require.NotEmpty(t, id)

		rec, err := s.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, id, rec.ID)
		assert.Equal(t, "My Flow", rec.Name)
		assert.False(t, rec.CreatedAt.IsZero())
		assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)

		want, err := flow.Marshal(doc)
		require.NoError(t, err)
		got, err := flow.Marshal(rec.Flow)
		require.NoError(t, err)
		assert.JSONEq(t, string(want), string(got))
	})

	t.Run("stored copy is independent", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		doc := sampleDoc(t)
		id, err := s.Save(ctx, doc, "")
		require.NoError(t, err)
		doc.States[0].Name = "Mutated"

		rec, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Trigger", rec.Flow.States[0].Name)
	})

	t.Run("default names", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		id, err := s.Save(ctx, sampleDoc(t), "  ")
		require.NoError(t, err)
		rec, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Support Line", rec.Name)

		anon := sampleDoc(t)
		anon.FriendlyName = ""
		id, err = s.Save(ctx, anon, "")
		require.NoError(t, err)
		rec, err = s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Flow "+id, rec.Name)
	})

	t.Run("missing ids", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		rec, err := s.Get(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, rec)

		ok, err := s.Update(ctx, "nope", sampleDoc(t))
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.Delete(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("update", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		id, err := s.Save(ctx, sampleDoc(t), "x")
		require.NoError(t, err)
		before, err := s.Get(ctx, id)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		edited, err := before.Flow.ReplaceState(flow.State{Name: "Menu", Type: "say-play"})
		require.NoError(t, err)
		ok, err := s.Update(ctx, id, edited)
		require.NoError(t, err)
		assert.True(t, ok)

		after, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "say-play", after.Flow.States[1].Type)
		assert.Equal(t, "x", after.Name)
		assert.True(t, after.CreatedAt.Equal(before.CreatedAt))
		assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		id, err := s.Save(ctx, sampleDoc(t), "x")
		require.NoError(t, err)
		ok, err := s.Delete(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok)

		rec, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, rec)

		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("list is ordered by creation", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)

		var ids []string
		for _, name := range []string{"first", "second", "third"} {
			id, err := s.Save(ctx, sampleDoc(t), name)
			require.NoError(t, err)
			ids = append(ids, id)
		}

		list, err = s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, sum := range list {
			assert.Equal(t, ids[i], sum.ID)
		}
		assert.Equal(t, "first", list[0].Name)
		assert.Equal(t, "third", list[2].Name)
	})

	t.Run("nil flow is rejected", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_, err := s.Save(ctx, nil, "x")
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrCodeInvalidFlow))
	})
}

func TestMustGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := MustGet(ctx, s, "missing")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrCodeFlowNotFound))
	assert.ErrorIs(t, err, ErrNotFound)

	id, err := s.Save(ctx, sampleDoc(t), "")
	require.NoError(t, err)
	rec, err := MustGet(ctx, s, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
}

func TestDisplayName(t *testing.T) {
	doc := &flow.Document{FriendlyName: "Friendly"}
	tests := []struct {
		name string
		doc  *flow.Document
		in   string
		want string
	}{
		{"explicit", doc, "Explicit", "Explicit"},
		{"trimmed", doc, "  Padded  ", "Padded"},
		{"friendly fallback", doc, "", "Friendly"},
		{"id fallback", &flow.Document{}, "", "Flow abc"},
		{"nil doc", nil, "", "Flow abc"},
		{"nfc", nil, "Cafe\u0301", "Caf\u00e9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.doc, tt.in, "abc"))
		})
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flows.json")

	s1, err := NewFileStore(path)
	require.NoError(t, err)
	id, err := s1.Save(ctx, sampleDoc(t), "kept")
	require.NoError(t, err)

	s2, err := NewFileStore(path)
	require.NoError(t, err)
	rec, err := s2.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "kept", rec.Name)
	assert.Equal(t, path, s2.Path())
}

func TestFileStoreCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flows.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	_, err = s.List(ctx)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrCodeStorage))
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flows.db")

	s1, err := OpenSQLite(path)
	require.NoError(t, err)
	id, err := s1.Save(ctx, sampleDoc(t), "durable")
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()
	rec, err := s2.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "durable", rec.Name)
	assert.Contains(t, rec.Flow.Extra, "custom_top")
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, backend := range []string{BackendMemory, BackendFile, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			s, err := Open(ctx, Config{Backend: backend, Path: filepath.Join(dir, backend+".store")})
			require.NoError(t, err)
			defer s.Close()
			_, err = s.List(ctx)
			require.NoError(t, err)
		})
	}

	_, err := Open(ctx, Config{Backend: "etcd"})
	assert.True(t, errs.Is(err, errs.ErrCodeUnsupported))

	_, err = Open(ctx, Config{Backend: BackendRedis})
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput))

	_, err = Open(ctx, Config{Backend: BackendMongo})
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput))
}

func TestInstrumentReportsOps(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingStoreHooks{}
	observability.SetStoreHooks(hooks)
	defer observability.Reset()

	s := Instrument(NewMemoryStore(), "memory")
	id, err := s.Save(ctx, sampleDoc(t), "")
	require.NoError(t, err)
	_, _ = s.Get(ctx, id)
	_, _ = s.Update(ctx, id, sampleDoc(t))
	_, _ = s.List(ctx)
	_, _ = s.Delete(ctx, id)
	_, _ = s.Save(ctx, nil, "")

	assert.Equal(t,
		"memory/save,memory/get,memory/update,memory/list,memory/delete,memory/save!",
		strings.Join(hooks.ops, ","))
}

type recordingStoreHooks struct {
	observability.NoopStoreHooks
	ops []string
}

func (h *recordingStoreHooks) OnStoreOp(_ context.Context, backend, op string, _ time.Duration, err error) {
	entry := backend + "/" + op
	if err != nil {
		entry += "!"
	}
	h.ops = append(h.ops, entry)
}
