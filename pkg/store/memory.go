package store

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/flowlens/pkg/flow"
)

// MemoryStore keeps flows in process memory. Documents are copied on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*entry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, doc *flow.Document, name string) (string, error) {
	data, err := encodeFlow(doc)
	if err != nil {
		return "", err
	}
	id := newID()
	t := now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, &entry{
		Summary: Summary{ID: id, Name: DisplayName(doc, name, id), CreatedAt: t, UpdatedAt: t},
		Flow:    data,
	})
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.entries, id); i >= 0 {
		return s.entries[i].record()
	}
	return nil, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, doc *flow.Document) (bool, error) {
	data, err := encodeFlow(doc)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.entries, id)
	if i < 0 {
		return false, nil
	}
	e := *s.entries[i]
	e.Flow = data
	e.UpdatedAt = now()
	s.entries[i] = &e
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.entries, id)
	if i < 0 {
		return false, nil
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return true, nil
}

func (s *MemoryStore) List(context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Summary
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
