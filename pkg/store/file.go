package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/matzehuels/flowlens/pkg/flow"
)

// FileStore keeps every flow in one JSON file. Each write rewrites the file
// atomically through a temporary file and a rename.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore opens the store at path, creating its directory. The file
// itself is created on the first write.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "flows.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, storageErr("create store dir", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(_ context.Context, doc *flow.Document, name string) (string, error) {
	data, err := encodeFlow(doc)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return "", err
	}
	id := newID()
	t := now()
	entries = append(entries, &entry{
		Summary: Summary{ID: id, Name: DisplayName(doc, name, id), CreatedAt: t, UpdatedAt: t},
		Flow:    data,
	})
	if err := s.write(entries); err != nil {
		return "", err
	}
	return id, nil
}

func (s *FileStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	if i := indexOf(entries, id); i >= 0 {
		return entries[i].record()
	}
	return nil, nil
}

func (s *FileStore) Update(_ context.Context, id string, doc *flow.Document) (bool, error) {
	data, err := encodeFlow(doc)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return false, err
	}
	i := indexOf(entries, id)
	if i < 0 {
		return false, nil
	}
	entries[i].Flow = data
	entries[i].UpdatedAt = now()
	return true, s.write(entries)
}

func (s *FileStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return false, err
	}
	i := indexOf(entries, id)
	if i < 0 {
		return false, nil
	}
	return true, s.write(slices.Delete(entries, i, i+1))
}

func (s *FileStore) List(context.Context) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(entries))
	for i, e := range entries {
		out[i] = e.Summary
	}
	return out, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) load() ([]*entry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("read store file", err)
	}
	var entries []*entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, storageErr(fmt.Sprintf("parse store file %s", s.path), err)
	}
	return entries, nil
}

func (s *FileStore) write(entries []*entry) error {
	if entries == nil {
		entries = []*entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return storageErr("encode store file", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return storageErr("write store file", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return storageErr("replace store file", err)
	}
	return nil
}

func indexOf(entries []*entry, id string) int {
	return slices.IndexFunc(entries, func(e *entry) bool { return e.ID == id })
}

// DefaultDataDir returns $XDG_DATA_HOME/flowlens, falling back to
// ~/.local/share/flowlens.
func DefaultDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "flowlens"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "flowlens"), nil
}

var _ Store = (*FileStore)(nil)
