package flow

import (
	"encoding/json"
	"math"

	errs "github.com/matzehuels/flowlens/pkg/errors"
)

// FindState returns the state named name, or nil if there is none.
// The returned pointer aliases the document's state slice.
func (d *Document) FindState(name string) *State {
	if d == nil {
		return nil
	}
	for i := range d.States {
		if d.States[i].Name == name {
			return &d.States[i]
		}
	}
	return nil
}

// HasState reports whether a state named name exists.
func (d *Document) HasState(name string) bool {
	return d.FindState(name) != nil
}

// StateNames returns state names in document order.
func (d *Document) StateNames() []string {
	names := make([]string, len(d.States))
	for i := range d.States {
		names[i] = d.States[i].Name
	}
	return names
}

// ReplaceState returns a copy of d in which the state sharing updated's name
// is replaced by updated. The receiver is left unchanged.
func (d *Document) ReplaceState(updated State) (*Document, error) {
	if d == nil || d.States == nil {
		return nil, errs.New(errs.ErrCodeInvalidFlow, "flow has no states")
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	idx := -1
	for i := range d.States {
		if d.States[i].Name == updated.Name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errs.New(errs.ErrCodeStateNotFound, "state %q not found in flow", updated.Name)
	}
	next := *d
	next.States = make([]State, len(d.States))
	copy(next.States, d.States)
	next.States[idx] = updated
	return &next, nil
}

// WithFriendlyName returns a copy of d with FriendlyName set to name.
func (d *Document) WithFriendlyName(name string) *Document {
	next := *d
	next.FriendlyName = name
	return &next
}

// Clone returns a deep copy of d obtained through a JSON round trip.
func (d *Document) Clone() (*Document, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var out Document
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// Offsets
// =============================================================================

// Offset returns the author-supplied position stored in properties.offset.
// A missing or malformed offset yields the origin; a missing coordinate is 0.
func (s *State) Offset() Position {
	m, ok := s.Properties[keyOffset].(map[string]any)
	if !ok {
		return Position{}
	}
	return Position{X: number(m["x"]), Y: number(m["y"])}
}

// HasOffset reports whether properties.offset is present as an object.
func (s *State) HasOffset() bool {
	_, ok := s.Properties[keyOffset].(map[string]any)
	return ok
}

// number converts the numeric encodings produced by JSON and YAML decoding.
func number(v any) float64 {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
