package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// =============================================================================
// Model
// =============================================================================

// Document is a complete flow definition.
type Document struct {
	InitialState string
	States       []State
	FriendlyName string
	Description  string
	Flags        map[string]any

	// Extra holds top-level fields that are not modeled above.
	Extra map[string]json.RawMessage
}

// State is one widget of the flow and becomes one node of the graph.
type State struct {
	Name        string
	Type        string
	Properties  map[string]any
	Transitions []Transition

	Extra map[string]json.RawMessage
}

// Transition is a labeled move from its owning state to Next.
// Next may be empty or name a state that does not exist.
type Transition struct {
	Event      string
	Next       string
	Conditions []any

	Extra map[string]json.RawMessage

	// raw holds a transition that is not a JSON object.
	raw json.RawMessage
}

// Position is a point on the diagram canvas.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Known JSON keys.
const (
	keyInitialState = "initial_state"
	keyStates       = "states"
	keyFriendlyName = "friendly_name"
	keyDescription  = "description"
	keyFlags        = "flags"

	keyName        = "name"
	keyType        = "type"
	keyProperties  = "properties"
	keyTransitions = "transitions"

	keyEvent      = "event"
	keyNext       = "next"
	keyConditions = "conditions"

	keyOffset = "offset"
)

// =============================================================================
// Parsing
// =============================================================================

// Parse validates data structurally and decodes it into a Document.
// Validation failures are reported as INVALID_FLOW errors.
func Parse(data []byte) (*Document, error) {
	raw, err := decodeAny(data)
	if err != nil {
		return nil, err
	}
	if err := Check(raw); err != nil {
		return nil, err
	}
	var doc Document
	if err := doc.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Marshal encodes doc as indented JSON with a two-space indent.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// =============================================================================
// JSON - Document
// =============================================================================

// UnmarshalJSON decodes a document, keeping unknown fields in Extra.
// A known field whose value does not fit its Go type, is null, or is an
// empty string stays in Extra verbatim so that export writes it back.
func (d *Document) UnmarshalJSON(data []byte) error {
	fields, err := splitObject(data)
	if err != nil {
		return err
	}
	*d = Document{}
	takeString(fields, keyInitialState, &d.InitialState)
	takeString(fields, keyFriendlyName, &d.FriendlyName)
	takeString(fields, keyDescription, &d.Description)
	take(fields, keyFlags, &d.Flags)
	if raw, ok := fields[keyStates]; ok && isArray(raw) {
		if err := json.Unmarshal(raw, &d.States); err != nil {
			return fmt.Errorf("decode %s: %w", keyStates, err)
		}
		delete(fields, keyStates)
	}
	d.Extra = nonEmpty(fields)
	return nil
}

// MarshalJSON encodes the document including its Extra fields. Modeled
// fields that are set take precedence over Extra entries of the same key.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+5)
	for k, v := range d.Extra {
		out[k] = v
	}
	putString(out, keyInitialState, d.InitialState)
	if d.States != nil || !has(d.Extra, keyStates) {
		states := d.States
		if states == nil {
			states = []State{}
		}
		out[keyStates] = states
	}
	putString(out, keyFriendlyName, d.FriendlyName)
	putString(out, keyDescription, d.Description)
	if d.Flags != nil {
		out[keyFlags] = d.Flags
	}
	return marshalObject(out)
}

// =============================================================================
// JSON - State
// =============================================================================

// UnmarshalJSON decodes a state, keeping unknown and unfit fields in Extra.
func (s *State) UnmarshalJSON(data []byte) error {
	fields, err := splitObject(data)
	if err != nil {
		return err
	}
	*s = State{}
	takeString(fields, keyName, &s.Name)
	takeString(fields, keyType, &s.Type)
	take(fields, keyProperties, &s.Properties)
	if raw, ok := fields[keyTransitions]; ok && isArray(raw) {
		if err := json.Unmarshal(raw, &s.Transitions); err != nil {
			return fmt.Errorf("decode %s of %q: %w", keyTransitions, s.Name, err)
		}
		delete(fields, keyTransitions)
	}
	s.Extra = nonEmpty(fields)
	return nil
}

// MarshalJSON encodes the state. Nil properties and transitions are written
// as an empty object and an empty array unless Extra carries the key.
func (s State) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+4)
	for k, v := range s.Extra {
		out[k] = v
	}
	if s.Name != "" || !has(s.Extra, keyName) {
		out[keyName] = s.Name
	}
	if s.Type != "" || !has(s.Extra, keyType) {
		out[keyType] = s.Type
	}
	if s.Properties != nil || !has(s.Extra, keyProperties) {
		props := s.Properties
		if props == nil {
			props = map[string]any{}
		}
		out[keyProperties] = props
	}
	if s.Transitions != nil || !has(s.Extra, keyTransitions) {
		transitions := s.Transitions
		if transitions == nil {
			transitions = []Transition{}
		}
		out[keyTransitions] = transitions
	}
	return marshalObject(out)
}

// =============================================================================
// JSON - Transition
// =============================================================================

// UnmarshalJSON decodes a transition, keeping unknown and unfit fields in
// Extra. A transition that is not an object is kept whole and yields no
// edge.
func (t *Transition) UnmarshalJSON(data []byte) error {
	*t = Transition{}
	if !isObject(data) {
		t.raw = append(json.RawMessage(nil), data...)
		return nil
	}
	fields, err := splitObject(data)
	if err != nil {
		return err
	}
	takeString(fields, keyEvent, &t.Event)
	takeString(fields, keyNext, &t.Next)
	take(fields, keyConditions, &t.Conditions)
	t.Extra = nonEmpty(fields)
	return nil
}

// MarshalJSON encodes the transition including its Extra fields.
func (t Transition) MarshalJSON() ([]byte, error) {
	if t.raw != nil {
		return t.raw, nil
	}
	out := make(map[string]any, len(t.Extra)+3)
	for k, v := range t.Extra {
		out[k] = v
	}
	putString(out, keyEvent, t.Event)
	putString(out, keyNext, t.Next)
	if t.Conditions != nil {
		out[keyConditions] = t.Conditions
	}
	return marshalObject(out)
}

// =============================================================================
// Decoding helpers
// =============================================================================

// decodeAny decodes data into generic values with numbers kept as json.Number.
func decodeAny(data []byte) (any, error) {
	var v any
	if err := decodeNumbers(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeAny decodes JSON into generic values (maps, slices, json.Number)
// suitable for [Validate] and [Check].
func DecodeAny(data []byte) (any, error) {
	return decodeAny(data)
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

// marshalObject encodes v without HTML escaping so that exported text such
// as "&" or "<" stays readable.
func marshalObject(v map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func splitObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return fields, nil
}

// takeString moves fields[key] into dst when it holds a non-empty string.
// Any other value stays in fields.
func takeString(fields map[string]json.RawMessage, key string, dst *string) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil || v == "" {
		return
	}
	*dst = v
	delete(fields, key)
}

// take moves fields[key] into dst when it decodes as T and is not null.
func take[T any](fields map[string]json.RawMessage, key string, dst *T) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return
	}
	var v T
	if err := decodeNumbers(raw, &v); err != nil {
		return
	}
	*dst = v
	delete(fields, key)
}

func putString(out map[string]any, key, v string) {
	if v != "" {
		out[key] = v
	}
}

func has(fields map[string]json.RawMessage, key string) bool {
	_, ok := fields[key]
	return ok
}

func firstByte(raw []byte) byte {
	raw = bytes.TrimLeft(raw, " \t\r\n")
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func isNull(raw []byte) bool   { return firstByte(raw) == 'n' }
func isArray(raw []byte) bool  { return firstByte(raw) == '[' }
func isObject(raw []byte) bool { return firstByte(raw) == '{' }

func nonEmpty(fields map[string]json.RawMessage) map[string]json.RawMessage {
	if len(fields) == 0 {
		return nil
	}
	return fields
}
