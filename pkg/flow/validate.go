package flow

import (
	errs "github.com/matzehuels/flowlens/pkg/errors"
)

// Validate reports whether raw has the minimal structure of a flow.
// raw is a generically decoded document (see [DecodeAny]). Validate never
// panics and never modifies raw.
func Validate(raw any) bool {
	return Check(raw) == nil
}

// Check is like [Validate] but describes the first violation as an
// INVALID_FLOW error.
func Check(raw any) error {
	doc, ok := raw.(map[string]any)
	if !ok || doc == nil {
		return errs.New(errs.ErrCodeInvalidFlow, "flow must be an object")
	}
	states, ok := doc[keyStates].([]any)
	if !ok {
		return errs.New(errs.ErrCodeInvalidFlow, "flow must have a %q array", keyStates)
	}
	if s, ok := doc[keyInitialState].(string); !ok || s == "" {
		return errs.New(errs.ErrCodeInvalidFlow, "flow must have a non-empty %q", keyInitialState)
	}

	seen := make(map[string]int, len(states))
	for i, item := range states {
		state, ok := item.(map[string]any)
		if !ok || state == nil {
			return errs.New(errs.ErrCodeInvalidFlow, "state %d must be an object", i)
		}
		name, ok := state[keyName].(string)
		if !ok || name == "" {
			return errs.New(errs.ErrCodeInvalidFlow, "state %d must have a non-empty %q", i, keyName)
		}
		if t, ok := state[keyType].(string); !ok || t == "" {
			return errs.New(errs.ErrCodeInvalidFlow, "state %q must have a non-empty %q", name, keyType)
		}
		if p, ok := state[keyProperties].(map[string]any); !ok || p == nil {
			return errs.New(errs.ErrCodeInvalidFlow, "state %q must have a %q object", name, keyProperties)
		}
		if _, ok := state[keyTransitions].([]any); !ok {
			return errs.New(errs.ErrCodeInvalidFlow, "state %q must have a %q array", name, keyTransitions)
		}
		if j, dup := seen[name]; dup {
			return errs.New(errs.ErrCodeInvalidFlow, "states %d and %d share the name %q", j, i, name)
		}
		seen[name] = i
	}
	return nil
}

// Validate applies the structural rules of [Check] to a typed document.
func (d *Document) Validate() error {
	if d == nil {
		return errs.New(errs.ErrCodeInvalidFlow, "flow must be an object")
	}
	if d.States == nil {
		return errs.New(errs.ErrCodeInvalidFlow, "flow must have a %q array", keyStates)
	}
	if d.InitialState == "" {
		return errs.New(errs.ErrCodeInvalidFlow, "flow must have a non-empty %q", keyInitialState)
	}
	seen := make(map[string]int, len(d.States))
	for i := range d.States {
		if err := d.States[i].Validate(); err != nil {
			return err
		}
		name := d.States[i].Name
		if j, dup := seen[name]; dup {
			return errs.New(errs.ErrCodeInvalidFlow, "states %d and %d share the name %q", j, i, name)
		}
		seen[name] = i
	}
	return nil
}

// Validate checks a single state. A nil Properties map or Transitions slice
// is accepted because both marshal as empty values, but a decoded value of
// the wrong shape (left in Extra) is not.
func (s *State) Validate() error {
	if s.Name == "" {
		return errs.New(errs.ErrCodeInvalidState, "state must have a non-empty %q", keyName)
	}
	if s.Type == "" {
		return errs.New(errs.ErrCodeInvalidState, "state %q must have a non-empty %q", s.Name, keyType)
	}
	if has(s.Extra, keyProperties) {
		return errs.New(errs.ErrCodeInvalidState, "state %q must have a %q object", s.Name, keyProperties)
	}
	if has(s.Extra, keyTransitions) {
		return errs.New(errs.ErrCodeInvalidState, "state %q must have a %q array", s.Name, keyTransitions)
	}
	return nil
}
