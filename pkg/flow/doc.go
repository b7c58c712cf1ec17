// Package flow defines the workflow document model and its structural validator.
//
// A flow is a directed graph of named states. Each state has a type tag, an
// arbitrary properties object, and an ordered list of transitions. A transition
// names the event that triggers it and, optionally, the state it leads to:
//
//	{
//	  "initial_state": "Trigger",
//	  "states": [
//	    {
//	      "name": "Trigger",
//	      "type": "trigger",
//	      "properties": {"offset": {"x": 0, "y": 0}},
//	      "transitions": [{"event": "incomingMessage", "next": "Reply"}]
//	    },
//	    {"name": "Reply", "type": "send-message", "properties": {}, "transitions": []}
//	  ]
//	}
//
// # Validation
//
// [Validate] and [Check] operate on a generically decoded document (the output of
// json.Unmarshal into an any) so that malformed input is rejected before it is
// bound to the typed model. The check is purely structural: a states array, a
// non-empty initial_state, and for each state a non-empty name and type, an
// object of properties and an array of transitions. State names must be unique
// because every edit addresses a state by name.
//
// # Fidelity
//
// [Document], [State] and [Transition] keep every field they do not model in an
// Extra map, and numbers inside properties are decoded as [encoding/json.Number].
// Marshaling a parsed document therefore reproduces a structurally equal
// document.
//
// # Edits
//
// Documents are treated as values. [Document.ReplaceState] and
// [Document.WithFriendlyName] return a new document and never touch the
// receiver's state slice.
package flow
