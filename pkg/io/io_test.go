package io

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
)

const sampleJSON = `{
  "description": "Orders & returns <beta>",
  "states": [
    {
      "name": "Trigger",
      "type": "trigger",
      "transitions": [{"event": "incomingMessage", "next": "Ask"}, {"event": "incomingCall"}],
      "properties": {"offset": {"x": 0, "y": 0}}
    },
    {
      "name": "Ask",
      "type": "send-and-wait-for-reply",
      "transitions": [{"event": "incomingMessage", "next": "Gone", "conditions": []}],
      "properties": {"timeout": "3600", "body": "Reply with 1 or 2", "retries": 3, "ratio": 0.25}
    }
  ],
  "initial_state": "Trigger",
  "flags": {"allow_concurrent_calls": true}
}`

const sampleYAML = `description: Orders & returns <beta>
initial_state: Trigger
flags:
  allow_concurrent_calls: true
states:
  - name: Trigger
    type: trigger
    properties:
      offset: {x: 0, y: 0}
    transitions:
      - event: incomingMessage
        next: Ask
      - event: incomingCall
  - name: Ask
    type: send-and-wait-for-reply
    properties:
      timeout: "3600"
      body: Reply with 1 or 2
      retries: 3
      ratio: 0.25
    transitions:
      - event: incomingMessage
        next: Gone
        conditions: []
`

func generic(t *testing.T, data []byte) any {
	t.Helper()
	v, err := flow.DecodeAny(data)
	if err != nil {
		t.Fatalf("DecodeAny: %v\n%s", err, data)
	}
	return canonical(v)
}

// canonical renders numbers as float64 so documents decoded from different
// encodings compare equal.
func canonical(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = canonical(val)
		}
	case []any:
		for i, val := range x {
			x[i] = canonical(val)
		}
	case json.Number:
		f, _ := x.Float64()
		return f
	}
	return v
}

func TestDecodeJSONRoundTrip(t *testing.T) {
	doc, err := Decode([]byte(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, err := Encode(doc, FormatJSON)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !reflect.DeepEqual(generic(t, out), generic(t, []byte(sampleJSON))) {
		t.Errorf("round trip differs:\n%s", out)
	}
	if !strings.Contains(string(out), "Orders & returns <beta>") {
		t.Errorf("export escaped HTML characters:\n%s", out)
	}
	if !strings.HasPrefix(string(out), "{\n  \"description\"") {
		t.Errorf("export not indented with two spaces:\n%s", out)
	}
}

func TestDecodeJSONRoundTripShapes(t *testing.T) {
	state := func(transitions string) string {
		return `{"name": "A", "type": "trigger", "properties": {}, "transitions": ` + transitions + `}`
	}
	doc := func(top, transitions string) string {
		return `{"initial_state": "A", "states": [` + state(transitions) + `]` + top + `}`
	}
	tests := []struct {
		name string
		in   string
	}{
		{"flags array", doc(`, "flags": [1, 2]`, `[]`)},
		{"flags null", doc(`, "flags": null`, `[]`)},
		{"numeric description", doc(`, "description": 42`, `[]`)},
		{"empty friendly name", doc(`, "friendly_name": ""`, `[]`)},
		{"null friendly name", doc(`, "friendly_name": null`, `[]`)},
		{"numeric event", doc(``, `[{"event": 7, "next": "A"}]`)},
		{"string transition", doc(``, `["A", {"event": "x", "next": "A"}]`)},
		{"null transition", doc(``, `[null]`)},
		{"next null", doc(``, `[{"event": "x", "next": null}]`)},
		{"next empty", doc(``, `[{"event": "x", "next": ""}]`)},
		{"next object", doc(``, `[{"event": "x", "next": {"state": "A"}}]`)},
		{"conditions null", doc(``, `[{"event": "x", "conditions": null}]`)},
		{"conditions object", doc(``, `[{"event": "x", "conditions": {"k": 1}}]`)},
		{"empty event", doc(``, `[{"event": "", "next": "A"}]`)},
		{"no event", doc(``, `[{"next": "A"}]`)},
		{"type with extra", `{"initial_state": "A", "states": [{"name": "A", "type": "trigger", "properties": {"offset": null}, "transitions": [], "sub": [1]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := flow.DecodeAny([]byte(tt.in))
			if err != nil {
				t.Fatalf("bad fixture: %v", err)
			}
			if !flow.Validate(raw) {
				t.Fatalf("fixture should pass validation:\n%s", tt.in)
			}
			d, err := Decode([]byte(tt.in), FormatJSON)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			out, err := Encode(d, FormatJSON)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !reflect.DeepEqual(generic(t, out), generic(t, []byte(tt.in))) {
				t.Errorf("round trip differs:\n got  %s\n want %s", out, tt.in)
			}
		})
	}
}

func TestDecodeUnfitFieldsYieldNoEdge(t *testing.T) {
	in := `{"initial_state": "A", "states": [{"name": "A", "type": "trigger", "properties": {},
		"transitions": ["A", {"event": "x", "next": null}, {"event": 3, "next": "A"}]}]}`
	d, err := Decode([]byte(in), FormatJSON)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := d.States[0].Transitions
	if len(got) != 3 {
		t.Fatalf("transitions = %d, want 3", len(got))
	}
	if got[0].Next != "" || got[1].Next != "" {
		t.Errorf("unfit targets decoded as %q and %q", got[0].Next, got[1].Next)
	}
	if got[2].Next != "A" || got[2].Event != "" {
		t.Errorf("numeric event: Event=%q Next=%q", got[2].Event, got[2].Next)
	}
}

func TestDecodeSkipsByteOrderMark(t *testing.T) {
	for _, tt := range []struct {
		name string
		data string
		f    Format
	}{
		{"json", sampleJSON, FormatJSON},
		{"yaml", sampleYAML, FormatYAML},
	} {
		t.Run(tt.name, func(t *testing.T) {
			data := append([]byte("\ufeff"), tt.data...)
			if got := Sniff(data); got != tt.f {
				t.Fatalf("Sniff = %v, want %v", got, tt.f)
			}
			doc, err := Decode(data, tt.f)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if doc.InitialState != "Trigger" || len(doc.States) != 2 {
				t.Errorf("decoded %q with %d states", doc.InitialState, len(doc.States))
			}
		})
	}
}

func TestDecodeYAMLMatchesJSON(t *testing.T) {
	fromYAML, err := Decode([]byte(sampleYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Decode yaml: %v", err)
	}
	fromJSON, err := Decode([]byte(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := Encode(fromYAML, FormatJSON)
	b, _ := Encode(fromJSON, FormatJSON)
	if !reflect.DeepEqual(generic(t, a), generic(t, b)) {
		t.Errorf("yaml and json imports differ:\n%s\n%s", a, b)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	doc, err := Decode([]byte(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	y, err := Encode(doc, FormatYAML)
	if err != nil {
		t.Fatalf("Encode yaml: %v", err)
	}
	back, err := Decode(y, FormatYAML)
	if err != nil {
		t.Fatalf("Decode yaml: %v\n%s", err, y)
	}
	a, _ := Encode(back, FormatJSON)
	if !reflect.DeepEqual(generic(t, a), generic(t, []byte(sampleJSON))) {
		t.Errorf("yaml round trip differs:\n%s", y)
	}
	if !strings.Contains(string(y), "- name: Trigger") {
		t.Errorf("unexpected yaml layout:\n%s", y)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
		code   errs.Code
	}{
		{"bad json", `{"states": [`, FormatJSON, errs.ErrCodeInvalidFormat},
		{"trailing data", `{} {}`, FormatJSON, errs.ErrCodeInvalidFormat},
		{"bad yaml", "states: [\n  - a: b\n  c", FormatYAML, errs.ErrCodeInvalidFormat},
		{"not a flow", `{"nodes": [], "edges": []}`, FormatJSON, errs.ErrCodeInvalidFlow},
		{"yaml not a flow", "initial_state: A\n", FormatYAML, errs.ErrCodeInvalidFlow},
		{"state without type", `{"initial_state":"A","states":[{"name":"A","properties":{},"transitions":[]}]}`, FormatJSON, errs.ErrCodeInvalidFlow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), tt.format)
			if got := errs.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (%v)", got, tt.code, err)
			}
		})
	}
}

func TestImportExportFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "orders.yml")
	if err := os.WriteFile(src, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := ImportFile(src)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if doc.InitialState != "Trigger" || len(doc.States) != 2 {
		t.Fatalf("doc = %+v", doc)
	}

	dst := filepath.Join(dir, "orders.json")
	if err := ExportFile(doc, dst); err != nil {
		t.Fatalf("ExportFile: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if Sniff(data) != FormatJSON {
		t.Errorf("exported .json file is not JSON:\n%s", data)
	}

	_, err = ImportFile(filepath.Join(dir, "missing.json"))
	if !errs.Is(err, errs.ErrCodeInvalidPath) {
		t.Errorf("missing file err = %v, want INVALID_PATH", err)
	}
}

func TestReadHelpers(t *testing.T) {
	if _, err := ReadJSON(bytes.NewReader([]byte(sampleJSON))); err != nil {
		t.Errorf("ReadJSON: %v", err)
	}
	if _, err := ReadYAML(strings.NewReader(sampleYAML)); err != nil {
		t.Errorf("ReadYAML: %v", err)
	}
}

func TestDecodeState(t *testing.T) {
	yamlState := "name: B\ntype: say-play\nproperties:\n  say: hi\ntransitions:\n  - event: done\n    next: A\n"
	st, err := DecodeState([]byte(yamlState), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if st.Name != "B" || st.Properties["say"] != "hi" || len(st.Transitions) != 1 || st.Transitions[0].Next != "A" {
		t.Errorf("state = %+v", st)
	}

	for name, data := range map[string]string{
		"bad json":  `{"name": `,
		"no type":   `{"name": "B"}`,
		"not state": `[1, 2]`,
		"props list": `{"name": "B", "type": "say-play", "properties": [1]}`,
		"props null": `{"name": "B", "type": "say-play", "properties": null}`,
		"trans map":  `{"name": "B", "type": "say-play", "transitions": {"event": "x"}}`,
		"name num":   `{"name": 5, "type": "say-play"}`,
	} {
		if _, err := DecodeState([]byte(data), FormatJSON); !errs.IsInvalid(err) {
			t.Errorf("%s: err = %v, want an INVALID_* code", name, err)
		}
	}
}
