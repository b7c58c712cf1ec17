package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/store"
)

const pingPong = `{
  "friendly_name": "Ping Pong",
  "initial_state": "Trigger",
  "states": [
    {"name": "Trigger", "type": "trigger", "properties": {"offset": {"x": 0, "y": 0}},
     "transitions": [{"event": "incomingMessage", "next": "reply"}]},
    {"name": "reply", "type": "send-message", "properties": {"body": "pong"},
     "transitions": [{"event": "sent"}]}
  ]
}`

// testEnv is an isolated CLI with a file store in a temp directory.
type testEnv struct {
	t         *testing.T
	dir       string
	storePath string
	config    string
	out       *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	env := &testEnv{
		t:         t,
		dir:       dir,
		storePath: filepath.Join(dir, "flows.json"),
		config:    filepath.Join(dir, "config.toml"),
		out:       &bytes.Buffer{},
	}
	cfg := "[store]\nbackend = \"file\"\npath = \"" + filepath.ToSlash(env.storePath) + "\"\n\n[cache]\nbackend = \"none\"\n"
	if err := os.WriteFile(env.config, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	prev := stdout
	stdout = env.out
	t.Cleanup(func() {
		stdout = prev
		observability.Reset()
	})
	return env
}

// run executes one command and returns what it printed.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	e.out.Reset()
	c := New(&bytes.Buffer{}, log.InfoLevel)
	root := c.RootCommand()
	root.SetOut(e.out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := root.ExecuteContext(context.Background())
	return e.out.String(), err
}

func (e *testEnv) write(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.t.Fatal(err)
	}
	return path
}

func (e *testEnv) stored() []store.Summary {
	e.t.Helper()
	s, err := store.NewFileStore(e.storePath)
	if err != nil {
		e.t.Fatal(err)
	}
	defer s.Close()
	list, err := s.List(context.Background())
	if err != nil {
		e.t.Fatal(err)
	}
	return list
}

func TestParseRef(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.json")
	if err := os.WriteFile(path, []byte(pingPong), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		ref   string
		kind  refKind
		value string
	}{
		{"sample:basic", refSample, "basic"},
		{path, refFile, path},
		{"5f1c9a", refStored, "5f1c9a"},
		{"missing.json", refStored, "missing.json"},
	}
	for _, tt := range tests {
		kind, value := parseRef(tt.ref)
		if kind != tt.kind || value != tt.value {
			t.Errorf("parseRef(%q) = %v %q, want %v %q", tt.ref, kind, value, tt.kind, tt.value)
		}
	}
}

func TestImportListShowDelete(t *testing.T) {
	env := newTestEnv(t)
	path := env.write("ping.json", pingPong)

	out, err := env.run("import", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Ping Pong (ping)") {
		t.Errorf("import output missing name:\n%s", out)
	}

	list := env.stored()
	if len(list) != 1 {
		t.Fatalf("stored %d flows, want 1", len(list))
	}
	id := list[0].ID

	out, err = env.run("list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "Ping Pong (ping)") {
		t.Errorf("list output:\n%s", out)
	}

	out, err = env.run("show", id)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Trigger", "reply", "Send Message", "incomingMessage"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out, err = env.run("show", id, "--state", "reply")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"body": "pong"`) {
		t.Errorf("state output:\n%s", out)
	}

	if _, err := env.run("delete", id); err != nil {
		t.Fatal(err)
	}
	if n := len(env.stored()); n != 0 {
		t.Errorf("stored %d flows after delete", n)
	}
	if _, err := env.run("delete", id); err == nil {
		t.Error("deleting twice should fail")
	}
}

func TestImportRejectsInvalidFlow(t *testing.T) {
	env := newTestEnv(t)
	path := env.write("bad.json", `{"states": []}`)

	if _, err := env.run("import", path); err == nil {
		t.Fatal("expected an error")
	}
	if n := len(env.stored()); n != 0 {
		t.Errorf("stored %d flows, want none", n)
	}
}

func TestImportWithName(t *testing.T) {
	env := newTestEnv(t)
	path := env.write("ping.json", pingPong)

	if _, err := env.run("import", path, "--name", "support"); err != nil {
		t.Fatal(err)
	}
	list := env.stored()
	if len(list) != 1 || list[0].Name != "Ping Pong (support)" {
		t.Errorf("stored = %+v", list)
	}
}

func TestEditState(t *testing.T) {
	env := newTestEnv(t)
	path := env.write("ping.json", pingPong)
	if _, err := env.run("import", path); err != nil {
		t.Fatal(err)
	}
	id := env.stored()[0].ID

	state := env.write("reply.yaml", "name: reply\ntype: send-message\nproperties:\n  body: edited\n")
	if _, err := env.run("edit", id, state); err != nil {
		t.Fatal(err)
	}
	out, err := env.run("show", id, "--state", "reply")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"body": "edited"`) {
		t.Errorf("edit was not saved:\n%s", out)
	}

	unknown := env.write("ghost.json", `{"name": "ghost", "type": "say-play"}`)
	if _, err := env.run("edit", id, unknown); err == nil {
		t.Error("editing an unknown state should fail")
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	path := env.write("ping.json", pingPong)

	out, err := env.run("export", path, "-o", "-", "--format", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "initial_state: Trigger") {
		t.Errorf("yaml export:\n%s", out)
	}

	target := filepath.Join(env.dir, "out.json")
	if _, err := env.run("export", path, "-o", target); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `  "initial_state": "Trigger"`) {
		t.Errorf("json export:\n%s", data)
	}
}

func TestSaveSample(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run("save", "sample:basic", "--name", "My copy"); err != nil {
		t.Fatal(err)
	}
	list := env.stored()
	if len(list) != 1 || list[0].Name != "My copy" {
		t.Errorf("stored = %+v", list)
	}
}

func TestSamplesCommand(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run("samples")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"sample:basic", "sample:sms-survey", "sample:voice-retry"} {
		if !strings.Contains(out, want) {
			t.Errorf("samples output missing %q:\n%s", want, out)
		}
	}

	out, err = env.run("samples", "basic")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "initial_state:") {
		t.Errorf("raw sample:\n%s", out)
	}

	if _, err := env.run("samples", "nope"); err == nil {
		t.Error("unknown sample should fail")
	}
}

func TestGraphCommand(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run("graph", "sample:basic", "--select", "gather_input_1")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"nodes"`, `"edges"`, `"connected"`, `"disconnected"`} {
		if !strings.Contains(out, want) {
			t.Errorf("graph output missing %s", want)
		}
	}

	if _, err := env.run("graph", "sample:basic", "--select", "nope"); err == nil {
		t.Error("selecting an unknown state should fail")
	}
}

func TestRenderDOT(t *testing.T) {
	env := newTestEnv(t)
	path := env.write("ping.json", pingPong)
	base := filepath.Join(env.dir, "diagram")

	if _, err := env.run("render", path, "-f", "dot", "-o", base+".dot"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"Trigger" -> "reply"`) {
		t.Errorf("dot output:\n%s", data)
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		output, want string
	}{
		{"out.svg", "out"},
		{"out.png", "out"},
		{"out", "out"},
		{"dir/flow.v2", "dir/flow.v2"},
	}
	for _, tt := range tests {
		if got := outputBase(tt.output, "ignored", nil); got != tt.want {
			t.Errorf("outputBase(%q) = %q, want %q", tt.output, got, tt.want)
		}
	}
}

func TestVersionAndCompletion(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run("version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "flowlens version: ") {
		t.Errorf("version output = %q", out)
	}

	out, err = env.run("completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "flowlens") {
		t.Error("bash completion should mention the binary")
	}
}

func TestBadConfigIsRejected(t *testing.T) {
	env := newTestEnv(t)
	if err := os.WriteFile(env.config, []byte("[store]\nbackend = \"floppy\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := env.run("list"); err == nil {
		t.Error("an unknown store backend should fail")
	}
}
