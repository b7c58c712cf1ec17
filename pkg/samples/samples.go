// Package samples embeds a small catalog of example flows.
//
// Samples are YAML documents under flows/. They decode through [io.Decode],
// so they pass the same validation gate as imported files.
package samples

import (
	"embed"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/io"
)

//go:embed flows/*.yaml
var files embed.FS

// Info describes one catalog entry.
type Info struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Names returns the sample names in sorted order.
func Names() []string {
	entries, err := files.ReadDir("flows")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// List describes every sample. Samples that fail to decode are skipped.
func List() []Info {
	var out []Info
	for _, name := range Names() {
		doc, err := Get(name)
		if err != nil {
			continue
		}
		out = append(out, Info{Name: name, Title: Title(name), Description: doc.Description})
	}
	return out
}

// Get decodes the named sample. Each call returns a fresh document.
func Get(name string) (*flow.Document, error) {
	data, err := Raw(name)
	if err != nil {
		return nil, err
	}
	doc, err := io.Decode(data, io.FormatYAML)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "sample %q is invalid", name)
	}
	return doc, nil
}

// Raw returns the embedded YAML for the named sample.
func Raw(name string) ([]byte, error) {
	if name == "" || strings.ContainsAny(name, "/\\.") {
		return nil, errs.New(errs.ErrCodeSampleNotFound, "sample %q not found", name)
	}
	data, err := files.ReadFile("flows/" + name + ".yaml")
	if err != nil {
		return nil, errs.New(errs.ErrCodeSampleNotFound, "sample %q not found", name)
	}
	return data, nil
}

// Title turns a sample name into a display title: "voice-retry" becomes
// "Voice Retry".
func Title(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "-", " "))
}
