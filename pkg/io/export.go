package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
)

// Encode serializes doc in format f.
func Encode(doc *flow.Document, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(doc, &buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes doc to w in format f.
func Write(doc *flow.Document, w io.Writer, f Format) error {
	if f == FormatYAML {
		return WriteYAML(doc, w)
	}
	return WriteJSON(doc, w)
}

// WriteJSON writes doc as JSON with a two-space indent and a trailing newline.
func WriteJSON(doc *flow.Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML writes doc as YAML with a two-space indent.
func WriteYAML(doc *flow.Document, w io.Writer) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	tree, err := flow.DecodeAny(data)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlCompatible(tree)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// ExportFile writes doc to path, choosing the format from its extension.
func ExportFile(doc *flow.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	return Write(doc, f, DetectFormat(path))
}

// yamlCompatible replaces json.Number with int64 or float64.
func yamlCompatible(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = yamlCompatible(val)
		}
		return x
	case []any:
		for i, val := range x {
			x[i] = yamlCompatible(val)
		}
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	}
	return v
}
