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

var utf8BOM = []byte("\ufeff")

// Decode parses data in format f, validates it and returns the document.
// A leading UTF-8 byte order mark is ignored.
func Decode(data []byte, f Format) (*flow.Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if f == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	raw, err := flow.DecodeAny(data)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "file does not contain valid %s", f)
	}
	if err := flow.Check(raw); err != nil {
		return nil, err
	}
	doc, err := flow.Parse(data)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFlow, err, "decode flow")
	}
	return doc, nil
}

// Read decodes a document from r. r is not closed.
func Read(r io.Reader, f Format) (*flow.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Decode(data, f)
}

// ReadJSON decodes a JSON document from r.
func ReadJSON(r io.Reader) (*flow.Document, error) {
	return Read(r, FormatJSON)
}

// ReadYAML decodes a YAML document from r.
func ReadYAML(r io.Reader) (*flow.Document, error) {
	return Read(r, FormatYAML)
}

// ImportFile reads the document at path, choosing the format from its
// extension.
func ImportFile(path string) (*flow.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return Read(f, DetectFormat(path))
}

// DecodeState parses a single state, as edited in a widget editor.
func DecodeState(data []byte, f Format) (flow.State, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if f == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return flow.State{}, err
		}
		data = converted
	}
	var st flow.State
	if err := json.Unmarshal(data, &st); err != nil {
		return flow.State{}, errs.Wrap(errs.ErrCodeInvalidState, err, "decode state")
	}
	if err := st.Validate(); err != nil {
		return flow.State{}, err
	}
	return st, nil
}

// yamlToJSON converts a YAML document into the equivalent JSON bytes.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "file does not contain valid yaml")
	}
	out, err := json.Marshal(jsonCompatible(v))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "convert yaml")
	}
	return out, nil
}

// jsonCompatible rewrites map[any]any, which JSON cannot encode, into
// map[string]any.
func jsonCompatible(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = jsonCompatible(val)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []any:
		for i, val := range x {
			x[i] = jsonCompatible(val)
		}
		return x
	}
	return v
}
