package io

import "testing"

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{" yml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"flow.json":      FormatJSON,
		"flow.JSON":      FormatJSON,
		"flow.yaml":      FormatYAML,
		"dir/flow.yml":   FormatYAML,
		"flow":           FormatJSON,
		"flow.yaml.json": FormatJSON,
	}
	for name, want := range tests {
		if got := DetectFormat(name); got != want {
			t.Errorf("DetectFormat(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSniff(t *testing.T) {
	tests := map[string]Format{
		`{"states": []}`:        FormatJSON,
		"  \n\t[1]":             FormatJSON,
		"\ufeff{}":              FormatJSON,
		"states: []":            FormatYAML,
		"---\ninitial_state: A": FormatYAML,
		"":                      FormatYAML,
	}
	for in, want := range tests {
		if got := Sniff([]byte(in)); got != want {
			t.Errorf("Sniff(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"welcome.json":        "welcome",
		"/tmp/flows/ivr.yaml": "ivr",
		"ivr.YML":             "ivr",
		"notes.txt":           "notes.txt",
		"archive.json.backup": "archive.json.backup",
	}
	for in, want := range tests {
		if got := BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExportFileName(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   string
	}{
		{"Support IVR", FormatJSON, "Support-IVR.json"},
		{"welcome (v2)", FormatYAML, "welcome--v2.yaml"},
		{"", FormatJSON, "studio-flow.json"},
		{"../../etc", FormatJSON, "etc.json"},
	}
	for _, tt := range tests {
		if got := ExportFileName(tt.name, tt.format); got != tt.want {
			t.Errorf("ExportFileName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
