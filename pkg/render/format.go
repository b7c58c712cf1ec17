package render

import (
	"context"
	"strings"

	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
)

// Format is an output format.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// Formats lists every supported format.
var Formats = []Format{FormatSVG, FormatPNG, FormatPDF, FormatDOT}

// ParseFormats parses a comma-separated format list such as "svg,png".
// Duplicates are dropped; an empty list means svg.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := map[Format]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		f := Format(part)
		switch f {
		case FormatDOT, FormatSVG, FormatPNG, FormatPDF:
		default:
			return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported render format %q (use svg, png, pdf or dot)", part)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		out = []Format{FormatSVG}
	}
	return out, nil
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	}
	return "text/vnd.graphviz"
}

// Render draws g in format f.
func Render(ctx context.Context, g *graph.Graph, f Format, opts Options) ([]byte, error) {
	dot := ToDOT(g, opts)
	switch f {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot)
	case FormatPDF:
		return RenderPDF(ctx, dot)
	}
	return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported render format %q", f)
}
