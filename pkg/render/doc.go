// Package render draws a transformed flow graph as a static diagram.
//
// # Overview
//
// The interactive canvas is out of process (a browser or the terminal
// inspector); this package covers the non-interactive exports:
//
//   - DOT: Graphviz source with every node pinned at its computed position
//   - SVG and PNG: rendered by Graphviz (neato honours pinned positions)
//   - PDF: SVG converted by the external rsvg-convert tool
//
// Positions come straight from [graph.Transform], so the rendered picture
// matches the coordinates the API serves. Graphviz's y axis points up while
// the canvas y axis points down; [ToDOT] flips it.
//
//	g, _ := graph.Transform(doc, true)
//	dot := render.ToDOT(g, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(svg)
//
// Edge colours follow the selection projection: pass a projected graph
// (see [graph.ProjectGraph]) to highlight the edges of one node.
//
// PDF export requires librsvg: brew install librsvg (macOS),
// apt install librsvg2-bin (Linux).
package render
