// Package pkg provides the core libraries for flowlens flow visualization.
//
// # Overview
//
// Flowlens turns a flow definition (named states connected by event
// transitions) into a positioned node/edge graph that a front-end can draw,
// and keeps edited flows in a store. The pkg directory is organized into
// three main areas:
//
//  1. Domain: [flow], [widget], [graph], [layout], [render]
//  2. Infrastructure: [io], [store], [cache], [config], [observability]
//  3. Orchestration: [pipeline], [workspace], [server], [samples]
//
// # Architecture
//
// The typical data flow through flowlens:
//
//	JSON / YAML document
//	         ↓
//	    [io] package (decode + validate into a flow.Document)
//	         ↓
//	    [graph] package (auto layout or offsets, node/edge graph)
//	         ↓
//	    [graph.ProjectGraph] (highlight the selected state's transitions)
//	         ↓
//	    [render] package (DOT, SVG, PNG, PDF)
//
// # Quick Start
//
//	import (
//	    "context"
//	    flowio "github.com/matzehuels/flowlens/pkg/io"
//	    "github.com/matzehuels/flowlens/pkg/pipeline"
//	    "github.com/matzehuels/flowlens/pkg/render"
//	)
//
//	// 1. Load the flow
//	doc, _ := flowio.ImportFile("flow.json")
//
//	// 2. Transform and render
//	runner := pipeline.NewRunner(nil, nil, nil)
//	opts := pipeline.DefaultOptions()
//	opts.Formats = []render.Format{render.FormatSVG}
//	opts.Selected = "gather_input_1"
//	res, _ := runner.Execute(context.Background(), doc, opts)
//
//	// 3. Use the graph or the artifact
//	_ = res.Graph
//	_ = res.Artifacts[render.FormatSVG]
//
// # Main Packages
//
// ## Domain
//
// [flow] - The flow document model: states, transitions, properties and the
// invariants every document must satisfy (unique names, known initial state).
//
// [widget] - The catalog of state types with their category, colour and
// display name. Unknown types fall back to a neutral default.
//
// [layout] - Tree layout of states reachable from the initial state, with
// unreachable states placed in a column of their own.
//
// [graph] - The {nodes, edges} output form, edge projection for a selected
// state and the optimisation level for large flows.
//
// [render] - Graphviz rendering with every node pinned at its position.
//
// ## Infrastructure
//
// [io] - JSON and YAML import/export with format detection.
//
// [store] - Flow persistence: memory, file, SQLite, Redis and MongoDB
// backends behind one interface.
//
// [cache] - Content-addressed caching of graphs and renders (file, Redis).
//
// ## Orchestration
//
// [pipeline] - Transform and render with caching, plus [pipeline.Latest] so
// only the newest of several concurrent loads is applied.
//
// [workspace] - The editing session: current flow, selection, import naming,
// autosave and export.
//
// [server] - The HTTP API over the store and pipeline.
//
// [flow]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/flow
// [widget]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/widget
// [graph]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/graph
// [graph.ProjectGraph]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/graph#ProjectGraph
// [layout]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/layout
// [render]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/render
// [io]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/io
// [store]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/observability
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/pipeline
// [pipeline.Latest]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/pipeline#Latest
// [workspace]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/workspace
// [server]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/server
// [samples]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/samples
package pkg
