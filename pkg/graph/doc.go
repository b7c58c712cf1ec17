// Package graph turns flow documents into renderable node-link graphs.
//
// This package sits between the flow model and whatever draws the diagram:
//
//   - [Transform]: flow.Document → [Graph] (one node per state, one edge per
//     resolvable transition)
//   - [Project]: restyles edges around a selected node
//   - [WriteGraph]/[ReadGraph]: the JSON wire format used by the HTTP API,
//     the cache and the CLI
//
// # Nodes
//
// Every state becomes exactly one [Node] whose ID is the state name, in
// document order. The node position comes from the layout engine when
// auto layout is requested and from properties.offset otherwise. The node
// data carries the state's properties and transitions unchanged so that a
// details panel or editor can show them, plus the widget colour, category and
// display name.
//
// # Edges
//
// Edges are emitted in state order, then transition order. A transition whose
// next is empty or names a missing state produces no edge; this is how
// imported flows that reference deleted states stay drawable. The edge ID is
// "source-event-target". Two identical transitions therefore produce two
// edges with the same ID, and consumers must tolerate the collision.
//
// # Selection
//
// [Project] is a pure function of the edges and the selected node ID. With no
// selection every edge is normal; with a selection, edges touching the node
// are connected and all others are disconnected:
//
//	normal        stroke #888, width 2, animated
//	connected     stroke #f22f46, width 3, dashed 5,5, animated
//	disconnected  stroke #444, width 1, opacity 0.3
//
// # Large flows
//
// [Optimization] classifies node counts into normal (< 70), optimized (< 100)
// and aggressive levels. [ShouldHighlight] is false from 100 nodes on, where
// callers are expected to skip projection.
package graph
