package graph

// Node-count thresholds for large flows.
const (
	LargeFlowThreshold     = 70
	VeryLargeFlowThreshold = 100
)

// Level is an optimisation level for drawing a flow of a given size.
type Level string

const (
	LevelNormal     Level = "normal"
	LevelOptimized  Level = "optimized"
	LevelAggressive Level = "aggressive"
)

var (
	normalStyle       = EdgeStyle{Stroke: ColorEdge, StrokeWidth: 2}
	connectedStyle    = EdgeStyle{Stroke: ColorConnected, StrokeWidth: 3, StrokeDasharray: "5,5"}
	disconnectedStyle = EdgeStyle{Stroke: ColorDimmed, StrokeWidth: 1, Opacity: 0.3}
)

// Project returns a restyled copy of edges for the given selection. An empty
// selected clears the selection. Only Style, Animated and State change; the
// input slice is not modified.
func Project(edges []Edge, selected string) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		switch {
		case selected == "":
			e.Style, e.Animated, e.State = normalStyle, true, EdgeNormal
		case e.Touches(selected):
			e.Style, e.Animated, e.State = connectedStyle, true, EdgeConnected
		default:
			e.Style, e.Animated, e.State = disconnectedStyle, false, EdgeDisconnected
		}
		out[i] = e
	}
	return out
}

// ProjectGraph returns a copy of g whose edges are projected for selected.
// Nodes are shared with g.
func ProjectGraph(g *Graph, selected string) *Graph {
	return &Graph{Nodes: g.Nodes, Edges: Project(g.Edges, selected)}
}

// Optimization returns the optimisation level for a flow with n nodes.
func Optimization(n int) Level {
	switch {
	case n < LargeFlowThreshold:
		return LevelNormal
	case n < VeryLargeFlowThreshold:
		return LevelOptimized
	default:
		return LevelAggressive
	}
}

// ShouldHighlight reports whether selection highlighting is worthwhile for a
// flow with n nodes.
func ShouldHighlight(n int) bool {
	return n < VeryLargeFlowThreshold
}
