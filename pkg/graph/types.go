package graph

import (
	"github.com/matzehuels/flowlens/pkg/flow"
)

// =============================================================================
// Constants
// =============================================================================

// Renderer type tags.
const (
	NodeType = "studioFlowNode"
	EdgeType = "smoothstep"
)

// MarkerArrowClosed is the arrow head drawn at the target end of every edge.
const MarkerArrowClosed = "arrowclosed"

// Edge colours.
const (
	ColorEdge      = "#888"
	ColorConnected = "#f22f46"
	ColorDimmed    = "#444"
)

// Marker dimensions.
const (
	markerWidth  = 20
	markerHeight = 20
)

// EdgeState is the selection state an edge was projected into.
type EdgeState string

const (
	EdgeNormal       EdgeState = "normal"
	EdgeConnected    EdgeState = "connected"
	EdgeDisconnected EdgeState = "disconnected"
)

// =============================================================================
// Graph
// =============================================================================

// Graph is the node-link form of a flow.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// EdgesOf returns the edges whose source or target is id, in edge order.
func (g *Graph) EdgesOf(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Touches(id) {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// Node
// =============================================================================

// Node is one positioned state.
type Node struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Position flow.Position `json:"position"`
	Data     NodeData      `json:"data"`
}

// NodeData is the semantic payload of a node.
type NodeData struct {
	Label       string            `json:"label"`
	Type        string            `json:"type"`
	Properties  map[string]any    `json:"properties"`
	Transitions []flow.Transition `json:"transitions"`

	Color       string `json:"color"`
	Category    string `json:"category"`
	DisplayName string `json:"display_name"`
}

// =============================================================================
// Edge
// =============================================================================

// Edge is one drawable transition.
type Edge struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Label     string    `json:"label"`
	Type      string    `json:"type"`
	Animated  bool      `json:"animated"`
	Style     EdgeStyle `json:"style"`
	MarkerEnd Marker    `json:"markerEnd"`
	State     EdgeState `json:"state,omitempty"`
}

// Touches reports whether id is the edge's source or target.
func (e Edge) Touches(id string) bool {
	return e.Source == id || e.Target == id
}

// EdgeStyle holds the visual stroke attributes of an edge.
type EdgeStyle struct {
	Stroke          string  `json:"stroke"`
	StrokeWidth     float64 `json:"strokeWidth,omitempty"`
	StrokeDasharray string  `json:"strokeDasharray,omitempty"`
	Opacity         float64 `json:"opacity,omitempty"`
}

// Marker is an edge end decoration.
type Marker struct {
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Color  string `json:"color"`
}

// EdgeID builds the composite identifier of a transition edge.
func EdgeID(source, event, target string) string {
	return source + "-" + event + "-" + target
}
