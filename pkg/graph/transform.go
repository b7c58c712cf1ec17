package graph

import (
	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/widget"
)

// Options configures [TransformWithOptions].
type Options struct {
	// AutoLayout positions nodes with the layout engine instead of
	// properties.offset.
	AutoLayout bool
	// Layout is the spacing used when AutoLayout is set.
	Layout layout.Options
}

// DefaultOptions returns auto layout with the default spacing.
func DefaultOptions() Options {
	return Options{AutoLayout: true, Layout: layout.DefaultOptions()}
}

// Transform converts doc into a graph. It fails only when doc has no states
// sequence; dangling transitions are dropped silently.
func Transform(doc *flow.Document, autoLayout bool) (*Graph, error) {
	opts := DefaultOptions()
	opts.AutoLayout = autoLayout
	return TransformWithOptions(doc, opts)
}

// TransformWithOptions is like [Transform] with explicit layout spacing.
func TransformWithOptions(doc *flow.Document, opts Options) (*Graph, error) {
	if doc == nil || doc.States == nil {
		return nil, errs.New(errs.ErrCodeInvalidFlow, "flow has no states")
	}

	var positions map[string]flow.Position
	if opts.AutoLayout {
		positions = layout.ComputeWithOptions(doc.States, doc.InitialState, opts.Layout).Positions
	}

	g := &Graph{
		Nodes: make([]Node, 0, len(doc.States)),
		Edges: []Edge{},
	}
	ids := make(map[string]bool, len(doc.States))

	for i := range doc.States {
		s := &doc.States[i]
		pos, ok := positions[s.Name]
		if !ok {
			pos = s.Offset()
		}
		g.Nodes = append(g.Nodes, newNode(s, pos))
		ids[s.Name] = true
	}

	for i := range doc.States {
		s := &doc.States[i]
		for _, t := range s.Transitions {
			if t.Next == "" || !ids[t.Next] {
				continue
			}
			g.Edges = append(g.Edges, newEdge(s.Name, t.Event, t.Next))
		}
	}
	return g, nil
}

func newNode(s *flow.State, pos flow.Position) Node {
	props := s.Properties
	if props == nil {
		props = map[string]any{}
	}
	transitions := s.Transitions
	if transitions == nil {
		transitions = []flow.Transition{}
	}
	info := widget.Lookup(s.Type)
	return Node{
		ID:       s.Name,
		Type:     NodeType,
		Position: pos,
		Data: NodeData{
			Label:       s.Name,
			Type:        s.Type,
			Properties:  props,
			Transitions: transitions,
			Color:       info.Color,
			Category:    string(info.Category),
			DisplayName: info.DisplayName,
		},
	}
}

func newEdge(source, event, target string) Edge {
	return Edge{
		ID:       EdgeID(source, event, target),
		Source:   source,
		Target:   target,
		Label:    event,
		Type:     EdgeType,
		Animated: true,
		Style:    EdgeStyle{Stroke: ColorEdge},
		MarkerEnd: Marker{
			Type:   MarkerArrowClosed,
			Width:  markerWidth,
			Height: markerHeight,
			Color:  ColorEdge,
		},
	}
}
