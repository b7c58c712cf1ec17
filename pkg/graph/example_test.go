package graph_test

import (
	"fmt"

	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/graph"
)

func ExampleTransform() {
	doc := &flow.Document{
		InitialState: "Trigger",
		States: []flow.State{
			{Name: "Trigger", Type: "trigger", Transitions: []flow.Transition{
				{Event: "incomingMessage", Next: "Reply"},
				{Event: "incomingCall", Next: "Ghost"},
			}},
			{Name: "Reply", Type: "send-message", Transitions: []flow.Transition{
				{Event: "sent", Next: "Reply"},
			}},
		},
	}

	g, err := graph.Transform(doc, true)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	for _, n := range g.Nodes {
		fmt.Printf("node %s at (%v, %v) %s\n", n.ID, n.Position.X, n.Position.Y, n.Data.Color)
	}
	for _, e := range g.Edges {
		fmt.Println("edge", e.ID)
	}
	// Output:
	// node Trigger at (50, 50) #ff9800
	// node Reply at (70, 300) #4caf50
	// edge Trigger-incomingMessage-Reply
	// edge Reply-sent-Reply
}

func ExampleProject() {
	edges := []graph.Edge{
		{ID: "A-x-B", Source: "A", Target: "B"},
		{ID: "B-y-C", Source: "B", Target: "C"},
	}
	for _, e := range graph.Project(edges, "A") {
		fmt.Println(e.ID, e.State, e.Style.Stroke, e.Animated)
	}
	// Output:
	// A-x-B connected #f22f46 true
	// B-y-C disconnected #444 false
}
