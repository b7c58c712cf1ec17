package layout

import (
	"github.com/matzehuels/flowlens/pkg/flow"
)

// Default spacing, in canvas units.
const (
	DefaultHorizontalSpacing = 300
	DefaultVerticalSpacing   = 250
	DefaultStartX            = 50
	DefaultStartY            = 50
	DefaultLevelSkew         = 20
)

// Options controls how levels and slots map to coordinates.
type Options struct {
	HorizontalSpacing float64 `json:"horizontal_spacing" toml:"horizontal_spacing"`
	VerticalSpacing   float64 `json:"vertical_spacing" toml:"vertical_spacing"`
	StartX            float64 `json:"start_x" toml:"start_x"`
	StartY            float64 `json:"start_y" toml:"start_y"`
	LevelSkew         float64 `json:"level_skew" toml:"level_skew"`
}

// DefaultOptions returns the standard spacing.
func DefaultOptions() Options {
	return Options{
		HorizontalSpacing: DefaultHorizontalSpacing,
		VerticalSpacing:   DefaultVerticalSpacing,
		StartX:            DefaultStartX,
		StartY:            DefaultStartY,
		LevelSkew:         DefaultLevelSkew,
	}
}

// Normalized replaces non-positive spacing with the defaults.
func (o Options) Normalized() Options {
	if o.HorizontalSpacing <= 0 {
		o.HorizontalSpacing = DefaultHorizontalSpacing
	}
	if o.VerticalSpacing <= 0 {
		o.VerticalSpacing = DefaultVerticalSpacing
	}
	return o
}

// Result is a computed layout.
type Result struct {
	// Positions maps every state name to its coordinates.
	Positions map[string]flow.Position
	// Levels maps every state name to its discovery level.
	Levels map[string]int
	// Rows lists state names per level in discovery order.
	Rows [][]string
}

// Position returns the coordinates assigned to name.
func (r *Result) Position(name string) (flow.Position, bool) {
	p, ok := r.Positions[name]
	return p, ok
}

// Depth returns the number of levels.
func (r *Result) Depth() int { return len(r.Rows) }

// Compute lays out states with [DefaultOptions].
func Compute(states []flow.State, initialState string) *Result {
	return ComputeWithOptions(states, initialState, DefaultOptions())
}

// ComputeWithOptions lays out states. Every distinct state name receives a
// position, whether or not initialState names an existing state.
func ComputeWithOptions(states []flow.State, initialState string, opts Options) *Result {
	opts = opts.Normalized()

	w := newWalker(states)
	if _, ok := w.adj[initialState]; ok {
		w.walk(initialState, 0)
	}
	for i := range states {
		name := states[i].Name
		if !w.visited[name] {
			w.walk(name, len(w.rows))
		}
	}

	res := &Result{
		Positions: make(map[string]flow.Position, len(w.levels)),
		Levels:    w.levels,
		Rows:      w.rows,
	}
	for level, row := range w.rows {
		n := float64(len(row))
		center := (n - 1) * opts.HorizontalSpacing / 2
		for i, name := range row {
			res.Positions[name] = flow.Position{
				X: opts.StartX + float64(i)*opts.HorizontalSpacing - center + float64(level)*opts.LevelSkew,
				Y: opts.StartY + float64(level)*opts.VerticalSpacing,
			}
		}
	}
	return res
}

// =============================================================================
// Depth-first walk
// =============================================================================

type walker struct {
	adj     map[string][]string
	visited map[string]bool
	levels  map[string]int
	rows    [][]string
}

// frame is one pending state on the explicit stack; next indexes its
// successor list.
type frame struct {
	name  string
	level int
	next  int
}

func newWalker(states []flow.State) *walker {
	adj := make(map[string][]string, len(states))
	for i := range states {
		s := &states[i]
		// A later state with the same name replaces the earlier successor list.
		succ := make([]string, 0, len(s.Transitions))
		for _, t := range s.Transitions {
			if t.Next != "" {
				succ = append(succ, t.Next)
			}
		}
		adj[s.Name] = succ
	}
	return &walker{
		adj:     adj,
		visited: make(map[string]bool, len(adj)),
		levels:  make(map[string]int, len(adj)),
	}
}

func (w *walker) visit(name string, level int) bool {
	if w.visited[name] {
		return false
	}
	if _, known := w.adj[name]; !known {
		return false
	}
	w.visited[name] = true
	w.levels[name] = level
	for len(w.rows) <= level {
		w.rows = append(w.rows, nil)
	}
	w.rows[level] = append(w.rows[level], name)
	return true
}

func (w *walker) walk(root string, level int) {
	if !w.visit(root, level) {
		return
	}
	stack := []frame{{name: root, level: level}}
	for len(stack) > 0 {
		top := len(stack) - 1
		succ := w.adj[stack[top].name]
		if stack[top].next >= len(succ) {
			stack = stack[:top]
			continue
		}
		child := succ[stack[top].next]
		stack[top].next++
		childLevel := stack[top].level + 1
		if w.visit(child, childLevel) {
			stack = append(stack, frame{name: child, level: childLevel})
		}
	}
}
