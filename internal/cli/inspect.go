package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/samples"
	"github.com/matzehuels/flowlens/pkg/workspace"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)

	edgeConnectedStyle    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	edgeDisconnectedStyle = lipgloss.NewStyle().Foreground(colorDim)
	edgeNormalStyle       = lipgloss.NewStyle().Foreground(colorGray)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

func (c *CLI) inspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [ref]",
		Short: "Browse flows and highlight transitions interactively",
		Long: `Browse samples and stored flows in the terminal.

Keys: ↑/↓ move, enter select a state (highlights its transitions), esc clear
the selection, l toggle auto layout / offsets, tab next flow, q quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openSession(ctx, false)
			if err != nil {
				return err
			}
			defer s.close()

			refs, err := inspectRefs(ctx, s.ws)
			if err != nil {
				return err
			}
			start := ""
			if len(args) == 1 {
				start = args[0]
			}
			m := newInspectModel(ctx, s.ws, refs, start)
			_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return ctx.Err()
			}
			return err
		},
	}
	return cmd
}

// inspectRef is one entry of the flow cycle: a sample or a stored flow.
type inspectRef struct {
	ref   string
	label string
}

// inspectRefs lists samples followed by stored flows.
func inspectRefs(ctx context.Context, ws *workspace.Workspace) ([]inspectRef, error) {
	var refs []inspectRef
	for _, s := range samples.List() {
		refs = append(refs, inspectRef{ref: samplePrefix + s.Name, label: s.Title + " (sample)"})
	}
	stored, err := ws.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, sum := range stored {
		refs = append(refs, inspectRef{ref: sum.ID, label: sum.Name})
	}
	return refs, nil
}

// =============================================================================
// Model
// =============================================================================

// flowLoadedMsg carries the result of an asynchronous flow load.
type flowLoadedMsg struct {
	ticket pipeline.Ticket
	flow   *workspace.Flow
	graph  *graph.Graph
	err    error
}

// inspectModel is the bubbletea model of the inspector.
type inspectModel struct {
	ctx    context.Context
	ws     *workspace.Workspace
	latest *pipeline.Latest
	loadMu *sync.Mutex

	refs    []inspectRef
	refIdx  int
	loading bool

	flow     *workspace.Flow
	graph    *graph.Graph
	selected string
	err      error

	cursor int
	offset int
	height int
}

func newInspectModel(ctx context.Context, ws *workspace.Workspace, refs []inspectRef, start string) inspectModel {
	m := inspectModel{
		ctx:    ctx,
		ws:     ws,
		latest: &pipeline.Latest{},
		loadMu: &sync.Mutex{},
		refs:   refs,
		height: 15,
	}
	m.loading = len(refs) > 0 || start != ""
	if start != "" {
		m.refIdx = -1
		for i, r := range refs {
			if r.ref == start {
				m.refIdx = i
			}
		}
		if m.refIdx < 0 {
			m.refs = append([]inspectRef{{ref: start, label: start}}, refs...)
			m.refIdx = 0
		}
	}
	return m
}

func (m inspectModel) Init() tea.Cmd {
	if len(m.refs) == 0 {
		return nil
	}
	return m.load(m.refs[m.refIdx].ref)
}

// load starts loading ref. Loads run one at a time and a load whose ticket
// is no longer the newest never touches the workspace.
func (m *inspectModel) load(ref string) tea.Cmd {
	ticket := m.latest.Begin(ref)
	m.loading = true
	ctx, ws, latest, mu := m.ctx, m.ws, m.latest, m.loadMu
	return func() tea.Msg {
		mu.Lock()
		defer mu.Unlock()
		if !latest.Current(ticket) {
			return flowLoadedMsg{ticket: ticket, err: workspace.ErrSuperseded}
		}
		f, err := openRef(ctx, ws, ref)
		if err != nil {
			return flowLoadedMsg{ticket: ticket, err: err}
		}
		g, err := ws.Graph(ctx)
		return flowLoadedMsg{ticket: ticket, flow: f, graph: g, err: err}
	}
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case flowLoadedMsg:
		if !m.latest.Commit(msg.ticket, nil) || errors.Is(msg.err, workspace.ErrSuperseded) {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.flow != nil {
			m.flow, m.graph, m.selected = msg.flow, msg.graph, ""
			m.cursor, m.offset = 0, 0
		} else {
			m.restore()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.height = max(msg.Height-12, 5)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.graph != nil && m.cursor < len(m.graph.Nodes)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			if node := m.cursorNode(); node != nil {
				m.selectState(node.ID)
			}
		case "esc":
			m.selectState("")
		case "l":
			opts := m.ws.Options()
			opts.AutoLayout = !opts.AutoLayout
			m.ws.SetOptions(opts)
			m.refresh()
		case "tab":
			if len(m.refs) > 0 {
				m.refIdx = (m.refIdx + 1) % len(m.refs)
				return m, m.load(m.refs[m.refIdx].ref)
			}
		}
	}
	return m, nil
}

func (m *inspectModel) selectState(name string) {
	if err := m.ws.Select(name); err != nil {
		m.err = err
		return
	}
	m.selected = name
	m.refresh()
}

// restore puts the displayed flow back into the workspace after a failed
// load. An earlier load may have opened a different flow there before it
// was superseded.
func (m *inspectModel) restore() {
	cur := m.ws.Current()
	if m.flow == nil && cur == nil {
		return
	}
	if m.flow != nil && cur != nil && cur.Doc == m.flow.Doc && m.ws.Selected() == m.selected {
		return
	}
	if err := m.ws.Restore(m.flow, m.selected); err != nil {
		m.err = err
	}
}

// refresh recomputes the graph of the current flow. Transforms are cached,
// so this runs inline.
func (m *inspectModel) refresh() {
	if m.flow == nil {
		return
	}
	g, err := m.ws.Graph(m.ctx)
	m.graph, m.err = g, err
}

func (m inspectModel) cursorNode() *graph.Node {
	if m.graph == nil || m.cursor >= len(m.graph.Nodes) {
		return nil
	}
	return &m.graph.Nodes[m.cursor]
}

// =============================================================================
// View
// =============================================================================

func (m inspectModel) View() string {
	var b strings.Builder

	title := "Flow Inspector"
	if m.flow != nil {
		title = m.flow.Name
	}
	b.WriteString(StyleTitle.Render(title))
	if m.loading {
		b.WriteString(listDimStyle.Render("  loading..."))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  esc clear  l layout  tab next flow  q quit"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + errs.UserMessage(m.err))
		b.WriteString("\n\n")
	}
	if m.graph == nil {
		if len(m.refs) == 0 {
			b.WriteString(listDimStyle.Render("No flows. Import one with " + appName + " import."))
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.nodeList(), "  ", m.detailPanel()))
	b.WriteString("\n")
	return b.String()
}

func (m inspectModel) statusLine() string {
	layout := "auto layout"
	if !m.ws.Options().AutoLayout {
		layout = "offsets"
	}
	parts := []string{
		fmt.Sprintf("%d states", len(m.graph.Nodes)),
		fmt.Sprintf("%d edges", len(m.graph.Edges)),
		layout,
		string(graph.Optimization(len(m.graph.Nodes))),
	}
	return listDimStyle.Render(strings.Join(parts, " · "))
}

func (m inspectModel) nodeList() string {
	var b strings.Builder
	selected := m.ws.Selected()
	end := min(m.offset+m.height, len(m.graph.Nodes))
	for i := m.offset; i < end; i++ {
		n := m.graph.Nodes[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		mark := " "
		if n.ID == selected {
			mark = "●"
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(n.Data.Color)).Render("■")
		line := fmt.Sprintf("%s%s %s %-24s", cursor, mark, swatch, n.ID)
		pos := listDimStyle.Render(fmt.Sprintf("(%.0f, %.0f)", n.Position.X, n.Position.Y))
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line) + " " + pos)
		} else {
			b.WriteString(listNormalStyle.Render(line) + " " + pos)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m inspectModel) detailPanel() string {
	node := m.cursorNode()
	if node == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render(node.ID))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(node.Data.DisplayName + " · " + node.Data.Category))
	b.WriteString("\n\n")

	edges := m.graph.EdgesOf(node.ID)
	if len(edges) == 0 {
		b.WriteString(listDimStyle.Render("no transitions"))
	}
	for i, e := range edges {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(edgeStyle(e.State).Render(fmt.Sprintf("%s %s %s  [%s]", e.Source, iconArrow, e.Target, e.Label)))
	}
	return panelStyle.Render(b.String())
}

func edgeStyle(s graph.EdgeState) lipgloss.Style {
	switch s {
	case graph.EdgeConnected:
		return edgeConnectedStyle
	case graph.EdgeDisconnected:
		return edgeDisconnectedStyle
	}
	return edgeNormalStyle
}
