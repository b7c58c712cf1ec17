package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/graph"
	flowio "github.com/matzehuels/flowlens/pkg/io"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/workspace"
)

// viewOpts are the flags shared by graph and render.
type viewOpts struct {
	offsets  bool   // use properties.offset instead of auto layout
	selected string // highlight transitions around this state
}

func (o *viewOpts) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.offsets, "offsets", false, "position states by their stored offsets instead of auto layout")
	cmd.Flags().StringVar(&o.selected, "select", "", "highlight the transitions of this state")
}

// apply opens ref in ws with the layout mode and selection of o.
func (o *viewOpts) apply(ctx context.Context, ws *workspace.Workspace, ref string) (*workspace.Flow, error) {
	opts := ws.Options()
	if o.offsets {
		opts.AutoLayout = false
	}
	ws.SetOptions(opts)

	f, err := openRef(ctx, ws, ref)
	if err != nil {
		return nil, err
	}
	if err := ws.Select(o.selected); err != nil {
		return nil, err
	}
	return f, nil
}

// =============================================================================
// graph
// =============================================================================

func (c *CLI) graphCommand() *cobra.Command {
	var (
		view   viewOpts
		output string
	)
	cmd := &cobra.Command{
		Use:   "graph <ref>",
		Short: "Print the positioned node/edge graph of a flow as JSON",
		Long: `Print the {nodes, edges} graph of a flow as JSON.

With --select, edges get a state of "connected" or "disconnected" relative to
the selected state. Flows too large to highlight are printed unprojected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := view.apply(cmd.Context(), s.ws, args[0]); err != nil {
				return err
			}
			g, err := s.ws.Graph(cmd.Context())
			if err != nil {
				return err
			}
			if view.selected != "" && !graph.ShouldHighlight(len(g.Nodes)) {
				c.Logger.Warn("flow too large to highlight", "states", len(g.Nodes), "level", graph.Optimization(len(g.Nodes)))
			}
			if output == "" || output == "-" {
				return graph.WriteGraph(g, stdout)
			}
			if err := graph.WriteGraphFile(g, output); err != nil {
				return err
			}
			printSuccess("Wrote graph")
			printFile(output)
			printStats(len(g.Nodes), len(g.Edges), false)
			return nil
		},
	}
	view.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

// =============================================================================
// render
// =============================================================================

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	view     viewOpts
	output   string  // output base path
	formats  string  // comma-separated formats
	detailed bool    // show widget types under labels
	scale    float64 // canvas scale
	noCache  bool
	refresh  bool
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{formats: string(render.FormatSVG), scale: 1}
	cmd := &cobra.Command{
		Use:   "render <ref>",
		Short: "Render a flow diagram with Graphviz",
		Long: `Render a flow as SVG, PNG, PDF or DOT.

<ref> is a file path, sample:<name>, or a stored flow id. Output files are
named <base>.<format>; the base defaults to the input file name or, for
stored flows and samples, to the flow name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}
	opts.view.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", opts.formats, "output format(s): svg, png, pdf, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show widget types under state names")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "canvas scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results and recompute")
	return cmd
}

func (c *CLI) runRender(ctx context.Context, ref string, opts *renderOpts) error {
	formats, err := render.ParseFormats(opts.formats)
	if err != nil {
		return err
	}

	s, err := c.openSession(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer s.close()

	f, err := opts.view.apply(ctx, s.ws, ref)
	if err != nil {
		return err
	}

	popts := s.ws.Options()
	popts.Formats = formats
	popts.Refresh = opts.refresh
	if graph.ShouldHighlight(len(f.Doc.States)) {
		popts.Selected = s.ws.Selected()
	}
	popts.Render = render.Options{Scale: opts.scale, Detailed: opts.detailed}

	spinner := newSpinner(ctx, "Rendering "+f.Name+"...")
	spinner.Start()
	res, err := s.runner.Execute(ctx, f.Doc, popts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	base := outputBase(opts.output, ref, f)
	var written []string
	for _, format := range formats {
		path := base + format.Ext()
		if err := os.WriteFile(path, res.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}

	printSuccess("Rendered %s", StyleTitle.Render(f.Name))
	for _, path := range written {
		printFile(path)
	}
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheInfo.TransformHit && res.CacheInfo.RenderHit)
	c.Logger.Debug("render stats",
		"transform", res.Stats.TransformTime,
		"render", res.Stats.RenderTime,
		"doc", short(res.DocHash),
		"graph", short(res.GraphHash))
	return nil
}

// outputBase derives the output path without extension. A render format
// extension on output is stripped.
func outputBase(output, ref string, f *workspace.Flow) string {
	if output != "" {
		ext := filepath.Ext(output)
		if _, err := render.ParseFormats(strings.TrimPrefix(ext, ".")); err == nil && ext != "" {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	if kind, path := parseRef(ref); kind == refFile {
		return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	name := flowio.ExportFileName(f.Name, flowio.FormatJSON)
	return strings.TrimSuffix(name, flowio.FormatJSON.Ext())
}
