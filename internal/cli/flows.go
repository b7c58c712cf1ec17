package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/graph"
	flowio "github.com/matzehuels/flowlens/pkg/io"
	"github.com/matzehuels/flowlens/pkg/samples"
	"github.com/matzehuels/flowlens/pkg/widget"
)

// =============================================================================
// import
// =============================================================================

func (c *CLI) importCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a flow file and save it to the store",
		Long: `Validate a flow file (JSON or YAML) and save it to the store.

The stored name is "<friendly_name> (<file>)" when the flow has a friendly
name and the file name otherwise. --name replaces the file name part.
Invalid flows are rejected and nothing is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0], name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name to use instead of the file name")
	return cmd
}

func (c *CLI) runImport(ctx context.Context, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidPath, err, "read %s", path)
	}
	fileName := filepath.Base(path)
	if name != "" {
		if err := errs.ValidateFlowName(name); err != nil {
			return err
		}
		fileName = name + filepath.Ext(path)
	}

	s, err := c.openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.close()

	prog := newProgress(c.Logger)
	f, err := s.ws.Import(ctx, data, fileName)
	if f == nil {
		return err
	}
	if err := reportWarning(err); err != nil {
		return err
	}
	prog.done("Imported flow")

	if f.Stored() {
		printSuccess("Imported %s", StyleTitle.Render(f.Name))
		printKeyValue("ID", f.ID)
	} else {
		printInfo("Imported %s (not saved)", f.Name)
	}
	printKeyValue("States", strconv.Itoa(len(f.Doc.States)))
	printNewline()
	if f.Stored() {
		printNextStep("Render it", appName+" render "+f.ID)
	}
	return nil
}

// =============================================================================
// list
// =============================================================================

func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored flows in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()

			list, err := s.ws.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No stored flows")
				printNextStep("Import one", appName+" import flow.json")
				return nil
			}
			rows := make([][]string, len(list))
			for i, sum := range list {
				rows[i] = []string{sum.ID, sum.Name, formatTime(sum.CreatedAt), formatTime(sum.UpdatedAt)}
			}
			printTable([]string{"ID", "Name", "Created", "Updated"}, rows)
			return nil
		},
	}
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// =============================================================================
// show
// =============================================================================

func (c *CLI) showCommand() *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "show <ref>",
		Short: "Summarize a flow, or print one state",
		Long: `Summarize a flow: its states, their widget types and transitions.

<ref> is a file path, sample:<name>, or a stored flow id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.close()

			f, err := openRef(cmd.Context(), s.ws, args[0])
			if err != nil {
				return err
			}
			if state != "" {
				return showState(f.Doc, state)
			}
			return showFlow(f.Name, f.ID, f.Doc)
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "print the named state as JSON")
	return cmd
}

func showFlow(name, id string, doc *flow.Document) error {
	fmt.Fprintln(stdout, StyleTitle.Render(name))
	if id != "" {
		printKeyValue("ID", id)
	}
	if doc.Description != "" {
		printKeyValue("Description", doc.Description)
	}
	printKeyValue("Initial", doc.InitialState)
	printKeyValue("States", strconv.Itoa(len(doc.States)))
	printKeyValue("Layout", string(graph.Optimization(len(doc.States))))
	printNewline()

	rows := make([][]string, 0, len(doc.States))
	dangling := 0
	for _, st := range doc.States {
		info := widget.Lookup(st.Type)
		targets := ""
		for i, t := range st.Transitions {
			if i > 0 {
				targets += ", "
			}
			next := t.Next
			if next == "" {
				next = "·"
			} else if !doc.HasState(next) {
				next += "?"
				dangling++
			}
			targets += t.Event + iconArrow + next
		}
		rows = append(rows, []string{st.Name, info.DisplayName, string(info.Category), targets})
	}
	printTable([]string{"State", "Widget", "Category", "Transitions"}, rows)
	if dangling > 0 {
		printDetail("%d transition(s) point at missing states (marked ?) and are not drawn", dangling)
	}
	return nil
}

func showState(doc *flow.Document, name string) error {
	st := doc.FindState(name)
	if st == nil {
		return errs.New(errs.ErrCodeStateNotFound, "state %q not found", name)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(data))
	return nil
}

// =============================================================================
// export
// =============================================================================

func (c *CLI) exportCommand() *cobra.Command {
	var (
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export <ref>",
		Short: "Write a flow as JSON or YAML",
		Long: `Write a flow as JSON (two-space indent) or YAML.

Without -o the file name is derived from the flow name. Use -o - for stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := flowio.FormatJSON
			if format != "" {
				var err error
				if f, err = flowio.ParseFormat(format); err != nil {
					return err
				}
			} else if output != "" && output != "-" {
				f = flowio.DetectFormat(output)
			}

			s, err := c.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := openRef(cmd.Context(), s.ws, args[0]); err != nil {
				return err
			}
			data, name, err := s.ws.Export(f)
			if err != nil {
				return err
			}
			if output == "-" {
				_, err := stdout.Write(data)
				return err
			}
			if output == "" {
				output = name
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Exported flow")
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: derived from the flow name)")
	cmd.Flags().StringVar(&format, "format", "", "json (default) or yaml")
	return cmd
}

// =============================================================================
// edit / overwrite
// =============================================================================

func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <state-file>",
		Short: "Replace one state of a stored flow",
		Long: `Replace the state with the same name as the one in <state-file>
(JSON or YAML). The stored flow is updated immediately.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return errs.Wrap(errs.ErrCodeInvalidPath, err, "read %s", args[1])
			}
			st, err := flowio.DecodeState(data, flowio.DetectFormat(args[1]))
			if err != nil {
				return err
			}

			s, err := c.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := s.ws.Open(cmd.Context(), args[0]); err != nil {
				return err
			}
			f, err := s.ws.EditState(cmd.Context(), st)
			if f == nil {
				return err
			}
			if err := reportWarning(err); err != nil {
				return err
			}
			printSuccess("Updated state %s of %s", StyleTitle.Render(st.Name), f.Name)
			return nil
		},
	}
}

func (c *CLI) overwriteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overwrite <id> <flow-file>",
		Short: "Replace a stored flow with a new document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return errs.Wrap(errs.ErrCodeInvalidPath, err, "read %s", args[1])
			}

			s, err := c.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := s.ws.Open(cmd.Context(), args[0]); err != nil {
				return err
			}
			f, err := s.ws.Overwrite(cmd.Context(), data)
			if f == nil {
				return err
			}
			if err := reportWarning(err); err != nil {
				return err
			}
			printSuccess("Overwrote %s", StyleTitle.Render(f.Name))
			printKeyValue("States", strconv.Itoa(len(f.Doc.States)))
			return nil
		},
	}
}

// =============================================================================
// save / delete
// =============================================================================

func (c *CLI) saveCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "save <file|sample:NAME>",
		Short: "Store a copy of a flow without renaming it",
		Long: `Store a copy of a flow file or sample. Unlike import, the flow is
stored as is; the name defaults to its friendly_name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := openRef(cmd.Context(), s.ws, args[0]); err != nil {
				return err
			}
			f, err := s.ws.SaveAs(cmd.Context(), name)
			if err != nil {
				return err
			}
			printSuccess("Saved %s", StyleTitle.Render(f.Name))
			printKeyValue("ID", f.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "stored name (default: friendly_name, else \"Flow <id>\")")
	return cmd
}

func (c *CLI) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.ws.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted flow %s", args[0])
			return nil
		},
	}
}

// =============================================================================
// samples
// =============================================================================

func (c *CLI) samplesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "samples [name]",
		Short: "List the bundled sample flows, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				data, err := samples.Raw(args[0])
				if err != nil {
					return err
				}
				_, err = stdout.Write(data)
				return err
			}
			list := samples.List()
			rows := make([][]string, len(list))
			for i, s := range list {
				rows[i] = []string{samplePrefix + s.Name, s.Title, s.Description}
			}
			printTable([]string{"Ref", "Title", "Description"}, rows)
			return nil
		},
	}
}
