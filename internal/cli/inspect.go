package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/carepath/pkg/editor"
)

// inspectCommand creates the inspect command for browsing a flowchart.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts editor.OpenOptions

	cmd := &cobra.Command{
		Use:   "inspect [graph-id|file]",
		Short: "Browse the elements of a flowchart interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.ReadOnly, "read-only", false, "open as a viewer (recommendation lists can be toggled)")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, source string, opts editor.OpenOptions) error {
	s, ch, err := c.openSession(ctx, sessionParams{source: source, open: opts, noCache: true})
	if err != nil {
		return err
	}
	defer ch.Close()

	p := tea.NewProgram(NewInspectModel(s), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	return nil
}
