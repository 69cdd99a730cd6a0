package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errPendency makes validate exit non-zero.
var errPendency = errors.New("graph has incomplete recommendations")

// validateCommand creates the validate command that reports pendencies.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [graph-id|file]",
		Short: "Report incomplete recommendation fields",
		Long: `Report every incomplete recommendation field of a flowchart.

A graph with pendencies cannot be saved to the document service. The command
exits with a non-zero status when any are found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runValidate(ctx context.Context, source string) error {
	s, ch, err := c.openSession(ctx, sessionParams{source: source, noCache: true})
	if err != nil {
		return err
	}
	defer ch.Close()

	items := s.Pendencies()
	if len(items) == 0 {
		printSuccess("No pendencies")
		return nil
	}

	printError("%d pendencies", len(items))
	for _, item := range items {
		printDetail("%s", item)
	}
	printNewline()
	printNextStep("Inspect a node", appName+" open "+source+" --select <node-id>")
	return fmt.Errorf("%s: %w", source, errPendency)
}
