package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/carepath/pkg/editor"
	"github.com/matzehuels/carepath/pkg/flow"
)

// openCommand creates the open command that fetches a graph and summarizes it.
func (c *CLI) openCommand() *cobra.Command {
	var opts editor.OpenOptions

	cmd := &cobra.Command{
		Use:   "open [graph-id|file]",
		Short: "Fetch a flowchart and summarize it",
		Long: `Fetch a flowchart from the document service (or read a local graph file)
and print its header, element counts and recommendation status.

With --select the node is made active and its incomplete fields are listed,
as the editor does when a user clicks it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOpen(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Select, "select", "", "node id to make active")
	cmd.Flags().BoolVar(&opts.ReadOnly, "read-only", false, "open as a viewer (builds recommendation lists)")

	return cmd
}

func (c *CLI) runOpen(ctx context.Context, source string, opts editor.OpenOptions) error {
	s, ch, err := c.openSession(ctx, sessionParams{source: source, open: opts})
	if err != nil {
		return err
	}
	defer ch.Close()

	printSession(s)
	if sel, ok := s.Elements().Selected(); ok {
		printNewline()
		printBlocks(sel, s.Elements().Badges(sel.ID))
		for _, p := range s.Metadata().Pendencies() {
			printWarning("pending %s", p)
		}
	}
	return nil
}

// printSession prints the header and counts of a loaded session.
func printSession(s *editor.Session) {
	h := s.Header()
	g := s.Graph()

	title := h.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Println(StyleTitle.Render(title))
	if h.Description != "" {
		printDetail("%s", h.Description)
	}
	printNewline()
	if h.Author != "" {
		printKeyValue("Author", h.Author)
	}
	if !h.UpdatedAt.IsZero() {
		printKeyValue("Updated", h.UpdatedAt.Format(time.DateOnly))
	}
	printKeyValue("State", s.Store().State().String())
	if s.ReadOnly() {
		printKeyValue("Mode", "read-only")
	}

	for _, t := range []flow.NodeType{flow.TypeStart, flow.TypeEnd, flow.TypeAction, flow.TypeEvaluation, flow.TypeLane} {
		if n := len(g.NodesOfType(t)); n > 0 {
			printKeyValue(typeLabel(t), StyleNumber.Render(fmt.Sprint(n)))
		}
	}
	printKeyValue("Links", StyleNumber.Render(fmt.Sprint(g.LinkCount())))

	if items := s.Pendencies(); len(items) > 0 {
		printKeyValue("Pendencies", StyleWarning.Render(fmt.Sprint(len(items))))
	} else {
		printKeyValue("Pendencies", StyleSuccess.Render("none"))
	}
}

// printBlocks lists the badges and recommendation blocks of n.
func printBlocks(n *flow.Node, badges []*flow.Node) {
	fmt.Println(StyleHighlight.Render(nodeName(n)))
	printBadges(badges)
	if len(n.Metadata) == 0 {
		printDetail("no recommendations")
		return
	}
	for _, b := range n.Metadata {
		printDetail("%s", blockSummary(b))
		for _, ref := range b.Links {
			fmt.Println("     " + StyleLink.Render(ref.URL))
		}
	}
}

// blockSummary renders a block as one line, e.g.
// "1. [RF] Crystalloids (in favor, strong)".
func blockSummary(b flow.Block) string {
	abbr := b.Classification.Abbreviation()
	if abbr == "" {
		abbr = "??"
	}
	text := b.Intervention
	if text == "" {
		text = "(no intervention)"
	}
	line := fmt.Sprintf("%d. [%s] %s", b.Index, abbr, text)
	if b.Classification == flow.ClassFormal {
		line += fmt.Sprintf(" (%s, %s)", humanize(string(b.Direction)), humanize(string(b.EffectiveStrength())))
	}
	if n := len(b.Links); n > 0 {
		line += fmt.Sprintf(" · %d refs", n)
	}
	return line
}

func humanize(s string) string {
	if s == "" {
		return "?"
	}
	return strings.ReplaceAll(s, "_", " ")
}

func typeLabel(t flow.NodeType) string {
	switch t {
	case flow.TypeStart:
		return "Starts"
	case flow.TypeEnd:
		return "Ends"
	case flow.TypeAction:
		return "Actions"
	case flow.TypeEvaluation:
		return "Evaluations"
	case flow.TypeLane:
		return "Lanes"
	}
	return t.String()
}
