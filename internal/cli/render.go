package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/carepath/pkg/cache"
	"github.com/matzehuels/carepath/pkg/editor"
	"github.com/matzehuels/carepath/pkg/render/nodelink"
	"github.com/matzehuels/carepath/pkg/render/sheet"
)

const (
	overviewDOT   = "dot"
	overviewSVG   = "svg"
	overviewPDF   = "pdf"
	overviewPNG   = "png"
	overviewSheet = "sheet" // the editing surface as SVG, no print furniture
)

var overviewFormats = []string{overviewSVG, overviewDOT, overviewPDF, overviewPNG, overviewSheet}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	format   string
	output   string
	detailed bool // recommendation counts in node labels
	hidden   bool // draw collapsed recommendation lists (sheet)
	noCache  bool
	scale    float64
}

// renderCommand creates the render command for node-link overviews.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: overviewSVG, scale: 2}

	cmd := &cobra.Command{
		Use:   "render [graph-id|file]",
		Short: "Render a node-link overview of a flowchart",
		Long: `Render a compact node-link overview of a flowchart with Graphviz.

Only the clinical steps are drawn; lanes become clusters and evaluation
outcomes label their edges. Use --detailed to add recommendation counts.

The sheet format draws the editing surface as it is stored instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.format = strings.ToLower(strings.TrimSpace(opts.format))
			if !validOverviewFormat(opts.format) {
				return fmt.Errorf("invalid format %q: must be one of %s", opts.format, strings.Join(overviewFormats, ", "))
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: "+strings.Join(overviewFormats, ", "))
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show recommendation counts per node")
	cmd.Flags().BoolVar(&opts.hidden, "hidden", false, "draw collapsed recommendation lists (sheet format)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG resolution factor")

	return cmd
}

func validOverviewFormat(f string) bool {
	for _, v := range overviewFormats {
		if v == f {
			return true
		}
	}
	return false
}

func (c *CLI) runRender(ctx context.Context, source string, opts renderOpts) error {
	s, ch, err := c.openSession(ctx, sessionParams{source: source, noCache: opts.noCache})
	if err != nil {
		return err
	}
	defer ch.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering overview...")
	spinner.Start()
	data, cached, err := c.renderOverview(ctx, s, ch, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.StopWithSuccess("Render complete")

	outputPath := opts.output
	if outputPath == "" {
		base := filepath.Base(source)
		ext := opts.format
		if ext == overviewSheet {
			ext = "sheet.svg"
		}
		outputPath = strings.TrimSuffix(base, filepath.Ext(base)) + "." + ext
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printFile(outputPath)
	printStats(s.Graph().NodeCount(), s.Graph().LinkCount(), cached)
	return nil
}

// renderOverview produces the overview bytes, consulting the cache by
// document content.
func (c *CLI) renderOverview(ctx context.Context, s *editor.Session, ch cache.Cache, opts renderOpts) ([]byte, bool, error) {
	doc, err := s.Store().Serialize()
	if err != nil {
		return nil, false, err
	}
	format := opts.format
	if format == overviewPNG {
		format = fmt.Sprintf("%s@%g", format, opts.scale)
	}
	keyer := cache.NewScopedKeyer(nil, "algorithm:"+s.Store().Algorithm().ID+":")
	key := keyer.OverviewKey(cache.ContentHash(doc), cache.OverviewKeyOpts{
		Format:   format,
		Detailed: opts.detailed || opts.hidden,
	})
	if data, ok, err := ch.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}

	data, err := buildOverview(ctx, s, opts)
	if err != nil {
		return nil, false, err
	}
	if err := ch.Set(ctx, key, data, cache.TTLOverview); err != nil {
		c.Logger.Warn("cache overview", "err", err)
	}
	return data, false, nil
}

func buildOverview(ctx context.Context, s *editor.Session, opts renderOpts) ([]byte, error) {
	if opts.format == overviewSheet {
		var sheetOpts []sheet.Option
		if opts.hidden {
			sheetOpts = append(sheetOpts, sheet.WithHidden())
		}
		return sheet.RenderGraph(s.Graph(), sheetOpts...), nil
	}

	dot := nodelink.ToDOT(s.Graph(), nodelink.Options{Detailed: opts.detailed})
	switch opts.format {
	case overviewDOT:
		return []byte(dot), nil
	case overviewPDF:
		return nodelink.RenderPDF(ctx, dot)
	case overviewPNG:
		return nodelink.RenderPNG(ctx, dot, opts.scale)
	default:
		return nodelink.RenderSVG(ctx, dot)
	}
}
