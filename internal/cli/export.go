package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/carepath/pkg/artifact"
	"github.com/matzehuels/carepath/pkg/editor"
	"github.com/matzehuels/carepath/pkg/render"
	"github.com/matzehuels/carepath/pkg/render/sheet"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	formats string
	output  string
	noCache bool
	upload  bool
	scale   float64
	links   bool
}

// exportCommand creates the export command that prints a flowchart.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export [graph-id|file]",
		Short: "Export a flowchart as a print-ready page",
		Long: `Export a flowchart as a print-ready page.

The export adds a header with the algorithm title, description, author and
last update, a footer, static labels for every text field and expanded
recommendation lists. The page is landscape when it is wider than tall.

PDF and PNG output requires rsvg-convert. Results are cached by document
content, so exporting an unchanged graph again is instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): pdf (default), png, svg, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or directory")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "upload artifacts to the configured S3 bucket")
	cmd.Flags().Float64Var(&opts.scale, "scale", 2, "PNG resolution factor")
	cmd.Flags().BoolVar(&opts.links, "links", true, "make reference URLs clickable (svg, pdf)")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, source string, opts exportOpts) error {
	formats, err := parseFormats(opts.formats)
	if err != nil {
		return err
	}

	s, ch, err := c.openSession(ctx, sessionParams{source: source, noCache: opts.noCache})
	if err != nil {
		return err
	}
	defer ch.Close()

	dest, err := c.destination(ctx, opts, len(formats))
	if err != nil {
		return err
	}
	rast := render.Rasterizer{Scale: opts.scale}
	if opts.links {
		rast.Options = append(rast.Options, sheet.WithLinks())
	}
	name := exportName(s, source)

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Exporting...")
	spinner.Start()

	var results []exportResult
	for _, f := range formats {
		out, err := s.Export(ctx, f, rast)
		if err != nil {
			spinner.StopWithError("Export failed")
			return err
		}
		loc, err := dest.write(ctx, name, out)
		if err != nil {
			spinner.StopWithError("Write failed")
			return err
		}
		results = append(results, exportResult{location: loc, export: out})
	}
	spinner.Stop()

	if spinner.Cancelled() {
		return ctx.Err()
	}

	printSuccess("Export complete")
	cached := true
	for _, r := range results {
		printFile(r.location)
		cached = cached && r.export.Cached
	}
	printStats(s.Graph().NodeCount(), s.Graph().LinkCount(), cached)
	prog.done(fmt.Sprintf("Exported %d artifacts", len(results)))
	return nil
}

type exportResult struct {
	location string
	export   editor.Export
}

// exportName picks the artifact base name: the algorithm title, else the
// input file name.
func exportName(s *editor.Session, source string) string {
	if title := s.Header().Title; title != "" {
		return artifact.FileName(title)
	}
	base := filepath.Base(source)
	return artifact.FileName(strings.TrimSuffix(base, filepath.Ext(base)))
}

// =============================================================================
// Destinations
// =============================================================================

// exportDest writes one export.
type exportDest struct {
	file   string // exact output path, single format only
	dest   artifact.Destination
	upload artifact.Destination
}

func (c *CLI) destination(ctx context.Context, opts exportOpts, formats int) (*exportDest, error) {
	d := &exportDest{}

	dir := "."
	switch {
	case opts.output == "":
	case isDir(opts.output):
		dir = opts.output
	case formats == 1:
		d.file = opts.output
	default:
		dir = opts.output
	}
	if d.file == "" {
		fd, err := artifact.NewFileDestination(dir)
		if err != nil {
			return nil, fmt.Errorf("output directory %s: %w", dir, err)
		}
		d.dest = fd
	}

	if opts.upload {
		a := c.cfg.Artifacts
		if a.S3Bucket == "" {
			return nil, errors.New("--upload needs artifacts.s3_bucket in the config")
		}
		s3, err := artifact.NewS3Destination(ctx, artifact.S3Config{
			Bucket:   a.S3Bucket,
			Prefix:   a.S3Prefix,
			Region:   a.S3Region,
			Endpoint: a.S3Endpoint,
		})
		if err != nil {
			return nil, err
		}
		d.upload = s3
	}
	return d, nil
}

// write stores the export locally and, when enabled, uploads it. It returns
// the upload location if any, else the local path.
func (d *exportDest) write(ctx context.Context, name string, out editor.Export) (string, error) {
	loc := d.file
	if d.file != "" {
		if err := os.WriteFile(d.file, out.Data, 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", d.file, err)
		}
	} else {
		var err error
		if loc, err = d.dest.Write(ctx, name, out.Format, out.Data); err != nil {
			return "", err
		}
	}

	if d.upload != nil {
		return d.upload.Write(ctx, name, out.Format, out.Data)
	}
	return loc, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
