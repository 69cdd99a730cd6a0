// Package cli implements the carepath command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/carepath/internal/config"
	"github.com/matzehuels/carepath/pkg/buildinfo"
	"github.com/matzehuels/carepath/pkg/cache"
	"github.com/matzehuels/carepath/pkg/editor"
	"github.com/matzehuels/carepath/pkg/element"
	"github.com/matzehuels/carepath/pkg/observability"
	"github.com/matzehuels/carepath/pkg/printlayout"
	"github.com/matzehuels/carepath/pkg/remote"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "carepath"

	// cachePrefix namespaces keys in shared Redis instances.
	cachePrefix = "carepath:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level. At debug level editor and cache
// events are logged too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		installLogHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Carepath edits, validates and prints clinical flowcharts",
		Long: `Carepath works with clinical practice flowcharts: start and end points,
actions, evaluations and swim lanes, where actions and evaluations carry graded
recommendation blocks.

Graphs are read from the document service by id, or from local graph files.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+config.Path()+")")

	root.AddCommand(c.openCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Session Factory
// =============================================================================

// newClient creates a document service client from the configuration.
func (c *CLI) newClient() (*remote.Client, error) {
	return remote.New(c.cfg.API.BaseURL,
		remote.WithToken(c.cfg.API.Token),
		remote.WithTimeout(c.cfg.API.Timeout.Duration),
		remote.WithBackoff(cache.DefaultBackoff),
	)
}

// newCache creates the export cache: Redis when configured, else the file
// cache. Entries are compressed and cache events reported.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}

	var inner cache.Cache
	if addr := c.cfg.Cache.RedisAddr; addr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: addr, Prefix: cachePrefix})
		if err != nil {
			c.Logger.Warn("redis unavailable, using file cache", "addr", addr, "err", err)
		} else {
			inner = rc
		}
	}
	if inner == nil {
		fc, err := cache.NewFileCache(c.cfg.Cache.Dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		inner = fc
	}

	compressed, err := cache.NewCompressed(inner)
	if err != nil {
		return nil, err
	}
	return cache.NewInstrumented(compressed), nil
}

// sessionParams selects how a session is opened.
type sessionParams struct {
	source  string // graph file path or document service id
	noCache bool
	open    editor.OpenOptions
}

// openSession loads source as a local file when it exists, else fetches it
// from the document service. The caller closes the returned cache.
func (c *CLI) openSession(ctx context.Context, p sessionParams) (*editor.Session, cache.Cache, error) {
	ch, err := c.newCache(ctx, p.noCache)
	if err != nil {
		return nil, nil, err
	}

	opts := []editor.Option{
		editor.WithLogger(c.Logger),
		editor.WithCache(ch, nil),
		editor.WithLogo(c.cfg.Print.Logo),
		editor.WithFooter(printlayout.Footer{Text: c.cfg.Print.FooterText, Logo: c.cfg.Print.FooterLogo}),
		editor.WithElementOptions(element.WithSurfaceWidth(c.cfg.Print.SurfaceWidth)),
	}

	if isFile(p.source) {
		s := editor.New(nil, opts...)
		if err := s.LoadFile(p.source, p.open); err != nil {
			ch.Close()
			return nil, nil, err
		}
		return s, ch, nil
	}

	client, err := c.newClient()
	if err != nil {
		ch.Close()
		return nil, nil, err
	}
	s := editor.New(client, opts...)

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Fetching graph %s...", p.source))
	spinner.Start()
	err = s.Open(ctx, p.source, p.open)
	spinner.Stop()
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("open %s: %w", p.source, err)
	}
	return s, ch, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) ([]printlayout.Format, error) {
	if s == "" {
		return []printlayout.Format{printlayout.FormatPDF}, nil
	}
	var out []printlayout.Format
	seen := make(map[printlayout.Format]bool)
	for _, part := range strings.Split(s, ",") {
		f, err := printlayout.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// installLogHooks reports editor, cache and HTTP events through l.
func installLogHooks(l *log.Logger) {
	h := logHooks{logger: l}
	observability.SetEditorHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}
