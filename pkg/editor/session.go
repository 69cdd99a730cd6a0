package editor

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/carepath/pkg/cache"
	"github.com/matzehuels/carepath/pkg/document"
	"github.com/matzehuels/carepath/pkg/element"
	cperrors "github.com/matzehuels/carepath/pkg/errors"
	"github.com/matzehuels/carepath/pkg/flow"
	"github.com/matzehuels/carepath/pkg/metadata"
	"github.com/matzehuels/carepath/pkg/observability"
	"github.com/matzehuels/carepath/pkg/printlayout"
	"github.com/matzehuels/carepath/pkg/store"
)

// Session is one open flowchart: the graph store, the metadata store and the
// element manager wired together over the same live graph.
//
// A session is single-threaded. Network calls block the caller; there is no
// locking against edits made from other goroutines meanwhile.
type Session struct {
	store    *store.Store
	meta     *metadata.Store
	elements *element.Manager

	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
	footer printlayout.Footer
	logo   string

	readOnly bool
}

// Option configures a [Session].
type Option func(*config)

type config struct {
	cache       cache.Cache
	keyer       cache.Keyer
	logger      *log.Logger
	footer      printlayout.Footer
	logo        string
	elementOpts []element.Option
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option { return func(c *config) { c.logger = l } }

// WithCache caches export artifacts. A nil keyer means [cache.DefaultKeyer].
func WithCache(ch cache.Cache, keyer cache.Keyer) Option {
	return func(c *config) { c.cache, c.keyer = ch, keyer }
}

// WithFooter sets the attribution printed under exports.
func WithFooter(f printlayout.Footer) Option { return func(c *config) { c.footer = f } }

// WithLogo sets the logo printed in the export header.
func WithLogo(path string) Option { return func(c *config) { c.logo = path } }

// WithElementOptions passes options to the element manager.
func WithElementOptions(opts ...element.Option) Option {
	return func(c *config) { c.elementOpts = append(c.elementOpts, opts...) }
}

// New creates a session over p. p may be nil for file-only sessions.
func New(p store.Persister, opts ...Option) *Session {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cache == nil {
		cfg.cache = cache.NewNullCache()
	}
	if cfg.keyer == nil {
		cfg.keyer = cache.NewDefaultKeyer()
	}
	if cfg.logger == nil {
		cfg.logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	st := store.New(p)
	meta := metadata.New(st)
	return &Session{
		store:    st,
		meta:     meta,
		elements: element.New(st, meta, cfg.elementOpts...),
		cache:    cfg.cache,
		keyer:    cfg.keyer,
		logger:   cfg.logger,
		footer:   cfg.footer,
		logo:     cfg.logo,
	}
}

// Store returns the graph store.
func (s *Session) Store() *store.Store { return s.store }

// Metadata returns the metadata store.
func (s *Session) Metadata() *metadata.Store { return s.meta }

// Elements returns the element manager.
func (s *Session) Elements() *element.Manager { return s.elements }

// Graph returns the live graph.
func (s *Session) Graph() *flow.Graph { return s.store.Graph() }

// ReadOnly reports whether the session was opened for viewing only.
func (s *Session) ReadOnly() bool { return s.readOnly }

// =============================================================================
// Open / Load
// =============================================================================

// OpenOptions controls how a graph is opened.
type OpenOptions struct {
	// ReadOnly opens the graph for viewing: recommendation lists and their
	// togglers are created and saving is refused.
	ReadOnly bool
	// Select is a node to select after loading, if present.
	Select string
}

// Open fetches a graph and its algorithm header from the document service
// and rebuilds the derived state.
func (s *Session) Open(ctx context.Context, graphID string, opts OpenOptions) error {
	start := time.Now()
	err := s.store.Open(ctx, graphID)
	observability.Editor().OnOpen(ctx, graphID, s.Graph().NodeCount(), time.Since(start), err)
	if err != nil {
		s.logger.Error("open graph", "graph", graphID, "err", err)
		return err
	}
	s.afterLoad(opts)
	s.logger.Info("opened graph",
		"graph", graphID,
		"algorithm", s.store.Algorithm().Title,
		"nodes", s.Graph().NodeCount(),
		"links", s.Graph().LinkCount(),
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// LoadFile reads a Graph Document from disk.
func (s *Session) LoadFile(path string, opts OpenOptions) error {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err == nil {
		err = s.store.Load(data)
	}
	observability.Editor().OnOpen(context.Background(), path, s.Graph().NodeCount(), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	s.afterLoad(opts)
	s.logger.Debug("loaded graph file", "path", path, "nodes", s.Graph().NodeCount())
	return nil
}

// Load replaces the graph with the given Graph Document text.
func (s *Session) Load(data []byte, opts OpenOptions) error {
	if err := s.store.Load(data); err != nil {
		return err
	}
	s.afterLoad(opts)
	return nil
}

func (s *Session) afterLoad(opts OpenOptions) {
	s.readOnly = opts.ReadOnly
	s.meta.ClearPendency()
	s.elements.Reindex()
	if opts.Select != "" {
		s.elements.Select(opts.Select)
	}
	s.elements.UpdateAllRecommendationBadges()
	if opts.ReadOnly {
		s.elements.CreateRecommendations()
	}
}

// =============================================================================
// Save
// =============================================================================

// Pendencies returns every incomplete field of the graph, labelled by owner.
// Entries flagged on the active node are included even when the block itself
// is complete.
func (s *Session) Pendencies() []string {
	var items []string
	seen := make(map[string]bool)
	for _, p := range metadata.Audit(s.Graph()) {
		item := describe(p)
		seen[item] = true
		items = append(items, item)
	}
	if sel, ok := s.elements.Selected(); ok {
		for _, p := range s.meta.Pendencies() {
			item := describe(metadata.OwnerPendency{Owner: sel.ID, Label: sel.Label, Pendency: p})
			if !seen[item] {
				items = append(items, item)
			}
		}
	}
	return items
}

func describe(p metadata.OwnerPendency) string {
	name := p.Label
	if name == "" {
		name = p.Owner
	}
	return fmt.Sprintf("%s: %s", name, p.Pendency)
}

// Save sends the graph to the document service. It refuses read-only
// sessions and graphs with pendencies; the latter fail with a
// *errors.ValidationError listing them. Any node's incomplete blocks
// block the save, not only the active node's ledger.
func (s *Session) Save(ctx context.Context) (time.Time, error) {
	id := s.store.Document().ID
	start := time.Now()
	at, err := s.save(ctx)
	observability.Editor().OnSave(ctx, id, time.Since(start), err)
	if err != nil {
		s.logger.Warn("save refused", "graph", id, "err", err)
		return time.Time{}, err
	}
	s.logger.Info("saved graph", "graph", id, "updated_at", at.Format(time.RFC3339))
	return at, nil
}

func (s *Session) save(ctx context.Context) (time.Time, error) {
	if s.readOnly {
		return time.Time{}, cperrors.New(cperrors.ErrCodeUnsupported, "session is read-only")
	}
	if items := s.Pendencies(); len(items) > 0 {
		return time.Time{}, &cperrors.ValidationError{Items: items}
	}
	return s.store.Save(ctx)
}

// SaveFile writes the Graph Document to disk. Pendencies do not block
// local files.
func (s *Session) SaveFile(path string) error {
	return document.WriteGraphFile(s.Graph(), path)
}

// =============================================================================
// Export
// =============================================================================

// Export is the result of [Session.Export].
type Export struct {
	Data    []byte
	Format  printlayout.Format
	Surface *printlayout.Surface // nil when served from cache
	Cached  bool
}

// Header returns the print header built from the algorithm record.
func (s *Session) Header() printlayout.Header {
	alg := s.store.Algorithm()
	updated := s.store.LastUpdate()
	if updated.IsZero() {
		updated = alg.UpdatedAt
	}
	return printlayout.Header{
		Title:       alg.Title,
		Description: alg.Description,
		Author:      alg.Author,
		UpdatedAt:   updated,
		Logo:        s.logo,
	}
}

// Export renders the print layout of the current graph. The live graph is
// never modified. Artifacts are cached by document content, header and
// format.
func (s *Session) Export(ctx context.Context, f printlayout.Format, r printlayout.Rasterizer) (Export, error) {
	start := time.Now()
	out, err := s.export(ctx, f, r)
	observability.Editor().OnExport(ctx, string(f), out.Cached, time.Since(start), err)
	if err != nil {
		return Export{}, err
	}
	s.logger.Debug("exported",
		"format", f,
		"bytes", len(out.Data),
		"cached", out.Cached,
		"duration", time.Since(start).Round(time.Millisecond))
	return out, nil
}

func (s *Session) export(ctx context.Context, f printlayout.Format, r printlayout.Rasterizer) (Export, error) {
	data, err := s.store.Serialize()
	if err != nil {
		return Export{}, err
	}
	header := s.Header()
	key := s.keyer.ArtifactKey(cache.ContentHash(data), cache.ArtifactKeyOpts{
		Format:      string(f),
		Title:       header.Title,
		Description: header.Description,
		Byline:      header.Byline(),
		Logo:        header.Logo,
		FooterText:  s.footer.Text,
		FooterLogo:  s.footer.Logo,
	})
	if hit, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return Export{Data: hit, Format: f, Cached: true}, nil
	}

	t := printlayout.New(printlayout.WithHeader(header), printlayout.WithFooter(s.footer))
	artifact, surface, err := t.Export(ctx, s.Graph(), r, f)
	if err != nil {
		return Export{}, fmt.Errorf("export %s: %w", f, err)
	}
	if err := s.cache.Set(ctx, key, artifact, cache.TTLArtifact); err != nil {
		s.logger.Warn("cache export", "err", err)
	}
	return Export{Data: artifact, Format: f, Surface: surface}, nil
}
