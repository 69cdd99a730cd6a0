package printlayout

import (
	"context"

	"github.com/matzehuels/carepath/pkg/element"
	"github.com/matzehuels/carepath/pkg/flow"
	"github.com/matzehuels/carepath/pkg/metadata"
)

// Layout constants of the printed page.
const (
	HeaderOffset = 200.0 // space reserved above the flowchart
	Margin       = 50.0
	HeaderHeight = 185.0
	FooterHeight = 200.0
)

// Furniture geometry.
var (
	PrintLabelSize   = flow.Size{Width: 170, Height: 94}
	PrintLabelOffset = flow.Point{X: 15, Y: 0}
	LaneLabelSize    = flow.Size{Width: 1000, Height: 94}
	LaneLabelOffset  = flow.Point{X: 16, Y: -32}
)

// Furniture node IDs.
const (
	HeaderID = "print:header"
	FooterID = "print:footer"
)

// Transformer re-flows a live flowchart into a printable [Surface].
type Transformer struct {
	header Header
	footer Footer
}

// Option configures a [Transformer].
type Option func(*Transformer)

// WithHeader sets the header text and logo.
func WithHeader(h Header) Option { return func(t *Transformer) { t.header = h } }

// WithFooter sets the footer attribution and logo.
func WithFooter(f Footer) Option { return func(t *Transformer) { t.footer = f } }

// New creates a transformer.
func New(opts ...Option) *Transformer {
	t := &Transformer{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform builds the print layout of g. g itself is never modified; all
// edits happen on a deep copy:
//
//  1. editable text becomes static PrintLabel and LaneLabel nodes
//  2. togglers are removed and every owner with blocks gets a visible
//     recommendation list
//  3. everything moves down by [HeaderOffset]
//  4. the content box is measured (lanes and furniture excluded from width)
//  5. header and footer are inserted at the computed width
func (t *Transformer) Transform(g *flow.Graph) *Surface {
	c := g.Clone()
	host := &snapshot{g: c}
	mgr := element.New(host, metadata.New(host))
	mgr.Reindex()

	for _, a := range mgr.Affordances() {
		c.AddNode(staticLabel(a))
	}

	mgr.CreateRecommendations()
	mgr.RemoveTogglers()
	for _, rec := range c.NodesOfType(flow.TypeRecommendation) {
		rec.Hidden = false
	}

	element.MoveSubgraphDown(c, HeaderOffset)

	w, h := ContentBox(c)
	width := w + Margin
	height := h + Margin + FooterHeight

	c.AddNode(flow.Node{
		ID:       HeaderID,
		Type:     flow.TypeHeader,
		Position: flow.Point{},
		Size:     flow.Size{Width: width, Height: HeaderHeight},
		Label:    t.header.Title,
		Attrs: map[string]string{
			"title":       t.header.Title,
			"description": t.header.Description,
			"byline":      t.header.Byline(),
			"logo":        t.header.Logo,
		},
	})
	c.AddNode(flow.Node{
		ID:       FooterID,
		Type:     flow.TypeFooter,
		Position: flow.Point{X: 0, Y: height - FooterHeight},
		Size:     flow.Size{Width: width, Height: FooterHeight},
		Label:    t.footer.Text,
		Attrs: map[string]string{
			"text": t.footer.Text,
			"logo": t.footer.Logo,
		},
	})

	orientation := Portrait
	if width > height {
		orientation = Landscape
	}
	return &Surface{
		Graph:       c,
		Width:       width,
		Height:      height,
		Orientation: orientation,
		Header:      t.header,
		Footer:      t.footer,
	}
}

// Export transforms g and hands the surface to r.
func (t *Transformer) Export(ctx context.Context, g *flow.Graph, r Rasterizer, f Format) ([]byte, *Surface, error) {
	s := t.Transform(g)
	data, err := r.Rasterize(ctx, s, f)
	if err != nil {
		return nil, s, err
	}
	return data, s, nil
}

// ContentBox returns the tight content extent of g without margins.
//
// Width is the largest right edge over nodes that are neither lanes nor
// print furniture; lanes span the whole surface by definition. Height is the
// largest bottom edge over all nodes. An empty graph yields (0, 0).
func ContentBox(g *flow.Graph) (width, height float64) {
	width, _ = g.Bounds(func(n *flow.Node) bool {
		return n.Type != flow.TypeLane && !n.Type.Furniture()
	})
	_, height = g.Bounds(nil)
	return width, height
}

func staticLabel(a element.Affordance) flow.Node {
	n := flow.Node{
		ID:    a.NodeID + ":label",
		Label: a.Text,
		Owner: a.NodeID,
	}
	switch a.Kind {
	case element.TextArea:
		n.Type = flow.TypePrintLabel
		n.Size = PrintLabelSize
		n.Position = flow.Point{X: a.Position.X + PrintLabelOffset.X, Y: a.Position.Y + PrintLabelOffset.Y}
	case element.Input:
		n.Type = flow.TypeLaneLabel
		n.Size = LaneLabelSize
		n.Position = flow.Point{X: a.Position.X + LaneLabelOffset.X, Y: a.Position.Y + LaneLabelOffset.Y}
	}
	return n
}

// snapshot hosts the working copy. Dirty marks are meaningless on a copy.
type snapshot struct{ g *flow.Graph }

func (s *snapshot) Graph() *flow.Graph { return s.g }
func (s *snapshot) MarkDirty()         {}
