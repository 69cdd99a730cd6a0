package sheet

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/carepath/pkg/flow"
	"github.com/matzehuels/carepath/pkg/printlayout"
)

// Option configures SVG rendering.
type Option func(*renderer)

type renderer struct {
	font       string
	showHidden bool
	links      bool
}

// WithFont sets the font family used for all text.
func WithFont(family string) Option { return func(r *renderer) { r.font = family } }

// WithHidden draws hidden nodes (collapsed recommendation lists) too.
func WithHidden() Option { return func(r *renderer) { r.showHidden = true } }

// WithLinks makes reference URLs in recommendation lists clickable.
func WithLinks() Option { return func(r *renderer) { r.links = true } }

// liveMargin is the padding around a live graph rendered without a print layout.
const liveMargin = 20.0

// RenderSVG draws a print surface.
func RenderSVG(s *printlayout.Surface, opts ...Option) []byte {
	return render(s.Graph, s.Width, s.Height, opts...)
}

// RenderGraph draws a live graph on a canvas fitted to its content. Nothing
// is transformed: togglers and badges are drawn as they are.
func RenderGraph(g *flow.Graph, opts ...Option) []byte {
	w, h := g.Bounds(func(n *flow.Node) bool { return n.Type != flow.TypeLane })
	_, lanes := g.Bounds(nil)
	return render(g, w+liveMargin, max(h, lanes)+liveMargin, opts...)
}

func render(g *flow.Graph, width, height float64, opts ...Option) []byte {
	r := renderer{font: defaultFont}
	for _, opt := range opts {
		opt(&r)
	}

	labelled := make(map[string]bool)
	for _, n := range g.NodesOfType(flow.TypePrintLabel, flow.TypeLaneLabel) {
		labelled[n.Owner] = true
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, `  <rect width="%.1f" height="%.1f" fill="%s"/>`+"\n", width, height, colorPage)
	renderDefs(&buf)

	// Lanes go first so they stay behind everything else.
	for _, n := range g.NodesOfType(flow.TypeLane) {
		r.renderNode(&buf, g, n, width, labelled[n.ID])
	}
	for _, l := range g.Links() {
		renderLink(&buf, g, l)
	}
	for _, n := range g.Nodes() {
		if n.Type == flow.TypeLane {
			continue
		}
		if n.Hidden && !r.showHidden {
			continue
		}
		r.renderNode(&buf, g, n, width, labelled[n.ID])
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer) {
	buf.WriteString("  <defs>\n")
	fmt.Fprintf(buf, `    <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse"><path d="M0,0 L10,5 L0,10 z" fill="%s"/></marker>`+"\n", colorStroke)
	buf.WriteString("  </defs>\n")
}

func (r *renderer) renderNode(buf *bytes.Buffer, g *flow.Graph, n *flow.Node, width float64, labelled bool) {
	x, y, w, h := n.Position.X, n.Position.Y, n.Size.Width, n.Size.Height
	fmt.Fprintf(buf, `  <g id="%s" class="%s">`+"\n", EscapeXML(n.ID), n.Type)

	switch n.Type {
	case flow.TypeStart:
		fmt.Fprintf(buf, `    <circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
			x+w/2, y+h/2, w/2, colorStart, colorStroke)
	case flow.TypeEnd:
		fmt.Fprintf(buf, `    <circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke="%s" stroke-width="4"/>`+"\n",
			x+w/2, y+h/2, w/2, colorEnd, colorStroke)
	case flow.TypeAction:
		fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
			x, y, w, h, colorAction, colorStroke)
		if !labelled {
			r.renderWrapped(buf, n.Label, x+w/2, y+h/2, w-20, fontBody, "middle")
		}
	case flow.TypeEvaluation:
		fmt.Fprintf(buf, `    <polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
			x+w/2, y, x+w, y+h/2, x+w/2, y+h, x, y+h/2, colorEvaluation, colorStroke)
		if !labelled {
			r.renderWrapped(buf, n.Label, x+w/2, y+h/2, w/2, fontBody, "middle")
		}
		r.renderPortLabels(buf, n)
	case flow.TypeLane:
		fmt.Fprintf(buf, `    <rect x="0" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n", y, width, h, colorLane)
		fmt.Fprintf(buf, `    <line x1="0" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2"/>`+"\n", y+h, width, y+h, colorLaneLine)
		if !labelled {
			r.renderText(buf, n.Label, x+16, y+h/2, fontLane, "start", "bold")
		}
	case flow.TypeRecommendation:
		r.renderRecommendation(buf, g, n)
	case flow.TypeRecommendationToggler:
		fmt.Fprintf(buf, `    <circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke="%s"/>`+"\n", x+w/2, y+h/2, w/2, colorPage, colorStroke)
		r.renderText(buf, toggleGlyph(g, n), x+w/2, y+h/2, fontBadge, "middle", "bold")
	case flow.TypeRecommendationTotal:
		fill := classColor(flow.Classification(n.Attrs["classification"]))
		fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="4" fill="%s"/>`+"\n", x, y, w, h, fill)
		r.renderText(buf, n.Label, x+w/2, y+h/2, fontBadge, "middle", "bold")
	case flow.TypePrintLabel:
		r.renderWrapped(buf, n.Label, x+w/2, y+h/2, w, fontBody, "middle")
	case flow.TypeLaneLabel:
		r.renderText(buf, n.Label, x, y+h/2, fontLane, "start", "bold")
	case flow.TypeHeader:
		r.renderHeader(buf, n)
	case flow.TypeFooter:
		r.renderFooter(buf, n)
	}

	buf.WriteString("  </g>\n")
}

func (r *renderer) renderPortLabels(buf *bytes.Buffer, n *flow.Node) {
	for _, p := range n.Ports {
		if p.Label == "" {
			continue
		}
		pt := portPoint(n, p.ID)
		dx := 8.0
		anchor := "start"
		if p.ID == portNo {
			dx, anchor = -8, "end"
		}
		r.renderText(buf, p.Label, pt.X+dx, pt.Y-8, fontBadge, anchor, "normal")
	}
}

func (r *renderer) renderRecommendation(buf *bytes.Buffer, g *flow.Graph, n *flow.Node) {
	x, y, w, h := n.Position.X, n.Position.Y, n.Size.Width, n.Size.Height
	owner, ok := g.Node(n.Owner)
	if !ok {
		return
	}
	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" fill="%s" stroke="%s"/>`+"\n",
		x, y, w, h, colorPage, colorLaneLine)

	line := y + recPadding + fontBody
	for _, b := range owner.Metadata {
		fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="6" height="%.1f" fill="%s"/>`+"\n",
			x+recPadding, line-fontBody, fontBody+4, classColor(b.Classification))
		r.renderText(buf, blockLine(b), x+recPadding+14, line, fontBody, "start", "normal")
		line += fontBody + recLineGap
		for _, ref := range b.Links {
			text := ref.URL
			if ref.Type != "" {
				text = ref.Type + ": " + ref.URL
			}
			if r.links {
				fmt.Fprintf(buf, `    <a xlink:href="%s" target="_blank">`+"\n", EscapeXML(ref.URL))
			}
			r.renderText(buf, Truncate(text, int((w-40)/(fontSmall*charWidth))), x+recPadding+28, line, fontSmall, "start", "normal")
			if r.links {
				buf.WriteString("    </a>\n")
			}
			line += fontSmall + recLineGap
		}
	}
}

func (r *renderer) renderHeader(buf *bytes.Buffer, n *flow.Node) {
	x, y, w := n.Position.X, n.Position.Y, n.Size.Width
	r.renderText(buf, n.Attrs["title"], x+printlayout.Margin, y+60, fontTitle, "start", "bold")
	r.renderText(buf, n.Attrs["description"], x+printlayout.Margin, y+100, fontBody, "start", "normal")
	r.renderText(buf, n.Attrs["byline"], x+printlayout.Margin, y+135, fontSmall, "start", "normal")
	if logo := n.Attrs["logo"]; logo != "" {
		fmt.Fprintf(buf, `    <image x="%.1f" y="%.1f" width="270" height="120" xlink:href="%s"/>`+"\n", x+w-320, y+30, EscapeXML(logo))
	}
	fmt.Fprintf(buf, `    <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2"/>`+"\n",
		x+printlayout.Margin, y+n.Size.Height-10, x+w-printlayout.Margin, y+n.Size.Height-10, colorLaneLine)
}

func (r *renderer) renderFooter(buf *bytes.Buffer, n *flow.Node) {
	x, y, w, h := n.Position.X, n.Position.Y, n.Size.Width, n.Size.Height
	fmt.Fprintf(buf, `    <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2"/>`+"\n",
		x+printlayout.Margin, y+30, x+w-printlayout.Margin, y+30, colorLaneLine)
	r.renderText(buf, n.Attrs["text"], x+printlayout.Margin, y+h/2, fontSmall, "start", "normal")
	if logo := n.Attrs["logo"]; logo != "" {
		fmt.Fprintf(buf, `    <image x="%.1f" y="%.1f" width="210" height="100" xlink:href="%s"/>`+"\n", x+w-260, y+60, EscapeXML(logo))
	}
}

func renderLink(buf *bytes.Buffer, g *flow.Graph, l *flow.Link) {
	src, ok := g.Node(l.Source.Node)
	if !ok || src.Hidden {
		return
	}
	dst, ok := g.Node(l.Target.Node)
	if !ok || dst.Hidden {
		return
	}
	pts := make([]string, 0, len(l.Vertices)+2)
	start := portPoint(src, l.Source.Port)
	pts = append(pts, fmt.Sprintf("%.1f,%.1f", start.X, start.Y))
	for _, v := range l.Vertices {
		pts = append(pts, fmt.Sprintf("%.1f,%.1f", v.X, v.Y))
	}
	end := portPoint(dst, l.Target.Port)
	pts = append(pts, fmt.Sprintf("%.1f,%.1f", end.X, end.Y))

	fmt.Fprintf(buf, `  <polyline id="%s" points="%s" fill="none" stroke="%s" stroke-width="2" marker-end="url(#arrow)"/>`+"\n",
		EscapeXML(l.ID), strings.Join(pts, " "), colorStroke)
}

// Evaluation branch ports.
const (
	portYes = "yes"
	portNo  = "no"
)

// portPoint returns where a link attaches to n. Inputs attach at the top
// centre and outputs at the bottom centre; evaluation branches leave from the
// side corners.
func portPoint(n *flow.Node, portID string) flow.Point {
	cx := n.Position.X + n.Size.Width/2
	switch portID {
	case portYes:
		return flow.Point{X: n.Right(), Y: n.Position.Y + n.Size.Height/2}
	case portNo:
		return flow.Point{X: n.Position.X, Y: n.Position.Y + n.Size.Height/2}
	}
	if p, ok := n.Port(portID); ok && p.Group == flow.PortGroupIn {
		return flow.Point{X: cx, Y: n.Position.Y}
	}
	if portID == "" {
		return flow.Point{X: cx, Y: n.Position.Y + n.Size.Height/2}
	}
	return flow.Point{X: cx, Y: n.Bottom()}
}

func toggleGlyph(g *flow.Graph, n *flow.Node) string {
	if rec, ok := g.Node(n.Target); ok && !rec.Hidden {
		return "-"
	}
	return "+"
}

// blockLine summarises a recommendation block on one line, for example
// "RF Give fluids (in favor, strong)".
func blockLine(b flow.Block) string {
	var qual []string
	switch b.Direction {
	case flow.DirectionInFavor:
		qual = append(qual, "in favor")
	case flow.DirectionAgainst:
		qual = append(qual, "against")
	}
	if s := b.EffectiveStrength(); s != "" {
		qual = append(qual, string(s))
	}
	line := strings.TrimSpace(b.Classification.Abbreviation() + " " + b.Intervention)
	if len(qual) > 0 {
		line += " (" + strings.Join(qual, ", ") + ")"
	}
	return line
}
