package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/carepath/pkg/flow"
	"github.com/matzehuels/carepath/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed appends recommendation counts per classification to each
	// label, as in "2RF 1BP".
	Detailed bool
}

// ToDOT converts a flowchart to Graphviz DOT format. Only the clinical
// steps are kept: derived recommendation nodes and print furniture are
// dropped, and each lane becomes a cluster holding the steps whose vertical
// centre lies inside it.
func ToDOT(g *flow.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fillcolor=white, fontsize=18, fontname=\"Helvetica\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	lanes := g.NodesOfType(flow.TypeLane)
	steps := g.NodesOfType(flow.TypeStart, flow.TypeEnd, flow.TypeAction, flow.TypeEvaluation)
	placed := make(map[string]bool)

	for i, lane := range lanes {
		var members []*flow.Node
		for _, n := range steps {
			if !placed[n.ID] && inLane(lane, n) {
				members = append(members, n)
				placed[n.ID] = true
			}
		}
		if len(members) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", lane.Label)
		buf.WriteString("    style=filled; color=\"#f6f6f6\";\n")
		for _, n := range members {
			fmt.Fprintf(&buf, "    %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, fmtLabel(n, opts.Detailed)), ", "))
		}
		buf.WriteString("  }\n")
	}
	for _, n := range steps {
		if placed[n.ID] {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, fmtLabel(n, opts.Detailed)), ", "))
	}

	buf.WriteString("\n")
	for _, l := range g.Links() {
		src, ok := g.Node(l.Source.Node)
		if !ok || !isStep(src) {
			continue
		}
		if dst, ok := g.Node(l.Target.Node); !ok || !isStep(dst) {
			continue
		}
		if p, ok := src.Port(l.Source.Port); ok && p.Label != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", l.Source.Node, l.Target.Node, p.Label)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", l.Source.Node, l.Target.Node)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func isStep(n *flow.Node) bool {
	switch n.Type {
	case flow.TypeStart, flow.TypeEnd, flow.TypeAction, flow.TypeEvaluation:
		return true
	}
	return false
}

func inLane(lane, n *flow.Node) bool {
	cy := n.Position.Y + n.Size.Height/2
	return cy >= lane.Position.Y && cy < lane.Bottom()
}

func fmtLabel(n *flow.Node, detailed bool) string {
	label := n.Label
	if label == "" {
		label = n.ID
	}
	if !detailed || len(n.Metadata) == 0 {
		return label
	}

	counts := make(map[flow.Classification]int)
	for _, b := range n.Metadata {
		counts[b.Classification]++
	}
	var parts []string
	for _, c := range flow.Classifications {
		if counts[c] > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", counts[c], c.Abbreviation()))
		}
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, " ")
}

func fmtAttrs(n *flow.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Type {
	case flow.TypeStart:
		attrs = append(attrs, "shape=circle", "fillcolor=\"#d7f5dd\"")
	case flow.TypeEnd:
		attrs = append(attrs, "shape=doublecircle", "fillcolor=\"#333333\"", "fontcolor=white")
	case flow.TypeAction:
		attrs = append(attrs, "shape=box", "style=\"rounded,filled\"")
	case flow.TypeEvaluation:
		attrs = append(attrs, "shape=diamond", "fillcolor=\"#fff6db\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
