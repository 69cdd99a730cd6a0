// Package nodelink renders flowcharts as Graphviz node-link overviews.
//
// Unlike the print sheet, which keeps every position the author chose, a
// node-link overview lets Graphviz lay the clinical steps out again. It is
// meant for quick inspection of large pathways.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Lanes become clusters. Evaluation branches keep their "Yes"/"No" port
// labels as edge labels.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
