// Package render turns flowcharts into pictures.
//
// # Overview
//
// This package holds the generic format conversion and the [Rasterizer] that
// backs exports:
//
//   - Print sheets (in [sheet] subpackage): the flowchart as drawn on paper
//   - Node-link overviews (in [nodelink] subpackage): Graphviz-laid-out graphs
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg := sheet.RenderSVG(surface)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// # Exports
//
// [Rasterizer] implements [printlayout.Rasterizer] for every export format:
//
//	data, surface, err := printlayout.New().Export(ctx, g, render.Rasterizer{}, printlayout.FormatPDF)
//
// [sheet]: github.com/matzehuels/carepath/pkg/render/sheet
// [nodelink]: github.com/matzehuels/carepath/pkg/render/nodelink
package render
