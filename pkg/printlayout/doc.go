// Package printlayout converts a live flowchart into a static, print-ready
// surface.
//
// [Transformer.Transform] works on a deep copy of the graph. It replaces
// editable text with static label nodes, makes every recommendation list
// permanently visible, moves the drawing down to make room for a header and
// sizes the page to the content:
//
//	width  = max right edge of non-lane content + Margin
//	height = max bottom edge of all content + Margin + FooterHeight
//
// Lanes are left out of the width because they always span the whole
// surface. The page is landscape when it is wider than tall.
//
// The resulting [Surface] is handed to a [Rasterizer] which produces the
// artifact. See package render for SVG, PDF and PNG rasterizers.
package printlayout
