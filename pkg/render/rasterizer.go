package render

import (
	"context"
	"encoding/json"

	cperrors "github.com/matzehuels/carepath/pkg/errors"
	"github.com/matzehuels/carepath/pkg/printlayout"
	"github.com/matzehuels/carepath/pkg/render/sheet"
)

// Rasterizer produces export artifacts from print surfaces. SVG and JSON are
// rendered in process; PDF and PNG go through rsvg-convert.
type Rasterizer struct {
	// Scale is the PNG resolution factor. Zero means 2.
	Scale float64
	// Options are passed to the SVG renderer.
	Options []sheet.Option
}

// Rasterize implements [printlayout.Rasterizer].
func (r Rasterizer) Rasterize(ctx context.Context, s *printlayout.Surface, f printlayout.Format) ([]byte, error) {
	switch f {
	case printlayout.FormatJSON:
		return json.MarshalIndent(s.Layout(), "", "  ")
	case printlayout.FormatSVG:
		return sheet.RenderSVG(s, r.Options...), nil
	case printlayout.FormatPDF:
		return ToPDF(ctx, sheet.RenderSVG(s, r.Options...))
	case printlayout.FormatPNG:
		scale := r.Scale
		if scale == 0 {
			scale = 2
		}
		return ToPNG(ctx, sheet.RenderSVG(s, r.Options...), scale)
	}
	return nil, cperrors.New(cperrors.ErrCodeUnsupported, "format %q not supported", f)
}
