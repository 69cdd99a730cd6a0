package printlayout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/carepath/pkg/document"
	cperrors "github.com/matzehuels/carepath/pkg/errors"
	"github.com/matzehuels/carepath/pkg/flow"
)

// Orientation of the printed page.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Format is an export artifact format.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
	FormatJSON Format = "json"
)

// Formats lists every supported export format.
var Formats = []Format{FormatSVG, FormatPDF, FormatPNG, FormatJSON}

// ParseFormat validates a format name (case-insensitive).
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatSVG, FormatPDF, FormatPNG, FormatJSON:
		return f, nil
	}
	return "", cperrors.New(cperrors.ErrCodeInvalidFormat, "unsupported format %q (want svg, pdf, png or json)", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// Header carries the text printed above the flowchart.
type Header struct {
	Title       string
	Description string
	Author      string
	UpdatedAt   time.Time
	Logo        string // path or URL of an image, optional
}

// Byline renders "Author: <a> - Last update: <dd/mm/yyyy>".
func (h Header) Byline() string {
	date := "-"
	if !h.UpdatedAt.IsZero() {
		date = h.UpdatedAt.Format("02/01/2006")
	}
	return fmt.Sprintf("Author: %s - Last update: %s", h.Author, date)
}

// Footer carries the attribution printed under the flowchart.
type Footer struct {
	Text string
	Logo string
}

// Surface is a print-ready, non-interactive layout: the transformed graph and
// the page it must be drawn on.
type Surface struct {
	Graph       *flow.Graph
	Width       float64
	Height      float64
	Orientation Orientation
	Header      Header
	Footer      Footer
}

// Rasterizer turns a surface into a document artifact.
type Rasterizer interface {
	Rasterize(ctx context.Context, s *Surface, f Format) ([]byte, error)
}

// RasterizerFunc adapts a function to [Rasterizer].
type RasterizerFunc func(ctx context.Context, s *Surface, f Format) ([]byte, error)

// Rasterize calls fn.
func (fn RasterizerFunc) Rasterize(ctx context.Context, s *Surface, f Format) ([]byte, error) {
	return fn(ctx, s, f)
}

// Layout is the JSON form of a surface.
type Layout struct {
	Width       float64        `json:"width" bson:"width"`
	Height      float64        `json:"height" bson:"height"`
	Orientation Orientation    `json:"orientation" bson:"orientation"`
	Graph       document.Graph `json:"graph" bson:"graph"`
}

// Layout returns the serializable form of the surface.
func (s *Surface) Layout() Layout {
	return Layout{
		Width:       s.Width,
		Height:      s.Height,
		Orientation: s.Orientation,
		Graph:       document.FromFlow(s.Graph),
	}
}

// MarshalJSON encodes the surface as its [Layout].
func (s *Surface) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Layout())
}
