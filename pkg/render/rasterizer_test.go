package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	cperrors "github.com/matzehuels/carepath/pkg/errors"
	"github.com/matzehuels/carepath/pkg/flow"
	"github.com/matzehuels/carepath/pkg/printlayout"
)

func surface(t *testing.T) *printlayout.Surface {
	t.Helper()
	g := flow.New()
	if _, err := g.AddNode(flow.Node{ID: "a", Type: flow.TypeAction, Position: flow.Point{X: 100, Y: 100}, Size: flow.Size{Width: 200, Height: 100}, Label: "Act"}); err != nil {
		t.Fatal(err)
	}
	return printlayout.New().Transform(g)
}

func TestRasterizeSVG(t *testing.T) {
	data, err := Rasterizer{}.Rasterize(context.Background(), surface(t), printlayout.FormatSVG)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "<svg") {
		t.Errorf("not svg: %.40s", data)
	}
}

func TestRasterizeJSON(t *testing.T) {
	s := surface(t)
	data, err := Rasterizer{}.Rasterize(context.Background(), s, printlayout.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	var l printlayout.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		t.Fatal(err)
	}
	if l.Width != s.Width || l.Height != s.Height || l.Orientation != s.Orientation {
		t.Errorf("layout = %+v", l)
	}
}

func TestRasterizeUnsupported(t *testing.T) {
	_, err := Rasterizer{}.Rasterize(context.Background(), surface(t), printlayout.Format("docx"))
	if !cperrors.Is(err, cperrors.ErrCodeUnsupported) {
		t.Errorf("err = %v", err)
	}
}

func TestRasterizePDF(t *testing.T) {
	if !Available() {
		t.Skip("rsvg-convert not installed")
	}
	data, err := Rasterizer{}.Rasterize(context.Background(), surface(t), printlayout.FormatPDF)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("not a pdf: %.8q", data)
	}
}
