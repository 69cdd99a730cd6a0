package sheet

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/carepath/pkg/flow"
	"github.com/matzehuels/carepath/pkg/printlayout"
)

func sampleGraph(t *testing.T) *flow.Graph {
	t.Helper()
	g := flow.New()
	nodes := []flow.Node{
		{ID: "s", Type: flow.TypeStart, Position: flow.Point{X: 180, Y: 0}, Size: flow.Size{Width: 40, Height: 40},
			Ports: []flow.Port{{ID: "out", Group: flow.PortGroupOut}}},
		{ID: "a", Type: flow.TypeAction, Position: flow.Point{X: 100, Y: 100}, Size: flow.Size{Width: 200, Height: 100},
			Label: "Give fluids & review",
			Ports: []flow.Port{{ID: "in", Group: flow.PortGroupIn}, {ID: "out", Group: flow.PortGroupOut}},
			Metadata: []flow.Block{{
				Index: 1, Intervention: "Crystalloids", Classification: flow.ClassFormal,
				Direction: flow.DirectionInFavor, Strength: flow.StrengthStrong,
				Links: []flow.Reference{{Index: 1, URL: "https://example.org/ref", Type: "guideline"}},
			}}},
	}
	for _, n := range nodes {
		if _, err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := g.AddLink(flow.Link{
		ID:     "l1",
		Source: flow.Endpoint{Node: "s", Port: "out"},
		Target: flow.Endpoint{Node: "a", Port: "in"},
	}); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestRenderSVG(t *testing.T) {
	s := printlayout.New(printlayout.WithHeader(printlayout.Header{Title: "Sepsis", Logo: "logo.png"})).
		Transform(sampleGraph(t))
	svg := string(RenderSVG(s, WithLinks()))

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatal("not an svg document")
	}
	for _, want := range []string{
		`width="750"`,
		">Sepsis<",
		"RF Crystalloids (in favor, strong)",
		`xlink:href="https://example.org/ref"`,
		`xlink:href="logo.png"`,
		`marker-end="url(#arrow)"`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	// The action's text is drawn once, by its print label.
	if n := strings.Count(svg, "Give fluids &amp;"); n != 1 {
		t.Errorf("action label drawn %d times", n)
	}
	if strings.Contains(svg, `class="RecommendationTogglerElement"`) {
		t.Error("print surface contains a toggler")
	}
}

func TestRenderGraphSkipsHidden(t *testing.T) {
	g := sampleGraph(t)
	if _, err := g.AddNode(flow.Node{
		ID: "a:recommendations", Type: flow.TypeRecommendation, Owner: "a", Hidden: true,
		Position: flow.Point{X: 100, Y: 206}, Size: flow.Size{Width: 600, Height: 175},
	}); err != nil {
		t.Fatal(err)
	}

	svg := string(RenderGraph(g))
	if strings.Contains(svg, "Crystalloids") {
		t.Error("hidden recommendation list drawn")
	}
	if !strings.Contains(svg, "Give fluids") {
		t.Error("live action label missing")
	}

	svg = string(RenderGraph(g, WithHidden()))
	if !strings.Contains(svg, "Crystalloids") {
		t.Error("WithHidden did not draw the list")
	}
}

func TestBlockLine(t *testing.T) {
	tests := []struct {
		name string
		b    flow.Block
		want string
	}{
		{"formal", flow.Block{Intervention: "X", Classification: flow.ClassFormal, Direction: flow.DirectionAgainst, Strength: flow.StrengthConditional}, "RF X (against, conditional)"},
		{"informal ignores strength", flow.Block{Intervention: "Y", Classification: flow.ClassInformal, Strength: flow.StrengthStrong}, "RI Y"},
		{"pending", flow.Block{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := blockLine(tt.b); got != tt.want {
				t.Errorf("blockLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want []string
	}{
		{"", 10, nil},
		{"short", 10, []string{"short"}},
		{"give fluids now", 11, []string{"give fluids", "now"}},
		{"supercalifragilistic", 8, []string{"superc.."}},
	}
	for _, tt := range tests {
		if got := Wrap(tt.in, tt.max); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Wrap(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestEscapeXML(t *testing.T) {
	if got := EscapeXML(`<a & "b">`); got != "&lt;a &amp; &#34;b&#34;&gt;" {
		t.Errorf("EscapeXML = %q", got)
	}
}
