package element

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/carepath/pkg/flow"
	"github.com/matzehuels/carepath/pkg/metadata"
)

type testHost struct {
	g     *flow.Graph
	dirty int
}

func (h *testHost) Graph() *flow.Graph { return h.g }
func (h *testHost) MarkDirty()         { h.dirty++ }

func newManager(t *testing.T) (*Manager, *metadata.Store, *testHost) {
	t.Helper()
	h := &testHost{g: flow.New()}
	meta := metadata.New(h)
	seq := 0
	m := New(h, meta, WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("n%d", seq)
	}))
	return m, meta, h
}

func mustCreate(t *testing.T, m *Manager, typ flow.NodeType, x, y float64) *flow.Node {
	t.Helper()
	n, err := m.Create(typ, flow.Point{X: x, Y: y})
	if err != nil {
		t.Fatalf("Create(%s): %v", typ, err)
	}
	return n
}

func TestCreateDefaults(t *testing.T) {
	m, _, h := newManager(t)
	tests := []struct {
		typ       flow.NodeType
		size      flow.Size
		ports     []string
		hasAfford bool
	}{
		{flow.TypeStart, TerminalSize, []string{"out"}, false},
		{flow.TypeEnd, TerminalSize, []string{"in"}, false},
		{flow.TypeAction, StepSize, []string{"in", "out"}, true},
		{flow.TypeEvaluation, StepSize, []string{"in", "yes", "no"}, true},
		{flow.TypeLane, flow.Size{Width: DefaultSurfaceWidth, Height: LaneHeight}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			n := mustCreate(t, m, tt.typ, 123, 57)
			if n.Size != tt.size {
				t.Errorf("Size = %+v, want %+v", n.Size, tt.size)
			}
			var ports []string
			for _, p := range n.Ports {
				ports = append(ports, p.ID)
			}
			if !slices.Equal(ports, tt.ports) {
				t.Errorf("ports = %v, want %v", ports, tt.ports)
			}
			wantX := 120.0
			if tt.typ == flow.TypeLane {
				wantX = 0
			}
			if n.Position != (flow.Point{X: wantX, Y: 50}) {
				t.Errorf("Position = %+v", n.Position)
			}
			if _, ok := m.Affordance(n.ID); ok != tt.hasAfford {
				t.Errorf("affordance present = %v, want %v", ok, tt.hasAfford)
			}
		})
	}
	if h.dirty != len(tests) {
		t.Errorf("dirty = %d, want %d", h.dirty, len(tests))
	}
}

func TestCreateEvaluationOutcomeLabels(t *testing.T) {
	m, _, _ := newManager(t)
	n := mustCreate(t, m, flow.TypeEvaluation, 0, 0)
	for _, id := range []string{"yes", "no"} {
		p, ok := n.Port(id)
		if !ok || p.Group != flow.PortGroupOut || p.Label == "" {
			t.Errorf("port %s = %+v, %v", id, p, ok)
		}
	}
}

func TestCreateRejectsDerivedTypes(t *testing.T) {
	m, _, h := newManager(t)
	for _, typ := range []flow.NodeType{flow.TypeRecommendation, flow.TypeRecommendationToggler,
		flow.TypeRecommendationTotal, flow.TypeHeader} {
		if _, err := m.Create(typ, flow.Point{}); !errors.Is(err, ErrNotCreatable) {
			t.Errorf("Create(%s) err = %v", typ, err)
		}
	}
	if h.g.NodeCount() != 0 || h.dirty != 0 {
		t.Errorf("rejected creates mutated graph")
	}
}

func TestWithSurfaceWidth(t *testing.T) {
	h := &testHost{g: flow.New()}
	m := New(h, metadata.New(h), WithSurfaceWidth(1500))
	n := mustCreate(t, m, flow.TypeLane, 30, 30)
	if n.Size.Width != 1500 {
		t.Errorf("lane width = %v", n.Size.Width)
	}
	if _, err := uuidLike(n.ID); err != nil {
		t.Errorf("default id %q: %v", n.ID, err)
	}
}

func uuidLike(id string) (string, error) {
	if len(id) != 36 || id[8] != '-' || id[13] != '-' {
		return "", fmt.Errorf("not a uuid")
	}
	return id, nil
}

func TestSelect(t *testing.T) {
	m, meta, _ := newManager(t)
	a := mustCreate(t, m, flow.TypeAction, 0, 0)
	b := mustCreate(t, m, flow.TypeAction, 300, 0)
	lane := mustCreate(t, m, flow.TypeLane, 0, 400)

	if !m.Select(a.ID) {
		t.Fatal("Select(a) = false")
	}
	meta.AddPendency(1, metadata.FieldStrength)
	m.Select(a.ID)
	if !meta.HasPendency() {
		t.Error("reselecting the same node cleared pendency")
	}
	m.Select(b.ID)
	if meta.HasPendency() {
		t.Error("switching selection kept pendency")
	}
	if sel, _ := m.Selected(); sel.ID != b.ID {
		t.Errorf("Selected = %s", sel.ID)
	}

	if m.Select("missing") {
		t.Error("Select(missing) = true")
	}
	if sel, _ := m.Selected(); sel.ID != b.ID {
		t.Error("Select(missing) changed selection")
	}

	lane.Position.X = 75
	m.Select(lane.ID)
	if lane.Position.X != 0 {
		t.Errorf("lane x = %v after select", lane.Position.X)
	}

	m.Deselect()
	if _, ok := m.Selected(); ok {
		t.Error("Selected after Deselect")
	}
}

func TestClone(t *testing.T) {
	m, meta, _ := newManager(t)
	a := mustCreate(t, m, flow.TypeAction, 100, 100)
	m.SetLabel(a.ID, "Give fluids")
	meta.Set(a.ID, 1, flow.Block{Intervention: "x", Classification: flow.ClassInformal,
		Links: []flow.Reference{{Index: 1, URL: "https://a.example"}}})

	c, ok := m.Clone(a.ID)
	if !ok {
		t.Fatal("Clone = false")
	}
	if c.ID == a.ID {
		t.Error("clone kept id")
	}
	if c.Label != "Clone - Give fluids" {
		t.Errorf("Label = %q", c.Label)
	}
	if c.Position != (flow.Point{X: 140, Y: 140}) {
		t.Errorf("Position = %+v", c.Position)
	}
	if len(m.Badges(c.ID)) != 0 {
		t.Error("clone has badges")
	}
	if sel, _ := m.Selected(); sel.ID != c.ID {
		t.Error("clone not selected")
	}
	aff, ok := m.Affordance(c.ID)
	if !ok || aff.Text != c.Label {
		t.Errorf("clone affordance = %+v, %v", aff, ok)
	}

	c.Metadata[0].Links[0].URL = "changed"
	orig, _ := meta.Block(a.ID, 1)
	if orig.Links[0].URL != "https://a.example" {
		t.Error("clone shares metadata with source")
	}

	if _, ok := m.Clone("missing"); ok {
		t.Error("Clone(missing) = true")
	}
	if _, ok := m.Clone(BadgeID(a.ID, flow.ClassInformal)); ok {
		t.Error("cloned a badge")
	}
}

func TestSetLabel(t *testing.T) {
	m, _, h := newManager(t)
	lane := mustCreate(t, m, flow.TypeLane, 0, 0)
	before := h.dirty
	if !m.SetLabel(lane.ID, "Triage") {
		t.Fatal("SetLabel = false")
	}
	if lane.Label != "Triage" {
		t.Errorf("Label = %q", lane.Label)
	}
	if a, _ := m.Affordance(lane.ID); a.Text != "Triage" || a.Kind != Input {
		t.Errorf("affordance = %+v", a)
	}
	if h.dirty != before+1 {
		t.Error("SetLabel did not mark dirty")
	}
	if m.SetLabel("missing", "x") {
		t.Error("SetLabel(missing) = true")
	}
}

func TestRemoveCascades(t *testing.T) {
	m, meta, h := newManager(t)
	s := mustCreate(t, m, flow.TypeStart, 0, 0)
	a := mustCreate(t, m, flow.TypeAction, 100, 0)
	other := mustCreate(t, m, flow.TypeAction, 500, 0)
	h.g.AddLink(flow.Link{ID: "l1", Source: flow.Endpoint{Node: s.ID, Port: "out"}, Target: flow.Endpoint{Node: a.ID, Port: "in"}})

	meta.Set(a.ID, 1, flow.Block{Intervention: "x", Classification: flow.ClassFormal})
	meta.Set(a.ID, 2, flow.Block{Intervention: "y", Classification: flow.ClassInformal})
	meta.Set(other.ID, 1, flow.Block{Intervention: "z", Classification: flow.ClassInformal})
	m.CreateRecommendations()
	m.Select(a.ID)

	if !m.Remove(a.ID) {
		t.Fatal("Remove = false")
	}
	for _, n := range h.g.Nodes() {
		if n.Owner == a.ID || n.Target == RecommendationID(a.ID) {
			t.Errorf("dangling derived node %s (%s)", n.ID, n.Type)
		}
	}
	if h.g.LinkCount() != 0 {
		t.Error("attached link survived")
	}
	if _, ok := m.Affordance(a.ID); ok {
		t.Error("affordance survived")
	}
	if _, ok := m.Selected(); ok {
		t.Error("selection survived")
	}
	if _, ok := m.Recommendation(a.ID); ok {
		t.Error("recommendation map entry survived")
	}
	if _, ok := m.Toggler(a.ID); ok {
		t.Error("toggler map entry survived")
	}

	if len(m.Badges(other.ID)) != 1 {
		t.Error("cascade removed another owner's badges")
	}
	if _, ok := m.Toggler(other.ID); !ok {
		t.Error("cascade removed another owner's toggler")
	}

	if m.Remove(a.ID) {
		t.Error("second Remove = true")
	}
}

func TestRemoveDerivedPair(t *testing.T) {
	tests := []struct {
		name   string
		target func(owner string) string
	}{
		{"toggler", TogglerID},
		{"recommendation", RecommendationID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, meta, h := newManager(t)
			a := mustCreate(t, m, flow.TypeAction, 100, 0)
			meta.Set(a.ID, 1, flow.Block{Intervention: "x", Classification: flow.ClassInformal})
			m.CreateRecommendations()

			if !m.Remove(tt.target(a.ID)) {
				t.Fatal("Remove = false")
			}
			if _, ok := m.Recommendation(a.ID); ok {
				t.Error("recommendation survived")
			}
			if _, ok := m.Toggler(a.ID); ok {
				t.Error("toggler survived")
			}
			for _, id := range []string{TogglerID(a.ID), RecommendationID(a.ID)} {
				if _, ok := h.g.Node(id); ok {
					t.Errorf("node %s still in graph", id)
				}
			}
			if _, ok := h.g.Node(a.ID); !ok || len(m.Badges(a.ID)) != 1 {
				t.Error("owner or its badges removed")
			}
		})
	}
}

func TestMoveSubgraphDown(t *testing.T) {
	m, _, h := newManager(t)
	a := mustCreate(t, m, flow.TypeAction, 100, 100)
	e := mustCreate(t, m, flow.TypeEnd, 400, 300)
	h.g.AddLink(flow.Link{ID: "l", Source: flow.Endpoint{Node: a.ID}, Target: flow.Endpoint{Node: e.ID},
		Vertices: []flow.Point{{X: 350, Y: 150}, {X: 350, Y: 320}}})

	m.MoveSubgraphDown(200)

	if a.Position != (flow.Point{X: 100, Y: 300}) || e.Position != (flow.Point{X: 400, Y: 500}) {
		t.Errorf("positions = %+v, %+v", a.Position, e.Position)
	}
	l, _ := h.g.Link("l")
	want := []flow.Point{{X: 350, Y: 350}, {X: 350, Y: 520}}
	if !reflect.DeepEqual(l.Vertices, want) {
		t.Errorf("vertices = %+v, want %+v", l.Vertices, want)
	}
	if aff, _ := m.Affordance(a.ID); aff.Position.Y != 300 {
		t.Errorf("affordance y = %v", aff.Position.Y)
	}
}

func TestSelectPinsLoadedLane(t *testing.T) {
	h := &testHost{g: flow.New()}
	h.g.AddNode(flow.Node{ID: "lane", Type: flow.TypeLane, Label: "ER",
		Position: flow.Point{X: 70, Y: 400}, Size: flow.Size{Width: DefaultSurfaceWidth, Height: LaneHeight}})
	m := New(h, metadata.New(h))
	m.Reindex()
	h.dirty = 0

	if !m.Select("lane") {
		t.Fatal("Select = false")
	}
	n, _ := h.g.Node("lane")
	aff, ok := m.Affordance("lane")
	if !ok {
		t.Fatal("lane has no affordance")
	}
	if n.Position.X != 0 || aff.Position != n.Position {
		t.Errorf("node at %+v, affordance at %+v", n.Position, aff.Position)
	}
	if h.dirty == 0 {
		t.Error("pinning did not mark dirty")
	}
}

func TestReindex(t *testing.T) {
	h := &testHost{g: flow.New()}
	g := h.g
	g.AddNode(flow.Node{ID: "a", Type: flow.TypeAction, Label: "Act",
		Metadata: []flow.Block{{Index: 1, Intervention: "x", Classification: flow.ClassFormal}}})
	g.AddNode(flow.Node{ID: "lane", Type: flow.TypeLane, Label: "Lane"})
	g.AddNode(flow.Node{ID: BadgeID("a", flow.ClassFormal), Type: flow.TypeRecommendationTotal, Owner: "a"})
	g.AddNode(flow.Node{ID: RecommendationID("a"), Type: flow.TypeRecommendation, Owner: "a", Hidden: true})
	g.AddNode(flow.Node{ID: TogglerID("a"), Type: flow.TypeRecommendationToggler, Owner: "a", Target: RecommendationID("a")})
	g.AddNode(flow.Node{ID: "ghost:total:formal", Type: flow.TypeRecommendationTotal, Owner: "ghost"})
	g.AddNode(flow.Node{ID: "stray", Type: flow.TypeRecommendationToggler, Owner: "a", Target: "nowhere"})

	m := New(h, metadata.New(h))
	m.Reindex()

	if _, ok := g.Node("ghost:total:formal"); ok {
		t.Error("orphan badge kept")
	}
	if _, ok := g.Node("stray"); ok {
		t.Error("toggler without target kept")
	}
	if len(m.Badges("a")) != 1 {
		t.Errorf("badges = %d", len(m.Badges("a")))
	}
	if tog, ok := m.Toggler("a"); !ok || tog.ID != TogglerID("a") {
		t.Errorf("toggler = %v, %v", tog, ok)
	}
	if _, ok := m.Recommendation("a"); !ok {
		t.Error("recommendation not indexed")
	}
	if aff, ok := m.Affordance("a"); !ok || aff.Text != "Act" || aff.Kind != TextArea {
		t.Errorf("affordance a = %+v, %v", aff, ok)
	}
	if got := len(m.Affordances()); got != 2 {
		t.Errorf("Affordances = %d, want 2", got)
	}
}
