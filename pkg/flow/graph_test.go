package flow

import (
	"encoding/json"
	"errors"
	"testing"
)

func buildSample(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, n := range []Node{
		{ID: "s", Type: TypeStart, Size: Size{40, 40}},
		{ID: "a", Type: TypeAction, Position: Point{100, 50}, Size: Size{200, 100},
			Metadata: []Block{{Index: 1, Intervention: "x", Classification: ClassFormal,
				Links: []Reference{{Index: 1, URL: "https://a.example"}}}}},
		{ID: "e", Type: TypeEnd, Position: Point{400, 300}, Size: Size{40, 40}},
	} {
		if _, err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	if _, err := g.AddLink(Link{ID: "l1", Source: Endpoint{"s", "out"}, Target: Endpoint{"a", "in"}}); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if _, err := g.AddLink(Link{ID: "l2", Source: Endpoint{"a", "out"}, Target: Endpoint{"e", "in"},
		Vertices: []Point{{300, 200}}}); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	return g
}

func TestAddNode(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []Node
		wantErr error
	}{
		{"Valid", []Node{{ID: "a", Type: TypeAction}}, nil},
		{"EmptyID", []Node{{ID: "", Type: TypeAction}}, ErrInvalidNodeID},
		{"Duplicate", []Node{{ID: "a"}, {ID: "a"}}, ErrDuplicateNodeID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			var err error
			for _, n := range tt.nodes {
				if _, err = g.AddNode(n); err != nil {
					break
				}
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddLinkUnknownEndpoints(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})

	if _, err := g.AddLink(Link{ID: "l", Source: Endpoint{Node: "x"}, Target: Endpoint{Node: "a"}}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("source err = %v", err)
	}
	if _, err := g.AddLink(Link{ID: "l", Source: Endpoint{Node: "a"}, Target: Endpoint{Node: "x"}}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("target err = %v", err)
	}
	if _, err := g.AddLink(Link{Source: Endpoint{Node: "a"}, Target: Endpoint{Node: "a"}}); !errors.Is(err, ErrInvalidLinkID) {
		t.Errorf("empty id err = %v", err)
	}
}

func TestNodesPreserveInsertionOrder(t *testing.T) {
	g := buildSample(t)
	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	want := []string{"s", "a", "e"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestRemoveNodeDropsAttachedLinks(t *testing.T) {
	g := buildSample(t)
	if !g.RemoveNode("a") {
		t.Fatal("RemoveNode(a) = false")
	}
	if g.LinkCount() != 0 {
		t.Errorf("LinkCount = %d, want 0", g.LinkCount())
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount = %d, want 2", g.NodeCount())
	}
	if g.RemoveNode("a") {
		t.Error("second RemoveNode(a) = true, want no-op")
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := buildSample(t)
	c := g.Clone()

	n, _ := c.Node("a")
	n.Position.Y = 999
	n.Metadata[0].Intervention = "changed"
	n.Metadata[0].Links[0].URL = "changed"
	l, _ := c.Link("l2")
	l.Vertices[0].Y = 999
	c.RemoveNode("e")

	orig, _ := g.Node("a")
	if orig.Position.Y != 50 {
		t.Errorf("original y = %v", orig.Position.Y)
	}
	if orig.Metadata[0].Intervention != "x" || orig.Metadata[0].Links[0].URL != "https://a.example" {
		t.Errorf("original metadata mutated: %+v", orig.Metadata[0])
	}
	ol, _ := g.Link("l2")
	if ol.Vertices[0].Y != 200 {
		t.Errorf("original vertex y = %v", ol.Vertices[0].Y)
	}
	if g.NodeCount() != 3 {
		t.Errorf("original NodeCount = %d", g.NodeCount())
	}
}

func TestNodesOwnedBy(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", Type: TypeAction})
	g.AddNode(Node{ID: "b1", Type: TypeRecommendationTotal, Owner: "a"})
	g.AddNode(Node{ID: "b2", Type: TypeRecommendationTotal, Owner: "a"})
	g.AddNode(Node{ID: "c", Type: TypeRecommendationTotal, Owner: "z"})

	if got := len(g.NodesOwnedBy("a")); got != 2 {
		t.Errorf("NodesOwnedBy(a) = %d, want 2", got)
	}
	if got := g.NodesOwnedBy(""); got != nil {
		t.Errorf("NodesOwnedBy(\"\") = %v, want nil", got)
	}
}

func TestBounds(t *testing.T) {
	g := buildSample(t)
	r, b := g.Bounds(nil)
	if r != 440 || b != 340 {
		t.Errorf("Bounds = (%v, %v), want (440, 340)", r, b)
	}
	r, b = g.Bounds(func(n *Node) bool { return n.Type != TypeEnd })
	if r != 300 || b != 150 {
		t.Errorf("Bounds without End = (%v, %v), want (300, 150)", r, b)
	}
	r, b = New().Bounds(nil)
	if r != 0 || b != 0 {
		t.Errorf("empty Bounds = (%v, %v)", r, b)
	}
}

func TestNodeTypeText(t *testing.T) {
	for _, typ := range AllTypes {
		b, err := json.Marshal(typ)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", typ, err)
		}
		var back NodeType
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("Unmarshal(%s): %v", b, err)
		}
		if back != typ {
			t.Errorf("round trip %v -> %s -> %v", typ, b, back)
		}
	}

	var bad NodeType
	if err := json.Unmarshal([]byte(`"Circle"`), &bad); !errors.Is(err, ErrUnknownNodeType) {
		t.Errorf("unknown type err = %v", err)
	}
}

func TestNodeTypeClasses(t *testing.T) {
	tests := []struct {
		typ                            NodeType
		creatable, owns, derived, furn bool
	}{
		{TypeStart, true, false, false, false},
		{TypeAction, true, true, false, false},
		{TypeEvaluation, true, true, false, false},
		{TypeLane, true, false, false, false},
		{TypeRecommendationTotal, false, false, true, false},
		{TypeRecommendationToggler, false, false, true, false},
		{TypePrintLabel, false, false, false, true},
		{TypeFooter, false, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			if tt.typ.Creatable() != tt.creatable {
				t.Errorf("Creatable = %v", tt.typ.Creatable())
			}
			if tt.typ.OwnsMetadata() != tt.owns {
				t.Errorf("OwnsMetadata = %v", tt.typ.OwnsMetadata())
			}
			if tt.typ.Derived() != tt.derived {
				t.Errorf("Derived = %v", tt.typ.Derived())
			}
			if tt.typ.Furniture() != tt.furn {
				t.Errorf("Furniture = %v", tt.typ.Furniture())
			}
		})
	}
}

func TestSnapToGrid(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{123, 120},
		{120, 120},
		{9, 0},
		{57.8, 50},
		{-23, -20},
	}
	for _, tt := range tests {
		if got := SnapToGrid(tt.in); got != tt.want {
			t.Errorf("SnapToGrid(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEffectiveStrength(t *testing.T) {
	b := Block{Classification: ClassInformal, Strength: StrengthStrong}
	if b.EffectiveStrength() != "" {
		t.Errorf("informal EffectiveStrength = %q", b.EffectiveStrength())
	}
	b.Classification = ClassFormal
	if b.EffectiveStrength() != StrengthStrong {
		t.Errorf("formal EffectiveStrength = %q", b.EffectiveStrength())
	}
}
