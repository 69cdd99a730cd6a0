package flow

import (
	"fmt"
	"math"
	"slices"
)

// NodeType is the closed set of element kinds a flowchart can contain.
//
// The first five are user-creatable; Recommendation, RecommendationToggler and
// RecommendationTotal are derived from metadata; the remaining kinds only
// appear in print layouts produced by the export transformer.
type NodeType int

const (
	TypeStart NodeType = iota + 1
	TypeEnd
	TypeAction
	TypeEvaluation
	TypeLane
	TypeRecommendation
	TypeRecommendationToggler
	TypeRecommendationTotal
	TypePrintLabel
	TypeLaneLabel
	TypeHeader
	TypeFooter
)

var typeNames = map[NodeType]string{
	TypeStart:                 "StartElement",
	TypeEnd:                   "EndElement",
	TypeAction:                "ActionElement",
	TypeEvaluation:            "EvaluationElement",
	TypeLane:                  "LaneElement",
	TypeRecommendation:        "RecommendationElement",
	TypeRecommendationToggler: "RecommendationTogglerElement",
	TypeRecommendationTotal:   "RecommendationTotalElement",
	TypePrintLabel:            "PrintLabel",
	TypeLaneLabel:             "LaneLabel",
	TypeHeader:                "PDFHeader",
	TypeFooter:                "PDFFooter",
}

var typesByName = func() map[string]NodeType {
	m := make(map[string]NodeType, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

// AllTypes lists every node type in declaration order.
var AllTypes = []NodeType{
	TypeStart, TypeEnd, TypeAction, TypeEvaluation, TypeLane,
	TypeRecommendation, TypeRecommendationToggler, TypeRecommendationTotal,
	TypePrintLabel, TypeLaneLabel, TypeHeader, TypeFooter,
}

// String returns the interchange name of the type (e.g. "ActionElement").
func (t NodeType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// ParseNodeType maps an interchange name back to its NodeType.
func ParseNodeType(s string) (NodeType, bool) {
	t, ok := typesByName[s]
	return t, ok
}

// Valid reports whether t is a member of the closed set.
func (t NodeType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (t NodeType) MarshalText() ([]byte, error) {
	name, ok := typeNames[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNodeType, int(t))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *NodeType) UnmarshalText(b []byte) error {
	parsed, ok := ParseNodeType(string(b))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNodeType, string(b))
	}
	*t = parsed
	return nil
}

// Creatable reports whether users can place this type from the palette.
func (t NodeType) Creatable() bool {
	switch t {
	case TypeStart, TypeEnd, TypeAction, TypeEvaluation, TypeLane:
		return true
	case TypeRecommendation, TypeRecommendationToggler, TypeRecommendationTotal,
		TypePrintLabel, TypeLaneLabel, TypeHeader, TypeFooter:
		return false
	}
	return false
}

// OwnsMetadata reports whether nodes of this type may carry recommendation blocks.
func (t NodeType) OwnsMetadata() bool {
	switch t {
	case TypeAction, TypeEvaluation:
		return true
	case TypeStart, TypeEnd, TypeLane, TypeRecommendation, TypeRecommendationToggler,
		TypeRecommendationTotal, TypePrintLabel, TypeLaneLabel, TypeHeader, TypeFooter:
		return false
	}
	return false
}

// Derived reports whether nodes of this type are regenerated from other state
// and reference an owner instead of being edited directly.
func (t NodeType) Derived() bool {
	switch t {
	case TypeRecommendation, TypeRecommendationToggler, TypeRecommendationTotal:
		return true
	case TypeStart, TypeEnd, TypeAction, TypeEvaluation, TypeLane,
		TypePrintLabel, TypeLaneLabel, TypeHeader, TypeFooter:
		return false
	}
	return false
}

// Furniture reports whether the type is print-only page furniture.
func (t NodeType) Furniture() bool {
	switch t {
	case TypePrintLabel, TypeLaneLabel, TypeHeader, TypeFooter:
		return true
	case TypeStart, TypeEnd, TypeAction, TypeEvaluation, TypeLane,
		TypeRecommendation, TypeRecommendationToggler, TypeRecommendationTotal:
		return false
	}
	return false
}

// Point is a position on the drawing surface.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Size is the extent of a node.
type Size struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// SnapToGrid drops the last decimal digit of the integral part of v, aligning
// it to the 10-unit paper grid (123 → 120, -23 → -20).
func SnapToGrid(v float64) float64 {
	t := math.Trunc(v)
	return t - math.Mod(t, 10)
}

// Port is a connection point on a node.
type Port struct {
	ID    string `json:"id" bson:"id"`
	Group string `json:"group" bson:"group"` // "in" or "out"
	Label string `json:"label,omitempty" bson:"label,omitempty"`
}

// Port groups.
const (
	PortGroupIn  = "in"
	PortGroupOut = "out"
)

// Node is a typed element of the flowchart.
//
// Owner and Target are weak id references: Owner names the node a derived
// element belongs to, Target names the Recommendation node a toggler controls.
// Neither keeps the referenced node alive.
type Node struct {
	ID       string            `json:"id" bson:"id"`
	Type     NodeType          `json:"type" bson:"type"`
	Position Point             `json:"position" bson:"position"`
	Size     Size              `json:"size" bson:"size"`
	Label    string            `json:"label,omitempty" bson:"label,omitempty"`
	Ports    []Port            `json:"ports,omitempty" bson:"ports,omitempty"`
	Metadata []Block           `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Owner    string            `json:"owner,omitempty" bson:"owner,omitempty"`
	Target   string            `json:"target,omitempty" bson:"target,omitempty"`
	Hidden   bool              `json:"hidden,omitempty" bson:"hidden,omitempty"`
	Pending  bool              `json:"pending,omitempty" bson:"pending,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty" bson:"attrs,omitempty"`
}

// Right returns the x coordinate of the node's right edge.
func (n *Node) Right() float64 { return n.Position.X + n.Size.Width }

// Bottom returns the y coordinate of the node's bottom edge.
func (n *Node) Bottom() float64 { return n.Position.Y + n.Size.Height }

// Port returns the port with the given id.
func (n *Node) Port(id string) (Port, bool) {
	for _, p := range n.Ports {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// Copy returns a deep copy of the node.
func (n *Node) Copy() *Node {
	c := *n
	c.Ports = slices.Clone(n.Ports)
	c.Metadata = CopyBlocks(n.Metadata)
	if n.Attrs != nil {
		c.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	return &c
}

// Endpoint is one end of a link.
type Endpoint struct {
	Node string `json:"id" bson:"id"`
	Port string `json:"port,omitempty" bson:"port,omitempty"`
}

// Link is a directed connection between two node ports with optional waypoints.
type Link struct {
	ID       string   `json:"id" bson:"id"`
	Source   Endpoint `json:"source" bson:"source"`
	Target   Endpoint `json:"target" bson:"target"`
	Vertices []Point  `json:"vertices,omitempty" bson:"vertices,omitempty"`
}

// Copy returns a deep copy of the link.
func (l *Link) Copy() *Link {
	c := *l
	c.Vertices = slices.Clone(l.Vertices)
	return &c
}
