package element

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/carepath/pkg/flow"
	"github.com/matzehuels/carepath/pkg/metadata"
)

// ErrNotCreatable is returned by [Manager.Create] for derived and print-only
// node types.
var ErrNotCreatable = errors.New("node type is not user-creatable")

// AffordanceKind is the editing widget bound to a node's text.
type AffordanceKind int

const (
	// TextArea edits the multi-line text of Action and Evaluation nodes.
	TextArea AffordanceKind = iota + 1
	// Input edits the single-line title of a Lane.
	Input
)

func (k AffordanceKind) String() string {
	switch k {
	case TextArea:
		return "textarea"
	case Input:
		return "input"
	}
	return "unknown"
}

// Affordance is the editable text bound to a node, keyed by node ID.
type Affordance struct {
	NodeID   string
	Kind     AffordanceKind
	Text     string
	Position flow.Point
	Size     flow.Size
}

// Manager owns the interactive lifecycle of flowchart elements: creation,
// single selection, cascading removal, cloning and the derived badge,
// recommendation and toggler nodes.
//
// Derived nodes are tracked in explicit weak maps keyed by owner ID. The maps
// never keep a node alive; every cascade prunes them. Operations on missing
// IDs are no-ops.
type Manager struct {
	host         metadata.Host
	meta         *metadata.Store
	surfaceWidth float64
	newID        func() string

	selected    string
	affordances map[string]*Affordance

	badges          map[string][]string // owner -> badge IDs
	recommendations map[string]string   // owner -> recommendation ID
	togglers        map[string]string   // owner -> toggler ID
}

// Option configures a [Manager].
type Option func(*Manager)

// WithSurfaceWidth sets the width given to new lanes.
func WithSurfaceWidth(w float64) Option {
	return func(m *Manager) {
		if w > 0 {
			m.surfaceWidth = w
		}
	}
}

// WithIDGenerator overrides the UUID generator used for new nodes.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// New creates a manager over host and registers it as the badge updater of
// meta, so block changes regenerate badges.
func New(host metadata.Host, meta *metadata.Store, opts ...Option) *Manager {
	m := &Manager{
		host:            host,
		meta:            meta,
		surfaceWidth:    DefaultSurfaceWidth,
		newID:           uuid.NewString,
		affordances:     make(map[string]*Affordance),
		badges:          make(map[string][]string),
		recommendations: make(map[string]string),
		togglers:        make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	meta.SetBadgeUpdater(m)
	return m
}

func (m *Manager) graph() *flow.Graph { return m.host.Graph() }

// SurfaceWidth returns the width given to lanes.
func (m *Manager) SurfaceWidth() float64 { return m.surfaceWidth }

// =============================================================================
// Creation
// =============================================================================

// Create places a new user-creatable node at pos snapped to the 10-unit grid,
// with its type's default size and ports. Lanes span the surface and are
// pinned to x=0.
func (m *Manager) Create(t flow.NodeType, pos flow.Point) (*flow.Node, error) {
	if !t.Creatable() {
		return nil, fmt.Errorf("%s: %w", t, ErrNotCreatable)
	}
	pos = flow.Point{X: flow.SnapToGrid(pos.X), Y: flow.SnapToGrid(pos.Y)}
	if t == flow.TypeLane {
		pos.X = 0
	}
	n, err := m.graph().AddNode(flow.Node{
		ID:       m.newID(),
		Type:     t,
		Position: pos,
		Size:     defaultSize(t, m.surfaceWidth),
		Ports:    defaultPorts(t),
	})
	if err != nil {
		return nil, err
	}
	m.bindAffordance(n)
	m.host.MarkDirty()
	return n, nil
}

// Clone duplicates a user-created node with a new ID, a "Clone - " label,
// a (+40,+40) offset and deep-copied metadata, then selects it. Badges are
// not duplicated; callers refresh them.
func (m *Manager) Clone(id string) (*flow.Node, bool) {
	src, ok := m.graph().Node(id)
	if !ok || !src.Type.Creatable() {
		return nil, false
	}
	c := src.Copy()
	c.ID = m.newID()
	c.Label = ClonePrefix + src.Label
	c.Position = flow.Point{X: src.Position.X + CloneOffset, Y: src.Position.Y + CloneOffset}
	if c.Type == flow.TypeLane {
		c.Position.X = 0
	}
	c.Owner, c.Target, c.Hidden, c.Pending = "", "", false, false

	n, err := m.graph().AddNode(*c)
	if err != nil {
		return nil, false
	}
	m.bindAffordance(n)
	m.Select(n.ID)
	m.host.MarkDirty()
	return n, true
}

// =============================================================================
// Selection
// =============================================================================

// Select makes id the single selected node. Switching to a different node
// clears the pendency ledger. Selecting a lane pins it to x=0.
func (m *Manager) Select(id string) bool {
	n, ok := m.graph().Node(id)
	if !ok {
		return false
	}
	if m.selected != id {
		m.meta.ClearPendency()
	}
	m.selected = id
	if n.Type == flow.TypeLane && n.Position.X != 0 {
		n.Position.X = 0
		if a, ok := m.affordances[id]; ok {
			a.Position.X = 0
		}
		m.host.MarkDirty()
	}
	return true
}

// Deselect clears the selection and the pendency ledger.
func (m *Manager) Deselect() {
	m.selected = ""
	m.meta.ClearPendency()
}

// Selected returns the selected node, if any.
func (m *Manager) Selected() (*flow.Node, bool) {
	if m.selected == "" {
		return nil, false
	}
	return m.graph().Node(m.selected)
}

// =============================================================================
// Removal
// =============================================================================

// Remove deletes the node and cascades to its badges, its toggler and
// recommendation pair, attached links, its affordance and the selection.
func (m *Manager) Remove(id string) bool {
	g := m.graph()
	n, ok := g.Node(id)
	if !ok {
		return false
	}

	switch n.Type {
	case flow.TypeAction, flow.TypeEvaluation:
		m.removeBadges(id)
		m.removeRecommendation(id)
	case flow.TypeRecommendation, flow.TypeRecommendationToggler:
		if n.Owner != "" {
			m.removeRecommendation(n.Owner)
		}
	case flow.TypeRecommendationTotal:
		if n.Owner != "" {
			m.badges[n.Owner] = without(m.badges[n.Owner], id)
		}
	case flow.TypeStart, flow.TypeEnd, flow.TypeLane,
		flow.TypePrintLabel, flow.TypeLaneLabel, flow.TypeHeader, flow.TypeFooter:
	}

	g.RemoveNode(id)
	delete(m.affordances, id)
	if m.selected == id {
		m.Deselect()
	}
	m.host.MarkDirty()
	return true
}

func (m *Manager) removeBadges(owner string) {
	g := m.graph()
	for _, id := range m.badges[owner] {
		g.RemoveNode(id)
	}
	delete(m.badges, owner)
	for _, n := range g.NodesOwnedBy(owner) {
		if n.Type == flow.TypeRecommendationTotal {
			g.RemoveNode(n.ID)
		}
	}
}

func (m *Manager) removeRecommendation(owner string) {
	g := m.graph()
	if id, ok := m.togglers[owner]; ok {
		g.RemoveNode(id)
		delete(m.togglers, owner)
	}
	if id, ok := m.recommendations[owner]; ok {
		g.RemoveNode(id)
		delete(m.recommendations, owner)
	}
	for _, n := range g.NodesOwnedBy(owner) {
		if n.Type == flow.TypeRecommendation || n.Type == flow.TypeRecommendationToggler {
			g.RemoveNode(n.ID)
		}
	}
}

// =============================================================================
// Text
// =============================================================================

// SetLabel updates a node's label and its affordance.
func (m *Manager) SetLabel(id, text string) bool {
	n, ok := m.graph().Node(id)
	if !ok {
		return false
	}
	n.Label = text
	if a, ok := m.affordances[id]; ok {
		a.Text = text
	}
	m.host.MarkDirty()
	return true
}

// Affordance returns the editable text bound to a node.
func (m *Manager) Affordance(id string) (Affordance, bool) {
	a, ok := m.affordances[id]
	if !ok {
		return Affordance{}, false
	}
	return *a, true
}

// Affordances returns every affordance in node order.
func (m *Manager) Affordances() []Affordance {
	var out []Affordance
	for _, n := range m.graph().Nodes() {
		if a, ok := m.affordances[n.ID]; ok {
			out = append(out, *a)
		}
	}
	return out
}

func (m *Manager) bindAffordance(n *flow.Node) {
	var kind AffordanceKind
	switch n.Type {
	case flow.TypeAction, flow.TypeEvaluation:
		kind = TextArea
	case flow.TypeLane:
		kind = Input
	case flow.TypeStart, flow.TypeEnd, flow.TypeRecommendation, flow.TypeRecommendationToggler,
		flow.TypeRecommendationTotal, flow.TypePrintLabel, flow.TypeLaneLabel,
		flow.TypeHeader, flow.TypeFooter:
		return
	}
	m.affordances[n.ID] = &Affordance{
		NodeID:   n.ID,
		Kind:     kind,
		Text:     n.Label,
		Position: n.Position,
		Size:     n.Size,
	}
}

// =============================================================================
// Layout
// =============================================================================

// MoveSubgraphDown shifts every node and link waypoint of the live graph by
// delta along y.
func (m *Manager) MoveSubgraphDown(delta float64) {
	MoveSubgraphDown(m.graph(), delta)
	for _, a := range m.affordances {
		a.Position.Y += delta
	}
	m.host.MarkDirty()
}

// MoveSubgraphDown shifts every node and link waypoint of g by delta along y,
// preserving x and relative order.
func MoveSubgraphDown(g *flow.Graph, delta float64) {
	for _, n := range g.Nodes() {
		n.Position.Y += delta
	}
	for _, l := range g.Links() {
		for i := range l.Vertices {
			l.Vertices[i].Y += delta
		}
	}
}

// =============================================================================
// Reindex
// =============================================================================

// Reindex rebuilds affordances and the weak relation maps from the graph,
// typically after a load. Derived nodes whose owner no longer exists are
// dropped, as are togglers whose recommendation is gone.
func (m *Manager) Reindex() {
	g := m.graph()
	m.affordances = make(map[string]*Affordance)
	m.badges = make(map[string][]string)
	m.recommendations = make(map[string]string)
	m.togglers = make(map[string]string)

	var orphans []string
	for _, n := range g.Nodes() {
		if !n.Type.Derived() {
			m.bindAffordance(n)
			continue
		}
		owner, ok := g.Node(n.Owner)
		if !ok || !owner.Type.OwnsMetadata() {
			orphans = append(orphans, n.ID)
			continue
		}
		switch n.Type {
		case flow.TypeRecommendationTotal:
			m.badges[n.Owner] = append(m.badges[n.Owner], n.ID)
		case flow.TypeRecommendation:
			m.recommendations[n.Owner] = n.ID
		case flow.TypeRecommendationToggler:
			if _, ok := g.Node(n.Target); !ok {
				orphans = append(orphans, n.ID)
				continue
			}
			m.togglers[n.Owner] = n.ID
		case flow.TypeStart, flow.TypeEnd, flow.TypeAction, flow.TypeEvaluation, flow.TypeLane,
			flow.TypePrintLabel, flow.TypeLaneLabel, flow.TypeHeader, flow.TypeFooter:
		}
	}
	for _, id := range orphans {
		g.RemoveNode(id)
	}

	if _, ok := g.Node(m.selected); !ok {
		m.selected = ""
		m.meta.ClearPendency()
	}
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, s := range ids {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}
