package element

import (
	"fmt"

	"github.com/matzehuels/carepath/pkg/flow"
	"github.com/matzehuels/carepath/pkg/metadata"
)

// UpdateRecommendationBadges deletes and regenerates every badge of owner.
//
// One badge is created per classification present, in the order formal,
// informal, good practices, labelled "<count><abbr>" (e.g. "2RF"). A badge is
// pending when any block of its classification is incomplete. When owner is
// the selected node its ledger is cleared first and every incomplete field
// is recorded again, so no stale pendency survives a refresh.
func (m *Manager) UpdateRecommendationBadges(owner string) {
	m.removeBadges(owner)

	n, ok := m.graph().Node(owner)
	if !ok || !n.Type.OwnsMetadata() {
		return
	}

	active := m.selected == owner
	if active || m.selected == "" {
		m.meta.ClearPendency()
	}

	counts := make(map[flow.Classification]int)
	pending := make(map[flow.Classification]bool)
	for _, b := range n.Metadata {
		missing := metadata.Check(b)
		if active {
			for _, f := range missing {
				m.meta.AddPendency(b.Index, f)
			}
		}
		if !b.Classification.Valid() {
			continue
		}
		counts[b.Classification]++
		if len(missing) > 0 {
			pending[b.Classification] = true
		}
	}

	k := 0
	for _, c := range flow.Classifications {
		if counts[c] == 0 {
			continue
		}
		badge, err := m.graph().AddNode(flow.Node{
			ID:       BadgeID(owner, c),
			Type:     flow.TypeRecommendationTotal,
			Position: BadgePosition(n, k),
			Size:     BadgeSize,
			Label:    fmt.Sprintf("%d%s", counts[c], c.Abbreviation()),
			Owner:    owner,
			Pending:  pending[c],
			Attrs:    map[string]string{"classification": string(c)},
		})
		if err != nil {
			continue
		}
		m.badges[owner] = append(m.badges[owner], badge.ID)
		k++
	}
}

// UpdateAllRecommendationBadges refreshes the badges of every Action and
// Evaluation node.
func (m *Manager) UpdateAllRecommendationBadges() {
	for _, n := range m.graph().NodesOfType(flow.TypeAction, flow.TypeEvaluation) {
		m.UpdateRecommendationBadges(n.ID)
	}
}

// Badges returns the current badge nodes of owner in badge order.
func (m *Manager) Badges(owner string) []*flow.Node {
	var out []*flow.Node
	for _, id := range m.badges[owner] {
		if n, ok := m.graph().Node(id); ok {
			out = append(out, n)
		}
	}
	return out
}

// =============================================================================
// Recommendations
// =============================================================================

// CreateRecommendations builds, for every Action and Evaluation node that owns
// blocks, a hidden recommendation list node and exactly one toggler targeting
// it. Existing pairs are replaced; owners without blocks lose theirs. It
// returns the number of pairs created.
//
// The list is created before its toggler so the toggler's target always
// exists.
func (m *Manager) CreateRecommendations() int {
	g := m.graph()
	created := 0
	for _, owner := range g.NodesOfType(flow.TypeAction, flow.TypeEvaluation) {
		m.removeRecommendation(owner.ID)
		if len(owner.Metadata) == 0 {
			continue
		}

		rec, err := g.AddNode(flow.Node{
			ID:       RecommendationID(owner.ID),
			Type:     flow.TypeRecommendation,
			Position: RecommendationPosition(owner),
			Size:     RecommendationSize,
			Owner:    owner.ID,
			Hidden:   true,
		})
		if err != nil {
			continue
		}
		m.recommendations[owner.ID] = rec.ID

		tog, err := g.AddNode(flow.Node{
			ID:       TogglerID(owner.ID),
			Type:     flow.TypeRecommendationToggler,
			Position: TogglerPosition(owner),
			Size:     TogglerSize,
			Owner:    owner.ID,
			Target:   rec.ID,
		})
		if err != nil {
			continue
		}
		m.togglers[owner.ID] = tog.ID
		created++
	}
	return created
}

// ToggleRecommendation flips the hidden flag of the recommendation list the
// toggler points at. It returns the new visibility and whether anything was
// toggled.
func (m *Manager) ToggleRecommendation(togglerID string) (visible, ok bool) {
	g := m.graph()
	tog, ok := g.Node(togglerID)
	if !ok || tog.Type != flow.TypeRecommendationToggler {
		return false, false
	}
	rec, ok := g.Node(tog.Target)
	if !ok {
		return false, false
	}
	rec.Hidden = !rec.Hidden
	return !rec.Hidden, true
}

// Recommendation returns the recommendation list node of owner.
func (m *Manager) Recommendation(owner string) (*flow.Node, bool) {
	id, ok := m.recommendations[owner]
	if !ok {
		return nil, false
	}
	return m.graph().Node(id)
}

// Toggler returns the toggler node of owner.
func (m *Manager) Toggler(owner string) (*flow.Node, bool) {
	id, ok := m.togglers[owner]
	if !ok {
		return nil, false
	}
	return m.graph().Node(id)
}

// RemoveTogglers deletes every toggler, leaving recommendation lists in place.
// Print layouts use it to make recommendations permanently visible.
func (m *Manager) RemoveTogglers() {
	g := m.graph()
	for owner, id := range m.togglers {
		g.RemoveNode(id)
		delete(m.togglers, owner)
	}
	for _, n := range g.NodesOfType(flow.TypeRecommendationToggler) {
		g.RemoveNode(n.ID)
	}
}
