package metadata

import (
	"strings"

	cperrors "github.com/matzehuels/carepath/pkg/errors"
	"github.com/matzehuels/carepath/pkg/flow"
)

// Block fields addressable through [Store.SetField] and reported as pendency.
const (
	FieldIntervention   = "intervention"
	FieldClassification = "recommendation_type"
	FieldDirection      = "direction"
	FieldStrength       = "strength"
	FieldLinks          = "links"
)

// Check returns the required fields the block is missing, in a fixed order.
//
// Intervention and classification are always required. Formal
// recommendations also need a direction and a strength. Every reference
// must carry an http(s) URL.
func Check(b flow.Block) []string {
	var missing []string
	if strings.TrimSpace(b.Intervention) == "" {
		missing = append(missing, FieldIntervention)
	}
	if !b.Classification.Valid() {
		missing = append(missing, FieldClassification)
	}
	if b.Classification == flow.ClassFormal {
		if !b.Direction.Valid() {
			missing = append(missing, FieldDirection)
		}
		if !b.Strength.Valid() {
			missing = append(missing, FieldStrength)
		}
	}
	for _, ref := range b.Links {
		if cperrors.ValidateURL(ref.URL) != nil {
			missing = append(missing, FieldLinks)
			break
		}
	}
	return missing
}

// ValidateBlock returns a [cperrors.ValidationError] listing the block's
// pendencies, or nil when the block is complete.
func ValidateBlock(b flow.Block) error {
	missing := Check(b)
	if len(missing) == 0 {
		return nil
	}
	items := make([]string, len(missing))
	for i, f := range missing {
		items[i] = Pendency{Block: b.Index, Field: f}.String()
	}
	return &cperrors.ValidationError{Items: items}
}

// OwnerPendency is a pendency found on a specific node.
type OwnerPendency struct {
	Owner string
	Label string
	Pendency
}

// Audit checks every block of every Action and Evaluation node in g and
// returns the pendencies in node order.
func Audit(g *flow.Graph) []OwnerPendency {
	var out []OwnerPendency
	for _, n := range g.NodesOfType(flow.TypeAction, flow.TypeEvaluation) {
		for _, b := range n.Metadata {
			for _, f := range Check(b) {
				out = append(out, OwnerPendency{Owner: n.ID, Label: n.Label, Pendency: Pendency{b.Index, f}})
			}
		}
	}
	return out
}
