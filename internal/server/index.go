package server

import (
	"github.com/matzehuels/carepath/pkg/document"
	"github.com/matzehuels/carepath/pkg/flow"
)

// IndexNodes maps the user-created nodes of g to label index records.
// Derived and print-only nodes are skipped.
func IndexNodes(algorithmID string, g *flow.Graph) []document.NodeLabel {
	var out []document.NodeLabel
	for _, n := range g.Nodes() {
		if !n.Type.Creatable() {
			continue
		}
		out = append(out, document.NodeLabel{
			AlgorithmID: algorithmID,
			NodeID:      n.ID,
			NodeType:    n.Type,
			Label:       n.Label,
		})
	}
	return out
}
