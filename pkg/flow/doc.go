// Package flow defines the flowchart model shared by the editor core: typed
// nodes, ports, links and the recommendation blocks attached to Action and
// Evaluation nodes.
//
// # Node Types
//
// [NodeType] is a closed enumeration. Start, End, Action, Evaluation and Lane
// are created by users. Recommendation, RecommendationToggler and
// RecommendationTotal (the per-classification badge) are derived from a
// node's metadata and carry an [Node.Owner] reference back to it. PrintLabel,
// LaneLabel, Header and Footer only exist in print layouts.
//
// Weak references (Owner, Target) are plain IDs. Nothing keeps the referenced
// node alive; cascades in the element package prune them explicitly.
//
// # Graph
//
// [Graph] keeps nodes and links in insertion order:
//
//	g := flow.New()
//	g.AddNode(flow.Node{ID: "start", Type: flow.TypeStart})
//	g.AddNode(flow.Node{ID: "act", Type: flow.TypeAction})
//	g.AddLink(flow.Link{ID: "l1",
//		Source: flow.Endpoint{Node: "start", Port: "out"},
//		Target: flow.Endpoint{Node: "act", Port: "in"}})
//
// Lookups return (value, ok) and removals of missing IDs are no-ops.
// [Graph.Clone] produces an independent deep copy for snapshotting.
//
// # Blocks
//
// A [Block] is one recommendation: an intervention, its [Classification],
// an optional [Direction], a [Strength] that only matters for formal
// recommendations, and ordered [Reference] links. Block and reference
// indices are 1-based and dense.
package flow
