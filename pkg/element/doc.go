// Package element implements the interactive lifecycle of flowchart nodes.
//
// A [Manager] creates nodes with type-specific sizes and ports, keeps a
// single selection, clones nodes and removes them with a cascade over every
// node derived from them.
//
// # Derived Nodes
//
// Action and Evaluation nodes own three kinds of derived nodes:
//
//   - badges (RecommendationTotal), one per classification present in the
//     owner's blocks, regenerated as a unit by
//     [Manager.UpdateRecommendationBadges]
//   - a Recommendation list node, hidden until toggled
//   - one RecommendationToggler pointing at that list
//
// Derived IDs are built from the owner ID ([BadgeID], [RecommendationID],
// [TogglerID]), which makes refreshes idempotent. The manager tracks them in
// owner-keyed weak maps rebuilt by [Manager.Reindex] after a load.
//
// # Affordances
//
// Editable text (the text area of Action and Evaluation nodes, the title
// input of lanes) is held in a direct ID-indexed map, see
// [Manager.Affordance].
package element
