package element

import "github.com/matzehuels/carepath/pkg/flow"

// Default node sizes.
var (
	TerminalSize       = flow.Size{Width: 40, Height: 40}
	StepSize           = flow.Size{Width: 200, Height: 100}
	LaneHeight         = 50.0
	RecommendationSize = flow.Size{Width: 600, Height: 175}
	TogglerSize        = flow.Size{Width: 20, Height: 20}
	BadgeSize          = flow.Size{Width: 28, Height: 17}
)

// DefaultSurfaceWidth is the lane width used when no surface width is configured.
const DefaultSurfaceWidth = 2000.0

// CloneOffset is added to both coordinates of a cloned node.
const CloneOffset = 40.0

// ClonePrefix marks the label of a cloned node.
const ClonePrefix = "Clone - "

const (
	badgeGapX    = 9.0
	badgeFirstY  = 2.0
	badgeStepY   = 20.0
	togglerGapX  = 21.0
	togglerRaise = 10.0
)

// defaultSize returns the initial size of a user-creatable node.
func defaultSize(t flow.NodeType, surfaceWidth float64) flow.Size {
	switch t {
	case flow.TypeStart, flow.TypeEnd:
		return TerminalSize
	case flow.TypeAction, flow.TypeEvaluation:
		return StepSize
	case flow.TypeLane:
		return flow.Size{Width: surfaceWidth, Height: LaneHeight}
	case flow.TypeRecommendation:
		return RecommendationSize
	case flow.TypeRecommendationToggler:
		return TogglerSize
	case flow.TypeRecommendationTotal:
		return BadgeSize
	case flow.TypePrintLabel, flow.TypeLaneLabel, flow.TypeHeader, flow.TypeFooter:
		return flow.Size{}
	}
	return flow.Size{}
}

// defaultPorts returns the port layout of a user-creatable node.
func defaultPorts(t flow.NodeType) []flow.Port {
	switch t {
	case flow.TypeStart:
		return []flow.Port{{ID: "out", Group: flow.PortGroupOut}}
	case flow.TypeEnd:
		return []flow.Port{{ID: "in", Group: flow.PortGroupIn}}
	case flow.TypeAction:
		return []flow.Port{
			{ID: "in", Group: flow.PortGroupIn},
			{ID: "out", Group: flow.PortGroupOut},
		}
	case flow.TypeEvaluation:
		return []flow.Port{
			{ID: "in", Group: flow.PortGroupIn},
			{ID: "yes", Group: flow.PortGroupOut, Label: "Yes"},
			{ID: "no", Group: flow.PortGroupOut, Label: "No"},
		}
	case flow.TypeLane, flow.TypeRecommendation, flow.TypeRecommendationToggler,
		flow.TypeRecommendationTotal, flow.TypePrintLabel, flow.TypeLaneLabel,
		flow.TypeHeader, flow.TypeFooter:
		return nil
	}
	return nil
}

// RecommendationPosition places the recommendation list under its owner.
func RecommendationPosition(owner *flow.Node) flow.Point {
	switch owner.Type {
	case flow.TypeEvaluation:
		return flow.Point{X: owner.Position.X + 1, Y: owner.Position.Y + 111}
	case flow.TypeAction:
		return flow.Point{X: owner.Position.X, Y: owner.Position.Y + 106}
	case flow.TypeStart, flow.TypeEnd, flow.TypeLane, flow.TypeRecommendation,
		flow.TypeRecommendationToggler, flow.TypeRecommendationTotal,
		flow.TypePrintLabel, flow.TypeLaneLabel, flow.TypeHeader, flow.TypeFooter:
		return owner.Position
	}
	return owner.Position
}

// TogglerPosition places the toggler at the owner's lower right corner.
func TogglerPosition(owner *flow.Node) flow.Point {
	return flow.Point{X: owner.Right() + togglerGapX, Y: owner.Bottom() - togglerRaise}
}

// BadgePosition places the k-th badge (0-based) to the right of its owner.
func BadgePosition(owner *flow.Node, k int) flow.Point {
	return flow.Point{
		X: owner.Right() + badgeGapX,
		Y: owner.Position.Y + badgeFirstY + badgeStepY*float64(k),
	}
}

// Derived node IDs are a function of the owner so refreshes are idempotent.

// BadgeID returns the ID of the owner's badge for a classification.
func BadgeID(owner string, c flow.Classification) string { return owner + ":total:" + string(c) }

// RecommendationID returns the ID of the owner's recommendation list.
func RecommendationID(owner string) string { return owner + ":recommendations" }

// TogglerID returns the ID of the owner's recommendation toggler.
func TogglerID(owner string) string { return owner + ":toggler" }
