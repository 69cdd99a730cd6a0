package flow

import "slices"

// Classification is the evidence class of a recommendation.
type Classification string

const (
	ClassFormal       Classification = "formal"
	ClassInformal     Classification = "informal"
	ClassGoodPractice Classification = "good_practices"
)

// Classifications lists the classes in badge order.
var Classifications = []Classification{ClassFormal, ClassInformal, ClassGoodPractice}

var classAbbreviations = map[Classification]string{
	ClassFormal:       "RF",
	ClassInformal:     "RI",
	ClassGoodPractice: "BP",
}

// Valid reports whether c is one of the known classifications.
func (c Classification) Valid() bool {
	_, ok := classAbbreviations[c]
	return ok
}

// Abbreviation returns the short badge suffix for c ("RF", "RI", "BP").
func (c Classification) Abbreviation() string { return classAbbreviations[c] }

// Direction states whether a recommendation argues for or against an intervention.
type Direction string

const (
	DirectionInFavor Direction = "in_favor"
	DirectionAgainst Direction = "against"
)

// Valid reports whether d is a known direction. The empty direction is not valid.
func (d Direction) Valid() bool { return d == DirectionInFavor || d == DirectionAgainst }

// Strength grades a formal recommendation.
type Strength string

const (
	StrengthStrong      Strength = "strong"
	StrengthConditional Strength = "conditional"
)

// Valid reports whether s is a known strength. The empty strength is not valid.
func (s Strength) Valid() bool { return s == StrengthStrong || s == StrengthConditional }

// Reference is a supporting link attached to a block.
type Reference struct {
	Index int    `json:"index" bson:"index"`
	URL   string `json:"url" bson:"url"`
	Type  string `json:"type" bson:"type"`
}

// Block is one structured recommendation attached to an Action or Evaluation node.
// Strength only carries meaning when Classification is ClassFormal.
type Block struct {
	Index          int            `json:"index" bson:"index"`
	Intervention   string         `json:"intervention" bson:"intervention"`
	Classification Classification `json:"recommendation_type" bson:"recommendation_type"`
	Direction      Direction      `json:"direction,omitempty" bson:"direction,omitempty"`
	Strength       Strength       `json:"strength,omitempty" bson:"strength,omitempty"`
	Links          []Reference    `json:"links,omitempty" bson:"links,omitempty"`
}

// EffectiveStrength returns the strength when it is meaningful, or "".
func (b Block) EffectiveStrength() Strength {
	if b.Classification != ClassFormal {
		return ""
	}
	return b.Strength
}

// Copy returns a deep copy of the block.
func (b Block) Copy() Block {
	b.Links = slices.Clone(b.Links)
	return b
}

// CopyBlocks deep-copies a block list. A nil list stays nil.
func CopyBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Copy()
	}
	return out
}
