package metadata

import (
	"errors"

	cperrors "github.com/matzehuels/carepath/pkg/errors"
	"github.com/matzehuels/carepath/pkg/flow"
)

var (
	// ErrNotMetadataOwner is returned when blocks are written to a node that
	// is neither an Action nor an Evaluation.
	ErrNotMetadataOwner = errors.New("node cannot own metadata")

	// ErrInvalidIndex is returned for block or link indices below 1.
	ErrInvalidIndex = errors.New("index must be >= 1")
)

// Host gives the store access to the live graph and its saved state.
// The graph may be replaced between calls (e.g. by a load), so the store
// never caches it.
type Host interface {
	Graph() *flow.Graph
	MarkDirty()
}

// BadgeUpdater regenerates the derived badges of an owner after its blocks
// change.
type BadgeUpdater interface {
	UpdateRecommendationBadges(owner string)
}

// Store manages the ordered recommendation blocks of Action and Evaluation
// nodes and the pendency ledger of the active node.
//
// Blocks live on [flow.Node.Metadata] so they serialize with the graph. Every
// mutation marks the host dirty. Operations addressed at a missing node are
// no-ops and return a zero index.
type Store struct {
	host   Host
	badges BadgeUpdater
	ledger Ledger
}

// New creates a metadata store over host.
func New(host Host) *Store {
	return &Store{host: host}
}

// SetBadgeUpdater installs the component that regenerates badges. Until one
// is installed block changes only mark the graph dirty.
func (s *Store) SetBadgeUpdater(u BadgeUpdater) { s.badges = u }

// =============================================================================
// Blocks
// =============================================================================

// Get returns a copy of the owner's ordered blocks, or false when the node
// is missing or has none.
func (s *Store) Get(owner string) ([]flow.Block, bool) {
	n, ok := s.host.Graph().Node(owner)
	if !ok || len(n.Metadata) == 0 {
		return nil, false
	}
	return flow.CopyBlocks(n.Metadata), true
}

// Block returns a copy of one block by its 1-based index.
func (s *Store) Block(owner string, index int) (flow.Block, bool) {
	n, ok := s.host.Graph().Node(owner)
	if !ok || index < 1 || index > len(n.Metadata) {
		return flow.Block{}, false
	}
	return n.Metadata[index-1].Copy(), true
}

// Set writes block into the owner's list and returns the index it landed on.
//
// The first write on an empty owner always lands on 1. An index within the
// list replaces that slot; a larger index appends at len+1. The stored
// block's Index is always its slot.
func (s *Store) Set(owner string, index int, block flow.Block) (int, error) {
	n, err := s.owner(owner)
	if n == nil || err != nil {
		return 0, err
	}
	if index < 1 {
		return 0, ErrInvalidIndex
	}
	if err := checkEnums(block); err != nil {
		return 0, err
	}
	effective := s.put(n, index, block)
	s.refresh(owner)
	return effective, nil
}

// RemoveBlock deletes the block at index and shifts later blocks down so
// indices stay 1..N-1. Out-of-range indices are no-ops.
func (s *Store) RemoveBlock(owner string, index int) error {
	n, err := s.owner(owner)
	if n == nil || err != nil {
		return err
	}
	if index < 1 {
		return ErrInvalidIndex
	}
	if index > len(n.Metadata) {
		return nil
	}
	n.Metadata = append(n.Metadata[:index-1], n.Metadata[index:]...)
	for i := range n.Metadata {
		n.Metadata[i].Index = i + 1
	}
	if len(n.Metadata) == 0 {
		n.Metadata = nil
	}
	s.refresh(owner)
	return nil
}

// SetField patches one field of a block, creating the block through [Store.Set]
// when it does not exist yet. Badges are regenerated only when the
// classification changes; other fields just mark the graph dirty.
//
// Enum fields accept their known values or "" to clear. Unknown fields and
// values return a VALIDATION_ERROR without touching the graph.
func (s *Store) SetField(owner string, index int, field, value string) (int, error) {
	n, err := s.owner(owner)
	if n == nil || err != nil {
		return 0, err
	}
	if index < 1 {
		return 0, ErrInvalidIndex
	}
	if err := checkFieldValue(field, value); err != nil {
		return 0, err
	}

	if index > len(n.Metadata) {
		index = s.put(n, index, flow.Block{})
	}
	b := &n.Metadata[index-1]
	switch field {
	case FieldIntervention:
		b.Intervention = value
	case FieldClassification:
		b.Classification = flow.Classification(value)
	case FieldDirection:
		b.Direction = flow.Direction(value)
	case FieldStrength:
		b.Strength = flow.Strength(value)
	}

	if field == FieldClassification {
		s.refresh(owner)
	} else {
		s.host.MarkDirty()
	}
	return index, nil
}

// =============================================================================
// Reference Links
// =============================================================================

// Link returns one reference of a block.
func (s *Store) Link(owner string, blockIndex, linkIndex int) (flow.Reference, bool) {
	b, ok := s.Block(owner, blockIndex)
	if !ok || linkIndex < 1 || linkIndex > len(b.Links) {
		return flow.Reference{}, false
	}
	return b.Links[linkIndex-1], true
}

// SaveLink replaces the reference at linkIndex, or appends it at len+1 when
// linkIndex is beyond the list. A missing block is created first. Returns
// the index the reference landed on.
func (s *Store) SaveLink(owner string, blockIndex, linkIndex int, url, typ string) (int, error) {
	n, err := s.owner(owner)
	if n == nil || err != nil {
		return 0, err
	}
	if blockIndex < 1 || linkIndex < 1 {
		return 0, ErrInvalidIndex
	}
	if blockIndex > len(n.Metadata) {
		blockIndex = s.put(n, blockIndex, flow.Block{})
		s.refresh(owner)
	}

	b := &n.Metadata[blockIndex-1]
	ref := flow.Reference{URL: url, Type: typ}
	if linkIndex <= len(b.Links) {
		ref.Index = linkIndex
		b.Links[linkIndex-1] = ref
	} else {
		ref.Index = len(b.Links) + 1
		b.Links = append(b.Links, ref)
	}
	s.host.MarkDirty()
	return ref.Index, nil
}

// RemoveLink deletes a reference and reindexes the remaining ones.
func (s *Store) RemoveLink(owner string, blockIndex, linkIndex int) error {
	n, err := s.owner(owner)
	if n == nil || err != nil {
		return err
	}
	if blockIndex < 1 || linkIndex < 1 {
		return ErrInvalidIndex
	}
	if blockIndex > len(n.Metadata) {
		return nil
	}
	b := &n.Metadata[blockIndex-1]
	if linkIndex > len(b.Links) {
		return nil
	}
	b.Links = append(b.Links[:linkIndex-1], b.Links[linkIndex:]...)
	for i := range b.Links {
		b.Links[i].Index = i + 1
	}
	if len(b.Links) == 0 {
		b.Links = nil
	}
	s.host.MarkDirty()
	return nil
}

// =============================================================================
// Pendency Ledger
// =============================================================================

// AddPendency records an incomplete field of the active node.
func (s *Store) AddPendency(block int, field string) { s.ledger.Add(block, field) }

// RemovePendency drops a recorded pendency.
func (s *Store) RemovePendency(block int, field string) { s.ledger.Remove(block, field) }

// IsPending reports whether the exact pendency is recorded.
func (s *Store) IsPending(block int, field string) bool { return s.ledger.Contains(block, field) }

// HasPendency reports whether the ledger is non-empty.
func (s *Store) HasPendency() bool { return s.ledger.Has() }

// ClearPendency empties the ledger. Callers switching the active node must
// clear it first.
func (s *Store) ClearPendency() { s.ledger.Clear() }

// Pendencies returns the recorded pendencies in sorted order.
func (s *Store) Pendencies() []Pendency { return s.ledger.Entries() }

// =============================================================================
// Internal Implementation
// =============================================================================

// owner resolves a metadata owner. A missing node yields (nil, nil).
func (s *Store) owner(id string) (*flow.Node, error) {
	n, ok := s.host.Graph().Node(id)
	if !ok {
		return nil, nil
	}
	if !n.Type.OwnsMetadata() {
		return nil, ErrNotMetadataOwner
	}
	return n, nil
}

func (s *Store) put(n *flow.Node, index int, block flow.Block) int {
	block = block.Copy()
	for i := range block.Links {
		block.Links[i].Index = i + 1
	}
	if index <= len(n.Metadata) {
		block.Index = index
		n.Metadata[index-1] = block
		return index
	}
	block.Index = len(n.Metadata) + 1
	n.Metadata = append(n.Metadata, block)
	return block.Index
}

func (s *Store) refresh(owner string) {
	if s.badges != nil {
		s.badges.UpdateRecommendationBadges(owner)
	}
	s.host.MarkDirty()
}

// checkEnums rejects a block whose non-empty enum fields hold unknown values.
func checkEnums(b flow.Block) error {
	for _, f := range []struct{ field, value string }{
		{FieldClassification, string(b.Classification)},
		{FieldDirection, string(b.Direction)},
		{FieldStrength, string(b.Strength)},
	} {
		if err := checkFieldValue(f.field, f.value); err != nil {
			return err
		}
	}
	return nil
}

func checkFieldValue(field, value string) error {
	switch field {
	case FieldIntervention:
		return nil
	case FieldClassification:
		if value == "" || flow.Classification(value).Valid() {
			return nil
		}
	case FieldDirection:
		if value == "" || flow.Direction(value).Valid() {
			return nil
		}
	case FieldStrength:
		if value == "" || flow.Strength(value).Valid() {
			return nil
		}
	default:
		return cperrors.New(cperrors.ErrCodeValidation, "unknown block field %q", field)
	}
	return cperrors.New(cperrors.ErrCodeValidation, "invalid %s value %q", field, value)
}
