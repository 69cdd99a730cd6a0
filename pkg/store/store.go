package store

import (
	"context"
	"time"

	"github.com/matzehuels/carepath/pkg/document"
	cperrors "github.com/matzehuels/carepath/pkg/errors"
	"github.com/matzehuels/carepath/pkg/flow"
)

// State is the saved state of the graph.
type State int

const (
	// NeverSaved is the state after a load: nothing has been edited yet.
	NeverSaved State = iota
	// Unsaved means the graph changed since the last load or save.
	Unsaved
	// Saved means the last save succeeded and nothing changed since.
	Saved
)

func (s State) String() string {
	switch s {
	case NeverSaved:
		return "never-saved"
	case Unsaved:
		return "unsaved"
	case Saved:
		return "saved"
	}
	return "unknown"
}

// Persister is the remote document service the store loads from and saves to.
type Persister interface {
	GetGraph(ctx context.Context, id string) (document.Document, error)
	PutGraph(ctx context.Context, id string, u document.Update) (time.Time, error)
	GetAlgorithm(ctx context.Context, id string) (document.Algorithm, error)
}

// Store owns the canonical node and link set of the open graph together with
// its persisted record and saved state.
//
// Store is not safe for concurrent use. A save captures the graph as it is
// when [Store.Save] is called.
type Store struct {
	persister Persister
	graph     *flow.Graph
	doc       document.Document
	algorithm document.Algorithm
	state     State
}

// New creates a store holding an empty graph. persister may be nil for
// file-only use; [Store.Open] and [Store.Save] then fail with UNSUPPORTED.
func New(persister Persister) *Store {
	return &Store{persister: persister, graph: flow.New()}
}

// Graph returns the live graph. The pointer changes on every load.
func (s *Store) Graph() *flow.Graph { return s.graph }

// Document returns the record the graph was loaded from.
func (s *Store) Document() document.Document { return s.doc }

// SetDocument replaces the record identifying where the graph is saved.
func (s *Store) SetDocument(doc document.Document) { s.doc = doc }

// Algorithm returns the header of the algorithm the graph belongs to.
func (s *Store) Algorithm() document.Algorithm { return s.algorithm }

// SetAlgorithm replaces the algorithm header.
func (s *Store) SetAlgorithm(a document.Algorithm) { s.algorithm = a }

// LastUpdate returns the time of the last successful save or load.
func (s *Store) LastUpdate() time.Time { return s.doc.UpdatedAt }

// =============================================================================
// Saved State
// =============================================================================

// MarkDirty records a structural change.
func (s *Store) MarkDirty() { s.state = Unsaved }

// MarkSaved records a successful save.
func (s *Store) MarkSaved() { s.state = Saved }

// State returns the tri-state saved flag.
func (s *Store) State() State { return s.state }

// IsSaved reports whether there are no unsaved changes.
func (s *Store) IsSaved() bool { return s.state != Unsaved }

// IsNotSaved reports whether the graph changed since the last load or save.
func (s *Store) IsNotSaved() bool { return s.state == Unsaved }

// =============================================================================
// Load / Serialize
// =============================================================================

// Load replaces the whole graph with the decoded document. Malformed input
// returns a PARSE_ERROR and leaves the current graph and state untouched.
// A successful load resets the state to [NeverSaved].
func (s *Store) Load(data []byte) error {
	g, err := document.UnmarshalGraph(data)
	if err != nil {
		return cperrors.Wrap(cperrors.ErrCodeParse, err, "load graph")
	}
	s.graph = g
	s.state = NeverSaved
	return nil
}

// Serialize returns the lossless JSON form of the graph.
func (s *Store) Serialize() ([]byte, error) {
	data, err := document.MarshalGraph(s.graph)
	if err != nil {
		return nil, cperrors.Wrap(cperrors.ErrCodeInternal, err, "serialize graph")
	}
	return data, nil
}

// =============================================================================
// Remote
// =============================================================================

// Open fetches the graph record and its algorithm header, then loads the
// graph. Nothing is replaced unless every step succeeds.
func (s *Store) Open(ctx context.Context, graphID string) error {
	if s.persister == nil {
		return cperrors.New(cperrors.ErrCodeUnsupported, "no document service configured")
	}
	if err := cperrors.ValidateID(graphID); err != nil {
		return err
	}

	doc, err := s.persister.GetGraph(ctx, graphID)
	if err != nil {
		return networkError(err, "get graph %s", graphID)
	}
	alg, err := s.persister.GetAlgorithm(ctx, doc.AlgorithmID)
	if err != nil {
		return networkError(err, "get algorithm %s", doc.AlgorithmID)
	}
	if err := s.Load([]byte(doc.Graph)); err != nil {
		return err
	}
	if doc.ID == "" {
		doc.ID = graphID
	}
	if alg.ID == "" {
		alg.ID = doc.AlgorithmID
	}
	s.doc = doc
	s.algorithm = alg
	return nil
}

// Save serializes the graph as it is now and sends it to the document
// service. On success the state becomes [Saved] and the returned timestamp
// is recorded; on failure the state is left as it was. There is no retry.
func (s *Store) Save(ctx context.Context) (time.Time, error) {
	if s.persister == nil {
		return time.Time{}, cperrors.New(cperrors.ErrCodeUnsupported, "no document service configured")
	}
	if s.doc.ID == "" {
		return time.Time{}, cperrors.New(cperrors.ErrCodeInvalidInput, "graph has no id; open it before saving")
	}

	data, err := s.Serialize()
	if err != nil {
		return time.Time{}, err
	}
	update := document.Update{
		ID:          s.doc.ID,
		Graph:       string(data),
		AlgorithmID: s.doc.AlgorithmID,
		Public:      s.algorithm.Public,
	}
	updatedAt, err := s.persister.PutGraph(ctx, s.doc.ID, update)
	if err != nil {
		return time.Time{}, networkError(err, "save graph %s", s.doc.ID)
	}

	s.MarkSaved()
	s.doc.Graph = update.Graph
	s.doc.UpdatedAt = updatedAt
	s.algorithm.UpdatedAt = updatedAt
	return updatedAt, nil
}

// networkError keeps coded errors from the persister and wraps anything else
// as NETWORK_ERROR.
func networkError(err error, format string, args ...any) error {
	if cperrors.GetCode(err) != "" {
		return err
	}
	return cperrors.Wrap(cperrors.ErrCodeNetwork, err, format, args...)
}
