package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/carepath/pkg/flow"
)

var (
	// ErrMetadataNotAllowed is returned when a node other than Action or
	// Evaluation carries recommendation blocks.
	ErrMetadataNotAllowed = errors.New("metadata only allowed on action and evaluation nodes")

	// ErrNonDenseIndex is returned when block or reference indices are not
	// exactly 1..N in order.
	ErrNonDenseIndex = errors.New("indices must be dense and 1-based")

	// ErrInvalidEnum is returned when a block carries an unknown
	// classification, direction or strength.
	ErrInvalidEnum = errors.New("invalid enum value")

	// ErrTrailingData is returned when a document is followed by more input.
	ErrTrailingData = errors.New("decode: unexpected data after graph document")
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a flowchart to compact JSON bytes, the form stored in
// [Document.Graph].
func MarshalGraph(g *flow.Graph) ([]byte, error) {
	b, err := json.Marshal(FromFlow(g))
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return b, nil
}

// UnmarshalGraph decodes and validates graph text. Empty or whitespace-only
// input yields an empty graph, matching a freshly created algorithm.
func UnmarshalGraph(data []byte) (*flow.Graph, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return flow.New(), nil
	}
	return readGraphFrom(bytes.NewReader(data))
}

// WriteGraph writes a flowchart as indented JSON to w.
func WriteGraph(g *flow.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromFlow(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteGraphFile writes a flowchart to a JSON file.
func WriteGraphFile(g *flow.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(g, f)
}

// ReadGraph decodes and validates a JSON graph from r.
func ReadGraph(r io.Reader) (*flow.Graph, error) {
	return readGraphFrom(r)
}

// ReadGraphFile reads a JSON file and returns the decoded flowchart.
func ReadGraphFile(path string) (*flow.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return UnmarshalGraph(data)
}

// =============================================================================
// flow.Graph ↔ Graph Conversion
// =============================================================================

// FromFlow converts a flowchart to its serialization format. Nodes and links
// keep insertion order; the result shares no memory with g.
func FromFlow(g *flow.Graph) Graph {
	nodes := g.Nodes()
	links := g.Links()
	out := Graph{
		Nodes: make([]flow.Node, len(nodes)),
		Links: make([]flow.Link, len(links)),
	}
	for i, n := range nodes {
		out.Nodes[i] = *n.Copy()
	}
	for i, l := range links {
		out.Links[i] = *l.Copy()
	}
	return out
}

// ToFlow validates a serialized graph and builds the flowchart.
//
// Validation covers unique non-empty IDs, link endpoints, metadata placement,
// dense block and reference indices, and enum values. Blocks may still be
// incomplete (empty intervention or classification); that is pendency, not
// corruption.
func ToFlow(data Graph) (*flow.Graph, error) {
	g := flow.New()
	for i, n := range data.Nodes {
		if err := validateNode(n); err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, n.ID, err)
		}
		if _, err := g.AddNode(*n.Copy()); err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, n.ID, err)
		}
	}
	for i, l := range data.Links {
		if _, err := g.AddLink(*l.Copy()); err != nil {
			return nil, fmt.Errorf("link %d (%s): %w", i, l.ID, err)
		}
	}
	return g, nil
}

// ValidateBlocks checks the structural invariants of a block list: dense
// 1-based indices for blocks and their references, and known enum values.
func ValidateBlocks(blocks []flow.Block) error {
	for i, b := range blocks {
		if b.Index != i+1 {
			return fmt.Errorf("block %d has index %d: %w", i+1, b.Index, ErrNonDenseIndex)
		}
		if b.Classification != "" && !b.Classification.Valid() {
			return fmt.Errorf("block %d recommendation_type %q: %w", b.Index, b.Classification, ErrInvalidEnum)
		}
		if b.Direction != "" && !b.Direction.Valid() {
			return fmt.Errorf("block %d direction %q: %w", b.Index, b.Direction, ErrInvalidEnum)
		}
		if b.Strength != "" && !b.Strength.Valid() {
			return fmt.Errorf("block %d strength %q: %w", b.Index, b.Strength, ErrInvalidEnum)
		}
		for j, ref := range b.Links {
			if ref.Index != j+1 {
				return fmt.Errorf("block %d link %d has index %d: %w", b.Index, j+1, ref.Index, ErrNonDenseIndex)
			}
		}
	}
	return nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func validateNode(n flow.Node) error {
	if !n.Type.Valid() {
		return fmt.Errorf("%w: %d", flow.ErrUnknownNodeType, int(n.Type))
	}
	if len(n.Metadata) > 0 && !n.Type.OwnsMetadata() {
		return fmt.Errorf("%s: %w", n.Type, ErrMetadataNotAllowed)
	}
	return ValidateBlocks(n.Metadata)
}

func readGraphFrom(r io.Reader) (*flow.Graph, error) {
	var data Graph
	dec := json.NewDecoder(r)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, ErrTrailingData
	}
	return ToFlow(data)
}
