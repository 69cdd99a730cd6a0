package document

import (
	"time"

	"github.com/matzehuels/carepath/pkg/flow"
)

// =============================================================================
// Graph - Node/Link Wire Format
// =============================================================================

// Graph is the canonical serialization format of a flowchart.
//
// Node order, metadata order and link waypoints are preserved, so
// decode → encode → decode yields an identical graph.
type Graph struct {
	Nodes []flow.Node `json:"nodes" bson:"nodes"`
	Links []flow.Link `json:"links" bson:"links"`
}

// =============================================================================
// Document - Persisted Graph Record
// =============================================================================

// Document is the persisted record of a graph: the serialized graph text plus
// the identifiers that tie it to an algorithm and its author.
type Document struct {
	ID          string    `json:"id" bson:"_id"`
	AlgorithmID string    `json:"algorithm_id" bson:"algorithm_id"`
	UserID      string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Graph       string    `json:"graph" bson:"graph"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Update is the body sent when saving a graph.
type Update struct {
	ID          string `json:"id" bson:"id" validate:"required"`
	Graph       string `json:"graph" bson:"graph" validate:"graphdoc"`
	AlgorithmID string `json:"algorithm_id" bson:"algorithm_id" validate:"required"`
	Public      bool   `json:"public" bson:"public"`
}

// Algorithm is the header describing the clinical algorithm a graph belongs
// to. It feeds the print header.
type Algorithm struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Author      string    `json:"author" bson:"author"`
	Version     string    `json:"version,omitempty" bson:"version,omitempty"`
	Public      bool      `json:"public" bson:"public"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// NodeLabel is one entry of the node label index built when a graph is saved.
type NodeLabel struct {
	AlgorithmID string        `json:"algorithm_id" bson:"algorithm_id"`
	NodeID      string        `json:"node_id" bson:"node_id"`
	NodeType    flow.NodeType `json:"node_type" bson:"node_type"`
	Label       string        `json:"label" bson:"label"`
}
