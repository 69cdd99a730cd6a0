package server

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/carepath/pkg/document"
)

// ErrNotFound is returned by a [Repository] when a record does not exist.
var ErrNotFound = errors.New("not found")

// Repository stores algorithms, their graphs and the node label index.
type Repository interface {
	Algorithm(ctx context.Context, id string) (document.Algorithm, error)
	CreateAlgorithm(ctx context.Context, a document.Algorithm, g document.Document) error
	Graph(ctx context.Context, id string) (document.Document, error)

	// SaveGraph replaces the graph text and stamps both the graph and its
	// algorithm with at. The algorithm's public flag is updated too.
	SaveGraph(ctx context.Context, u document.Update, at time.Time) error

	// ReplaceNodes swaps the label index of an algorithm for nodes.
	ReplaceNodes(ctx context.Context, algorithmID string, nodes []document.NodeLabel) error
	Nodes(ctx context.Context, algorithmID string) ([]document.NodeLabel, error)

	Close(ctx context.Context) error
}

// MemoryRepository is a Repository held in process memory. It is safe for
// concurrent use.
type MemoryRepository struct {
	mu         sync.RWMutex
	algorithms map[string]document.Algorithm
	graphs     map[string]document.Document
	nodes      map[string][]document.NodeLabel
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		algorithms: make(map[string]document.Algorithm),
		graphs:     make(map[string]document.Document),
		nodes:      make(map[string][]document.NodeLabel),
	}
}

func (r *MemoryRepository) Algorithm(_ context.Context, id string) (document.Algorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.algorithms[id]
	if !ok {
		return document.Algorithm{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepository) CreateAlgorithm(_ context.Context, a document.Algorithm, g document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.algorithms[a.ID] = a
	r.graphs[g.ID] = g
	return nil
}

func (r *MemoryRepository) Graph(_ context.Context, id string) (document.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.graphs[id]
	if !ok {
		return document.Document{}, ErrNotFound
	}
	return g, nil
}

func (r *MemoryRepository) SaveGraph(_ context.Context, u document.Update, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.graphs[u.ID]
	if !ok {
		return ErrNotFound
	}
	g.Graph = u.Graph
	g.UpdatedAt = at
	r.graphs[u.ID] = g

	if a, ok := r.algorithms[g.AlgorithmID]; ok {
		a.Public = u.Public
		a.UpdatedAt = at
		r.algorithms[g.AlgorithmID] = a
	}
	return nil
}

func (r *MemoryRepository) ReplaceNodes(_ context.Context, algorithmID string, nodes []document.NodeLabel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(nodes) == 0 {
		delete(r.nodes, algorithmID)
		return nil
	}
	r.nodes[algorithmID] = slices.Clone(nodes)
	return nil
}

func (r *MemoryRepository) Nodes(_ context.Context, algorithmID string) ([]document.NodeLabel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.nodes[algorithmID]), nil
}

func (r *MemoryRepository) Close(context.Context) error { return nil }

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Repository = (*MongoRepository)(nil)
)
