package flow

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidLinkID is returned by [Graph.AddLink] when the link ID is empty.
	ErrInvalidLinkID = errors.New("link ID must not be empty")

	// ErrDuplicateLinkID is returned by [Graph.AddLink] when a link with the
	// same ID already exists.
	ErrDuplicateLinkID = errors.New("duplicate link ID")

	// ErrUnknownSourceNode is returned by [Graph.AddLink] when the source
	// endpoint names a node that is not in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddLink] when the target
	// endpoint names a node that is not in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrUnknownNodeType is returned when decoding a node type name that is
	// not part of the closed [NodeType] set.
	ErrUnknownNodeType = errors.New("unknown node type")
)

// Graph is the canonical node and link set of a flowchart.
//
// Nodes and links are kept in insertion order so that serialization is
// lossless. Lookups by ID are O(1); removals are O(N).
//
// The zero value is not usable - use [New]. Graph is not safe for concurrent
// use; the editor mutates it from a single goroutine.
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []string
	links     map[string]*Link
	linkOrder []string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		links: make(map[string]*Link),
	}
}

// AddNode inserts a copy of n and returns the stored node.
func (g *Graph) AddNode(n Node) (*Node, error) {
	if n.ID == "" {
		return nil, ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return nil, ErrDuplicateNodeID
	}
	node := &n
	g.nodes[n.ID] = node
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return node, nil
}

// Node returns the node with the given ID and true, or nil and false if not
// found. The returned pointer refers to the stored node.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order. The slice is fresh but the
// pointers refer to the stored nodes.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodesOfType returns the nodes whose type is one of types, in insertion order.
func (g *Graph) NodesOfType(types ...NodeType) []*Node {
	var out []*Node
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		if slices.Contains(types, n.Type) {
			out = append(out, n)
		}
	}
	return out
}

// NodesOwnedBy returns the derived nodes that name owner as their owner.
func (g *Graph) NodesOwnedBy(owner string) []*Node {
	if owner == "" {
		return nil
	}
	var out []*Node
	for _, id := range g.nodeOrder {
		if n := g.nodes[id]; n.Owner == owner {
			out = append(out, n)
		}
	}
	return out
}

// RemoveNode deletes the node and every link attached to it. It reports
// whether the node existed; a missing ID is a no-op.
func (g *Graph) RemoveNode(id string) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	for _, l := range g.LinksOf(id) {
		g.RemoveLink(l.ID)
	}
	delete(g.nodes, id)
	g.nodeOrder = slices.DeleteFunc(g.nodeOrder, func(s string) bool { return s == id })
	return true
}

// AddLink inserts a copy of l. Both endpoints must reference existing nodes.
func (g *Graph) AddLink(l Link) (*Link, error) {
	if l.ID == "" {
		return nil, ErrInvalidLinkID
	}
	if _, exists := g.links[l.ID]; exists {
		return nil, ErrDuplicateLinkID
	}
	if _, ok := g.nodes[l.Source.Node]; !ok {
		return nil, ErrUnknownSourceNode
	}
	if _, ok := g.nodes[l.Target.Node]; !ok {
		return nil, ErrUnknownTargetNode
	}
	link := &l
	g.links[l.ID] = link
	g.linkOrder = append(g.linkOrder, l.ID)
	return link, nil
}

// Link returns the link with the given ID and true, or nil and false.
func (g *Graph) Link(id string) (*Link, bool) {
	l, ok := g.links[id]
	return l, ok
}

// Links returns all links in insertion order.
func (g *Graph) Links() []*Link {
	out := make([]*Link, 0, len(g.linkOrder))
	for _, id := range g.linkOrder {
		out = append(out, g.links[id])
	}
	return out
}

// LinksOf returns the links with either endpoint on the node.
func (g *Graph) LinksOf(nodeID string) []*Link {
	var out []*Link
	for _, id := range g.linkOrder {
		l := g.links[id]
		if l.Source.Node == nodeID || l.Target.Node == nodeID {
			out = append(out, l)
		}
	}
	return out
}

// RemoveLink deletes the link if it exists and reports whether it did.
func (g *Graph) RemoveLink(id string) bool {
	if _, ok := g.links[id]; !ok {
		return false
	}
	delete(g.links, id)
	g.linkOrder = slices.DeleteFunc(g.linkOrder, func(s string) bool { return s == id })
	return true
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// LinkCount returns the number of links in the graph.
func (g *Graph) LinkCount() int { return len(g.links) }

// Clone returns a deep copy of the graph. Mutating the copy, including node
// metadata and link vertices, never affects the original.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:     make(map[string]*Node, len(g.nodes)),
		nodeOrder: slices.Clone(g.nodeOrder),
		links:     make(map[string]*Link, len(g.links)),
		linkOrder: slices.Clone(g.linkOrder),
	}
	for id, n := range g.nodes {
		c.nodes[id] = n.Copy()
	}
	for id, l := range g.links {
		c.links[id] = l.Copy()
	}
	return c
}

// Bounds returns the largest right and bottom edges over the nodes accepted
// by keep. A nil keep accepts every node. An empty selection yields (0, 0).
func (g *Graph) Bounds(keep func(*Node) bool) (right, bottom float64) {
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		if keep != nil && !keep(n) {
			continue
		}
		right = max(right, n.Right())
		bottom = max(bottom, n.Bottom())
	}
	return right, bottom
}
