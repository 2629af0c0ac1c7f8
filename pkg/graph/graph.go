// Package graph provides the directed dependency graph shared by every
// stage of the analysis engine.
//
// A Graph holds one Node per analyzed artifact and one Edge per resolved
// reference between two artifacts. Unlike a layered DAG, the graph may
// legitimately contain cycles - detecting and reporting them is the
// analyzer's job, not a construction error. The graph enforces three
// structural invariants instead:
//
//  1. Every edge's endpoints are existing nodes.
//  2. No edge connects a node to itself.
//  3. No two edges share the same (from, to, kind) triple.
//
// Adjacency is kept as two derived indexes (outgoing and incoming edge
// lists) built up during construction and never maintained separately
// from the edge set. A Graph is not safe for concurrent mutation; the
// engine builds it once and treats it as immutable afterwards.
package graph

import (
	"errors"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists. Artifact IDs are unique per analysis.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfEdge is returned by [Graph.AddEdge] for an edge whose endpoints
	// are the same node. Self-references are dropped before graph
	// construction; a self-edge here indicates a caller bug.
	ErrSelfEdge = errors.New("self-referential edge")
)

// Family identifies the artifact family a node was parsed from. Each
// family has its own extraction strategy and ID addressing scheme.
type Family string

const (
	// FamilyPython addresses artifacts as dotted module paths ("pkg.mod").
	FamilyPython Family = "python"
	// FamilyTerraform addresses artifacts as "type.name" resource IDs.
	FamilyTerraform Family = "terraform"
)

// EdgeKind classifies how a reference was expressed in the source.
type EdgeKind string

const (
	// KindDirect is a plain reference to a single artifact.
	KindDirect EdgeKind = "direct"
	// KindWildcard is a blanket reference ("from pkg import *").
	KindWildcard EdgeKind = "wildcard"
	// KindConditional is an index-, splat- or count-qualified reference,
	// normalized to the bare target.
	KindConditional EdgeKind = "conditional"
)

// Node is one resolved artifact in the analyzed set.
type Node struct {
	ID     string // unique artifact ID in the family's addressing scheme
	Family Family // artifact family the node was parsed from
	Path   string // file path relative to the analysis root
}

// Edge is a resolved, kind-tagged dependency from one artifact to another.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// Graph is the immutable-after-construction dependency graph.
// The zero value is not usable - use [New].
type Graph struct {
	nodes    map[string]*Node
	edges    []Edge
	edgeSet  map[Edge]struct{}
	outgoing map[string][]Edge // from -> edges leaving the node
	incoming map[string][]Edge // to -> edges entering the node
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		edgeSet:  make(map[Edge]struct{}),
		outgoing: make(map[string][]Edge),
		incoming: make(map[string][]Edge),
	}
}

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID for an empty ID or ErrDuplicateNodeID if a
// node with the same ID already exists.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := n
	g.nodes[node.ID] = &node
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// A duplicate (from, to, kind) triple is silently ignored so callers can
// feed every resolved reference without pre-deduplicating. Self-edges and
// edges touching unknown nodes are rejected with sentinel errors.
func (g *Graph) AddEdge(e Edge) error {
	if e.From == e.To {
		return ErrSelfEdge
	}
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.Kind == "" {
		e.Kind = KindDirect
	}
	if _, dup := g.edgeSet[e]; dup {
		return nil
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e)
	g.incoming[e.To] = append(g.incoming[e.To], e)
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes sorted by ID. Deterministic ordering here keeps
// every downstream export byte-stable without per-caller sorting.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *Node) int { return strings.Compare(a.ID, b.ID) })
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// OutEdges returns the edges leaving the node, in insertion order.
// The returned slice is a read-only view; do not modify it.
func (g *Graph) OutEdges(id string) []Edge { return g.outgoing[id] }

// InEdges returns the edges entering the node, in insertion order.
// The returned slice is a read-only view; do not modify it.
func (g *Graph) InEdges(id string) []Edge { return g.incoming[id] }

// Children returns the IDs the node points at (its direct dependencies),
// deduplicated and sorted. A node referenced with two different edge kinds
// appears once.
func (g *Graph) Children(id string) []string {
	return neighborIDs(g.outgoing[id], func(e Edge) string { return e.To })
}

// Parents returns the IDs pointing at the node (its direct dependents),
// deduplicated and sorted.
func (g *Graph) Parents(id string) []string {
	return neighborIDs(g.incoming[id], func(e Edge) string { return e.From })
}

// OutDegree returns the number of edges leaving the node.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree returns the number of edges entering the node.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// Validate checks that every edge references existing nodes.
// A failure indicates graph corruption, since AddEdge enforces the same
// constraint at insertion time.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return ErrUnknownSourceNode
		}
		if _, ok := g.nodes[e.To]; !ok {
			return ErrUnknownTargetNode
		}
	}
	return nil
}

func neighborIDs(edges []Edge, pick func(Edge) string) []string {
	if len(edges) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(edges))
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		id := pick(e)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
