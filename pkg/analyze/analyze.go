// Package analyze derives cycles, centrality, and dependency closures
// from an assembled graph.
//
// Analysis is a pure read-only pass: it never mutates the graph and can
// be recomputed at any time. Cycle detection runs Tarjan's strongly
// connected components algorithm; every component with two or more
// members is a cycle (self-edges cannot exist, so singleton components
// are always acyclic).
package analyze

import (
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/depscope/depscope/pkg/errors"
	"github.com/depscope/depscope/pkg/graph"
)

// Score is one node's degree-centrality entry.
type Score struct {
	ID    string
	Score float64
}

// Analysis holds the derived views of a graph.
type Analysis struct {
	// Cycles lists every strongly connected component of size >= 2.
	// Members are sorted lexicographically; cycles are ordered by their
	// smallest member.
	Cycles [][]string

	// Centrality ranks every node by (in+out)/totalEdges, descending,
	// ties broken by ID.
	Centrality []Score
}

// Run analyzes the graph. An empty graph yields empty results.
func Run(g *graph.Graph) Analysis {
	return Analysis{
		Cycles:     cycles(g),
		Centrality: centrality(g),
	}
}

// cycles finds the strongly connected components with two or more
// members. Node IDs map onto dense int64 indices for gonum and back.
func cycles(g *graph.Graph) [][]string {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nil
	}

	index := make(map[string]int64, len(nodes))
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		index[n.ID] = int64(i)
		ids[i] = n.ID
	}

	dg := simple.NewDirectedGraph()
	for i := range nodes {
		dg.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.Edges() {
		dg.SetEdge(dg.NewEdge(simple.Node(index[e.From]), simple.Node(index[e.To])))
	}

	var out [][]string
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}
		members := make([]string, len(scc))
		for i, n := range scc {
			members[i] = ids[n.ID()]
		}
		slices.Sort(members)
		out = append(out, members)
	}
	slices.SortFunc(out, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return out
}

func centrality(g *graph.Graph) []Score {
	total := g.EdgeCount()
	scores := make([]Score, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		s := Score{ID: n.ID}
		if total > 0 {
			s.Score = float64(g.InDegree(n.ID)+g.OutDegree(n.ID)) / float64(total)
		}
		scores = append(scores, s)
	}
	slices.SortFunc(scores, func(a, b Score) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return strings.Compare(a.ID, b.ID)
		}
	})
	return scores
}

// DependenciesOf returns the IDs the node depends on, sorted. With
// transitive set, the full downstream closure is returned; cycles are
// handled by the visited set and the start node is never its own
// dependency.
func DependenciesOf(g *graph.Graph, id string, transitive bool) ([]string, error) {
	return closure(g, id, transitive, g.Children)
}

// DependentsOf returns the IDs that depend on the node, sorted. With
// transitive set, the full upstream closure is returned.
func DependentsOf(g *graph.Graph, id string, transitive bool) ([]string, error) {
	return closure(g, id, transitive, g.Parents)
}

func closure(g *graph.Graph, id string, transitive bool, step func(string) []string) ([]string, error) {
	if !g.HasNode(id) {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "no artifact %q in graph", id)
	}
	if !transitive {
		return step(id), nil
	}

	visited := map[string]bool{id: true}
	queue := step(id)
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		queue = append(queue, step(cur)...)
	}
	slices.Sort(out)
	return out, nil
}
