// Package summary condenses an analysis into a compact structured
// object suitable for reports, the serve API, or feeding a downstream
// summarizer. It contains data only, no prose.
package summary

import (
	"github.com/depscope/depscope/pkg/analyze"
	"github.com/depscope/depscope/pkg/build"
	"github.com/depscope/depscope/pkg/graph"
)

// NodeDegrees is one node's fan-in/fan-out entry.
type NodeDegrees struct {
	ID        string `json:"id"`
	InDegree  int    `json:"inDegree"`
	OutDegree int    `json:"outDegree"`
}

// Summary is the condensed view of one analysis run.
type Summary struct {
	Family        string          `json:"family"`
	NodeCount     int             `json:"nodeCount"`
	EdgeCount     int             `json:"edgeCount"`
	ExternalCount int             `json:"externalCount"`
	CycleCount    int             `json:"cycleCount"`
	Cycles        [][]string      `json:"cycles,omitempty"`
	TopCentral    []analyze.Score `json:"topCentral,omitempty"`
	Degrees       []NodeDegrees   `json:"degrees,omitempty"`
}

// Build condenses a graph and its analysis. topN bounds the central-node
// list; the degree table always covers every node, ordered by ID.
func Build(g *graph.Graph, a analyze.Analysis, external []build.ExternalReference, topN int) Summary {
	s := Summary{
		NodeCount:     g.NodeCount(),
		EdgeCount:     g.EdgeCount(),
		ExternalCount: len(external),
		CycleCount:    len(a.Cycles),
		Cycles:        a.Cycles,
	}

	nodes := g.Nodes()
	if len(nodes) > 0 {
		s.Family = string(nodes[0].Family)
	}

	top := a.Centrality
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}
	s.TopCentral = top

	for _, n := range nodes {
		s.Degrees = append(s.Degrees, NodeDegrees{
			ID:        n.ID,
			InDegree:  g.InDegree(n.ID),
			OutDegree: g.OutDegree(n.ID),
		})
	}
	return s
}
