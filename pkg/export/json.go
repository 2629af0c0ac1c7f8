package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/depscope/depscope/pkg/analyze"
	"github.com/depscope/depscope/pkg/build"
	"github.com/depscope/depscope/pkg/graph"
)

// Document is the JSON interchange form of an analyzed graph.
// Field order and slice ordering are deterministic, so encoding the
// same analysis twice yields identical bytes.
type Document struct {
	Nodes              []NodeRecord     `json:"nodes"`
	Edges              []EdgeRecord     `json:"edges"`
	ExternalReferences []ExternalRecord `json:"externalReferences,omitempty"`
	Cycles             [][]string       `json:"cycles,omitempty"`
	Centrality         []ScoreRecord    `json:"centrality,omitempty"`
}

type NodeRecord struct {
	ID     string `json:"id"`
	Family string `json:"family,omitempty"`
	Path   string `json:"path,omitempty"`
}

type EdgeRecord struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

type ExternalRecord struct {
	Source    string `json:"source"`
	Specifier string `json:"specifier"`
}

type ScoreRecord struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// FromGraph builds the interchange document for a graph and its
// analysis results.
func FromGraph(g *graph.Graph, a analyze.Analysis, external []build.ExternalReference) Document {
	doc := Document{
		Nodes:  make([]NodeRecord, 0, g.NodeCount()),
		Edges:  make([]EdgeRecord, 0, g.EdgeCount()),
		Cycles: a.Cycles,
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeRecord{ID: n.ID, Family: string(n.Family), Path: n.Path})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeRecord{Source: e.From, Target: e.To, Kind: string(e.Kind)})
	}
	for _, x := range external {
		doc.ExternalReferences = append(doc.ExternalReferences, ExternalRecord{Source: x.Source, Specifier: x.Specifier})
	}
	for _, s := range a.Centrality {
		doc.Centrality = append(doc.Centrality, ScoreRecord{ID: s.ID, Score: s.Score})
	}
	return doc
}

// WriteJSON encodes the document as indented JSON to w.
func WriteJSON(doc Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes the document to a JSON file at path.
func ExportJSON(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(doc, f)
}

// ReadJSON decodes an interchange document from r.
func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode: %w", err)
	}
	return doc, nil
}

// ToGraph reconstructs a graph from an interchange document. Self-edges
// in hand-edited input are dropped rather than rejected; edges with
// unknown endpoints indicate a corrupt document and fail the import.
func ToGraph(doc Document) (*graph.Graph, error) {
	g := graph.New()
	for _, n := range doc.Nodes {
		if err := g.AddNode(graph.Node{ID: n.ID, Family: graph.Family(n.Family), Path: n.Path}); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
	}
	for _, e := range doc.Edges {
		err := g.AddEdge(graph.Edge{From: e.Source, To: e.Target, Kind: graph.EdgeKind(e.Kind)})
		if errors.Is(err, graph.ErrSelfEdge) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}
	return g, nil
}
