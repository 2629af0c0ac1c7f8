package export

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/depscope/depscope/pkg/analyze"
	"github.com/depscope/depscope/pkg/graph"
)

// GraphML attribute keys. Declared once in the header so consumers like
// Gephi and yEd pick up typed attributes.
var graphmlKeys = []xmlKey{
	{ID: "family", For: "node", Name: "family", Type: "string"},
	{ID: "path", For: "node", Name: "path", Type: "string"},
	{ID: "centrality", For: "node", Name: "centrality", Type: "double"},
	{ID: "kind", For: "edge", Name: "kind", Type: "string"},
}

type xmlDoc struct {
	XMLName xml.Name `xml:"graphml"`
	XMLNS   string   `xml:"xmlns,attr"`
	Keys    []xmlKey `xml:"key"`
	Graph   xmlGraph `xml:"graph"`
}

type xmlKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
	Type string `xml:"attr.type,attr"`
}

type xmlGraph struct {
	ID          string    `xml:"id,attr"`
	EdgeDefault string    `xml:"edgedefault,attr"`
	Nodes       []xmlNode `xml:"node"`
	Edges       []xmlEdge `xml:"edge"`
}

type xmlNode struct {
	ID   string    `xml:"id,attr"`
	Data []xmlData `xml:"data"`
}

type xmlEdge struct {
	Source string    `xml:"source,attr"`
	Target string    `xml:"target,attr"`
	Data   []xmlData `xml:"data"`
}

type xmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// WriteGraphML encodes the graph as GraphML to w, carrying family, path
// and centrality per node and the reference kind per edge.
func WriteGraphML(g *graph.Graph, a analyze.Analysis, w io.Writer) error {
	scores := make(map[string]float64, len(a.Centrality))
	for _, s := range a.Centrality {
		scores[s.ID] = s.Score
	}

	doc := xmlDoc{
		XMLNS: "http://graphml.graphdrawing.org/xmlns",
		Keys:  graphmlKeys,
		Graph: xmlGraph{ID: "dependencies", EdgeDefault: "directed"},
	}
	for _, n := range g.Nodes() {
		doc.Graph.Nodes = append(doc.Graph.Nodes, xmlNode{
			ID: n.ID,
			Data: []xmlData{
				{Key: "family", Value: string(n.Family)},
				{Key: "path", Value: n.Path},
				{Key: "centrality", Value: fmt.Sprintf("%g", scores[n.ID])},
			},
		})
	}
	for _, e := range g.Edges() {
		doc.Graph.Edges = append(doc.Graph.Edges, xmlEdge{
			Source: e.From,
			Target: e.To,
			Data:   []xmlData{{Key: "kind", Value: string(e.Kind)}},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode graphml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
