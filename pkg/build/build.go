// Package build assembles the dependency graph from extraction output.
//
// Building is a deterministic, single-threaded pass: declarations and
// references are sorted before resolution, so the same extraction
// output produces the same graph regardless of the order files were
// processed in. Reference targets resolve against declared IDs only;
// anything that misses becomes an external reference, never a phantom
// node.
package build

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/depscope/depscope/pkg/extract"
	"github.com/depscope/depscope/pkg/graph"
)

// ExternalReference records a reference whose specifier did not resolve
// to any declared artifact: a third-party import, a provider-managed
// value, or a module source address.
type ExternalReference struct {
	Source    string // referencing artifact ID
	Specifier string // unresolved target as written
}

// Input is the extraction output for one analysis run.
type Input struct {
	Family graph.Family
	Decls  []extract.Decl
	Refs   []extract.Reference
}

// Result is the assembled graph with its side outputs.
type Result struct {
	Graph    *graph.Graph
	External []ExternalReference
	Warnings []extract.Warning
}

// Build resolves references against declarations and assembles the
// graph. Duplicate declarations keep the first occurrence and warn;
// self-references are dropped, with a warning when the reference was
// conditional since that usually points at a count/for_each mistake.
func Build(in Input) (Result, error) {
	res := Result{Graph: graph.New()}

	decls := slices.Clone(in.Decls)
	slices.SortFunc(decls, func(a, b extract.Decl) int {
		if c := strings.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})

	for _, d := range decls {
		err := res.Graph.AddNode(graph.Node{ID: d.ID, Family: in.Family, Path: d.Path})
		switch {
		case err == nil:
		case errors.Is(err, graph.ErrDuplicateNodeID):
			first, _ := res.Graph.Node(d.ID)
			res.Warnings = append(res.Warnings, extract.Warning{
				Path:    d.Path,
				Message: fmt.Sprintf("duplicate declaration of %q, keeping %s", d.ID, first.Path),
			})
		default:
			return Result{}, fmt.Errorf("add node %q: %w", d.ID, err)
		}
	}

	refs := slices.Clone(in.Refs)
	slices.SortFunc(refs, compareRefs)

	seenExternal := make(map[ExternalReference]struct{})
	for _, r := range refs {
		target, ok := resolve(res.Graph, in.Family, r.Target)
		if !ok {
			ext := ExternalReference{Source: r.Source, Specifier: r.Target}
			if _, dup := seenExternal[ext]; !dup {
				seenExternal[ext] = struct{}{}
				res.External = append(res.External, ext)
			}
			continue
		}
		if target == r.Source {
			if r.Kind == graph.KindConditional {
				res.Warnings = append(res.Warnings, extract.Warning{
					Message: fmt.Sprintf("%s: conditional reference to itself dropped", r.Source),
				})
			}
			continue
		}
		if err := res.Graph.AddEdge(graph.Edge{From: r.Source, To: target, Kind: r.Kind}); err != nil {
			// Source not declared means the extractor emitted a reference
			// for an artifact it never declared; keep the run alive.
			res.Warnings = append(res.Warnings, extract.Warning{
				Message: fmt.Sprintf("reference %s -> %s: %v", r.Source, target, err),
			})
		}
	}

	slices.SortFunc(res.External, func(a, b ExternalReference) int {
		if c := strings.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return strings.Compare(a.Specifier, b.Specifier)
	})

	return res, nil
}

// resolve maps a reference target to a declared artifact ID. Exact match
// first; the Python family additionally trims trailing dotted segments
// so "pkg.mod.symbol" resolves to "pkg.mod" and a module import of
// "pkg.missing" falls back to the "pkg" package aggregate.
func resolve(g *graph.Graph, family graph.Family, target string) (string, bool) {
	if g.HasNode(target) {
		return target, true
	}
	if family != graph.FamilyPython {
		return "", false
	}
	for {
		i := strings.LastIndex(target, ".")
		if i < 0 {
			return "", false
		}
		target = target[:i]
		if g.HasNode(target) {
			return target, true
		}
	}
}

func compareRefs(a, b extract.Reference) int {
	if c := strings.Compare(a.Source, b.Source); c != 0 {
		return c
	}
	if c := strings.Compare(a.Target, b.Target); c != 0 {
		return c
	}
	return strings.Compare(string(a.Kind), string(b.Kind))
}
