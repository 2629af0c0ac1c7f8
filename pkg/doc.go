// Package pkg provides the core libraries for depscope dependency analysis.
//
// # Overview
//
// Depscope statically extracts inter-artifact references from a source tree,
// assembles the dependency graph, and derives structural facts from it:
// cycles, central artifacts, and per-artifact dependency closures. The pkg
// directory is organized into four main areas:
//
//  1. [extract] - Per-family extraction strategies (Python imports, Terraform references)
//  2. [graph] - The directed dependency graph and its builder
//  3. [analyze] - Derived analysis (cycle detection, centrality, closures)
//  4. [engine] - Orchestration (scan → extract → build → analyze) with caching
//
// # Architecture
//
// The typical data flow through depscope:
//
//	Source Tree
//	         ↓
//	    [scan] package (walk + read artifact files)
//	         ↓
//	    [extract] package (declarations + raw references per file)
//	         ↓
//	    [build] package (resolve references, assemble the graph)
//	         ↓
//	    [analyze] package (cycles, centrality)
//	         ↓
//	    JSON/DOT/SVG/GraphML output
//
// # Quick Start
//
// Analyze a tree and export the graph:
//
//	import (
//	    "context"
//	    "github.com/depscope/depscope/pkg/engine"
//	    "github.com/depscope/depscope/pkg/extract"
//	    "github.com/depscope/depscope/pkg/extract/python"
//	    "github.com/depscope/depscope/pkg/extract/terraform"
//	    "github.com/depscope/depscope/pkg/graph"
//	)
//
//	reg := extract.NewRegistry(python.New(), terraform.New())
//	eng := engine.New(reg, nil, nil)
//	res, _ := eng.Analyze(context.Background(), "./src", graph.FamilyPython, engine.Options{})
//	data, _ := eng.Export(context.Background(), res, "dot")
//
// # Main Packages
//
// ## Extraction
//
// [extract] - Family enum, declaration/reference model, the Extractor
// strategy interface, and the registry dispatching on family name. Each
// family has its own subpackage.
//
// [extract/python] - Module IDs from file paths, import and from-import
// statements, relative import normalization, wildcard imports.
//
// [extract/terraform] - HCL parsing of resource, data, and module blocks;
// expression traversals become references, index and splat access marks
// them conditional.
//
// [scan] - Tree walking and artifact reading with exclusion patterns.
//
// ## Graph Core
//
// [graph] - Directed dependency graph with kind-tagged edges and derived
// incoming/outgoing indexes. Cycles are legal; the analyzer reports them.
//
// [build] - Resolves extracted references against declared artifact IDs,
// separates external references, and produces a deterministically ordered
// graph regardless of input order.
//
// [analyze] - Strongly connected components (cycles), degree centrality,
// and transitive dependency/dependent closures.
//
// ## Orchestration
//
// [engine] - The query facade: runs the full pipeline with a bounded
// worker pool, memoizes results by content hash, and exposes per-node
// queries, summaries, and exporters.
//
// [export] - JSON interchange (round-trip), DOT, in-process SVG via
// Graphviz, and GraphML.
//
// [summary] - Condensed analysis report (counts, cycles, top-central
// artifacts, degree table).
//
// ## Infrastructure
//
// [cache] - Result cache interface with file, Redis, and null backends.
//
// [errors] - Code-based error taxonomy shared across packages.
//
// [observability] - Stage and cache hooks with no-op defaults.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...               # All tests
//	go test ./pkg/extract/...      # Specific package
//
// [extract]: https://pkg.go.dev/github.com/depscope/depscope/pkg/extract
// [extract/python]: https://pkg.go.dev/github.com/depscope/depscope/pkg/extract/python
// [extract/terraform]: https://pkg.go.dev/github.com/depscope/depscope/pkg/extract/terraform
// [scan]: https://pkg.go.dev/github.com/depscope/depscope/pkg/scan
// [graph]: https://pkg.go.dev/github.com/depscope/depscope/pkg/graph
// [build]: https://pkg.go.dev/github.com/depscope/depscope/pkg/build
// [analyze]: https://pkg.go.dev/github.com/depscope/depscope/pkg/analyze
// [engine]: https://pkg.go.dev/github.com/depscope/depscope/pkg/engine
// [export]: https://pkg.go.dev/github.com/depscope/depscope/pkg/export
// [summary]: https://pkg.go.dev/github.com/depscope/depscope/pkg/summary
// [cache]: https://pkg.go.dev/github.com/depscope/depscope/pkg/cache
// [errors]: https://pkg.go.dev/github.com/depscope/depscope/pkg/errors
// [observability]: https://pkg.go.dev/github.com/depscope/depscope/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/depscope/depscope/pkg/buildinfo
package pkg
