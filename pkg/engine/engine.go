// Package engine ties the analysis stages together behind one facade.
//
// Analyze runs scan -> extract -> build -> analyze and returns an
// immutable result snapshot. Extraction fans out over a bounded worker
// pool; every other stage is a single-threaded pass, so results are
// deterministic regardless of worker count. Analysis results are
// memoized through a content-addressed cache: the key covers the family
// and every scanned file's digest, which makes stale hits impossible
// without any invalidation logic.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/depscope/depscope/pkg/analyze"
	"github.com/depscope/depscope/pkg/build"
	"github.com/depscope/depscope/pkg/cache"
	"github.com/depscope/depscope/pkg/errors"
	"github.com/depscope/depscope/pkg/export"
	"github.com/depscope/depscope/pkg/extract"
	"github.com/depscope/depscope/pkg/graph"
	"github.com/depscope/depscope/pkg/observability"
	"github.com/depscope/depscope/pkg/scan"
	"github.com/depscope/depscope/pkg/summary"
)

// Options controls one analysis run.
type Options struct {
	// Workers bounds the extraction pool. Zero means runtime.NumCPU.
	Workers int

	// Refresh bypasses cache reads (the result is still stored).
	Refresh bool

	// Exclude holds glob patterns for files to skip during scanning.
	Exclude []string
}

// Result is the immutable outcome of one analysis run.
type Result struct {
	Graph    *graph.Graph
	Analysis analyze.Analysis
	External []build.ExternalReference
	Warnings []extract.Warning

	// Cached reports whether the result was served from the cache.
	Cached bool
}

// Engine is the query facade over the analysis stages. Construct with
// [New]; the zero value is not usable.
type Engine struct {
	registry *extract.Registry
	cache    cache.Cache
	log      *log.Logger
}

// New creates an engine. A nil cache disables memoization and a nil
// logger discards output.
func New(registry *extract.Registry, c cache.Cache, logger *log.Logger) *Engine {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{registry: registry, cache: c, log: logger}
}

// cachedRun is the cache payload: the interchange document plus the
// warnings collected when it was produced, so a cache hit reports the
// same diagnostics as the original run.
type cachedRun struct {
	Document export.Document   `json:"document"`
	Warnings []extract.Warning `json:"warnings,omitempty"`
}

// Analyze scans root, extracts references for the family, builds the
// graph, and derives the analysis. Fatal errors are a missing root, an
// unknown family, and context cancellation; everything else degrades to
// warnings in the result.
func (e *Engine) Analyze(ctx context.Context, root string, family graph.Family, opts Options) (*Result, error) {
	ex, err := e.registry.Lookup(family)
	if err != nil {
		return nil, err
	}

	hooks := observability.Engine()
	scanStart := time.Now()
	hooks.OnScanStart(ctx, root, string(family))
	scanned, err := scan.Scan(ctx, root, ex.Match, scan.Options{Exclude: opts.Exclude})
	hooks.OnScanComplete(ctx, root, string(family), len(scanned.Files), time.Since(scanStart), err)
	if err != nil {
		return nil, err
	}
	e.log.Debug("scan complete", "root", root, "files", len(scanned.Files))

	digests := make(map[string]string, len(scanned.Files))
	for _, f := range scanned.Files {
		digests[f.Path] = cache.Hash(f.Data)
	}
	key := cache.AnalysisKey(string(family), digests)

	if !opts.Refresh {
		if res, ok := e.fromCache(ctx, key); ok {
			e.log.Debug("cache hit", "key", key)
			return res, nil
		}
	}

	declsRefs, warnings, err := e.extractAll(ctx, ex, scanned.Files, opts.Workers)
	if err != nil {
		return nil, err
	}
	warnings = append(scanned.Warnings, warnings...)

	buildStart := time.Now()
	built, err := build.Build(build.Input{Family: family, Decls: declsRefs.decls, Refs: declsRefs.refs})
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, built.Warnings...)
	hooks.OnBuildComplete(ctx, built.Graph.NodeCount(), built.Graph.EdgeCount(), len(built.External), time.Since(buildStart))

	analyzeStart := time.Now()
	analysis := analyze.Run(built.Graph)
	hooks.OnAnalyzeComplete(ctx, len(analysis.Cycles), time.Since(analyzeStart))

	res := &Result{
		Graph:    built.Graph,
		Analysis: analysis,
		External: built.External,
		Warnings: warnings,
	}
	e.toCache(ctx, key, res)
	return res, nil
}

type extracted struct {
	decls []extract.Decl
	refs  []extract.Reference
}

// extractAll fans the files out over a worker pool. Collection order is
// irrelevant because the builder sorts its inputs.
func (e *Engine) extractAll(ctx context.Context, ex extract.Extractor, files []scan.File, workers int) (extracted, []extract.Warning, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	hooks := observability.Engine()
	start := time.Now()
	hooks.OnExtractStart(ctx, string(ex.Family()), len(files))

	var (
		mu       sync.Mutex
		out      extracted
		warnings []extract.Warning
	)

	jobs := make(chan scan.File)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				if ctx.Err() != nil {
					continue
				}
				res, err := ex.Extract(f.Path, f.Data)
				mu.Lock()
				if err != nil {
					warnings = append(warnings, extract.Warning{Path: f.Path, Message: err.Error()})
				} else {
					out.decls = append(out.decls, res.Decls...)
					out.refs = append(out.refs, res.Refs...)
					warnings = append(warnings, res.Warnings...)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, f := range files {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- f:
		}
	}
	close(jobs)
	wg.Wait()

	err := ctx.Err()
	hooks.OnExtractComplete(ctx, string(ex.Family()), len(out.decls), len(out.refs), time.Since(start), err)
	if err != nil {
		return extracted{}, nil, err
	}
	return out, warnings, nil
}

func (e *Engine) fromCache(ctx context.Context, key string) (*Result, bool) {
	data, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.log.Warn("cache read failed", "err", err)
		return nil, false
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, "analysis")
		return nil, false
	}

	var run cachedRun
	if err := json.Unmarshal(data, &run); err != nil {
		_ = e.cache.Delete(ctx, key)
		return nil, false
	}
	res, err := FromDocument(run.Document)
	if err != nil {
		_ = e.cache.Delete(ctx, key)
		return nil, false
	}
	res.Warnings = run.Warnings
	res.Cached = true
	observability.Cache().OnCacheHit(ctx, "analysis")
	return res, true
}

func (e *Engine) toCache(ctx context.Context, key string, res *Result) {
	run := cachedRun{
		Document: export.FromGraph(res.Graph, res.Analysis, res.External),
		Warnings: res.Warnings,
	}
	data, err := json.Marshal(run)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, data, 0); err != nil {
		e.log.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "analysis", len(data))
}

// FromDocument reconstructs a result from an interchange document, for
// cache hits and for queries against previously exported files.
func FromDocument(doc export.Document) (*Result, error) {
	g, err := export.ToGraph(doc)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Graph:    g,
		Analysis: analyze.Analysis{Cycles: doc.Cycles},
	}
	for _, s := range doc.Centrality {
		res.Analysis.Centrality = append(res.Analysis.Centrality, analyze.Score{ID: s.ID, Score: s.Score})
	}
	for _, x := range doc.ExternalReferences {
		res.External = append(res.External, build.ExternalReference{Source: x.Source, Specifier: x.Specifier})
	}
	// Hand-edited documents may carry stale derived views; recompute
	// when they are missing so queries stay consistent.
	if res.Analysis.Cycles == nil && res.Analysis.Centrality == nil {
		res.Analysis = analyze.Run(g)
	}
	return res, nil
}

// Dependencies returns the artifacts id depends on, optionally the full
// transitive closure.
func (e *Engine) Dependencies(res *Result, id string, transitive bool) ([]string, error) {
	return analyze.DependenciesOf(res.Graph, id, transitive)
}

// Dependents returns the artifacts depending on id, optionally the full
// transitive closure.
func (e *Engine) Dependents(res *Result, id string, transitive bool) ([]string, error) {
	return analyze.DependentsOf(res.Graph, id, transitive)
}

// Summarize condenses the result, keeping the topN most central nodes.
func (e *Engine) Summarize(res *Result, topN int) summary.Summary {
	return summary.Build(res.Graph, res.Analysis, res.External, topN)
}

// Export serializes the result in the given format: "json", "dot",
// "svg", or "graphml". Unknown formats return INVALID_FORMAT.
func (e *Engine) Export(ctx context.Context, res *Result, format string) ([]byte, error) {
	switch format {
	case "json":
		var buf bytes.Buffer
		if err := export.WriteJSON(export.FromGraph(res.Graph, res.Analysis, res.External), &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "dot":
		return []byte(export.ToDOT(res.Graph)), nil
	case "svg":
		return export.RenderSVG(ctx, export.ToDOT(res.Graph))
	case "graphml":
		var buf bytes.Buffer
		if err := export.WriteGraphML(res.Graph, res.Analysis, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"unknown export format %q (want json, dot, svg, or graphml)", format)
	}
}
