package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/depscope/depscope/pkg/cache"
	"github.com/depscope/depscope/pkg/errors"
	"github.com/depscope/depscope/pkg/extract"
	"github.com/depscope/depscope/pkg/extract/python"
	"github.com/depscope/depscope/pkg/extract/terraform"
	"github.com/depscope/depscope/pkg/graph"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestEngine(c cache.Cache) *Engine {
	return New(extract.NewRegistry(python.New(), terraform.New()), c, nil)
}

func TestAnalyzePythonTree(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/__init__.py": "",
		"app/main.py":     "import app.db\nimport requests\n",
		"app/db.py":       "import app.main\n",
	})

	res, err := newTestEngine(nil).Analyze(context.Background(), root, graph.FamilyPython, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if res.Graph.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", res.Graph.NodeCount())
	}
	if got := res.Graph.Children("app.main"); len(got) != 1 || got[0] != "app.db" {
		t.Errorf("Children(app.main) = %v", got)
	}
	if len(res.External) != 1 || res.External[0].Specifier != "requests" {
		t.Errorf("External = %v", res.External)
	}
	if len(res.Analysis.Cycles) != 1 {
		t.Errorf("Cycles = %v, want the app.main/app.db cycle", res.Analysis.Cycles)
	}
}

func TestAnalyzeTerraformTree(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.tf": `
resource "aws_vpc" "main" {}

resource "aws_subnet" "a" {
  vpc_id = aws_vpc.main.id
}
`,
	})

	res, err := newTestEngine(nil).Analyze(context.Background(), root, graph.FamilyTerraform, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Graph.Children("aws_subnet.a"); len(got) != 1 || got[0] != "aws_vpc.main" {
		t.Errorf("Children(aws_subnet.a) = %v", got)
	}
}

func TestAnalyzeUnsupportedFamily(t *testing.T) {
	_, err := newTestEngine(nil).Analyze(context.Background(), t.TempDir(), "cobol", Options{})
	if !errors.Is(err, errors.ErrCodeUnsupportedFamily) {
		t.Errorf("got %v, want UNSUPPORTED_FAMILY", err)
	}
}

func TestAnalyzeMissingRoot(t *testing.T) {
	_, err := newTestEngine(nil).Analyze(context.Background(),
		filepath.Join(t.TempDir(), "absent"), graph.FamilyPython, Options{})
	if !errors.Is(err, errors.ErrCodeRootNotFound) {
		t.Errorf("got %v, want ROOT_NOT_FOUND", err)
	}
}

func TestAnalyzeEmptyRoot(t *testing.T) {
	res, err := newTestEngine(nil).Analyze(context.Background(), t.TempDir(), graph.FamilyPython, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Graph.NodeCount() != 0 || len(res.Warnings) != 0 {
		t.Errorf("empty root: nodes=%d warnings=%v", res.Graph.NodeCount(), res.Warnings)
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestEngine(nil).Analyze(ctx, root, graph.FamilyPython, Options{}); err == nil {
		t.Error("cancelled context should fail the run")
	}
}

// countingExtractor wraps the Python strategy to observe cache behavior.
type countingExtractor struct {
	inner *python.Extractor
	calls atomic.Int64
}

func (c *countingExtractor) Family() graph.Family { return c.inner.Family() }
func (c *countingExtractor) Match(p string) bool  { return c.inner.Match(p) }
func (c *countingExtractor) Extract(p string, src []byte) (extract.FileResult, error) {
	c.calls.Add(1)
	return c.inner.Extract(p, src)
}

func TestAnalyzeMemoization(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py": "import b\nfrom ...bad import x\n",
		"b.py": "",
	})

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	counting := &countingExtractor{inner: python.New()}
	eng := New(extract.NewRegistry(counting), fc, nil)
	ctx := context.Background()

	first, err := eng.Analyze(ctx, root, graph.FamilyPython, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if counting.calls.Load() != 2 {
		t.Fatalf("first run extracted %d files, want 2", counting.calls.Load())
	}

	second, err := eng.Analyze(ctx, root, graph.FamilyPython, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if counting.calls.Load() != 2 {
		t.Error("second run should be served from cache without extraction")
	}
	if second.Graph.EdgeCount() != first.Graph.EdgeCount() {
		t.Error("cached result differs from fresh result")
	}
	if len(second.Warnings) != len(first.Warnings) || len(second.Warnings) == 0 {
		t.Errorf("warnings not preserved through cache: %v", second.Warnings)
	}

	// Refresh bypasses the cache read.
	if _, err := eng.Analyze(ctx, root, graph.FamilyPython, Options{Refresh: true}); err != nil {
		t.Fatal(err)
	}
	if counting.calls.Load() != 4 {
		t.Errorf("refresh run extracted %d total, want 4", counting.calls.Load())
	}

	// A content change misses the old key.
	if err := os.WriteFile(filepath.Join(root, "b.py"), []byte("import a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Analyze(ctx, root, graph.FamilyPython, Options{}); err != nil {
		t.Fatal(err)
	}
	if counting.calls.Load() != 6 {
		t.Errorf("changed tree extracted %d total, want 6", counting.calls.Load())
	}
}

func TestExportFormats(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py": "import b\n",
		"b.py": "",
	})
	eng := newTestEngine(nil)
	ctx := context.Background()

	res, err := eng.Analyze(ctx, root, graph.FamilyPython, Options{})
	if err != nil {
		t.Fatal(err)
	}

	jsonOut, err := eng.Export(ctx, res, "json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(jsonOut), `"source": "a"`) {
		t.Errorf("json export missing edge: %s", jsonOut)
	}

	dotOut, err := eng.Export(ctx, res, "dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dotOut), `"a" -> "b"`) {
		t.Errorf("dot export missing edge: %s", dotOut)
	}

	gmlOut, err := eng.Export(ctx, res, "graphml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(gmlOut), "graphml") {
		t.Errorf("graphml export malformed: %s", gmlOut)
	}

	if _, err := eng.Export(ctx, res, "yaml"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Export(yaml) = %v, want INVALID_FORMAT", err)
	}
}

func TestQueries(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py": "import b\n",
		"b.py": "import c\n",
		"c.py": "",
	})
	eng := newTestEngine(nil)
	res, err := eng.Analyze(context.Background(), root, graph.FamilyPython, Options{})
	if err != nil {
		t.Fatal(err)
	}

	deps, err := eng.Dependencies(res, "a", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(deps) != 2 {
		t.Errorf("transitive deps = %v, want [b c]", deps)
	}

	parents, err := eng.Dependents(res, "c", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(parents) != 1 || parents[0] != "b" {
		t.Errorf("dependents = %v, want [b]", parents)
	}

	if _, err := eng.Dependencies(res, "ghost", false); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("got %v, want NODE_NOT_FOUND", err)
	}

	s := eng.Summarize(res, 2)
	if s.NodeCount != 3 || len(s.TopCentral) != 2 {
		t.Errorf("summary = %+v", s)
	}
}
