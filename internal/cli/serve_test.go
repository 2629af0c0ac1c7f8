package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/depscope/depscope/pkg/cache"
	"github.com/depscope/depscope/pkg/engine"
	"github.com/depscope/depscope/pkg/graph"
)

func newTestServer(t *testing.T) *server {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"app/__init__.py": "",
		"app/main.py":     "import app.db\n",
		"app/db.py":       "import app.main\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	eng := engine.New(registry(), cache.NewNullCache(), nil)
	res, err := eng.Analyze(context.Background(), root, graph.FamilyPython, engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return newServer(eng, res, 5)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServeHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := get(t, srv.routes(), "/healthz")

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Depscope-Run"); got != srv.runID {
		t.Errorf("got run header %q, want %q", got, srv.runID)
	}
}

func TestServeCycles(t *testing.T) {
	srv := newTestServer(t)
	rec := get(t, srv.routes(), "/cycles")

	var body struct {
		Cycles [][]string `json:"cycles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Cycles) != 1 {
		t.Fatalf("got %d cycles, want 1: %v", len(body.Cycles), body.Cycles)
	}
}

func TestServeNeighbors(t *testing.T) {
	srv := newTestServer(t)
	rec := get(t, srv.routes(), "/nodes/app.main/dependencies")

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Artifacts []string `json:"artifacts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Artifacts) != 1 || body.Artifacts[0] != "app.db" {
		t.Errorf("got %v, want [app.db]", body.Artifacts)
	}
}

func TestServeNeighborsUnknownNode(t *testing.T) {
	srv := newTestServer(t)
	rec := get(t, srv.routes(), "/nodes/nope/dependents")

	if rec.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rec.Code)
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Code != "NODE_NOT_FOUND" {
		t.Errorf("got code %q, want NODE_NOT_FOUND", body.Code)
	}
}

func TestServeExport(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv.routes(), "/export/dot")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "digraph dependencies") {
		t.Errorf("DOT export missing header: %s", rec.Body.String())
	}

	rec = get(t, srv.routes(), "/export/yaml")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d for unknown format, want 400", rec.Code)
	}
}
