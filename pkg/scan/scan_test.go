package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/depscope/depscope/pkg/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func matchPy(p string) bool { return strings.HasSuffix(p, ".py") }

func paths(files []File) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "absent"), matchPy, Options{})
	if !errors.Is(err, errors.ErrCodeRootNotFound) {
		t.Errorf("got %v, want ROOT_NOT_FOUND", err)
	}
}

func TestScanFileAsRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "f.py", "")
	_, err := Scan(context.Background(), filepath.Join(root, "f.py"), matchPy, Options{})
	if !errors.Is(err, errors.ErrCodeRootNotFound) {
		t.Errorf("got %v, want ROOT_NOT_FOUND", err)
	}
}

func TestScanFiltersAndOrders(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.py", "import a")
	writeFile(t, root, "a/mod.py", "")
	writeFile(t, root, "a/readme.txt", "")
	writeFile(t, root, "__pycache__/cached.py", "")
	writeFile(t, root, ".hidden/secret.py", "")
	writeFile(t, root, "node_modules/dep.py", "")

	res, err := Scan(context.Background(), root, matchPy, Options{})
	if err != nil {
		t.Fatal(err)
	}

	got := paths(res.Files)
	want := []string{"a/mod.py", "b.py"}
	if len(got) != len(want) {
		t.Fatalf("Files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Files[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if string(res.Files[1].Data) != "import a" {
		t.Errorf("Data = %q, want file contents", res.Files[1].Data)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
}

func TestScanExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/main.py", "")
	writeFile(t, root, "app/main_test.py", "")
	writeFile(t, root, "gen/schema.py", "")

	res, err := Scan(context.Background(), root, matchPy, Options{
		Exclude: []string{"*_test.py", "gen/*"},
	})
	if err != nil {
		t.Fatal(err)
	}

	got := paths(res.Files)
	if len(got) != 1 || got[0] != "app/main.py" {
		t.Errorf("Files = %v, want [app/main.py]", got)
	}
}

func TestScanEmptyRoot(t *testing.T) {
	res, err := Scan(context.Background(), t.TempDir(), matchPy, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 0 || len(res.Warnings) != 0 {
		t.Errorf("empty root: files=%v warnings=%v", res.Files, res.Warnings)
	}
}

func TestScanCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Scan(ctx, root, matchPy, Options{}); err == nil {
		t.Error("cancelled context should abort the walk")
	}
}
