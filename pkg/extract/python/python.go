// Package python extracts import references from Python source files.
//
// Artifacts are addressed by dotted module path derived from the file
// path: "app/db/models.py" declares "app.db.models", and a package
// __init__.py declares the package itself ("app/db/__init__.py" declares
// "app.db"). Extraction is line-based pattern matching, not a full
// parse: imports inside conditionals and function bodies are picked up,
// dynamic imports (importlib, __import__) are not.
package python

import (
	"bufio"
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/depscope/depscope/pkg/extract"
	"github.com/depscope/depscope/pkg/graph"
)

var (
	importRE = regexp.MustCompile(`^\s*import\s+(.+)$`)
	fromRE   = regexp.MustCompile(`^\s*from\s+(\.*[\w.]*)\s+import\s+(.+)$`)
)

// Extractor is the import-style strategy for the Python family.
type Extractor struct{}

// New creates a Python extraction strategy.
func New() *Extractor { return &Extractor{} }

func (e *Extractor) Family() graph.Family { return graph.FamilyPython }

func (e *Extractor) Match(p string) bool { return strings.HasSuffix(p, ".py") }

// ModuleID converts a root-relative file path to its dotted module ID.
// "__init__.py" collapses to the containing package; a root-level
// __init__.py keeps the literal name since it has no containing package.
func ModuleID(p string) string {
	p = strings.TrimSuffix(p, ".py")
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	parts := strings.Split(p, "/")
	if parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
		if len(parts) == 0 {
			return "__init__"
		}
	}
	return strings.Join(parts, ".")
}

func (e *Extractor) Extract(p string, src []byte) (extract.FileResult, error) {
	id := ModuleID(p)
	res := extract.FileResult{
		Decls: []extract.Decl{{ID: id, Path: p}},
	}

	// The containing package, used to anchor relative imports. For an
	// __init__.py the module is the package.
	pkg := id
	if !strings.HasSuffix(p, "__init__.py") {
		if i := strings.LastIndex(id, "."); i >= 0 {
			pkg = id[:i]
		} else {
			pkg = ""
		}
	}

	inString := false
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		// Triple-quoted strings hide anything that looks like an import.
		// Toggling on quote count handles the common docstring layouts;
		// a quote pair opened and closed on one line cancels out.
		if n := strings.Count(line, `"""`) + strings.Count(line, "'''"); n%2 == 1 {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if m := fromRE.FindStringSubmatch(line); m != nil {
			target, warn := resolveFrom(m[1], pkg)
			if warn != "" {
				res.Warnings = append(res.Warnings, extract.Warning{Path: p, Message: warn})
				continue
			}
			kind := graph.KindDirect
			if strings.Contains(m[2], "*") {
				kind = graph.KindWildcard
			}
			res.Refs = append(res.Refs, extract.Reference{Source: id, Target: target, Kind: kind})
			continue
		}

		if m := importRE.FindStringSubmatch(line); m != nil {
			for _, target := range splitImports(m[1]) {
				res.Refs = append(res.Refs, extract.Reference{Source: id, Target: target, Kind: graph.KindDirect})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		res.Warnings = append(res.Warnings, extract.Warning{Path: p, Message: "scan aborted: " + err.Error()})
	}

	return res, nil
}

// resolveFrom turns the module part of a from-import into an absolute
// dotted path, anchoring leading dots against the importing package.
// Returns a warning message when the relative import climbs past the
// analysis root.
func resolveFrom(module, pkg string) (string, string) {
	dots := 0
	for dots < len(module) && module[dots] == '.' {
		dots++
	}
	rest := module[dots:]

	if dots == 0 {
		return rest, ""
	}

	base := ""
	if pkg != "" {
		parts := strings.Split(pkg, ".")
		up := dots - 1
		if up > len(parts) {
			return "", fmt.Sprintf("relative import %q escapes the analyzed tree", module)
		}
		base = strings.Join(parts[:len(parts)-up], ".")
	} else if dots > 1 {
		return "", fmt.Sprintf("relative import %q escapes the analyzed tree", module)
	}

	switch {
	case base == "":
		if rest == "" {
			return "", fmt.Sprintf("relative import %q has no resolvable target", module)
		}
		return rest, ""
	case rest == "":
		return base, ""
	default:
		return base + "." + rest, ""
	}
}

// splitImports breaks "a.b as x, c.d" into its module targets.
func splitImports(clause string) []string {
	var targets []string
	for _, part := range strings.Split(clause, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i := strings.Index(part, " as "); i >= 0 {
			part = part[:i]
		}
		part = strings.TrimSpace(strings.TrimSuffix(part, ";"))
		if part == "" || !validModulePath(part) {
			continue
		}
		targets = append(targets, part)
	}
	return targets
}

func validModulePath(s string) bool {
	for _, seg := range strings.Split(s, ".") {
		if seg == "" {
			return false
		}
		for i, r := range seg {
			if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
				continue
			}
			if i > 0 && r >= '0' && r <= '9' {
				continue
			}
			return false
		}
	}
	return true
}
