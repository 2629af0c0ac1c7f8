// Package scan enumerates candidate source files under an analysis root.
//
// Scanning is deliberately dumb: it walks the tree in lexical order,
// filters by a per-family match function, reads file contents, and
// reports unreadable files as warnings instead of failing the run. The
// only fatal condition is a missing root. Vendored and generated
// directories that never hold first-party sources are skipped wholesale.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/depscope/depscope/pkg/errors"
	"github.com/depscope/depscope/pkg/extract"
)

// Directories that are never part of the analyzed source set.
var skipDirs = map[string]bool{
	"__pycache__":  true,
	".terraform":   true,
	"node_modules": true,
	"venv":         true,
	".venv":        true,
}

// File is one matched source file with its contents loaded.
type File struct {
	Path string // slash-separated path relative to the root
	Data []byte
}

// Options controls a scan.
type Options struct {
	// Exclude holds path.Match glob patterns tested against each file's
	// root-relative path. Matching files are dropped silently.
	Exclude []string
}

// Result is the outcome of scanning a root.
type Result struct {
	Files    []File
	Warnings []extract.Warning
}

// Scan walks root and returns every file accepted by match, in lexical
// path order. A missing or non-directory root returns ROOT_NOT_FOUND;
// unreadable files inside the tree become warnings.
func Scan(ctx context.Context, root string, match func(path string) bool, opts Options) (Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeRootNotFound, err, "analysis root %q", root)
	}
	if !info.IsDir() {
		return Result{}, errors.New(errors.ErrCodeRootNotFound, "analysis root %q is not a directory", root)
	}

	var res Result
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			res.Warnings = append(res.Warnings, extract.Warning{Path: p, Message: walkErr.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if p != root && (skipDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !match(rel) || excluded(rel, opts.Exclude) {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			res.Warnings = append(res.Warnings, extract.Warning{Path: rel, Message: err.Error()})
			return nil
		}
		res.Files = append(res.Files, File{Path: rel, Data: data})
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// excluded reports whether rel matches any exclude pattern, either as a
// whole path or by its base name.
func excluded(rel string, patterns []string) bool {
	base := path.Base(rel)
	for _, pat := range patterns {
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
		if ok, _ := path.Match(pat, base); ok {
			return true
		}
	}
	return false
}
