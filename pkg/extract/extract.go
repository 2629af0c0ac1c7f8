// Package extract defines the per-family reference extraction strategy
// interface and the registry the engine resolves strategies from.
//
// An extractor is a pure function of a file's path and contents: no
// filesystem access, no shared state, no ordering dependency between
// files. That keeps strategies trivially parallelizable and testable
// with in-memory fixtures. Each strategy owns its family's ID
// addressing scheme; a file may declare one artifact (module families)
// or several (resource families), so results carry declarations and
// references side by side.
package extract

import (
	"github.com/depscope/depscope/pkg/errors"
	"github.com/depscope/depscope/pkg/graph"
)

// Decl is one artifact declared by a file.
type Decl struct {
	ID   string // artifact ID in the family's addressing scheme
	Path string // declaring file, relative to the analysis root
}

// Reference is a raw, unresolved reference from a declared artifact to a
// target specifier. The target is resolved against the declared artifact
// set later, at graph construction.
type Reference struct {
	Source string         // ID of the referencing artifact
	Target string         // referenced specifier, family addressing scheme
	Kind   graph.EdgeKind // how the reference was expressed
}

// Warning records a non-fatal extraction problem tied to a file.
// Extraction never fails a whole analysis over one bad file.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return w.Path + ": " + w.Message
}

// FileResult is the outcome of extracting a single file.
type FileResult struct {
	Decls    []Decl
	Refs     []Reference
	Warnings []Warning
}

// Extractor is a single family's extraction strategy.
//
// Extract must be deterministic and side-effect free: same (path, src)
// in, same result out. Malformed input degrades to warnings inside the
// result; an error return is reserved for conditions that invalidate
// the whole analysis.
type Extractor interface {
	// Family returns the artifact family this strategy handles.
	Family() graph.Family

	// Match reports whether the file at the given relative path belongs
	// to this family.
	Match(path string) bool

	// Extract parses src and returns the artifacts the file declares and
	// the references it makes.
	Extract(path string, src []byte) (FileResult, error)
}

// Registry maps artifact families to their extraction strategies.
// The set of strategies is fixed at construction; there is no dynamic
// registration.
type Registry struct {
	byFamily map[graph.Family]Extractor
}

// NewRegistry creates a registry over the given strategies.
// A later strategy for the same family replaces an earlier one.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{byFamily: make(map[graph.Family]Extractor, len(extractors))}
	for _, ex := range extractors {
		r.byFamily[ex.Family()] = ex
	}
	return r
}

// Lookup returns the strategy for the given family.
// Returns an UNSUPPORTED_FAMILY error when no strategy is registered.
func (r *Registry) Lookup(family graph.Family) (Extractor, error) {
	ex, ok := r.byFamily[family]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedFamily,
			"no extraction strategy for family %q", family)
	}
	return ex, nil
}

// Families returns the registered families in unspecified order.
func (r *Registry) Families() []graph.Family {
	families := make([]graph.Family, 0, len(r.byFamily))
	for f := range r.byFamily {
		families = append(families, f)
	}
	return families
}
