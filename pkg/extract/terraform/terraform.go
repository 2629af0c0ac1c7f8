// Package terraform extracts inter-resource references from Terraform
// configuration files.
//
// Each resource, data source, and module block declares one artifact:
// "type.name" for resources, "data.type.name" for data sources, and
// "module.name" for module calls. References are collected by walking
// every expression in a declaring block's body, including expressions
// nested in string interpolation. Index and splat qualifiers
// ("name[0]", "name[count.index]", "name[*]") normalize to the bare
// target and mark the reference conditional; attribute tails past the
// addressing scheme are stripped.
//
// Files are parsed with HCL's native syntax parser only; JSON-flavored
// .tf.json files are out of scope.
package terraform

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/depscope/depscope/pkg/extract"
	"github.com/depscope/depscope/pkg/graph"
)

// Roots that address values rather than declared artifacts. Traversals
// starting at one of these never produce a reference.
var skipRoots = map[string]bool{
	"var":       true,
	"local":     true,
	"count":     true,
	"each":      true,
	"path":      true,
	"terraform": true,
	"self":      true,
}

// Extractor is the resource-style strategy for the Terraform family.
type Extractor struct{}

// New creates a Terraform extraction strategy.
func New() *Extractor { return &Extractor{} }

func (e *Extractor) Family() graph.Family { return graph.FamilyTerraform }

func (e *Extractor) Match(p string) bool {
	return strings.HasSuffix(p, ".tf") && !strings.HasSuffix(p, ".tf.json")
}

func (e *Extractor) Extract(p string, src []byte) (extract.FileResult, error) {
	var res extract.FileResult

	file, diags := hclsyntax.ParseConfig(src, p, hcl.InitialPos)
	if diags.HasErrors() {
		res.Warnings = append(res.Warnings, extract.Warning{Path: p, Message: diags.Error()})
	}
	if file == nil {
		return res, nil
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return res, nil
	}

	for _, block := range body.Blocks {
		id, ok := blockID(block)
		if !ok {
			continue
		}
		res.Decls = append(res.Decls, extract.Decl{ID: id, Path: p})
		res.Refs = append(res.Refs, blockRefs(id, block)...)
	}

	return res, nil
}

// blockID returns the artifact ID a top-level block declares, or false
// for non-declaring blocks (variable, output, locals, provider, ...).
func blockID(block *hclsyntax.Block) (string, bool) {
	switch block.Type {
	case "resource":
		if len(block.Labels) == 2 {
			return block.Labels[0] + "." + block.Labels[1], true
		}
	case "data":
		if len(block.Labels) == 2 {
			return "data." + block.Labels[0] + "." + block.Labels[1], true
		}
	case "module":
		if len(block.Labels) == 1 {
			return "module." + block.Labels[0], true
		}
	}
	return "", false
}

// blockRefs walks every expression under the block and collects the
// references its traversals express.
func blockRefs(source string, block *hclsyntax.Block) []extract.Reference {
	var refs []extract.Reference

	// Index and splat wrappers make the wrapped traversal conditional:
	// "web[count.index]" parses as an IndexExpr around the bare
	// "web" traversal, so the qualifier is only visible one level up.
	conditional := make(map[hclsyntax.Expression]bool)

	_ = hclsyntax.VisitAll(block.Body, func(node hclsyntax.Node) hcl.Diagnostics {
		switch expr := node.(type) {
		case *hclsyntax.IndexExpr:
			conditional[expr.Collection] = true
		case *hclsyntax.SplatExpr:
			conditional[expr.Source] = true
		case *hclsyntax.ScopeTraversalExpr:
			target, cond, ok := traversalTarget(expr.Traversal)
			if !ok {
				return nil
			}
			kind := graph.KindDirect
			if cond || conditional[expr] {
				kind = graph.KindConditional
			}
			refs = append(refs, extract.Reference{Source: source, Target: target, Kind: kind})
		case *hclsyntax.RelativeTraversalExpr:
			// The interesting part is the Source expression, which the
			// walk visits on its own; the relative tail is always an
			// attribute path past the target.
		}
		return nil
	})

	if block.Type == "module" {
		if spec, ok := moduleSource(block.Body); ok {
			refs = append(refs, extract.Reference{Source: source, Target: spec, Kind: graph.KindDirect})
		}
	}

	return refs
}

// traversalTarget maps an absolute traversal to the artifact ID it
// addresses. The second result reports whether a static index qualifier
// ("[0]") was folded into the traversal.
func traversalTarget(tr hcl.Traversal) (string, bool, bool) {
	if len(tr) == 0 {
		return "", false, false
	}
	root, ok := tr[0].(hcl.TraverseRoot)
	if !ok || skipRoots[root.Name] {
		return "", false, false
	}

	need := 1 // attribute steps past the root that complete the ID
	prefix := root.Name
	if root.Name == "data" {
		need = 2
	}

	parts := []string{prefix}
	indexed := false
	for _, step := range tr[1:] {
		switch s := step.(type) {
		case hcl.TraverseAttr:
			if len(parts) <= need {
				parts = append(parts, s.Name)
				continue
			}
			// First attribute past the ID starts the tail; an index
			// qualifier in the tail addresses a value, not an instance.
			return strings.Join(parts, "."), indexed, true
		case hcl.TraverseIndex:
			indexed = true
		}
	}
	if len(parts) < need+1 {
		return "", false, false
	}
	return strings.Join(parts, "."), indexed, true
}

// moduleSource statically evaluates a module block's source attribute.
// Remote and local sources alike are reported as references so that
// unresolved sources surface as external references in the result.
func moduleSource(body *hclsyntax.Body) (string, bool) {
	attr, ok := body.Attributes["source"]
	if !ok {
		return "", false
	}
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || !v.Type().Equals(cty.String) || v.IsNull() {
		return "", false
	}
	return v.AsString(), true
}
