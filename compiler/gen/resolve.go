package gen

import (
	"context"
	"slices"
	"strings"

	"github.com/syssam/catalog/compiler/load"
)

// Resolver associates candidate declarations with catalogs by walking their
// shape chains.
type Resolver struct {
	reg load.Registry
	x   *Extractor
}

// NewResolver returns a resolver over reg.
func NewResolver(reg load.Registry, x *Extractor) *Resolver {
	return &Resolver{reg: reg, x: x}
}

// Match reports whether the shape chain of d reaches shape. The walk visits
// each declaration once, so cyclic chains terminate. A generic shape is
// matched by its unbound form; a non-generic shape never matches an
// instantiation.
func (r *Resolver) Match(ctx context.Context, d, shape *load.Decl) bool {
	if d.ID() == shape.ID() {
		return false
	}
	var (
		target = shape.ID()
		seen   = map[load.DeclID]bool{d.ID(): true}
		queue  = slices.Clone(d.Supertypes)
	)
	for len(queue) > 0 {
		st := queue[0]
		queue = queue[1:]
		id := st.Unbound().DeclID()
		if id == target && (shape.Generic() || !st.Generic()) {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		sd, err := r.reg.Lookup(ctx, st)
		if err != nil {
			continue
		}
		queue = append(queue, sd.Supertypes...)
	}
	return false
}

// member is a candidate admitted to a catalog.
type member struct {
	decl *load.Decl
	meta entryMeta
}

// Associate returns the candidates belonging to def in discovery order,
// with the targeting diagnostics found. Ambiguity is reported by the
// primary catalog of a shape only.
func (r *Resolver) Associate(ctx context.Context, def *definition, candidates []Candidate) ([]member, Diagnostics) {
	var (
		out   []member
		diags Diagnostics
	)
	for _, c := range candidates {
		d := c.Decl
		meta := r.x.Entry(ctx, d)
		matched := r.Match(ctx, d, def.shape)
		switch {
		case len(meta.targets) > 0:
			if !slices.Contains(meta.targets, def.name) {
				continue
			}
			if !matched {
				diags = append(diags, catalogDiag(def, Diagf(CodeTargetMismatch, d.Pos,
					"%s targets catalog %s but does not conform to %s", d.Name, def.name, def.shape.Name)))
				continue
			}
		case !matched:
			continue
		case def.siblings > 1:
			if def.primary {
				diags = append(diags, catalogDiag(def, Diagf(CodeAmbiguousTarget, d.Pos,
					"%s matches %d catalogs over %s; target one explicitly", d.Name, def.siblings, def.shape.Name)))
			}
			continue
		}
		if len(meta.problems) > 0 {
			for _, p := range meta.problems {
				diags = append(diags, catalogDiag(def, p))
			}
			continue
		}
		out = append(out, member{decl: d, meta: meta})
	}
	return out, diags
}

func catalogDiag(def *definition, d Diagnostic) Diagnostic {
	d.Catalog = def.name
	return d
}

// dedupe drops candidates whose declaration was seen before, keeping the
// first.
func dedupe(cs []Candidate) []Candidate {
	seen := make(map[load.DeclID]bool, len(cs))
	out := cs[:0:0]
	for _, c := range cs {
		if seen[c.Decl.ID()] {
			continue
		}
		seen[c.Decl.ID()] = true
		out = append(out, c)
	}
	return out
}

// unknownTargets reports entries targeting catalog names declared nowhere.
func unknownTargets(candidates []Candidate, names map[string]bool) Diagnostics {
	var diags Diagnostics
	for _, c := range candidates {
		if c.Decl.Entry == nil {
			continue
		}
		var missing []string
		for _, t := range c.Decl.Entry.Catalogs {
			if !names[t] {
				missing = append(missing, t)
			}
		}
		if len(missing) > 0 {
			d := Diagf(CodeTargetMismatch, c.Decl.Pos, "%s targets unknown catalog %s", c.Decl.Name, strings.Join(missing, ", "))
			d.Err = NewCatalogError("", c.Decl.Name, d.Message, nil)
			diags = append(diags, d)
		}
	}
	return diags
}
