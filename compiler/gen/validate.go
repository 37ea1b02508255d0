package gen

import (
	"context"
	"slices"
	"strings"

	"github.com/syssam/catalog/compiler/load"
)

// reserved are the accessor names every registry declares.
var reserved = []string{"All", "Empty", "GetByName", "Lookup", "TryGetByName"}

// Validator checks catalogs and their entries. Checks run in a fixed
// order: shape conformance, duplicate names, key rules and configuration.
type Validator struct {
	reg load.Registry
}

// NewValidator returns a validator resolving references through reg.
func NewValidator(reg load.Registry) *Validator {
	return &Validator{reg: reg}
}

// Entries checks conformance and name uniqueness. Entries failing either
// check are dropped; for duplicate names the first declared entry is kept.
func (v *Validator) Entries(ctx context.Context, def *definition, ms []member) ([]member, Diagnostics) {
	var (
		diags Diagnostics
		ok    = make([]member, 0, len(ms))
	)
	required := v.required(ctx, def)
	for _, m := range ms {
		have := members(ctx, v.reg, m.decl)
		var missing []string
		for _, name := range required {
			if _, found := have[name]; !found {
				missing = append(missing, name)
			}
		}
		if m.meta.result != nil {
			for _, name := range v.methodNames(ctx, *m.meta.result) {
				if _, found := have[name]; !found && !slices.Contains(missing, name) {
					missing = append(missing, name)
				}
			}
		}
		if len(missing) > 0 {
			diags = append(diags, catalogDiag(def, Diagf(CodeShapeConformance, m.decl.Pos,
				"%s does not conform to %s: missing %s", m.decl.Name, def.shape.Name, strings.Join(missing, ", "))))
			continue
		}
		ok = append(ok, m)
	}
	var (
		kept  = ok[:0]
		first = make(map[string]member, len(ok))
	)
	for _, m := range ok {
		name := def.comparison.Normalize(m.meta.displayName)
		if prev, dup := first[name]; dup {
			d := Diagf(CodeDuplicateName, m.decl.Pos, "duplicate entry name %q in catalog %s", m.meta.displayName, def.name)
			d.Related = []load.Pos{prev.decl.Pos}
			diags = append(diags, catalogDiag(def, d))
			continue
		}
		first[name] = m
		kept = append(kept, m)
	}
	return kept, diags
}

// required returns the member names every entry of def must have.
func (v *Validator) required(ctx context.Context, def *definition) []string {
	var names []string
	add := func(name string) {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	if def.shape.Kind == load.KindInterface {
		for _, m := range methodSet(ctx, v.reg, def.shape, def.shape.Ref()) {
			add(m.Name)
		}
	}
	for _, m := range def.methods {
		add(m.Name)
	}
	for _, k := range def.keys {
		if k.member != nil {
			add(k.cfg.Member)
		}
	}
	if def.identity != nil {
		add(def.identity.cfg.Member)
	}
	return names
}

func (v *Validator) methodNames(ctx context.Context, ref load.TypeRef) []string {
	d, err := v.reg.Lookup(ctx, ref)
	if err != nil {
		return nil
	}
	var names []string
	for _, m := range methodSet(ctx, v.reg, d, ref) {
		names = append(names, m.Name)
	}
	return names
}

// Catalog checks the key rules and the configuration of def.
func (v *Validator) Catalog(ctx context.Context, def *definition) Diagnostics {
	var diags Diagnostics
	report := func(code Code, pos load.Pos, format string, args ...any) {
		diags = append(diags, catalogDiag(def, Diagf(code, pos, format, args...)))
	}
	var (
		byMember   = make(map[string]bool)
		byAccessor = make(map[string]bool)
		rmethods   = make(map[string]bool, len(def.methods))
	)
	for _, m := range def.methods {
		rmethods[m.Name] = true
	}
	if def.identity != nil {
		byAccessor[def.identity.accessor()] = true
		byAccessor["Try"+def.identity.accessor()] = true
	}
	for _, k := range def.keys {
		member := k.cfg.Member
		if byMember[member] {
			report(CodeDuplicateKey, k.pos, "member %s is declared as a key more than once", member)
			continue
		}
		byMember[member] = true
		acc := k.accessor()
		if byAccessor[acc] || slices.Contains(reserved, acc) {
			report(CodeDuplicateKey, k.pos, "accessor %s of key %s is already declared", acc, member)
			continue
		}
		byAccessor[acc], byAccessor["Try"+acc] = true, true
		switch {
		case member == "":
			report(CodeUnsupportedConfig, k.pos, "key without member")
			continue
		case k.member == nil:
			report(CodeUnsupportedConfig, k.pos, "key member %s not found on %s", member, def.shape.Name)
			continue
		case !k.member.Getter():
			report(CodeUnsupportedConfig, k.pos, "key member %s must be a field or a method without parameters returning one value", member)
			continue
		}
		t := k.member.Results[0]
		switch res := t.Resolved(); {
		case dependsOnParams(t):
			report(CodeUnsupportedConfig, k.pos, "key %s depends on the type parameters of %s", member, def.shape.Name)
		case k.cfg.Multi && res.Kind == load.TypeMap:
			report(CodeUnsupportedConfig, k.pos, "multi key %s cannot index a map", member)
		case k.cfg.Multi && t.IsCollection() && !comparable(*res.Elem):
			report(CodeUnsupportedConfig, k.pos, "elements of key %s are not comparable", member)
		case (!k.cfg.Multi || !t.IsCollection()) && !comparable(t):
			report(CodeUnsupportedConfig, k.pos, "key %s of type %s is not comparable", member, t)
		}
		if k.result != nil {
			for _, name := range v.methodNames(ctx, *k.result) {
				if !rmethods[name] {
					report(CodeUnsupportedConfig, k.pos, "key %s result type %s requires %s, which %s does not provide", member, k.result, name, def.result)
					break
				}
			}
		}
	}
	return append(diags, def.problems...)
}

// comparable reports whether values of t can be map keys.
func comparable(t load.TypeRef) bool {
	switch r := t.Resolved(); r.Kind {
	case load.TypeSlice, load.TypeMap, load.TypeFunc:
		return false
	case load.TypeArray:
		return r.Elem == nil || comparable(*r.Elem)
	}
	return true
}
