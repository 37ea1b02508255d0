package gen

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/syssam/catalog/compiler/load"
)

// builder turns validated definitions into immutable catalogs.
type builder struct {
	reg load.Registry
	out OutputOptions
}

// build returns the catalog of def over the given entries. It reports the
// problems that make the catalog impossible to emit.
func (b *builder) build(ctx context.Context, def *definition, ms []member) (*Catalog, Diagnostics) {
	var diags Diagnostics
	fail := func(pos load.Pos, format string, args ...any) {
		diags = append(diags, catalogDiag(def, Diagf(CodeEmissionFailed, pos, format, args...)))
	}
	c := &Catalog{
		shape:      def.shape.Ref(),
		shapeKind:  def.shape.Kind,
		pos:        def.pos,
		name:       def.name,
		artifact:   def.artifact,
		comparison: def.comparison,
		factories:  def.factories,
		static:     def.cfg.Static,
		generic:    def.cfg.Generic,
		cross:      def.cfg.CrossModule,
		result:     def.result,
	}
	provided := make(map[string]bool)
	if def.shape.Kind == load.KindStruct {
		ctors := b.ctors(def.shape)
		i := instance(ctors, def.shape, b.out.Package, def.result)
		if i < 0 {
			fail(def.shape.Pos, "no constructor of %s can build the empty value", def.shape.Name)
		} else {
			c.base = &Base{typ: def.shape.Ref(), ctor: ctors[i]}
			if ctors[i].implicit {
				c.base.collections = collections(def.shape, b.out.Package)
			}
		}
		for name := range members(ctx, b.reg, def.shape) {
			provided[name] = true
		}
	}
	for _, m := range def.methods {
		if provided[m.Name] {
			continue
		}
		if t, ok := unspellable(m); ok {
			fail(m.Pos, "empty value cannot implement %s: %s cannot be written in generated code", m.Name, t)
			continue
		}
		for _, r := range m.Results {
			if _, ok := DefaultOf(r, def.result); !ok {
				fail(m.Pos, "empty value cannot implement %s: %s has no default", m.Name, r)
			}
		}
		c.methods = append(c.methods, Method{name: m.Name, params: m.Params, results: m.Results, variadic: m.Variadic})
	}
	if def.identity != nil {
		c.identity = def.identity.model()
	}
	for _, k := range def.keys {
		if t, ok := k.member.Type(); ok && !t.Spellable() {
			fail(k.pos, "key %s of type %s cannot be written in generated code", k.cfg.Member, t)
			continue
		}
		c.keys = append(c.keys, k.model())
	}
	slices.SortFunc(c.keys, func(a, b *Key) int { return strings.Compare(a.member, b.member) })
	for _, m := range ms {
		d := m.decl
		if !d.Exported && d.Module != load.ModuleID(b.out.Package) {
			fail(d.Pos, "entry %s is not accessible from package %s", d.Name, b.out.Package)
			continue
		}
		e := &Entry{
			id:          d.ID(),
			typ:         d.Ref(),
			pos:         d.Pos,
			displayName: m.meta.displayName,
			order:       m.meta.order,
			result:      m.meta.result,
			ctors:       b.ctors(d),
		}
		e.instance = instance(e.ctors, d, b.out.Package, def.result)
		if e.instance < 0 {
			fail(d.Pos, "no accessible constructor of %s can be called without arguments", d.Name)
			continue
		}
		if err := e.computeHash(); err != nil {
			fail(d.Pos, "hash entry %s: %v", d.Name, err)
			continue
		}
		c.entries = append(c.entries, e)
	}
	slices.SortStableFunc(c.entries, func(a, b *Entry) int { return cmp.Compare(a.order, b.order) })
	if len(diags) > 0 {
		return nil, diags
	}
	if err := c.computeHash(b.out); err != nil {
		fail(def.pos, "hash catalog %s: %v", def.name, err)
		return nil, diags
	}
	return c, nil
}

func (k *keyDef) model() *Key {
	t, _ := k.member.Type()
	return &Key{
		member:   k.cfg.Member,
		kind:     k.member.Kind,
		typ:      t,
		accessor: k.accessor(),
		multi:    k.cfg.Multi,
		result:   k.result,
	}
}

// collections returns the slice and map fields declared by d itself that
// pkg can set.
func collections(d *load.Decl, pkg string) []Field {
	var out []Field
	for _, m := range d.Members {
		if m.Kind != load.MemberField || m.Promoted || (!m.Exported && string(d.Module) != pkg) {
			continue
		}
		t, ok := m.Type()
		if !ok || !t.Spellable() {
			continue
		}
		if k := t.Resolved().Kind; k == load.TypeSlice || k == load.TypeMap {
			out = append(out, Field{name: m.Name, typ: t})
		}
	}
	return out
}

// unspellable returns the first parameter or result type of m that
// generated code cannot write.
func unspellable(m *load.Member) (load.TypeRef, bool) {
	for _, p := range m.Params {
		if !p.Type.Spellable() {
			return p.Type, true
		}
	}
	for _, r := range m.Results {
		if !r.Spellable() {
			return r, true
		}
	}
	return load.TypeRef{}, false
}

// ctors returns the constructors of d. Value constructors of declarations
// whose methods belong to the pointer type are skipped, as are
// constructors with parameters generated code cannot write.
func (b *builder) ctors(d *load.Decl) []Ctor {
	var out []Ctor
	for _, c := range d.Constructors {
		ptr := c.Pointer || (c.Implicit && d.Pointer)
		if d.Pointer && !ptr {
			continue
		}
		if slices.ContainsFunc(c.Params, func(p load.Param) bool { return !p.Type.Spellable() }) {
			continue
		}
		out = append(out, Ctor{
			name:     c.Name,
			params:   c.Params,
			exported: c.Exported,
			implicit: c.Implicit,
			pointer:  ptr,
			variadic: c.Variadic,
			suffix:   suffix(c, d.Name),
		})
	}
	return out
}

// suffix returns the factory suffix of c: the constructor name without
// the New prefix and the declaration name.
func suffix(c load.Constructor, name string) string {
	if c.Implicit {
		return ""
	}
	if s, ok := strings.CutPrefix(c.Name, "New"+name); ok {
		return s
	}
	if s, ok := strings.CutPrefix(c.Name, "New"); ok {
		return s
	}
	return c.Name
}

// instance returns the index of the lowest-arity constructor reachable from
// pkg whose required parameters all have defaults, or -1. Variadic
// parameters are left empty. Named constructors win ties over the
// composite literal.
func instance(ctors []Ctor, d *load.Decl, pkg string, result load.TypeRef) int {
	best := -1
	for i, c := range ctors {
		if !c.exported && string(d.Module) != pkg {
			continue
		}
		if !defaultable(c.Required(), result) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		prev := ctors[best]
		n, m := len(c.Required()), len(prev.Required())
		if n < m || (n == m && prev.implicit && !c.implicit) {
			best = i
		}
	}
	return best
}

func defaultable(params []load.Param, result load.TypeRef) bool {
	for _, p := range params {
		if _, ok := ParamDefault(p, result); !ok {
			return false
		}
	}
	return true
}
