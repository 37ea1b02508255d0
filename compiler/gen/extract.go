package gen

import (
	"context"
	"fmt"
	"go/token"
	"slices"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"

	"github.com/syssam/catalog"
	"github.com/syssam/catalog/compiler/load"
)

// definition is a catalog with its configuration resolved to defaults,
// before entries are associated.
type definition struct {
	shape      *load.Decl
	cfg        *load.CatalogConfig
	pos        load.Pos
	name       string
	artifact   string
	comparison catalog.Comparison
	factories  bool
	// primary marks the first catalog declared over the shape.
	primary bool
	// siblings counts the catalogs declared over the shape.
	siblings int
	// result is the effective result type and resultDecl its declaration.
	result     load.TypeRef
	resultDecl *load.Decl
	methods    []*load.Member
	identity   *keyDef
	keys       []*keyDef
	// problems are configuration errors found while resolving defaults.
	problems Diagnostics
}

// keyDef is a key as declared, before validation.
type keyDef struct {
	cfg    *load.KeyConfig
	member *load.Member
	pos    load.Pos
	result *load.TypeRef
}

// entryMeta is the entry configuration of a declaration with defaults
// applied.
type entryMeta struct {
	displayName string
	order       int
	targets     []string
	result      *load.TypeRef
	problems    Diagnostics
}

// Extractor reads catalog and entry configuration and resolves defaults.
type Extractor struct {
	reg   load.Registry
	taken map[string]bool
}

// NewExtractor returns an extractor resolving references through reg.
// Artifact names must not collide with the declarations named by taken,
// the declarations of the generated package.
func NewExtractor(reg load.Registry, taken ...string) *Extractor {
	x := &Extractor{reg: reg, taken: make(map[string]bool, len(taken))}
	for _, name := range taken {
		x.taken[name] = true
	}
	return x
}

// catalogName returns the logical name of a catalog declared over shape.
func catalogName(shape *load.Decl, cfg *load.CatalogConfig) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return shape.Name
}

// Catalog resolves the i-th catalog declared over shape.
func (x *Extractor) Catalog(ctx context.Context, shape *load.Decl, i int) *definition {
	cfg := shape.Catalogs[i]
	def := &definition{
		shape:     shape,
		cfg:       cfg,
		pos:       cfg.Pos,
		name:      catalogName(shape, cfg),
		factories: cfg.FactoriesEnabled(),
		primary:   i == 0,
		siblings:  len(shape.Catalogs),
	}
	if def.pos.File == "" {
		def.pos = shape.Pos
	}
	for _, other := range shape.Catalogs[:i] {
		if catalogName(shape, other) == def.name {
			def.problemf("catalog %q is declared twice on %s", def.name, shape.Name)
		}
	}
	def.artifact = cfg.Artifact
	if def.artifact == "" {
		def.artifact = plural(def.name)
		if x.clash(def.artifact) != "" {
			def.artifact = def.name + "Catalog"
		}
	}
	switch {
	case !token.IsIdentifier(def.artifact):
		def.problemf("artifact name %q is not a valid identifier", def.artifact)
	case x.clash(def.artifact) != "":
		def.problemf("artifact name %q collides with declaration %s; set artifact", def.artifact, x.clash(def.artifact))
	}
	cmp, err := catalog.ParseComparison(cfg.Comparison)
	if err != nil {
		def.problemf("%v", err)
	}
	def.comparison = cmp
	switch {
	case shape.Generic() && !cfg.Generic:
		def.problemf("shape %s is parametrized; set generic to compile it", shape.Name)
	case cfg.Generic && cfg.ResultType == "" && cfg.DefaultResultType == "":
		def.problemf("generic catalog %s requires result_type or default_result_type", def.name)
	}
	x.result(ctx, def)
	if def.resultDecl != nil {
		def.methods = methodSet(ctx, x.reg, def.resultDecl, def.result)
	}
	x.keys(ctx, def)
	return def
}

// clash returns the declaration of the generated package colliding with
// the package-level identifiers emitted for artifact, or "".
func (x *Extractor) clash(artifact string) string {
	for _, name := range []string{artifact, artifact + "Empty", artifact + "As", "empty" + artifact} {
		if x.taken[name] {
			return name
		}
	}
	return ""
}

// plural returns the plural of an identifier by inflecting its last word:
// OrderStatuses for OrderStatus.
func plural(name string) string { return inflectLast(name, inflect.Pluralize) }

// singular returns the singular of an identifier by inflecting its last
// word: ProductCategory for ProductCategories.
func singular(name string) string { return inflectLast(name, inflect.Singularize) }

// inflectLast applies fn to the last word of the camel-case name. The
// inflection rules match lower-case suffixes, so the word is lowered
// first and its leading capital restored after. Acronyms are inflected
// as written.
func inflectLast(name string, fn func(string) string) string {
	r := []rune(name)
	i := lastWord(r)
	word := r[i:]
	if len(word) == 0 {
		return name
	}
	if !unicode.IsUpper(word[0]) || string(word) == strings.ToUpper(string(word)) {
		return string(r[:i]) + fn(string(word))
	}
	out := []rune(fn(string(unicode.ToLower(word[0])) + string(word[1:])))
	if len(out) == 0 {
		return name
	}
	out[0] = unicode.ToUpper(out[0])
	return string(r[:i]) + string(out)
}

// lastWord returns the index of the first rune of the last word of r. A
// word starts at an upper-case rune following a lower-case rune or digit,
// or at the last upper-case rune of an acronym followed by a lower-case
// rune.
func lastWord(r []rune) int {
	for i := len(r) - 1; i > 0; i-- {
		if !unicode.IsUpper(r[i]) {
			continue
		}
		prev := r[i-1]
		if unicode.IsLower(prev) || unicode.IsDigit(prev) {
			return i
		}
		if i+1 < len(r) && unicode.IsLower(r[i+1]) {
			return i
		}
	}
	return 0
}

func (d *definition) problemf(format string, args ...any) {
	diag := Diagf(CodeUnsupportedConfig, d.pos, format, args...)
	diag.Catalog = d.name
	d.problems = append(d.problems, diag)
}

// result resolves the effective result type: the configured override, the
// default of a parametrized shape, the shape itself for interfaces, and the
// richest capability interface in the chain for structs.
func (x *Extractor) result(ctx context.Context, def *definition) {
	spec := def.cfg.ResultType
	if spec == "" && def.shape.Generic() {
		spec = def.cfg.DefaultResultType
	}
	if spec != "" {
		ref, d, err := x.resolveInterface(ctx, spec)
		if err != nil {
			def.problemf("result type: %v", err)
			return
		}
		def.result, def.resultDecl = ref, d
		return
	}
	if def.shape.Kind == load.KindInterface {
		def.result, def.resultDecl = def.shape.Ref(), def.shape
		return
	}
	var (
		best  *load.Decl
		bestN = -1
		ref   load.TypeRef
	)
	for _, st := range x.chain(ctx, def.shape) {
		d, err := x.reg.Lookup(ctx, st)
		if err != nil || d.Kind != load.KindInterface {
			continue
		}
		if n := len(methodSet(ctx, x.reg, d, st)); n > bestN {
			best, bestN, ref = d, n, st
		}
	}
	if best == nil {
		def.problemf("struct shape %s implements no capability interface to return", def.shape.Name)
		return
	}
	def.result, def.resultDecl = ref, best
}

// chain returns the shape chain above d in breadth-first order.
func (x *Extractor) chain(ctx context.Context, d *load.Decl) []load.TypeRef {
	var (
		out   []load.TypeRef
		seen  = map[load.DeclID]bool{d.ID(): true}
		queue = slices.Clone(d.Supertypes)
	)
	for len(queue) > 0 {
		st := queue[0]
		queue = queue[1:]
		if seen[st.DeclID()] {
			continue
		}
		seen[st.DeclID()] = true
		out = append(out, st)
		if sd, err := x.reg.Lookup(ctx, st); err == nil {
			queue = append(queue, sd.Supertypes...)
		}
	}
	return out
}

func (x *Extractor) resolveInterface(ctx context.Context, spec string) (load.TypeRef, *load.Decl, error) {
	ref, err := load.ParseTypeRef(spec)
	if err != nil {
		return load.TypeRef{}, nil, err
	}
	if ref.Kind != load.TypeNamed {
		return load.TypeRef{}, nil, fmt.Errorf("%s is not a named type", spec)
	}
	d, err := x.reg.Lookup(ctx, ref)
	if err != nil {
		return load.TypeRef{}, nil, err
	}
	if d.Kind != load.KindInterface {
		return load.TypeRef{}, nil, fmt.Errorf("%s is not an interface", spec)
	}
	return ref, d, nil
}

// keys collects the keys declared on shape members and in the catalog
// configuration, in that order, and the identity member.
func (x *Extractor) keys(ctx context.Context, def *definition) {
	all := members(ctx, x.reg, def.shape)
	var names []string
	for name, m := range all {
		if m.Key != nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		m := all[name]
		cfg := *m.Key
		cfg.Member = name
		def.keys = append(def.keys, x.key(ctx, def, &cfg, m, m.Pos))
	}
	for _, cfg := range def.cfg.Keys {
		def.keys = append(def.keys, x.key(ctx, def, cfg, all[cfg.Member], def.pos))
	}
	member := def.cfg.IDMember
	if member == "" {
		member = "ID"
	}
	m, ok := all[member]
	switch {
	case ok && m.Getter() && m.Results[0].IsInteger():
		def.identity = &keyDef{cfg: &load.KeyConfig{Member: member, Accessor: "GetBy" + member}, member: m, pos: m.Pos}
	case def.cfg.IDMember != "":
		def.problemf("identity member %s must be an integer property of %s", member, def.shape.Name)
	}
}

func (x *Extractor) key(ctx context.Context, def *definition, cfg *load.KeyConfig, m *load.Member, pos load.Pos) *keyDef {
	k := &keyDef{cfg: cfg, member: m, pos: pos}
	if cfg.ResultType == "" {
		return k
	}
	ref, _, err := x.resolveInterface(ctx, cfg.ResultType)
	if err != nil {
		def.problemf("key %s result type: %v", cfg.Member, err)
		return k
	}
	k.result = &ref
	return k
}

// accessor returns the accessor name of k. Collection keys are named after
// the element: GetByCategory for Categories.
func (k *keyDef) accessor() string {
	if k.cfg.Accessor != "" {
		return k.cfg.Accessor
	}
	name := k.cfg.Member
	if k.member != nil {
		if t, ok := k.member.Type(); ok && t.IsCollection() {
			name = singular(name)
		}
	}
	return "GetBy" + name
}

// Entry resolves the entry configuration of d.
func (x *Extractor) Entry(ctx context.Context, d *load.Decl) entryMeta {
	m := entryMeta{displayName: d.Name}
	cfg := d.Entry
	if cfg == nil {
		return m
	}
	if name := strings.TrimSpace(cfg.DisplayName); name != "" {
		m.displayName = name
	}
	m.order = cfg.Order
	m.targets = cfg.Catalogs
	if cfg.ResultType != "" {
		ref, _, err := x.resolveInterface(ctx, cfg.ResultType)
		if err != nil {
			m.problems = append(m.problems, Diagf(CodeUnsupportedConfig, d.Pos, "entry %s result type: %v", d.Name, err))
		} else {
			m.result = &ref
		}
	}
	return m
}
