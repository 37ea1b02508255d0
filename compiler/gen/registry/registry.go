// Package registry renders compiled catalogs into Go registries.
//
// Every catalog becomes one file holding the registry type, its sentinel
// value, the frozen lookup structures and the factories:
//
//	var Currencies = newCurrenciesRegistry()
//
//	usd := Currencies.GetByName("usd")
//	eur, ok := Currencies.TryGetByCode("EUR")
//
// Lookups never return nil: a miss yields the catalog sentinel, exposed as
// CurrenciesEmpty and Currencies.Empty().
package registry

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/catalog"
	"github.com/syssam/catalog/compiler/gen"
	"github.com/syssam/catalog/compiler/load"
)

const runtimePkg = "github.com/syssam/catalog"

// Emitter renders catalogs with Jennifer.
type Emitter struct{}

// New returns a registry emitter.
func New() *Emitter { return &Emitter{} }

// Emit renders the registry file of c.
func (*Emitter) Emit(cfg *gen.Config, c *gen.Catalog) (*jen.File, error) {
	g := newGenerator(cfg, c)
	if err := g.generate(); err != nil {
		return nil, gen.NewGenerationError("emit", c.FileName(), "render registry of "+c.Name(), err)
	}
	return g.f, nil
}

// Compile compiles the catalogs of reg with the registry emitter.
func Compile(ctx context.Context, reg load.Registry, opts ...gen.Option) (*gen.Result, error) {
	c, err := gen.New(reg, append([]gen.Option{gen.WithEmitter(New())}, opts...)...)
	if err != nil {
		return nil, err
	}
	return c.Compile(ctx)
}

// generator renders one catalog.
type generator struct {
	cfg *gen.Config
	c   *gen.Catalog
	f   *jen.File
	// result is the effective result type of accessors.
	result jen.Code
	// artifact is the exported registry identifier and lower its
	// unexported form.
	artifact, lower string
	// regType, empty, emptyType and ctor are generated identifiers.
	regType, empty, emptyType, ctor string
	// instance is the registry variable.
	instance string
	entries  []*gen.Entry
	// factoryAccessors are the factories forwarded in static mode.
	factoryAccessors []accessor
}

func newGenerator(cfg *gen.Config, c *gen.Catalog) *generator {
	f := jen.NewFilePathName(cfg.Package, cfg.PackageName())
	f.HeaderComment(cfg.Header)
	g := &generator{
		cfg:      cfg,
		c:        c,
		f:        f,
		result:   typeCode(c.Result()),
		artifact: c.Artifact(),
		lower:    lowerFirst(c.Artifact()),
		entries:  c.Entries(),
	}
	g.regType = g.lower + "Registry"
	g.empty = upperFirst(g.artifact) + "Empty"
	g.emptyType = "empty" + upperFirst(g.artifact)
	g.ctor = "new" + upperFirst(g.artifact) + "Registry"
	g.instance = g.artifact
	if c.Static() {
		g.instance = g.lower
	}
	return g
}

func (g *generator) generate() error {
	if err := g.sentinel(); err != nil {
		return err
	}
	if err := g.registry(); err != nil {
		return err
	}
	g.lookups()
	if g.c.Factories() {
		if err := g.factories(); err != nil {
			return err
		}
	}
	if g.c.Static() {
		g.static()
	}
	if g.c.Generic() {
		g.generic()
	}
	return nil
}

// registry declares the registry type, its constructor and instance.
func (g *generator) registry() error {
	id, hasID := g.c.Identity()
	g.f.Commentf("%s holds the entries of the %s catalog.", g.regType, g.c.Name())
	g.f.Type().Id(g.regType).StructFunc(func(s *jen.Group) {
		s.Id("all").Index().Add(g.result)
		if !g.switched() {
			s.Id("byName").Qual(runtimePkg, "FoldIndex").Types(g.result)
		}
		if hasID {
			s.Id("byID").Qual(runtimePkg, "IDIndex").Types(typeCode(id.IndexType()), g.result)
		}
		for _, k := range g.c.Keys() {
			if k.Multi() {
				s.Id(indexField(k)).Qual(runtimePkg, "MultiIndex").Types(typeCode(k.IndexType()), g.keyResult(k))
			} else {
				s.Id(indexField(k)).Qual(runtimePkg, "Index").Types(typeCode(k.IndexType()), g.keyResult(k))
			}
		}
	})
	var (
		body []jen.Code
		vals = make([]jen.Code, len(g.entries))
		n    = len(g.entries)
	)
	for i, e := range g.entries {
		build, err := g.construct(e.Type(), e.Instance())
		if err != nil {
			return err
		}
		body = append(body, jen.Id(entryVar(i)).Op(":=").Add(build))
		vals[i] = jen.Id(entryVar(i))
	}
	body = append(body, jen.Id("r").Op(":=").Op("&").Id(g.regType).Values(jen.Dict{
		jen.Id("all"): jen.Index().Add(g.result).Values(vals...),
	}))
	if !g.switched() {
		body = append(body, jen.Id("byName").Op(":=").Qual(runtimePkg, "NewFoldIndexBuilder").Types(g.result).Call(comparison(g.c), jen.Lit(n)))
		for i, e := range g.entries {
			body = append(body, jen.Id("byName").Dot("Add").Call(jen.Lit(e.DisplayName()), jen.Id(entryVar(i))))
		}
		body = append(body, jen.Id("r").Dot("byName").Op("=").Id("byName").Dot("Freeze").Call())
	}
	if hasID {
		body = append(body, jen.Id("byID").Op(":=").Qual(runtimePkg, "NewIDIndexBuilder").Types(typeCode(id.IndexType()), g.result).Call(jen.Lit(n)))
		for i := range g.entries {
			body = append(body, g.addKey(id, "byID", i))
		}
		body = append(body, jen.Id("r").Dot("byID").Op("=").Id("byID").Dot("Freeze").Call())
	}
	for _, k := range g.c.Keys() {
		b := indexField(k)
		builder := "NewIndexBuilder"
		if k.Multi() {
			builder = "NewMultiIndexBuilder"
		}
		body = append(body, jen.Id(b).Op(":=").Qual(runtimePkg, builder).Types(typeCode(k.IndexType()), g.keyResult(k)).Call(jen.Lit(n)))
		for i := range g.entries {
			body = append(body, g.addKey(k, b, i))
		}
		body = append(body, jen.Id("r").Dot(b).Op("=").Id(b).Dot("Freeze").Call())
	}
	body = append(body, jen.Return(jen.Id("r")))
	g.f.Func().Id(g.ctor).Params().Op("*").Id(g.regType).Block(body...)

	if !g.c.Static() {
		g.f.Commentf("%s is the registry of the %s catalog.", g.instance, g.c.Name())
	}
	g.f.Var().Id(g.instance).Op("=").Id(g.ctor).Call()
	return nil
}

// addKey returns the statement adding entry i to the index builder b.
// Elements of collection-valued multi keys are added individually and nil
// values of nullable keys are skipped.
func (g *generator) addKey(k *gen.Key, b string, i int) jen.Code {
	read := jen.Id(entryVar(i)).Dot(k.Member())
	if k.Kind() == load.MemberMethod {
		read = read.Call()
	}
	e := jen.Id(entryVar(i))
	switch {
	case k.Multi() && k.Collection() && k.Type().Resolved().Kind == load.TypeArray:
		if k.Kind() == load.MemberMethod {
			return jen.Block(
				jen.Id("v").Op(":=").Add(read),
				jen.Id(b).Dot("AddAll").Call(jen.Id("v").Index(jen.Empty(), jen.Empty()), e),
			)
		}
		return jen.Id(b).Dot("AddAll").Call(read.Index(jen.Empty(), jen.Empty()), e)
	case k.Multi() && k.Collection():
		return jen.Id(b).Dot("AddAll").Call(read, e)
	case k.Nullable():
		return jen.If(jen.Id("v").Op(":=").Add(read), jen.Id("v").Op("!=").Nil()).Block(
			jen.Id(b).Dot("Add").Call(jen.Id("v"), e),
		)
	}
	return jen.Id(b).Dot("Add").Call(read, e)
}

// construct returns the expression building a value of t with c.
func (g *generator) construct(t load.TypeRef, c gen.Ctor) (jen.Code, error) {
	if c.Implicit() {
		lit := jen.Add(typeCode(t)).Values()
		if c.Pointer() {
			return jen.Op("&").Add(lit), nil
		}
		return lit, nil
	}
	var args []jen.Code
	for _, p := range c.Required() {
		d, ok := gen.ParamDefault(p, g.c.Result())
		if !ok {
			return nil, errNoDefault(p)
		}
		code, err := defaultCode(d, g.empty)
		if err != nil {
			return nil, err
		}
		args = append(args, code)
	}
	return jen.Qual(t.Pkg, c.Name()).Call(args...), nil
}

// switched reports whether name lookups compile to a switch statement.
func (g *generator) switched() bool {
	t := g.cfg.SwitchThreshold
	return t >= 0 && len(g.entries) <= t
}

// keyResult returns the element type of the accessors of k.
func (g *generator) keyResult(k *gen.Key) jen.Code {
	if r, ok := k.Result(); ok {
		return typeCode(r)
	}
	return g.result
}

func comparison(c *gen.Catalog) jen.Code {
	if c.Comparison() == catalog.Ordinal {
		return jen.Qual(runtimePkg, "Ordinal")
	}
	return jen.Qual(runtimePkg, "IgnoreCase")
}

func indexField(k *gen.Key) string {
	return "by" + strings.TrimPrefix(k.Accessor(), "GetBy")
}

func entryVar(i int) string { return "e" + strconv.Itoa(i) }

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	// Leading initialisms are lowered as a whole: URLs becomes urls.
	i := 0
	for i < len(r) && unicode.IsUpper(r[i]) {
		i++
	}
	if i > 1 && i < len(r) && string(r[i:]) != "s" {
		i--
	}
	for j := 0; j < i || j == 0; j++ {
		r[j] = unicode.ToLower(r[j])
	}
	return string(r)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
