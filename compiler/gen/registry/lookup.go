package registry

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/catalog"
	"github.com/syssam/catalog/compiler/gen"
)

// accessor is a generated registry method, mirrored as a package function
// in static mode.
type accessor struct {
	name    string
	params  []jen.Code
	args    []jen.Code
	results []jen.Code
}

// lookups declares All, Empty and the name, identity and key lookups.
func (g *generator) lookups() {
	recv := jen.Id("r").Op("*").Id(g.regType)

	g.f.Comment("All returns the entries in display order.")
	g.f.Func().Params(recv.Clone()).Id("All").Params().Index().Add(g.result).Block(
		jen.Return(jen.Qual("slices", "Clone").Call(jen.Id("r").Dot("all"))),
	)
	g.f.Commentf("Empty returns %s.", g.empty)
	g.f.Func().Params(jen.Op("*").Id(g.regType)).Id("Empty").Params().Add(g.result).Block(
		jen.Return(jen.Id(g.empty)),
	)

	g.f.Commentf("TryGetByName returns the entry named name and reports whether it exists. Names are compared %s.", comparisonDoc(g.c))
	g.f.Func().Params(recv.Clone()).Id("TryGetByName").Params(jen.Id("name").String()).Params(g.result, jen.Bool()).BlockFunc(func(b *jen.Group) {
		if !g.switched() {
			g.tryIndex(b, jen.Id("r").Dot("byName").Dot("Get").Call(jen.Id("name")))
			return
		}
		g.nameSwitch(b)
	})
	g.getter("GetByName", "TryGetByName", "name", jen.String(), g.result,
		"GetByName returns the entry named name, or %s.")
	g.f.Comment("Lookup returns the entry named name, or a *catalog.NotFoundError.")
	g.f.Func().Params(recv.Clone()).Id("Lookup").Params(jen.Id("name").String()).Params(g.result, jen.Error()).Block(
		jen.If(jen.List(jen.Id("v"), jen.Id("ok")).Op(":=").Id("r").Dot("TryGetByName").Call(jen.Id("name")), jen.Id("ok")).Block(
			jen.Return(jen.Id("v"), jen.Nil()),
		),
		jen.Return(jen.Id(g.empty), jen.Qual(runtimePkg, "NewNotFoundError").Call(jen.Lit(g.c.Name()), jen.Id("name"))),
	)

	if id, ok := g.c.Identity(); ok {
		t := typeCode(id.IndexType())
		g.f.Comment("TryGetByID returns the entry with identity id and reports whether it exists.")
		g.f.Func().Params(recv.Clone()).Id("TryGetByID").Params(jen.Id("id").Add(t)).Params(g.result, jen.Bool()).BlockFunc(func(b *jen.Group) {
			g.tryIndex(b, jen.Id("r").Dot("byID").Dot("Get").Call(jen.Id("id")))
		})
		g.getter("GetByID", "TryGetByID", "id", t, g.result, "GetByID returns the entry with identity id, or %s.")
	}

	for _, k := range g.c.Keys() {
		t := typeCode(k.IndexType())
		res := g.keyResult(k)
		field := indexField(k)
		if k.Multi() {
			verb := "equals"
			if k.Collection() {
				verb = "contains"
			}
			g.f.Commentf("%s returns the entries whose %s %s key, in display order.", k.Accessor(), k.Member(), verb)
			g.f.Func().Params(recv.Clone()).Id(k.Accessor()).Params(jen.Id("key").Add(t)).Index().Add(res).Block(
				jen.Return(jen.Id("r").Dot(field).Dot("Get").Call(jen.Id("key"))),
			)
			continue
		}
		g.f.Commentf("%s returns the first entry whose %s equals key and reports whether it exists.", k.TryAccessor(), k.Member())
		g.f.Func().Params(recv.Clone()).Id(k.TryAccessor()).Params(jen.Id("key").Add(t)).Params(res, jen.Bool()).BlockFunc(func(b *jen.Group) {
			g.tryIndex(b, jen.Id("r").Dot(field).Dot("Get").Call(jen.Id("key")))
		})
		g.getter(k.Accessor(), k.TryAccessor(), "key", t, res,
			k.Accessor()+" returns the first entry whose "+k.Member()+" equals key, or %s.")
	}
}

// getter declares name as the never-nil form of try.
func (g *generator) getter(name, try, param string, t, res jen.Code, doc string) {
	g.f.Commentf(doc, g.empty)
	g.f.Func().Params(jen.Id("r").Op("*").Id(g.regType)).Id(name).Params(jen.Id(param).Add(t)).Add(res).Block(
		jen.List(jen.Id("v"), jen.Id("_")).Op(":=").Id("r").Dot(try).Call(jen.Id(param)),
		jen.Return(jen.Id("v")),
	)
}

// tryIndex writes the body of a try-lookup over a frozen index.
func (g *generator) tryIndex(b *jen.Group, get jen.Code) {
	b.If(jen.List(jen.Id("v"), jen.Id("ok")).Op(":=").Add(get), jen.Id("ok")).Block(
		jen.Return(jen.Id("v"), jen.True()),
	)
	b.Return(jen.Id(g.empty), jen.False())
}

// nameSwitch writes a name lookup over the normalized display names. The
// first entry wins when two names normalize alike.
func (g *generator) nameSwitch(b *jen.Group) {
	if len(g.entries) == 0 {
		b.Return(jen.Id(g.empty), jen.False())
		return
	}
	subject := jen.Qual(runtimePkg, "Fold").Call(jen.Id("name"))
	if g.c.Comparison() == catalog.Ordinal {
		subject = jen.Id("name")
	}
	seen := make(map[string]bool, len(g.entries))
	b.Switch(subject).BlockFunc(func(s *jen.Group) {
		for i, e := range g.entries {
			key := g.c.Comparison().Normalize(e.DisplayName())
			if seen[key] {
				continue
			}
			seen[key] = true
			s.Case(jen.Lit(key)).Block(jen.Return(jen.Id("r").Dot("all").Index(jen.Lit(i)), jen.True()))
		}
	})
	b.Return(jen.Id(g.empty), jen.False())
}

func comparisonDoc(c *gen.Catalog) string {
	if c.Comparison() == catalog.Ordinal {
		return "byte by byte"
	}
	return "ignoring case"
}

// static declares package functions forwarding to the unexported registry.
// The sentinel variable stands in for Empty.
func (g *generator) static() {
	fwd := []accessor{
		{name: "All", results: []jen.Code{jen.Index().Add(g.result)}},
		{name: "GetByName", params: []jen.Code{jen.Id("name").String()}, args: []jen.Code{jen.Id("name")}, results: []jen.Code{g.result}},
		{name: "TryGetByName", params: []jen.Code{jen.Id("name").String()}, args: []jen.Code{jen.Id("name")}, results: []jen.Code{g.result, jen.Bool()}},
		{name: "Lookup", params: []jen.Code{jen.Id("name").String()}, args: []jen.Code{jen.Id("name")}, results: []jen.Code{g.result, jen.Error()}},
	}
	if id, ok := g.c.Identity(); ok {
		t := typeCode(id.IndexType())
		fwd = append(fwd,
			accessor{name: "GetByID", params: []jen.Code{jen.Id("id").Add(t)}, args: []jen.Code{jen.Id("id")}, results: []jen.Code{g.result}},
			accessor{name: "TryGetByID", params: []jen.Code{jen.Id("id").Add(t)}, args: []jen.Code{jen.Id("id")}, results: []jen.Code{g.result, jen.Bool()}},
		)
	}
	for _, k := range g.c.Keys() {
		t := typeCode(k.IndexType())
		res := g.keyResult(k)
		if k.Multi() {
			fwd = append(fwd, accessor{name: k.Accessor(), params: []jen.Code{jen.Id("key").Add(t)}, args: []jen.Code{jen.Id("key")}, results: []jen.Code{jen.Index().Add(res)}})
			continue
		}
		fwd = append(fwd,
			accessor{name: k.Accessor(), params: []jen.Code{jen.Id("key").Add(t)}, args: []jen.Code{jen.Id("key")}, results: []jen.Code{res}},
			accessor{name: k.TryAccessor(), params: []jen.Code{jen.Id("key").Add(t)}, args: []jen.Code{jen.Id("key")}, results: []jen.Code{res, jen.Bool()}},
		)
	}
	fwd = append(fwd, g.factoryAccessors...)
	for _, a := range fwd {
		g.f.Commentf("%s%s is the package-level form of the %s accessor.", g.artifact, a.name, a.name)
		fn := g.f.Func().Id(g.artifact + a.name).Params(a.params...)
		if len(a.results) == 1 {
			fn.Add(a.results[0])
		} else {
			fn.Params(a.results...)
		}
		fn.Block(jen.Return(jen.Id(g.instance).Dot(a.name).Call(a.args...)))
	}
}

// generic declares a typed name lookup.
func (g *generator) generic() {
	g.f.Commentf("%sAs returns the entry named name as a T, and reports whether it exists and is a T.", g.artifact)
	g.f.Func().Id(g.artifact+"As").Types(jen.Id("T").Add(g.result)).Params(jen.Id("name").String()).Params(jen.Id("T"), jen.Bool()).Block(
		jen.List(jen.Id("v"), jen.Id("ok")).Op(":=").Id(g.instance).Dot("TryGetByName").Call(jen.Id("name")),
		jen.If(jen.Op("!").Id("ok")).Block(
			jen.Var().Id("zero").Id("T"),
			jen.Return(jen.Id("zero"), jen.False()),
		),
		jen.List(jen.Id("t"), jen.Id("ok")).Op(":=").Id("v").Assert(jen.Id("T")),
		jen.Return(jen.Id("t"), jen.Id("ok")),
	)
}
