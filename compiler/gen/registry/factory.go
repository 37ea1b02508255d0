package registry

import (
	"fmt"
	"path"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/catalog/compiler/gen"
)

// factories declares one Create function per entry and public constructor.
func (g *generator) factories() error {
	used := make(map[string]bool)
	for _, e := range g.entries {
		res := g.result
		if r, ok := e.Result(); ok {
			res = typeCode(r)
		}
		for _, c := range e.Factories() {
			name := "Create" + e.Name() + c.Suffix()
			if used[name] {
				name = "Create" + upperFirst(path.Base(e.Type().Pkg)) + e.Name() + c.Suffix()
			}
			if used[name] {
				return fmt.Errorf("factory %s is declared twice", name)
			}
			used[name] = true
			g.factory(e, c, name, res)
		}
	}
	return nil
}

func (g *generator) factory(e *gen.Entry, c gen.Ctor, name string, res jen.Code) {
	var (
		ps   = c.Params()
		args = make([]jen.Code, len(ps))
	)
	for i, p := range ps {
		args[i] = jen.Id(paramName(p, i))
	}
	if c.Variadic() && len(args) > 0 {
		args[len(args)-1] = jen.Id(paramName(ps[len(ps)-1], len(ps)-1)).Op("...")
	}
	var build jen.Code
	switch {
	case c.Implicit() && c.Pointer():
		build = jen.Op("&").Add(typeCode(e.Type())).Values()
	case c.Implicit():
		build = jen.Add(typeCode(e.Type())).Values()
	default:
		build = jen.Qual(e.Type().Pkg, c.Name()).Call(args...)
	}
	what := "a new " + e.Name()
	if c.Name() != "" {
		what = "the result of " + c.Name()
	}
	g.f.Commentf("%s returns %s.", name, what)
	g.f.Func().Params(jen.Op("*").Id(g.regType)).Id(name).Params(params(ps, c.Variadic(), true)...).Add(res).Block(
		jen.Return(build),
	)
	g.factoryAccessors = append(g.factoryAccessors, accessor{
		name:    name,
		params:  params(ps, c.Variadic(), true),
		args:    args,
		results: []jen.Code{res},
	})
}
