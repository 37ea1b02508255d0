package registry

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/catalog/compiler/gen"
	"github.com/syssam/catalog/compiler/load"
)

func errNoDefault(p load.Param) error {
	return fmt.Errorf("parameter %s of type %s has no default", p.Name, p.Type)
}

// sentinel declares the empty value: a struct embedding the base of
// struct-based shapes and implementing the remaining methods with canonical
// defaults.
func (g *generator) sentinel() error {
	base, hasBase := g.c.Base()
	if hasBase && base.Type().Generic() {
		return fmt.Errorf("generic base %s cannot be embedded", base.Type())
	}
	g.f.Commentf("%s is the empty value of the %s catalog.", g.emptyType, g.c.Name())
	g.f.Type().Id(g.emptyType).StructFunc(func(s *jen.Group) {
		if hasBase {
			s.Add(typeCode(base.Type()))
		}
	})
	for _, m := range g.c.Methods() {
		var rets []jen.Code
		for _, r := range m.Results() {
			d, ok := gen.DefaultOf(r, g.c.Result())
			if !ok {
				return fmt.Errorf("result %s of %s has no default", r, m.Name())
			}
			code, err := defaultCode(d, g.empty)
			if err != nil {
				return err
			}
			rets = append(rets, code)
		}
		fn := g.f.Func().Params(jen.Op("*").Id(g.emptyType)).Id(m.Name()).Params(params(m.Params(), m.Variadic(), false)...)
		switch rs := m.Results(); len(rs) {
		case 0:
			fn.Block()
		case 1:
			fn.Add(typeCode(rs[0])).Block(jen.Return(rets...))
		default:
			fn.Params(results(rs)...).Block(jen.Return(rets...))
		}
	}
	value := jen.Op("&").Id(g.emptyType).Values()
	if hasBase {
		var build jen.Code
		switch c := base.Ctor(); {
		case c.Implicit():
			fields := jen.Dict{}
			for _, f := range base.Collections() {
				fields[jen.Id(f.Name())] = jen.Add(typeCode(f.Type())).Values()
			}
			build = jen.Add(typeCode(base.Type())).Values(fields)
		default:
			call, err := g.construct(base.Type(), c)
			if err != nil {
				return err
			}
			build = call
			if c.Pointer() {
				build = jen.Op("*").Add(call)
			}
		}
		value = jen.Op("&").Id(g.emptyType).Values(jen.Dict{
			jen.Id(base.Type().Name): build,
		})
	}
	g.f.Commentf("%s is returned by lookups that find no %s entry.", g.empty, g.c.Name())
	g.f.Var().Id(g.empty).Add(g.result).Op("=").Add(value)
	return nil
}
