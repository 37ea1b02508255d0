package registry

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/catalog/compiler/gen"
	"github.com/syssam/catalog/compiler/load"
)

// typeCode returns the Jennifer code spelling t.
func typeCode(t load.TypeRef) jen.Code {
	switch t.Kind {
	case load.TypeBasic, load.TypeParam:
		return jen.Id(t.Name)
	case load.TypeNamed:
		var s *jen.Statement
		if t.Pkg == "" {
			s = jen.Id(t.Name)
		} else {
			s = jen.Qual(t.Pkg, t.Name)
		}
		if len(t.Args) > 0 {
			args := make([]jen.Code, len(t.Args))
			for i, a := range t.Args {
				args[i] = typeCode(a)
			}
			s = s.Types(args...)
		}
		return s
	case load.TypePointer:
		return jen.Op("*").Add(typeCode(elem(t)))
	case load.TypeSlice:
		return jen.Index().Add(typeCode(elem(t)))
	case load.TypeArray:
		return jen.Index(jen.Lit(int(t.Len))).Add(typeCode(elem(t)))
	case load.TypeMap:
		key := load.Basic("any")
		if t.Key != nil {
			key = *t.Key
		}
		return jen.Map(typeCode(key)).Add(typeCode(elem(t)))
	case load.TypeChan:
		switch t.Dir {
		case load.ChanSend:
			return jen.Chan().Op("<-").Add(typeCode(elem(t)))
		case load.ChanRecv:
			return jen.Op("<-").Chan().Add(typeCode(elem(t)))
		}
		return jen.Chan().Add(typeCode(elem(t)))
	case load.TypeStruct:
		return jen.Struct()
	case load.TypeFunc:
		ps := make([]jen.Code, len(t.Params))
		for i, p := range t.Params {
			if t.Variadic && i == len(t.Params)-1 {
				ps[i] = jen.Op("...").Add(typeCode(elem(p)))
				continue
			}
			ps[i] = typeCode(p)
		}
		fn := jen.Func().Params(ps...)
		switch len(t.Results) {
		case 0:
			return fn
		case 1:
			return fn.Add(typeCode(t.Results[0]))
		}
		return fn.Params(results(t.Results)...)
	default:
		return jen.Interface()
	}
}

func elem(t load.TypeRef) load.TypeRef {
	if t.Elem == nil {
		return load.Basic("any")
	}
	return *t.Elem
}

// zeroLit returns the zero literal of a predeclared type.
func zeroLit(name string) *jen.Statement {
	switch name {
	case "string":
		return jen.Lit("")
	case "bool":
		return jen.False()
	case "error", "any":
		return jen.Nil()
	default:
		return jen.Lit(0)
	}
}

// defaultCode renders d. empty is the identifier of the catalog sentinel.
func defaultCode(d gen.Default, empty string) (jen.Code, error) {
	switch d.Kind {
	case gen.DefaultZero:
		return zeroLit(d.Type.Name), nil
	case gen.DefaultNil:
		return jen.Nil(), nil
	case gen.DefaultConvert:
		zero := jen.Lit(0)
		if u := d.Type.Underlying; u != nil {
			zero = zeroLit(u.Name)
		}
		return jen.Add(typeCode(d.Type)).Call(zero), nil
	case gen.DefaultComposite:
		return jen.Add(typeCode(d.Type)).Values(), nil
	case gen.DefaultAddr:
		return jen.Op("&").Add(typeCode(d.Type)).Values(), nil
	case gen.DefaultNew:
		return jen.New(typeCode(elem(d.Type))), nil
	case gen.DefaultSentinel:
		return jen.Id(empty), nil
	case gen.DefaultExpr:
		return jen.Id(d.Expr), nil
	}
	return nil, fmt.Errorf("no default for %s", d.Type)
}

// params returns the parameter list of a signature. Names are kept when
// named is set and replaced by the blank identifier otherwise.
func params(ps []load.Param, variadic, named bool) []jen.Code {
	out := make([]jen.Code, len(ps))
	for i, p := range ps {
		id := jen.Id("_")
		if named {
			id = jen.Id(paramName(p, i))
		}
		if variadic && i == len(ps)-1 && p.Type.Kind == load.TypeSlice {
			out[i] = id.Op("...").Add(typeCode(elem(p.Type)))
			continue
		}
		out[i] = id.Add(typeCode(p.Type))
	}
	return out
}

func paramName(p load.Param, i int) string {
	if p.Name == "" || p.Name == "_" {
		return fmt.Sprintf("p%d", i)
	}
	return p.Name
}

// results returns the result list of a signature.
func results(ts []load.TypeRef) []jen.Code {
	out := make([]jen.Code, len(ts))
	for i, t := range ts {
		out[i] = typeCode(t)
	}
	return out
}
