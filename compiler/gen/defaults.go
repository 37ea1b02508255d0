package gen

import "github.com/syssam/catalog/compiler/load"

// DefaultKind is the form of a canonical default value.
type DefaultKind uint8

// Canonical default forms.
const (
	// DefaultZero is the zero literal of a predeclared type: "", 0 or false.
	DefaultZero DefaultKind = iota
	// DefaultNil is the nil error.
	DefaultNil
	// DefaultConvert converts the zero literal of the underlying type: T(0).
	DefaultConvert
	// DefaultComposite is an empty composite literal: T{}.
	DefaultComposite
	// DefaultAddr is the address of an empty struct literal: &T{}.
	DefaultAddr
	// DefaultNew allocates a zero value: new(T).
	DefaultNew
	// DefaultSentinel is the empty value of the catalog.
	DefaultSentinel
	// DefaultExpr is an expression configured on a parameter.
	DefaultExpr
)

// Default describes a value safe to use where a caller supplies none.
type Default struct {
	Kind DefaultKind
	// Type is the type the default is spelled with.
	Type load.TypeRef
	// Expr is the source of a DefaultExpr.
	Expr string
}

// wellKnown lists standard library types whose underlying type is not
// always reported by registries.
var wellKnown = map[load.DeclID]DefaultKind{
	"time.Time":     DefaultComposite,
	"time.Duration": DefaultConvert,
	"time.Month":    DefaultConvert,
}

// DefaultOf returns the canonical default of t in a catalog returning
// result. Interfaces, functions, channels and type parameters have none,
// except the result type itself and error.
func DefaultOf(t, result load.TypeRef) (Default, bool) {
	d := Default{Type: t}
	switch t.Kind {
	case load.TypeBasic:
		switch t.Name {
		case "error":
			d.Kind = DefaultNil
		case "any":
			return d, false
		default:
			d.Kind = DefaultZero
		}
		return d, true
	case load.TypeNamed:
		if t.Unbound().DeclID() == result.Unbound().DeclID() {
			d.Kind = DefaultSentinel
			return d, true
		}
		if k, ok := wellKnown[t.DeclID()]; ok && t.Underlying == nil {
			d.Kind = k
			return d, true
		}
		if t.Underlying == nil {
			return d, false
		}
		switch u := *t.Underlying; u.Kind {
		case load.TypeBasic:
			if u.Name == "any" || u.Name == "error" {
				return d, false
			}
			d.Kind = DefaultConvert
		case load.TypeStruct, load.TypeSlice, load.TypeMap, load.TypeArray:
			d.Kind = DefaultComposite
		default:
			return d, false
		}
		return d, true
	case load.TypePointer:
		d.Kind = DefaultNew
		if e := t.Elem; e != nil && isStruct(*e) {
			d.Kind = DefaultAddr
			d.Type = *e
		}
		return d, true
	case load.TypeSlice, load.TypeMap, load.TypeArray, load.TypeStruct:
		d.Kind = DefaultComposite
		return d, true
	}
	return d, false
}

func isStruct(t load.TypeRef) bool {
	if t.Resolved().Kind == load.TypeStruct {
		return true
	}
	if t.Kind != load.TypeNamed || t.Underlying != nil {
		return false
	}
	k, ok := wellKnown[t.DeclID()]
	return ok && k == DefaultComposite
}

// ParamDefault returns the default of a parameter: its configured
// expression, or the canonical default of its type.
func ParamDefault(p load.Param, result load.TypeRef) (Default, bool) {
	if p.Default != nil {
		return Default{Kind: DefaultExpr, Type: p.Type, Expr: *p.Default}, true
	}
	return DefaultOf(p.Type, result)
}
