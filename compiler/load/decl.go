package load

import (
	"fmt"
	"strconv"
	"strings"
)

// ModuleID identifies a compilation module. For Go hosts it is the package
// import path.
type ModuleID string

// DeclID is the module-qualified name of a declaration.
type DeclID string

// Module returns the module part of the identifier.
func (id DeclID) Module() ModuleID {
	if i := strings.LastIndexByte(string(id), '.'); i >= 0 {
		return ModuleID(id[:i])
	}
	return ""
}

// Name returns the unqualified declaration name.
func (id DeclID) Name() string {
	if i := strings.LastIndexByte(string(id), '.'); i >= 0 {
		return string(id[i+1:])
	}
	return string(id)
}

// NewDeclID returns the identifier of name declared in m.
func NewDeclID(m ModuleID, name string) DeclID {
	if m == "" {
		return DeclID(name)
	}
	return DeclID(string(m) + "." + name)
}

// Pos describes a source location.
type Pos struct {
	File   string `json:"file,omitempty" msgpack:"file,omitempty"`
	Line   int    `json:"line,omitempty" msgpack:"line,omitempty"`
	Column int    `json:"column,omitempty" msgpack:"column,omitempty"`
}

// String returns the file:line:column form of p.
func (p Pos) String() string {
	switch {
	case p.File == "":
		return "-"
	case p.Line == 0:
		return p.File
	case p.Column == 0:
		return p.File + ":" + strconv.Itoa(p.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
}

// DeclKind is the kind of a declaration.
type DeclKind uint8

const (
	// KindStruct is a concrete declaration that may carry constructors.
	KindStruct DeclKind = iota
	// KindInterface is a capability declaration.
	KindInterface
)

// String implements fmt.Stringer.
func (k DeclKind) String() string {
	if k == KindInterface {
		return "interface"
	}
	return "struct"
}

// TypeKind is the kind of a type reference.
type TypeKind uint8

// Type reference kinds.
const (
	TypeBasic TypeKind = iota
	TypeNamed
	TypePointer
	TypeSlice
	TypeArray
	TypeMap
	TypeInterface
	TypeFunc
	TypeChan
	TypeParam
	TypeStruct
)

var typeKindNames = [...]string{
	TypeBasic:     "basic",
	TypeNamed:     "named",
	TypePointer:   "pointer",
	TypeSlice:     "slice",
	TypeArray:     "array",
	TypeMap:       "map",
	TypeInterface: "interface",
	TypeFunc:      "func",
	TypeChan:      "chan",
	TypeParam:     "param",
	TypeStruct:    "struct",
}

// String implements fmt.Stringer.
func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "TypeKind(" + strconv.Itoa(int(k)) + ")"
}

// ChanDir is the direction of a channel type.
type ChanDir uint8

// Channel directions.
const (
	ChanBoth ChanDir = iota
	ChanSend
	ChanRecv
)

// TypeRef is a reference to a type as seen by the declaring module.
type TypeRef struct {
	Kind TypeKind `msgpack:"kind"`
	// Pkg is the import path of a named type. Empty for predeclared types.
	Pkg string `msgpack:"pkg,omitempty"`
	// Name of a basic, named or type-parameter type.
	Name string `msgpack:"name,omitempty"`
	// Elem is the element type of pointers, slices, arrays, maps and chans.
	Elem *TypeRef `msgpack:"elem,omitempty"`
	// Key is the key type of maps.
	Key *TypeRef `msgpack:"key,omitempty"`
	// Args are the type arguments of an instantiated generic type.
	Args []TypeRef `msgpack:"args,omitempty"`
	// Len is the length of arrays.
	Len int64 `msgpack:"len,omitempty"`
	// Underlying is the type a named type resolves to, when known.
	Underlying *TypeRef `msgpack:"underlying,omitempty"`
	// Params and Results are the signature of funcs. Variadic marks a
	// final slice parameter declared with an ellipsis.
	Params   []TypeRef `msgpack:"params,omitempty"`
	Results  []TypeRef `msgpack:"results,omitempty"`
	Variadic bool      `msgpack:"variadic,omitempty"`
	// Dir is the direction of chans.
	Dir ChanDir `msgpack:"dir,omitempty"`
	// Opaque marks struct and interface literals with members. They are
	// compared by kind only and cannot be spelled back.
	Opaque bool `msgpack:"opaque,omitempty"`
}

// FuncOf returns a reference to the signature with the given parameters
// and results.
func FuncOf(params, results []TypeRef, variadic bool) TypeRef {
	return TypeRef{Kind: TypeFunc, Params: params, Results: results, Variadic: variadic}
}

// Basic returns a reference to a predeclared type.
func Basic(name string) TypeRef { return TypeRef{Kind: TypeBasic, Name: name} }

// Named returns a reference to a named type.
func Named(pkg, name string, args ...TypeRef) TypeRef {
	return TypeRef{Kind: TypeNamed, Pkg: pkg, Name: name, Args: args}
}

// Ref returns a reference to the declaration id.
func Ref(id DeclID, args ...TypeRef) TypeRef {
	return Named(string(id.Module()), id.Name(), args...)
}

// PointerTo returns a pointer reference to t.
func PointerTo(t TypeRef) TypeRef { return TypeRef{Kind: TypePointer, Elem: &t} }

// SliceOf returns a slice reference of t.
func SliceOf(t TypeRef) TypeRef { return TypeRef{Kind: TypeSlice, Elem: &t} }

// MapOf returns a map reference from k to v.
func MapOf(k, v TypeRef) TypeRef { return TypeRef{Kind: TypeMap, Key: &k, Elem: &v} }

// DeclID returns the declaration identifier of a named reference.
func (t TypeRef) DeclID() DeclID {
	return NewDeclID(ModuleID(t.Pkg), t.Name)
}

// Generic reports whether t is an instantiation of a generic type.
func (t TypeRef) Generic() bool { return len(t.Args) > 0 }

// Unbound returns t without its type arguments.
func (t TypeRef) Unbound() TypeRef {
	t.Args = nil
	return t
}

// IsInteger reports whether t is a predeclared integer type, or a named
// type known to be integer based.
func (t TypeRef) IsInteger() bool {
	switch t.Kind {
	case TypeBasic:
		switch t.Name {
		case "int", "int8", "int16", "int32", "int64",
			"uint", "uint8", "uint16", "uint32", "uint64",
			"byte", "rune":
			return true
		}
	case TypeNamed:
		return t.Underlying != nil && t.Underlying.IsInteger()
	}
	return false
}

// Resolved returns the underlying type of a named reference when known,
// and t itself otherwise.
func (t TypeRef) Resolved() TypeRef {
	if t.Kind == TypeNamed && t.Underlying != nil {
		return *t.Underlying
	}
	return t
}

// IsCollection reports whether t is a slice, array or map.
func (t TypeRef) IsCollection() bool {
	switch t.Resolved().Kind {
	case TypeSlice, TypeArray, TypeMap:
		return true
	}
	return false
}

// Equal reports whether t and u denote the same type.
func (t TypeRef) Equal(u TypeRef) bool {
	if t.Kind != u.Kind || t.Pkg != u.Pkg || t.Name != u.Name || t.Len != u.Len ||
		t.Variadic != u.Variadic || t.Dir != u.Dir || t.Opaque != u.Opaque {
		return false
	}
	if !refEqual(t.Elem, u.Elem) || !refEqual(t.Key, u.Key) {
		return false
	}
	return refsEqual(t.Args, u.Args) && refsEqual(t.Params, u.Params) && refsEqual(t.Results, u.Results)
}

func refsEqual(a, b []TypeRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Spellable reports whether t can be written back as Go source: it
// mentions no struct or interface literal with members.
func (t TypeRef) Spellable() bool {
	if t.Opaque {
		return false
	}
	if t.Elem != nil && !t.Elem.Spellable() {
		return false
	}
	if t.Key != nil && !t.Key.Spellable() {
		return false
	}
	for _, ts := range [][]TypeRef{t.Args, t.Params, t.Results} {
		for _, u := range ts {
			if !u.Spellable() {
				return false
			}
		}
	}
	return true
}

func refEqual(a, b *TypeRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// String returns the Go spelling of t, package-qualified by import path.
func (t TypeRef) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t TypeRef) write(b *strings.Builder) {
	switch t.Kind {
	case TypeBasic, TypeParam:
		b.WriteString(t.Name)
	case TypeNamed:
		if t.Pkg != "" {
			b.WriteString(t.Pkg)
			b.WriteByte('.')
		}
		b.WriteString(t.Name)
		if len(t.Args) > 0 {
			b.WriteByte('[')
			for i, a := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				a.write(b)
			}
			b.WriteByte(']')
		}
	case TypePointer:
		b.WriteByte('*')
		t.elem().write(b)
	case TypeSlice:
		b.WriteString("[]")
		t.elem().write(b)
	case TypeArray:
		b.WriteString("[" + strconv.FormatInt(t.Len, 10) + "]")
		t.elem().write(b)
	case TypeMap:
		b.WriteString("map[")
		if t.Key != nil {
			t.Key.write(b)
		}
		b.WriteByte(']')
		t.elem().write(b)
	case TypeChan:
		switch t.Dir {
		case ChanSend:
			b.WriteString("chan<- ")
		case ChanRecv:
			b.WriteString("<-chan ")
		default:
			b.WriteString("chan ")
		}
		t.elem().write(b)
	case TypeInterface:
		if t.Opaque {
			b.WriteString("interface{...}")
		} else {
			b.WriteString("interface{}")
		}
	case TypeStruct:
		if t.Opaque {
			b.WriteString("struct{...}")
		} else {
			b.WriteString("struct{}")
		}
	case TypeFunc:
		b.WriteString("func(")
		for i, p := range t.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			if t.Variadic && i == len(t.Params)-1 {
				b.WriteString("...")
				p.elem().write(b)
				continue
			}
			p.write(b)
		}
		b.WriteByte(')')
		switch len(t.Results) {
		case 0:
		case 1:
			b.WriteByte(' ')
			t.Results[0].write(b)
		default:
			b.WriteString(" (")
			for i, r := range t.Results {
				if i > 0 {
					b.WriteString(", ")
				}
				r.write(b)
			}
			b.WriteByte(')')
		}
	}
}

func (t TypeRef) elem() TypeRef {
	if t.Elem == nil {
		return Basic("any")
	}
	return *t.Elem
}

// Param is a parameter of a method or constructor.
type Param struct {
	Name string  `msgpack:"name"`
	Type TypeRef `msgpack:"type"`
	// Default is a Go expression used when the parameter must be supplied
	// without a caller, e.g. by the sentinel or an entry instance.
	Default *string `msgpack:"default,omitempty"`
}

// Constructor is a way to build a value of a struct declaration.
type Constructor struct {
	// Name of the constructor function. Empty for the implicit literal.
	Name   string  `msgpack:"name,omitempty"`
	Params []Param `msgpack:"params,omitempty"`
	// Exported reports whether the constructor is reachable from other modules.
	Exported bool `msgpack:"exported"`
	// Implicit marks the composite-literal constructor of a struct.
	Implicit bool `msgpack:"implicit,omitempty"`
	// Pointer reports whether the constructor yields a pointer.
	Pointer bool `msgpack:"pointer,omitempty"`
	// Variadic reports whether the last parameter is variadic. Its type is
	// then the slice type of the parameter.
	Variadic bool `msgpack:"variadic,omitempty"`
	Pos      Pos  `msgpack:"-"`
}

// Arity returns the number of parameters.
func (c Constructor) Arity() int { return len(c.Params) }

// MemberKind is the kind of a declaration member.
type MemberKind uint8

const (
	// MemberMethod is a method member.
	MemberMethod MemberKind = iota
	// MemberField is a struct field.
	MemberField
)

// Member is a method or field of a declaration.
type Member struct {
	Name     string     `msgpack:"name"`
	Kind     MemberKind `msgpack:"kind"`
	Params   []Param    `msgpack:"params,omitempty"`
	Results  []TypeRef  `msgpack:"results,omitempty"`
	Variadic bool       `msgpack:"variadic,omitempty"`
	Exported bool       `msgpack:"exported"`
	// Promoted marks fields and methods reached through an embedded field.
	Promoted bool `msgpack:"promoted,omitempty"`
	// Key marks the member as a lookup key of the catalogs over the
	// declaring shape.
	Key *KeyConfig `msgpack:"key,omitempty"`
	Pos Pos        `msgpack:"-"`
}

// Type returns the value type of a field or a single-result method.
func (m *Member) Type() (TypeRef, bool) {
	if len(m.Results) != 1 {
		return TypeRef{}, false
	}
	return m.Results[0], true
}

// Getter reports whether m can be read as a property: a field, or a method
// with no parameters and exactly one result.
func (m *Member) Getter() bool {
	return len(m.Results) == 1 && (m.Kind == MemberField || len(m.Params) == 0)
}

// Decl is a named declaration visible in a module.
type Decl struct {
	Module ModuleID
	Name   string
	Kind   DeclKind
	Pos    Pos
	// TypeParams holds the type parameter names of a generic declaration.
	TypeParams []string
	// Supertypes holds the shape chain one level up: embedded interfaces,
	// embedded structs and the capability interfaces the declaration
	// implements.
	Supertypes []TypeRef
	// Members holds the methods and fields declared on, or promoted to,
	// this declaration.
	Members []*Member
	// Constructors of a struct declaration.
	Constructors []Constructor
	// Pointer reports whether the method set satisfying the shape belongs
	// to the pointer type.
	Pointer  bool
	Exported bool
	// Nested holds declarations of inner scopes.
	Nested []*Decl
	// Catalogs declared over this declaration as shape.
	Catalogs []*CatalogConfig
	// Entry configuration of this declaration, if any.
	Entry *EntryConfig
}

// ID returns the module-qualified identifier of d.
func (d *Decl) ID() DeclID { return NewDeclID(d.Module, d.Name) }

// Ref returns an unbound type reference to d.
func (d *Decl) Ref() TypeRef { return Named(string(d.Module), d.Name) }

// Generic reports whether d declares type parameters.
func (d *Decl) Generic() bool { return len(d.TypeParams) > 0 }

// Member returns the member with the given name.
func (d *Decl) Member(name string) (*Member, bool) {
	for _, m := range d.Members {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Walk calls fn for d and every nested declaration, depth first.
func (d *Decl) Walk(fn func(*Decl)) {
	fn(d)
	for _, n := range d.Nested {
		n.Walk(fn)
	}
}
