package gen

import (
	"slices"
	"strings"

	"github.com/syssam/catalog"
	"github.com/syssam/catalog/compiler/load"
)

// The following types describe compiled catalogs. They are immutable once
// built; accessors return copies of slices.
type (
	// Catalog is a named collection of entries sharing one shape.
	Catalog struct {
		shape     load.TypeRef
		shapeKind load.DeclKind
		pos       load.Pos
		// name is the logical catalog name used for entry targeting.
		name string
		// artifact is the identifier of the generated registry.
		artifact   string
		comparison catalog.Comparison
		factories  bool
		static     bool
		generic    bool
		cross      bool
		// result is the effective result type of generated accessors.
		result load.TypeRef
		// methods are the members the sentinel implements itself.
		methods  []Method
		base     *Base
		identity *Key
		keys     []*Key
		entries  []*Entry
		hash     string
	}

	// Entry is one member of a catalog.
	Entry struct {
		id          load.DeclID
		typ         load.TypeRef
		pos         load.Pos
		displayName string
		order       int
		result      *load.TypeRef
		ctors       []Ctor
		// instance indexes the constructor building the value listed by All.
		instance int
		hash     string
	}

	// Key is a lookup key over a shape member.
	Key struct {
		member   string
		kind     load.MemberKind
		typ      load.TypeRef
		accessor string
		multi    bool
		result   *load.TypeRef
	}

	// Ctor is a constructor of an entry or base declaration.
	Ctor struct {
		name     string
		params   []load.Param
		exported bool
		implicit bool
		pointer  bool
		variadic bool
		suffix   string
	}

	// Base is the struct a struct-based shape is built on. The sentinel
	// embeds a value built by its lowest-arity reachable constructor.
	Base struct {
		typ  load.TypeRef
		ctor Ctor
		// collections are the slice and map fields set to empty values
		// when the base is built by its composite literal.
		collections []Field
	}

	// Field is a struct field of a base.
	Field struct {
		name string
		typ  load.TypeRef
	}

	// Method is a method the sentinel implements with default results.
	Method struct {
		name     string
		params   []load.Param
		results  []load.TypeRef
		variadic bool
	}
)

// Shape returns the unbound shape type.
func (c *Catalog) Shape() load.TypeRef { return c.shape }

// ShapeKind returns the kind of the shape declaration.
func (c *Catalog) ShapeKind() load.DeclKind { return c.shapeKind }

// ID returns the identity of the catalog: the shape identifier, qualified
// by the catalog name when it differs from the shape name.
func (c *Catalog) ID() string {
	id := string(c.shape.DeclID())
	if c.name != c.shape.Name {
		id += "#" + c.name
	}
	return id
}

// Pos returns the location of the catalog declaration.
func (c *Catalog) Pos() load.Pos { return c.pos }

// Name returns the logical catalog name.
func (c *Catalog) Name() string { return c.name }

// Artifact returns the identifier of the generated registry.
func (c *Catalog) Artifact() string { return c.artifact }

// FileName returns the name of the generated file.
func (c *Catalog) FileName() string { return strings.ToLower(c.artifact) + ".go" }

// Comparison returns the name comparison mode.
func (c *Catalog) Comparison() catalog.Comparison { return c.comparison }

// Factories reports whether factory functions are generated.
func (c *Catalog) Factories() bool { return c.factories }

// Static reports whether package-level functions are generated instead of
// registry methods.
func (c *Catalog) Static() bool { return c.static }

// Generic reports whether a generic typed accessor is generated.
func (c *Catalog) Generic() bool { return c.generic }

// CrossModule reports whether entries of referenced modules are included.
func (c *Catalog) CrossModule() bool { return c.cross }

// Result returns the effective result type.
func (c *Catalog) Result() load.TypeRef { return c.result }

// Methods returns the methods the sentinel implements itself.
func (c *Catalog) Methods() []Method { return slices.Clone(c.methods) }

// Base returns the base struct of a struct-based shape.
func (c *Catalog) Base() (Base, bool) {
	if c.base == nil {
		return Base{}, false
	}
	return *c.base, true
}

// Identity returns the integer identity key, if the shape declares one.
func (c *Catalog) Identity() (*Key, bool) { return c.identity, c.identity != nil }

// Keys returns the lookup keys ordered by member name.
func (c *Catalog) Keys() []*Key { return slices.Clone(c.keys) }

// Entries returns the entries in display order.
func (c *Catalog) Entries() []*Entry { return slices.Clone(c.entries) }

// Entry returns the entry with the given display name under the catalog
// comparison mode. The first entry wins.
func (c *Catalog) Entry(name string) (*Entry, bool) {
	for _, e := range c.entries {
		if c.comparison.Equal(e.displayName, name) {
			return e, true
		}
	}
	return nil, false
}

// Hash returns the content hash of the catalog.
func (c *Catalog) Hash() string { return c.hash }

// ID returns the declaration identifier of the entry.
func (e *Entry) ID() load.DeclID { return e.id }

// Type returns the entry type.
func (e *Entry) Type() load.TypeRef { return e.typ }

// Pos returns the location of the entry declaration.
func (e *Entry) Pos() load.Pos { return e.pos }

// Name returns the declaration name of the entry.
func (e *Entry) Name() string { return e.typ.Name }

// DisplayName returns the name used for name lookups.
func (e *Entry) DisplayName() string { return e.displayName }

// Order returns the ordering hint.
func (e *Entry) Order() int { return e.order }

// Result returns the per-entry factory result type override.
func (e *Entry) Result() (load.TypeRef, bool) {
	if e.result == nil {
		return load.TypeRef{}, false
	}
	return *e.result, true
}

// Ctors returns the constructors of the entry.
func (e *Entry) Ctors() []Ctor { return slices.Clone(e.ctors) }

// Instance returns the constructor building the listed value.
func (e *Entry) Instance() Ctor { return e.ctors[e.instance] }

// Factories returns the constructors exposed as factory functions: the
// exported named constructors, or the composite literal when there are none.
func (e *Entry) Factories() []Ctor {
	var out []Ctor
	for _, c := range e.ctors {
		if c.exported && !c.implicit {
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, c := range e.ctors {
		if c.exported && c.implicit {
			out = append(out, c)
		}
	}
	return out
}

// Hash returns the content hash of the entry.
func (e *Entry) Hash() string { return e.hash }

// Member returns the name of the member the key reads.
func (k *Key) Member() string { return k.member }

// Kind returns whether the key member is a method or a field.
func (k *Key) Kind() load.MemberKind { return k.kind }

// Type returns the declared value type of the key member.
func (k *Key) Type() load.TypeRef { return k.typ }

// Accessor returns the name of the generated lookup accessor.
func (k *Key) Accessor() string { return k.accessor }

// TryAccessor returns the name of the generated try-variant.
func (k *Key) TryAccessor() string { return "Try" + k.accessor }

// Multi reports whether the key is a multi-result key.
func (k *Key) Multi() bool { return k.multi }

// Collection reports whether the key value is a collection whose elements
// are indexed individually.
func (k *Key) Collection() bool {
	switch k.typ.Resolved().Kind {
	case load.TypeSlice, load.TypeArray:
		return true
	}
	return false
}

// IndexType returns the type indexed: the element type of collection
// keys, and the value type otherwise.
func (k *Key) IndexType() load.TypeRef {
	if k.Collection() {
		if e := k.typ.Resolved().Elem; e != nil {
			return *e
		}
	}
	return k.typ
}

// Nullable reports whether the value type admits nil.
func (k *Key) Nullable() bool {
	switch k.typ.Resolved().Kind {
	case load.TypePointer, load.TypeInterface, load.TypeSlice, load.TypeMap, load.TypeFunc, load.TypeChan:
		return true
	case load.TypeBasic:
		return k.typ.Name == "any" || k.typ.Name == "error"
	}
	return false
}

// Result returns the accessor result type override.
func (k *Key) Result() (load.TypeRef, bool) {
	if k.result == nil {
		return load.TypeRef{}, false
	}
	return *k.result, true
}

// Name returns the constructor function name. It is empty for the
// composite literal.
func (c Ctor) Name() string { return c.name }

// Params returns the constructor parameters.
func (c Ctor) Params() []load.Param { return slices.Clone(c.params) }

// Arity returns the number of parameters.
func (c Ctor) Arity() int { return len(c.params) }

// Exported reports whether the constructor is public.
func (c Ctor) Exported() bool { return c.exported }

// Implicit reports whether c is the composite literal.
func (c Ctor) Implicit() bool { return c.implicit }

// Pointer reports whether c yields a pointer.
func (c Ctor) Pointer() bool { return c.pointer }

// Variadic reports whether the last parameter is variadic.
func (c Ctor) Variadic() bool { return c.variadic }

// Required returns the parameters a call must supply: all of them but a
// variadic one.
func (c Ctor) Required() []load.Param {
	if c.variadic && len(c.params) > 0 {
		return slices.Clone(c.params[:len(c.params)-1])
	}
	return slices.Clone(c.params)
}

// Suffix returns the factory name suffix distinguishing c from the other
// constructors of the same entry.
func (c Ctor) Suffix() string { return c.suffix }

// Type returns the base struct type.
func (b Base) Type() load.TypeRef { return b.typ }

// Ctor returns the constructor building the embedded base value.
func (b Base) Ctor() Ctor { return b.ctor }

// Collections returns the slice and map fields the composite literal of
// the base initializes to empty values.
func (b Base) Collections() []Field { return slices.Clone(b.collections) }

// Name returns the field name.
func (f Field) Name() string { return f.name }

// Type returns the field type.
func (f Field) Type() load.TypeRef { return f.typ }

// Name returns the method name.
func (m Method) Name() string { return m.name }

// Params returns the method parameters.
func (m Method) Params() []load.Param { return slices.Clone(m.params) }

// Results returns the method result types.
func (m Method) Results() []load.TypeRef { return slices.Clone(m.results) }

// Variadic reports whether the last parameter is variadic.
func (m Method) Variadic() bool { return m.variadic }
