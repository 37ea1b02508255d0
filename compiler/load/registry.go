package load

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrDeclNotFound is returned by Lookup when a reference cannot be resolved.
var ErrDeclNotFound = errors.New("load: declaration not found")

// Registry exposes the declarations visible to one compilation: those of
// the current module and those of the modules it references.
//
// Implementations must be safe for concurrent use.
type Registry interface {
	// Module returns the identifier of the current module.
	Module() ModuleID
	// Decls returns the declarations of the current module.
	Decls(ctx context.Context) ([]*Decl, error)
	// References returns the referenced, possibly precompiled, modules.
	References(ctx context.Context) ([]ModuleID, error)
	// ModuleDecls returns the exported declarations of a referenced module.
	ModuleDecls(ctx context.Context, id ModuleID) ([]*Decl, error)
	// Lookup resolves a named type reference to its declaration. Type
	// arguments are ignored.
	Lookup(ctx context.Context, ref TypeRef) (*Decl, error)
}

// MemoryRegistry is a Registry over declarations held in memory.
type MemoryRegistry struct {
	mu      sync.RWMutex
	module  ModuleID
	local   []*Decl
	modules map[ModuleID][]*Decl
	refs    []ModuleID
	failed  map[ModuleID]error
	index   map[DeclID]*Decl
}

// NewMemoryRegistry returns an empty registry for module m.
func NewMemoryRegistry(m ModuleID) *MemoryRegistry {
	return &MemoryRegistry{
		module:  m,
		modules: make(map[ModuleID][]*Decl),
		failed:  make(map[ModuleID]error),
		index:   make(map[DeclID]*Decl),
	}
}

// Add adds declarations to the current module. Declarations without a
// module are assigned the current one.
func (r *MemoryRegistry) Add(decls ...*Decl) *MemoryRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range decls {
		if d.Module == "" {
			d.Module = r.module
		}
		r.local = append(r.local, d)
		r.indexDecl(d)
	}
	return r
}

// AddModule adds a referenced module with its exported declarations.
func (r *MemoryRegistry) AddModule(id ModuleID, decls ...*Decl) *MemoryRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[id]; !ok {
		r.refs = append(r.refs, id)
	}
	for _, d := range decls {
		if d.Module == "" {
			d.Module = id
		}
		r.modules[id] = append(r.modules[id], d)
		r.indexDecl(d)
	}
	if _, ok := r.modules[id]; !ok {
		r.modules[id] = nil
	}
	return r
}

// Fail makes every read of module id return err.
func (r *MemoryRegistry) Fail(id ModuleID, err error) *MemoryRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[id]; !ok {
		r.refs = append(r.refs, id)
		r.modules[id] = nil
	}
	r.failed[id] = err
	return r
}

func (r *MemoryRegistry) indexDecl(d *Decl) {
	d.Walk(func(n *Decl) {
		if n.Module == "" {
			n.Module = d.Module
		}
		r.index[n.ID()] = n
	})
}

// Find returns the declaration with the given identifier.
func (r *MemoryRegistry) Find(id DeclID) (*Decl, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.index[id]
	return d, ok
}

// Module implements Registry.
func (r *MemoryRegistry) Module() ModuleID { return r.module }

// Decls implements Registry.
func (r *MemoryRegistry) Decls(ctx context.Context) ([]*Decl, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.local), nil
}

// References implements Registry.
func (r *MemoryRegistry) References(ctx context.Context) ([]ModuleID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.refs), nil
}

// ModuleDecls implements Registry.
func (r *MemoryRegistry) ModuleDecls(ctx context.Context, id ModuleID) ([]*Decl, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.failed[id]; err != nil {
		return nil, fmt.Errorf("module %s: %w", id, err)
	}
	decls, ok := r.modules[id]
	if !ok {
		return nil, fmt.Errorf("module %s: %w", id, ErrModuleNotFound)
	}
	out := make([]*Decl, 0, len(decls))
	for _, d := range decls {
		if d.Exported {
			out = append(out, d)
		}
	}
	return out, nil
}

// Lookup implements Registry.
func (r *MemoryRegistry) Lookup(ctx context.Context, ref TypeRef) (*Decl, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ref.Kind == TypePointer && ref.Elem != nil {
		ref = *ref.Elem
	}
	if ref.Kind != TypeNamed {
		return nil, fmt.Errorf("%s: %w", ref, ErrDeclNotFound)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.index[ref.DeclID()]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%s: %w", ref, ErrDeclNotFound)
}

// ErrModuleNotFound is returned for reads of unknown modules.
var ErrModuleNotFound = errors.New("load: module not found")

// ParseTypeRef parses the textual form of a type reference as written in
// configuration: an optional "*" or "[]" prefix, an import-path qualified
// name and optional type arguments, e.g. "example.com/shop.Product[int]".
// Unqualified lower-case names are predeclared types.
func ParseTypeRef(s string) (TypeRef, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return TypeRef{}, errors.New("load: empty type reference")
	case strings.HasPrefix(s, "*"):
		t, err := ParseTypeRef(s[1:])
		if err != nil {
			return TypeRef{}, err
		}
		return PointerTo(t), nil
	case strings.HasPrefix(s, "[]"):
		t, err := ParseTypeRef(s[2:])
		if err != nil {
			return TypeRef{}, err
		}
		return SliceOf(t), nil
	}
	var args []TypeRef
	if i := strings.IndexByte(s, '['); i >= 0 {
		if !strings.HasSuffix(s, "]") {
			return TypeRef{}, fmt.Errorf("load: malformed type reference %q", s)
		}
		for _, a := range splitArgs(s[i+1 : len(s)-1]) {
			t, err := ParseTypeRef(a)
			if err != nil {
				return TypeRef{}, err
			}
			args = append(args, t)
		}
		s = s[:i]
	}
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 {
		if len(args) == 0 && isPredeclared(s) {
			return Basic(s), nil
		}
		return Named("", s, args...), nil
	}
	if dot == 0 || dot == len(s)-1 {
		return TypeRef{}, fmt.Errorf("load: malformed type reference %q", s)
	}
	return Named(s[:dot], s[dot+1:], args...), nil
}

// splitArgs splits a type argument list on top-level commas.
func splitArgs(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, c := range s {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func isPredeclared(s string) bool {
	switch s {
	case "bool", "string", "error", "any", "byte", "rune",
		"int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64", "complex64", "complex128":
		return true
	}
	return false
}
