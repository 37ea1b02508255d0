package load

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/tools/go/packages"
	"gopkg.in/yaml.v3"
)

// Directive prefixes recognized in doc comments. The directive body is an
// optional YAML flow mapping decoded into the matching config type:
//
//	//catalog:shape {name: Currency, comparison: ordinal}
//	type Currency interface {
//		//catalog:key
//		Code() string
//	}
//
//	//catalog:entry {display_name: US Dollar, order: 1}
//	type USD struct{}
const (
	DirectiveShape = "catalog:shape"
	DirectiveEntry = "catalog:entry"
	DirectiveKey   = "catalog:key"
)

// LoadMode is the go/packages mode used by LoadPackages.
const LoadMode = packages.NeedName | packages.NeedFiles | packages.NeedImports |
	packages.NeedDeps | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo

// PackagesRegistry is a Registry over Go packages loaded with go/packages.
// The first package matched by the patterns is the current module; its
// imports are the referenced modules.
type PackagesRegistry struct {
	root *packages.Package
	all  map[string]*packages.Package
	// shapes are the candidate capability interfaces matched against
	// struct declarations.
	shapes []*types.TypeName

	mu        sync.Mutex
	converted map[string][]*Decl
	failed    map[string]error
	index     map[DeclID]*Decl
}

// LoadPackages loads the packages matched by patterns, relative to dir.
func LoadPackages(ctx context.Context, dir string, buildFlags []string, patterns ...string) (*PackagesRegistry, error) {
	cfg := &packages.Config{
		Context:    ctx,
		Mode:       LoadMode,
		Dir:        dir,
		BuildFlags: buildFlags,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages matched %s", strings.Join(patterns, " "))
	}
	root := pkgs[0]
	if len(root.Errors) > 0 {
		errs := make([]error, len(root.Errors))
		for i, e := range root.Errors {
			errs[i] = e
		}
		return nil, fmt.Errorf("loading package %s: %w", root.PkgPath, errors.Join(errs...))
	}
	r := &PackagesRegistry{
		root:      root,
		all:       make(map[string]*packages.Package),
		converted: make(map[string][]*Decl),
		failed:    make(map[string]error),
		index:     make(map[DeclID]*Decl),
	}
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		r.all[p.PkgPath] = p
	})
	r.shapes = interfacesOf(root)
	for _, p := range root.Imports {
		r.shapes = append(r.shapes, interfacesOf(p)...)
	}
	if _, err := r.convert(root); err != nil {
		return nil, err
	}
	return r, nil
}

// interfacesOf returns the non-empty, non-generic named interfaces of p.
func interfacesOf(p *packages.Package) []*types.TypeName {
	if p.Types == nil {
		return nil
	}
	var out []*types.TypeName
	scope := p.Types.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok || named.TypeParams().Len() > 0 {
			continue
		}
		if iface, ok := named.Underlying().(*types.Interface); ok && iface.NumMethods() > 0 {
			out = append(out, tn)
		}
	}
	return out
}

// Module implements Registry.
func (r *PackagesRegistry) Module() ModuleID { return ModuleID(r.root.PkgPath) }

// Files returns the Go files of the current module.
func (r *PackagesRegistry) Files() []string { return slices.Clone(r.root.GoFiles) }

// Dir returns the directory of the current module, or "" when it has no
// Go files.
func (r *PackagesRegistry) Dir() string {
	if len(r.root.GoFiles) == 0 {
		return ""
	}
	return filepath.Dir(r.root.GoFiles[0])
}

// Decls implements Registry.
func (r *PackagesRegistry) Decls(ctx context.Context) ([]*Decl, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.convert(r.root)
}

// References implements Registry.
func (r *PackagesRegistry) References(ctx context.Context) ([]ModuleID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	refs := make([]ModuleID, 0, len(r.root.Imports))
	for path := range r.root.Imports {
		refs = append(refs, ModuleID(path))
	}
	slices.Sort(refs)
	return refs, nil
}

// ModuleDecls implements Registry.
func (r *PackagesRegistry) ModuleDecls(ctx context.Context, id ModuleID) ([]*Decl, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := r.all[string(id)]
	if !ok {
		return nil, fmt.Errorf("module %s: %w", id, ErrModuleNotFound)
	}
	decls, err := r.convert(p)
	if err != nil {
		return nil, err
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
func (r *PackagesRegistry) Lookup(ctx context.Context, ref TypeRef) (*Decl, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ref.Kind == TypePointer && ref.Elem != nil {
		ref = *ref.Elem
	}
	if ref.Kind != TypeNamed {
		return nil, fmt.Errorf("%s: %w", ref, ErrDeclNotFound)
	}
	p, ok := r.all[ref.Pkg]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref, ErrDeclNotFound)
	}
	if _, err := r.convert(p); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.index[ref.Unbound().DeclID()]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%s: %w", ref, ErrDeclNotFound)
}

// convert returns the declarations of p, converting them on first use.
func (r *PackagesRegistry) convert(p *packages.Package) ([]*Decl, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failed[p.PkgPath]; ok {
		return nil, err
	}
	if decls, ok := r.converted[p.PkgPath]; ok {
		return decls, nil
	}
	decls, err := r.convertLocked(p)
	if err != nil {
		r.failed[p.PkgPath] = err
		return nil, err
	}
	r.converted[p.PkgPath] = decls
	for _, d := range decls {
		r.index[d.ID()] = d
	}
	return decls, nil
}

func (r *PackagesRegistry) convertLocked(p *packages.Package) ([]*Decl, error) {
	if len(p.Errors) > 0 {
		return nil, fmt.Errorf("package %s: %s", p.PkgPath, p.Errors[0])
	}
	if p.Types == nil {
		return nil, fmt.Errorf("package %s: no type information", p.PkgPath)
	}
	c := &converter{
		pkg:       p,
		shapes:    r.shapes,
		docs:      make(map[types.Object]*ast.CommentGroup),
		memberObj: make(map[*Member]types.Object),
	}
	c.collectDocs()
	var (
		decls []*Decl
		errs  []error
		scope = p.Types.Scope()
	)
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		d, err := c.decl(tn)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if d != nil {
			decls = append(decls, d)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	c.constructors(decls)
	// Source order is the discovery order.
	slices.SortStableFunc(decls, func(a, b *Decl) int {
		return cmp.Or(
			cmp.Compare(a.Pos.File, b.Pos.File),
			cmp.Compare(a.Pos.Line, b.Pos.Line),
			cmp.Compare(a.Pos.Column, b.Pos.Column),
		)
	})
	return decls, nil
}

type converter struct {
	pkg       *packages.Package
	shapes    []*types.TypeName
	docs      map[types.Object]*ast.CommentGroup
	memberObj map[*Member]types.Object
}

// collectDocs maps declared objects to their doc comments. Packages loaded
// from export data have no syntax and carry no directives.
func (c *converter) collectDocs() {
	if c.pkg.TypesInfo == nil {
		return
	}
	defs := c.pkg.TypesInfo.Defs
	fields := func(list *ast.FieldList) {
		if list == nil {
			return
		}
		for _, f := range list.List {
			if f.Doc == nil {
				continue
			}
			for _, n := range f.Names {
				if obj := defs[n]; obj != nil {
					c.docs[obj] = f.Doc
				}
			}
		}
	}
	for _, file := range c.pkg.Syntax {
		for _, decl := range file.Decls {
			switch decl := decl.(type) {
			case *ast.FuncDecl:
				if decl.Doc != nil {
					if obj := defs[decl.Name]; obj != nil {
						c.docs[obj] = decl.Doc
					}
				}
			case *ast.GenDecl:
				if decl.Tok != token.TYPE {
					continue
				}
				for _, spec := range decl.Specs {
					ts := spec.(*ast.TypeSpec)
					doc := ts.Doc
					if doc == nil && len(decl.Specs) == 1 {
						doc = decl.Doc
					}
					if obj := defs[ts.Name]; obj != nil && doc != nil {
						c.docs[obj] = doc
					}
					switch t := ts.Type.(type) {
					case *ast.InterfaceType:
						fields(t.Methods)
					case *ast.StructType:
						fields(t.Fields)
					}
				}
			}
		}
	}
}

// directives returns the bodies of the directives named name attached to obj.
func (c *converter) directives(obj types.Object, name string) []string {
	doc := c.docs[obj]
	if doc == nil {
		return nil
	}
	var out []string
	for _, cm := range doc.List {
		text, ok := strings.CutPrefix(cm.Text, "//"+name)
		if !ok || (text != "" && text[0] != ' ' && text[0] != '\t') {
			continue
		}
		out = append(out, strings.TrimSpace(text))
	}
	return out
}

func decodeDirective(body string, v any) error {
	if body == "" {
		return nil
	}
	return yaml.Unmarshal([]byte(body), v)
}

func (c *converter) pos(p token.Pos) Pos {
	if !p.IsValid() || c.pkg.Fset == nil {
		return Pos{}
	}
	position := c.pkg.Fset.Position(p)
	return Pos{File: position.Filename, Line: position.Line, Column: position.Column}
}

func (c *converter) decl(tn *types.TypeName) (*Decl, error) {
	named, ok := tn.Type().(*types.Named)
	if !ok {
		return nil, nil
	}
	d := &Decl{
		Module:   ModuleID(c.pkg.PkgPath),
		Name:     tn.Name(),
		Pos:      c.pos(tn.Pos()),
		Exported: tn.Exported(),
	}
	for i := range named.TypeParams().Len() {
		d.TypeParams = append(d.TypeParams, named.TypeParams().At(i).Obj().Name())
	}
	switch u := named.Underlying().(type) {
	case *types.Interface:
		d.Kind = KindInterface
		for i := range u.NumEmbeddeds() {
			if ref := c.ref(u.EmbeddedType(i), 1); ref.Kind == TypeNamed {
				d.Supertypes = append(d.Supertypes, ref)
			}
		}
		for i := range u.NumMethods() {
			d.Members = append(d.Members, c.method(u.Method(i)))
		}
	case *types.Struct:
		d.Kind = KindStruct
		d.Constructors = []Constructor{{Implicit: true, Exported: d.Exported}}
		c.structMembers(d, named, u)
	default:
		return nil, nil
	}
	for _, body := range c.directives(tn, DirectiveShape) {
		cfg := &CatalogConfig{Pos: d.Pos}
		if err := decodeDirective(body, cfg); err != nil {
			return nil, fmt.Errorf("%s: malformed %s directive: %w", d.Pos, DirectiveShape, err)
		}
		d.Catalogs = append(d.Catalogs, cfg)
	}
	if bodies := c.directives(tn, DirectiveEntry); len(bodies) > 0 {
		cfg := &EntryConfig{}
		for _, body := range bodies {
			if err := decodeDirective(body, cfg); err != nil {
				return nil, fmt.Errorf("%s: malformed %s directive: %w", d.Pos, DirectiveEntry, err)
			}
		}
		d.Entry = cfg
	}
	for _, m := range d.Members {
		if err := c.memberKey(m); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (c *converter) structMembers(d *Decl, named *types.Named, st *types.Struct) {
	seen := make(map[string]bool)
	var fields func(*types.Struct, int)
	fields = func(st *types.Struct, depth int) {
		var embedded []*types.Struct
		for i := range st.NumFields() {
			f := st.Field(i)
			if seen[f.Name()] {
				continue
			}
			seen[f.Name()] = true
			ref := c.ref(f.Type(), 0)
			d.Members = append(d.Members, &Member{
				Name:     f.Name(),
				Kind:     MemberField,
				Results:  []TypeRef{ref},
				Exported: f.Exported(),
				Promoted: depth > 0,
				Pos:      c.pos(f.Pos()),
			})
			c.memberObj[d.Members[len(d.Members)-1]] = f
			if !f.Embedded() {
				continue
			}
			if depth == 0 {
				if base := c.ref(f.Type(), 1); base.Kind == TypeNamed || base.Kind == TypePointer {
					if base.Kind == TypePointer {
						base = *base.Elem
					}
					d.Supertypes = append(d.Supertypes, base)
				}
			}
			if es, ok := derefNamed(f.Type()).Underlying().(*types.Struct); ok {
				embedded = append(embedded, es)
			}
		}
		for _, es := range embedded {
			fields(es, depth+1)
		}
	}
	fields(st, 0)

	value := types.NewMethodSet(named)
	ptr := types.NewMethodSet(types.NewPointer(named))
	d.Pointer = ptr.Len() > value.Len()
	for i := range ptr.Len() {
		fn, ok := ptr.At(i).Obj().(*types.Func)
		if !ok || seen[fn.Name()] {
			continue
		}
		seen[fn.Name()] = true
		d.Members = append(d.Members, c.method(fn))
	}
	if named.TypeParams().Len() > 0 {
		return
	}
	var typ types.Type = named
	if d.Pointer {
		typ = types.NewPointer(named)
	}
	for _, tn := range c.shapes {
		iface := tn.Type().Underlying().(*types.Interface)
		if types.Implements(typ, iface) {
			d.Supertypes = append(d.Supertypes, c.ref(tn.Type(), 1))
		}
	}
}

func derefNamed(t types.Type) types.Type {
	if p, ok := t.(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}

func (c *converter) method(fn *types.Func) *Member {
	sig := fn.Type().(*types.Signature)
	m := &Member{
		Name:     fn.Name(),
		Kind:     MemberMethod,
		Variadic: sig.Variadic(),
		Exported: fn.Exported(),
		Pos:      c.pos(fn.Pos()),
		Params:   c.params(sig.Params()),
	}
	for i := range sig.Results().Len() {
		m.Results = append(m.Results, c.ref(sig.Results().At(i).Type(), 0))
	}
	c.memberObj[m] = fn
	return m
}

func (c *converter) params(tuple *types.Tuple) []Param {
	var out []Param
	for i := range tuple.Len() {
		v := tuple.At(i)
		out = append(out, Param{Name: v.Name(), Type: c.ref(v.Type(), 0)})
	}
	return out
}

// memberKey attaches the key directive of the member, if any.
func (c *converter) memberKey(m *Member) error {
	obj := c.memberObj[m]
	if obj == nil {
		return nil
	}
	bodies := c.directives(obj, DirectiveKey)
	if len(bodies) == 0 {
		return nil
	}
	key := &KeyConfig{Member: m.Name}
	for _, body := range bodies {
		if err := decodeDirective(body, key); err != nil {
			return fmt.Errorf("%s: malformed %s directive: %w", m.Pos, DirectiveKey, err)
		}
	}
	key.Member = m.Name
	m.Key = key
	return nil
}

// constructors attaches the NewXxx functions of the package to the struct
// declarations they build.
func (c *converter) constructors(decls []*Decl) {
	byName := make(map[string]*Decl, len(decls))
	for _, d := range decls {
		if d.Kind == KindStruct {
			byName[d.Name] = d
		}
	}
	scope := c.pkg.Types.Scope()
	for _, name := range scope.Names() {
		fn, ok := scope.Lookup(name).(*types.Func)
		if !ok || !strings.HasPrefix(name, "New") {
			continue
		}
		sig := fn.Type().(*types.Signature)
		if sig.TypeParams().Len() > 0 || sig.Results().Len() != 1 {
			continue
		}
		res := sig.Results().At(0).Type()
		_, pointer := res.(*types.Pointer)
		named, ok := derefNamed(res).(*types.Named)
		if !ok || named.Obj().Pkg() != c.pkg.Types {
			continue
		}
		d, ok := byName[named.Obj().Name()]
		if !ok {
			continue
		}
		d.Constructors = append(d.Constructors, Constructor{
			Name:     name,
			Params:   c.params(sig.Params()),
			Exported: fn.Exported(),
			Pointer:  pointer,
			Variadic: sig.Variadic(),
			Pos:      c.pos(fn.Pos()),
		})
	}
}

// ref converts t. Named types at depth 0 carry their underlying type one
// level deep.
func (c *converter) ref(t types.Type, depth int) TypeRef {
	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		return Basic(t.Name())
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil {
			return Basic(obj.Name())
		}
		r := Named(obj.Pkg().Path(), obj.Name())
		for i := range t.TypeArgs().Len() {
			r.Args = append(r.Args, c.ref(t.TypeArgs().At(i), 1))
		}
		if depth == 0 {
			u := c.ref(t.Underlying(), 1)
			r.Underlying = &u
		}
		return r
	case *types.Pointer:
		return PointerTo(c.ref(t.Elem(), depth))
	case *types.Slice:
		return SliceOf(c.ref(t.Elem(), depth))
	case *types.Array:
		e := c.ref(t.Elem(), depth)
		return TypeRef{Kind: TypeArray, Elem: &e, Len: t.Len()}
	case *types.Map:
		return MapOf(c.ref(t.Key(), depth), c.ref(t.Elem(), depth))
	case *types.Chan:
		e := c.ref(t.Elem(), depth)
		r := TypeRef{Kind: TypeChan, Elem: &e}
		switch t.Dir() {
		case types.SendOnly:
			r.Dir = ChanSend
		case types.RecvOnly:
			r.Dir = ChanRecv
		}
		return r
	case *types.Signature:
		r := TypeRef{Kind: TypeFunc, Variadic: t.Variadic()}
		for i := range t.Params().Len() {
			r.Params = append(r.Params, c.ref(t.Params().At(i).Type(), depth))
		}
		for i := range t.Results().Len() {
			r.Results = append(r.Results, c.ref(t.Results().At(i).Type(), depth))
		}
		return r
	case *types.Interface:
		if t.Empty() {
			return Basic("any")
		}
		return TypeRef{Kind: TypeInterface, Opaque: true}
	case *types.Struct:
		return TypeRef{Kind: TypeStruct, Opaque: t.NumFields() > 0}
	case *types.TypeParam:
		return TypeRef{Kind: TypeParam, Name: t.Obj().Name()}
	default:
		return Basic("any")
	}
}
