package gen

import (
	"io"
	"log/slog"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/catalog/compiler/load"
)

const shopModule load.ModuleID = "example.com/shop"

func ref(name string) load.TypeRef { return load.Named(string(shopModule), name) }

func method(name string, result load.TypeRef) *load.Member {
	return &load.Member{Name: name, Kind: load.MemberMethod, Results: []load.TypeRef{result}, Exported: true}
}

func field(name string, t load.TypeRef) *load.Member {
	return &load.Member{Name: name, Kind: load.MemberField, Results: []load.TypeRef{t}, Exported: true}
}

func keyed(m *load.Member, cfg load.KeyConfig) *load.Member {
	m.Key = &cfg
	return m
}

// shape returns an interface declaration carrying the given catalogs.
func shape(name string, cfgs []*load.CatalogConfig, members ...*load.Member) *load.Decl {
	return &load.Decl{
		Name:     name,
		Kind:     load.KindInterface,
		Exported: true,
		Members:  members,
		Catalogs: cfgs,
		Pos:      load.Pos{File: "shop.go", Line: 1},
	}
}

// impl returns an exported struct built by its composite literal.
func impl(name string, line int, supers []load.TypeRef, members ...*load.Member) *load.Decl {
	return &load.Decl{
		Name:         name,
		Kind:         load.KindStruct,
		Exported:     true,
		Supertypes:   supers,
		Members:      members,
		Constructors: []load.Constructor{{Implicit: true, Exported: true, Pointer: true}},
		Pos:          load.Pos{File: "shop.go", Line: line},
	}
}

func catalogs(cfgs ...*load.CatalogConfig) []*load.CatalogConfig { return cfgs }

// orderStatusDecls declares a case-insensitive catalog without identity.
func orderStatusDecls() []*load.Decl {
	label := func() *load.Member { return method("Label", load.Basic("string")) }
	super := []load.TypeRef{ref("OrderStatus")}
	return []*load.Decl{
		shape("OrderStatus", catalogs(&load.CatalogConfig{}), label()),
		impl("Pending", 10, super, label()),
		impl("Processing", 20, super, label()),
		impl("Shipped", 30, super, label()),
	}
}

func orderStatuses() *load.MemoryRegistry {
	return load.NewMemoryRegistry(shopModule).Add(orderStatusDecls()...)
}

func currencyMembers() []*load.Member {
	return []*load.Member{method("Code", load.Basic("string")), method("Symbol", load.Basic("string"))}
}

// currencyDecls declares a catalog keyed by code. The currency entries
// live in currency.go.
func currencyDecls(cfgs ...*load.CatalogConfig) []*load.Decl {
	if len(cfgs) == 0 {
		cfgs = catalogs(&load.CatalogConfig{})
	}
	super := []load.TypeRef{ref("Currency")}
	c := shape("Currency", cfgs,
		keyed(method("Code", load.Basic("string")), load.KeyConfig{}),
		method("Symbol", load.Basic("string")),
	)
	c.Pos = load.Pos{File: "currency.go", Line: 1}
	usd := impl("USD", 10, super, currencyMembers()...)
	eur := impl("EUR", 20, super, currencyMembers()...)
	usd.Pos.File, eur.Pos.File = "currency.go", "currency.go"
	return []*load.Decl{c, usd, eur}
}

func currencies() *load.MemoryRegistry {
	return load.NewMemoryRegistry(shopModule).Add(currencyDecls()...)
}

// products is a struct-based catalog with a multi-result key.
func products() *load.MemoryRegistry {
	product := &load.Decl{
		Name:       "Product",
		Kind:       load.KindStruct,
		Exported:   true,
		Supertypes: []load.TypeRef{ref("Item")},
		Members: []*load.Member{
			field("Name", load.Basic("string")),
			field("Categories", load.SliceOf(load.Basic("string"))),
			method("Title", load.Basic("string")),
		},
		Constructors: []load.Constructor{
			{Implicit: true, Exported: true},
			{Name: "NewProduct", Exported: true, Pointer: true, Params: []load.Param{{Name: "name", Type: load.Basic("string")}}},
		},
		Catalogs: catalogs(&load.CatalogConfig{Keys: []*load.KeyConfig{{Member: "Categories", Multi: true}}}),
		Pos:      load.Pos{File: "product.go", Line: 1},
	}
	item := shape("Item", nil, method("Title", load.Basic("string")), method("Price", load.Basic("int")))
	super := []load.TypeRef{ref("Product")}
	headphones := impl("Headphones", 10, super, method("Price", load.Basic("int")))
	headphones.Constructors = append(headphones.Constructors, load.Constructor{Name: "NewHeadphones", Exported: true, Pointer: true})
	speaker := impl("Speaker", 20, super, method("Price", load.Basic("int")))
	return load.NewMemoryRegistry(shopModule).Add(item, product, headphones, speaker)
}

// listEmitter renders the display names of a catalog as a string slice.
func listEmitter() Emitter {
	return EmitterFunc(func(cfg *Config, c *Catalog) (*jen.File, error) {
		f := jen.NewFilePathName(cfg.Package, cfg.PackageName())
		f.HeaderComment(cfg.Header)
		var names []jen.Code
		for _, e := range c.Entries() {
			names = append(names, jen.Lit(e.DisplayName()))
		}
		f.Var().Id(c.Artifact()).Op("=").Index().String().Values(names...)
		return f, nil
	})
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestCompiler(reg load.Registry, opts ...Option) (*Compiler, error) {
	return New(reg, append([]Option{WithEmitter(listEmitter()), WithLogger(discard())}, opts...)...)
}

func names(c *Catalog) []string {
	var out []string
	for _, e := range c.Entries() {
		out = append(out, e.DisplayName())
	}
	return out
}
