package load

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shopPkg  = "github.com/syssam/catalog/compiler/load/testdata/shop"
	moneyPkg = "github.com/syssam/catalog/compiler/load/testdata/money"
)

func TestLoadPackages(t *testing.T) {
	if testing.Short() {
		t.Skip("loading packages runs the go command")
	}
	ctx := context.Background()
	r, err := LoadPackages(ctx, ".", nil, "./testdata/shop")
	require.NoError(t, err)
	assert.Equal(t, ModuleID(shopPkg), r.Module())

	decls, err := r.Decls(ctx)
	require.NoError(t, err)
	byName := make(map[string]*Decl)
	var names []string
	for _, d := range decls {
		byName[d.Name] = d
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Currency", "USD", "EUR", "Product", "Headphones"}, names)

	t.Run("Shape", func(t *testing.T) {
		c := byName["Currency"]
		assert.Equal(t, KindInterface, c.Kind)
		require.Len(t, c.Catalogs, 1)
		assert.Equal(t, "ordinal", c.Catalogs[0].Comparison)
		assert.True(t, c.Catalogs[0].CrossModule)
		code, ok := c.Member("Code")
		require.True(t, ok)
		require.NotNil(t, code.Key)
		assert.Equal(t, "Code", code.Key.Member)
		_, ok = c.Member("Symbol")
		assert.True(t, ok, "embedded methods are members")
		require.Len(t, c.Supertypes, 1)
		assert.Equal(t, Named(moneyPkg, "Unit"), c.Supertypes[0].Unbound())
	})
	t.Run("Entry", func(t *testing.T) {
		usd := byName["USD"]
		require.NotNil(t, usd.Entry)
		assert.Equal(t, 1, usd.Entry.Order)
		assert.Contains(t, refNames(usd.Supertypes), "Currency")
		assert.Nil(t, byName["EUR"].Entry)
		assert.Contains(t, refNames(byName["EUR"].Supertypes), "Currency")
	})
	t.Run("Struct", func(t *testing.T) {
		p := byName["Product"]
		require.Len(t, p.Catalogs, 1)
		require.Len(t, p.Catalogs[0].Keys, 1)
		assert.True(t, p.Catalogs[0].Keys[0].Multi)
		kind, ok := p.Member("Kind")
		require.True(t, ok)
		typ, _ := kind.Type()
		assert.True(t, typ.IsInteger())
		cats, _ := p.Member("Categories")
		typ, _ = cats.Type()
		assert.True(t, typ.IsCollection())
		require.Len(t, p.Constructors, 2)
		assert.True(t, p.Constructors[0].Implicit)
		assert.Equal(t, "NewProduct", p.Constructors[1].Name)
		assert.True(t, p.Constructors[1].Pointer)

		h := byName["Headphones"]
		assert.True(t, h.Pointer)
		assert.Contains(t, refNames(h.Supertypes), "Product")
		_, ok = h.Member("Name")
		assert.True(t, ok, "promoted fields are members")
	})
	t.Run("References", func(t *testing.T) {
		refs, err := r.References(ctx)
		require.NoError(t, err)
		assert.Equal(t, []ModuleID{moneyPkg, "time"}, refs)
		decls, err := r.ModuleDecls(ctx, moneyPkg)
		require.NoError(t, err)
		assert.Equal(t, []string{"Unit", "BTC"}, declNames(decls))
		btc := decls[1]
		require.NotNil(t, btc.Entry)
		assert.Equal(t, "Bitcoin", btc.Entry.DisplayName)
	})
	t.Run("Lookup", func(t *testing.T) {
		d, err := r.Lookup(ctx, Named(moneyPkg, "hidden"))
		require.NoError(t, err)
		assert.False(t, d.Exported)
		_, err = r.Lookup(ctx, Named(shopPkg, "Missing"))
		require.ErrorIs(t, err, ErrDeclNotFound)
	})
}

func refNames(refs []TypeRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name
	}
	return out
}

func declNames(decls []*Decl) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.Name
	}
	return out
}
