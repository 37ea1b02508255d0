package load

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclID(t *testing.T) {
	id := NewDeclID("example.com/shop", "Currency")
	assert.Equal(t, DeclID("example.com/shop.Currency"), id)
	assert.Equal(t, ModuleID("example.com/shop"), id.Module())
	assert.Equal(t, "Currency", id.Name())
	assert.Equal(t, DeclID("Currency"), NewDeclID("", "Currency"))
	assert.Empty(t, DeclID("Currency").Module())
}

func TestTypeRef(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		ref := Named("example.com/shop", "Product", Basic("int"))
		assert.Equal(t, "example.com/shop.Product[int]", ref.String())
		assert.Equal(t, "*example.com/shop.Product", PointerTo(Named("example.com/shop", "Product")).String())
		assert.Equal(t, "map[string][]int", MapOf(Basic("string"), SliceOf(Basic("int"))).String())
		visit := FuncOf([]TypeRef{Basic("string"), SliceOf(Basic("any"))}, []TypeRef{Basic("bool"), Basic("error")}, true)
		assert.Equal(t, "func(string, ...any) (bool, error)", visit.String())
		str := Basic("string")
		assert.Equal(t, "<-chan string", TypeRef{Kind: TypeChan, Elem: &str, Dir: ChanRecv}.String())
	})
	t.Run("Spellable", func(t *testing.T) {
		assert.True(t, FuncOf([]TypeRef{Basic("string")}, nil, false).Spellable())
		opaque := TypeRef{Kind: TypeStruct, Opaque: true}
		assert.False(t, opaque.Spellable())
		assert.False(t, SliceOf(opaque).Spellable())
		assert.False(t, FuncOf(nil, []TypeRef{opaque}, false).Spellable())
		assert.True(t, TypeRef{Kind: TypeStruct}.Spellable())
		assert.False(t, FuncOf(nil, nil, false).Equal(FuncOf(nil, nil, true)))
	})
	t.Run("Unbound", func(t *testing.T) {
		ref := Named("example.com/shop", "Product", Basic("int"))
		assert.True(t, ref.Generic())
		assert.False(t, ref.Unbound().Generic())
		assert.True(t, ref.Unbound().Equal(Named("example.com/shop", "Product")))
		assert.False(t, ref.Equal(ref.Unbound()))
	})
	t.Run("IsInteger", func(t *testing.T) {
		assert.True(t, Basic("int64").IsInteger())
		assert.False(t, Basic("string").IsInteger())
		kind := Named("example.com/shop", "Kind")
		assert.False(t, kind.IsInteger())
		u := Basic("int")
		kind.Underlying = &u
		assert.True(t, kind.IsInteger())
	})
	t.Run("IsCollection", func(t *testing.T) {
		assert.True(t, SliceOf(Basic("string")).IsCollection())
		assert.True(t, MapOf(Basic("string"), Basic("int")).IsCollection())
		tags := Named("example.com/shop", "Tags")
		u := SliceOf(Basic("string"))
		tags.Underlying = &u
		assert.True(t, tags.IsCollection())
		assert.False(t, Basic("string").IsCollection())
	})
}

func TestParseTypeRef(t *testing.T) {
	tests := []struct {
		in   string
		want TypeRef
	}{
		{"int", Basic("int")},
		{"example.com/shop.Currency", Named("example.com/shop", "Currency")},
		{"*example.com/shop.Product", PointerTo(Named("example.com/shop", "Product"))},
		{"[]string", SliceOf(Basic("string"))},
		{"example.com/x.Pair[int, example.com/x.Box[string]]", Named("example.com/x", "Pair", Basic("int"), Named("example.com/x", "Box", Basic("string")))},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTypeRef(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
	for _, in := range []string{"", "example.com/x.Box[int", ".Name", "pkg."} {
		_, err := ParseTypeRef(in)
		assert.Error(t, err, in)
	}
}

func TestMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	inner := &Decl{Name: "Inner", Kind: KindStruct}
	shape := &Decl{Name: "Currency", Kind: KindInterface, Exported: true, Nested: []*Decl{inner}}
	r := NewMemoryRegistry("example.com/shop").
		Add(shape).
		AddModule("example.com/money",
			&Decl{Name: "BTC", Kind: KindStruct, Exported: true},
			&Decl{Name: "hidden", Kind: KindStruct},
		).
		AddModule("example.com/empty").
		Fail("example.com/broken", errors.New("corrupt metadata"))

	assert.Equal(t, ModuleID("example.com/shop"), r.Module())
	decls, err := r.Decls(ctx)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, ModuleID("example.com/shop"), decls[0].Module)
	assert.Equal(t, ModuleID("example.com/shop"), inner.Module)

	refs, err := r.References(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ModuleID{"example.com/money", "example.com/empty", "example.com/broken"}, refs)

	money, err := r.ModuleDecls(ctx, "example.com/money")
	require.NoError(t, err)
	require.Len(t, money, 1, "unexported declarations are not visible")
	assert.Equal(t, "BTC", money[0].Name)

	empty, err := r.ModuleDecls(ctx, "example.com/empty")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = r.ModuleDecls(ctx, "example.com/broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt metadata")

	_, err = r.ModuleDecls(ctx, "example.com/unknown")
	require.ErrorIs(t, err, ErrModuleNotFound)

	d, err := r.Lookup(ctx, PointerTo(Named("example.com/shop", "Inner")))
	require.NoError(t, err)
	assert.Same(t, inner, d)
	d, err = r.Lookup(ctx, Named("example.com/money", "hidden"))
	require.NoError(t, err)
	assert.Equal(t, "hidden", d.Name)
	_, err = r.Lookup(ctx, Basic("int"))
	require.ErrorIs(t, err, ErrDeclNotFound)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.Decls(canceled)
	require.ErrorIs(t, err, context.Canceled)
}
