package load

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shopRegistry() *MemoryRegistry {
	return NewMemoryRegistry("example.com/shop").Add(
		&Decl{Name: "Currency", Kind: KindInterface, Exported: true},
		&Decl{Name: "USD", Kind: KindStruct, Exported: true},
	)
}

func TestReadFile(t *testing.T) {
	t.Run("YAML", func(t *testing.T) {
		f, err := ReadFile(filepath.Join("testdata", "config.yaml"))
		require.NoError(t, err)
		require.Len(t, f.Catalogs, 2)
		c := f.Catalogs[0]
		assert.Equal(t, "example.com/shop.Currency", c.Shape)
		assert.Equal(t, "ordinal", c.Comparison)
		require.Len(t, c.Keys, 1)
		assert.Equal(t, "Code", c.Keys[0].Member)
		assert.Equal(t, 2, c.Pos.Line)
		assert.Equal(t, filepath.Join("testdata", "config.yaml"), c.Pos.File)
		assert.True(t, f.Catalogs[1].Static)
		assert.Equal(t, "Fiat", f.Catalogs[1].Name)
		require.Len(t, f.Entries, 2)
		assert.Equal(t, "US Dollar", f.Entries[0].DisplayName)
		assert.Equal(t, 2, f.Entries[0].Order)
	})
	t.Run("HCL", func(t *testing.T) {
		f, err := ReadFile(filepath.Join("testdata", "config.hcl"))
		require.NoError(t, err)
		require.Len(t, f.Catalogs, 1)
		c := f.Catalogs[0]
		assert.Equal(t, "example.com/shop.Currency", c.Shape)
		assert.Equal(t, "ordinal", c.Comparison)
		require.Len(t, c.Keys, 1)
		assert.Equal(t, "Code", c.Keys[0].Member)
		assert.Equal(t, "ByCode", c.Keys[0].Accessor)
		assert.Equal(t, 1, c.Pos.Line)
		require.Len(t, f.Entries, 1)
		assert.Equal(t, []string{"Currency"}, f.Entries[0].Catalogs)
		assert.Equal(t, "US Dollar", f.Entries[0].DisplayName)
	})
	t.Run("Unsupported", func(t *testing.T) {
		_, err := ReadFile("catalog.toml")
		require.Error(t, err)
	})
}

func TestParseYAML(t *testing.T) {
	_, err := ParseYAML("bad.yaml", []byte("catalog:\n  - shape: x.Y\n"))
	require.Error(t, err, "unknown top-level fields are rejected")

	_, err = ParseYAML("bad.yaml", []byte("catalogs:\n  - name: Y\n"))
	require.Error(t, err, "shape is required")

	f, err := ParseYAML("empty.yaml", nil)
	require.NoError(t, err)
	assert.Empty(t, f.Catalogs)
}

func TestParseHCL(t *testing.T) {
	_, err := ParseHCL("bad.hcl", []byte(`catalog "x.Y" { unknown = 1 }`))
	require.Error(t, err)

	_, err = ParseHCL("bad.hcl", []byte(`catalog {`))
	require.Error(t, err)
}

func TestConfigure(t *testing.T) {
	ctx := context.Background()
	base := shopRegistry()
	f, err := ReadFile(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	r := Configure(base, f)

	decls, err := r.Decls(ctx)
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Len(t, decls[0].Catalogs, 2)
	require.NotNil(t, decls[1].Entry)
	assert.Equal(t, "US Dollar", decls[1].Entry.DisplayName)

	orig, ok := base.Find("example.com/shop.Currency")
	require.True(t, ok)
	assert.Empty(t, orig.Catalogs, "underlying registry is not mutated")

	d, err := r.Lookup(ctx, Named("example.com/shop", "Currency"))
	require.NoError(t, err)
	assert.Same(t, decls[0], d, "copies keep their identity")

	missing := r.Check(ctx)
	require.Len(t, missing, 1)
	assert.False(t, missing[0].Shape)
	assert.Equal(t, "example.com/shop.Missing", missing[0].Name)
	assert.Equal(t, 13, missing[0].Pos.Line)
	assert.ErrorIs(t, missing[0].Err, ErrDeclNotFound)
}
