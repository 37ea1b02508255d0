package gen

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/catalog/compiler/load"
)

func TestModuleCache(t *testing.T) {
	gbp := impl("GBP", 1, []load.TypeRef{ref("Currency")})
	gbp.Nested = []*load.Decl{
		{Name: "Pence", Kind: load.KindStruct, Exported: true},
		{Name: "round", Kind: load.KindStruct},
	}
	reg := load.NewMemoryRegistry(shopModule).
		AddModule("example.com/fx", gbp).
		Fail("example.com/broken", errors.New("boom"))

	t.Run("concurrent reads share one scan", func(t *testing.T) {
		cache := NewModuleCache(reg)
		var (
			wg      sync.WaitGroup
			results = make([][]*load.Decl, 16)
		)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				decls, err := cache.Decls(context.Background(), "example.com/fx")
				assert.NoError(t, err)
				results[i] = decls
			}()
		}
		wg.Wait()
		assert.Equal(t, int64(1), cache.Reads())
		for _, decls := range results {
			require.Len(t, decls, 2, "unexported nested declarations are skipped")
			assert.Same(t, results[0][0], decls[0])
			assert.Equal(t, "Pence", decls[1].Name)
		}
	})

	t.Run("failures are memoized", func(t *testing.T) {
		cache := NewModuleCache(reg)
		for range 3 {
			_, err := cache.Decls(context.Background(), "example.com/broken")
			require.Error(t, err)
			assert.True(t, IsScanError(err))
		}
		assert.Equal(t, int64(1), cache.Reads())
		failures := cache.Failures()
		require.Len(t, failures, 1)
		assert.Equal(t, "example.com/broken", failures[0].Module)
	})

	t.Run("first writer wins", func(t *testing.T) {
		cache := NewModuleCache(reg)
		first := cache.store("example.com/fx", moduleScan{decls: []*load.Decl{gbp}})
		second := cache.store("example.com/fx", moduleScan{})
		assert.Equal(t, first, second)
		decls, err := cache.Decls(context.Background(), "example.com/fx")
		require.NoError(t, err)
		assert.Len(t, decls, 1)
		assert.Zero(t, cache.Reads())
	})

	t.Run("cancellation is not memoized", func(t *testing.T) {
		cache := NewModuleCache(reg)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := cache.Decls(ctx, "example.com/fx")
		require.ErrorIs(t, err, context.Canceled)
		decls, err := cache.Decls(context.Background(), "example.com/fx")
		require.NoError(t, err)
		assert.NotEmpty(t, decls)
	})
}

func TestScanner(t *testing.T) {
	generic := &load.Decl{Name: "Box", Kind: load.KindStruct, Exported: true, TypeParams: []string{"T"}}
	outer := impl("Outer", 40, nil)
	outer.Nested = []*load.Decl{impl("Inner", 41, []load.TypeRef{ref("OrderStatus")}, method("Label", load.Basic("string")))}
	reg := orderStatuses().
		Add(generic, outer).
		AddModule("example.com/fx", impl("Remote", 1, nil)).
		Fail("example.com/broken", errors.New("boom"))
	s := NewScanner(reg, NewModuleCache(reg))

	scan, err := s.Local(context.Background())
	require.NoError(t, err)
	require.Len(t, scan.Shapes, 1)
	assert.Equal(t, "OrderStatus", scan.Shapes[0].Name)
	var local []string
	for _, c := range scan.Candidates {
		assert.True(t, c.Local)
		local = append(local, c.Decl.Name)
	}
	assert.Equal(t, []string{"Pending", "Processing", "Shipped", "Outer", "Inner"}, local)

	refs, err := s.Referenced(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Remote", refs[0].Decl.Name)
	assert.False(t, refs[0].Local)

	t.Run("nested entries compile", func(t *testing.T) {
		res := compile(t, load.NewMemoryRegistry(shopModule).Add(append(orderStatusDecls(), outer)...))
		assert.Equal(t, []string{"Pending", "Processing", "Shipped", "Inner"}, names(unit(t, res, "OrderStatus").Catalog))
	})
}
