package gen

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/catalog/compiler/load"
)

func largeRegistry(n int) *load.MemoryRegistry {
	decls := currencyDecls()[:1]
	super := []load.TypeRef{ref("Currency")}
	for i := range n {
		decls = append(decls, impl(fmt.Sprintf("Currency%03d", i), i+10, super, currencyMembers()...))
	}
	return load.NewMemoryRegistry(shopModule).Add(decls...)
}

func BenchmarkCompile(b *testing.B) {
	reg := largeRegistry(200)
	b.Run("cold", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			c, err := newTestCompiler(reg)
			require.NoError(b, err)
			_, err = c.Compile(context.Background())
			require.NoError(b, err)
		}
	})
	b.Run("cached", func(b *testing.B) {
		c, err := newTestCompiler(reg)
		require.NoError(b, err)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, err := c.Compile(context.Background())
			require.NoError(b, err)
		}
	})
}
