package gen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/catalog/compiler/load"
)

func TestResolverMatch(t *testing.T) {
	ctx := context.Background()
	status := shape("OrderStatus", nil)
	generic := shape("Box", nil)
	generic.TypeParams = []string{"T"}
	plain := shape("Plain", nil)
	// A and B refer to each other.
	a := impl("A", 1, []load.TypeRef{ref("B")})
	b := impl("B", 2, []load.TypeRef{ref("A"), ref("OrderStatus")})
	mid := shape("Terminal", nil)
	mid.Supertypes = []load.TypeRef{ref("OrderStatus")}
	deep := impl("Delivered", 3, []load.TypeRef{ref("Terminal")})
	boxed := impl("IntBox", 4, []load.TypeRef{load.Named(string(shopModule), "Box", load.Basic("int"))})
	plainInst := impl("Odd", 5, []load.TypeRef{load.Named(string(shopModule), "Plain", load.Basic("int"))})
	reg := load.NewMemoryRegistry(shopModule).Add(status, generic, plain, a, b, mid, deep, boxed, plainInst)
	r := NewResolver(reg, NewExtractor(reg))

	tests := []struct {
		name  string
		d     *load.Decl
		shape *load.Decl
		want  bool
	}{
		{"direct", b, status, true},
		{"through a cycle", a, status, true},
		{"through an intermediate shape", deep, status, true},
		{"unrelated", deep, plain, false},
		{"generic shape by instantiation", boxed, generic, true},
		{"non-generic shape never matches an instantiation", plainInst, plain, false},
		{"a shape is not its own entry", status, status, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Match(ctx, tt.d, tt.shape))
		})
	}
}

func TestDedupe(t *testing.T) {
	usd := impl("USD", 1, nil)
	usd.Module = shopModule
	eur := impl("EUR", 2, nil)
	eur.Module = shopModule
	copied := *usd
	out := dedupe([]Candidate{{Decl: usd, Local: true}, {Decl: eur, Local: true}, {Decl: &copied}})
	assert.Len(t, out, 2)
	assert.Same(t, usd, out[0].Decl)
	assert.True(t, out[0].Local)
}

func TestMethodSet(t *testing.T) {
	ctx := context.Background()
	base := shape("Named", nil, method("Name", load.Basic("string")))
	value := shape("Valued", nil, method("Value", load.TypeRef{Kind: load.TypeParam, Name: "T"}))
	value.TypeParams = []string{"T"}
	both := shape("Price", nil, method("Name", load.Basic("string")))
	both.Supertypes = []load.TypeRef{ref("Named"), load.Named(string(shopModule), "Valued", load.Basic("int"))}
	reg := load.NewMemoryRegistry(shopModule).Add(base, value, both)

	ms := methodSet(ctx, reg, both, both.Ref())
	var got []string
	for _, m := range ms {
		got = append(got, m.Name)
		if m.Name == "Value" {
			assert.True(t, m.Results[0].Equal(load.Basic("int")), "type arguments are substituted")
		}
	}
	assert.ElementsMatch(t, []string{"Name", "Value"}, got)
}
