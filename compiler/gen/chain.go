package gen

import (
	"context"

	"github.com/syssam/catalog/compiler/load"
)

// typeArgs maps the type parameters of d to the arguments of ref.
func typeArgs(d *load.Decl, ref load.TypeRef) map[string]load.TypeRef {
	if len(d.TypeParams) == 0 || len(ref.Args) != len(d.TypeParams) {
		return nil
	}
	m := make(map[string]load.TypeRef, len(d.TypeParams))
	for i, p := range d.TypeParams {
		m[p] = ref.Args[i]
	}
	return m
}

// subst replaces the type parameters of t found in args.
func subst(t load.TypeRef, args map[string]load.TypeRef) load.TypeRef {
	if len(args) == 0 {
		return t
	}
	if t.Kind == load.TypeParam {
		if a, ok := args[t.Name]; ok {
			return a
		}
		return t
	}
	if t.Elem != nil {
		e := subst(*t.Elem, args)
		t.Elem = &e
	}
	if t.Key != nil {
		k := subst(*t.Key, args)
		t.Key = &k
	}
	t.Args = substAll(t.Args, args)
	t.Params = substAll(t.Params, args)
	t.Results = substAll(t.Results, args)
	return t
}

func substAll(ts []load.TypeRef, args map[string]load.TypeRef) []load.TypeRef {
	if len(ts) == 0 {
		return ts
	}
	out := make([]load.TypeRef, len(ts))
	for i, t := range ts {
		out[i] = subst(t, args)
	}
	return out
}

// dependsOnParams reports whether t mentions a type parameter.
func dependsOnParams(t load.TypeRef) bool {
	if t.Kind == load.TypeParam {
		return true
	}
	if t.Elem != nil && dependsOnParams(*t.Elem) {
		return true
	}
	if t.Key != nil && dependsOnParams(*t.Key) {
		return true
	}
	for _, ts := range [][]load.TypeRef{t.Args, t.Params, t.Results} {
		for _, a := range ts {
			if dependsOnParams(a) {
				return true
			}
		}
	}
	return false
}

// methodSet returns the methods of the interface declaration d, embedded
// interfaces included, with the type arguments of ref applied. The first
// declaration of a name wins.
func methodSet(ctx context.Context, reg load.Registry, d *load.Decl, ref load.TypeRef) []*load.Member {
	var (
		out  []*load.Member
		seen = make(map[string]bool)
		done = make(map[load.DeclID]bool)
	)
	var walk func(*load.Decl, load.TypeRef)
	walk = func(d *load.Decl, ref load.TypeRef) {
		if done[d.ID()] {
			return
		}
		done[d.ID()] = true
		args := typeArgs(d, ref)
		for _, m := range d.Members {
			if m.Kind != load.MemberMethod || seen[m.Name] {
				continue
			}
			seen[m.Name] = true
			out = append(out, substMember(m, args))
		}
		for _, st := range d.Supertypes {
			sd, err := reg.Lookup(ctx, st)
			if err != nil || sd.Kind != load.KindInterface {
				continue
			}
			walk(sd, subst(st, args))
		}
	}
	walk(d, ref)
	return out
}

func substMember(m *load.Member, args map[string]load.TypeRef) *load.Member {
	if len(args) == 0 {
		return m
	}
	cp := *m
	cp.Params = make([]load.Param, len(m.Params))
	for i, p := range m.Params {
		p.Type = subst(p.Type, args)
		cp.Params[i] = p
	}
	cp.Results = make([]load.TypeRef, len(m.Results))
	for i, r := range m.Results {
		cp.Results[i] = subst(r, args)
	}
	return &cp
}

// members returns the members of d together with the members promoted
// from embedded structs and, for interfaces, embedded interfaces. Shadowed
// members are dropped.
func members(ctx context.Context, reg load.Registry, d *load.Decl) map[string]*load.Member {
	out := make(map[string]*load.Member)
	done := make(map[load.DeclID]bool)
	var walk func(*load.Decl)
	walk = func(d *load.Decl) {
		if done[d.ID()] {
			return
		}
		done[d.ID()] = true
		for _, m := range d.Members {
			if _, ok := out[m.Name]; !ok {
				out[m.Name] = m
			}
		}
		for _, st := range d.Supertypes {
			sd, err := reg.Lookup(ctx, st)
			if err != nil || sd.Kind != d.Kind {
				continue
			}
			walk(sd)
		}
	}
	walk(d)
	return out
}
