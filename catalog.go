// Package catalog holds the runtime support imported by generated catalog
// registries: frozen lookup indexes, name comparison modes and the errors
// returned by error-style lookups.
//
// Generated registries never build their own maps. Every lookup structure is
// created through a builder that inserts first-wins and is then frozen:
//
//	b := catalog.NewFoldIndexBuilder[Currency](catalog.IgnoreCase, 2)
//	b.Add("USD", usd)
//	b.Add("EUR", eur)
//	byName := b.Freeze()
//
// Frozen indexes are immutable and safe for concurrent use.
package catalog

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Comparison defines how display names are compared in a catalog.
type Comparison uint8

const (
	// IgnoreCase compares names after locale-invariant case folding.
	// It is the default comparison of a catalog.
	IgnoreCase Comparison = iota
	// Ordinal compares names byte by byte.
	Ordinal
)

// String implements fmt.Stringer.
func (c Comparison) String() string {
	switch c {
	case IgnoreCase:
		return "ignore-case"
	case Ordinal:
		return "ordinal"
	default:
		return fmt.Sprintf("Comparison(%d)", uint8(c))
	}
}

// ParseComparison parses the textual form of a comparison mode. The empty
// string yields the default mode.
func ParseComparison(s string) (Comparison, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore-case", "ignorecase", "case-insensitive":
		return IgnoreCase, nil
	case "ordinal", "case-sensitive":
		return Ordinal, nil
	default:
		return 0, fmt.Errorf("catalog: unknown comparison mode %q", s)
	}
}

// Normalize returns the form of s used as a lookup key under c.
func (c Comparison) Normalize(s string) string {
	if c == Ordinal {
		return s
	}
	return Fold(s)
}

// Equal reports whether a and b are the same name under c.
func (c Comparison) Equal(a, b string) bool {
	if c == Ordinal {
		return a == b
	}
	return a == b || Fold(a) == Fold(b)
}

// cases.Caser is stateful, so each goroutine borrows its own.
var folders = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

// Fold returns the locale-invariant case folding of s.
func Fold(s string) string {
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	return c.String(s)
}
