package catalog

import (
	"slices"
)

// linearMax is the largest index kept as parallel slices. Small catalogs
// are faster to scan than to hash.
const linearMax = 8

// Integer is the constraint for identity keys.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Index is a frozen single-result lookup. The zero value is an empty index.
type Index[K comparable, V any] struct {
	keys []K
	vals []V
	m    map[K]V
}

// IndexBuilder accumulates the entries of an Index. The first value added
// for a key wins; later values for the same key are ignored.
type IndexBuilder[K comparable, V any] struct {
	keys []K
	vals []V
	pos  map[K]int
}

// NewIndexBuilder returns a builder sized for n entries.
func NewIndexBuilder[K comparable, V any](n int) *IndexBuilder[K, V] {
	return &IndexBuilder[K, V]{
		keys: make([]K, 0, n),
		vals: make([]V, 0, n),
		pos:  make(map[K]int, n),
	}
}

// Add inserts v under k if k is absent. It reports whether v was inserted.
func (b *IndexBuilder[K, V]) Add(k K, v V) bool {
	if _, ok := b.pos[k]; ok {
		return false
	}
	b.pos[k] = len(b.keys)
	b.keys = append(b.keys, k)
	b.vals = append(b.vals, v)
	return true
}

// Len returns the number of distinct keys added so far.
func (b *IndexBuilder[K, V]) Len() int { return len(b.keys) }

// Freeze returns the read-optimized form of the accumulated entries.
// The builder may be reused afterwards without affecting the index.
func (b *IndexBuilder[K, V]) Freeze() Index[K, V] {
	x := Index[K, V]{
		keys: slices.Clone(b.keys),
		vals: slices.Clone(b.vals),
	}
	if len(x.keys) > linearMax {
		x.m = make(map[K]V, len(x.keys))
		for i, k := range x.keys {
			x.m[k] = x.vals[i]
		}
	}
	return x
}

// Get returns the value stored under k.
func (x Index[K, V]) Get(k K) (V, bool) {
	if x.m != nil {
		v, ok := x.m[k]
		return v, ok
	}
	for i := range x.keys {
		if x.keys[i] == k {
			return x.vals[i], true
		}
	}
	var zero V
	return zero, false
}

// Len returns the number of keys in the index.
func (x Index[K, V]) Len() int { return len(x.keys) }

// Keys returns the keys in insertion order.
func (x Index[K, V]) Keys() []K { return slices.Clone(x.keys) }

// Hashed reports whether the index was frozen into a hash map.
func (x Index[K, V]) Hashed() bool { return x.m != nil }

// FoldIndex is a frozen name lookup that honors a Comparison.
type FoldIndex[V any] struct {
	cmp Comparison
	idx Index[string, V]
}

// FoldIndexBuilder accumulates the entries of a FoldIndex.
type FoldIndexBuilder[V any] struct {
	cmp Comparison
	b   *IndexBuilder[string, V]
}

// NewFoldIndexBuilder returns a builder comparing names with cmp.
func NewFoldIndexBuilder[V any](cmp Comparison, n int) *FoldIndexBuilder[V] {
	return &FoldIndexBuilder[V]{cmp: cmp, b: NewIndexBuilder[string, V](n)}
}

// Add inserts v under name if no equal name was added before.
func (b *FoldIndexBuilder[V]) Add(name string, v V) bool {
	return b.b.Add(b.cmp.Normalize(name), v)
}

// Freeze returns the frozen name index.
func (b *FoldIndexBuilder[V]) Freeze() FoldIndex[V] {
	return FoldIndex[V]{cmp: b.cmp, idx: b.b.Freeze()}
}

// Get returns the value registered under a name equal to name.
func (x FoldIndex[V]) Get(name string) (V, bool) {
	return x.idx.Get(x.cmp.Normalize(name))
}

// Len returns the number of names in the index.
func (x FoldIndex[V]) Len() int { return x.idx.Len() }

// Comparison returns the comparison mode of the index.
func (x FoldIndex[V]) Comparison() Comparison { return x.cmp }

// MultiIndex is a frozen multi-result lookup.
type MultiIndex[K comparable, V any] struct {
	m map[K][]V
}

// MultiIndexBuilder groups values per key in insertion order.
type MultiIndexBuilder[K comparable, V any] struct {
	keys []K
	m    map[K][]V
}

// NewMultiIndexBuilder returns a builder sized for n keys.
func NewMultiIndexBuilder[K comparable, V any](n int) *MultiIndexBuilder[K, V] {
	return &MultiIndexBuilder[K, V]{m: make(map[K][]V, n)}
}

// Add appends v to the group of k.
func (b *MultiIndexBuilder[K, V]) Add(k K, v V) {
	if _, ok := b.m[k]; !ok {
		b.keys = append(b.keys, k)
	}
	b.m[k] = append(b.m[k], v)
}

// AddAll appends v to the group of every key in ks. Repeated keys add v once.
func (b *MultiIndexBuilder[K, V]) AddAll(ks []K, v V) {
	seen := make(map[K]struct{}, len(ks))
	for _, k := range ks {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		b.Add(k, v)
	}
}

// Freeze returns the frozen multi index.
func (b *MultiIndexBuilder[K, V]) Freeze() MultiIndex[K, V] {
	m := make(map[K][]V, len(b.keys))
	for _, k := range b.keys {
		m[k] = slices.Clip(slices.Clone(b.m[k]))
	}
	return MultiIndex[K, V]{m: m}
}

// Get returns a copy of the group stored under k, in insertion order.
// It returns an empty, non-nil slice when k is absent.
func (x MultiIndex[K, V]) Get(k K) []V {
	vs, ok := x.m[k]
	if !ok {
		return []V{}
	}
	return slices.Clone(vs)
}

// Len returns the number of distinct keys.
func (x MultiIndex[K, V]) Len() int { return len(x.m) }

// IDIndex is a frozen lookup keyed by integer identity.
type IDIndex[K Integer, V any] struct {
	dense   []V
	present []bool
	m       map[K]V
}

// IDIndexBuilder accumulates an IDIndex, first wins.
type IDIndexBuilder[K Integer, V any] struct {
	b *IndexBuilder[K, V]
}

// NewIDIndexBuilder returns a builder sized for n entries.
func NewIDIndexBuilder[K Integer, V any](n int) *IDIndexBuilder[K, V] {
	return &IDIndexBuilder[K, V]{b: NewIndexBuilder[K, V](n)}
}

// Add inserts v under id if id is absent.
func (b *IDIndexBuilder[K, V]) Add(id K, v V) bool { return b.b.Add(id, v) }

// Freeze returns a slice-backed index when the identities are non-negative
// and dense, and a map-backed index otherwise.
func (b *IDIndexBuilder[K, V]) Freeze() IDIndex[K, V] {
	n := len(b.b.keys)
	if n == 0 {
		return IDIndex[K, V]{}
	}
	lo, hi := b.b.keys[0], b.b.keys[0]
	for _, k := range b.b.keys[1:] {
		lo, hi = min(lo, k), max(hi, k)
	}
	if lo >= 0 && uint64(hi) < uint64(2*n+linearMax) {
		x := IDIndex[K, V]{
			dense:   make([]V, int(hi)+1),
			present: make([]bool, int(hi)+1),
		}
		for i, k := range b.b.keys {
			x.dense[k] = b.b.vals[i]
			x.present[k] = true
		}
		return x
	}
	m := make(map[K]V, n)
	for i, k := range b.b.keys {
		m[k] = b.b.vals[i]
	}
	return IDIndex[K, V]{m: m}
}

// Get returns the value with identity id.
func (x IDIndex[K, V]) Get(id K) (V, bool) {
	var zero V
	if x.m != nil {
		v, ok := x.m[id]
		return v, ok
	}
	if id < 0 || uint64(id) >= uint64(len(x.dense)) || !x.present[id] {
		return zero, false
	}
	return x.dense[id], true
}

// Dense reports whether the index is slice-backed.
func (x IDIndex[K, V]) Dense() bool { return x.dense != nil }
