package gen

import (
	"encoding/hex"
	"slices"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"

	"github.com/syssam/catalog/compiler/load"
)

// The hash records below are the canonical encoding of the model. Every
// field of the model must appear in them.
type (
	catalogRecord struct {
		Shape      load.TypeRef    `msgpack:"shape"`
		ShapeKind  load.DeclKind   `msgpack:"shape_kind"`
		Name       string          `msgpack:"name"`
		Artifact   string          `msgpack:"artifact"`
		Comparison uint8           `msgpack:"comparison"`
		Flags      map[string]bool `msgpack:"flags"`
		Result     load.TypeRef    `msgpack:"result"`
		Methods    []methodRecord  `msgpack:"methods"`
		Base       *baseRecord     `msgpack:"base,omitempty"`
		Identity   *keyRecord      `msgpack:"identity,omitempty"`
		Keys       []keyRecord     `msgpack:"keys"`
		Entries    []string        `msgpack:"entries"`
		Output     OutputOptions   `msgpack:"output"`
	}

	entryRecord struct {
		ID          load.DeclID   `msgpack:"id"`
		Type        load.TypeRef  `msgpack:"type"`
		DisplayName string        `msgpack:"display_name"`
		Order       int           `msgpack:"order"`
		Result      *load.TypeRef `msgpack:"result,omitempty"`
		Ctors       []ctorRecord  `msgpack:"ctors"`
		Instance    int           `msgpack:"instance"`
	}

	keyRecord struct {
		Member   string          `msgpack:"member"`
		Kind     load.MemberKind `msgpack:"kind"`
		Type     load.TypeRef    `msgpack:"type"`
		Accessor string          `msgpack:"accessor"`
		Multi    bool            `msgpack:"multi"`
		Result   *load.TypeRef   `msgpack:"result,omitempty"`
	}

	ctorRecord struct {
		Name     string       `msgpack:"name"`
		Params   []load.Param `msgpack:"params"`
		Exported bool         `msgpack:"exported"`
		Implicit bool         `msgpack:"implicit"`
		Pointer  bool         `msgpack:"pointer"`
		Variadic bool         `msgpack:"variadic"`
		Suffix   string       `msgpack:"suffix"`
	}

	baseRecord struct {
		Type        load.TypeRef  `msgpack:"type"`
		Ctor        ctorRecord    `msgpack:"ctor"`
		Collections []fieldRecord `msgpack:"collections,omitempty"`
	}

	fieldRecord struct {
		Name string       `msgpack:"name"`
		Type load.TypeRef `msgpack:"type"`
	}

	methodRecord struct {
		Name     string         `msgpack:"name"`
		Params   []load.Param   `msgpack:"params"`
		Results  []load.TypeRef `msgpack:"results"`
		Variadic bool           `msgpack:"variadic"`
	}
)

// digest returns the hex encoded 128-bit xxh3 digest of the canonical
// msgpack encoding of v. Map keys are sorted.
func digest(v any) (string, error) {
	h := xxh3.New()
	enc := msgpack.NewEncoder(h)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	sum := h.Sum128().Bytes()
	return hex.EncodeToString(sum[:]), nil
}

func (c Ctor) record() ctorRecord {
	return ctorRecord{
		Name:     c.name,
		Params:   c.params,
		Exported: c.exported,
		Implicit: c.implicit,
		Pointer:  c.pointer,
		Variadic: c.variadic,
		Suffix:   c.suffix,
	}
}

func (k *Key) record() keyRecord {
	return keyRecord{
		Member:   k.member,
		Kind:     k.kind,
		Type:     k.typ,
		Accessor: k.accessor,
		Multi:    k.multi,
		Result:   k.result,
	}
}

// computeHash sets the content hash of e.
func (e *Entry) computeHash() error {
	r := entryRecord{
		ID:          e.id,
		Type:        e.typ,
		DisplayName: e.displayName,
		Order:       e.order,
		Result:      e.result,
		Instance:    e.instance,
	}
	for _, c := range e.ctors {
		r.Ctors = append(r.Ctors, c.record())
	}
	h, err := digest(r)
	if err != nil {
		return err
	}
	e.hash = h
	return nil
}

// computeHash sets the content hash of c. Entry hashes must be computed
// first. Keys and methods are unordered metadata and hashed sorted; the
// entry list keeps display order.
func (c *Catalog) computeHash(out OutputOptions) error {
	r := catalogRecord{
		Shape:      c.shape,
		ShapeKind:  c.shapeKind,
		Name:       c.name,
		Artifact:   c.artifact,
		Comparison: uint8(c.comparison),
		Flags: map[string]bool{
			"factories":    c.factories,
			"static":       c.static,
			"generic":      c.generic,
			"cross_module": c.cross,
		},
		Result: c.result,
		Output: out,
	}
	for _, m := range c.methods {
		r.Methods = append(r.Methods, methodRecord{Name: m.name, Params: m.params, Results: m.results, Variadic: m.variadic})
	}
	slices.SortFunc(r.Methods, func(a, b methodRecord) int { return strings.Compare(a.Name, b.Name) })
	if c.base != nil {
		r.Base = &baseRecord{Type: c.base.typ, Ctor: c.base.ctor.record()}
		for _, f := range c.base.collections {
			r.Base.Collections = append(r.Base.Collections, fieldRecord{Name: f.name, Type: f.typ})
		}
	}
	if c.identity != nil {
		id := c.identity.record()
		r.Identity = &id
	}
	for _, k := range c.keys {
		r.Keys = append(r.Keys, k.record())
	}
	slices.SortFunc(r.Keys, func(a, b keyRecord) int { return strings.Compare(a.Member, b.Member) })
	for _, e := range c.entries {
		r.Entries = append(r.Entries, e.hash)
	}
	h, err := digest(r)
	if err != nil {
		return err
	}
	c.hash = h
	return nil
}
