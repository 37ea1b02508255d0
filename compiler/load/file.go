package load

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"gopkg.in/yaml.v3"
)

// File is a configuration file declaring catalogs and entries by qualified
// declaration name. It is the explicit configuration surface for hosts that
// cannot attach metadata to declarations themselves.
type File struct {
	Path     string          `yaml:"-"`
	Catalogs []*CatalogBlock `yaml:"catalogs,omitempty"`
	Entries  []*EntryBlock   `yaml:"entries,omitempty"`
}

// CatalogBlock declares one catalog over the shape named by Shape.
type CatalogBlock struct {
	Shape         string `yaml:"shape"`
	CatalogConfig `yaml:",inline"`
}

// UnmarshalYAML records the source line of the block.
func (b *CatalogBlock) UnmarshalYAML(value *yaml.Node) error {
	type plain CatalogBlock
	if err := value.Decode((*plain)(b)); err != nil {
		return err
	}
	b.Pos.Line, b.Pos.Column = value.Line, value.Column
	return nil
}

// EntryBlock configures the entry declaration named by Decl.
type EntryBlock struct {
	Decl        string `yaml:"decl"`
	EntryConfig `yaml:",inline"`
	Pos         Pos `yaml:"-"`
}

// UnmarshalYAML records the source line of the block.
func (b *EntryBlock) UnmarshalYAML(value *yaml.Node) error {
	type plain EntryBlock
	if err := value.Decode((*plain)(b)); err != nil {
		return err
	}
	b.Pos.Line, b.Pos.Column = value.Line, value.Column
	return nil
}

// ReadFile reads a configuration file. The format is selected by extension:
// ".hcl" for HCL, ".yaml" or ".yml" for YAML.
func ReadFile(path string) (*File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		return ParseHCL(path, buf)
	case ".yaml", ".yml":
		return ParseYAML(path, buf)
	default:
		return nil, fmt.Errorf("read config %s: unsupported extension %q", path, ext)
	}
}

// ParseYAML decodes a YAML configuration file.
func ParseYAML(path string, buf []byte) (*File, error) {
	f := &File{Path: path}
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	f.setFile()
	return f, f.validate()
}

type hclFile struct {
	Catalogs []*hclBlock `hcl:"catalog,block"`
	Entries  []*hclBlock `hcl:"entry,block"`
}

type hclBlock struct {
	Target string   `hcl:"target,label"`
	Body   hcl.Body `hcl:",remain"`
}

// ParseHCL decodes an HCL configuration file:
//
//	catalog "example.com/shop.Currency" {
//	  comparison = "ordinal"
//	  key "Code" {}
//	}
//
//	entry "example.com/shop.USD" {
//	  order = 1
//	}
func ParseHCL(path string, buf []byte) (*File, error) {
	hf, diags := hclparse.NewParser().ParseHCL(buf, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	var raw hclFile
	if diags = gohcl.DecodeBody(hf.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	f := &File{Path: path}
	for _, b := range raw.Catalogs {
		cb := &CatalogBlock{Shape: b.Target}
		if diags = gohcl.DecodeBody(b.Body, nil, &cb.CatalogConfig); diags.HasErrors() {
			return nil, fmt.Errorf("catalog %q in %s: %w", b.Target, path, diags)
		}
		cb.Pos = bodyPos(b.Body)
		f.Catalogs = append(f.Catalogs, cb)
	}
	for _, b := range raw.Entries {
		eb := &EntryBlock{Decl: b.Target}
		if diags = gohcl.DecodeBody(b.Body, nil, &eb.EntryConfig); diags.HasErrors() {
			return nil, fmt.Errorf("entry %q in %s: %w", b.Target, path, diags)
		}
		eb.Pos = bodyPos(b.Body)
		f.Entries = append(f.Entries, eb)
	}
	f.setFile()
	return f, f.validate()
}

func bodyPos(b hcl.Body) Pos {
	if sb, ok := b.(*hclsyntax.Body); ok {
		return Pos{Line: sb.SrcRange.Start.Line, Column: sb.SrcRange.Start.Column}
	}
	return Pos{}
}

func (f *File) setFile() {
	for _, c := range f.Catalogs {
		c.Pos.File = f.Path
	}
	for _, e := range f.Entries {
		e.Pos.File = f.Path
	}
}

func (f *File) validate() error {
	for _, c := range f.Catalogs {
		if c.Shape == "" {
			return fmt.Errorf("%s: catalog without shape", c.Pos)
		}
		for _, k := range c.Keys {
			if k.Member == "" {
				return fmt.Errorf("%s: key without member in catalog over %s", c.Pos, c.Shape)
			}
		}
	}
	for _, e := range f.Entries {
		if e.Decl == "" {
			return fmt.Errorf("%s: entry without declaration name", e.Pos)
		}
	}
	return nil
}

// Configure returns a Registry that overlays the configuration of f onto the
// declarations of r. Declarations are copied, r is never mutated.
func Configure(r Registry, f *File) *ConfiguredRegistry {
	c := &ConfiguredRegistry{
		Registry: r,
		catalogs: make(map[DeclID][]*CatalogConfig),
		entries:  make(map[DeclID]*EntryConfig),
		copies:   make(map[*Decl]*Decl),
		file:     f,
	}
	for _, b := range f.Catalogs {
		cfg := b.CatalogConfig
		id := DeclID(b.Shape)
		c.catalogs[id] = append(c.catalogs[id], &cfg)
	}
	for _, b := range f.Entries {
		cfg := b.EntryConfig
		c.entries[DeclID(b.Decl)] = &cfg
	}
	return c
}

// ConfiguredRegistry is a Registry decorated with a configuration File.
type ConfiguredRegistry struct {
	Registry
	file     *File
	catalogs map[DeclID][]*CatalogConfig
	entries  map[DeclID]*EntryConfig

	mu     sync.Mutex
	copies map[*Decl]*Decl
}

// Decls implements Registry.
func (c *ConfiguredRegistry) Decls(ctx context.Context) ([]*Decl, error) {
	decls, err := c.Registry.Decls(ctx)
	if err != nil {
		return nil, err
	}
	return c.overlayAll(decls), nil
}

// ModuleDecls implements Registry.
func (c *ConfiguredRegistry) ModuleDecls(ctx context.Context, id ModuleID) ([]*Decl, error) {
	decls, err := c.Registry.ModuleDecls(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.overlayAll(decls), nil
}

// Lookup implements Registry.
func (c *ConfiguredRegistry) Lookup(ctx context.Context, ref TypeRef) (*Decl, error) {
	d, err := c.Registry.Lookup(ctx, ref)
	if err != nil {
		return nil, err
	}
	return c.overlay(d), nil
}

// Unresolved is a configuration block whose declaration does not resolve.
type Unresolved struct {
	// Shape reports whether the block declares a catalog, as opposed to
	// configuring an entry.
	Shape bool
	Name  string
	Pos   Pos
	Err   error
}

// Check resolves every declaration named by the configuration and returns
// the blocks that do not resolve.
func (c *ConfiguredRegistry) Check(ctx context.Context) []Unresolved {
	var out []Unresolved
	for _, b := range c.file.Catalogs {
		if _, err := c.Registry.Lookup(ctx, Ref(DeclID(b.Shape))); err != nil {
			out = append(out, Unresolved{Shape: true, Name: b.Shape, Pos: b.Pos, Err: err})
		}
	}
	for _, b := range c.file.Entries {
		if _, err := c.Registry.Lookup(ctx, Ref(DeclID(b.Decl))); err != nil {
			out = append(out, Unresolved{Name: b.Decl, Pos: b.Pos, Err: err})
		}
	}
	return out
}

func (c *ConfiguredRegistry) overlayAll(decls []*Decl) []*Decl {
	out := make([]*Decl, len(decls))
	for i, d := range decls {
		out[i] = c.overlay(d)
	}
	return out
}

// overlay returns the configured copy of d. Copies are memoized so that a
// declaration keeps one identity across reads.
func (c *ConfiguredRegistry) overlay(d *Decl) *Decl {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlayLocked(d)
}

func (c *ConfiguredRegistry) overlayLocked(d *Decl) *Decl {
	if cp, ok := c.copies[d]; ok {
		return cp
	}
	cp := *d
	id := d.ID()
	if cfgs, ok := c.catalogs[id]; ok {
		cp.Catalogs = append(append([]*CatalogConfig(nil), d.Catalogs...), cfgs...)
	}
	if cfg, ok := c.entries[id]; ok {
		cp.Entry = cfg
	}
	if len(d.Nested) > 0 {
		cp.Nested = make([]*Decl, len(d.Nested))
		for i, n := range d.Nested {
			cp.Nested[i] = c.overlayLocked(n)
		}
	}
	c.copies[d] = &cp
	return &cp
}
