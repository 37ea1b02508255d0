package gen

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/catalog/compiler/load"
)

// ModuleCache memoizes the declarations of referenced modules for the
// lifetime of one compilation. It is safe for concurrent population: the
// first completed scan of a module is kept and concurrent callers wait for
// it.
type ModuleCache struct {
	reg   load.Registry
	group singleflight.Group
	mu    sync.RWMutex
	scans map[load.ModuleID]moduleScan
	reads atomic.Int64
}

type moduleScan struct {
	decls []*load.Decl
	err   error
}

// NewModuleCache returns an empty cache over reg.
func NewModuleCache(reg load.Registry) *ModuleCache {
	return &ModuleCache{
		reg:   reg,
		scans: make(map[load.ModuleID]moduleScan),
	}
}

// Decls returns the exported declarations of module id, including those of
// nested scopes. A failed scan is memoized like a successful one.
func (c *ModuleCache) Decls(ctx context.Context, id load.ModuleID) ([]*load.Decl, error) {
	if s, ok := c.lookup(id); ok {
		return s.decls, s.err
	}
	v, err, _ := c.group.Do(string(id), func() (any, error) {
		if s, ok := c.lookup(id); ok {
			return s, nil
		}
		c.reads.Add(1)
		decls, err := c.reg.ModuleDecls(ctx, id)
		// Cancellation is not a property of the module.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s := moduleScan{err: err}
		if err != nil {
			s.err = NewScanError(string(id), err)
		}
		for _, d := range decls {
			d.Walk(func(n *load.Decl) {
				if n == d || n.Exported {
					s.decls = append(s.decls, n)
				}
			})
		}
		return c.store(id, s), nil
	})
	if err != nil {
		// The scan was issued under a context canceled by another caller.
		if ctx.Err() == nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return c.Decls(ctx, id)
		}
		return nil, err
	}
	s := v.(moduleScan)
	return s.decls, s.err
}

func (c *ModuleCache) lookup(id load.ModuleID) (moduleScan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scans[id]
	return s, ok
}

// store records s unless a scan of id is already recorded, and returns the
// recorded scan.
func (c *ModuleCache) store(id load.ModuleID, s moduleScan) moduleScan {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.scans[id]; ok {
		return prev
	}
	c.scans[id] = s
	return s
}

// Reads returns the number of module reads issued to the registry.
func (c *ModuleCache) Reads() int64 { return c.reads.Load() }

// Failures returns the scan errors recorded so far, ordered by module.
func (c *ModuleCache) Failures() []*ScanError {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*ScanError
	for _, s := range c.scans {
		if se, ok := s.err.(*ScanError); ok {
			out = append(out, se)
		}
	}
	slices.SortFunc(out, func(a, b *ScanError) int { return cmp.Compare(a.Module, b.Module) })
	return out
}

// Candidate is a declaration that may be an entry of some catalog.
type Candidate struct {
	Decl *load.Decl
	// Local reports whether the declaration belongs to the current module.
	Local bool
}

// Scan is the result of scanning the current module.
type Scan struct {
	// Shapes are the declarations carrying catalogs, in discovery order.
	Shapes []*load.Decl
	// Candidates are the possible entries, in discovery order.
	Candidates []Candidate
	// Names holds the name of every declaration of the module.
	Names []string
}

// Scanner discovers catalog and entry declarations.
type Scanner struct {
	reg     load.Registry
	modules *ModuleCache
}

// NewScanner returns a scanner over reg sharing the given module cache.
func NewScanner(reg load.Registry, modules *ModuleCache) *Scanner {
	return &Scanner{reg: reg, modules: modules}
}

// Local walks every declaration of the current module once, nested scopes
// included.
func (s *Scanner) Local(ctx context.Context) (*Scan, error) {
	decls, err := s.reg.Decls(ctx)
	if err != nil {
		return nil, err
	}
	scan := &Scan{}
	for _, d := range decls {
		d.Walk(func(n *load.Decl) {
			scan.Names = append(scan.Names, n.Name)
			if len(n.Catalogs) > 0 {
				scan.Shapes = append(scan.Shapes, n)
			}
			if candidate(n) {
				scan.Candidates = append(scan.Candidates, Candidate{Decl: n, Local: true})
			}
		})
	}
	return scan, nil
}

// Referenced returns the candidates exported by referenced modules. Modules
// that fail to scan are skipped; their errors are kept by the module
// cache. Cancellation is checked between modules.
func (s *Scanner) Referenced(ctx context.Context) ([]Candidate, error) {
	refs, err := s.reg.References(ctx)
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, id := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		decls, err := s.modules.Decls(ctx, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			continue
		}
		for _, d := range decls {
			if candidate(d) {
				out = append(out, Candidate{Decl: d})
			}
		}
	}
	return out, nil
}

// candidate reports whether d can be an entry: a concrete, non-generic
// declaration.
func candidate(d *load.Decl) bool {
	return d.Kind == load.KindStruct && !d.Generic()
}
