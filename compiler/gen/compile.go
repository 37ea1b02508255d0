package gen

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/catalog/compiler/load"
)

// Emitter renders a catalog into a Go file.
// Implementations live outside this package; see the registry package.
type Emitter interface {
	Emit(cfg *Config, c *Catalog) (*jen.File, error)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(cfg *Config, c *Catalog) (*jen.File, error)

// Emit calls f(cfg, c).
func (f EmitterFunc) Emit(cfg *Config, c *Catalog) (*jen.File, error) { return f(cfg, c) }

// checker is implemented by registries that can report configuration
// naming unknown declarations.
type checker interface {
	Check(ctx context.Context) []load.Unresolved
}

type (
	// Result is the outcome of one compilation.
	Result struct {
		// Units holds one unit per declared catalog, in discovery order.
		Units []*Unit
		// Diagnostics holds every diagnostic reported, units included.
		Diagnostics Diagnostics
		// Stats is a snapshot of the incremental cache after compilation.
		Stats CacheStats
		// ModuleReads counts the referenced modules read from the registry.
		ModuleReads int64
	}

	// Unit is the outcome of compiling one catalog.
	Unit struct {
		// Name is the logical catalog name.
		Name string
		// Shape is the shape declaration.
		Shape load.DeclID
		Pos   load.Pos
		// Catalog is the compiled model. It is nil when the catalog failed
		// before its model was built.
		Catalog *Catalog
		// Artifact is nil when emission was withheld.
		Artifact *Artifact
		// Cached reports whether the artifact came from the cache.
		Cached      bool
		Diagnostics Diagnostics
	}
)

// Artifacts returns the artifacts emitted, in unit order.
func (r *Result) Artifacts() []*Artifact {
	var out []*Artifact
	for _, u := range r.Units {
		if u.Artifact != nil {
			out = append(out, u.Artifact)
		}
	}
	return out
}

// Unit returns the unit of the catalog with the given name.
func (r *Result) Unit(name string) (*Unit, bool) {
	for _, u := range r.Units {
		if u.Name == name {
			return u, true
		}
	}
	return nil, false
}

// Err returns the error diagnostics of r joined, or nil.
func (r *Result) Err() error { return r.Diagnostics.Err() }

// Compiler compiles the catalogs of one module.
type Compiler struct {
	reg load.Registry
	cfg *Config
}

// New returns a compiler over reg. The generated package defaults to the
// module of reg.
func New(reg load.Registry, opts ...Option) (*Compiler, error) {
	cfg := &Config{}
	if err := cfg.Apply(opts...); err != nil {
		return nil, err
	}
	if cfg.Package == "" {
		cfg.Package = string(reg.Module())
	}
	cfg.defaults()
	if cfg.Emitter == nil {
		return nil, NewConfigError("Emitter", nil, "no emitter set: use WithEmitter")
	}
	return &Compiler{reg: reg, cfg: cfg}, nil
}

// Config returns the compiler configuration.
func (c *Compiler) Config() *Config { return c.cfg }

// job is one catalog to compile.
type job struct {
	shape *load.Decl
	index int
}

// Compile compiles every catalog of the module. Catalogs are compiled
// concurrently and independently: a failing catalog does not prevent
// the others from being emitted. The returned error is non-nil only when
// the module cannot be read or ctx is done; catalog errors are reported as
// diagnostics.
func (c *Compiler) Compile(ctx context.Context) (*Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		res     = &Result{}
		modules = NewModuleCache(c.reg)
		scanner = NewScanner(c.reg, modules)
	)
	if ch, ok := c.reg.(checker); ok {
		for _, u := range ch.Check(ctx) {
			code := CodeUnknownDeclaration
			if u.Shape {
				code = CodeShapeNotFound
			}
			d := Diagf(code, u.Pos, "unknown declaration %s", u.Name)
			d.Err = u.Err
			res.Diagnostics = append(res.Diagnostics, d)
		}
	}
	scan, err := scanner.Local(ctx)
	if err != nil {
		return nil, NewScanError(string(c.reg.Module()), err)
	}
	var (
		jobs  []job
		names = make(map[string]bool)
	)
	for _, s := range scan.Shapes {
		for i, cfg := range s.Catalogs {
			jobs = append(jobs, job{shape: s, index: i})
			names[catalogName(s, cfg)] = true
		}
	}
	res.Diagnostics = append(res.Diagnostics, unknownTargets(scan.Candidates, names)...)
	var taken []string
	if c.cfg.Package == string(c.reg.Module()) {
		taken = scan.Names
	}

	var (
		units = make([]*Unit, len(jobs))
		s     = &session{
			cfg:       c.cfg,
			scan:      scan,
			scanner:   scanner,
			extractor: NewExtractor(c.reg, taken...),
			validator: NewValidator(c.reg),
			builder:   &builder{reg: c.reg, out: c.cfg.Output()},
		}
	)
	s.resolver = NewResolver(c.reg, s.extractor)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			u, err := s.compile(gctx, j)
			if err != nil {
				return err
			}
			definitionErrors(u.Diagnostics, u.Name)
			units[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.Units = units
	for _, f := range modules.Failures() {
		d := Diagf(CodeModuleScanFailed, load.Pos{}, "module %s could not be scanned; its entries are skipped", f.Module)
		d.Err = f
		res.Diagnostics = append(res.Diagnostics, d)
	}
	for _, u := range units {
		res.Diagnostics = append(res.Diagnostics, u.Diagnostics...)
	}
	if c.cfg.Target != "" {
		if err := Write(c.cfg.Target, res.Artifacts()); err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Code:     CodeEmissionFailed,
				Severity: SeverityError,
				Message:  err.Error(),
				Err:      err,
			})
		}
	}
	if c.cfg.DebugDir != "" {
		for _, a := range res.Artifacts() {
			if err := mirror(c.cfg.DebugDir, a); err != nil {
				d := Diagf(CodeDebugWriteFailed, load.Pos{}, "copy %s to debug directory: %v", a.File, err)
				d.Catalog, d.Err = a.Catalog, err
				res.Diagnostics = append(res.Diagnostics, d)
			}
		}
	}
	sortDiagnostics(res.Diagnostics)
	res.Stats = c.cfg.Cache.Stats()
	res.ModuleReads = modules.Reads()
	c.report(ctx, res, time.Since(start))
	return res, nil
}

func (c *Compiler) report(ctx context.Context, res *Result, took time.Duration) {
	l := c.cfg.Logger
	for _, d := range res.Diagnostics {
		level := slog.LevelError
		if d.Severity == SeverityWarning {
			level = slog.LevelWarn
		}
		l.LogAttrs(ctx, level, d.Message, d.LogAttrs()...)
	}
	l.LogAttrs(ctx, slog.LevelInfo, "catalogs compiled",
		slog.Int("catalogs", len(res.Units)),
		slog.Int("artifacts", len(res.Artifacts())),
		slog.Int64("cache_hits", res.Stats.Hits),
		slog.Int64("cache_misses", res.Stats.Misses),
		slog.Int64("module_reads", res.ModuleReads),
		slog.Duration("took", took),
	)
}

// definitionErrors sets the cause of the catalog definition diagnostics
// in ds, CAT002 to CAT007, to a CatalogError wrapping the previous cause.
func definitionErrors(ds Diagnostics, catalog string) {
	for i := range ds {
		d := &ds[i]
		if d.Code < CodeDuplicateName || d.Code > CodeDuplicateKey {
			continue
		}
		d.Err = NewCatalogError(cmp.Or(d.Catalog, catalog), "", d.Message, d.Err)
	}
}

// session holds the components shared by the units of one compilation.
type session struct {
	cfg       *Config
	scan      *Scan
	scanner   *Scanner
	extractor *Extractor
	resolver  *Resolver
	validator *Validator
	builder   *builder
}

// compile compiles one catalog. Failures of the catalog are reported on
// the unit; only cancellation is returned.
func (s *session) compile(ctx context.Context, j job) (u *Unit, err error) {
	cfg := j.shape.Catalogs[j.index]
	u = &Unit{Name: catalogName(j.shape, cfg), Shape: j.shape.ID(), Pos: cmp.Or(cfg.Pos, j.shape.Pos)}
	defer func() {
		if r := recover(); r != nil {
			d := Diagf(CodeEmissionFailed, u.Pos, "internal error compiling %s: %v", u.Name, r)
			d.Catalog = u.Name
			d.Err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
			u.Catalog, u.Artifact, u.Cached = nil, nil, false
			u.Diagnostics = append(u.Diagnostics, d)
			err = nil
		}
	}()
	def := s.extractor.Catalog(ctx, j.shape, j.index)
	candidates := s.scan.Candidates
	if cfg.CrossModule {
		refs, err := s.scanner.Referenced(ctx)
		if err != nil {
			return nil, err
		}
		candidates = dedupe(append(append([]Candidate(nil), candidates...), refs...))
	}
	ms, diags := s.resolver.Associate(ctx, def, candidates)
	ms, vdiags := s.validator.Entries(ctx, def, ms)
	diags = append(diags, vdiags...)
	cdiags := s.validator.Catalog(ctx, def)
	diags = append(diags, cdiags...)
	u.Diagnostics = diags
	if cdiags.HasErrors() {
		return u, nil
	}
	model, bdiags := s.builder.build(ctx, def, ms)
	if len(bdiags) > 0 {
		u.Diagnostics = append(u.Diagnostics, bdiags...)
		return u, nil
	}
	u.Catalog = model
	if len(diags.WithCode(CodeDuplicateName)) > 0 {
		return u, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a, ok := s.cfg.Cache.Get(model.Hash()); ok {
		u.Artifact, u.Cached = a, true
		s.cfg.Logger.Debug("catalog unchanged", slog.String("catalog", model.ID()), slog.String("hash", model.Hash()))
		return u, nil
	}
	a, err := s.emit(model)
	if err != nil {
		d := Diagf(CodeEmissionFailed, u.Pos, "emit %s: %v", model.Name(), err)
		d.Catalog, d.Err = model.Name(), err
		u.Diagnostics = append(u.Diagnostics, d)
		return u, nil
	}
	u.Artifact = s.cfg.Cache.Put(a)
	s.cfg.Logger.Debug("catalog emitted",
		slog.String("catalog", model.ID()),
		slog.Int("entries", len(model.entries)),
		slog.String("file", a.File),
	)
	return u, nil
}

func (s *session) emit(c *Catalog) (*Artifact, error) {
	f, err := s.cfg.Emitter.Emit(s.cfg, c)
	if err != nil {
		return nil, err
	}
	src, err := render(f, c.FileName())
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Catalog: c.ID(),
		Hash:    c.Hash(),
		File:    c.FileName(),
		Source:  src,
	}, nil
}
