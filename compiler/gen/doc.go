// Package gen compiles catalog declarations into an immutable model and
// renders one registry artifact per catalog.
//
// A catalog is declared over a shape: an interface, or a base struct
// implementing a capability interface. Every concrete declaration whose
// shape chain reaches the shape is an entry of the catalog, unless it
// targets other catalogs explicitly.
//
// # Pipeline
//
// Compilation runs the following stages for each catalog:
//
//	Scanner     (local declarations, referenced modules through ModuleCache)
//	    ↓
//	Extractor   (catalog and entry configuration with defaults applied)
//	    ↓
//	Resolver    (entry association and targeting)
//	    ↓
//	Validator   (conformance, duplicate names, keys)
//	    ↓
//	Catalog     (immutable model with a content hash)
//	    ↓
//	Cache       (artifacts reused by content hash)
//	    ↓
//	Emitter     (jennifer file, formatted with goimports)
//
// Catalogs are compiled concurrently and independently: a failing catalog
// is reported as diagnostics and does not prevent the others from being
// emitted.
//
// # Diagnostics
//
// Problems are reported as Diagnostic values carrying a stable code:
//
//   - CAT001: catalog shape not found
//   - CAT002: duplicate entry name; the first entry wins and the artifact
//     is withheld
//   - CAT003: entry does not conform to the shape
//   - CAT004: unsupported configuration
//   - CAT005: entry targets a catalog it cannot belong to
//   - CAT006: entry matches several catalogs of one shape
//   - CAT007: duplicate key or accessor
//   - CAT008: emission failed
//   - CAT101: referenced module could not be scanned (warning)
//   - CAT102: debug copy failed (warning)
//   - CAT103: configured declaration not found (warning)
//
// # Configuration
//
// Configuration uses the functional options pattern:
//
//	c, err := gen.New(reg,
//	    gen.WithEmitter(registry.New()),
//	    gen.WithTarget("./catalogs"),
//	    gen.WithWorkers(4),
//	)
//	res, err := c.Compile(ctx)
//
// The registry package provides the standard emitter and a Compile
// shortcut wiring it.
package gen
