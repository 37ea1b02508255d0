package gen

import (
	"log/slog"
	"path"
	"runtime"
)

// DefaultSwitchThreshold is the largest catalog whose name lookup is
// emitted as a switch statement rather than a frozen index.
const DefaultSwitchThreshold = 8

// DefaultHeader is the header comment of generated files.
const DefaultHeader = "Code generated by catalogc. DO NOT EDIT."

// Config holds the compiler configuration.
type Config struct {
	// Target is the directory artifacts are written to. Artifacts are only
	// returned, not written, when empty.
	Target string
	// Package is the import path of the generated package. Defaults to the
	// module of the registry being compiled.
	Package string
	// Header is the comment placed at the top of each generated file.
	Header string
	// Workers bounds the number of catalogs compiled concurrently.
	Workers int
	// DebugDir, when set, receives a best-effort copy of every artifact.
	DebugDir string
	// SwitchThreshold is the largest entry count compiled to a switch.
	SwitchThreshold int
	// Logger receives warnings and progress.
	Logger *slog.Logger
	// Emitter renders catalogs into Go files.
	Emitter Emitter
	// Cache is the incremental cache shared by compilations of one session.
	Cache *Cache
}

// PackageName returns the name of the generated package.
func (c *Config) PackageName() string {
	return path.Base(c.Package)
}

// OutputOptions groups the settings affecting the text of artifacts.
type OutputOptions struct {
	Package         string
	Header          string
	SwitchThreshold int
}

// Output returns the settings affecting the text of artifacts. They take
// part in incremental cache keys.
func (c *Config) Output() OutputOptions {
	return OutputOptions{
		Package:         c.Package,
		Header:          c.Header,
		SwitchThreshold: c.SwitchThreshold,
	}
}

// defaults fills unset fields.
func (c *Config) defaults() {
	if c.Header == "" {
		c.Header = DefaultHeader
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.SwitchThreshold == 0 {
		c.SwitchThreshold = DefaultSwitchThreshold
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Cache == nil {
		c.Cache = NewCache()
	}
}
