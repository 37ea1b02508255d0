package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/syssam/catalog/compiler/gen"
)

// exitError carries the process exit code of a failed run.
type exitError struct {
	Code    int
	Message string
}

func (e *exitError) Error() string { return e.Message }

// options are the parsed command line.
type options struct {
	dir       string
	config    string
	out       string
	pkg       string
	debug     string
	tags      string
	watch     bool
	workers   int
	threshold int
	logLevel  string
	logFormat string
	patterns  []string
}

// parse parses args. It reports whether the program should exit cleanly,
// e.g. after printing help.
func parse(args []string, output io.Writer) (*options, bool, error) {
	fs := flag.NewFlagSet("catalogc", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
catalogc - compiles catalog declarations into Go registries.

Usage:
  catalogc [options] [packages]

Arguments:
  packages
    Package patterns to compile. The first matched package holds the
    catalogs. Defaults to ".".

Options:
`)
		fs.PrintDefaults()
	}
	o := &options{}
	fs.StringVar(&o.dir, "C", "", "Run as if started in this directory.")
	fs.StringVar(&o.config, "config", "", "Catalog configuration file (.yaml, .yml or .hcl).")
	fs.StringVar(&o.out, "out", "", "Output directory. Defaults to the directory of the package.")
	fs.StringVar(&o.pkg, "pkg", "", "Import path of the generated package. Defaults to the compiled package.")
	fs.StringVar(&o.debug, "debug", "", "Directory receiving a copy of every artifact.")
	fs.StringVar(&o.tags, "tags", "", "Comma-separated build tags used when loading packages.")
	fs.BoolVar(&o.watch, "watch", false, "Recompile when sources or configuration change.")
	fs.IntVar(&o.workers, "workers", 0, "Catalogs compiled concurrently. 0 uses GOMAXPROCS.")
	fs.IntVar(&o.threshold, "switch-threshold", gen.DefaultSwitchThreshold, "Largest catalog whose name lookup is a switch; -1 always uses an index.")
	fs.StringVar(&o.logLevel, "log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.StringVar(&o.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &exitError{Code: 2, Message: err.Error()}
	}
	o.patterns = fs.Args()
	if len(o.patterns) == 0 {
		o.patterns = []string{"."}
	}
	o.logLevel = strings.ToLower(o.logLevel)
	switch o.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &exitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	o.logFormat = strings.ToLower(o.logFormat)
	if o.logFormat != "text" && o.logFormat != "json" {
		return nil, false, &exitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	if o.workers < 0 {
		return nil, false, &exitError{Code: 2, Message: "invalid workers: must not be negative"}
	}
	if o.threshold < -1 {
		return nil, false, &exitError{Code: 2, Message: "invalid switch-threshold: must be -1 or more"}
	}
	return o, false, nil
}

// buildFlags returns the go/packages build flags of o.
func (o *options) buildFlags() []string {
	if o.tags == "" {
		return nil
	}
	return []string{"-tags=" + o.tags}
}

// compilerOptions returns the compiler options of o. dir is the directory
// of the compiled package.
func (o *options) compilerOptions(l *slog.Logger, cache *gen.Cache, dir string) []gen.Option {
	opts := []gen.Option{
		gen.WithLogger(l),
		gen.WithCache(cache),
		gen.WithSwitchThreshold(o.threshold),
	}
	target := o.out
	if target == "" {
		target = dir
	}
	if target != "" {
		opts = append(opts, gen.WithTarget(target))
	}
	if o.pkg != "" {
		opts = append(opts, gen.WithPackage(o.pkg))
	}
	if o.debug != "" {
		opts = append(opts, gen.WithDebugDir(o.debug))
	}
	if o.workers > 0 {
		opts = append(opts, gen.WithWorkers(o.workers))
	}
	return opts
}

// newLogger returns a logger writing to w in the given level and format.
func newLogger(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
