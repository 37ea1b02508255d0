// Command catalogc compiles the catalogs declared in a Go package into
// registry files.
//
//	catalogc -config catalog.yaml ./shop
//	catalogc -watch ./shop
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/syssam/catalog/compiler/gen"
	"github.com/syssam/catalog/compiler/gen/registry"
	"github.com/syssam/catalog/compiler/load"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if exit.Message != "" {
				fmt.Fprintln(os.Stderr, exit.Message)
			}
			stop()
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run parses args and compiles once, or until ctx is done in watch mode.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	o, exit, err := parse(args, stdout)
	if err != nil || exit {
		return err
	}
	s := &session{
		opts:   o,
		log:    newLogger(o.logLevel, o.logFormat, stderr),
		cache:  gen.NewCache(),
		stdout: stdout,
		stderr: stderr,
	}
	res, err := s.compile(ctx)
	if !o.watch {
		if err != nil {
			return err
		}
		if res.Diagnostics.HasErrors() {
			return &exitError{Code: 1}
		}
		return nil
	}
	if err != nil {
		s.log.Error("compilation failed", slog.Any("error", err))
	}
	return s.watch(ctx)
}

// session holds the state shared by the compilations of one run.
type session struct {
	opts   *options
	log    *slog.Logger
	cache  *gen.Cache
	stdout io.Writer
	stderr io.Writer
	// watched are the directories and files the last load depended on.
	watched []string
	// written are the artifact paths of the last compilation.
	written map[string]bool
}

// compile loads the packages and compiles their catalogs. Diagnostics are
// printed to stderr and written artifacts to stdout.
func (s *session) compile(ctx context.Context) (*gen.Result, error) {
	pkgs, err := load.LoadPackages(ctx, s.opts.dir, s.opts.buildFlags(), s.opts.patterns...)
	if err != nil {
		return nil, err
	}
	s.track(pkgs)
	var reg load.Registry = pkgs
	if s.opts.config != "" {
		f, err := load.ReadFile(s.opts.config)
		if err != nil {
			return nil, err
		}
		reg = load.Configure(pkgs, f)
	}
	opts := s.opts.compilerOptions(s.log, s.cache, pkgs.Dir())
	res, err := registry.Compile(ctx, reg, opts...)
	if err != nil {
		return nil, err
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintln(s.stderr, d.String())
	}
	target := s.opts.out
	if target == "" {
		target = pkgs.Dir()
	}
	s.written = make(map[string]bool)
	for _, a := range res.Artifacts() {
		path := filepath.Join(target, a.File)
		if abs, err := filepath.Abs(path); err == nil {
			s.written[abs] = true
		}
		fmt.Fprintln(s.stdout, path)
	}
	return res, nil
}

// track records the files and directories a reload depends on.
func (s *session) track(pkgs *load.PackagesRegistry) {
	s.watched = s.watched[:0]
	if dir := pkgs.Dir(); dir != "" {
		s.watched = append(s.watched, dir)
	}
	if s.opts.config != "" {
		s.watched = append(s.watched, s.opts.config)
	}
}
