package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is the quiet period after a change before recompiling.
const settle = 200 * time.Millisecond

// watch recompiles whenever a watched Go file or the configuration file
// changes, until ctx is done. Artifacts written by the session itself are
// ignored. The incremental cache is shared by every compilation.
func (s *session) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	added := make(map[string]bool)
	watchAll := func() {
		for _, p := range s.watched {
			if added[p] {
				continue
			}
			if err := w.Add(p); err != nil {
				s.log.Warn("cannot watch path", slog.String("path", p), slog.Any("error", err))
				continue
			}
			added[p] = true
		}
	}
	watchAll()
	s.log.Info("watching for changes", slog.Any("paths", s.watched))

	var (
		timer = time.NewTimer(settle)
		fire  <-chan time.Time
	)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !s.relevant(ev) {
				continue
			}
			s.log.Debug("change detected", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(settle)
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watch error", slog.Any("error", err))
		case <-fire:
			fire = nil
			if _, err := s.compile(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.log.Error("compilation failed", slog.Any("error", err))
			}
			watchAll()
		}
	}
}

// relevant reports whether ev should trigger a compilation.
func (s *session) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(ev.Name)
	if s.written[name] {
		return false
	}
	if s.opts.config != "" && name == filepath.Clean(s.opts.config) {
		return true
	}
	return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
}
