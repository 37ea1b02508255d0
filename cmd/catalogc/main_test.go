package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/catalog/compiler/gen"
)

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		o, exit, err := parse(nil, &bytes.Buffer{})
		require.NoError(t, err)
		assert.False(t, exit)
		assert.Equal(t, []string{"."}, o.patterns)
		assert.Equal(t, "info", o.logLevel)
		assert.Equal(t, "text", o.logFormat)
		assert.Equal(t, gen.DefaultSwitchThreshold, o.threshold)
		assert.Nil(t, o.buildFlags())
	})

	t.Run("flags", func(t *testing.T) {
		o, _, err := parse([]string{"-config", "c.yaml", "-tags", "a,b", "-log-level", "DEBUG", "-switch-threshold", "-1", "./shop", "./money"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "c.yaml", o.config)
		assert.Equal(t, "debug", o.logLevel)
		assert.Equal(t, -1, o.threshold)
		assert.Equal(t, []string{"./shop", "./money"}, o.patterns)
		assert.Equal(t, []string{"-tags=a,b"}, o.buildFlags())
	})

	t.Run("help", func(t *testing.T) {
		var out bytes.Buffer
		o, exit, err := parse([]string{"-h"}, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, o)
		assert.Contains(t, out.String(), "Usage:")
		assert.Contains(t, out.String(), "-switch-threshold")
	})

	tests := map[string][]string{
		"unknown flag":      {"-nope"},
		"log level":         {"-log-level", "trace"},
		"log format":        {"-log-format", "xml"},
		"negative workers":  {"-workers", "-2"},
		"threshold too low": {"-switch-threshold", "-2"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, exit, err := parse(args, &bytes.Buffer{})
			assert.False(t, exit)
			var e *exitError
			require.ErrorAs(t, err, &e)
			assert.Equal(t, 2, e.Code)
		})
	}
}

func TestCompilerOptions(t *testing.T) {
	l := newLogger("error", "json", &bytes.Buffer{})
	o := &options{threshold: gen.DefaultSwitchThreshold}
	assert.Len(t, o.compilerOptions(l, gen.NewCache(), ""), 3)
	assert.Len(t, o.compilerOptions(l, gen.NewCache(), "shop"), 4)

	o = &options{out: "gen", pkg: "example.com/gen", debug: "debug", workers: 2}
	assert.Len(t, o.compilerOptions(l, gen.NewCache(), "shop"), 7)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("warn", "json", &buf)
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	newLogger("debug", "text", &buf).Debug("detail")
	assert.Contains(t, buf.String(), "msg=detail")
}

func TestRelevant(t *testing.T) {
	written, err := filepath.Abs(filepath.Join("shop", "currencies_catalog.go"))
	require.NoError(t, err)
	s := &session{
		opts:    &options{config: "catalog.yaml"},
		written: map[string]bool{written: true},
	}
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "shop/shop.go", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "shop/shop.go", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "shop/shop_test.go", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "shop/README.md", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "./catalog.yaml", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: written, Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.relevant(tt.ev), tt.ev.String())
	}
}

func TestRun(t *testing.T) {
	if testing.Short() {
		t.Skip("loading packages runs the go command")
	}
	out := t.TempDir()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), &stdout, &stderr, []string{
		"-C", filepath.Join("..", "..", "compiler", "load"),
		"-out", out,
		"-log-level", "error",
		"./testdata/shop",
	})
	// Product in the fixture names no capability interface to return.
	var exit *exitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.Code)
	assert.Contains(t, stderr.String(), "CAT004")

	paths := strings.Fields(stdout.String())
	require.NotEmpty(t, paths)
	for _, p := range paths {
		assert.Equal(t, out, filepath.Dir(p))
		b, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Contains(t, string(b), "DO NOT EDIT")
	}
}
