package gen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"
)

// render renders f and formats the result with goimports.
func render(f *jen.File, name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, NewGenerationError("render", name, "jennifer render failed", err)
	}
	out, err := imports.Process(name, buf.Bytes(), nil)
	if err != nil {
		return nil, NewGenerationError("format", name, "goimports failed", err)
	}
	return out, nil
}

// Write writes artifacts into dir, creating it if needed.
func Write(dir string, artifacts []*Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, a := range artifacts {
		path := filepath.Join(dir, a.File)
		if err := os.WriteFile(path, a.Source, 0o644); err != nil {
			return NewGenerationError("write", path, "write artifact", err)
		}
	}
	return nil
}

// mirror copies a into the debug directory.
func mirror(dir string, a *Artifact) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, a.File), a.Source, 0o644)
}
