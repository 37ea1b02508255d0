// Package gen compiles catalog declarations into registry artifacts.
package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidCatalog indicates a catalog definition error.
	ErrInvalidCatalog = errors.New("catalog: invalid catalog")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("catalog: missing configuration")
	// ErrScanFailed indicates a module that could not be scanned.
	ErrScanFailed = errors.New("catalog: module scan failed")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("catalog: code generation failed")
	// ErrValidationFailed indicates a validation failure.
	ErrValidationFailed = errors.New("catalog: validation failed")
)

// CatalogError represents a catalog definition error.
type CatalogError struct {
	Catalog string // Catalog name
	Entry   string // Entry declaration (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	var b strings.Builder
	b.WriteString("catalog: definition error")
	if e.Catalog != "" {
		b.WriteString(" on catalog ")
		b.WriteString(e.Catalog)
	}
	if e.Entry != "" {
		b.WriteString(" entry ")
		b.WriteString(e.Entry)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for CatalogError.
func (e *CatalogError) Is(target error) bool {
	return target == ErrInvalidCatalog
}

// NewCatalogError creates a new CatalogError.
func NewCatalogError(catalog, entry, message string, cause error) *CatalogError {
	return &CatalogError{
		Catalog: catalog,
		Entry:   entry,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("catalog: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("catalog: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// ScanError represents a module that could not be scanned.
type ScanError struct {
	Module string
	Cause  error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	var b strings.Builder
	b.WriteString("catalog: scan error")
	if e.Module != "" {
		b.WriteString(" in module ")
		b.WriteString(e.Module)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for ScanError.
func (e *ScanError) Is(target error) bool {
	return target == ErrScanFailed
}

// NewScanError creates a new ScanError.
func NewScanError(module string, cause error) *ScanError {
	return &ScanError{Module: module, Cause: cause}
}

// GenerationError represents a code generation error.
type GenerationError struct {
	Phase   string // "sentinel", "lookup", "factory", "format", etc.
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("catalog: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// IsCatalogError reports whether the error is a CatalogError.
func IsCatalogError(err error) bool {
	var catErr *CatalogError
	return errors.As(err, &catErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsScanError reports whether the error is a ScanError.
func IsScanError(err error) bool {
	var scanErr *ScanError
	return errors.As(err, &scanErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// IsDiagnosticError reports whether the error wraps an error diagnostic.
func IsDiagnosticError(err error) bool {
	var diagErr *DiagnosticError
	return errors.As(err, &diagErr)
}
