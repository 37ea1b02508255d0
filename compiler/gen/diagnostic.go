package gen

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/syssam/catalog/compiler/load"
)

// Severity of a diagnostic.
type Severity uint8

const (
	// SeverityError marks a diagnostic that withholds emission of the
	// affected catalog or entry.
	SeverityError Severity = iota
	// SeverityWarning marks a recovered condition.
	SeverityWarning
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Code is a stable diagnostic identifier.
type Code string

// Diagnostic codes. Codes from CAT100 on are warnings.
const (
	CodeShapeNotFound      Code = "CAT001"
	CodeDuplicateName      Code = "CAT002"
	CodeShapeConformance   Code = "CAT003"
	CodeUnsupportedConfig  Code = "CAT004"
	CodeTargetMismatch     Code = "CAT005"
	CodeAmbiguousTarget    Code = "CAT006"
	CodeDuplicateKey       Code = "CAT007"
	CodeEmissionFailed     Code = "CAT008"
	CodeModuleScanFailed   Code = "CAT101"
	CodeDebugWriteFailed   Code = "CAT102"
	CodeUnknownDeclaration Code = "CAT103"
)

// Severity returns the severity reported with c.
func (c Code) Severity() Severity {
	if c >= "CAT100" {
		return SeverityWarning
	}
	return SeverityError
}

// Diagnostic is a message attached to a source location.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Pos      load.Pos
	// Catalog names the catalog the diagnostic belongs to, if any.
	Catalog string
	Message string
	// Related holds secondary locations, e.g. the first declaration of a
	// duplicate name.
	Related []load.Pos
	Err     error
}

// Diagf returns a diagnostic with the severity of code.
func Diagf(code Code, pos load.Pos, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: code.Severity(),
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	}
}

// String returns the "pos: severity code: message" form of d.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Pos.String())
	b.WriteString(": ")
	b.WriteString(d.Severity.String())
	b.WriteByte(' ')
	b.WriteString(string(d.Code))
	b.WriteString(": ")
	b.WriteString(d.Message)
	for _, p := range d.Related {
		b.WriteString(" (see ")
		b.WriteString(p.String())
		b.WriteByte(')')
	}
	return b.String()
}

// LogAttrs returns the structured logging attributes of d.
func (d Diagnostic) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("code", string(d.Code)),
		slog.String("pos", d.Pos.String()),
	}
	if d.Catalog != "" {
		attrs = append(attrs, slog.String("catalog", d.Catalog))
	}
	if d.Err != nil {
		attrs = append(attrs, slog.Any("error", d.Err))
	}
	return attrs
}

// Diagnostics is a list of diagnostics in report order.
type Diagnostics []Diagnostic

// HasErrors reports whether ds contains an error.
func (ds Diagnostics) HasErrors() bool {
	return slices.ContainsFunc(ds, func(d Diagnostic) bool { return d.Severity == SeverityError })
}

// Errors returns the error diagnostics.
func (ds Diagnostics) Errors() Diagnostics {
	return ds.filter(SeverityError)
}

// Warnings returns the warning diagnostics.
func (ds Diagnostics) Warnings() Diagnostics {
	return ds.filter(SeverityWarning)
}

// WithCode returns the diagnostics with the given code.
func (ds Diagnostics) WithCode(code Code) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func (ds Diagnostics) filter(s Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// Err returns the error diagnostics joined as one error, or nil.
func (ds Diagnostics) Err() error {
	var errs []error
	for _, d := range ds.Errors() {
		errs = append(errs, &DiagnosticError{Diagnostic: d})
	}
	return errors.Join(errs...)
}

// DiagnosticError wraps an error diagnostic as an error.
type DiagnosticError struct {
	Diagnostic Diagnostic
}

// Error implements the error interface.
func (e *DiagnosticError) Error() string { return e.Diagnostic.String() }

// Unwrap returns the cause of the diagnostic.
func (e *DiagnosticError) Unwrap() error { return e.Diagnostic.Err }

// Is reports whether the target matches the sentinel error for DiagnosticError.
func (e *DiagnosticError) Is(target error) bool {
	return target == ErrValidationFailed
}

// sortDiagnostics orders diagnostics by position, keeping report order for
// equal positions.
func sortDiagnostics(ds Diagnostics) {
	slices.SortStableFunc(ds, func(a, b Diagnostic) int {
		if c := strings.Compare(a.Pos.File, b.Pos.File); c != 0 {
			return c
		}
		if a.Pos.Line != b.Pos.Line {
			return a.Pos.Line - b.Pos.Line
		}
		return a.Pos.Column - b.Pos.Column
	})
}
