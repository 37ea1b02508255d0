package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/catalog/compiler/load"
)

func TestCatalogError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := NewCatalogError("Currency", "USD", "invalid entry", cause)

		assert.Contains(t, err.Error(), "catalog: definition error")
		assert.Contains(t, err.Error(), "catalog Currency")
		assert.Contains(t, err.Error(), "entry USD")
		assert.Contains(t, err.Error(), "invalid entry")
		assert.Contains(t, err.Error(), "underlying error")
	})

	t.Run("Error message with catalog only", func(t *testing.T) {
		err := &CatalogError{Catalog: "Currency"}
		assert.Contains(t, err.Error(), "catalog Currency")
		assert.NotContains(t, err.Error(), "entry")
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root cause")
		err := NewCatalogError("Currency", "", "", cause)

		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("Is matches ErrInvalidCatalog", func(t *testing.T) {
		err := NewCatalogError("Currency", "", "", nil)
		assert.True(t, errors.Is(err, ErrInvalidCatalog))
	})

	t.Run("IsCatalogError helper", func(t *testing.T) {
		err := NewCatalogError("Currency", "USD", "test", nil)
		assert.True(t, IsCatalogError(err))
		assert.False(t, IsCatalogError(errors.New("other")))
	})
}

func TestConfigError(t *testing.T) {
	t.Run("Error message with value", func(t *testing.T) {
		err := NewConfigError("SwitchThreshold", -1, "must not be negative")

		assert.Contains(t, err.Error(), "catalog: config error")
		assert.Contains(t, err.Error(), "SwitchThreshold")
		assert.Contains(t, err.Error(), "-1")
		assert.Contains(t, err.Error(), "must not be negative")
	})

	t.Run("Error message without value", func(t *testing.T) {
		err := NewConfigError("Package", nil, "cannot be empty")

		assert.Contains(t, err.Error(), "Package")
		assert.Contains(t, err.Error(), "cannot be empty")
		assert.NotContains(t, err.Error(), "value:")
	})

	t.Run("Is matches ErrMissingConfig", func(t *testing.T) {
		err := NewConfigError("Target", nil, "missing")
		assert.True(t, errors.Is(err, ErrMissingConfig))
	})

	t.Run("IsConfigError helper", func(t *testing.T) {
		err := NewConfigError("Target", nil, "missing")
		assert.True(t, IsConfigError(err))
		assert.False(t, IsConfigError(errors.New("other")))
	})
}

func TestScanError(t *testing.T) {
	cause := errors.New("corrupt export data")
	err := NewScanError("example.com/money", cause)

	assert.Contains(t, err.Error(), "module example.com/money")
	assert.Contains(t, err.Error(), "corrupt export data")
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrScanFailed))
	assert.True(t, IsScanError(err))
	assert.False(t, IsScanError(cause))
}

func TestGenerationError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("write failed")
		err := NewGenerationError("sentinel", "currencies.go", "no safe default", cause)

		assert.Contains(t, err.Error(), "catalog: generation error")
		assert.Contains(t, err.Error(), "phase sentinel")
		assert.Contains(t, err.Error(), "file: currencies.go")
		assert.Contains(t, err.Error(), "no safe default")
		assert.Contains(t, err.Error(), "write failed")
	})

	t.Run("Is matches ErrGenerationFailed", func(t *testing.T) {
		err := NewGenerationError("lookup", "", "", nil)
		assert.True(t, errors.Is(err, ErrGenerationFailed))
		assert.True(t, IsGenerationError(err))
		assert.False(t, IsGenerationError(errors.New("other")))
	})
}

func TestDiagnostics(t *testing.T) {
	ds := Diagnostics{
		Diagf(CodeModuleScanFailed, load.Pos{}, "module %s skipped", "example.com/money"),
		Diagf(CodeDuplicateName, load.Pos{File: "shop.go", Line: 9, Column: 6}, "duplicate display name %q", "Pending"),
	}
	ds[1].Related = []load.Pos{{File: "shop.go", Line: 3, Column: 6}}

	assert.True(t, ds.HasErrors())
	assert.Len(t, ds.Errors(), 1)
	assert.Len(t, ds.Warnings(), 1)
	assert.Len(t, ds.WithCode(CodeDuplicateName), 1)
	assert.Equal(t, SeverityWarning, CodeUnknownDeclaration.Severity())
	assert.Equal(t, SeverityError, CodeEmissionFailed.Severity())
	assert.Equal(t, `shop.go:9:6: error CAT002: duplicate display name "Pending" (see shop.go:3:6)`, ds[1].String())

	err := ds.Err()
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.True(t, IsDiagnosticError(err))
	assert.NoError(t, ds.Warnings().Err())
	assert.False(t, ds.Warnings().HasErrors())
}
