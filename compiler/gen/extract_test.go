package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlural(t *testing.T) {
	tests := map[string]string{
		"OrderStatus": "OrderStatuses",
		"Status":      "Statuses",
		"Currency":    "Currencies",
		"Box":         "Boxes",
		"Equipment":   "Equipment",
		"URL":         "URLs",
		"HTTPCode":    "HTTPCodes",
		"Country2":    "Country2s",
	}
	for in, want := range tests {
		assert.Equal(t, want, plural(in), in)
	}
}

func TestSingular(t *testing.T) {
	tests := map[string]string{
		"Categories":        "Category",
		"ProductCategories": "ProductCategory",
		"Tags":              "Tag",
		"Codes":             "Code",
		"Equipment":         "Equipment",
	}
	for in, want := range tests {
		assert.Equal(t, want, singular(in), in)
	}
}
