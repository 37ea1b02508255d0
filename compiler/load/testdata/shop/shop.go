package shop

import (
	"time"

	"github.com/syssam/catalog/compiler/load/testdata/money"
)

//catalog:shape {comparison: ordinal, cross_module: true}
type Currency interface {
	//catalog:key
	Code() string
	money.Unit
}

//catalog:entry {order: 1}
type USD struct{}

func (USD) Code() string   { return "USD" }
func (USD) Symbol() string { return "$" }

type EUR struct{}

func (EUR) Code() string   { return "EUR" }
func (EUR) Symbol() string { return "€" }

type Kind int

// Product is the base of the product catalog.
//
//catalog:shape {keys: [{member: Categories, multi: true}]}
type Product struct {
	Name       string
	Categories []string
	Kind       Kind
	Created    time.Time
}

func NewProduct(name string) *Product { return &Product{Name: name} }

type Headphones struct {
	Product
}

func (h *Headphones) Price() int { return 100 }

func NewHeadphones() *Headphones { return &Headphones{} }
