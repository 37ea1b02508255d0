package money

// Unit is a unit of account.
type Unit interface {
	Symbol() string
}

//catalog:entry {display_name: Bitcoin}
type BTC struct{}

func (BTC) Code() string   { return "BTC" }
func (BTC) Symbol() string { return "₿" }

type hidden struct{}

func (hidden) Code() string { return "XXX" }
