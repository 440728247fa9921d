package format

import "errors"

var (
	ErrNotFound = errors.New("format not found")
	ErrBadRow   = errors.New("format row failed validation")
)

// Format describes one purchasable edition of the book. Keys are
// data-driven: the set of valid formats lives in the database and can be
// changed by an admin at any time, so callers must validate against the
// live map rather than a compile-time enum.
type Format struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Digital     bool    `json:"digital"`
	Bundle      bool    `json:"bundle"`
	Active      bool    `json:"active"`
}

// Preorder discounts are declarative per format class so marketing can
// retune them without touching checkout logic.
var discountRates = map[string]float64{
	"bundle":   0.25,
	"standard": 0.15,
}

func (f Format) class() string {
	if f.Bundle {
		return "bundle"
	}
	return "standard"
}

// DiscountRate returns the preorder discount for this format's class.
func (f Format) DiscountRate() float64 {
	return discountRates[f.class()]
}

// Validate reports whether a row loaded from storage is usable. A format
// with no key or a negative price is rejected at the boundary rather than
// trusted downstream.
func (f Format) Validate() error {
	if f.Key == "" || f.Name == "" {
		return ErrBadRow
	}
	if f.Price < 0 {
		return ErrBadRow
	}
	return nil
}
