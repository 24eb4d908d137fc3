package payment

import (
	"fmt"
	"math"
)

// Split is a counter sale settled partly in cash and partly by a digital
// tender. The two parts carry paise precision; the order total is whole
// rupees, so reconciliation happens after rounding their sum.
type Split struct {
	Cash    float64 `json:"cash"`
	Digital float64 `json:"digital"`
}

// Validate checks the split against the order total. The rounded sum of the
// two parts must equal the total exactly; anything else is a till mismatch.
func (s Split) Validate(total int64) error {
	if s.Cash < 0 || s.Digital < 0 {
		return fmt.Errorf("split amounts cannot be negative")
	}
	paid := int64(math.Round(s.Cash + s.Digital))
	if paid != total {
		return fmt.Errorf("split payment does not reconcile: expected %d, got %d", total, paid)
	}
	return nil
}

// Sum returns the raw, unrounded sum of both parts.
func (s Split) Sum() float64 {
	return s.Cash + s.Digital
}
