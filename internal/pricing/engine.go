package pricing

import "math"

// Amount is a monetary value in rupees. Intermediate components (GST, rate
// band averages) carry paise fractions, so amounts stay floating point until
// the final total is resolved to a whole rupee.
type Amount = float64

// RoundingDisplayEpsilon is the smallest rounding adjustment worth showing to
// a customer. Anything below it is floating point noise.
const RoundingDisplayEpsilon = 0.01

// Line is a single cart line as priced at checkout.
type Line struct {
	Qty           int
	UnitPrice     Amount // post-discount unit price
	OriginalPrice Amount // pre-discount unit price, equals UnitPrice when not discounted
}

// Savings returns the per-line discount delta (original minus charged).
func (l Line) Savings() Amount {
	if l.Qty <= 0 || l.OriginalPrice <= l.UnitPrice {
		return 0
	}
	return (l.OriginalPrice - l.UnitPrice) * Amount(l.Qty)
}

// Summary aggregates every computed pricing component for an order.
type Summary struct {
	Subtotal        Amount `json:"subtotal"`
	Savings         Amount `json:"savings"`
	GSTRatePct      Amount `json:"gstRatePct"`
	Tax             Amount `json:"tax"`
	Shipping        Amount `json:"shipping"`
	LoyaltyDiscount Amount `json:"loyaltyDiscount"`
	Rounding        Amount `json:"rounding"`
	Total           int64  `json:"total"`
}

// ShowRounding reports whether the rounding adjustment is large enough to
// surface on the order review screen.
func (s Summary) ShowRounding() bool {
	return math.Abs(s.Rounding) > RoundingDisplayEpsilon
}

// Aggregate sums cart lines into a subtotal and the total discount delta.
// Lines with non-positive quantity are skipped.
func Aggregate(lines []Line) (subtotal, savings Amount) {
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		subtotal += l.UnitPrice * Amount(l.Qty)
		savings += l.Savings()
	}
	return subtotal, savings
}

// Tax applies a flat GST percentage to the subtotal.
func Tax(subtotal, ratePct Amount) Amount {
	if subtotal <= 0 || ratePct <= 0 {
		return 0
	}
	return subtotal * ratePct / 100
}

// Resolve combines the components, clamps at zero before rounding and rounds
// to the nearest whole rupee. The returned rounding value is total minus the
// unrounded sum.
func Resolve(subtotal, tax, shipping, discount Amount) (total int64, rounding Amount) {
	raw := subtotal + tax + shipping - discount
	if raw < 0 {
		raw = 0
	}
	total = int64(math.Round(raw))
	return total, Amount(total) - raw
}

// Compute runs the full pipeline for a cart: aggregate, tax, shipping and
// loyalty discount into a final rounded total. Shipping is zero for in-store
// orders; discount is zero when no points are redeemed.
func Compute(lines []Line, gstRatePct, shipping, discount Amount) Summary {
	subtotal, savings := Aggregate(lines)
	if shipping < 0 {
		shipping = 0
	}
	if discount < 0 {
		discount = 0
	}
	tax := Tax(subtotal, gstRatePct)
	total, rounding := Resolve(subtotal, tax, shipping, discount)
	return Summary{
		Subtotal:        subtotal,
		Savings:         savings,
		GSTRatePct:      gstRatePct,
		Tax:             tax,
		Shipping:        shipping,
		LoyaltyDiscount: discount,
		Rounding:        rounding,
		Total:           total,
	}
}
