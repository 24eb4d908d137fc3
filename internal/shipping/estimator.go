package shipping

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/rs/zerolog"
)

// Band identifies which rate band applies to a destination.
type Band string

const (
	BandLocal      Band = "local"
	BandInterstate Band = "interstate"
)

// ErrDestinationIncomplete is returned when the destination lacks a state or city.
var ErrDestinationIncomplete = errors.New("destination state and city are required")

// Rates holds the per-kilogram min/max rates for both bands and the store origin.
type Rates struct {
	OriginState   string
	OriginCity    string
	LocalMin      float64
	LocalMax      float64
	InterstateMin float64
	InterstateMax float64
}

// Destination is where an order ships to.
type Destination struct {
	State string
	City  string
}

// Quote is a priced shipping estimate.
type Quote struct {
	Band      Band
	WeightKg  float64
	RatePerKg float64
	Cost      float64
	Fallbacks int
}

// Item is one cart line contributing to the billable weight.
type Item struct {
	PackSize string
	Qty      int32
}

// Estimator computes shipping quotes from the configured rate table.
type Estimator struct {
	Rates Rates
	Log   zerolog.Logger
}

// ResolveBand picks the rate band for a destination. The comparison is on
// state only, case and whitespace insensitive.
func (e *Estimator) ResolveBand(dest Destination) Band {
	if normalisePlace(dest.State) == normalisePlace(e.Rates.OriginState) {
		return BandLocal
	}
	return BandInterstate
}

// BillableWeightKg sums the parsed pack weights of all items. Lines whose
// pack size cannot be parsed count at the fallback weight and are logged.
func (e *Estimator) BillableWeightKg(ctx context.Context, items []Item) (float64, int) {
	var total float64
	fallbacks := 0
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		kg, ok := ParsePackWeightKg(it.PackSize)
		if !ok {
			fallbacks++
			e.Log.Warn().Str("pack_size", it.PackSize).
				Msg("unparseable pack size, using fallback weight")
		}
		total += kg * float64(it.Qty)
	}
	return total, fallbacks
}

// Estimate prices a delivery. The chargeable rate is the average of the band's
// min and max per-kilogram rates, applied to the total weight rounded up to
// the next whole kilogram.
func (e *Estimator) Estimate(ctx context.Context, dest Destination, items []Item) (Quote, error) {
	if strings.TrimSpace(dest.State) == "" || strings.TrimSpace(dest.City) == "" {
		return Quote{}, ErrDestinationIncomplete
	}
	band := e.ResolveBand(dest)
	weight, fallbacks := e.BillableWeightKg(ctx, items)
	var rate float64
	switch band {
	case BandLocal:
		rate = (e.Rates.LocalMin + e.Rates.LocalMax) / 2
	default:
		rate = (e.Rates.InterstateMin + e.Rates.InterstateMax) / 2
	}
	chargeableKg := math.Ceil(weight)
	if chargeableKg < 1 {
		chargeableKg = 1
	}
	return Quote{
		Band:      band,
		WeightKg:  weight,
		RatePerKg: rate,
		Cost:      rate * chargeableKg,
		Fallbacks: fallbacks,
	}, nil
}

func normalisePlace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
