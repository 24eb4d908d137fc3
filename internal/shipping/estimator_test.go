package shipping

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func testEstimator() *Estimator {
	return &Estimator{
		Rates: Rates{
			OriginState:   "Tamil Nadu",
			OriginCity:    "Coimbatore",
			LocalMin:      30,
			LocalMax:      50,
			InterstateMin: 60,
			InterstateMax: 90,
		},
		Log: zerolog.Nop(),
	}
}

func TestResolveBand(t *testing.T) {
	e := testEstimator()
	if band := e.ResolveBand(Destination{State: "Tamil Nadu", City: "Chennai"}); band != BandLocal {
		t.Fatalf("same state should be local, got %s", band)
	}
	if band := e.ResolveBand(Destination{State: "tamil  nadu", City: "Madurai"}); band != BandLocal {
		t.Fatalf("band comparison should ignore case and spacing, got %s", band)
	}
	if band := e.ResolveBand(Destination{State: "Kerala", City: "Kochi"}); band != BandInterstate {
		t.Fatalf("different state should be interstate, got %s", band)
	}
}

func TestEstimateLocalAveragesRatesAndRoundsUpWeight(t *testing.T) {
	e := testEstimator()
	// 2 x 1kg + 1 x 500g = 2.5kg, billed as 3kg at (30+50)/2 = 40/kg.
	quote, err := e.Estimate(context.Background(), Destination{State: "Tamil Nadu", City: "Chennai"}, []Item{
		{PackSize: "1kg", Qty: 2},
		{PackSize: "500g", Qty: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Band != BandLocal {
		t.Fatalf("expected local band, got %s", quote.Band)
	}
	if quote.Cost != 120 {
		t.Fatalf("expected cost 120, got %v", quote.Cost)
	}
	if quote.WeightKg != 2.5 {
		t.Fatalf("expected weight 2.5, got %v", quote.WeightKg)
	}
}

func TestEstimateInterstate(t *testing.T) {
	e := testEstimator()
	quote, err := e.Estimate(context.Background(), Destination{State: "Karnataka", City: "Bengaluru"}, []Item{
		{PackSize: "1kg", Qty: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Band != BandInterstate {
		t.Fatalf("expected interstate band, got %s", quote.Band)
	}
	// (60+90)/2 = 75/kg for 1kg.
	if quote.Cost != 75 {
		t.Fatalf("expected cost 75, got %v", quote.Cost)
	}
}

func TestEstimateFallbackWeightForUnparseablePack(t *testing.T) {
	e := testEstimator()
	quote, err := e.Estimate(context.Background(), Destination{State: "Tamil Nadu", City: "Salem"}, []Item{
		{PackSize: "combo hamper", Qty: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.WeightKg != DefaultPackWeightKg {
		t.Fatalf("expected fallback weight %v, got %v", DefaultPackWeightKg, quote.WeightKg)
	}
	if quote.Fallbacks != 1 {
		t.Fatalf("expected one fallback line, got %d", quote.Fallbacks)
	}
	if quote.Cost != 40 {
		t.Fatalf("expected cost 40 for 1kg local, got %v", quote.Cost)
	}
}

func TestEstimateRequiresDestination(t *testing.T) {
	e := testEstimator()
	_, err := e.Estimate(context.Background(), Destination{State: "", City: "Chennai"}, nil)
	if !errors.Is(err, ErrDestinationIncomplete) {
		t.Fatalf("expected ErrDestinationIncomplete, got %v", err)
	}
	_, err = e.Estimate(context.Background(), Destination{State: "Tamil Nadu", City: "  "}, nil)
	if !errors.Is(err, ErrDestinationIncomplete) {
		t.Fatalf("expected ErrDestinationIncomplete for blank city, got %v", err)
	}
}

func TestEstimateMinimumOneKilogram(t *testing.T) {
	e := testEstimator()
	quote, err := e.Estimate(context.Background(), Destination{State: "Tamil Nadu", City: "Erode"}, []Item{
		{PackSize: "250g", Qty: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Cost != 40 {
		t.Fatalf("sub-kilogram parcels bill at one kilogram, got cost %v", quote.Cost)
	}
}
