package pricing

import (
	"math"
	"testing"
)

func TestTaxFlatRate(t *testing.T) {
	if got := Tax(1000, 5); got != 50 {
		t.Fatalf("expected tax 50, got %v", got)
	}
	if got := Tax(0, 5); got != 0 {
		t.Fatalf("expected zero tax on empty cart, got %v", got)
	}
	if got := Tax(999, 5); math.Abs(got-49.95) > 1e-9 {
		t.Fatalf("expected tax 49.95, got %v", got)
	}
}

func TestAggregateSkipsNonPositiveQty(t *testing.T) {
	lines := []Line{
		{Qty: 2, UnitPrice: 90, OriginalPrice: 100},
		{Qty: 0, UnitPrice: 50, OriginalPrice: 50},
		{Qty: 1, UnitPrice: 240, OriginalPrice: 240},
	}
	subtotal, savings := Aggregate(lines)
	if subtotal != 420 {
		t.Fatalf("expected subtotal 420, got %v", subtotal)
	}
	if savings != 20 {
		t.Fatalf("expected savings 20, got %v", savings)
	}
}

func TestResolveClampsAtZero(t *testing.T) {
	// Discount exceeding subtotal+tax+shipping clamps the raw total before rounding.
	total, rounding := Resolve(100, 5, 0, 500)
	if total != 0 {
		t.Fatalf("expected total 0, got %d", total)
	}
	if rounding != 0 {
		t.Fatalf("expected rounding 0, got %v", rounding)
	}
}

func TestComputeOnlineOrderScenario(t *testing.T) {
	// Subtotal 1000, GST 5% => 50; same-state shipping avg(30,50)=40 over
	// ceil(2.3kg)=3kg => 120; no points.
	lines := []Line{{Qty: 4, UnitPrice: 250, OriginalPrice: 250}}
	summary := Compute(lines, 5, 120, 0)
	if summary.Tax != 50 {
		t.Fatalf("expected tax 50, got %v", summary.Tax)
	}
	if summary.Total != 1170 {
		t.Fatalf("expected total 1170, got %d", summary.Total)
	}
	if summary.Rounding != 0 {
		t.Fatalf("expected no rounding adjustment, got %v", summary.Rounding)
	}
	if summary.ShowRounding() {
		t.Fatal("rounding adjustment of zero must not be displayed")
	}
}

func TestComputeWithLoyaltyDiscount(t *testing.T) {
	// Same cart with 100 points redeemed for a 10 rupee discount.
	lines := []Line{{Qty: 4, UnitPrice: 250, OriginalPrice: 250}}
	summary := Compute(lines, 5, 120, 10)
	if summary.Total != 1160 {
		t.Fatalf("expected total 1160, got %d", summary.Total)
	}
}

func TestComputeRoundingAdjustment(t *testing.T) {
	// 999 * 5% = 49.95 => raw 1048.95 rounds up to 1049, adjustment +0.05.
	lines := []Line{{Qty: 1, UnitPrice: 999, OriginalPrice: 999}}
	summary := Compute(lines, 5, 0, 0)
	if summary.Total != 1049 {
		t.Fatalf("expected total 1049, got %d", summary.Total)
	}
	if math.Abs(summary.Rounding-0.05) > 1e-9 {
		t.Fatalf("expected rounding +0.05, got %v", summary.Rounding)
	}
	if !summary.ShowRounding() {
		t.Fatal("rounding of 0.05 should be surfaced")
	}
}

func TestComputeIdempotent(t *testing.T) {
	lines := []Line{
		{Qty: 3, UnitPrice: 110.5, OriginalPrice: 130},
		{Qty: 1, UnitPrice: 75, OriginalPrice: 75},
	}
	first := Compute(lines, 5, 45.5, 12)
	for i := 0; i < 10; i++ {
		again := Compute(lines, 5, 45.5, 12)
		if again != first {
			t.Fatalf("recomputation diverged: %+v vs %+v", again, first)
		}
	}
}

func TestComputeNegativeInputsNormalised(t *testing.T) {
	lines := []Line{{Qty: 1, UnitPrice: 100, OriginalPrice: 100}}
	summary := Compute(lines, 5, -20, -5)
	if summary.Shipping != 0 || summary.LoyaltyDiscount != 0 {
		t.Fatalf("negative shipping/discount must clamp to zero: %+v", summary)
	}
	if summary.Total != 105 {
		t.Fatalf("expected total 105, got %d", summary.Total)
	}
}
