// Package loyalty implements the point ledger: redemption against order
// totals and earn-on-purchase awards.
package loyalty

import (
	"errors"
	"math"
)

var (
	// ErrBelowMinRedeem is returned when the requested points are under the floor.
	ErrBelowMinRedeem = errors.New("points below minimum redemption")
	// ErrInsufficientPoints is returned when the account balance cannot cover the request.
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
)

// Policy carries the externally configured redemption and earn rules.
type Policy struct {
	// PointValue is the rupee value of one point.
	PointValue float64
	// MinRedeemPoints is the smallest redeemable batch.
	MinRedeemPoints int64
	// MaxDiscountPct caps the discount at a percentage of the order subtotal.
	MaxDiscountPct float64
	// EarnPointsPer100 is how many points a completed order earns per 100 rupees.
	EarnPointsPer100 int64
}

// Application is the outcome of applying points to an order.
type Application struct {
	// Points actually consumed after capping.
	Points int64
	// Discount is the rupee value of the consumed points.
	Discount float64
}

// Apply resolves how many of the requested points can discount an order with
// the given subtotal and account balance. The request is capped, never
// rejected, once it clears the minimum batch and the balance check: if the
// discount would exceed the percentage cap, fewer points are consumed.
func (p Policy) Apply(requested, balance int64, subtotal float64) (Application, error) {
	if requested <= 0 {
		return Application{}, nil
	}
	if requested < p.MinRedeemPoints {
		return Application{}, ErrBelowMinRedeem
	}
	if requested > balance {
		return Application{}, ErrInsufficientPoints
	}
	points := requested
	if p.PointValue <= 0 {
		return Application{}, nil
	}
	maxDiscount := subtotal * p.MaxDiscountPct / 100
	if limit := int64(math.Floor(maxDiscount / p.PointValue)); points > limit {
		points = limit
	}
	if points <= 0 {
		return Application{}, nil
	}
	return Application{Points: points, Discount: float64(points) * p.PointValue}, nil
}

// Earn computes the points awarded for a completed order total.
func (p Policy) Earn(total int64) int64 {
	if total <= 0 || p.EarnPointsPer100 <= 0 {
		return 0
	}
	return total / 100 * p.EarnPointsPer100
}
