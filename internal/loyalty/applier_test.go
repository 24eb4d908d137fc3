package loyalty

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testPolicy() Policy {
	return Policy{
		PointValue:       0.10,
		MinRedeemPoints:  50,
		MaxDiscountPct:   50,
		EarnPointsPer100: 2,
	}
}

func TestApplyConvertsPointsToRupees(t *testing.T) {
	app, err := testPolicy().Apply(100, 500, 1000)
	require.NoError(t, err)
	require.EqualValues(t, 100, app.Points)
	require.Equal(t, 10.0, app.Discount)
}

func TestApplyRejectsBelowMinimum(t *testing.T) {
	_, err := testPolicy().Apply(49, 500, 1000)
	require.ErrorIs(t, err, ErrBelowMinRedeem)
}

func TestApplyRejectsOverBalance(t *testing.T) {
	_, err := testPolicy().Apply(200, 100, 1000)
	require.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestApplyCapsAtMaxDiscountPct(t *testing.T) {
	// 50% of a 100 rupee order is 50 rupees, worth 500 points at 0.10/pt.
	app, err := testPolicy().Apply(1000, 2000, 100)
	require.NoError(t, err)
	require.EqualValues(t, 500, app.Points)
	require.Equal(t, 50.0, app.Discount)
}

func TestApplyZeroRequestIsNoop(t *testing.T) {
	app, err := testPolicy().Apply(0, 500, 1000)
	require.NoError(t, err)
	require.Zero(t, app.Points)
	require.Zero(t, app.Discount)
}

func TestEarnPer100Rupees(t *testing.T) {
	p := testPolicy()
	require.EqualValues(t, 22, p.Earn(1170))
	require.EqualValues(t, 0, p.Earn(99))
	require.EqualValues(t, 2, p.Earn(100))
	require.EqualValues(t, 0, p.Earn(-5))
}
