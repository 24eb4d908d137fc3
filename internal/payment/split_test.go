package payment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitReconcilesExactly(t *testing.T) {
	s := Split{Cash: 200, Digital: 99}
	require.NoError(t, s.Validate(299))
}

func TestSplitRejectsShortfall(t *testing.T) {
	s := Split{Cash: 200, Digital: 90}
	err := s.Validate(299)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected 299")
	require.Contains(t, err.Error(), "got 290")
}

func TestSplitRoundsPaiseBeforeComparing(t *testing.T) {
	// 150.25 + 148.75 = 299.00 exactly.
	require.NoError(t, Split{Cash: 150.25, Digital: 148.75}.Validate(299))
	// 150.30 + 148.75 = 299.05, rounds to 299.
	require.NoError(t, Split{Cash: 150.30, Digital: 148.75}.Validate(299))
	// 150.80 + 148.75 = 299.55, rounds to 300.
	require.Error(t, Split{Cash: 150.80, Digital: 148.75}.Validate(299))
}

func TestSplitRejectsNegativeParts(t *testing.T) {
	require.Error(t, Split{Cash: -10, Digital: 309}.Validate(299))
	require.Error(t, Split{Cash: 309, Digital: -10}.Validate(299))
}

func TestSplitRejectsOverpayment(t *testing.T) {
	require.Error(t, Split{Cash: 300, Digital: 99}.Validate(299))
}
