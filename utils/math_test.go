package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/egaotan/solana-router/errcode"
)

func TestMulDiv(t *testing.T) {
	v, err := MulDiv(7, 33, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(2), v)

	// the product overflows u64 but the quotient does not
	v, err = MulDiv(math.MaxUint64, 1_000_000_000, 1_000_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), v)

	_, err = MulDiv(math.MaxUint64, 2, 1)
	require.ErrorIs(t, err, errcode.ErrCalculation)

	_, err = MulDiv(1, 1, 0)
	require.ErrorIs(t, err, errcode.ErrCalculation)
}

func TestCheckedArithmetic(t *testing.T) {
	_, err := CheckedAdd(math.MaxUint64, 1)
	require.ErrorIs(t, err, errcode.ErrCalculation)
	_, err = CheckedSub(1, 2)
	require.ErrorIs(t, err, errcode.ErrCalculation)

	v, err := CheckedSub(5, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(3), v)
	require.Equal(t, uint64(0), SaturatingSub(2, 5))
	require.Equal(t, uint64(2), Min(2, 5))
}
