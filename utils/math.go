package utils

import (
	"github.com/holiman/uint256"

	"github.com/egaotan/solana-router/errcode"
)

// MulDiv returns floor(a*b/d) computed on a 256-bit intermediate.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, errcode.ErrCalculation.Wrap("division by zero")
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	quotient := new(uint256.Int).Div(product, uint256.NewInt(d))
	if !quotient.IsUint64() {
		return 0, errcode.ErrCalculation.Wrapf("%d*%d/%d overflows u64", a, b, d)
	}
	return quotient.Uint64(), nil
}

func CheckedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, errcode.ErrCalculation.Wrapf("%d+%d overflows u64", a, b)
	}
	return sum, nil
}

func CheckedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, errcode.ErrCalculation.Wrapf("%d-%d underflows", a, b)
	}
	return a - b, nil
}

func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func Min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
