package saber

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/program"
)

var (
	NCoins     = 2
	Iterations = 20
)

// Model is a stable swap pool with its current reserves.
type Model struct {
	StableSwap *StableSwapLayout
	ReserveA   uint64
	ReserveB   uint64
}

func (m *Model) Swap(token solana.PublicKey, amount uint64) (*program.SwapResult, error) {
	if amount == 0 {
		return nil, fmt.Errorf("swap in amount is zero")
	}
	if m.StableSwap.IsPaused != 0 {
		return nil, fmt.Errorf("swap is paused")
	}
	if token != m.StableSwap.TokenA && token != m.StableSwap.TokenB {
		return nil, fmt.Errorf("token %s is not in this pool", token)
	}
	return m.stableSwap(token, amount), nil
}

// AdminFee is the part of a trade fee paid to the admin fee account.
func (m *Model) AdminFee(fee uint64) uint64 {
	return muldivimbalanced(new(big.Int).SetUint64(fee), m.StableSwap.Fees.AdminTradeFeeNumerator, m.StableSwap.Fees.AdminTradeFeeDenominator).Uint64()
}

func (m *Model) computeD(amp *big.Int, sourceAmount *big.Int, destinationAmount *big.Int) *big.Int {
	ncoins := big.NewInt(int64(NCoins))
	ann := new(big.Int).Mul(amp, ncoins)
	s := new(big.Int).Add(sourceAmount, destinationAmount)
	if s.Sign() == 0 {
		return new(big.Int)
	}
	d := s
	for i := 0; i < Iterations; i++ {
		dPrev := d
		dp := new(big.Int).Div(new(big.Int).Mul(d, d), new(big.Int).Mul(sourceAmount, ncoins))
		dp = new(big.Int).Div(new(big.Int).Mul(dp, d), new(big.Int).Mul(destinationAmount, ncoins))
		dNumerator := new(big.Int).Mul(d, new(big.Int).Add(new(big.Int).Mul(ann, s), new(big.Int).Mul(dp, ncoins)))
		dDenominator := new(big.Int).Add(
			new(big.Int).Mul(d, new(big.Int).Sub(ann, big.NewInt(1))),
			new(big.Int).Mul(dp, new(big.Int).Add(ncoins, big.NewInt(1))))
		d = new(big.Int).Div(dNumerator, dDenominator)
		if d.Cmp(dPrev) == 0 {
			return d
		}
	}
	return d
}

func (m *Model) computeY(amp *big.Int, x *big.Int, d *big.Int) *big.Int {
	ncoins := big.NewInt(int64(NCoins))
	ann := new(big.Int).Mul(amp, ncoins)
	b := new(big.Int).Sub(new(big.Int).Add(x, new(big.Int).Div(d, ann)), d)
	c := new(big.Int).Div(
		new(big.Int).Mul(new(big.Int).Mul(d, d), d),
		new(big.Int).Mul(ncoins, new(big.Int).Mul(ncoins, new(big.Int).Mul(x, ann))))
	y := d
	for i := 0; i < Iterations; i++ {
		yPrev := y
		y = new(big.Int).Div(
			new(big.Int).Add(new(big.Int).Mul(y, y), c),
			new(big.Int).Add(new(big.Int).Mul(ncoins, y), b))
		if y.Cmp(yPrev) == 0 {
			return y
		}
	}
	return y
}

// stableSwap charges the trade fee on the output side.
func (m *Model) stableSwap(token solana.PublicKey, amount uint64) *program.SwapResult {
	sourceToken, sourceAmount := m.StableSwap.TokenA, new(big.Int).SetUint64(m.ReserveA)
	destinationToken, destinationAmount := m.StableSwap.TokenB, new(big.Int).SetUint64(m.ReserveB)
	if token == m.StableSwap.TokenB {
		sourceToken, sourceAmount = m.StableSwap.TokenB, new(big.Int).SetUint64(m.ReserveB)
		destinationToken, destinationAmount = m.StableSwap.TokenA, new(big.Int).SetUint64(m.ReserveA)
	}
	inAmount := new(big.Int).SetUint64(amount)
	amp := new(big.Int).SetUint64(m.StableSwap.InitialAmpFactor)
	d := m.computeD(amp, sourceAmount, destinationAmount)
	y := m.computeY(amp, new(big.Int).Add(sourceAmount, inAmount), d)
	amountBeforeFees := new(big.Int).Sub(destinationAmount, y)
	if amountBeforeFees.Sign() < 0 {
		amountBeforeFees = new(big.Int)
	}
	fee := muldivimbalanced(amountBeforeFees, m.StableSwap.Fees.TradeFeeNumerator, m.StableSwap.Fees.TradeFeeDenominator)
	if fee.Cmp(amountBeforeFees) > 0 {
		fee = amountBeforeFees
	}
	newSourceAmount := new(big.Int).Add(sourceAmount, inAmount)
	swappedDestinationAmount := new(big.Int).Sub(amountBeforeFees, fee)
	return &program.SwapResult{
		TokenIn:    sourceToken,
		AmountIn:   amount,
		TokenOut:   destinationToken,
		AmountOut:  swappedDestinationAmount.Uint64(),
		Fee:        fee.Uint64(),
		NewSwapSrc: newSourceAmount.Uint64(),
		NewSwapDst: new(big.Int).Sub(destinationAmount, amountBeforeFees).Uint64(),
	}
}

func muldivimbalanced(amount *big.Int, numerator uint64, denominator uint64) *big.Int {
	if amount.Sign() == 0 || numerator == 0 || denominator == 0 {
		return new(big.Int)
	}
	fee := new(big.Int).Div(
		new(big.Int).Mul(amount, new(big.Int).SetUint64(numerator)),
		new(big.Int).SetUint64(denominator),
	)
	if fee.Sign() == 0 {
		return big.NewInt(1)
	}
	return fee
}
