package tokenswap

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/program"
)

// Model is a pool with its current reserves.
type Model struct {
	TokenSwap *SwapLayout
	ReserveA  uint64
	ReserveB  uint64
}

func (m *Model) Swap(token solana.PublicKey, amount uint64) (*program.SwapResult, error) {
	if token != m.TokenSwap.TokenA && token != m.TokenSwap.TokenB {
		return nil, fmt.Errorf("token %s is not in this pool", token)
	}
	totalFee := new(big.Int).Add(
		tradingFee(amount, m.TokenSwap.Fees.TradeFeeNumerator, m.TokenSwap.Fees.TradeFeeDenominator),
		tradingFee(amount, m.TokenSwap.Fees.OwnerTradeFeeNumerator, m.TokenSwap.Fees.OwnerTradeFeeDenominator),
	)
	sourceAmountLessFees := new(big.Int).Sub(new(big.Int).SetUint64(amount), totalFee)
	if sourceAmountLessFees.Sign() <= 0 {
		return nil, fmt.Errorf("amount is too small")
	}
	var sr *program.SwapResult
	switch m.TokenSwap.SwapCurve.CurveType {
	case ConstantProduct:
		sr = m.swapWithoutFeesConstantProduct(token, sourceAmountLessFees)
	case ConstantPrice:
		sr = m.swapWithoutFeesConstantPrice(token, sourceAmountLessFees)
	case Stable:
		sr = m.swapWithoutFeesStable(token, sourceAmountLessFees)
	default:
		return nil, fmt.Errorf("curve type %d is not supported", m.TokenSwap.SwapCurve.CurveType)
	}
	sr.AmountIn = sr.AmountIn + totalFee.Uint64()
	sr.Fee = totalFee.Uint64()
	sr.NewSwapSrc = sr.NewSwapSrc + totalFee.Uint64()
	return sr, nil
}

// tradingFee rounds a nonzero fee up to at least 1.
func tradingFee(amount, numerator, denominator uint64) *big.Int {
	if numerator == 0 || amount == 0 {
		return new(big.Int)
	}
	fee := new(big.Int).Div(
		new(big.Int).Mul(new(big.Int).SetUint64(amount), new(big.Int).SetUint64(numerator)),
		new(big.Int).SetUint64(denominator),
	)
	if fee.Sign() == 0 {
		return big.NewInt(1)
	}
	return fee
}

func (m *Model) reserves(token solana.PublicKey) (solana.PublicKey, *big.Int, solana.PublicKey, *big.Int) {
	if token == m.TokenSwap.TokenB {
		return m.TokenSwap.TokenB, new(big.Int).SetUint64(m.ReserveB), m.TokenSwap.TokenA, new(big.Int).SetUint64(m.ReserveA)
	}
	return m.TokenSwap.TokenA, new(big.Int).SetUint64(m.ReserveA), m.TokenSwap.TokenB, new(big.Int).SetUint64(m.ReserveB)
}

func (m *Model) swapWithoutFeesConstantProduct(token solana.PublicKey, amountLessFees *big.Int) *program.SwapResult {
	sourceToken, sourceAmount, destinationToken, destinationAmount := m.reserves(token)
	invariant := new(big.Int).Mul(sourceAmount, destinationAmount)
	newSourceAmount := new(big.Int).Add(sourceAmount, amountLessFees)
	newDestinationAmount := new(big.Int).Div(invariant, newSourceAmount)
	swappedSourceAmount := new(big.Int).Sub(newSourceAmount, sourceAmount)
	swappedDestinationAmount := new(big.Int).Sub(destinationAmount, newDestinationAmount)
	return &program.SwapResult{
		TokenIn:    sourceToken,
		AmountIn:   swappedSourceAmount.Uint64(),
		TokenOut:   destinationToken,
		AmountOut:  swappedDestinationAmount.Uint64(),
		NewSwapSrc: newSourceAmount.Uint64(),
		NewSwapDst: newDestinationAmount.Uint64(),
	}
}

func (m *Model) swapWithoutFeesConstantPrice(token solana.PublicKey, amountLessFees *big.Int) *program.SwapResult {
	tokenBPrice := new(big.Int).SetUint64(m.TokenSwap.SwapCurve.Calculator.Data1)
	sourceToken, sourceAmount, destinationToken, destinationAmount := m.reserves(token)
	swappedDestinationAmount := new(big.Int).Div(amountLessFees, tokenBPrice)
	if token == m.TokenSwap.TokenB {
		swappedDestinationAmount = new(big.Int).Mul(amountLessFees, tokenBPrice)
	}
	return &program.SwapResult{
		TokenIn:    sourceToken,
		AmountIn:   amountLessFees.Uint64(),
		TokenOut:   destinationToken,
		AmountOut:  swappedDestinationAmount.Uint64(),
		NewSwapSrc: new(big.Int).Add(sourceAmount, amountLessFees).Uint64(),
		NewSwapDst: new(big.Int).Sub(destinationAmount, swappedDestinationAmount).Uint64(),
	}
}
