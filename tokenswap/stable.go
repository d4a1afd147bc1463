package tokenswap

import (
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/program"
)

var (
	NCoins        = 2
	NCoinsSquared = 4
)

func (m *Model) swapWithoutFeesStable(token solana.PublicKey, amountLessFees *big.Int) *program.SwapResult {
	amp := m.TokenSwap.SwapCurve.Calculator.Data1
	leverage := new(big.Int).Mul(new(big.Int).SetUint64(amp), new(big.Int).SetUint64(uint64(NCoins)))
	sourceToken, sourceAmount, destinationToken, destinationAmount := m.reserves(token)
	newSourceAmount := new(big.Int).Add(sourceAmount, amountLessFees)
	dVal := computeD(leverage, sourceAmount, destinationAmount)
	newDestinationAmount := computeNewDestinationAmount(leverage, newSourceAmount, dVal)
	swapDestinationAmount := new(big.Int).Sub(destinationAmount, newDestinationAmount)
	if swapDestinationAmount.Sign() < 0 {
		swapDestinationAmount = new(big.Int)
	}
	return &program.SwapResult{
		TokenIn:    sourceToken,
		AmountIn:   amountLessFees.Uint64(),
		TokenOut:   destinationToken,
		AmountOut:  swapDestinationAmount.Uint64(),
		NewSwapSrc: newSourceAmount.Uint64(),
		NewSwapDst: new(big.Int).Sub(destinationAmount, swapDestinationAmount).Uint64(),
	}
}

func calculateStep(d *big.Int, leverage *big.Int, sumX *big.Int, dProduct *big.Int) *big.Int {
	leverageMul := new(big.Int).Mul(leverage, sumX)
	ncoins := new(big.Int).SetUint64(uint64(NCoins))
	dpMul := new(big.Int).Mul(dProduct, ncoins)
	lVal := new(big.Int).Mul(new(big.Int).Add(leverageMul, dpMul), d)
	leverageSub := new(big.Int).Mul(d, new(big.Int).Sub(leverage, big.NewInt(1)))
	nCoinsSum := new(big.Int).Mul(dProduct, new(big.Int).Add(ncoins, big.NewInt(1)))
	rVal := new(big.Int).Add(leverageSub, nCoinsSum)
	return new(big.Int).Div(lVal, rVal)
}

// computeD solves the stable invariant by Newton iteration, at most 32 rounds.
func computeD(leverage *big.Int, sourceAmount *big.Int, destinationAmount *big.Int) *big.Int {
	ncoins := new(big.Int).SetUint64(uint64(NCoins))
	sourceAmountTimesCoins := new(big.Int).Add(new(big.Int).Mul(sourceAmount, ncoins), big.NewInt(1))
	destinationAmountTimesCoins := new(big.Int).Add(new(big.Int).Mul(destinationAmount, ncoins), big.NewInt(1))
	sumX := new(big.Int).Add(sourceAmount, destinationAmount)
	if sumX.Sign() == 0 {
		return new(big.Int)
	}
	d := sumX
	for i := 0; i < 32; i++ {
		dProduct := new(big.Int).Div(new(big.Int).Mul(d, d), sourceAmountTimesCoins)
		dProduct = new(big.Int).Div(new(big.Int).Mul(dProduct, d), destinationAmountTimesCoins)
		dPrevious := d
		d = calculateStep(d, leverage, sumX, dProduct)
		if d.Cmp(dPrevious) == 0 {
			break
		}
	}
	return d
}

func computeNewDestinationAmount(leverage *big.Int, newSourceAmount *big.Int, dVal *big.Int) *big.Int {
	ncoins := new(big.Int).SetUint64(uint64(NCoins))
	ncoinsSquared := new(big.Int).SetUint64(uint64(NCoinsSquared))
	c := new(big.Int).Div(
		new(big.Int).Exp(dVal, new(big.Int).Add(ncoins, big.NewInt(1)), nil),
		new(big.Int).Mul(new(big.Int).Mul(newSourceAmount, ncoinsSquared), leverage))
	b := new(big.Int).Add(newSourceAmount, new(big.Int).Div(dVal, leverage))
	y := dVal
	for i := 0; i < 32; i++ {
		yPrev := y
		y = new(big.Int).Div(
			new(big.Int).Add(new(big.Int).Mul(y, y), c),
			new(big.Int).Sub(new(big.Int).Add(new(big.Int).Mul(y, big.NewInt(2)), b), dVal),
		)
		if y.Cmp(yPrev) == 0 {
			break
		}
	}
	return y
}
