package pumpfun

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/utils"
)

const feeDenominator = uint64(10_000)

// Model prices sells of a mint against its bonding curve.
type Model struct {
	Mint         solana.PublicKey
	Global       *GlobalLayout
	BondingCurve *BondingCurveLayout
}

// Sell returns the lamports paid for amount tokens. Fee is the part of the
// curve output kept by the fee recipient.
func (m *Model) Sell(amount uint64) (*program.SwapResult, error) {
	if amount == 0 {
		return nil, fmt.Errorf("sell amount is zero")
	}
	if m.BondingCurve.Complete != 0 {
		return nil, fmt.Errorf("bonding curve is complete")
	}
	reserves, err := utils.CheckedAdd(m.BondingCurve.VirtualTokenReserves, amount)
	if err != nil {
		return nil, err
	}
	solOut, err := utils.MulDiv(amount, m.BondingCurve.VirtualSolReserves, reserves)
	if err != nil {
		return nil, err
	}
	if solOut > m.BondingCurve.RealSolReserves {
		return nil, fmt.Errorf("bonding curve holds %d lamports, sell needs %d", m.BondingCurve.RealSolReserves, solOut)
	}
	fee, err := utils.MulDiv(solOut, m.Global.FeeBasisPoints, feeDenominator)
	if err != nil {
		return nil, err
	}
	return &program.SwapResult{
		TokenIn:    m.Mint,
		AmountIn:   amount,
		TokenOut:   program.SOL,
		AmountOut:  solOut - fee,
		Fee:        fee,
		NewSwapSrc: reserves,
		NewSwapDst: m.BondingCurve.VirtualSolReserves - solOut,
	}, nil
}
