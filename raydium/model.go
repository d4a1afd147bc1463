package raydium

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/egaotan/solana-router/program"
)

type Model struct {
	AmmInfo   *AmmInfoLayout
	CoinVault uint64
	PcVault   uint64
}

func (m *Model) TokenPair() []solana.PublicKey {
	return []solana.PublicKey{m.AmmInfo.CoinMint, m.AmmInfo.PcMint}
}

func (m *Model) PoolPair() []solana.PublicKey {
	return []solana.PublicKey{m.AmmInfo.TokenCoin, m.AmmInfo.TokenPc}
}

// Swap prices a constant product trade; the swap fee is taken from the input.
func (m *Model) Swap(token solana.PublicKey, amount uint64) (*program.SwapResult, error) {
	if !m.AmmInfo.Swappable() {
		return nil, fmt.Errorf("amm status %d does not allow swap", m.AmmInfo.Status)
	}
	mintSrc, _, mintDst, _, err := m.getSwapAccounts(token)
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut := m.CoinVault, m.PcVault
	if mintSrc == m.AmmInfo.PcMint {
		reserveIn, reserveOut = m.PcVault, m.CoinVault
	}
	fees := m.AmmInfo.Fees
	if fees.SwapFeeDenominator == 0 || fees.SwapFeeNumerator > fees.SwapFeeDenominator {
		return nil, fmt.Errorf("amm swap fee %d/%d is not valid", fees.SwapFeeNumerator, fees.SwapFeeDenominator)
	}
	fee := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(fees.SwapFeeNumerator))
	fee.Div(fee, uint256.NewInt(fees.SwapFeeDenominator))
	in := new(uint256.Int).Sub(uint256.NewInt(amount), fee)
	numerator := new(uint256.Int).Mul(in, uint256.NewInt(reserveOut))
	denominator := new(uint256.Int).Add(uint256.NewInt(reserveIn), in)
	if denominator.IsZero() {
		return nil, fmt.Errorf("amm reserves are empty")
	}
	out := numerator.Div(numerator, denominator).Uint64()
	return &program.SwapResult{
		TokenIn:    mintSrc,
		AmountIn:   amount,
		TokenOut:   mintDst,
		AmountOut:  out,
		Fee:        fee.Uint64(),
		NewSwapSrc: reserveIn + amount,
		NewSwapDst: reserveOut - out,
	}, nil
}

func (m *Model) getSwapAccounts(token solana.PublicKey) (solana.PublicKey, solana.PublicKey, solana.PublicKey, solana.PublicKey, error) {
	if token != m.AmmInfo.CoinMint && token != m.AmmInfo.PcMint {
		return solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("token is not the swap token pair - (%s)", token)
	}
	// src and dst
	mintSrc := m.AmmInfo.CoinMint
	tokenSrc := m.AmmInfo.TokenCoin
	mintDst := m.AmmInfo.PcMint
	tokenDst := m.AmmInfo.TokenPc
	if token == mintDst {
		mintSrc = m.AmmInfo.PcMint
		tokenSrc = m.AmmInfo.TokenPc
		mintDst = m.AmmInfo.CoinMint
		tokenDst = m.AmmInfo.TokenCoin
	}
	return mintSrc, tokenSrc, mintDst, tokenDst, nil
}
