package program

import (
	"github.com/gagliardetto/solana-go"
)

// SwapResult is a venue curve quote: what goes in, what comes out and the
// reserves left behind.
type SwapResult struct {
	TokenIn    solana.PublicKey
	AmountIn   uint64
	TokenOut   solana.PublicKey
	AmountOut  uint64
	Fee        uint64
	NewSwapSrc uint64
	NewSwapDst uint64
}
