package tokenswap

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/utils"
)

// Processor simulates the token-swap program on a backend.Ledger.
type Processor struct {
	id  solana.PublicKey
	log *zap.Logger
}

func NewProcessor(id solana.PublicKey, logger *zap.Logger) *Processor {
	return &Processor{id: id, log: utils.OrNop(logger)}
}

func (p *Processor) Process(tx *backend.Tx, instruction solana.Instruction) error {
	data, err := instruction.Data()
	if err != nil {
		return err
	}
	if len(data) != 17 || data[0] != InstructionSwap {
		return fmt.Errorf("tokenswap instruction is not supported")
	}
	accounts := instruction.Accounts()
	if len(accounts) < 10 {
		return fmt.Errorf("tokenswap swap needs 10 accounts, got %d", len(accounts))
	}
	return p.swap(tx,
		accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey,
		accounts[3].PublicKey, accounts[4].PublicKey, accounts[5].PublicKey, accounts[6].PublicKey,
		binary.LittleEndian.Uint64(data[1:]), binary.LittleEndian.Uint64(data[9:]),
	)
}

func (p *Processor) swap(tx *backend.Tx, swapKey, swapAuthority, userAuthority, userSource, poolSource, poolDestination, userDestination solana.PublicKey, amountIn, minimumAmountOut uint64) error {
	account := tx.Account(swapKey)
	if account == nil || account.Owner != p.id {
		return fmt.Errorf("swap %s is not owned by %s", swapKey, p.id)
	}
	swap, err := decodeSwap(backend.Data(account))
	if err != nil {
		return err
	}
	if swap.IsInitialized == 0 {
		return fmt.Errorf("swap %s is not initialized", swapKey)
	}
	authority, err := solana.CreateProgramAddress([][]byte{swapKey.Bytes(), {uint8(swap.BumpSeed)}}, p.id)
	if err != nil {
		return err
	}
	if authority != swapAuthority {
		return fmt.Errorf("invalid swap authority %s", swapAuthority)
	}
	var token solana.PublicKey
	switch {
	case poolSource == swap.SwapA && poolDestination == swap.SwapB:
		token = swap.TokenA
	case poolSource == swap.SwapB && poolDestination == swap.SwapA:
		token = swap.TokenB
	default:
		return fmt.Errorf("pool accounts %s -> %s do not belong to swap %s", poolSource, poolDestination, swapKey)
	}
	reserveA, err := spltoken.LoadUser(tx, swap.SwapA)
	if err != nil {
		return err
	}
	reserveB, err := spltoken.LoadUser(tx, swap.SwapB)
	if err != nil {
		return err
	}
	model := &Model{TokenSwap: swap, ReserveA: reserveA.Amount, ReserveB: reserveB.Amount}
	sr, err := model.Swap(token, amountIn)
	if err != nil {
		return err
	}
	if sr.AmountOut == 0 {
		return fmt.Errorf("zero trading tokens")
	}
	if sr.AmountOut < minimumAmountOut {
		return fmt.Errorf("exceeds desired slippage limit, %d < %d", sr.AmountOut, minimumAmountOut)
	}
	if err := tx.Invoke(spltoken.NewTransfer(userSource, poolSource, userAuthority, amountIn)); err != nil {
		return err
	}
	if err := tx.Invoke(spltoken.NewTransfer(poolDestination, userDestination, swapAuthority, sr.AmountOut), swapAuthority); err != nil {
		return err
	}
	p.log.Debug("tokenswap swap",
		zap.Stringer("swap", swapKey),
		zap.Uint64("amount_in", amountIn),
		zap.Uint64("amount_out", sr.AmountOut),
		zap.Uint64("fee", sr.Fee),
	)
	return nil
}
