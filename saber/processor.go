package saber

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/utils"
)

// Processor simulates the stable swap program on a backend.Ledger.
type Processor struct {
	log *zap.Logger
}

func NewProcessor(logger *zap.Logger) *Processor {
	return &Processor{log: utils.OrNop(logger)}
}

func (p *Processor) Process(tx *backend.Tx, instruction solana.Instruction) error {
	data, err := instruction.Data()
	if err != nil {
		return err
	}
	if len(data) != 17 || data[0] != InstructionSwap {
		return fmt.Errorf("saber instruction is not supported")
	}
	accounts := instruction.Accounts()
	if len(accounts) < 10 {
		return fmt.Errorf("saber swap needs 10 accounts, got %d", len(accounts))
	}
	keys := make([]solana.PublicKey, 8)
	for i := range keys {
		keys[i] = accounts[i].PublicKey
	}
	return p.swap(tx, keys, binary.LittleEndian.Uint64(data[1:]), binary.LittleEndian.Uint64(data[9:]))
}

func (p *Processor) swap(tx *backend.Tx, keys []solana.PublicKey, amountIn, minimumAmountOut uint64) error {
	swapKey, swapAuthority, userAuthority := keys[0], keys[1], keys[2]
	userSource, poolSource, poolDestination, userDestination, adminFeeDestination := keys[3], keys[4], keys[5], keys[6], keys[7]

	account := tx.Account(swapKey)
	if account == nil || account.Owner != program.Saber {
		return fmt.Errorf("swap %s is not owned by %s", swapKey, program.Saber)
	}
	swap, err := decodeStableSwap(backend.Data(account))
	if err != nil {
		return err
	}
	if swap.IsInitialized == 0 {
		return fmt.Errorf("swap %s is not initialized", swapKey)
	}
	authority, err := solana.CreateProgramAddress([][]byte{swapKey.Bytes(), {uint8(swap.Nonce)}}, program.Saber)
	if err != nil {
		return err
	}
	if authority != swapAuthority {
		return fmt.Errorf("invalid swap authority %s", swapAuthority)
	}
	var token, adminFee solana.PublicKey
	switch {
	case poolSource == swap.SwapA && poolDestination == swap.SwapB:
		token, adminFee = swap.TokenA, swap.AdminFeeKeyB
	case poolSource == swap.SwapB && poolDestination == swap.SwapA:
		token, adminFee = swap.TokenB, swap.AdminFeeKeyA
	default:
		return fmt.Errorf("pool accounts %s -> %s do not belong to swap %s", poolSource, poolDestination, swapKey)
	}
	if adminFee != adminFeeDestination {
		return fmt.Errorf("invalid admin fee account %s", adminFeeDestination)
	}
	reserveA, err := spltoken.LoadUser(tx, swap.SwapA)
	if err != nil {
		return err
	}
	reserveB, err := spltoken.LoadUser(tx, swap.SwapB)
	if err != nil {
		return err
	}
	model := &Model{StableSwap: swap, ReserveA: reserveA.Amount, ReserveB: reserveB.Amount}
	sr, err := model.Swap(token, amountIn)
	if err != nil {
		return err
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
	adminFeeAmount := model.AdminFee(sr.Fee)
	if adminFeeAmount > 0 {
		if err := tx.Invoke(spltoken.NewTransfer(poolDestination, adminFeeDestination, swapAuthority, adminFeeAmount), swapAuthority); err != nil {
			return err
		}
	}
	p.log.Debug("saber swap",
		zap.Stringer("swap", swapKey),
		zap.Uint64("amount_in", amountIn),
		zap.Uint64("amount_out", sr.AmountOut),
		zap.Uint64("fee", sr.Fee),
		zap.Uint64("admin_fee", adminFeeAmount),
	)
	return nil
}
