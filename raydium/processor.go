package raydium

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

// Processor simulates the amm swap on a backend.Ledger.
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
	if len(data) != 17 || data[0] != InstructionSwapBaseIn {
		return fmt.Errorf("raydium instruction is not supported")
	}
	accounts := instruction.Accounts()
	if len(accounts) < 9 {
		return fmt.Errorf("raydium swap needs 9 accounts, got %d", len(accounts))
	}
	keys := make([]solana.PublicKey, 9)
	for i := range keys {
		keys[i] = accounts[i].PublicKey
	}
	return p.swap(tx, keys, binary.LittleEndian.Uint64(data[1:]), binary.LittleEndian.Uint64(data[9:]))
}

func (p *Processor) swap(tx *backend.Tx, keys []solana.PublicKey, amountIn, minimumAmountOut uint64) error {
	ammKey, ammAuthority, openOrders := keys[1], keys[2], keys[3]
	poolCoin, poolPc, userSource, userDestination, userOwner := keys[4], keys[5], keys[6], keys[7], keys[8]

	account := tx.Account(ammKey)
	if account == nil || account.Owner != program.Raydium {
		return fmt.Errorf("amm %s is not owned by %s", ammKey, program.Raydium)
	}
	ammInfo := &AmmInfoLayout{}
	if err := ammInfo.unpack(backend.Data(account)); err != nil {
		return err
	}
	authority, err := solana.CreateProgramAddress([][]byte{ammKey.Bytes(), {uint8(ammInfo.Nonce)}}, program.Raydium)
	if err != nil {
		return err
	}
	if authority != ammAuthority {
		return fmt.Errorf("invalid amm authority %s", ammAuthority)
	}
	if openOrders != ammInfo.OpenOrders || poolCoin != ammInfo.TokenCoin || poolPc != ammInfo.TokenPc {
		return fmt.Errorf("amm accounts do not belong to amm %s", ammKey)
	}
	source, err := spltoken.LoadUser(tx, userSource)
	if err != nil {
		return err
	}
	coin, err := spltoken.LoadUser(tx, poolCoin)
	if err != nil {
		return err
	}
	pc, err := spltoken.LoadUser(tx, poolPc)
	if err != nil {
		return err
	}
	model := &Model{AmmInfo: ammInfo, CoinVault: coin.Amount, PcVault: pc.Amount}
	sr, err := model.Swap(source.Mint, amountIn)
	if err != nil {
		return err
	}
	if sr.AmountOut == 0 {
		return fmt.Errorf("amm swap out is zero")
	}
	if sr.AmountOut < minimumAmountOut {
		return fmt.Errorf("exceeds desired slippage limit, %d < %d", sr.AmountOut, minimumAmountOut)
	}
	vaultIn, vaultOut := poolCoin, poolPc
	if source.Mint == ammInfo.PcMint {
		vaultIn, vaultOut = poolPc, poolCoin
	}
	if err := tx.Invoke(spltoken.NewTransfer(userSource, vaultIn, userOwner, amountIn)); err != nil {
		return err
	}
	if err := tx.Invoke(spltoken.NewTransfer(vaultOut, userDestination, ammAuthority, sr.AmountOut), ammAuthority); err != nil {
		return err
	}
	p.log.Debug("raydium swap",
		zap.Stringer("amm", ammKey),
		zap.Uint64("amount_in", amountIn),
		zap.Uint64("amount_out", sr.AmountOut),
		zap.Uint64("fee", sr.Fee),
	)
	return nil
}
