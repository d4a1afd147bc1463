package pumpfun

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/utils"
)

// Processor simulates bonding curve sells on a backend.Ledger.
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
	if len(data) != 24 || !bytes.Equal(data[:8], SellSelector[:]) {
		return fmt.Errorf("pumpfun instruction is not supported")
	}
	accounts := instruction.Accounts()
	if len(accounts) < 9 {
		return fmt.Errorf("pumpfun sell needs 9 accounts, got %d", len(accounts))
	}
	keys := make([]solana.PublicKey, 7)
	for i := range keys {
		keys[i] = accounts[i].PublicKey
	}
	return p.sell(tx, keys, binary.LittleEndian.Uint64(data[8:]), binary.LittleEndian.Uint64(data[16:]))
}

func load(tx *backend.Tx, key solana.PublicKey, size int) (*rpc.Account, []byte, error) {
	account := tx.Account(key)
	if account == nil || account.Owner != program.Pumpfun {
		return nil, nil, fmt.Errorf("account %s is not owned by %s", key, program.Pumpfun)
	}
	data := backend.Data(account)
	if len(data) != size {
		return nil, nil, fmt.Errorf("account %s data size %d", key, len(data))
	}
	return account, data, nil
}

func (p *Processor) sell(tx *backend.Tx, keys []solana.PublicKey, amount, minSolOutput uint64) error {
	globalKey, feeRecipient, mint, curveKey := keys[0], keys[1], keys[2], keys[3]
	associatedBondingCurve, user, userAuthority := keys[4], keys[5], keys[6]

	_, data, err := load(tx, globalKey, GlobalLayoutSize)
	if err != nil {
		return err
	}
	global, err := decodeGlobal(data)
	if err != nil {
		return err
	}
	if global.FeeRecipient != feeRecipient {
		return fmt.Errorf("invalid fee recipient %s", feeRecipient)
	}
	curveAccount, data, err := load(tx, curveKey, BondingCurveLayoutSize)
	if err != nil {
		return err
	}
	curve, err := decodeBondingCurve(data)
	if err != nil {
		return err
	}
	vault, err := spltoken.LoadUser(tx, associatedBondingCurve)
	if err != nil {
		return err
	}
	if vault.Owner != curveKey || vault.Mint != mint {
		return fmt.Errorf("associated bonding curve %s does not belong to %s", associatedBondingCurve, curveKey)
	}
	model := &Model{Mint: mint, Global: global, BondingCurve: curve}
	sr, err := model.Sell(amount)
	if err != nil {
		return err
	}
	if sr.AmountOut < minSolOutput {
		return fmt.Errorf("too little sol received, %d < %d", sr.AmountOut, minSolOutput)
	}
	if err := tx.Invoke(spltoken.NewTransfer(user, associatedBondingCurve, userAuthority, amount)); err != nil {
		return err
	}
	solOut := sr.AmountOut + sr.Fee
	if curveAccount.Lamports < solOut {
		return fmt.Errorf("bonding curve %s lamports below %d", curveKey, solOut)
	}
	curveAccount.Lamports -= solOut
	credit(tx, userAuthority, sr.AmountOut)
	credit(tx, feeRecipient, sr.Fee)

	curve.VirtualTokenReserves = sr.NewSwapSrc
	curve.VirtualSolReserves = sr.NewSwapDst
	curve.RealTokenReserves += amount
	curve.RealSolReserves -= solOut
	backend.SetData(curveAccount, curve.Encode())
	p.log.Debug("pumpfun sell",
		zap.Stringer("bonding_curve", curveKey),
		zap.Uint64("amount_in", amount),
		zap.Uint64("sol_out", sr.AmountOut),
		zap.Uint64("fee", sr.Fee),
	)
	return nil
}

func credit(tx *backend.Tx, key solana.PublicKey, lamports uint64) {
	if lamports == 0 {
		return
	}
	account := tx.Account(key)
	if account == nil {
		account = backend.NewRpcAccount(0, program.System, nil)
		tx.SetAccount(key, account)
	}
	account.Lamports += lamports
}
