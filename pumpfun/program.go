package pumpfun

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/utils"
)

var SellSelector = [8]byte{51, 230, 133, 164, 1, 127, 131, 173}

type Program struct {
	reader backend.AccountReader
	log    *zap.Logger
}

func NewProgram(reader backend.AccountReader, logger *zap.Logger) *Program {
	return &Program{reader: reader, log: utils.OrNop(logger)}
}

func (p *Program) Name() string {
	return "pumpfun"
}

func (p *Program) Id() solana.PublicKey {
	return program.Pumpfun
}

func (p *Program) data(key solana.PublicKey, size int) ([]byte, error) {
	account, err := p.reader.Account(key)
	if err != nil {
		return nil, err
	}
	if account.Account == nil {
		return nil, fmt.Errorf("pumpfun account(%s) does not exist", key)
	}
	if account.Account.Owner != program.Pumpfun {
		return nil, fmt.Errorf("account(%s) is not pumpfun program account, actual: %s", key, account.Account.Owner)
	}
	data := backend.Data(account.Account)
	if len(data) != size {
		return nil, fmt.Errorf("pumpfun account(%s) data size is not valid, expected: %d, actual: %d", key, size, len(data))
	}
	return data, nil
}

func (p *Program) GetModel(global, mint, bondingCurve solana.PublicKey) (*Model, error) {
	data, err := p.data(global, GlobalLayoutSize)
	if err != nil {
		return nil, err
	}
	g, err := decodeGlobal(data)
	if err != nil {
		return nil, err
	}
	data, err = p.data(bondingCurve, BondingCurveLayoutSize)
	if err != nil {
		return nil, err
	}
	curve, err := decodeBondingCurve(data)
	if err != nil {
		return nil, err
	}
	return &Model{Mint: mint, Global: g, BondingCurve: curve}, nil
}

func (p *Program) Quote(global, mint, bondingCurve solana.PublicKey, amount uint64) (*program.SwapResult, error) {
	model, err := p.GetModel(global, mint, bondingCurve)
	if err != nil {
		return nil, err
	}
	return model.Sell(amount)
}

// NewSellInstruction sells amount tokens from user into the bonding curve;
// lamports are paid to userAuthority.
func NewSellInstruction(global, feeRecipient, mint, bondingCurve, associatedBondingCurve, user, userAuthority solana.PublicKey, amount, minSolOutput uint64) solana.Instruction {
	data := make([]byte, 24)
	copy(data, SellSelector[:])
	binary.LittleEndian.PutUint64(data[8:], amount)
	binary.LittleEndian.PutUint64(data[16:], minSolOutput)
	return program.NewInstruction(program.Pumpfun, data,
		program.Readonly(global),
		program.Writable(feeRecipient),
		program.Readonly(mint),
		program.Writable(bondingCurve),
		program.Writable(associatedBondingCurve),
		program.Writable(user),
		&solana.AccountMeta{PublicKey: userAuthority, IsSigner: true, IsWritable: true},
		program.Readonly(program.System),
		program.Readonly(program.Token),
	)
}
