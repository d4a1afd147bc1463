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

const InstructionSwap = uint8(1)

type Program struct {
	reader backend.AccountReader
	token  *spltoken.Program
	log    *zap.Logger
}

func NewProgram(reader backend.AccountReader, logger *zap.Logger) *Program {
	return &Program{
		reader: reader,
		token:  spltoken.NewProgram(reader, logger),
		log:    utils.OrNop(logger),
	}
}

func (p *Program) Name() string {
	return "saber"
}

func (p *Program) Id() solana.PublicKey {
	return program.Saber
}

func (p *Program) parseAccount(account *backend.Account) (*StableSwapLayout, error) {
	if account.Account == nil {
		return nil, fmt.Errorf("saber account(%s) does not exist", account.PubKey)
	}
	if account.Account.Owner != program.Saber {
		return nil, fmt.Errorf("account(%s) is not saber program account, expected: %s, actual: %s", account.PubKey, program.Saber, account.Account.Owner)
	}
	accountData := backend.Data(account.Account)
	if len(accountData) != StableSwapLayoutSize {
		return nil, fmt.Errorf("saber account(%s) data size is not valid, expected: %d, actual: %d", account.PubKey, StableSwapLayoutSize, len(accountData))
	}
	swap, err := decodeStableSwap(accountData)
	if err != nil {
		return nil, fmt.Errorf("saber account(%s) data is not valid, err: %s", account.PubKey, err)
	}
	return swap, nil
}

func (p *Program) GetSwap(key solana.PublicKey) (*KeyedStableSwap, error) {
	account, err := p.reader.Account(key)
	if err != nil {
		return nil, err
	}
	swap, err := p.parseAccount(account)
	if err != nil {
		return nil, err
	}
	return &KeyedStableSwap{Key: key, Height: account.Height, StableSwapLayout: *swap}, nil
}

func (p *Program) GetModel(key solana.PublicKey) (*Model, error) {
	swap, err := p.GetSwap(key)
	if err != nil {
		return nil, err
	}
	users, err := p.token.GetUsers([]solana.PublicKey{swap.SwapA, swap.SwapB})
	if err != nil {
		return nil, err
	}
	return &Model{StableSwap: &swap.StableSwapLayout, ReserveA: users[0].Amount, ReserveB: users[1].Amount}, nil
}

func (p *Program) Quote(pool, token solana.PublicKey, amount uint64) (*program.SwapResult, error) {
	model, err := p.GetModel(pool)
	if err != nil {
		return nil, err
	}
	return model.Swap(token, amount)
}

func NewSwapInstruction(swap, swapAuthority, userAuthority, userSource, poolSource, poolDestination, userDestination, adminFeeDestination solana.PublicKey, amountIn, minimumAmountOut uint64) solana.Instruction {
	data := make([]byte, 17)
	data[0] = InstructionSwap
	binary.LittleEndian.PutUint64(data[1:], amountIn)
	binary.LittleEndian.PutUint64(data[9:], minimumAmountOut)
	return program.NewInstruction(program.Saber, data,
		program.Readonly(swap),
		program.Readonly(swapAuthority),
		program.Signer(userAuthority),
		program.Writable(userSource),
		program.Writable(poolSource),
		program.Writable(poolDestination),
		program.Writable(userDestination),
		program.Writable(adminFeeDestination),
		program.Readonly(program.Token),
		program.Readonly(program.SysClock),
	)
}
