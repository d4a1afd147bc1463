package tokenswap

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

// Program reads token-swap pools of one program id (the SPL token-swap
// program or one of its forks) and quotes against them.
type Program struct {
	reader backend.AccountReader
	token  *spltoken.Program
	log    *zap.Logger
	id     solana.PublicKey
}

func NewProgram(id solana.PublicKey, reader backend.AccountReader, logger *zap.Logger) *Program {
	return &Program{
		reader: reader,
		token:  spltoken.NewProgram(reader, logger),
		log:    utils.OrNop(logger),
		id:     id,
	}
}

func (p *Program) Name() string {
	return "tokenswap"
}

func (p *Program) Id() solana.PublicKey {
	return p.id
}

func (p *Program) parseAccount(account *backend.Account) (*SwapLayout, error) {
	if account.Account == nil {
		return nil, fmt.Errorf("tokenswap account(%s) does not exist", account.PubKey)
	}
	if account.Account.Owner != p.id {
		return nil, fmt.Errorf("account(%s) is not tokenswap program account, expected: %s, actual: %s", account.PubKey, p.id, account.Account.Owner)
	}
	accountData := backend.Data(account.Account)
	if len(accountData) != SwapLayoutSize {
		return nil, fmt.Errorf("tokenswap account(%s) data size is not valid, expected: %d, actual: %d", account.PubKey, SwapLayoutSize, len(accountData))
	}
	swap, err := decodeSwap(accountData)
	if err != nil {
		return nil, fmt.Errorf("tokenswap account(%s) data is not valid, err: %s", account.PubKey, err)
	}
	return swap, nil
}

func (p *Program) GetSwap(key solana.PublicKey) (*KeyedSwap, error) {
	account, err := p.reader.Account(key)
	if err != nil {
		return nil, err
	}
	swap, err := p.parseAccount(account)
	if err != nil {
		return nil, err
	}
	return &KeyedSwap{Key: key, Height: account.Height, SwapLayout: *swap}, nil
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
	return &Model{TokenSwap: &swap.SwapLayout, ReserveA: users[0].Amount, ReserveB: users[1].Amount}, nil
}

// Quote prices amount of token against the pool's current reserves.
func (p *Program) Quote(pool, token solana.PublicKey, amount uint64) (*program.SwapResult, error) {
	model, err := p.GetModel(pool)
	if err != nil {
		return nil, err
	}
	return model.Swap(token, amount)
}

// NewSwapInstruction builds the token-swap swap instruction. Account order
// follows the on-chain program.
func NewSwapInstruction(programID, swap, swapAuthority, userAuthority, userSource, poolSource, poolDestination, userDestination, poolMint, poolFee solana.PublicKey, amountIn, minimumAmountOut uint64) solana.Instruction {
	data := make([]byte, 17)
	data[0] = InstructionSwap
	binary.LittleEndian.PutUint64(data[1:], amountIn)
	binary.LittleEndian.PutUint64(data[9:], minimumAmountOut)
	return program.NewInstruction(programID, data,
		program.Readonly(swap),
		program.Readonly(swapAuthority),
		program.Signer(userAuthority),
		program.Writable(userSource),
		program.Writable(poolSource),
		program.Writable(poolDestination),
		program.Writable(userDestination),
		program.Writable(poolMint),
		program.Writable(poolFee),
		program.Readonly(program.Token),
	)
}
