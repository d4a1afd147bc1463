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

// InstructionSwapBaseIn is the exact-input swap of the amm program.
const InstructionSwapBaseIn = uint8(9)

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
	return "raydium"
}

func (p *Program) Id() solana.PublicKey {
	return program.Raydium
}

func (p *Program) parseAccount(account *backend.Account) (*AmmInfoLayout, error) {
	if account.Account == nil {
		return nil, fmt.Errorf("raydium account(%s) does not exist", account.PubKey)
	}
	if account.Account.Owner != program.Raydium {
		return nil, fmt.Errorf("account(%s) is not raydium program account, expected: %s, actual: %s", account.PubKey, program.Raydium, account.Account.Owner)
	}
	accountData := backend.Data(account.Account)
	if len(accountData) != AmmInfoLayoutSize {
		return nil, fmt.Errorf("raydium account(%s) data size is not valid, expected: %d, actual: %d", account.PubKey, AmmInfoLayoutSize, len(accountData))
	}
	ammInfo := &AmmInfoLayout{}
	if err := ammInfo.unpack(accountData); err != nil {
		return nil, fmt.Errorf("raydium account(%s) data is not valid, err: %s", account.PubKey, err)
	}
	return ammInfo, nil
}

func (p *Program) GetAmmInfo(key solana.PublicKey) (*KeyedAmmInfo, error) {
	account, err := p.reader.Account(key)
	if err != nil {
		return nil, err
	}
	ammInfo, err := p.parseAccount(account)
	if err != nil {
		return nil, err
	}
	return &KeyedAmmInfo{AmmInfoLayout: *ammInfo, Height: account.Height, Key: key}, nil
}

func (p *Program) GetModel(key solana.PublicKey) (*Model, error) {
	ammInfo, err := p.GetAmmInfo(key)
	if err != nil {
		return nil, err
	}
	users, err := p.token.GetUsers([]solana.PublicKey{ammInfo.TokenCoin, ammInfo.TokenPc})
	if err != nil {
		return nil, err
	}
	return &Model{AmmInfo: &ammInfo.AmmInfoLayout, CoinVault: users[0].Amount, PcVault: users[1].Amount}, nil
}

func (p *Program) Quote(amm, token solana.PublicKey, amount uint64) (*program.SwapResult, error) {
	model, err := p.GetModel(amm)
	if err != nil {
		return nil, err
	}
	return model.Swap(token, amount)
}

func NewSwapInstruction(amm, ammAuthority, openOrders, poolCoin, poolPc, userSource, userDestination, userOwner solana.PublicKey, amountIn, minimumAmountOut uint64) solana.Instruction {
	data := make([]byte, 17)
	data[0] = InstructionSwapBaseIn
	binary.LittleEndian.PutUint64(data[1:], amountIn)
	binary.LittleEndian.PutUint64(data[9:], minimumAmountOut)
	return program.NewInstruction(program.Raydium, data,
		program.Readonly(program.Token),
		program.Writable(amm),
		program.Readonly(ammAuthority),
		program.Writable(openOrders),
		program.Writable(poolCoin),
		program.Writable(poolPc),
		program.Writable(userSource),
		program.Writable(userDestination),
		program.Signer(userOwner),
	)
}
