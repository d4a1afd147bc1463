package spltoken

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/program"
)

const (
	InstructionTransfer     = uint8(3)
	InstructionCloseAccount = uint8(9)
	InstructionSyncNative   = uint8(17)
)

// Program reads token accounts through an AccountReader. It is the balance
// oracle the router trusts instead of venue-reported amounts.
type Program struct {
	reader backend.AccountReader
	log    *zap.Logger
	id     solana.PublicKey
}

func NewProgram(reader backend.AccountReader, logger *zap.Logger) *Program {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Program{
		reader: reader,
		log:    logger,
		id:     program.Token,
	}
}

func (p *Program) Name() string {
	return "spl token"
}

func (p *Program) Id() solana.PublicKey {
	return p.id
}

func (p *Program) GetUser(key solana.PublicKey) (*KeyedUser, error) {
	account, err := p.reader.Account(key)
	if err != nil {
		return nil, err
	}
	user, err := p.parseUser(account)
	if err != nil {
		return nil, err
	}
	return &KeyedUser{Key: key, Height: account.Height, UserLayout: user}, nil
}

func (p *Program) GetUsers(keys []solana.PublicKey) ([]*KeyedUser, error) {
	accounts, err := p.reader.Accounts(keys)
	if err != nil {
		return nil, err
	}
	users := make([]*KeyedUser, 0, len(accounts))
	for _, account := range accounts {
		user, err := p.parseUser(account)
		if err != nil {
			return nil, err
		}
		users = append(users, &KeyedUser{Key: account.PubKey, Height: account.Height, UserLayout: user})
	}
	return users, nil
}

// GetBalance returns the token amount held by key. A missing or non-token
// account is an error.
func (p *Program) GetBalance(key solana.PublicKey) (uint64, error) {
	user, err := p.GetUser(key)
	if err != nil {
		return 0, err
	}
	return user.Amount, nil
}

// Exists reports whether key is a live account. Venues may close accounts
// mid-route, so callers check this before reading a balance they only want
// when present.
func (p *Program) Exists(key solana.PublicKey) (bool, error) {
	account, err := p.reader.Account(key)
	if err != nil {
		return false, err
	}
	return account.Exists(), nil
}

// OwnedBy returns the keys that are token accounts owned by owner. Keys that
// are missing or hold anything but a token account are skipped.
func (p *Program) OwnedBy(keys []solana.PublicKey, owner solana.PublicKey) ([]solana.PublicKey, error) {
	accounts, err := p.reader.Accounts(keys)
	if err != nil {
		return nil, err
	}
	var owned []solana.PublicKey
	for _, account := range accounts {
		user, err := p.parseUser(account)
		if err != nil {
			continue
		}
		if user.Owner == owner {
			owned = append(owned, account.PubKey)
		}
	}
	return owned, nil
}

func (p *Program) GetToken(key solana.PublicKey) (*KeyedToken, error) {
	account, err := p.reader.Account(key)
	if err != nil {
		return nil, err
	}
	token, err := p.parseToken(account)
	if err != nil {
		return nil, err
	}
	return &KeyedToken{Key: key, Height: account.Height, TokenLayout: token}, nil
}

// AmountUi scales a raw amount by the mint's decimals.
func (p *Program) AmountUi(mint solana.PublicKey, amount uint64) (decimal.Decimal, error) {
	token, err := p.GetToken(mint)
	if err != nil {
		return decimal.Zero, err
	}
	return AmountUi(amount, token.Decimals), nil
}

func AmountUi(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}

func (p *Program) parseUser(account *backend.Account) (UserLayout, error) {
	user := UserLayout{}
	if account.Account == nil {
		return user, errcode.ErrInvalidAccountData.Wrapf("account(%s) is missing", account.PubKey)
	}
	if account.Account.Owner != p.id {
		return user, errcode.ErrInvalidAccountData.Wrapf("account(%s) is not spl token program account, expected: %s, actual: %s", account.PubKey, p.id, account.Account.Owner)
	}
	userData := backend.Data(account.Account)
	if len(userData) != TokenLayoutSize {
		return user, errcode.ErrInvalidAccountData.Wrapf("spl token account(%s) data size is not valid, expected: %d, actual: %d", account.PubKey, TokenLayoutSize, len(userData))
	}
	if err := binary.Read(bytes.NewReader(userData), binary.LittleEndian, &user); err != nil {
		return user, errcode.ErrInvalidAccountData.Wrapf("spl token account(%s) data is not valid, err: %s", account.PubKey, err)
	}
	return user, nil
}

func (p *Program) parseToken(account *backend.Account) (TokenLayout, error) {
	token := TokenLayout{}
	if account.Account == nil {
		return token, errcode.ErrInvalidAccountData.Wrapf("mint(%s) is missing", account.PubKey)
	}
	if account.Account.Owner != p.id {
		return token, errcode.ErrInvalidAccountData.Wrapf("account(%s) is not spl token program account", account.PubKey)
	}
	tokenData := backend.Data(account.Account)
	if len(tokenData) != MintLayoutSize {
		return token, errcode.ErrInvalidAccountData.Wrapf("mint(%s) data size is not valid", account.PubKey)
	}
	if err := binary.Read(bytes.NewReader(tokenData), binary.LittleEndian, &token); err != nil {
		return token, errcode.ErrInvalidAccountData.Wrapf("mint(%s) data is not valid, err: %s", account.PubKey, err)
	}
	return token, nil
}

func (p *Program) InstructionTransfer(source, destination, authority solana.PublicKey, amount uint64) solana.Instruction {
	return NewTransfer(source, destination, authority, amount)
}

// NewTransfer builds a token transfer without a reader, for venue processors
// that move funds through a nested invoke.
func NewTransfer(source, destination, authority solana.PublicKey, amount uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = InstructionTransfer
	binary.LittleEndian.PutUint64(data[1:], amount)
	return program.NewInstruction(program.Token, data,
		program.Writable(source),
		program.Writable(destination),
		program.Signer(authority),
	)
}

func (p *Program) InstructionCloseAccount(account, destination, owner solana.PublicKey) solana.Instruction {
	return program.NewInstruction(p.id, []byte{InstructionCloseAccount},
		program.Writable(account),
		program.Writable(destination),
		program.Signer(owner),
	)
}

func (p *Program) InstructionSyncNative(account solana.PublicKey) solana.Instruction {
	return program.NewInstruction(p.id, []byte{InstructionSyncNative},
		program.Writable(account),
	)
}

// DecodeTransfer unpacks a transfer instruction into source, destination and amount.
func DecodeTransfer(instruction solana.Instruction) (solana.PublicKey, solana.PublicKey, uint64, error) {
	data, err := instruction.Data()
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, 0, err
	}
	if len(data) != 9 || data[0] != InstructionTransfer {
		return solana.PublicKey{}, solana.PublicKey{}, 0, fmt.Errorf("is not transfer")
	}
	accounts := instruction.Accounts()
	if len(accounts) < 3 {
		return solana.PublicKey{}, solana.PublicKey{}, 0, fmt.Errorf("transfer needs 3 accounts, got %d", len(accounts))
	}
	return accounts[0].PublicKey, accounts[1].PublicKey, binary.LittleEndian.Uint64(data[1:]), nil
}
