package spltoken

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/program"
)

// Processor executes token program instructions on a backend.Ledger.
type Processor struct {
	log *zap.Logger
}

func NewProcessor(logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{log: logger}
}

func (p *Processor) Process(tx *backend.Tx, instruction solana.Instruction) error {
	data, err := instruction.Data()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("token instruction data is empty")
	}
	accounts := instruction.Accounts()
	switch data[0] {
	case InstructionTransfer:
		if len(data) != 9 || len(accounts) < 3 {
			return fmt.Errorf("transfer instruction is malformed")
		}
		return p.transfer(tx, accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey, binary.LittleEndian.Uint64(data[1:]))
	case InstructionCloseAccount:
		if len(accounts) < 3 {
			return fmt.Errorf("close account instruction is malformed")
		}
		return p.closeAccount(tx, accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey)
	case InstructionSyncNative:
		if len(accounts) < 1 {
			return fmt.Errorf("sync native instruction is malformed")
		}
		return p.syncNative(tx, accounts[0].PublicKey)
	default:
		return fmt.Errorf("token instruction %d is not supported", data[0])
	}
}

func (p *Processor) transfer(tx *backend.Tx, source, destination, authority solana.PublicKey, amount uint64) error {
	srcAccount, src, err := loadUser(tx, source)
	if err != nil {
		return err
	}
	dstAccount, dst, err := loadUser(tx, destination)
	if err != nil {
		return err
	}
	if src.State == AccountStateFrozen || dst.State == AccountStateFrozen {
		return fmt.Errorf("account is frozen")
	}
	if src.Mint != dst.Mint {
		return fmt.Errorf("mint mismatch, %s -> %s", src.Mint, dst.Mint)
	}
	if src.Owner != authority {
		return fmt.Errorf("owner does not match, account(%s) owner %s, authority %s", source, src.Owner, authority)
	}
	if !tx.IsSigner(authority) {
		return fmt.Errorf("missing required signature for %s", authority)
	}
	if src.Amount < amount {
		return fmt.Errorf("insufficient funds in %s, balance %d, amount %d", source, src.Amount, amount)
	}
	if source == destination {
		return nil
	}
	src.Amount -= amount
	dst.Amount += amount
	if src.Native() {
		srcAccount.Lamports -= amount
		dstAccount.Lamports += amount
	}
	backend.SetData(srcAccount, src.Encode())
	backend.SetData(dstAccount, dst.Encode())
	p.log.Debug("transfer", zap.Stringer("source", source), zap.Stringer("destination", destination), zap.Uint64("amount", amount))
	return nil
}

func (p *Processor) closeAccount(tx *backend.Tx, account, destination, owner solana.PublicKey) error {
	acc, user, err := loadUser(tx, account)
	if err != nil {
		return err
	}
	if user.Owner != owner || !tx.IsSigner(owner) {
		return fmt.Errorf("close of %s is not authorized by %s", account, owner)
	}
	if !user.Native() && user.Amount != 0 {
		return fmt.Errorf("non-native account %s has balance %d", account, user.Amount)
	}
	dst := tx.Account(destination)
	if dst == nil {
		dst = backend.NewRpcAccount(0, program.System, nil)
		tx.SetAccount(destination, dst)
	}
	dst.Lamports += acc.Lamports
	tx.DeleteAccount(account)
	return nil
}

func (p *Processor) syncNative(tx *backend.Tx, account solana.PublicKey) error {
	acc, user, err := loadUser(tx, account)
	if err != nil {
		return err
	}
	if !user.Native() {
		return fmt.Errorf("account %s is not native", account)
	}
	if acc.Lamports < user.IsNative {
		return fmt.Errorf("account %s lamports below rent reserve", account)
	}
	user.Amount = acc.Lamports - user.IsNative
	backend.SetData(acc, user.Encode())
	return nil
}

func loadUser(tx *backend.Tx, key solana.PublicKey) (*rpc.Account, *UserLayout, error) {
	account := tx.Account(key)
	if account == nil {
		return nil, nil, fmt.Errorf("token account %s does not exist", key)
	}
	if account.Owner != program.Token {
		return nil, nil, fmt.Errorf("account %s is not owned by the token program", key)
	}
	data := backend.Data(account)
	if len(data) != TokenLayoutSize {
		return nil, nil, fmt.Errorf("token account %s data size %d", key, len(data))
	}
	user := &UserLayout{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, user); err != nil {
		return nil, nil, err
	}
	return account, user, nil
}

// LoadUser is the processor-side view of a token account, for venue processors.
func LoadUser(tx *backend.Tx, key solana.PublicKey) (*UserLayout, error) {
	_, user, err := loadUser(tx, key)
	return user, err
}
