package system

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/program"
)

const InstructionTransfer = uint32(2)

type Program struct {
	log *zap.Logger
	id  solana.PublicKey
}

func NewProgram(logger *zap.Logger) *Program {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Program{
		log: logger,
		id:  program.System,
	}
}

func (p *Program) Name() string {
	return "system"
}

func (p *Program) Id() solana.PublicKey {
	return p.id
}

func (p *Program) InstructionTransfer(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	return NewTransfer(from, to, lamports)
}

// NewTransfer builds a lamport transfer signed by from.
func NewTransfer(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:], InstructionTransfer)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	return program.NewInstruction(program.System, data,
		&solana.AccountMeta{PublicKey: from, IsSigner: true, IsWritable: true},
		program.Writable(to),
	)
}

// Lamports reads the native balance of key; a missing account holds zero.
func Lamports(reader backend.AccountReader, key solana.PublicKey) (uint64, error) {
	account, err := reader.Account(key)
	if err != nil {
		return 0, err
	}
	if account.Account == nil {
		return 0, nil
	}
	return account.Account.Lamports, nil
}

// Process executes system instructions on a backend.Ledger.
func (p *Program) Process(tx *backend.Tx, instruction solana.Instruction) error {
	data, err := instruction.Data()
	if err != nil {
		return err
	}
	if len(data) < 4 {
		return fmt.Errorf("system instruction data is too short")
	}
	switch command := binary.LittleEndian.Uint32(data); command {
	case InstructionTransfer:
		accounts := instruction.Accounts()
		if len(data) != 12 || len(accounts) < 2 {
			return fmt.Errorf("transfer instruction is malformed")
		}
		return p.transfer(tx, accounts[0].PublicKey, accounts[1].PublicKey, binary.LittleEndian.Uint64(data[4:]))
	default:
		return fmt.Errorf("system instruction %d is not supported", command)
	}
}

func (p *Program) transfer(tx *backend.Tx, from, to solana.PublicKey, lamports uint64) error {
	if !tx.IsSigner(from) {
		return fmt.Errorf("missing required signature for %s", from)
	}
	src := tx.Account(from)
	if src == nil || src.Lamports < lamports {
		return fmt.Errorf("insufficient lamports in %s for %d", from, lamports)
	}
	if len(backend.Data(src)) != 0 {
		return fmt.Errorf("transfer from %s must not carry data", from)
	}
	dst := tx.Account(to)
	if dst == nil {
		dst = backend.NewRpcAccount(0, program.System, nil)
		tx.SetAccount(to, dst)
	}
	src.Lamports -= lamports
	dst.Lamports += lamports
	p.log.Debug("transfer lamports", zap.Stringer("from", from), zap.Stringer("to", to), zap.Uint64("lamports", lamports))
	return nil
}

// CreateWallet seeds a system account holding lamports.
func CreateWallet(l *backend.Ledger, key solana.PublicKey, lamports uint64) {
	l.SetAccount(key, backend.NewRpcAccount(lamports, program.System, nil))
}
