package backend

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const maxInvokeDepth = 4

// Processor executes the instructions addressed to one program id.
type Processor interface {
	Process(tx *Tx, instruction solana.Instruction) error
}

type ProcessorFunc func(tx *Tx, instruction solana.Instruction) error

func (f ProcessorFunc) Process(tx *Tx, instruction solana.Instruction) error {
	return f(tx, instruction)
}

// Ledger is an in-memory host ledger. Invoke is all-or-nothing and Atomic
// extends that guarantee over a sequence of reads and invocations.
type Ledger struct {
	logger     *zap.Logger
	mu         sync.Mutex
	accounts   map[solana.PublicKey]*rpc.Account
	processors map[solana.PublicKey]Processor
	slot       uint64
	// state before the running Atomic call, nil outside one
	pending *checkpoint
}

type checkpoint struct {
	accounts map[solana.PublicKey]*rpc.Account
	slot     uint64
}

func NewLedger(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		logger:     logger,
		accounts:   make(map[solana.PublicKey]*rpc.Account),
		processors: make(map[solana.PublicKey]Processor),
	}
}

func (l *Ledger) Register(programID solana.PublicKey, processor Processor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.processors[programID] = processor
}

// SetAccount stores a copy of account, replacing whatever was at pubkey.
func (l *Ledger) SetAccount(pubkey solana.PublicKey, account *rpc.Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[pubkey] = cloneRpcAccount(account)
}

func (l *Ledger) Slot() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slot
}

func (l *Ledger) Account(pubkey solana.PublicKey) (*Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Account{
		PubKey:  pubkey,
		Account: cloneRpcAccount(l.accounts[pubkey]),
		Height:  l.slot,
	}, nil
}

func (l *Ledger) Accounts(pubkeys []solana.PublicKey) ([]*Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	accounts := make([]*Account, 0, len(pubkeys))
	for _, pubkey := range pubkeys {
		accounts = append(accounts, &Account{
			PubKey:  pubkey,
			Account: cloneRpcAccount(l.accounts[pubkey]),
			Height:  l.slot,
		})
	}
	return accounts, nil
}

func (l *Ledger) Invoke(instructions []solana.Instruction, signers ...solana.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	snapshot := l.snapshot()
	tx := &Tx{ledger: l, signers: make(map[solana.PublicKey]bool)}
	for _, signer := range signers {
		tx.signers[signer] = true
	}
	for i, instruction := range instructions {
		if err := tx.Invoke(instruction); err != nil {
			l.accounts = snapshot
			l.logger.Debug("invoke failed", zap.Int("instruction", i), zap.Error(err))
			return err
		}
	}
	l.slot++
	return nil
}

// Atomic runs fn and restores every account if fn fails. fn may call Invoke
// and the read methods; Atomic calls must not run concurrently with each other.
// Readers obtained from Committed keep seeing the state from before fn until
// Atomic returns.
func (l *Ledger) Atomic(fn func() error) error {
	l.mu.Lock()
	cp := &checkpoint{accounts: l.snapshot(), slot: l.slot}
	l.pending = cp
	l.mu.Unlock()
	err := fn()
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.accounts = cp.accounts
		l.slot = cp.slot
	}
	l.pending = nil
	return err
}

// Committed returns a reader over committed state only.
func (l *Ledger) Committed() *CommittedView {
	return &CommittedView{ledger: l}
}

// CommittedView reads the ledger as it stood before any Atomic call in
// progress.
type CommittedView struct {
	ledger *Ledger
}

func (v *CommittedView) state() (map[solana.PublicKey]*rpc.Account, uint64) {
	if cp := v.ledger.pending; cp != nil {
		return cp.accounts, cp.slot
	}
	return v.ledger.accounts, v.ledger.slot
}

func (v *CommittedView) Slot() uint64 {
	v.ledger.mu.Lock()
	defer v.ledger.mu.Unlock()
	_, slot := v.state()
	return slot
}

func (v *CommittedView) Account(pubkey solana.PublicKey) (*Account, error) {
	accounts, err := v.Accounts([]solana.PublicKey{pubkey})
	if err != nil {
		return nil, err
	}
	return accounts[0], nil
}

func (v *CommittedView) Accounts(pubkeys []solana.PublicKey) ([]*Account, error) {
	v.ledger.mu.Lock()
	defer v.ledger.mu.Unlock()
	state, slot := v.state()
	accounts := make([]*Account, 0, len(pubkeys))
	for _, pubkey := range pubkeys {
		accounts = append(accounts, &Account{
			PubKey:  pubkey,
			Account: cloneRpcAccount(state[pubkey]),
			Height:  slot,
		})
	}
	return accounts, nil
}

func (l *Ledger) snapshot() map[solana.PublicKey]*rpc.Account {
	snapshot := make(map[solana.PublicKey]*rpc.Account, len(l.accounts))
	for key, account := range l.accounts {
		snapshot[key] = cloneRpcAccount(account)
	}
	return snapshot
}

// Tx is the view a processor gets while an instruction executes.
type Tx struct {
	ledger  *Ledger
	signers map[solana.PublicKey]bool
	depth   int
}

// Account returns the live account, or nil when it does not exist.
func (tx *Tx) Account(pubkey solana.PublicKey) *rpc.Account {
	return tx.ledger.accounts[pubkey]
}

func (tx *Tx) SetAccount(pubkey solana.PublicKey, account *rpc.Account) {
	tx.ledger.accounts[pubkey] = account
}

func (tx *Tx) DeleteAccount(pubkey solana.PublicKey) {
	delete(tx.ledger.accounts, pubkey)
}

func (tx *Tx) IsSigner(pubkey solana.PublicKey) bool {
	return tx.signers[pubkey]
}

func (tx *Tx) Slot() uint64 {
	return tx.ledger.slot
}

// Invoke dispatches instruction to its program. Extra signers are the
// program-derived authorities the calling program signs for; they are only
// valid for this nested call.
func (tx *Tx) Invoke(instruction solana.Instruction, signers ...solana.PublicKey) error {
	if tx.depth >= maxInvokeDepth {
		return fmt.Errorf("invoke depth exceeded calling %s", instruction.ProgramID())
	}
	processor, ok := tx.ledger.processors[instruction.ProgramID()]
	if !ok {
		return fmt.Errorf("program %s is not deployed", instruction.ProgramID())
	}
	inner := &Tx{ledger: tx.ledger, signers: make(map[solana.PublicKey]bool, len(tx.signers)+len(signers)), depth: tx.depth + 1}
	for signer := range tx.signers {
		inner.signers[signer] = true
	}
	for _, signer := range signers {
		inner.signers[signer] = true
	}
	return processor.Process(inner, instruction)
}

// Data returns the binary payload of account, which may be nil.
func Data(account *rpc.Account) []byte {
	if account == nil || account.Data == nil {
		return nil
	}
	return account.Data.GetBinary()
}

func SetData(account *rpc.Account, data []byte) {
	account.Data = rpc.DataBytesOrJSONFromBytes(data)
}
