package backend_test

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/system"
)

func newLedger() (*backend.Ledger, *system.Program) {
	l := backend.NewLedger(nil)
	p := system.NewProgram(nil)
	l.Register(program.System, p)
	return l, p
}

func TestLedger_MissingAccount(t *testing.T) {
	l, _ := newLedger()
	key := solana.NewWallet().PublicKey()
	account, err := l.Account(key)
	require.NoError(t, err)
	require.Nil(t, account.Account)
	require.False(t, account.Exists())

	accounts, err := l.Accounts([]solana.PublicKey{key, key})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
}

func TestLedger_ReadsAreCopies(t *testing.T) {
	l, _ := newLedger()
	key := solana.NewWallet().PublicKey()
	system.CreateWallet(l, key, 100)

	account, _ := l.Account(key)
	account.Account.Lamports = 1
	again, _ := l.Account(key)
	require.Equal(t, uint64(100), again.Account.Lamports)
}

func TestLedger_AtomicRollsBack(t *testing.T) {
	l, p := newLedger()
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	system.CreateWallet(l, from, 1_000)

	boom := errors.New("boom")
	err := l.Atomic(func() error {
		if err := l.Invoke([]solana.Instruction{p.InstructionTransfer(from, to, 600)}, from); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	lamports, _ := system.Lamports(l, from)
	require.Equal(t, uint64(1_000), lamports)
	account, _ := l.Account(to)
	require.Nil(t, account.Account)
	require.Zero(t, l.Slot())

	require.NoError(t, l.Atomic(func() error {
		return l.Invoke([]solana.Instruction{p.InstructionTransfer(from, to, 600)}, from)
	}))
	lamports, _ = system.Lamports(l, to)
	require.Equal(t, uint64(600), lamports)
}

func TestLedger_UnknownProgram(t *testing.T) {
	l, _ := newLedger()
	ins := program.NewInstruction(solana.NewWallet().PublicKey(), []byte{1})
	require.Error(t, l.Invoke([]solana.Instruction{ins}))
}

func TestLedger_NestedSigner(t *testing.T) {
	l, p := newLedger()
	vault := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	system.CreateWallet(l, vault, 500)

	venue := solana.NewWallet().PublicKey()
	l.Register(venue, backend.ProcessorFunc(func(tx *backend.Tx, _ solana.Instruction) error {
		// the venue signs for the vault it controls
		return tx.Invoke(p.InstructionTransfer(vault, to, 200), vault)
	}))
	require.NoError(t, l.Invoke([]solana.Instruction{program.NewInstruction(venue, nil)}))
	lamports, _ := system.Lamports(l, to)
	require.Equal(t, uint64(200), lamports)

	// the vault signature does not leak to the outer call
	require.Error(t, l.Invoke([]solana.Instruction{p.InstructionTransfer(vault, to, 1)}))
}

func TestLedger_CommittedViewHidesPendingAtomic(t *testing.T) {
	l, p := newLedger()
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	system.CreateWallet(l, from, 1_000)
	view := l.Committed()

	boom := errors.New("boom")
	inside := make(chan struct{})
	read := make(chan uint64)
	go func() {
		<-inside
		lamports, _ := system.Lamports(view, from)
		read <- lamports
	}()
	err := l.Atomic(func() error {
		if err := l.Invoke([]solana.Instruction{p.InstructionTransfer(from, to, 700)}, from); err != nil {
			return err
		}
		live, _ := system.Lamports(l, from)
		require.Equal(t, uint64(300), live)
		close(inside)
		require.Equal(t, uint64(1_000), <-read)
		account, _ := view.Account(to)
		require.Nil(t, account.Account)
		require.Zero(t, view.Slot())
		return boom
	})
	require.ErrorIs(t, err, boom)
	lamports, _ := system.Lamports(view, from)
	require.Equal(t, uint64(1_000), lamports)

	require.NoError(t, l.Atomic(func() error {
		return l.Invoke([]solana.Instruction{p.InstructionTransfer(from, to, 700)}, from)
	}))
	lamports, _ = system.Lamports(view, to)
	require.Equal(t, uint64(700), lamports)
	require.Equal(t, uint64(1), view.Slot())
}
