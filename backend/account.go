package backend

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type Account struct {
	PubKey  solana.PublicKey
	Account *rpc.Account
	Height  uint64
}

// Exists reports whether the account was found and still holds lamports.
func (a *Account) Exists() bool {
	return a != nil && a.Account != nil && a.Account.Lamports > 0
}

// AccountReader is the read side of the host ledger. Missing accounts come
// back with a nil Account value rather than an error.
type AccountReader interface {
	Account(pubkey solana.PublicKey) (*Account, error)
	Accounts(pubkeys []solana.PublicKey) ([]*Account, error)
}

// Invoker executes instructions on the host ledger. A failing instruction
// leaves no effect from the whole list.
type Invoker interface {
	Invoke(instructions []solana.Instruction, signers ...solana.PublicKey) error
}

// Host is a ledger the router can both read and execute against.
type Host interface {
	AccountReader
	Invoker
	Atomic(fn func() error) error
}

func NewRpcAccount(lamports uint64, owner solana.PublicKey, data []byte) *rpc.Account {
	return &rpc.Account{
		Lamports: lamports,
		Owner:    owner,
		Data:     rpc.DataBytesOrJSONFromBytes(data),
	}
}

func cloneRpcAccount(account *rpc.Account) *rpc.Account {
	if account == nil {
		return nil
	}
	var data []byte
	if account.Data != nil {
		data = append([]byte(nil), account.Data.GetBinary()...)
	}
	cloned := NewRpcAccount(account.Lamports, account.Owner, data)
	cloned.Executable = account.Executable
	cloned.RentEpoch = account.RentEpoch
	return cloned
}
