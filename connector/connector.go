package connector

import (
	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/utils"
)

// CommonAccountsLen is the prefix every connector account list starts with:
// venue program, swap authority, source token account, destination token account.
const CommonAccountsLen = 4

// SwapAccounts are the accounts one fork leg works on. Venue holds the
// venue-specific remainder of the connector's account slice.
type SwapAccounts struct {
	Program     solana.PublicKey
	Authority   solana.PublicKey
	Source      solana.PublicKey
	Destination solana.PublicKey
	Venue       []solana.PublicKey
}

// Context is what a connector sees while one leg executes.
type Context struct {
	Host     backend.Host
	Token    *spltoken.Program
	Accounts *SwapAccounts
	// DestinationBefore is the destination balance read just before BeforeInvoke.
	DestinationBefore uint64
}

// Connector adapts one venue operation to the router. Invoke only builds the
// venue call; the router executes it on the host ledger and then calls
// AfterInvoke, whose result must match the observed destination change.
type Connector interface {
	Dex() program.Dex
	AccountsLen() int
	ParseAccounts(keys []solana.PublicKey) (*SwapAccounts, error)
	BeforeInvoke(ctx *Context) (uint64, error)
	Invoke(ctx *Context, amountIn uint64) ([]solana.Instruction, error)
	AfterInvoke(ctx *Context, hop int, signer solana.PublicKey, baseline uint64) (uint64, error)
}

// Base carries the account parsing and the default hooks shared by connectors.
type Base struct {
	dex         program.Dex
	accountsLen int
	programs    []solana.PublicKey
}

func NewBase(dex program.Dex, accountsLen int, programs ...solana.PublicKey) Base {
	return Base{dex: dex, accountsLen: accountsLen, programs: programs}
}

func (b *Base) Dex() program.Dex {
	return b.dex
}

func (b *Base) AccountsLen() int {
	return b.accountsLen
}

func (b *Base) ParseAccounts(keys []solana.PublicKey) (*SwapAccounts, error) {
	if len(keys) != b.accountsLen {
		return nil, errcode.ErrNotEnoughAccounts.Wrapf("%s needs %d accounts, got %d", b.dex, b.accountsLen, len(keys))
	}
	accepted := false
	for _, id := range b.programs {
		if keys[0] == id {
			accepted = true
			break
		}
	}
	if !accepted {
		return nil, errcode.ErrInvalidConnectorAccounts.Wrapf("%s does not accept program %s", b.dex, keys[0])
	}
	venue := make([]solana.PublicKey, len(keys)-CommonAccountsLen)
	copy(venue, keys[CommonAccountsLen:])
	return &SwapAccounts{
		Program:     keys[0],
		Authority:   keys[1],
		Source:      keys[2],
		Destination: keys[3],
		Venue:       venue,
	}, nil
}

// BeforeInvoke takes no snapshot.
func (b *Base) BeforeInvoke(ctx *Context) (uint64, error) {
	return 0, nil
}

// AfterInvoke reports the destination balance change since DestinationBefore.
func (b *Base) AfterInvoke(ctx *Context, hop int, signer solana.PublicKey, baseline uint64) (uint64, error) {
	after, err := ctx.Token.GetBalance(ctx.Accounts.Destination)
	if err != nil {
		return 0, err
	}
	return utils.CheckedSub(after, ctx.DestinationBefore)
}
