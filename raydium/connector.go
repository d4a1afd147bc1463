package raydium

import (
	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/connector"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/program"
)

// AccountsLen: token program, amm, amm authority, open orders, coin vault,
// pc vault.
const AccountsLen = connector.CommonAccountsLen + 6

type Connector struct {
	connector.Base
}

func NewConnector() *Connector {
	return &Connector{Base: connector.NewBase(program.RaydiumSwap, AccountsLen, program.Raydium)}
}

func (c *Connector) Invoke(ctx *connector.Context, amountIn uint64) ([]solana.Instruction, error) {
	accounts := ctx.Accounts
	venue := accounts.Venue
	if venue[0] != program.Token {
		return nil, errcode.ErrInvalidConnectorAccounts.Wrapf("token program %s", venue[0])
	}
	return []solana.Instruction{
		NewSwapInstruction(venue[1], venue[2], venue[3], venue[4], venue[5],
			accounts.Source, accounts.Destination, accounts.Authority, amountIn, 0),
	}, nil
}
