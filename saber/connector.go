package saber

import (
	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/connector"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/program"
)

// AccountsLen: swap, swap authority, pool source, pool destination, admin fee
// destination, token program, clock.
const AccountsLen = connector.CommonAccountsLen + 7

type Connector struct {
	connector.Base
}

func NewConnector() *Connector {
	return &Connector{Base: connector.NewBase(program.StableSwap, AccountsLen, program.Saber)}
}

func (c *Connector) Invoke(ctx *connector.Context, amountIn uint64) ([]solana.Instruction, error) {
	accounts := ctx.Accounts
	venue := accounts.Venue
	if venue[5] != program.Token || venue[6] != program.SysClock {
		return nil, errcode.ErrInvalidConnectorAccounts.Wrapf("saber sysvars %s %s", venue[5], venue[6])
	}
	return []solana.Instruction{
		NewSwapInstruction(venue[0], venue[1], accounts.Authority,
			accounts.Source, venue[2], venue[3], accounts.Destination, venue[4], amountIn, 0),
	}, nil
}
