package tokenswap

import (
	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/connector"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/program"
)

// AccountsLen is the connector account count: the common prefix followed by
// swap, swap authority, pool source, pool destination, pool mint, pool fee
// account and the token program.
const AccountsLen = connector.CommonAccountsLen + 7

type Connector struct {
	connector.Base
}

// NewConnector accepts the SPL token-swap program and the Orca forks.
func NewConnector() *Connector {
	return &Connector{
		Base: connector.NewBase(program.SplTokenSwap, AccountsLen, program.TokenSwap, program.OrcaV1, program.OrcaV2),
	}
}

func (c *Connector) Invoke(ctx *connector.Context, amountIn uint64) ([]solana.Instruction, error) {
	accounts := ctx.Accounts
	venue := accounts.Venue
	if venue[6] != program.Token {
		return nil, errcode.ErrInvalidConnectorAccounts.Wrapf("token program %s", venue[6])
	}
	return []solana.Instruction{
		NewSwapInstruction(accounts.Program, venue[0], venue[1], accounts.Authority,
			accounts.Source, venue[2], venue[3], accounts.Destination, venue[4], venue[5], amountIn, 0),
	}, nil
}
