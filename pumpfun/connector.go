package pumpfun

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/connector"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/system"
	"github.com/egaotan/solana-router/utils"
)

// AccountsLen: global, fee recipient, mint, bonding curve, associated bonding
// curve, system program, token program. The destination must be a wrapped
// native token account.
const AccountsLen = connector.CommonAccountsLen + 7

// Connector sells tokens into a bonding curve. The venue pays lamports to the
// swap authority; AfterInvoke moves them into the destination.
type Connector struct {
	connector.Base
	log *zap.Logger
}

func NewConnector(logger *zap.Logger) *Connector {
	return &Connector{
		Base: connector.NewBase(program.PumpfunSell, AccountsLen, program.Pumpfun),
		log:  utils.OrNop(logger),
	}
}

func (c *Connector) BeforeInvoke(ctx *connector.Context) (uint64, error) {
	return system.Lamports(ctx.Host, ctx.Accounts.Authority)
}

func (c *Connector) Invoke(ctx *connector.Context, amountIn uint64) ([]solana.Instruction, error) {
	accounts := ctx.Accounts
	venue := accounts.Venue
	if venue[5] != program.System || venue[6] != program.Token {
		return nil, errcode.ErrInvalidConnectorAccounts.Wrapf("pumpfun programs %s %s", venue[5], venue[6])
	}
	return []solana.Instruction{
		NewSellInstruction(venue[0], venue[1], venue[2], venue[3], venue[4], accounts.Source, accounts.Authority, amountIn, 1),
	}, nil
}

// AfterInvoke wraps the lamports the authority gained since baseline into the
// destination and reports them as the leg output.
func (c *Connector) AfterInvoke(ctx *connector.Context, hop int, signer solana.PublicKey, baseline uint64) (uint64, error) {
	authority := ctx.Accounts.Authority
	after, err := system.Lamports(ctx.Host, authority)
	if err != nil {
		return 0, err
	}
	diff := utils.SaturatingSub(after, baseline)
	if diff == 0 {
		return 0, errcode.ErrInvalidDiffLamports.Wrapf("authority lamports %d -> %d", baseline, after)
	}
	if after-diff < program.MinSolAccountRent {
		return 0, errcode.ErrInsufficientFunds.Wrapf("authority keeps %d lamports, needs %d", after-diff, program.MinSolAccountRent)
	}
	instructions := []solana.Instruction{
		system.NewTransfer(authority, ctx.Accounts.Destination, diff),
		ctx.Token.InstructionSyncNative(ctx.Accounts.Destination),
	}
	if err := ctx.Host.Invoke(instructions, signer); err != nil {
		return 0, errcode.ErrInvokeFailed.Wrapf("wrap %d lamports: %s", diff, err)
	}
	c.log.Debug("pumpfun lamports wrapped",
		zap.Int("hop", hop),
		zap.Uint64("before", baseline),
		zap.Uint64("after", after),
		zap.Uint64("diff", diff),
	)
	return diff, nil
}
