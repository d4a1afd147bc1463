package pumpfun

import (
	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/spltoken"
)

const (
	globalAccountRent       = 1_677_360
	bondingCurveAccountRent = 1_454_640
)

type CurveConfig struct {
	Mint                 solana.PublicKey
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	FeeBasisPoints       uint64
	Complete             bool
}

type Curve struct {
	Global                 solana.PublicKey
	FeeRecipient           solana.PublicKey
	Mint                   solana.PublicKey
	BondingCurve           solana.PublicKey
	AssociatedBondingCurve solana.PublicKey
}

// CreateCurve seeds a global config, a bonding curve holding RealSolReserves
// lamports on top of rent, and its token vault.
func CreateCurve(l *backend.Ledger, cfg CurveConfig) *Curve {
	c := &Curve{
		Global:                 spltoken.NewKey(),
		FeeRecipient:           spltoken.NewKey(),
		Mint:                   cfg.Mint,
		BondingCurve:           spltoken.NewKey(),
		AssociatedBondingCurve: spltoken.NewKey(),
	}
	global := GlobalLayout{
		Discriminator:    GlobalDiscriminator,
		Initialized:      1,
		FeeRecipient:     c.FeeRecipient,
		TokenTotalSupply: cfg.RealTokenReserves,
		FeeBasisPoints:   cfg.FeeBasisPoints,
	}
	curve := BondingCurveLayout{
		Discriminator:        BondingCurveDiscriminator,
		VirtualTokenReserves: cfg.VirtualTokenReserves,
		VirtualSolReserves:   cfg.VirtualSolReserves,
		RealTokenReserves:    cfg.RealTokenReserves,
		RealSolReserves:      cfg.RealSolReserves,
		TokenTotalSupply:     cfg.RealTokenReserves,
	}
	if cfg.Complete {
		curve.Complete = 1
	}
	l.SetAccount(c.Global, backend.NewRpcAccount(globalAccountRent, program.Pumpfun, global.Encode()))
	l.SetAccount(c.BondingCurve, backend.NewRpcAccount(bondingCurveAccountRent+cfg.RealSolReserves, program.Pumpfun, curve.Encode()))
	spltoken.CreateUser(l, c.AssociatedBondingCurve, cfg.Mint, c.BondingCurve, cfg.RealTokenReserves)
	return c
}

func (c *Curve) Accounts(authority, source, destination solana.PublicKey) []solana.PublicKey {
	return []solana.PublicKey{
		program.Pumpfun, authority, source, destination,
		c.Global, c.FeeRecipient, c.Mint, c.BondingCurve, c.AssociatedBondingCurve, program.System, program.Token,
	}
}
