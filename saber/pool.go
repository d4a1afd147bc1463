package saber

import (
	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/spltoken"
)

const swapAccountRent = 3_637_440

type PoolConfig struct {
	MintA    solana.PublicKey
	MintB    solana.PublicKey
	ReserveA uint64
	ReserveB uint64
	Amp      uint64
	Fees     Fees
	Paused   bool
}

type Pool struct {
	Key       solana.PublicKey
	Authority solana.PublicKey
	Layout    StableSwapLayout
}

// CreatePool seeds a stable swap pool with its vaults and admin fee accounts.
func CreatePool(l *backend.Ledger, cfg PoolConfig) (*Pool, error) {
	key := spltoken.NewKey()
	authority, nonce, err := solana.FindProgramAddress([][]byte{key.Bytes()}, program.Saber)
	if err != nil {
		return nil, err
	}
	admin := spltoken.NewKey()
	swap := StableSwapLayout{
		IsInitialized:    1,
		Nonce:            int8(nonce),
		InitialAmpFactor: cfg.Amp,
		TargetAmpFactor:  cfg.Amp,
		AdminKey:         admin,
		SwapA:            spltoken.NewKey(),
		SwapB:            spltoken.NewKey(),
		PoolMint:         spltoken.NewKey(),
		TokenA:           cfg.MintA,
		TokenB:           cfg.MintB,
		AdminFeeKeyA:     spltoken.NewKey(),
		AdminFeeKeyB:     spltoken.NewKey(),
		Fees:             cfg.Fees,
	}
	if cfg.Paused {
		swap.IsPaused = 1
	}
	spltoken.CreateUser(l, swap.SwapA, cfg.MintA, authority, cfg.ReserveA)
	spltoken.CreateUser(l, swap.SwapB, cfg.MintB, authority, cfg.ReserveB)
	spltoken.CreateUser(l, swap.AdminFeeKeyA, cfg.MintA, admin, 0)
	spltoken.CreateUser(l, swap.AdminFeeKeyB, cfg.MintB, admin, 0)
	spltoken.CreateMint(l, swap.PoolMint, 6)
	l.SetAccount(key, backend.NewRpcAccount(swapAccountRent, program.Saber, swap.Encode()))
	return &Pool{Key: key, Authority: authority, Layout: swap}, nil
}

func (p *Pool) Accounts(authority, source, destination, mint solana.PublicKey) []solana.PublicKey {
	poolSource, poolDestination, adminFee := p.Layout.SwapA, p.Layout.SwapB, p.Layout.AdminFeeKeyB
	if mint == p.Layout.TokenB {
		poolSource, poolDestination, adminFee = p.Layout.SwapB, p.Layout.SwapA, p.Layout.AdminFeeKeyA
	}
	return []solana.PublicKey{
		program.Saber, authority, source, destination,
		p.Key, p.Authority, poolSource, poolDestination, adminFee, program.Token, program.SysClock,
	}
}
