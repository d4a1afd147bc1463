package tokenswap

import (
	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/spltoken"
)

const swapAccountRent = 3_145_920

type PoolConfig struct {
	Program  solana.PublicKey
	MintA    solana.PublicKey
	MintB    solana.PublicKey
	ReserveA uint64
	ReserveB uint64
	Fees     Fees
	Curve    SwapCurve
}

// Pool is a seeded pool and the keys a connector leg needs.
type Pool struct {
	Program   solana.PublicKey
	Key       solana.PublicKey
	Authority solana.PublicKey
	Layout    SwapLayout
}

// CreatePool seeds a pool, its vaults, pool mint and fee account on l.
func CreatePool(l *backend.Ledger, cfg PoolConfig) (*Pool, error) {
	key := spltoken.NewKey()
	authority, bump, err := solana.FindProgramAddress([][]byte{key.Bytes()}, cfg.Program)
	if err != nil {
		return nil, err
	}
	swap := SwapLayout{
		Version:        1,
		IsInitialized:  1,
		BumpSeed:       int8(bump),
		TokenProgramId: program.Token,
		SwapA:          spltoken.NewKey(),
		SwapB:          spltoken.NewKey(),
		PoolToken:      spltoken.NewKey(),
		TokenA:         cfg.MintA,
		TokenB:         cfg.MintB,
		PoolFeeAccount: spltoken.NewKey(),
		Fees:           cfg.Fees,
		SwapCurve:      cfg.Curve,
	}
	spltoken.CreateUser(l, swap.SwapA, cfg.MintA, authority, cfg.ReserveA)
	spltoken.CreateUser(l, swap.SwapB, cfg.MintB, authority, cfg.ReserveB)
	spltoken.CreateMint(l, swap.PoolToken, 6)
	spltoken.CreateUser(l, swap.PoolFeeAccount, swap.PoolToken, spltoken.NewKey(), 0)
	l.SetAccount(key, backend.NewRpcAccount(swapAccountRent, cfg.Program, swap.Encode()))
	return &Pool{Program: cfg.Program, Key: key, Authority: authority, Layout: swap}, nil
}

// Accounts returns the connector accounts of a leg selling mint from source
// into destination.
func (p *Pool) Accounts(authority, source, destination, mint solana.PublicKey) []solana.PublicKey {
	poolSource, poolDestination := p.Layout.SwapA, p.Layout.SwapB
	if mint == p.Layout.TokenB {
		poolSource, poolDestination = p.Layout.SwapB, p.Layout.SwapA
	}
	return []solana.PublicKey{
		p.Program, authority, source, destination,
		p.Key, p.Authority, poolSource, poolDestination, p.Layout.PoolToken, p.Layout.PoolFeeAccount, program.Token,
	}
}
