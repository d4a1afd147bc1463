package raydium

import (
	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/spltoken"
)

const ammAccountRent = 6_124_800

type PoolConfig struct {
	CoinMint    solana.PublicKey
	PcMint      solana.PublicKey
	CoinReserve uint64
	PcReserve   uint64
	Fees        FeesLayout
	Status      uint64
}

type Pool struct {
	Key       solana.PublicKey
	Authority solana.PublicKey
	Layout    AmmInfoLayout
}

// CreatePool seeds an amm with its vaults; a zero status means initialized.
func CreatePool(l *backend.Ledger, cfg PoolConfig) (*Pool, error) {
	key := spltoken.NewKey()
	authority, nonce, err := solana.FindProgramAddress([][]byte{key.Bytes()}, program.Raydium)
	if err != nil {
		return nil, err
	}
	status := cfg.Status
	if status == 0 {
		status = StatusInitialized
	}
	ammInfo := AmmInfoLayout{
		Status:       status,
		Nonce:        uint64(nonce),
		CoinDecimals: 6,
		PcDecimals:   6,
		Fees:         cfg.Fees,
		TokenCoin:    spltoken.NewKey(),
		TokenPc:      spltoken.NewKey(),
		CoinMint:     cfg.CoinMint,
		PcMint:       cfg.PcMint,
		LpMint:       spltoken.NewKey(),
		OpenOrders:   spltoken.NewKey(),
		Market:       spltoken.NewKey(),
		AmmOwner:     spltoken.NewKey(),
	}
	spltoken.CreateUser(l, ammInfo.TokenCoin, cfg.CoinMint, authority, cfg.CoinReserve)
	spltoken.CreateUser(l, ammInfo.TokenPc, cfg.PcMint, authority, cfg.PcReserve)
	spltoken.CreateMint(l, ammInfo.LpMint, 6)
	l.SetAccount(key, backend.NewRpcAccount(ammAccountRent, program.Raydium, ammInfo.Encode()))
	return &Pool{Key: key, Authority: authority, Layout: ammInfo}, nil
}

func (p *Pool) Accounts(authority, source, destination solana.PublicKey) []solana.PublicKey {
	return []solana.PublicKey{
		program.Raydium, authority, source, destination,
		program.Token, p.Key, p.Authority, p.Layout.OpenOrders, p.Layout.TokenCoin, p.Layout.TokenPc,
	}
}
