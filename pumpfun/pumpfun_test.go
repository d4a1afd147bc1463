package pumpfun_test

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/connector"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/pumpfun"
	"github.com/egaotan/solana-router/route"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/swap"
	"github.com/egaotan/solana-router/system"
)

const (
	wallet = uint64(1_000_000_000)
	amount = uint64(1_000_000)
)

type fixture struct {
	ledger      *backend.Ledger
	token       *spltoken.Program
	distributor *swap.Distributor
	curve       *pumpfun.Curve
	owner       solana.PublicKey
	user        solana.PublicKey
	wsol        solana.PublicKey
}

func newFixture(t *testing.T, lamports uint64) *fixture {
	t.Helper()
	l := backend.NewLedger(nil)
	l.Register(program.Token, spltoken.NewProcessor(nil))
	l.Register(program.System, system.NewProgram(nil))
	l.Register(program.Pumpfun, pumpfun.NewProcessor(nil))
	registry, err := connector.NewRegistry(pumpfun.NewConnector(nil))
	require.NoError(t, err)
	token := spltoken.NewProgram(l, nil)
	mint := spltoken.NewKey()
	spltoken.CreateMint(l, mint, 6)
	curve := pumpfun.CreateCurve(l, pumpfun.CurveConfig{
		Mint:                 mint,
		VirtualTokenReserves: 1_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    800_000_000,
		RealSolReserves:      10_000_000_000,
		FeeBasisPoints:       100,
	})
	f := &fixture{
		ledger:      l,
		token:       token,
		distributor: swap.NewDistributor(registry, l, token, nil),
		curve:       curve,
		owner:       spltoken.NewKey(),
		user:        spltoken.NewKey(),
		wsol:        spltoken.NewKey(),
	}
	if lamports > 0 {
		system.CreateWallet(l, f.owner, lamports)
	}
	spltoken.CreateUser(l, f.user, mint, f.owner, 10_000_000)
	spltoken.CreateNativeUser(l, f.wsol, f.owner, 0)
	return f
}

func (f *fixture) execute(destination solana.PublicKey) (uint64, error) {
	return f.distributor.Execute(context.Background(), &swap.Params{
		Plan: &route.SwapPlan{
			AmountIn:        amount,
			ExpectAmountOut: 1,
			MinReturn:       1,
			Amounts:         []uint64{amount},
			Routes:          []route.Route{{{Dexes: []program.Dex{program.PumpfunSell}, Weights: []uint8{100}}}},
		},
		Source:      f.user,
		Destination: destination,
		Authority:   f.owner,
		Accounts:    f.curve.Accounts(f.owner, f.user, destination),
	})
}

func TestModel_Sell(t *testing.T) {
	model := &pumpfun.Model{
		Mint:   spltoken.NewKey(),
		Global: &pumpfun.GlobalLayout{FeeBasisPoints: 100},
		BondingCurve: &pumpfun.BondingCurveLayout{
			VirtualTokenReserves: 1_000_000_000,
			VirtualSolReserves:   30_000_000_000,
			RealSolReserves:      10_000_000_000,
		},
	}
	sr, err := model.Sell(amount)
	require.NoError(t, err)
	require.Equal(t, uint64(29_670_329), sr.AmountOut)
	require.Equal(t, uint64(299_700), sr.Fee)
	require.Equal(t, program.SOL, sr.TokenOut)

	_, err = model.Sell(0)
	require.Error(t, err)

	model.BondingCurve.RealSolReserves = 1_000
	_, err = model.Sell(amount)
	require.Error(t, err)

	model.BondingCurve.Complete = 1
	_, err = model.Sell(amount)
	require.Error(t, err)
}

func TestConnector_Sell(t *testing.T) {
	f := newFixture(t, wallet)
	quote, err := pumpfun.NewProgram(f.ledger, nil).Quote(f.curve.Global, f.curve.Mint, f.curve.BondingCurve, amount)
	require.NoError(t, err)

	out, err := f.execute(f.wsol)
	require.NoError(t, err)
	require.Equal(t, uint64(29_670_329), out)
	require.Equal(t, quote.AmountOut, out)

	balance, err := f.token.GetBalance(f.wsol)
	require.NoError(t, err)
	require.Equal(t, out, balance)
	lamports, err := system.Lamports(f.ledger, f.owner)
	require.NoError(t, err)
	require.Equal(t, wallet, lamports)
	fee, err := system.Lamports(f.ledger, f.curve.FeeRecipient)
	require.NoError(t, err)
	require.Equal(t, uint64(299_700), fee)
	vault, err := f.token.GetBalance(f.curve.AssociatedBondingCurve)
	require.NoError(t, err)
	require.Equal(t, uint64(800_000_000)+amount, vault)
}

func TestConnector_InsufficientFunds(t *testing.T) {
	f := newFixture(t, 100_000)
	_, err := f.execute(f.wsol)
	require.ErrorIs(t, err, errcode.ErrInsufficientFunds)
}

func TestConnector_DestinationNotNative(t *testing.T) {
	f := newFixture(t, wallet)
	other := spltoken.NewKey()
	spltoken.CreateUser(f.ledger, other, spltoken.NewKey(), f.owner, 0)
	_, err := f.execute(other)
	require.ErrorIs(t, err, errcode.ErrInvokeFailed)
}
