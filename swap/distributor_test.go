package swap_test

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/connector"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/route"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/swap"
)

type fixture struct {
	ledger      *backend.Ledger
	token       *spltoken.Program
	venue       *fixedVenue
	distributor *swap.Distributor
	payer       solana.PublicKey
	mints       []solana.PublicKey
	users       []solana.PublicKey
}

func newFixture(t *testing.T, extra ...connector.Connector) *fixture {
	t.Helper()
	l := backend.NewLedger(nil)
	l.Register(program.Token, spltoken.NewProcessor(nil))
	venue := newFixedVenue()
	l.Register(venue.id, venue)
	registry, err := connector.NewRegistry(append([]connector.Connector{venue}, extra...)...)
	require.NoError(t, err)
	token := spltoken.NewProgram(l, nil)
	f := &fixture{
		ledger:      l,
		token:       token,
		venue:       venue,
		distributor: swap.NewDistributor(registry, l, token, nil),
		payer:       spltoken.NewKey(),
	}
	for i := 0; i < 4; i++ {
		mint := spltoken.NewKey()
		spltoken.CreateMint(l, mint, 6)
		user := spltoken.NewKey()
		amount := uint64(0)
		if i == 0 {
			amount = 1_000_000
		}
		spltoken.CreateUser(l, user, mint, f.payer, amount)
		f.mints = append(f.mints, mint)
		f.users = append(f.users, user)
	}
	return f
}

// leg returns the connector accounts of a leg swapping user[from] into user[to].
func (f *fixture) leg(from, to int) []solana.PublicKey {
	vaultIn := spltoken.NewKey()
	vaultOut := spltoken.NewKey()
	spltoken.CreateUser(f.ledger, vaultIn, f.mints[from], f.venue.authority, 0)
	spltoken.CreateUser(f.ledger, vaultOut, f.mints[to], f.venue.authority, 1_000_000_000)
	return []solana.PublicKey{f.venue.id, f.payer, f.users[from], f.users[to], vaultIn, vaultOut}
}

func (f *fixture) balance(t *testing.T, i int) uint64 {
	t.Helper()
	balance, err := f.token.GetBalance(f.users[i])
	require.NoError(t, err)
	return balance
}

func (f *fixture) params(plan *route.SwapPlan, destination int, accounts ...[]solana.PublicKey) *swap.Params {
	flat := make([]solana.PublicKey, 0)
	for _, a := range accounts {
		flat = append(flat, a...)
	}
	return &swap.Params{
		Plan:        plan,
		Source:      f.users[0],
		Destination: f.users[destination],
		Authority:   f.payer,
		Accounts:    flat,
	}
}

func hop(dexes ...program.Dex) route.Hop {
	weights := make([]uint8, len(dexes))
	weights[len(weights)-1] = 100
	return route.Hop{Dexes: dexes, Weights: weights}
}

func forkPlan(minReturn uint64) *route.SwapPlan {
	return &route.SwapPlan{
		AmountIn:        1_000_000,
		ExpectAmountOut: minReturn,
		MinReturn:       minReturn,
		Amounts:         []uint64{1_000_000},
		Routes: []route.Route{{
			{Dexes: []program.Dex{program.SplTokenSwap, program.SplTokenSwap}, Weights: []uint8{60, 40}},
		}},
	}
}

func TestDistributor_Fork(t *testing.T) {
	f := newFixture(t)
	f.venue.outputs[600_000] = 590_000
	f.venue.outputs[400_000] = 395_000
	recorder := &swap.Recorder{}
	params := f.params(forkPlan(980_000), 1, f.leg(0, 1), f.leg(0, 1))
	params.Sink = recorder

	out, err := f.distributor.Execute(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, uint64(985_000), out)
	require.Equal(t, uint64(0), f.balance(t, 0))
	require.Equal(t, uint64(985_000), f.balance(t, 1))

	require.Len(t, recorder.Legs, 2)
	require.Equal(t, uint64(600_000), recorder.Legs[0].AmountIn)
	require.Equal(t, uint64(590_000), recorder.Legs[0].AmountOut)
	require.Equal(t, uint64(400_000), recorder.Legs[1].AmountIn)
	require.Equal(t, uint64(395_000), recorder.Legs[1].AmountOut)
	require.Len(t, recorder.Hops, 1)
	require.Equal(t, uint64(985_000), recorder.Hops[0].AmountOut)
}

func TestDistributor_MinReturnNotReached(t *testing.T) {
	f := newFixture(t)
	f.venue.outputs[600_000] = 590_000
	f.venue.outputs[400_000] = 395_000
	params := f.params(forkPlan(986_000), 1, f.leg(0, 1), f.leg(0, 1))

	err := f.ledger.Atomic(func() error {
		_, err := f.distributor.Execute(context.Background(), params)
		return err
	})
	require.ErrorIs(t, err, errcode.ErrMinReturnNotReached)
	require.Equal(t, errcode.SlippageViolation, errcode.ClassOf(err))
	require.Equal(t, uint64(1_000_000), f.balance(t, 0))
	require.Equal(t, uint64(0), f.balance(t, 1))
}

func TestDistributor_CustodialLegAccounts(t *testing.T) {
	f := newFixture(t)
	f.venue.outputs[600_000] = 590_000
	f.venue.outputs[400_000] = 395_000
	params := f.params(forkPlan(980_000), 1, f.leg(0, 1), f.leg(0, 1))
	params.Custodial = true
	_, err := f.distributor.Execute(context.Background(), params)
	require.NoError(t, err)

	f = newFixture(t)
	f.venue.outputs[600_000] = 590_000
	f.venue.outputs[400_000] = 395_000
	stray := spltoken.NewKey()
	spltoken.CreateUser(f.ledger, stray, f.mints[0], f.payer, 0)
	second := f.leg(0, 1)
	second[4] = stray
	params = f.params(forkPlan(980_000), 1, f.leg(0, 1), second)
	params.Custodial = true

	err = f.ledger.Atomic(func() error {
		_, err := f.distributor.Execute(context.Background(), params)
		return err
	})
	require.ErrorIs(t, err, errcode.ErrUnexpectedCustodyAccount)
	require.Equal(t, errcode.PlanValidation, errcode.ClassOf(err))
	require.Contains(t, err.Error(), stray.String())
	require.Equal(t, uint64(1_000_000), f.balance(t, 0))
	require.Zero(t, f.balance(t, 1))

	// the same accounts pass when the authority is not custodial
	params.Custodial = false
	_, err = f.distributor.Execute(context.Background(), params)
	require.NoError(t, err)
}

func TestDistributor_ThreeHops(t *testing.T) {
	f := newFixture(t)
	recorder := &swap.Recorder{}
	plan := &route.SwapPlan{
		AmountIn:        1_000_000,
		ExpectAmountOut: 970_299,
		MinReturn:       970_000,
		Amounts:         []uint64{1_000_000},
		Routes: []route.Route{{
			hop(program.SplTokenSwap),
			hop(program.SplTokenSwap),
			hop(program.SplTokenSwap),
		}},
	}
	params := f.params(plan, 3, f.leg(0, 1), f.leg(1, 2), f.leg(2, 3))
	params.Sink = recorder

	out, err := f.distributor.Execute(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, uint64(970_299), out)
	require.Equal(t, uint64(0), f.balance(t, 1))
	require.Equal(t, uint64(0), f.balance(t, 2))

	require.Len(t, recorder.Hops, 3)
	require.Equal(t, f.users[0], recorder.Hops[0].From)
	require.Equal(t, recorder.Hops[0].To, recorder.Hops[1].From)
	require.Equal(t, recorder.Hops[0].To, recorder.Hops[1].LastTo)
	require.Equal(t, recorder.Hops[1].To, recorder.Hops[2].From)
	require.Equal(t, f.users[3], recorder.Hops[2].To)
	require.Equal(t, uint64(990_000), recorder.Hops[1].AmountIn)
	require.Equal(t, uint64(980_100), recorder.Hops[2].AmountIn)
}

func TestDistributor_TwoRoutes(t *testing.T) {
	f := newFixture(t)
	plan := &route.SwapPlan{
		AmountIn:        1_000_000,
		ExpectAmountOut: 980_100,
		MinReturn:       980_000,
		Amounts:         []uint64{700_000, 300_000},
		Routes: []route.Route{
			{hop(program.SplTokenSwap), hop(program.SplTokenSwap)},
			{hop(program.SplTokenSwap), hop(program.SplTokenSwap)},
		},
	}
	out, err := f.distributor.Execute(context.Background(), f.params(plan, 2, f.leg(0, 1), f.leg(1, 2), f.leg(0, 3), f.leg(3, 2)))
	require.NoError(t, err)
	require.Equal(t, uint64(980_100), out)
}

func TestDistributor_PreflightLeavesNoEffects(t *testing.T) {
	twoHops := &route.SwapPlan{
		AmountIn:        1_000_000,
		ExpectAmountOut: 900_000,
		MinReturn:       900_000,
		Amounts:         []uint64{1_000_000},
		Routes:          []route.Route{{hop(program.SplTokenSwap), hop(program.SplTokenSwap)}},
	}
	cases := []struct {
		name   string
		params func(f *fixture) *swap.Params
		want   error
	}{
		{"broken chain", func(f *fixture) *swap.Params {
			return f.params(twoHops, 2, f.leg(0, 1), f.leg(3, 2))
		}, errcode.ErrInvalidHopFromAccount},
		{"fork disagrees", func(f *fixture) *swap.Params {
			return f.params(forkPlan(900_000), 1, f.leg(0, 1), f.leg(0, 2))
		}, errcode.ErrInvalidHopAccounts},
		{"wrong source", func(f *fixture) *swap.Params {
			return f.params(twoHops, 2, f.leg(3, 1), f.leg(1, 2))
		}, errcode.ErrInvalidSourceAccount},
		{"wrong destination", func(f *fixture) *swap.Params {
			return f.params(twoHops, 3, f.leg(0, 1), f.leg(1, 2))
		}, errcode.ErrInvalidDestinationAccount},
		{"wrong authority", func(f *fixture) *swap.Params {
			p := f.params(twoHops, 2, f.leg(0, 1), f.leg(1, 2))
			p.Authority = spltoken.NewKey()
			return p
		}, errcode.ErrInvalidAuthority},
		{"missing accounts", func(f *fixture) *swap.Params {
			return f.params(twoHops, 2, f.leg(0, 1))
		}, errcode.ErrNotEnoughAccounts},
		{"unused accounts", func(f *fixture) *swap.Params {
			return f.params(twoHops, 2, f.leg(0, 1), f.leg(1, 2), []solana.PublicKey{spltoken.NewKey()})
		}, errcode.ErrInvalidConnectorAccounts},
		{"unregistered dex", func(f *fixture) *swap.Params {
			plan := forkPlan(900_000)
			plan.Routes[0][0].Dexes[1] = program.RaydiumSwap
			return f.params(plan, 1, f.leg(0, 1), f.leg(0, 1))
		}, errcode.ErrUnknownDex},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			recorder := &swap.Recorder{}
			params := c.params(f)
			params.Sink = recorder
			_, err := f.distributor.Execute(context.Background(), params)
			require.ErrorIs(t, err, c.want)
			require.Equal(t, errcode.PlanValidation, errcode.ClassOf(err))
			require.Equal(t, uint64(0), f.ledger.Slot())
			require.Equal(t, uint64(1_000_000), f.balance(t, 0))
			require.Empty(t, recorder.Legs)
		})
	}
}

func TestDistributor_AmountOutMismatch(t *testing.T) {
	l := &liar{fixedVenue: newFixedVenue()}
	f := newFixture(t, l)
	f.ledger.Register(l.id, l.fixedVenue)
	plan := forkPlan(900_000)
	plan.Routes[0][0].Dexes[1] = program.StableSwap

	vaultIn, vaultOut := spltoken.NewKey(), spltoken.NewKey()
	spltoken.CreateUser(f.ledger, vaultIn, f.mints[0], l.authority, 0)
	spltoken.CreateUser(f.ledger, vaultOut, f.mints[1], l.authority, 1_000_000_000)
	liarLeg := []solana.PublicKey{l.id, f.payer, f.users[0], f.users[1], vaultIn, vaultOut}

	_, err := f.distributor.Execute(context.Background(), f.params(plan, 1, f.leg(0, 1), liarLeg))
	require.ErrorIs(t, err, errcode.ErrAmountOutMismatch)
	require.Equal(t, errcode.Accounting, errcode.ClassOf(err))
}

func TestDistributor_ConnectorFailures(t *testing.T) {
	t.Run("zero out", func(t *testing.T) {
		f := newFixture(t)
		f.venue.outputs[1_000_000] = 0
		plan := forkPlan(900_000)
		plan.Routes[0][0] = hop(program.SplTokenSwap)
		_, err := f.distributor.Execute(context.Background(), f.params(plan, 1, f.leg(0, 1)))
		require.ErrorIs(t, err, errcode.ErrAmountOutZero)
		require.Equal(t, errcode.ConnectorInvocation, errcode.ClassOf(err))
	})
	t.Run("short take", func(t *testing.T) {
		f := newFixture(t)
		f.venue.take = func(amount uint64) uint64 { return amount * 80 / 100 }
		plan := forkPlan(900_000)
		plan.Routes[0][0] = hop(program.SplTokenSwap)
		_, err := f.distributor.Execute(context.Background(), f.params(plan, 1, f.leg(0, 1)))
		require.ErrorIs(t, err, errcode.ErrInvalidActualAmountIn)
	})
	t.Run("fee on transfer is tolerated", func(t *testing.T) {
		f := newFixture(t)
		f.venue.take = func(amount uint64) uint64 { return amount * 95 / 100 }
		plan := forkPlan(900_000)
		plan.Routes[0][0] = hop(program.SplTokenSwap)
		out, err := f.distributor.Execute(context.Background(), f.params(plan, 1, f.leg(0, 1)))
		require.NoError(t, err)
		require.Equal(t, uint64(990_000), out)
	})
	t.Run("venue fails", func(t *testing.T) {
		f := newFixture(t)
		plan := forkPlan(900_000)
		plan.Routes[0][0] = hop(program.SplTokenSwap)
		accounts := f.leg(0, 1)
		spltoken.CreateUser(f.ledger, accounts[5], f.mints[1], f.venue.authority, 10)
		_, err := f.distributor.Execute(context.Background(), f.params(plan, 1, accounts))
		require.ErrorIs(t, err, errcode.ErrInvokeFailed)
		require.Equal(t, uint64(1_000_000), f.balance(t, 0))
	})
	t.Run("cancelled", func(t *testing.T) {
		f := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.distributor.Execute(ctx, f.params(forkPlan(900_000), 1, f.leg(0, 1), f.leg(0, 1)))
		require.ErrorIs(t, err, errcode.ErrCancelled)
		require.Equal(t, errcode.Cancelled, errcode.ClassOf(err))
		require.Equal(t, uint64(0), f.ledger.Slot())
	})
}
