package swap

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/connector"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/route"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/utils"
)

const (
	actualAmountInNumerator   = 90
	actualAmountInDenominator = 100
)

// Params is one distributor call. Accounts is the flat connector account
// list consumed leg by leg in plan order.
type Params struct {
	Plan        *route.SwapPlan
	Source      solana.PublicKey
	Destination solana.PublicKey
	Authority   solana.PublicKey
	Accounts    []solana.PublicKey
	Sink        EventSink
	// Custodial marks Authority as the router's custody authority. A leg may
	// then pass no token account it owns other than its own source and
	// destination.
	Custodial bool
}

// Distributor walks a swap plan: it splits every hop across its fork legs,
// invokes each leg's connector on the host and checks every balance change.
type Distributor struct {
	registry *connector.Registry
	host     backend.Host
	token    *spltoken.Program
	log      *zap.Logger
}

func NewDistributor(registry *connector.Registry, host backend.Host, token *spltoken.Program, logger *zap.Logger) *Distributor {
	return &Distributor{
		registry: registry,
		host:     host,
		token:    token,
		log:      utils.OrNop(logger),
	}
}

type leg struct {
	dex       program.Dex
	connector connector.Connector
	accounts  *connector.SwapAccounts
}

// resolve maps every leg of the plan to its connector and accounts.
func (d *Distributor) resolve(plan *route.SwapPlan, keys []solana.PublicKey) ([][][]leg, error) {
	offset := 0
	routes := make([][][]leg, len(plan.Routes))
	for r, rt := range plan.Routes {
		routes[r] = make([][]leg, len(rt))
		for h, hop := range rt {
			routes[r][h] = make([]leg, len(hop.Dexes))
			for i, dex := range hop.Dexes {
				c, err := d.registry.Get(dex)
				if err != nil {
					return nil, err
				}
				end := offset + c.AccountsLen()
				if end > len(keys) {
					return nil, errcode.ErrNotEnoughAccounts.Wrapf("route %d hop %d leg %d needs accounts [%d, %d), got %d", r, h, i, offset, end, len(keys))
				}
				accounts, err := c.ParseAccounts(keys[offset:end])
				if err != nil {
					return nil, err
				}
				offset = end
				routes[r][h][i] = leg{dex: dex, connector: c, accounts: accounts}
			}
		}
	}
	if offset != len(keys) {
		return nil, errcode.ErrInvalidConnectorAccounts.Wrapf("%d accounts left unused", len(keys)-offset)
	}
	return routes, nil
}

// preflight walks the declared account pairs of every route so that a broken
// chain fails before any connector runs.
func preflight(routes [][][]leg, source, destination, authority solana.PublicKey) error {
	for _, hops := range routes {
		accounts := &HopAccounts{}
		for h, legs := range hops {
			for _, l := range legs {
				if l.accounts.Authority != authority {
					return errcode.ErrInvalidAuthority.Wrapf("leg authority %s, signer %s", l.accounts.Authority, authority)
				}
				if err := accounts.Check(l.accounts); err != nil {
					return err
				}
			}
			if err := accounts.CheckEnds(h, len(hops), source, destination); err != nil {
				return err
			}
			accounts.Next()
		}
	}
	return nil
}

// Execute runs the plan and returns the realized amount out: the observed
// change of the destination balance over the whole call.
func (d *Distributor) Execute(ctx context.Context, params *Params) (uint64, error) {
	plan := params.Plan
	if err := plan.Validate(); err != nil {
		return 0, err
	}
	routes, err := d.resolve(plan, params.Accounts)
	if err != nil {
		return 0, err
	}
	if err := preflight(routes, params.Source, params.Destination, params.Authority); err != nil {
		return 0, err
	}
	sink := params.Sink
	if sink == nil {
		sink = nopSink{}
	}

	before, err := d.token.GetBalance(params.Destination)
	if err != nil {
		return 0, err
	}
	for r, hops := range routes {
		if err := d.executeRoute(ctx, params, r, hops, plan.Amounts[r], sink); err != nil {
			return 0, err
		}
	}
	after, err := d.token.GetBalance(params.Destination)
	if err != nil {
		return 0, err
	}
	realized, err := utils.CheckedSub(after, before)
	if err != nil {
		return 0, errcode.ErrAmountOutMismatch.Wrapf("destination balance fell from %d to %d", before, after)
	}
	if realized < plan.MinReturn {
		return 0, errcode.ErrMinReturnNotReached.Wrapf("amount out %d, min return %d", realized, plan.MinReturn)
	}
	d.log.Info("swap distributed",
		zap.Uint64("amount_in", plan.AmountIn),
		zap.Uint64("amount_out", realized),
		zap.Uint64("min_return", plan.MinReturn),
	)
	return realized, nil
}

func (d *Distributor) executeRoute(ctx context.Context, params *Params, r int, hops [][]leg, amountIn uint64, sink EventSink) error {
	accounts := &HopAccounts{}
	hopAmountIn := amountIn
	for h, legs := range hops {
		weights := params.Plan.Routes[r][h].Weights
		amounts, err := route.Split(hopAmountIn, weights)
		if err != nil {
			return err
		}
		hopAmountOut := uint64(0)
		for i, l := range legs {
			if err := ctx.Err(); err != nil {
				return errcode.ErrCancelled.Wrap(err.Error())
			}
			if err := accounts.Check(l.accounts); err != nil {
				return err
			}
			out, err := d.executeLeg(l, h, amounts[i], params.Authority, params.Custodial)
			if err != nil {
				return errcode.Wrap(err, errcode.ErrInvokeFailed, "route %d hop %d leg %d %s", r, h, i, l.dex)
			}
			sink.OnLeg(LegEvent{
				Route:       r,
				Hop:         h,
				Leg:         i,
				Dex:         l.dex,
				Source:      l.accounts.Source,
				Destination: l.accounts.Destination,
				AmountIn:    amounts[i],
				AmountOut:   out,
			})
			hopAmountOut, err = utils.CheckedAdd(hopAmountOut, out)
			if err != nil {
				return err
			}
		}
		if err := accounts.CheckEnds(h, len(hops), params.Source, params.Destination); err != nil {
			return err
		}
		sink.OnHop(HopEvent{
			Route:     r,
			Hop:       h,
			LastTo:    accounts.LastTo,
			From:      accounts.From,
			To:        accounts.To,
			AmountIn:  hopAmountIn,
			AmountOut: hopAmountOut,
		})
		accounts.Next()
		hopAmountIn = hopAmountOut
	}
	return nil
}

// executeLeg invokes one connector and returns the observed amount out.
func (d *Distributor) executeLeg(l leg, hop int, amountIn uint64, authority solana.PublicKey, custodial bool) (uint64, error) {
	sourceExists, err := d.token.Exists(l.accounts.Source)
	if err != nil {
		return 0, err
	}
	sourceBefore := uint64(0)
	if sourceExists {
		if sourceBefore, err = d.token.GetBalance(l.accounts.Source); err != nil {
			return 0, err
		}
	}
	destinationBefore, err := d.token.GetBalance(l.accounts.Destination)
	if err != nil {
		return 0, err
	}

	cctx := &connector.Context{
		Host:              d.host,
		Token:             d.token,
		Accounts:          l.accounts,
		DestinationBefore: destinationBefore,
	}
	baseline, err := l.connector.BeforeInvoke(cctx)
	if err != nil {
		return 0, err
	}
	instructions, err := l.connector.Invoke(cctx, amountIn)
	if err != nil {
		return 0, err
	}
	if custodial {
		if err := d.checkCustodyAccounts(instructions, authority, l.accounts); err != nil {
			return 0, err
		}
	}
	if err := d.host.Invoke(instructions, authority); err != nil {
		return 0, errcode.ErrInvokeFailed.Wrap(err.Error())
	}
	reported, err := l.connector.AfterInvoke(cctx, hop, authority, baseline)
	if err != nil {
		return 0, err
	}

	destinationAfter, err := d.token.GetBalance(l.accounts.Destination)
	if err != nil {
		return 0, err
	}
	observed, err := utils.CheckedSub(destinationAfter, destinationBefore)
	if err != nil {
		return 0, errcode.ErrAmountOutMismatch.Wrapf("destination balance fell from %d to %d", destinationBefore, destinationAfter)
	}
	if observed == 0 {
		return 0, errcode.ErrAmountOutZero
	}
	if observed != reported {
		return 0, errcode.ErrAmountOutMismatch.Wrapf("reported %d, observed %d", reported, observed)
	}

	if sourceExists {
		if err := d.checkActualAmountIn(l.accounts.Source, sourceBefore, amountIn); err != nil {
			return 0, err
		}
	}
	d.log.Debug("leg executed",
		zap.Stringer("dex", l.dex),
		zap.Uint64("amount_in", amountIn),
		zap.Uint64("amount_out", observed),
	)
	return observed, nil
}

// checkCustodyAccounts rejects a leg whose instructions reach a custody token
// account other than the leg's own source and destination.
func (d *Distributor) checkCustodyAccounts(instructions []solana.Instruction, authority solana.PublicKey, accounts *connector.SwapAccounts) error {
	seen := map[solana.PublicKey]bool{
		accounts.Source:      true,
		accounts.Destination: true,
	}
	var keys []solana.PublicKey
	for _, instruction := range instructions {
		for _, meta := range instruction.Accounts() {
			if seen[meta.PublicKey] {
				continue
			}
			seen[meta.PublicKey] = true
			keys = append(keys, meta.PublicKey)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	owned, err := d.token.OwnedBy(keys, authority)
	if err != nil {
		return err
	}
	if len(owned) > 0 {
		return errcode.ErrUnexpectedCustodyAccount.Wrapf("%s is owned by %s", owned[0], authority)
	}
	return nil
}

// checkActualAmountIn tolerates venues that take up to 10% less than asked,
// for fee-on-transfer tokens, but never more.
func (d *Distributor) checkActualAmountIn(source solana.PublicKey, before, amountIn uint64) error {
	exists, err := d.token.Exists(source)
	if err != nil || !exists {
		return err
	}
	after, err := d.token.GetBalance(source)
	if err != nil {
		return err
	}
	actual, err := utils.CheckedSub(before, after)
	if err != nil {
		return errcode.ErrInvalidActualAmountIn.Wrapf("source balance grew from %d to %d", before, after)
	}
	lower, err := utils.MulDiv(amountIn, actualAmountInNumerator, actualAmountInDenominator)
	if err != nil {
		return err
	}
	if actual < lower || actual > amountIn {
		return errcode.ErrInvalidActualAmountIn.Wrapf("actual %d, amount in %d", actual, amountIn)
	}
	return nil
}
