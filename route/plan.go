package route

import (
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/utils"
)

const (
	MaxHops     = 3
	TotalWeight = 100
)

// Hop splits its incoming amount across Dexes by Weights.
type Hop struct {
	Dexes   []program.Dex
	Weights []uint8
}

// Route is the ordered hop sequence one top-level split flows through.
type Route []Hop

// SwapPlan is built by the caller for a single swap and consumed by it.
type SwapPlan struct {
	AmountIn        uint64
	ExpectAmountOut uint64
	MinReturn       uint64
	Amounts         []uint64
	Routes          []Route
}

// Validate checks every plan invariant without touching any account. The
// first violation found, in a fixed order, is returned.
func (p *SwapPlan) Validate() error {
	if p.AmountIn == 0 {
		return errcode.ErrAmountInZero
	}
	if p.MinReturn == 0 {
		return errcode.ErrMinReturnZero
	}
	if p.ExpectAmountOut < p.MinReturn {
		return errcode.ErrInvalidExpectAmountOut.Wrapf("expect %d, min return %d", p.ExpectAmountOut, p.MinReturn)
	}
	if len(p.Amounts) != len(p.Routes) {
		return errcode.ErrAmountsRoutesLength.Wrapf("%d amounts, %d routes", len(p.Amounts), len(p.Routes))
	}
	if len(p.Routes) == 0 {
		return errcode.ErrEmptyRoute.Wrap("plan has no routes")
	}
	total := uint64(0)
	for _, amount := range p.Amounts {
		sum, err := utils.CheckedAdd(total, amount)
		if err != nil {
			return errcode.ErrAmountsSum.Wrap("amounts overflow")
		}
		total = sum
	}
	if total != p.AmountIn {
		return errcode.ErrAmountsSum.Wrapf("amounts sum to %d, amount in is %d", total, p.AmountIn)
	}
	for i, r := range p.Routes {
		if err := r.Validate(); err != nil {
			return errcode.Wrap(err, errcode.ErrEmptyRoute, "route %d", i)
		}
	}
	return nil
}

func (r Route) Validate() error {
	if len(r) == 0 {
		return errcode.ErrEmptyRoute
	}
	if len(r) > MaxHops {
		return errcode.ErrTooManyHops.Wrapf("%d hops, at most %d", len(r), MaxHops)
	}
	for i, hop := range r {
		if err := hop.Validate(); err != nil {
			return errcode.Wrap(err, errcode.ErrEmptyRoute, "hop %d", i)
		}
	}
	return nil
}

func (h Hop) Validate() error {
	if len(h.Dexes) != len(h.Weights) {
		return errcode.ErrDexesWeightsLength.Wrapf("%d dexes, %d weights", len(h.Dexes), len(h.Weights))
	}
	if len(h.Dexes) == 0 {
		return errcode.ErrEmptyRoute.Wrap("hop has no dexes")
	}
	total := 0
	for _, weight := range h.Weights {
		total += int(weight)
	}
	if total != TotalWeight {
		return errcode.ErrWeightsSum.Wrapf("weights sum to %d", total)
	}
	for _, dex := range h.Dexes {
		if !dex.Valid() {
			return errcode.ErrUnknownDex.Wrapf("tag %d", uint8(dex))
		}
	}
	return nil
}

// Split divides amount across weights. Every leg but the last gets
// floor(amount*weight/100); the last gets the exact remainder so the legs
// always sum to amount.
func Split(amount uint64, weights []uint8) ([]uint64, error) {
	legs := make([]uint64, len(weights))
	allocated := uint64(0)
	for i, weight := range weights {
		if i == len(weights)-1 {
			rest, err := utils.CheckedSub(amount, allocated)
			if err != nil {
				return nil, err
			}
			legs[i] = rest
			break
		}
		leg, err := utils.MulDiv(amount, uint64(weight), TotalWeight)
		if err != nil {
			return nil, err
		}
		legs[i] = leg
		if allocated, err = utils.CheckedAdd(allocated, leg); err != nil {
			return nil, err
		}
	}
	return legs, nil
}
