package aggregator

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/fee"
	"github.com/egaotan/solana-router/route"
	"github.com/egaotan/solana-router/swap"
)

// Mode selects where fees are taken from.
type Mode uint8

const (
	// ToC takes fees straight from the payer's own token accounts.
	ToC Mode = iota
	// ToB stages funds in custody accounts owned by the router authority.
	ToB
)

func (m Mode) String() string {
	switch m {
	case ToC:
		return "toc"
	case ToB:
		return "tob"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "toc", "":
		return ToC, nil
	case "tob":
		return ToB, nil
	default:
		return 0, errcode.ErrInvalidMode.Wrapf("%q", s)
	}
}

type Fees struct {
	CommissionRate     uint64
	Direction          fee.Direction
	PlatformFeeRate    uint64
	TrimRate           uint64
	Schedule           fee.Schedule
	CommissionAccount  solana.PublicKey
	PlatformFeeAccount solana.PublicKey
	TrimAccount        solana.PublicKey
}

// CommissionSchedule defaults to fee.CommissionV2.
func (f *Fees) CommissionSchedule() fee.Schedule {
	if f.Schedule.Denominator == 0 {
		return fee.CommissionV2
	}
	return f.Schedule
}

// Validate checks the rates. The fee accounts are only required once a
// non-zero amount has to be paid to them.
func (f *Fees) Validate() error {
	schedule := f.CommissionSchedule()
	if f.CommissionRate > schedule.Limit {
		return errcode.ErrInvalidCommissionRate.Wrapf("rate %d exceeds %d", f.CommissionRate, schedule.Limit)
	}
	if f.PlatformFeeRate > fee.PlatformFeeRateLimit {
		return errcode.ErrInvalidPlatformFeeRate.Wrapf("rate %d exceeds %d", f.PlatformFeeRate, fee.PlatformFeeRateLimit)
	}
	if f.TrimRate > fee.TrimRateLimit {
		return errcode.ErrInvalidTrimRate.Wrapf("rate %d exceeds %d", f.TrimRate, fee.TrimRateLimit)
	}
	return nil
}

// Request is one swap call. Accounts is the flat connector account list of
// the plan; in ToB mode its legs start and end at the custody accounts.
type Request struct {
	OrderID            uint64
	Mode               Mode
	Plan               *route.SwapPlan
	Payer              solana.PublicKey
	SourceAccount      solana.PublicKey
	DestinationAccount solana.PublicKey
	SourceCustody      solana.PublicKey
	DestinationCustody solana.PublicKey
	Accounts           []solana.PublicKey
	Fees               Fees
}

// Validate checks everything that can be checked without reading an account.
func (r *Request) Validate() error {
	if r.Plan == nil {
		return errcode.ErrEmptyRoute.Wrap("request has no plan")
	}
	if err := r.Plan.Validate(); err != nil {
		return err
	}
	if r.Payer.IsZero() {
		return errcode.ErrInvalidAuthority.Wrap("payer is none")
	}
	if r.SourceAccount.IsZero() {
		return errcode.ErrInvalidSourceAccount.Wrap("source is none")
	}
	if r.DestinationAccount.IsZero() {
		return errcode.ErrInvalidDestinationAccount.Wrap("destination is none")
	}
	return r.Fees.Validate()
}

// Result is what a committed swap reports.
type Result struct {
	OrderID     uint64
	Mode        Mode
	Payer       solana.PublicKey
	Source      solana.PublicKey
	Destination solana.PublicKey
	AmountIn    uint64
	ActualIn    uint64
	AmountOut   uint64
	ActualOut   uint64
	Commission  uint64
	PlatformFee uint64
	Trim        uint64
	Slot        uint64
	Legs        []swap.LegEvent
	Hops        []swap.HopEvent
}
