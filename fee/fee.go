package fee

import (
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/utils"
)

// Direction says which side of the swap the commission is charged on.
type Direction uint8

const (
	FromSource Direction = iota
	FromDestination
)

func (d Direction) String() string {
	if d == FromSource {
		return "source"
	}
	return "destination"
}

// Schedule is a commission rate convention: rates are parts of Denominator
// and may not exceed Limit.
type Schedule struct {
	Limit       uint64
	Denominator uint64
}

var (
	// CommissionV1 is the legacy basis-point convention, capped at 10%.
	CommissionV1 = Schedule{Limit: 1_000, Denominator: 10_000}
	// CommissionV2 is parts per billion, capped at 10%.
	CommissionV2 = Schedule{Limit: 100_000_000, Denominator: 1_000_000_000}
)

const (
	PlatformFeeRateLimit   = 10_000
	PlatformFeeDenominator = 10_000
	TrimRateLimit          = 100
	TrimDenominator        = 1_000
)

// Amounts holds the fees charged on one side of a swap. Commission is the
// gross commission; PlatformFee is carved out of it.
type Amounts struct {
	Commission  uint64
	PlatformFee uint64
}

// Net is the commission left for the commission beneficiary.
func (a Amounts) Net() uint64 {
	return a.Commission - a.PlatformFee
}

func (a Amounts) IsZero() bool {
	return a.Commission == 0
}

// FeeAmounts computes commission and platform fee on amount under CommissionV2.
func FeeAmounts(amount, rate uint64, direction Direction, platformRate uint64) (Amounts, error) {
	return CommissionV2.FeeAmounts(amount, rate, direction, platformRate)
}

// FeeAmounts computes commission and platform fee on amount.
//
// Charged on the source, amount is what gets swapped and the commission is
// grossed up: amount*rate/(D-rate), so it is rate/D of the total debited.
// Charged on the destination, amount is the swap output and the commission
// is amount*rate/D.
func (s Schedule) FeeAmounts(amount, rate uint64, direction Direction, platformRate uint64) (Amounts, error) {
	if rate == 0 {
		return Amounts{}, nil
	}
	if rate > s.Limit {
		return Amounts{}, errcode.ErrInvalidCommissionRate.Wrapf("rate %d exceeds %d", rate, s.Limit)
	}
	if platformRate > PlatformFeeRateLimit {
		return Amounts{}, errcode.ErrInvalidPlatformFeeRate.Wrapf("rate %d exceeds %d", platformRate, PlatformFeeRateLimit)
	}
	denominator := s.Denominator
	if direction == FromSource {
		denominator = s.Denominator - rate
	}
	commission, err := utils.MulDiv(amount, rate, denominator)
	if err != nil {
		return Amounts{}, err
	}
	platformFee, err := utils.MulDiv(commission, platformRate, PlatformFeeDenominator)
	if err != nil {
		return Amounts{}, err
	}
	if platformFee > commission {
		return Amounts{}, errcode.ErrInvalidPlatformFeeAmount.Wrapf("platform fee %d exceeds commission %d", platformFee, commission)
	}
	return Amounts{Commission: commission, PlatformFee: platformFee}, nil
}

// TrimAmount is the share of positive slippage kept by the aggregator: the
// lesser of amountOut*trimRate/1000 and what amountOut exceeds expected by,
// after commission when commission is taken from the destination. It never
// pushes the caller below expected.
func TrimAmount(amountOut, expected, commission uint64, direction Direction, trimRate uint64) (uint64, error) {
	if trimRate == 0 {
		return 0, nil
	}
	if trimRate > TrimRateLimit {
		return 0, errcode.ErrInvalidTrimRate.Wrapf("rate %d exceeds %d", trimRate, TrimRateLimit)
	}
	limit, err := utils.MulDiv(amountOut, trimRate, TrimDenominator)
	if err != nil {
		return 0, err
	}
	available := amountOut
	if direction == FromDestination {
		available = utils.SaturatingSub(amountOut, commission)
	}
	return utils.Min(utils.SaturatingSub(available, expected), limit), nil
}
