package aggregator

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/fee"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/utils"
)

// Strategy is the custody routing of one mode. The fee arithmetic is shared;
// only where funds sit around the distributor call differs.
type Strategy interface {
	Mode() Mode
	// Prepare resolves the accounts the distributor swaps between.
	Prepare(call *Call) error
	BeforeSwap(call *Call) error
	AfterSwap(call *Call) error
}

// Call is the per-call state threaded through the pipeline.
type Call struct {
	Request *Request
	// Source, Destination and Authority are what the distributor runs with.
	Source      solana.PublicKey
	Destination solana.PublicKey
	Authority   solana.PublicKey
	// Custodial is set when Authority is the router's custody authority.
	Custodial bool

	SourceFees      fee.Amounts
	DestinationFees fee.Amounts
	Trim            uint64
	ActualIn        uint64
	AmountOut       uint64
	ActualOut       uint64

	custody map[solana.PublicKey]uint64
}

func newCall(req *Request) *Call {
	return &Call{Request: req}
}

// settlement moves fee and custody funds for the strategies.
type settlement struct {
	host  backend.Host
	token *spltoken.Program
	log   *zap.Logger
}

// sourceFees computes source-direction fees and the resulting actual in.
func (s *settlement) sourceFees(call *Call) error {
	req := call.Request
	call.ActualIn = req.Plan.AmountIn
	if req.Fees.Direction != fee.FromSource {
		return nil
	}
	amounts, err := req.Fees.CommissionSchedule().FeeAmounts(req.Plan.AmountIn, req.Fees.CommissionRate, fee.FromSource, req.Fees.PlatformFeeRate)
	if err != nil {
		return err
	}
	actualIn, err := utils.CheckedAdd(req.Plan.AmountIn, amounts.Commission)
	if err != nil {
		return err
	}
	call.SourceFees = amounts
	call.ActualIn = actualIn
	return nil
}

// destinationFees computes destination-direction fees on the swap output.
func (s *settlement) destinationFees(call *Call) error {
	req := call.Request
	if req.Fees.Direction != fee.FromDestination {
		return nil
	}
	amounts, err := req.Fees.CommissionSchedule().FeeAmounts(call.AmountOut, req.Fees.CommissionRate, fee.FromDestination, req.Fees.PlatformFeeRate)
	if err != nil {
		return err
	}
	call.DestinationFees = amounts
	return nil
}

func (s *settlement) payFees(call *Call, from, authority solana.PublicKey, amounts fee.Amounts) error {
	if amounts.IsZero() {
		return nil
	}
	fees := &call.Request.Fees
	instructions := make([]solana.Instruction, 0, 2)
	if net := amounts.Net(); net > 0 {
		if fees.CommissionAccount.IsZero() {
			return errcode.ErrCommissionAccountIsNone
		}
		instructions = append(instructions, s.token.InstructionTransfer(from, fees.CommissionAccount, authority, net))
	}
	if amounts.PlatformFee > 0 {
		if fees.PlatformFeeAccount.IsZero() {
			return errcode.ErrPlatformFeeAccountIsNone
		}
		instructions = append(instructions, s.token.InstructionTransfer(from, fees.PlatformFeeAccount, authority, amounts.PlatformFee))
	}
	s.log.Info("commission info",
		zap.Uint64("order_id", call.Request.OrderID),
		zap.Stringer("direction", fees.Direction),
		zap.Uint64("commission_rate", fees.CommissionRate),
		zap.Uint64("commission", amounts.Commission),
		zap.Uint64("net", amounts.Net()),
		zap.Stringer("commission_account", fees.CommissionAccount),
	)
	if amounts.PlatformFee > 0 {
		s.log.Info("platform fee info",
			zap.Uint64("order_id", call.Request.OrderID),
			zap.Uint64("platform_fee_rate", fees.PlatformFeeRate),
			zap.Uint64("platform_fee", amounts.PlatformFee),
			zap.Stringer("platform_fee_account", fees.PlatformFeeAccount),
		)
	}
	return s.invoke(instructions, authority, "pay fees")
}

func (s *settlement) payTrim(call *Call, from, authority solana.PublicKey) error {
	if call.Trim == 0 {
		return nil
	}
	fees := &call.Request.Fees
	if fees.TrimAccount.IsZero() {
		return errcode.ErrTrimAccountIsNone
	}
	s.log.Info("trim info",
		zap.Uint64("order_id", call.Request.OrderID),
		zap.Uint64("trim_rate", fees.TrimRate),
		zap.Uint64("trim", call.Trim),
		zap.Stringer("trim_account", fees.TrimAccount),
	)
	return s.invoke([]solana.Instruction{s.token.InstructionTransfer(from, fees.TrimAccount, authority, call.Trim)}, authority, "pay trim")
}

func (s *settlement) transfer(from, to, authority solana.PublicKey, amount uint64, what string) error {
	if amount == 0 {
		return nil
	}
	return s.invoke([]solana.Instruction{s.token.InstructionTransfer(from, to, authority, amount)}, authority, what)
}

func (s *settlement) invoke(instructions []solana.Instruction, authority solana.PublicKey, what string) error {
	if len(instructions) == 0 {
		return nil
	}
	if err := s.host.Invoke(instructions, authority); err != nil {
		return errcode.Wrap(err, errcode.ErrInvokeFailed, "%s", what)
	}
	return nil
}
