package errcode

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

const (
	CodespacePlan       = "swap-plan"
	CodespaceConnector  = "swap-connector"
	CodespaceAccounting = "swap-accounting"
	CodespaceSlippage   = "swap-slippage"
	CodespaceCancelled  = "swap-cancelled"
)

// Class groups errors by who has to act on them.
type Class int

const (
	Unknown Class = iota
	PlanValidation
	ConnectorInvocation
	Accounting
	SlippageViolation
	// the caller gave up, nothing is wrong with the plan or the venues
	Cancelled
)

func (c Class) String() string {
	switch c {
	case PlanValidation:
		return "plan_validation"
	case ConnectorInvocation:
		return "connector_invocation"
	case Accounting:
		return "accounting"
	case SlippageViolation:
		return "slippage_violation"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// plan validation
var (
	ErrTooManyHops               = errorsmod.Register(CodespacePlan, 2, "too many hops")
	ErrAmountInZero              = errorsmod.Register(CodespacePlan, 3, "amount in must be greater than zero")
	ErrMinReturnZero             = errorsmod.Register(CodespacePlan, 4, "min return must be greater than zero")
	ErrInvalidExpectAmountOut    = errorsmod.Register(CodespacePlan, 5, "expect amount out must be greater than or equal to min return")
	ErrAmountsRoutesLength       = errorsmod.Register(CodespacePlan, 6, "amounts and routes must have the same length")
	ErrAmountsSum                = errorsmod.Register(CodespacePlan, 7, "total amounts must be equal to amount in")
	ErrDexesWeightsLength        = errorsmod.Register(CodespacePlan, 8, "dexes and weights must have the same length")
	ErrWeightsSum                = errorsmod.Register(CodespacePlan, 9, "weights must sum to 100")
	ErrEmptyRoute                = errorsmod.Register(CodespacePlan, 10, "route or hop is empty")
	ErrUnknownDex                = errorsmod.Register(CodespacePlan, 11, "unknown dex")
	ErrInvalidSourceAccount      = errorsmod.Register(CodespacePlan, 12, "invalid source token account")
	ErrInvalidDestinationAccount = errorsmod.Register(CodespacePlan, 13, "invalid destination token account")
	ErrInvalidHopAccounts        = errorsmod.Register(CodespacePlan, 14, "invalid hop accounts")
	ErrInvalidHopFromAccount     = errorsmod.Register(CodespacePlan, 15, "invalid hop from account")
	ErrNotEnoughAccounts         = errorsmod.Register(CodespacePlan, 16, "not enough accounts")
	ErrInvalidEncoding           = errorsmod.Register(CodespacePlan, 17, "invalid swap plan encoding")
	ErrInvalidCommissionRate     = errorsmod.Register(CodespacePlan, 18, "invalid commission rate")
	ErrInvalidPlatformFeeRate    = errorsmod.Register(CodespacePlan, 19, "invalid platform fee rate")
	ErrInvalidTrimRate           = errorsmod.Register(CodespacePlan, 20, "invalid trim rate")
	ErrCommissionAccountIsNone   = errorsmod.Register(CodespacePlan, 21, "commission account is none")
	ErrPlatformFeeAccountIsNone  = errorsmod.Register(CodespacePlan, 22, "platform fee account is none")
	ErrTrimAccountIsNone         = errorsmod.Register(CodespacePlan, 23, "trim account is none")
	ErrCustodyAccountIsNone      = errorsmod.Register(CodespacePlan, 24, "custody account is none")
	ErrInvalidCustodyAuthority   = errorsmod.Register(CodespacePlan, 25, "invalid custody authority")
	ErrInvalidAuthority          = errorsmod.Register(CodespacePlan, 26, "invalid swap authority")
	ErrInvalidConnectorAccounts  = errorsmod.Register(CodespacePlan, 27, "invalid connector accounts")
	ErrDuplicateConnector        = errorsmod.Register(CodespacePlan, 28, "connector already registered")
	ErrInvalidMode               = errorsmod.Register(CodespacePlan, 29, "invalid swap mode")
	ErrUnexpectedCustodyAccount  = errorsmod.Register(CodespacePlan, 30, "leg touches an unexpected custody token account")
)

// connector invocation
var (
	ErrInvokeFailed          = errorsmod.Register(CodespaceConnector, 2, "connector invocation failed")
	ErrAmountOutZero         = errorsmod.Register(CodespaceConnector, 3, "amount out must be greater than zero")
	ErrInvalidActualAmountIn = errorsmod.Register(CodespaceConnector, 4, "invalid actual amount in")
	ErrInsufficientFunds     = errorsmod.Register(CodespaceConnector, 5, "insufficient funds")
	ErrInvalidDiffLamports   = errorsmod.Register(CodespaceConnector, 6, "invalid diff lamports")
)

// accounting
var (
	ErrCalculation              = errorsmod.Register(CodespaceAccounting, 2, "calculation error")
	ErrInvalidPlatformFeeAmount = errorsmod.Register(CodespaceAccounting, 3, "invalid platform fee amount")
	ErrAmountOutMismatch        = errorsmod.Register(CodespaceAccounting, 4, "reported amount out does not match balance change")
	ErrUnexpectedCustodyBalance = errorsmod.Register(CodespaceAccounting, 5, "custody account was not drained")
	ErrBalanceMismatch          = errorsmod.Register(CodespaceAccounting, 6, "balance change does not match settlement")
	ErrInvalidAccountData       = errorsmod.Register(CodespaceAccounting, 7, "invalid account data")
)

// slippage
var (
	ErrMinReturnNotReached = errorsmod.Register(CodespaceSlippage, 2, "min return not reached")
)

var ErrCancelled = errorsmod.Register(CodespaceCancelled, 2, "swap cancelled")

// ClassOf reports the class of err. Errors without a registered discriminant are Unknown.
func ClassOf(err error) Class {
	codespace, _, ok := Code(err)
	if !ok {
		return Unknown
	}
	switch codespace {
	case CodespacePlan:
		return PlanValidation
	case CodespaceConnector:
		return ConnectorInvocation
	case CodespaceAccounting:
		return Accounting
	case CodespaceSlippage:
		return SlippageViolation
	case CodespaceCancelled:
		return Cancelled
	default:
		return Unknown
	}
}

// Code returns the registered codespace and code carried by err.
func Code(err error) (string, uint32, bool) {
	var coded *errorsmod.Error
	if !errors.As(err, &coded) {
		return "", 0, false
	}
	return coded.Codespace(), coded.ABCICode(), true
}

// Coded reports whether err already carries a discriminant.
func Coded(err error) bool {
	_, _, ok := Code(err)
	return ok
}

// Wrap keeps an existing discriminant and otherwise wraps err with fallback.
func Wrap(err error, fallback *errorsmod.Error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if Coded(err) {
		return errorsmod.Wrapf(err, format, args...)
	}
	return fallback.Wrapf(format+": %s", append(args, err.Error())...)
}
