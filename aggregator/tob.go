package aggregator

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/fee"
	"github.com/egaotan/solana-router/program"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/utils"
)

// ToBStrategy stages the swap in two custody token accounts owned by the
// router's derived authority. The payer funds source custody, the swap runs
// custody to custody, and destination custody pays fees and trim before
// forwarding the rest. Custody balances never change across a call.
type ToBStrategy struct {
	settlement
	authority solana.PublicKey
}

func NewToB(host backend.Host, token *spltoken.Program, router solana.PublicKey, seed string, logger *zap.Logger) (*ToBStrategy, error) {
	authority, _, err := program.CustodyAuthority(router, seed)
	if err != nil {
		return nil, err
	}
	return &ToBStrategy{
		settlement: settlement{host: host, token: token, log: utils.OrNop(logger)},
		authority:  authority,
	}, nil
}

func (s *ToBStrategy) Mode() Mode {
	return ToB
}

func (s *ToBStrategy) Authority() solana.PublicKey {
	return s.authority
}

func (s *ToBStrategy) Prepare(call *Call) error {
	req := call.Request
	if req.SourceCustody.IsZero() || req.DestinationCustody.IsZero() {
		return errcode.ErrCustodyAccountIsNone
	}
	call.custody = make(map[solana.PublicKey]uint64, 2)
	for _, key := range []solana.PublicKey{req.SourceCustody, req.DestinationCustody} {
		user, err := s.token.GetUser(key)
		if err != nil {
			return err
		}
		if user.Owner != s.authority {
			return errcode.ErrInvalidCustodyAuthority.Wrapf("custody %s is owned by %s, expected %s", key, user.Owner, s.authority)
		}
		call.custody[key] = user.Amount
	}
	call.Source = req.SourceCustody
	call.Destination = req.DestinationCustody
	call.Custodial = true
	call.Authority = s.authority
	return s.sourceFees(call)
}

func (s *ToBStrategy) BeforeSwap(call *Call) error {
	req := call.Request
	if err := s.transfer(req.SourceAccount, call.Source, req.Payer, call.ActualIn, "fund source custody"); err != nil {
		return err
	}
	return s.payFees(call, call.Source, s.authority, call.SourceFees)
}

func (s *ToBStrategy) AfterSwap(call *Call) error {
	req := call.Request
	if err := s.destinationFees(call); err != nil {
		return err
	}
	trim, err := fee.TrimAmount(call.AmountOut, req.Plan.ExpectAmountOut, call.DestinationFees.Commission, req.Fees.Direction, req.Fees.TrimRate)
	if err != nil {
		return err
	}
	call.Trim = trim
	remaining, err := utils.CheckedSub(call.AmountOut, call.DestinationFees.Commission)
	if err != nil {
		return err
	}
	if remaining, err = utils.CheckedSub(remaining, trim); err != nil {
		return err
	}
	call.ActualOut = remaining

	if err := s.payFees(call, call.Destination, s.authority, call.DestinationFees); err != nil {
		return err
	}
	if err := s.payTrim(call, call.Destination, s.authority); err != nil {
		return err
	}
	if err := s.transfer(call.Destination, req.DestinationAccount, s.authority, remaining, "forward remainder"); err != nil {
		return err
	}
	return s.checkCustody(call)
}

// checkCustody requires every custody account to be back where it started.
func (s *ToBStrategy) checkCustody(call *Call) error {
	for key, before := range call.custody {
		after, err := s.token.GetBalance(key)
		if err != nil {
			return err
		}
		if after != before {
			return errcode.ErrUnexpectedCustodyBalance.Wrapf("custody %s holds %d, held %d", key, after, before)
		}
	}
	return nil
}
