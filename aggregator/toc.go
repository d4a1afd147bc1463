package aggregator

import (
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/fee"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/utils"
)

// ToCStrategy swaps straight between the payer's token accounts and pulls
// fees from them around the swap. It takes no trim.
type ToCStrategy struct {
	settlement
}

func NewToC(host backend.Host, token *spltoken.Program, logger *zap.Logger) *ToCStrategy {
	return &ToCStrategy{settlement{host: host, token: token, log: utils.OrNop(logger)}}
}

func (s *ToCStrategy) Mode() Mode {
	return ToC
}

func (s *ToCStrategy) Prepare(call *Call) error {
	req := call.Request
	call.Source = req.SourceAccount
	call.Destination = req.DestinationAccount
	call.Authority = req.Payer
	return s.sourceFees(call)
}

func (s *ToCStrategy) BeforeSwap(call *Call) error {
	return s.payFees(call, call.Source, call.Authority, call.SourceFees)
}

func (s *ToCStrategy) AfterSwap(call *Call) error {
	call.ActualOut = call.AmountOut
	if call.Request.Fees.Direction != fee.FromDestination {
		return nil
	}
	if err := s.destinationFees(call); err != nil {
		return err
	}
	actualOut, err := utils.CheckedSub(call.AmountOut, call.DestinationFees.Commission)
	if err != nil {
		return err
	}
	call.ActualOut = actualOut
	return s.payFees(call, call.Destination, call.Authority, call.DestinationFees)
}
