package aggregator

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/backend"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/spltoken"
	"github.com/egaotan/solana-router/swap"
	"github.com/egaotan/solana-router/utils"
)

// Orchestrator is the swap entry point. A call runs validate, prepare,
// before swap, distribute, after swap and reconcile inside one host
// transaction; any failing stage rolls back every effect of the call.
type Orchestrator struct {
	host        backend.Host
	distributor *swap.Distributor
	token       *spltoken.Program
	strategies  map[Mode]Strategy
	observers   []Observer
	sinks       swap.Sinks
	log         *zap.Logger
}

func NewOrchestrator(host backend.Host, distributor *swap.Distributor, token *spltoken.Program, logger *zap.Logger, strategies ...Strategy) *Orchestrator {
	o := &Orchestrator{
		host:        host,
		distributor: distributor,
		token:       token,
		strategies:  make(map[Mode]Strategy, len(strategies)),
		log:         utils.OrNop(logger),
	}
	for _, strategy := range strategies {
		o.strategies[strategy.Mode()] = strategy
	}
	o.sinks = swap.Sinks{swap.NewLogSink(o.log)}
	return o
}

// AddObserver must be called before the first swap.
func (o *Orchestrator) AddObserver(observer Observer) {
	o.observers = append(o.observers, observer)
}

// AddSink registers sink for the leg and hop events of committed calls,
// after the log sink. Like AddObserver it must be called before the first swap.
func (o *Orchestrator) AddSink(sink swap.EventSink) {
	o.sinks = append(o.sinks, sink)
}

type balances struct {
	sourceExists bool
	source       uint64
	destination  uint64
}

func (o *Orchestrator) Swap(ctx context.Context, req *Request) (*Result, error) {
	strategy, ok := o.strategies[req.Mode]
	if !ok {
		return nil, errcode.ErrInvalidMode.Wrapf("%s is not enabled", req.Mode)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	o.log.Info("swap basic info",
		zap.Uint64("order_id", req.OrderID),
		zap.Stringer("mode", req.Mode),
		zap.Stringer("source", req.SourceAccount),
		zap.Stringer("destination", req.DestinationAccount),
		zap.Uint64("amount_in", req.Plan.AmountIn),
		zap.Uint64("expect_amount_out", req.Plan.ExpectAmountOut),
		zap.Uint64("min_return", req.Plan.MinReturn),
	)

	call := newCall(req)
	recorder := &swap.Recorder{}
	err := o.host.Atomic(func() error {
		return o.execute(ctx, strategy, call, recorder)
	})
	if err != nil {
		o.log.Warn("swap failed",
			zap.Uint64("order_id", req.OrderID),
			zap.Stringer("class", errcode.ClassOf(err)),
			zap.Error(err),
		)
		return nil, err
	}

	result := &Result{
		OrderID:     req.OrderID,
		Mode:        req.Mode,
		Payer:       req.Payer,
		Source:      req.SourceAccount,
		Destination: req.DestinationAccount,
		AmountIn:    req.Plan.AmountIn,
		ActualIn:    call.ActualIn,
		AmountOut:   call.AmountOut,
		ActualOut:   call.ActualOut,
		Commission:  call.SourceFees.Commission + call.DestinationFees.Commission,
		PlatformFee: call.SourceFees.PlatformFee + call.DestinationFees.PlatformFee,
		Trim:        call.Trim,
		Slot:        o.slot(req.DestinationAccount),
		Legs:        recorder.Legs,
		Hops:        recorder.Hops,
	}
	o.log.Info("swap end",
		zap.Uint64("order_id", req.OrderID),
		zap.Uint64("amount_out", result.AmountOut),
		zap.Uint64("actual_out", result.ActualOut),
	)
	recorder.Replay(o.sinks)
	for _, observer := range o.observers {
		observer.OnSwap(result)
	}
	return result, nil
}

func (o *Orchestrator) execute(ctx context.Context, strategy Strategy, call *Call, sink swap.EventSink) error {
	req := call.Request
	if err := strategy.Prepare(call); err != nil {
		return err
	}
	before, err := o.balances(req)
	if err != nil {
		return err
	}
	if err := strategy.BeforeSwap(call); err != nil {
		return err
	}
	out, err := o.distributor.Execute(ctx, &swap.Params{
		Plan:        req.Plan,
		Source:      call.Source,
		Destination: call.Destination,
		Authority:   call.Authority,
		Accounts:    req.Accounts,
		Sink:        sink,
		Custodial:   call.Custodial,
	})
	if err != nil {
		return err
	}
	call.AmountOut = out
	if err := strategy.AfterSwap(call); err != nil {
		return err
	}
	return o.reconcile(call, before)
}

func (o *Orchestrator) balances(req *Request) (*balances, error) {
	b := &balances{}
	exists, err := o.token.Exists(req.SourceAccount)
	if err != nil {
		return nil, err
	}
	if exists {
		b.sourceExists = true
		if b.source, err = o.token.GetBalance(req.SourceAccount); err != nil {
			return nil, err
		}
	}
	if b.destination, err = o.token.GetBalance(req.DestinationAccount); err != nil {
		return nil, err
	}
	return b, nil
}

// reconcile checks the payer's accounts against what the call settled. The
// payer receives exactly actual out and is never debited more than actual in.
func (o *Orchestrator) reconcile(call *Call, before *balances) error {
	req := call.Request
	after, err := o.token.GetBalance(req.DestinationAccount)
	if err != nil {
		return err
	}
	received, err := utils.CheckedSub(after, before.destination)
	if err != nil || received != call.ActualOut {
		return errcode.ErrBalanceMismatch.Wrapf("destination went from %d to %d, actual out %d", before.destination, after, call.ActualOut)
	}
	if !before.sourceExists || req.SourceAccount == req.DestinationAccount {
		return nil
	}
	exists, err := o.token.Exists(req.SourceAccount)
	if err != nil || !exists {
		return err
	}
	source, err := o.token.GetBalance(req.SourceAccount)
	if err != nil {
		return err
	}
	debited, err := utils.CheckedSub(before.source, source)
	if err != nil || debited > call.ActualIn {
		return errcode.ErrBalanceMismatch.Wrapf("source went from %d to %d, actual in %d", before.source, source, call.ActualIn)
	}
	return nil
}

func (o *Orchestrator) slot(key solana.PublicKey) uint64 {
	account, err := o.host.Account(key)
	if err != nil {
		return 0
	}
	return account.Height
}
