package swap

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/egaotan/solana-router/program"
)

// LegEvent describes one executed fork leg.
type LegEvent struct {
	Route       int
	Hop         int
	Leg         int
	Dex         program.Dex
	Source      solana.PublicKey
	Destination solana.PublicKey
	AmountIn    uint64
	AmountOut   uint64
}

// HopEvent describes one hop account transition.
type HopEvent struct {
	Route     int
	Hop       int
	LastTo    solana.PublicKey
	From      solana.PublicKey
	To        solana.PublicKey
	AmountIn  uint64
	AmountOut uint64
}

type EventSink interface {
	OnLeg(event LegEvent)
	OnHop(event HopEvent)
}

// Recorder buffers events so they can be delivered after the call commits.
// Legs run one after another, so it is not safe for concurrent use.
type Recorder struct {
	Legs []LegEvent
	Hops []HopEvent
}

func (r *Recorder) OnLeg(event LegEvent) {
	r.Legs = append(r.Legs, event)
}

func (r *Recorder) OnHop(event HopEvent) {
	r.Hops = append(r.Hops, event)
}

// Replay delivers the recorded events to sink in the order they happened
// within each kind.
func (r *Recorder) Replay(sink EventSink) {
	for _, event := range r.Legs {
		sink.OnLeg(event)
	}
	for _, event := range r.Hops {
		sink.OnHop(event)
	}
}

// LogSink writes every event to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) OnLeg(event LegEvent) {
	s.logger.Info("swap leg",
		zap.Int("route", event.Route),
		zap.Int("hop", event.Hop),
		zap.Int("leg", event.Leg),
		zap.Stringer("dex", event.Dex),
		zap.Uint64("amount_in", event.AmountIn),
		zap.Uint64("amount_out", event.AmountOut),
	)
}

func (s *LogSink) OnHop(event HopEvent) {
	s.logger.Info("hop accounts",
		zap.Int("route", event.Route),
		zap.Int("hop", event.Hop),
		zap.Stringer("last_to", event.LastTo),
		zap.Stringer("from", event.From),
		zap.Stringer("to", event.To),
	)
}

// Sinks fans events out to several sinks.
type Sinks []EventSink

func (s Sinks) OnLeg(event LegEvent) {
	for _, sink := range s {
		sink.OnLeg(event)
	}
}

func (s Sinks) OnHop(event HopEvent) {
	for _, sink := range s {
		sink.OnHop(event)
	}
}

type nopSink struct{}

func (nopSink) OnLeg(LegEvent) {}
func (nopSink) OnHop(HopEvent) {}
