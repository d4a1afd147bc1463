package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/egaotan/solana-router/aggregator"
	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/swap"
)

const namespace = "router"

// Metrics holds the router's collectors on a registry of its own, so several
// routers can live in one process.
type Metrics struct {
	registry     *prometheus.Registry
	swaps        *prometheus.CounterVec
	swapDuration *prometheus.HistogramVec
	legs         *prometheus.CounterVec
	amountOut    *prometheus.CounterVec
	apiRequests  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		swaps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "swaps_total",
				Help:      "Swap calls by mode, result and error class.",
			},
			[]string{"mode", "result", "class"},
		),
		swapDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "swap_duration_seconds",
				Help:      "Swap call duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		legs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "legs_total",
				Help:      "Committed fork legs by venue.",
			},
			[]string{"dex"},
		),
		amountOut: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "leg_amount_out_total",
				Help:      "Raw destination amount produced by committed legs, by venue.",
			},
			[]string{"dex"},
		),
		apiRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "API requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
	}
}

// ObserveSwap counts one swap call; err is nil for committed calls.
func (m *Metrics) ObserveSwap(mode aggregator.Mode, err error, elapsed time.Duration) {
	result, class := "ok", "none"
	if err != nil {
		result, class = "failed", errcode.ClassOf(err).String()
	}
	m.swaps.WithLabelValues(mode.String(), result, class).Inc()
	m.swapDuration.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
}

// OnLeg counts one leg of a committed swap.
func (m *Metrics) OnLeg(event swap.LegEvent) {
	m.legs.WithLabelValues(event.Dex.String()).Inc()
	m.amountOut.WithLabelValues(event.Dex.String()).Add(float64(event.AmountOut))
}

func (m *Metrics) OnHop(swap.HopEvent) {}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
