package upgrade

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSucceeded    = "succeeded"
	outcomeSyncFailed   = "entitlement_sync_failed"
	outcomeCardDeclined = "card_declined"
	outcomeNetwork      = "network_error"
	outcomeInvalidReq   = "invalid_request"
	outcomeInvalidPrice = "invalid_price_ref"
	outcomeAbandoned    = "abandoned"
)

type metrics struct {
	attempts       *prometheus.CounterVec
	chargeDuration prometheus.Histogram
}

// newMetrics creates the coordinator collectors and registers them on reg
// when it is not nil. Collectors already registered by another coordinator
// are shared.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vipgate",
			Subsystem: "upgrade",
			Name:      "attempts_total",
			Help:      "Upgrade attempts by terminal outcome.",
		}, []string{"outcome"}),
		chargeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vipgate",
			Subsystem: "upgrade",
			Name:      "charge_duration_seconds",
			Help:      "Duration of payment gateway charge calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
	}
	if reg == nil {
		return m
	}

	m.attempts = register(reg, m.attempts)
	m.chargeDuration = register(reg, m.chargeDuration)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *metrics) outcome(o string) {
	m.attempts.WithLabelValues(o).Inc()
}

func outcomeFor(r FailureReason) string {
	switch r {
	case ReasonCardDeclined:
		return outcomeCardDeclined
	case ReasonInvalidRequest:
		return outcomeInvalidReq
	case ReasonInvalidPriceRef:
		return outcomeInvalidPrice
	default:
		return outcomeNetwork
	}
}
