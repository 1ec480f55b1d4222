package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// DistributionMetrics collects the operational counters and gauges for the
// distribution module.
type DistributionMetrics struct {
	rootsPublished prometheus.Counter
	claimsPaid     prometheus.Counter
	claimsRejected *prometheus.CounterVec
	claimedTotal   prometheus.Gauge
	distributable  prometheus.Gauge
}

var (
	distributionOnce     sync.Once
	distributionRegistry *DistributionMetrics
)

// Distribution returns the process-wide distribution metrics, registering the
// collectors on first use.
func Distribution() *DistributionMetrics {
	distributionOnce.Do(func() {
		distributionRegistry = &DistributionMetrics{
			rootsPublished: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "distribution_roots_published_total",
				Help: "Count of cycle roots published.",
			}),
			claimsPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "distribution_claims_paid_total",
				Help: "Count of claims paid out.",
			}),
			claimsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "distribution_claims_rejected_total",
				Help: "Count of rejected claims by reason.",
			}, []string{"reason"}),
			claimedTotal: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "distribution_claimed_tokens",
				Help: "Lifetime claimed amount in whole tokens.",
			}),
			distributable: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "distribution_distributable_tokens",
				Help: "Remaining distributable amount in whole tokens.",
			}),
		}
		prometheus.MustRegister(
			distributionRegistry.rootsPublished,
			distributionRegistry.claimsPaid,
			distributionRegistry.claimsRejected,
			distributionRegistry.claimedTotal,
			distributionRegistry.distributable,
		)
	})
	return distributionRegistry
}

func (m *DistributionMetrics) ObserveRootPublished() {
	if m == nil {
		return
	}
	m.rootsPublished.Inc()
}

func (m *DistributionMetrics) ObserveClaimPaid() {
	if m == nil {
		return
	}
	m.claimsPaid.Inc()
}

func (m *DistributionMetrics) ObserveClaimRejected(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.claimsRejected.WithLabelValues(reason).Inc()
}

func (m *DistributionMetrics) SetClaimedTotal(tokens float64) {
	if m == nil {
		return
	}
	m.claimedTotal.Set(tokens)
}

func (m *DistributionMetrics) SetDistributable(tokens float64) {
	if m == nil {
		return
	}
	m.distributable.Set(tokens)
}
