package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	LockTierConfig    = "tier_config"
	LockVendorHistory = "vendor_history"
)

// CreditMetrics holds the prometheus collectors scraped from /metrics.
type CreditMetrics struct {
	lockWait       *prometheus.HistogramVec
	creditScores   prometheus.Histogram
	snapshotLookup *prometheus.CounterVec
	retries        *prometheus.CounterVec
}

var (
	creditMetricsOnce sync.Once
	creditMetrics     *CreditMetrics
)

// Credit returns the process-wide collectors registered on the default registerer.
func Credit() *CreditMetrics {
	return CreditWithConfig(Config{})
}

func CreditWithConfig(cfg Config) *CreditMetrics {
	creditMetricsOnce.Do(func() {
		creditMetrics = newCreditMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return creditMetrics
}

// NewCreditMetricsForTest registers collectors on a private registry.
func NewCreditMetricsForTest(registerer prometheus.Registerer) *CreditMetrics {
	return newCreditMetrics(registerer, Config{ServiceName: "test", Environment: "test"})
}

func newCreditMetrics(registerer prometheus.Registerer, cfg Config) *CreditMetrics {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "vendorcredit"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{"service": serviceName, "env": environment}

	m := &CreditMetrics{
		lockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "vendorcredit_lock_wait_seconds",
			Help:        "Time spent waiting for a critical section.",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: constLabels,
		}, []string{"resource"}),
		creditScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "vendorcredit_credit_score",
			Help:        "Credit scores produced by repayment history updates.",
			Buckets:     prometheus.LinearBuckets(0, 10, 11),
			ConstLabels: constLabels,
		}),
		snapshotLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "vendorcredit_tier_snapshot_lookups_total",
			Help:        "Tier snapshot cache lookups by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "vendorcredit_retries_total",
			Help:        "Retried operations by name.",
			ConstLabels: constLabels,
		}, []string{"operation"}),
	}

	registerer.MustRegister(m.lockWait, m.creditScores, m.snapshotLookup, m.retries)
	return m
}

func (m *CreditMetrics) ObserveLockWait(resource string, wait time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.WithLabelValues(resource).Observe(wait.Seconds())
}

func (m *CreditMetrics) ObserveCreditScore(score int) {
	if m == nil {
		return
	}
	m.creditScores.Observe(float64(score))
}

func (m *CreditMetrics) RecordSnapshotLookup(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.snapshotLookup.WithLabelValues(outcome).Inc()
}

func (m *CreditMetrics) RecordRetry(operation string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(operation).Inc()
}
