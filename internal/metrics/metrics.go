package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "beauty"
	subsystem = "booking"
)

// Booking holds the checkout and commit metrics
type Booking struct {
	// Commit related metrics
	Commits            *prometheus.CounterVec
	CommitStepFailures *prometheus.CounterVec
	ReindexRuns        prometheus.Counter
	IndexRepairs       *prometheus.CounterVec

	// Workflow metrics
	ValidationRejections *prometheus.CounterVec
	SettlementDuration   prometheus.Histogram
	Settlements          *prometheus.CounterVec
}

// NewBooking creates the booking metrics and registers them with reg
func NewBooking(reg prometheus.Registerer) *Booking {
	factory := promauto.With(reg)

	return &Booking{
		Commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commits_total",
			Help:      "Total number of reservation commits by result",
		}, []string{"result"}),
		CommitStepFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commit_step_failures_total",
			Help:      "Total number of failed collection writes during a commit",
		}, []string{"collection"}),
		ReindexRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reindex_runs_total",
			Help:      "Total number of index rebuilds",
		}),
		IndexRepairs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "index_repairs_total",
			Help:      "Total number of index keys rewritten or removed by a rebuild",
		}, []string{"action"}),
		ValidationRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validation_rejections_total",
			Help:      "Total number of payment submissions rejected by validation",
		}, []string{"code"}),
		SettlementDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "settlement_duration_seconds",
			Help:      "Time from accepted submission to settled payment",
			Buckets:   []float64{.1, .25, .5, 1, 2, 3, 5, 10},
		}),
		Settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "settlements_total",
			Help:      "Total number of settlements by method and outcome",
		}, []string{"method", "outcome"}),
	}
}

// NewNop returns metrics registered on a throwaway registry, for tests and tools
func NewNop() *Booking {
	return NewBooking(prometheus.NewRegistry())
}
