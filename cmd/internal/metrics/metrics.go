package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics for the engine.
type Metrics struct {
	ActionsTotal   *prometheus.CounterVec
	ActionErrors   *prometheus.CounterVec
	SlotConflicts  prometheus.Counter
	ActionDuration prometheus.Histogram
}

// New registers the engine metrics on the given registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "The total number of dispatched actions",
		}, []string{"action"}),
		ActionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_errors_total",
			Help:      "The total number of failed actions",
		}, []string{"action", "code"}),
		SlotConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "The total number of booking attempts rejected for slot conflicts",
		}),
		ActionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Time taken to execute actions",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
