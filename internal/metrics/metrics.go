package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crate"

// Deletion triggers recorded on the deleted counter.
const (
	TriggerDuplicate    = "duplicate"
	TriggerOwnerDeleted = "owner_deleted"
	TriggerGrabbed      = "grabbed"
	TriggerRejected     = "rejected"
	TriggerRemoved      = "removed"
)

// Pending holds the pending-release collectors. A nil *Pending records nothing.
type Pending struct {
	inserted          prometheus.Counter
	reasonUpdated     *prometheus.CounterVec
	duplicatesRemoved prometheus.Counter
	deleted           *prometheus.CounterVec
	queueItems        prometheus.Gauge
	reconcileDuration prometheus.Histogram
}

// NewPending registers the pending-release collectors on reg.
func NewPending(reg prometheus.Registerer) *Pending {
	factory := promauto.With(reg)
	return &Pending{
		inserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pending",
			Name:      "inserted_total",
			Help:      "Pending releases inserted by reconciliation",
		}),
		reasonUpdated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pending",
			Name:      "reason_updated_total",
			Help:      "Pending releases whose hold reason changed, by new reason",
		}, []string{"reason"}),
		duplicatesRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pending",
			Name:      "duplicates_removed_total",
			Help:      "Duplicate pending releases removed during reconciliation",
		}),
		deleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pending",
			Name:      "deleted_total",
			Help:      "Pending releases deleted, by trigger",
		}, []string{"trigger"}),
		queueItems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pending",
			Name:      "queue_items",
			Help:      "Queue items produced by the last projection",
		}),
		reconcileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pending",
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconcile passes in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

func (p *Pending) RecordInserted() {
	if p == nil {
		return
	}
	p.inserted.Inc()
}

func (p *Pending) RecordReasonUpdated(reason string) {
	if p == nil {
		return
	}
	p.reasonUpdated.WithLabelValues(reason).Inc()
}

func (p *Pending) RecordDuplicatesRemoved(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.duplicatesRemoved.Add(float64(n))
	p.deleted.WithLabelValues(TriggerDuplicate).Add(float64(n))
}

func (p *Pending) RecordDeleted(trigger string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.deleted.WithLabelValues(trigger).Add(float64(n))
}

func (p *Pending) SetQueueItems(n int) {
	if p == nil {
		return
	}
	p.queueItems.Set(float64(n))
}

func (p *Pending) ObserveReconcile(seconds float64) {
	if p == nil {
		return
	}
	p.reconcileDuration.Observe(seconds)
}
