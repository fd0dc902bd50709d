// Package metrics exposes Prometheus instruments for the lifecycle layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects lifecycle counters. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	operations    *prometheus.CounterVec
	refunds       *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewRecorder creates the instruments and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circles",
			Name:      "lifecycle_operations_total",
			Help:      "Lifecycle operations by operation and result code.",
		}, []string{"operation", "code"}),
		refunds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circles",
			Name:      "refunded_minor_units_total",
			Help:      "Amount credited to balances, in minor units of the currency.",
		}, []string{"currency"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circles",
			Name:      "notifications_total",
			Help:      "Notification attempts by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(r.operations, r.refunds, r.notifications)
	return r
}

// Operation counts one finished lifecycle operation. code is "ok" on
// success.
func (r *Recorder) Operation(operation, code string) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(operation, code).Inc()
}

// Refund counts an amount credited to a balance.
func (r *Recorder) Refund(currency string, amount int64) {
	if r == nil || amount <= 0 {
		return
	}
	r.refunds.WithLabelValues(currency).Add(float64(amount))
}

// Notification counts a notification attempt.
func (r *Recorder) Notification(kind string, err error) {
	if r == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	r.notifications.WithLabelValues(kind, outcome).Inc()
}
