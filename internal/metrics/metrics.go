package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/oss-sentinel/sentinel/internal/domain"
)

var (
	ProbeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_probes_total",
			Help: "Total number of probes executed",
		},
		[]string{"service", "status"},
	)

	ProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentinel_probe_duration_seconds",
			Help:    "Time spent waiting for probed endpoints",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_notifications_total",
			Help: "Alert notifications attempted",
		},
		[]string{"result"},
	)

	AppendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_history_append_errors_total",
			Help: "Failed writes to the history store",
		},
	)
)

// RecordProbe updates the probe counters for one completed outcome.
func RecordProbe(o domain.ProbeOutcome) {
	ProbeTotal.WithLabelValues(o.ServiceName, string(o.Status)).Inc()
	if o.ResponseTime != nil {
		ProbeDuration.WithLabelValues(o.ServiceName).Observe(*o.ResponseTime)
	}
}

// RecordNotification counts one notification attempt.
func RecordNotification(err error) {
	result := "sent"
	if err != nil {
		result = "error"
	}
	NotificationsTotal.WithLabelValues(result).Inc()
}
