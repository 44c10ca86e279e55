package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OpRegister = "register"
	OpLogin    = "login"
	OpRefresh  = "refresh"
	OpLogout   = "logout"
)

// Recorder counts auth operation outcomes. A nil *Recorder records nothing.
type Recorder struct {
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Auth operations by operation and result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auth_operation_duration_seconds",
			Help:    "Auth operation latency, hashing and signing included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(r.outcomes, r.duration)
	return r
}

func (r *Recorder) Observe(op, result string, started time.Time) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(op, result).Inc()
	r.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
