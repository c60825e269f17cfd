// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns a private registry so a run only exports its own series.
// A nil *Recorder records nothing.
type Recorder struct {
	registry         *prometheus.Registry
	sessions         *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	mealsPersisted   prometheus.Counter
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		sessions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealplanner_sessions_total",
				Help: "Total number of planning sessions by outcome",
			},
			[]string{"outcome"},
		),
		providerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mealplanner_provider_request_duration_seconds",
				Help:    "Duration of suggestion provider calls in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"provider", "status"},
		),
		mealsPersisted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mealplanner_meals_persisted_total",
				Help: "Total number of meal suggestions stored",
			},
		),
	}
}

func (r *Recorder) SessionFinished(outcome string) {
	if r == nil {
		return
	}
	r.sessions.WithLabelValues(outcome).Inc()
}

// ObserveProvider records one provider call; status is "ok" or an error code.
func (r *Recorder) ObserveProvider(provider, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.providerDuration.WithLabelValues(provider, status).Observe(d.Seconds())
}

func (r *Recorder) MealsPersisted(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.mealsPersisted.Add(float64(n))
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
