// Package metrics counts field and pass outcomes and writes them as a
// node_exporter textfile.
package metrics

import (
	"strings"
	"time"

	"spreader/internal/cfgerr"
	"spreader/internal/field"
	"spreader/internal/spreader"

	"github.com/prometheus/client_golang/prometheus"
)

const promNamespace = "spreader"

// Prometheus implements spreader.Observer.
type Prometheus struct {
	registry       *prometheus.Registry
	fieldsResolved *prometheus.CounterVec
	fieldsRejected *prometheus.CounterVec
	passes         *prometheus.CounterVec
	passDuration   prometheus.Histogram
}

var _ spreader.Observer = (*Prometheus)(nil)

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	fieldsResolved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "fields_resolved_total",
		Help:      "Total number of accepted field values.",
	}, []string{"field"})
	fieldsRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "fields_rejected_total",
		Help:      "Total number of rejected field values by error kind.",
	}, []string{"field", "kind"})
	passes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "passes_total",
		Help:      "Total number of finished resolution passes.",
	}, []string{"phase", "stage"})
	passDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: promNamespace,
		Name:      "pass_duration_seconds",
		Help:      "Wall time of a resolution pass, prompts included.",
		Buckets:   []float64{0.001, 0.01, 0.1, 1, 10, 60, 300},
	})

	registry.MustRegister(fieldsResolved, fieldsRejected, passes, passDuration)

	return &Prometheus{
		registry:       registry,
		fieldsResolved: fieldsResolved,
		fieldsRejected: fieldsRejected,
		passes:         passes,
		passDuration:   passDuration,
	}
}

func (p *Prometheus) FieldResolved(key field.Key) {
	p.fieldsResolved.WithLabelValues(string(key)).Inc()
}

func (p *Prometheus) FieldRejected(key field.Key, kind cfgerr.Kind) {
	if kind == "" {
		kind = "other"
	}
	p.fieldsRejected.WithLabelValues(string(key), string(kind)).Inc()
}

func (p *Prometheus) PassFinished(phase spreader.Phase, stage spreader.Stage, elapsed time.Duration) {
	label := string(stage)
	if label == "" {
		label = "none"
	}
	p.passes.WithLabelValues(phase.String(), label).Inc()
	p.passDuration.Observe(elapsed.Seconds())
}

func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// WriteTextfile writes the current counters to path. An empty path is a
// no-op.
func (p *Prometheus) WriteTextfile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, p.registry)
}
