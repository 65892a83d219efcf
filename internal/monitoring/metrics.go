// Package monitoring holds the Prometheus metrics of a pipeline run.
package monitoring

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "osmclean"

// Metrics is the set of collectors for one run, on its own registry.
type Metrics struct {
	Registry           *prometheus.Registry
	ElementsRead       *prometheus.CounterVec
	DocumentsWritten   prometheus.Counter
	TagsRouted         *prometheus.CounterVec
	ProjectionErrors   prometheus.Counter
	UnexpectedChildren prometheus.Counter
	AuditFindings      *prometheus.CounterVec
	AuditKeys          *prometheus.CounterVec
	BatchDuration      prometheus.Histogram
}

// NewMetrics registers a fresh set of collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ElementsRead: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "elements_read_total",
				Help:      "First-level elements read from the export",
			},
			[]string{"kind"},
		),
		DocumentsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "documents_written_total",
			Help:      "Documents handed to the sink",
		}),
		TagsRouted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "tags_routed_total",
				Help:      "Tags folded into documents, by route",
			},
			[]string{"route"},
		),
		ProjectionErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "projection_errors_total",
			Help:      "Elements that could not be projected",
		}),
		UnexpectedChildren: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "unexpected_children_total",
			Help:      "Child elements of a kind the projector does not route",
		}),
		AuditFindings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "audit_findings_total",
				Help:      "Attribute audit findings, by kind",
			},
			[]string{"kind"},
		),
		AuditKeys: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "audit_keys_total",
				Help:      "Tag keys seen by the audit pass, by syntax class",
			},
			[]string{"class"},
		),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time spent projecting one batch of elements",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}),
	}
}

// ObserveBatch records the duration of one projected batch.
func (m *Metrics) ObserveBatch(start time.Time) {
	m.BatchDuration.Observe(time.Since(start).Seconds())
}

// WriteTextfile writes every collector in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}

	return nil
}
