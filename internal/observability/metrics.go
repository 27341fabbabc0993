package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ToolInvocations      *prometheus.CounterVec
	FallbacksTotal       *prometheus.CounterVec
	StoreLatency         prometheus.Histogram
	ConversationsStarted prometheus.Counter
	CodingDetections     prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ToolInvocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Operations served by the legacy path after a rich-path failure.",
		}, []string{"tool"}),
		StoreLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_latency_ms",
			Help:      "Backend store call latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
		}),
		ConversationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_started_total",
			Help:      "Conversations initialized by this process.",
		}),
		CodingDetections: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coding_detections_total",
			Help:      "Set operations enriched with coding dimensions.",
		}),
	}
}

func (m *Metrics) ObserveStoreLatency(d time.Duration) {
	m.StoreLatency.Observe(float64(d.Milliseconds()))
}

// ObserveTool records one tool invocation outcome: ok, fallback or error.
func (m *Metrics) ObserveTool(tool, outcome string) {
	m.ToolInvocations.WithLabelValues(tool, outcome).Inc()
	if outcome == "fallback" {
		m.FallbacksTotal.WithLabelValues(tool).Inc()
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
