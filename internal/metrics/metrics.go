package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors, registered via Register.
var (
	regOK atomic.Bool

	toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uxplay",
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "Number of tool invocations by tool name and outcome.",
		}, []string{"tool", "status"},
	)
	toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "uxplay",
			Subsystem: "mcp",
			Name:      "tool_call_duration_seconds",
			Help:      "Tool invocation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"},
	)
	processStarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "uxplay",
			Subsystem: "process",
			Name:      "starts_total",
			Help:      "Number of successful uxplay starts.",
		},
	)
	processStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "uxplay",
			Subsystem: "process",
			Name:      "stops_total",
			Help:      "Number of uxplay stops (graceful or kill).",
		},
	)
)

// Register registers all collectors with r. Safe to call multiple times;
// calls after the first success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	for _, c := range []prometheus.Collector{toolCalls, toolCallDuration, processStarts, processStops} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// RegisterDefault registers against the default prometheus registry.
func RegisterDefault() error { return Register(prometheus.DefaultRegisterer) }

// Handler exposes the default registry for mounting at /metrics.
func Handler() http.Handler { return promhttp.Handler() }

func ObserveToolCall(tool, status string, seconds float64) {
	toolCalls.WithLabelValues(tool, status).Inc()
	toolCallDuration.WithLabelValues(tool).Observe(seconds)
}

func IncProcessStart() { processStarts.Inc() }
func IncProcessStop()  { processStops.Inc() }
