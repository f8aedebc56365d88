package metrics

import (
	"context"
	"net/http"
	"strings"

	"github.com/goliatone/go-provider-api/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "provider_api"

// Metrics holds the application collectors. Each instance owns its
// registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	ProviderOperations *prometheus.CounterVec
	AuthEvents         *prometheus.CounterVec
}

// New registers the application collectors plus the Go and process
// collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ProviderOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_operations_total",
			Help:      "Provider handler outcomes by operation",
		}, []string{"operation", "outcome"}),
		AuthEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Registration and login outcomes",
		}, []string{"action", "outcome"}),
	}
}

// ObserveProviderOperation counts a provider handler outcome
func (m *Metrics) ObserveProviderOperation(op, outcome string) {
	m.ProviderOperations.WithLabelValues(op, outcome).Inc()
}

// Record counts auth activity, it never fails
func (m *Metrics) Record(_ context.Context, event auth.ActivityEvent) error {
	action, outcome := splitEventType(event.EventType)
	m.AuthEvents.WithLabelValues(action, outcome).Inc()
	return nil
}

var _ auth.ActivitySink = (*Metrics)(nil)

// splitEventType turns "auth.login.locked_out" into ("login", "locked_out")
func splitEventType(t auth.ActivityEventType) (string, string) {
	parts := strings.SplitN(strings.TrimPrefix(string(t), "auth."), ".", 2)
	if len(parts) != 2 {
		return string(t), "unknown"
	}
	return parts[0], parts[1]
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the text exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry: m.registry,
	})
}
