// Package metrics counts auth outcomes and exposes them to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type (
	Recorder struct {
		registry *prometheus.Registry
		requests *prometheus.CounterVec
	}
)

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authserver",
			Name:      "requests_total",
			Help:      "Auth requests by operation and outcome",
		}, []string{"op", "outcome"}),
	}
	r.registry.MustRegister(r.requests)
	return r
}

// Observe counts one request for op, outcome is a short label such as "ok" or "conflict"
func (r *Recorder) Observe(op, outcome string) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(op, outcome).Inc()
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
