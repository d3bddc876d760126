// Package observability mirrors the matching engine's own telemetry
// counters as Prometheus collectors. It is additive: matching.Telemetry
// remains the source of truth checked by the engine's own tests; this
// package only re-exports periodic snapshots of it for /metrics
// scraping, the way the retrieval pack's ch13_stock_exchange and
// digital-wallet services expose their own internal counters.
package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matchcore/matching"
)

// DefaultMetricsAddr is the fixed listen address for the /metrics
// endpoint. It is not configurable via environment variables or
// flags, matching the exchange binaries' no-environment-variable CLI
// contract.
const DefaultMetricsAddr = ":9090"

// Bridge owns a private Prometheus registry and the gauges/counters it
// publishes. A private registry (rather than the default global one)
// keeps repeated construction — as happens across this package's own
// tests — from panicking on duplicate registration.
type Bridge struct {
	registry *prometheus.Registry

	ordersProcessed prometheus.Counter
	avgLatencyUs    prometheus.Gauge
	minLatencyUs    prometheus.Gauge
	maxLatencyUs    prometheus.Gauge
}

// NewBridge constructs a Bridge with its own registry and collectors.
func NewBridge() *Bridge {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Bridge{
		registry: reg,
		ordersProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "matchcore_orders_processed_total",
			Help: "Total number of orders processed by the matching engine.",
		}),
		avgLatencyUs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "matchcore_order_latency_avg_microseconds",
			Help: "Average per-order processing latency, in microseconds.",
		}),
		minLatencyUs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "matchcore_order_latency_min_microseconds",
			Help: "Minimum observed per-order processing latency, in microseconds.",
		}),
		maxLatencyUs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "matchcore_order_latency_max_microseconds",
			Help: "Maximum observed per-order processing latency, in microseconds.",
		}),
	}
}

// Observe publishes one telemetry snapshot to the collectors. The
// orders-processed counter only ever moves forward, so Observe adds
// the delta since the last observed total rather than setting an
// absolute value — a Prometheus Counter cannot be set backward or to
// an arbitrary value.
func (b *Bridge) Observe(snap matching.Snapshot, lastProcessed uint64) {
	if delta := snap.OrdersProcessed - lastProcessed; delta > 0 {
		b.ordersProcessed.Add(float64(delta))
	}
	if snap.OrdersProcessed > 0 {
		b.avgLatencyUs.Set(float64(snap.TotalLatencyNs) / 1000.0 / float64(snap.OrdersProcessed))
		b.minLatencyUs.Set(float64(snap.MinLatencyNs) / 1000.0)
	}
	b.maxLatencyUs.Set(float64(snap.MaxLatencyNs) / 1000.0)
}

// Handler returns the HTTP handler that serves this bridge's registry
// at /metrics.
func (b *Bridge) Handler() http.Handler {
	return promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{})
}

// Sampler drives Observe from a running pipeline's telemetry once per
// tick, wired as the onSample callback of a
// matching.NewThroughputLogger. It tracks the previously observed
// total so Observe can compute the counter delta.
type Sampler struct {
	bridge        *Bridge
	lastProcessed uint64
}

// NewSampler builds a Sampler over bridge.
func NewSampler(bridge *Bridge) *Sampler {
	return &Sampler{bridge: bridge}
}

// Sample is called with each matching.Snapshot; it forwards to the
// bridge and remembers the observed total.
func (s *Sampler) Sample(snap matching.Snapshot) {
	s.bridge.Observe(snap, s.lastProcessed)
	s.lastProcessed = snap.OrdersProcessed
}

// MetricsServer serves a Bridge's /metrics endpoint on
// DefaultMetricsAddr.
type MetricsServer struct {
	srv *http.Server
}

// NewMetricsServer builds a MetricsServer for bridge. Call
// ListenAndServe to start it and Close to shut it down.
func NewMetricsServer(bridge *Bridge) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", bridge.Handler())
	return &MetricsServer{srv: &http.Server{Addr: DefaultMetricsAddr, Handler: mux}}
}

// ListenAndServe blocks serving /metrics until Close is called, at
// which point it returns nil; any other serve error is returned as is.
func (m *MetricsServer) ListenAndServe() error {
	err := m.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close shuts the metrics server down.
func (m *MetricsServer) Close() error {
	return m.srv.Shutdown(context.Background())
}
