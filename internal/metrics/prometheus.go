package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starkstake/starkstake/internal/logging"
	"github.com/starkstake/starkstake/internal/util"
)

const namespace = "starkstake"

// Session states exported by the session gauge.
var sessionStates = []string{"disconnected", "connecting", "connected"}

// PrometheusCollector feeds both the in-process Collector and a dedicated
// Prometheus registry.
type PrometheusCollector struct {
	collector *Collector
	registry  *prometheus.Registry

	rpcRequests   *prometheus.CounterVec
	rpcDuration   *prometheus.HistogramVec
	transactions  *prometheus.CounterVec
	txDuration    *prometheus.HistogramVec
	sessionState  *prometheus.GaugeVec
	probeFailures prometheus.Counter
	uptimeSeconds prometheus.GaugeFunc
}

// NewPrometheusCollector registers everything in its own registry so it
// never collides with the global one.
func NewPrometheusCollector(c *Collector) *PrometheusCollector {
	reg := prometheus.NewRegistry()

	p := &PrometheusCollector{
		collector: c,
		registry:  reg,
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Starknet RPC requests by method and result.",
		}, []string{"method", "result"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_request_duration_seconds",
			Help:      "Starknet RPC latency by method.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Staking steps by action and outcome.",
		}, []string{"action", "outcome"}),
		txDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_duration_seconds",
			Help:      "Time from submission to outcome by action.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"action"}),
		sessionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wallet_session_state",
			Help:      "1 for the current wallet session state.",
		}, []string{"state"}),
		probeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_probe_failures_total",
			Help:      "Failed wallet liveness probes.",
		}),
	}
	p.uptimeSeconds = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Time since the process started in seconds.",
	}, func() float64 { return time.Since(c.startTime).Seconds() })

	reg.MustRegister(
		p.rpcRequests,
		p.rpcDuration,
		p.transactions,
		p.txDuration,
		p.sessionState,
		p.probeFailures,
		p.uptimeSeconds,
		collectors.NewGoCollector(),
	)
	p.SetSessionState("disconnected")
	return p
}

// Registry returns the Prometheus registry used by this collector.
func (p *PrometheusCollector) Registry() *prometheus.Registry {
	return p.registry
}

// Collector returns the underlying in-process Collector.
func (p *PrometheusCollector) Collector() *Collector {
	return p.collector
}

// ObserveRPC matches the Starknet client observer signature.
func (p *PrometheusCollector) ObserveRPC(method string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.collector.RecordRPC(method, elapsed, err != nil)
	p.rpcRequests.WithLabelValues(method, result).Inc()
	p.rpcDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveTx records one finished staking step.
func (p *PrometheusCollector) ObserveTx(action, outcome string, elapsed time.Duration) {
	p.collector.RecordTx(action, outcome)
	p.transactions.WithLabelValues(action, outcome).Inc()
	p.txDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// SetSessionState flips the session gauge to state.
func (p *PrometheusCollector) SetSessionState(state string) {
	p.collector.SetSessionState(state)
	for _, s := range sessionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		p.sessionState.WithLabelValues(s).Set(v)
	}
}

// ObserveProbeFailure matches the wallet monitor callback.
func (p *PrometheusCollector) ObserveProbeFailure(consecutive int) {
	p.collector.RecordProbeFailure()
	p.probeFailures.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (p *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx ends.
func (p *PrometheusCollector) Serve(ctx context.Context, addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	util.SafeGoWithName("metrics-server", func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn("metrics server stopped", logging.Err(err))
		}
	})
	util.SafeGoWithName("metrics-shutdown", func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	})
	return ln.Addr(), nil
}
