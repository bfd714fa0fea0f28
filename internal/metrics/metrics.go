// Package metrics records RPC, transaction and wallet session activity for
// the dashboard and for Prometheus scraping.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates activity in process so the dashboard can show it
// without a Prometheus server.
type Collector struct {
	rpcMu     sync.RWMutex
	rpcCalls  map[string]*uint64
	rpcErrors map[string]*uint64
	latencies map[string]*LatencyHistogram

	txMu       sync.Mutex
	txOutcomes map[string]map[string]uint64 // action -> outcome -> count

	sessionState  atomic.Value // string
	probeFailures uint64

	startTime time.Time
}

// LatencyHistogram tracks request latencies in buckets
type LatencyHistogram struct {
	// Buckets: [0-50ms], [50-100ms], [100-250ms], [250-500ms], [500ms-1s], [1-2.5s], [2.5-5s], [5s+]
	buckets [8]uint64
	sum     uint64 // nanoseconds
	count   uint64
	mu      sync.Mutex
}

// bucket boundaries in milliseconds
var bucketBoundaries = []int64{50, 100, 250, 500, 1000, 2500, 5000}

var bucketLabels = []string{
	"0-50ms", "50-100ms", "100-250ms", "250-500ms",
	"500-1000ms", "1000-2500ms", "2500-5000ms", "5000ms+",
}

func NewCollector() *Collector {
	c := &Collector{
		rpcCalls:   make(map[string]*uint64),
		rpcErrors:  make(map[string]*uint64),
		latencies:  make(map[string]*LatencyHistogram),
		txOutcomes: make(map[string]map[string]uint64),
		startTime:  time.Now(),
	}
	c.sessionState.Store("disconnected")
	return c
}

func counter(m map[string]*uint64, key string) *uint64 {
	v, ok := m[key]
	if !ok {
		v = new(uint64)
		m[key] = v
	}
	return v
}

// RecordRPC records one Starknet RPC call.
func (c *Collector) RecordRPC(method string, elapsed time.Duration, failed bool) {
	c.rpcMu.Lock()
	calls := counter(c.rpcCalls, method)
	errs := counter(c.rpcErrors, method)
	hist, ok := c.latencies[method]
	if !ok {
		hist = &LatencyHistogram{}
		c.latencies[method] = hist
	}
	c.rpcMu.Unlock()

	atomic.AddUint64(calls, 1)
	if failed {
		atomic.AddUint64(errs, 1)
	}
	hist.Record(elapsed)
}

// Record records a latency value in the histogram
func (h *LatencyHistogram) Record(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ms := d.Milliseconds()
	idx := len(bucketBoundaries)
	for i, boundary := range bucketBoundaries {
		if ms < boundary {
			idx = i
			break
		}
	}

	h.buckets[idx]++
	h.sum += uint64(d.Nanoseconds())
	h.count++
}

// RecordTx records the outcome of one staking step.
func (c *Collector) RecordTx(action, outcome string) {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	byOutcome, ok := c.txOutcomes[action]
	if !ok {
		byOutcome = make(map[string]uint64)
		c.txOutcomes[action] = byOutcome
	}
	byOutcome[outcome]++
}

func (c *Collector) SetSessionState(state string) {
	c.sessionState.Store(state)
}

func (c *Collector) RecordProbeFailure() {
	atomic.AddUint64(&c.probeFailures, 1)
}

// Snapshot is the current state of all metrics
type Snapshot struct {
	Uptime        string                       `json:"uptime"`
	UptimeSeconds float64                      `json:"uptime_seconds"`
	RPCCalls      map[string]uint64            `json:"rpc_calls"`
	RPCErrors     map[string]uint64            `json:"rpc_errors"`
	RPCLatencies  map[string]LatencyStats      `json:"rpc_latencies"`
	Transactions  map[string]map[string]uint64 `json:"transactions"`
	SessionState  string                       `json:"session_state"`
	ProbeFailures uint64                       `json:"probe_failures"`
	CollectedAt   time.Time                    `json:"collected_at"`
}

// LatencyStats contains latency statistics for a method
type LatencyStats struct {
	Count   uint64            `json:"count"`
	SumMs   float64           `json:"sum_ms"`
	AvgMs   float64           `json:"avg_ms"`
	Buckets map[string]uint64 `json:"buckets"`
}

// TotalRPCCalls sums calls across methods.
func (s *Snapshot) TotalRPCCalls() uint64 {
	var n uint64
	for _, v := range s.RPCCalls {
		n += v
	}
	return n
}

// Snapshot returns a copy of the current metrics.
func (c *Collector) Snapshot() *Snapshot {
	uptime := time.Since(c.startTime)

	calls := make(map[string]uint64)
	errs := make(map[string]uint64)
	latencies := make(map[string]LatencyStats)

	c.rpcMu.RLock()
	for method, v := range c.rpcCalls {
		calls[method] = atomic.LoadUint64(v)
	}
	for method, v := range c.rpcErrors {
		if n := atomic.LoadUint64(v); n > 0 {
			errs[method] = n
		}
	}
	for method, hist := range c.latencies {
		latencies[method] = hist.stats()
	}
	c.rpcMu.RUnlock()

	c.txMu.Lock()
	txs := make(map[string]map[string]uint64, len(c.txOutcomes))
	for action, byOutcome := range c.txOutcomes {
		cp := make(map[string]uint64, len(byOutcome))
		for k, v := range byOutcome {
			cp[k] = v
		}
		txs[action] = cp
	}
	c.txMu.Unlock()

	return &Snapshot{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: uptime.Seconds(),
		RPCCalls:      calls,
		RPCErrors:     errs,
		RPCLatencies:  latencies,
		Transactions:  txs,
		SessionState:  c.sessionState.Load().(string),
		ProbeFailures: atomic.LoadUint64(&c.probeFailures),
		CollectedAt:   time.Now(),
	}
}

func (h *LatencyHistogram) stats() LatencyStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	stats := LatencyStats{
		Count:   h.count,
		SumMs:   float64(h.sum) / float64(time.Millisecond),
		Buckets: make(map[string]uint64),
	}
	if h.count > 0 {
		stats.AvgMs = float64(h.sum) / float64(h.count) / float64(time.Millisecond)
	}
	for i, n := range h.buckets {
		if n > 0 {
			stats.Buckets[bucketLabels[i]] = n
		}
	}
	return stats
}

// SnapshotJSON returns the current metrics as JSON
func (c *Collector) SnapshotJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot())
}
