package starknet

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	maxConsecutiveErrors = 3
	recoveryInterval     = 30 * time.Second
	latencyAlpha         = 0.3
	unmeasuredLatency    = 100 * time.Millisecond
)

type endpointState struct {
	url        string
	latency    time.Duration // EWMA
	failures   int
	lastFailed time.Time
	healthy    bool
	samples    int
}

// EndpointTracker orders RPC endpoints by health and observed latency.
type EndpointTracker struct {
	mu        sync.RWMutex
	endpoints []*endpointState
	clock     clock.Clock
}

// NewEndpointTracker starts every endpoint as healthy.
func NewEndpointTracker(urls []string, clk clock.Clock) *EndpointTracker {
	if clk == nil {
		clk = clock.New()
	}
	eps := make([]*endpointState, len(urls))
	for i, u := range urls {
		eps[i] = &endpointState{url: u, healthy: true, latency: unmeasuredLatency}
	}
	return &EndpointTracker{endpoints: eps, clock: clk}
}

// RecordSuccess resets the failure count and folds latency into the EWMA.
func (t *EndpointTracker) RecordSuccess(url string, latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ep := t.find(url)
	if ep == nil {
		return
	}
	ep.failures = 0
	ep.healthy = true
	if ep.samples == 0 {
		ep.latency = latency
	} else {
		ep.latency = time.Duration(latencyAlpha*float64(latency) + (1-latencyAlpha)*float64(ep.latency))
	}
	ep.samples++
}

// RecordError marks the endpoint unhealthy after three failures in a row.
func (t *EndpointTracker) RecordError(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ep := t.find(url)
	if ep == nil {
		return
	}
	ep.failures++
	ep.lastFailed = t.clock.Now()
	if ep.failures >= maxConsecutiveErrors {
		ep.healthy = false
	}
}

// Ordered returns healthy endpoints by latency, then unhealthy endpoints
// whose recovery interval has passed. When nothing qualifies every endpoint
// is returned in configured order so a call is still attempted.
func (t *EndpointTracker) Ordered() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.clock.Now()
	var healthy, probing []*endpointState
	for _, ep := range t.endpoints {
		switch {
		case ep.healthy:
			healthy = append(healthy, ep)
		case now.Sub(ep.lastFailed) >= recoveryInterval:
			probing = append(probing, ep)
		}
	}
	sort.SliceStable(healthy, func(i, j int) bool { return healthy[i].latency < healthy[j].latency })

	urls := make([]string, 0, len(t.endpoints))
	for _, ep := range append(healthy, probing...) {
		urls = append(urls, ep.url)
	}
	if len(urls) == 0 {
		for _, ep := range t.endpoints {
			urls = append(urls, ep.url)
		}
	}
	return urls
}

// Healthy reports whether url is currently considered healthy.
func (t *EndpointTracker) Healthy(url string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ep := t.find(url)
	return ep != nil && ep.healthy
}

func (t *EndpointTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.endpoints)
}

func (t *EndpointTracker) find(url string) *endpointState {
	for _, ep := range t.endpoints {
		if ep.url == url {
			return ep
		}
	}
	return nil
}
