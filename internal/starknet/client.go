package starknet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"

	"github.com/starkstake/starkstake/internal/logging"
	"github.com/starkstake/starkstake/internal/util"
)

// Starknet JSON-RPC error codes the client reacts to.
const (
	CodeContractNotFound = 20
	CodeBlockNotFound    = 24
	CodeTxHashNotFound   = 29
	CodeContractError    = 40
)

// ErrWaitTimeout is returned when a transaction is not final in time.
var ErrWaitTimeout = errors.New("timed out waiting for transaction")

// RPCError is an error answered by the node itself. It is never retried
// and does not count against endpoint health.
type RPCError struct {
	Code    int
	Message string
	Data    any
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("starknet rpc error %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("starknet rpc error %d: %s", e.Code, e.Message)
}

// IsTxNotFound reports whether err means the node has not seen the hash yet.
func IsTxNotFound(err error) bool {
	var e *RPCError
	return errors.As(err, &e) && e.Code == CodeTxHashNotFound
}

// ClientConfig configures the Starknet RPC client.
type ClientConfig struct {
	// RPCURLs are tried in health order; the first is the preferred one.
	RPCURLs        []string
	RequestTimeout time.Duration
	// RateLimit is requests per second across all endpoints (0 = unlimited).
	RateLimit   float64
	Burst       int
	RetryConfig *util.RetryConfig
	Clock       clock.Clock
	HTTPClient  *http.Client
}

// DefaultClientConfig returns a config for a single endpoint.
func DefaultClientConfig(rpcURL string) *ClientConfig {
	return &ClientConfig{
		RPCURLs:        []string{rpcURL},
		RequestTimeout: 15 * time.Second,
		RateLimit:      10,
		Burst:          5,
		RetryConfig:    util.DefaultRetryConfig(),
	}
}

// Observer is told about every request that reached an endpoint.
type Observer func(method string, elapsed time.Duration, err error)

// Client issues read-only Starknet JSON-RPC requests with failover.
type Client struct {
	cfg     *ClientConfig
	tracker *EndpointTracker
	limiter *rate.Limiter
	clock   clock.Clock

	mu       sync.Mutex
	conns    map[string]*rpc.Client
	observer Observer
}

// NewClient validates cfg and builds a client. Connections are opened lazily.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil || len(cfg.RPCURLs) == 0 {
		return nil, fmt.Errorf("at least one RPC URL is required")
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		cfg:     cfg,
		tracker: NewEndpointTracker(cfg.RPCURLs, clk),
		limiter: rate.NewLimiter(limit, burst),
		clock:   clk,
		conns:   make(map[string]*rpc.Client),
	}, nil
}

// SetObserver installs a request observer, typically a metrics sink.
func (c *Client) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

// Endpoints exposes the health tracker.
func (c *Client) Endpoints() *EndpointTracker {
	return c.tracker
}

// Close releases every open connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for url, conn := range c.conns {
		conn.Close()
		delete(c.conns, url)
	}
}

func (c *Client) dial(ctx context.Context, url string) (*rpc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.conns[url]; ok {
		return conn, nil
	}
	var opts []rpc.ClientOption
	if c.cfg.HTTPClient != nil {
		opts = append(opts, rpc.WithHTTPClient(c.cfg.HTTPClient))
	}
	conn, err := rpc.DialOptions(ctx, url, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c.conns[url] = conn
	return conn, nil
}

func (c *Client) observe(method string, elapsed time.Duration, err error) {
	c.mu.Lock()
	o := c.observer
	c.mu.Unlock()
	if o != nil {
		o(method, elapsed, err)
	}
}

// request runs one JSON-RPC method with retries. Each attempt walks the
// endpoints in health order until one answers.
func (c *Client) request(ctx context.Context, result any, method string, args ...any) error {
	res := util.Retry(ctx, c.cfg.RetryConfig, func() error {
		return c.attempt(ctx, result, method, args)
	})
	return res.LastError
}

func (c *Client) attempt(ctx context.Context, result any, method string, args []any) error {
	var lastErr error
	for _, url := range c.tracker.Ordered() {
		if err := c.limiter.Wait(ctx); err != nil {
			return util.MarkPermanent(err)
		}
		conn, err := c.dial(ctx, url)
		if err != nil {
			c.tracker.RecordError(url)
			lastErr = err
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		start := c.clock.Now()
		err = conn.CallContext(callCtx, result, method, args...)
		cancel()
		elapsed := c.clock.Since(start)
		c.observe(method, elapsed, err)

		if err == nil {
			c.tracker.RecordSuccess(url, elapsed)
			return nil
		}

		var rerr rpc.Error
		if errors.As(err, &rerr) {
			// The node answered, so the endpoint itself is fine.
			c.tracker.RecordSuccess(url, elapsed)
			e := &RPCError{Code: rerr.ErrorCode(), Message: rerr.Error()}
			var derr rpc.DataError
			if errors.As(err, &derr) {
				e.Data = derr.ErrorData()
			}
			return util.MarkPermanent(e)
		}
		if ctx.Err() != nil {
			return util.MarkPermanent(ctx.Err())
		}

		logging.Debug("starknet endpoint failed",
			logging.Component("starknet"),
			"endpoint", url,
			"method", method,
			logging.Err(err))
		c.tracker.RecordError(url)
		lastErr = fmt.Errorf("%s %s: %w", method, url, err)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%s: no endpoints available", method)
	}
	return lastErr
}

// Call performs starknet_call against the latest block and returns the
// raw result felts.
func (c *Client) Call(ctx context.Context, fc FunctionCall) ([]string, error) {
	if fc.Calldata == nil {
		fc.Calldata = []string{}
	}
	var out []string
	if err := c.request(ctx, &out, "starknet_call", fc, "latest"); err != nil {
		return nil, err
	}
	return out, nil
}

// ChainID returns the chain id as hex, e.g. 0x534e5f5345504f4c4941.
func (c *Client) ChainID(ctx context.Context) (string, error) {
	var id string
	if err := c.request(ctx, &id, "starknet_chainId"); err != nil {
		return "", err
	}
	return id, nil
}
