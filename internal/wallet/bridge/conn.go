// Package bridge connects the wallet session manager to wallets living
// outside the process: an injected Starknet wallet reached over a websocket
// JSON-RPC bridge, and MetaMask's Starknet snap reached through a snap host.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/starkstake/starkstake/internal/logging"
	"github.com/starkstake/starkstake/internal/util"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
	maxMessageSize   = 1 << 20
)

// ErrClosed is returned by calls on a closed bridge connection.
var ErrClosed = errors.New("wallet bridge connection closed")

// RPCError is an error object returned by the wallet.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("wallet rpc error %d: %s", e.Code, e.Message)
}

// ErrorCode lets the wallet package classify the failure.
func (e *RPCError) ErrorCode() int { return e.Code }

type message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// NotifyFunc receives server-pushed notifications. It runs on the read
// loop and must not block.
type NotifyFunc func(method string, params json.RawMessage)

// Conn is a JSON-RPC 2.0 client over one websocket.
type Conn struct {
	ws     *websocket.Conn
	notify NotifyFunc
	nextID atomic.Uint64

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan *message

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
	err       error
}

// Dial opens a bridge connection to url (ws:// or wss://).
func Dial(ctx context.Context, url string, notify NotifyFunc) (*Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial wallet bridge: %w", err)
	}
	ws.SetReadLimit(maxMessageSize)

	c := &Conn{
		ws:      ws,
		notify:  notify,
		pending: make(map[uint64]chan *message),
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	util.SafeGoWithName("wallet-bridge-read", c.readLoop)
	return c, nil
}

func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug("wallet bridge read error", logging.Err(err), logging.Component("bridge"))
			}
			c.shutdown(err)
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			logging.Debug("wallet bridge sent invalid json", logging.Err(err))
			continue
		}

		switch {
		case msg.Method != "" && msg.ID == nil:
			if c.notify != nil {
				c.notify(msg.Method, msg.Params)
			}
		case msg.ID != nil:
			c.mu.Lock()
			ch, ok := c.pending[*msg.ID]
			delete(c.pending, *msg.ID)
			c.mu.Unlock()
			if ok {
				ch <- &msg
			}
		}
	}
}

func (c *Conn) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.err = err
		close(c.closed)
		c.ws.Close()
	})
}

// Closed reports whether the connection is no longer usable.
func (c *Conn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Call sends one request and decodes its result into result (may be nil).
func (c *Conn) Call(ctx context.Context, method string, params, result any) error {
	if c.Closed() {
		return ErrClosed
	}

	id := c.nextID.Add(1)
	req := message{JSONRPC: "2.0", ID: &id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode %s params: %w", method, err)
		}
		req.Params = raw
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}

	ch := make(chan *message, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.write(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return fmt.Errorf("%w: %v", ErrClosed, c.err)
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if result == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
		return nil
	}
}

func (c *Conn) write(kind int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(kind, data)
}

// Close says goodbye to the bridge and waits for the read loop to exit.
func (c *Conn) Close() error {
	if !c.Closed() {
		c.write(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
	c.shutdown(ErrClosed)
	<-c.done
	return nil
}
