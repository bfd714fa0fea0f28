package bridge

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var errNoReply = errors.New("no reply")

type walletHandler func(params json.RawMessage) (any, error)

// fakeWallet is a websocket JSON-RPC wallet bridge.
type fakeWallet struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	handlers map[string]walletHandler
	conns    []*websocket.Conn
	calls    []string
	dials    int
}

func newFakeWallet(t *testing.T) *fakeWallet {
	t.Helper()
	f := &fakeWallet{handlers: map[string]walletHandler{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(func() {
		f.dropAll()
		f.srv.Close()
	})
	return f
}

func (f *fakeWallet) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func (f *fakeWallet) handle(method string, h walletHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

func (f *fakeWallet) serve(w http.ResponseWriter, r *http.Request) {
	ws, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	f.mu.Lock()
	f.conns = append(f.conns, ws)
	f.dials++
	f.mu.Unlock()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var req message
		if json.Unmarshal(data, &req) != nil || req.ID == nil {
			continue
		}

		f.mu.Lock()
		f.calls = append(f.calls, req.Method)
		h := f.handlers[req.Method]
		f.mu.Unlock()

		resp := message{JSONRPC: "2.0", ID: req.ID}
		if h == nil {
			resp.Error = &RPCError{Code: -32601, Message: "method not found"}
		} else {
			out, err := h(req.Params)
			var rpcErr *RPCError
			switch {
			case errors.Is(err, errNoReply):
				continue
			case errors.As(err, &rpcErr):
				resp.Error = rpcErr
			case err != nil:
				resp.Error = &RPCError{Code: -32603, Message: err.Error()}
			default:
				resp.Result, _ = json.Marshal(out)
			}
		}
		f.send(ws, resp)
	}
}

func (f *fakeWallet) send(ws *websocket.Conn, msg message) {
	data, _ := json.Marshal(msg)
	f.mu.Lock()
	defer f.mu.Unlock()
	ws.WriteMessage(websocket.TextMessage, data)
}

func (f *fakeWallet) push(method string, params any) {
	raw, _ := json.Marshal(params)
	f.mu.Lock()
	conns := append([]*websocket.Conn(nil), f.conns...)
	f.mu.Unlock()
	for _, ws := range conns {
		f.send(ws, message{JSONRPC: "2.0", Method: method, Params: raw})
	}
}

func (f *fakeWallet) dropAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ws := range f.conns {
		ws.Close()
	}
	f.conns = nil
}

func (f *fakeWallet) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
