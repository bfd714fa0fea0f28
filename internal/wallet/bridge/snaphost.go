package bridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/starkstake/starkstake/internal/wallet"
)

// SnapHost reaches MetaMask's snap API through a JSON-RPC relay (http or
// ws). Each method takes its request object as the single positional param.
type SnapHost struct {
	url string

	mu     sync.Mutex
	client *rpc.Client
}

var _ wallet.SnapHost = (*SnapHost)(nil)

func NewSnapHost(url string) *SnapHost {
	return &SnapHost{url: url}
}

func (h *SnapHost) dial(ctx context.Context) (*rpc.Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != nil {
		return h.client, nil
	}
	c, err := rpc.DialContext(ctx, h.url)
	if err != nil {
		return nil, wallet.FromError(err)
	}
	h.client = c
	return c, nil
}

func (h *SnapHost) call(ctx context.Context, result any, method string, param any) error {
	c, err := h.dial(ctx)
	if err != nil {
		return err
	}
	return wallet.FromError(c.CallContext(ctx, result, method, param))
}

type snapEntry struct {
	Version string          `json:"version,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// RequestSnaps installs (or confirms) snapID. False means the user declined
// or MetaMask reported an install error for it.
func (h *SnapHost) RequestSnaps(ctx context.Context, snapID string) (bool, error) {
	var res map[string]snapEntry
	err := h.call(ctx, &res, "wallet_requestSnaps", map[string]any{snapID: map[string]any{}})
	if err != nil {
		if wallet.KindOf(err) == wallet.KindUserRejected {
			return false, nil
		}
		return false, err
	}
	entry, ok := res[snapID]
	return ok && len(entry.Error) == 0, nil
}

func (h *SnapHost) GetSnaps(ctx context.Context) (map[string]json.RawMessage, error) {
	var res map[string]json.RawMessage
	if err := h.call(ctx, &res, "wallet_getSnaps", map[string]any{}); err != nil {
		return nil, err
	}
	if res == nil {
		res = map[string]json.RawMessage{}
	}
	return res, nil
}

func (h *SnapHost) InvokeSnap(ctx context.Context, snapID, method string, params, result any) error {
	return h.call(ctx, result, "wallet_invokeSnap", map[string]any{
		"snapId": snapID,
		"request": map[string]any{
			"method": method,
			"params": params,
		},
	})
}

func (h *SnapHost) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != nil {
		h.client.Close()
		h.client = nil
	}
}
