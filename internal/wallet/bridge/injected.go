package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/starkstake/starkstake/internal/logging"
	"github.com/starkstake/starkstake/internal/starknet"
	"github.com/starkstake/starkstake/internal/wallet"
)

// Starknet wallet API methods and events.
const (
	methodGetPermissions  = "wallet_getPermissions"
	methodRequestAccounts = "wallet_requestAccounts"
	methodRequestChainID  = "wallet_requestChainId"
	methodAddInvoke       = "wallet_addInvokeTransaction"
	methodSignTypedData   = "wallet_signTypedData"

	eventAccountsChanged = "accountsChanged"
	eventNetworkChanged  = "networkChanged"

	permissionAccounts = "accounts"
)

// Injected is an injected Starknet wallet (Argent X, Braavos) exposed by a
// browser extension bridge. The websocket is dialed lazily and redialed
// after the bridge goes away.
type Injected struct {
	url  string
	id   string
	name string

	mu       sync.Mutex
	conn     *Conn
	selected string
	events   wallet.Events
}

var _ wallet.InjectedProvider = (*Injected)(nil)

func NewInjected(url, id, name string) *Injected {
	if name == "" {
		name = id
	}
	return &Injected{url: url, id: id, name: name}
}

func (p *Injected) ID() string   { return p.id }
func (p *Injected) Name() string { return p.name }

func (p *Injected) client(ctx context.Context) (*Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.Closed() {
		return p.conn, nil
	}
	conn, err := Dial(ctx, p.url, p.handleNotification)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return conn, nil
}

func (p *Injected) call(ctx context.Context, method string, params, result any) error {
	conn, err := p.client(ctx)
	if err != nil {
		return wallet.FromError(err)
	}
	return wallet.FromError(conn.Call(ctx, method, params, result))
}

func (p *Injected) IsPreauthorized(ctx context.Context) (bool, error) {
	var perms []string
	if err := p.call(ctx, methodGetPermissions, nil, &perms); err != nil {
		return false, err
	}
	for _, perm := range perms {
		if perm == permissionAccounts {
			return true, nil
		}
	}
	return false, nil
}

func (p *Injected) Enable(ctx context.Context, silent bool) ([]string, error) {
	var accounts []string
	err := p.call(ctx, methodRequestAccounts, map[string]any{"silent_mode": silent}, &accounts)
	if err != nil {
		return nil, err
	}
	if len(accounts) > 0 {
		p.mu.Lock()
		p.selected = accounts[0]
		p.mu.Unlock()
	}
	return accounts, nil
}

func (p *Injected) SelectedAddress() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

func (p *Injected) ChainID(ctx context.Context) (string, error) {
	var chainID string
	if err := p.call(ctx, methodRequestChainID, nil, &chainID); err != nil {
		return "", err
	}
	return chainID, nil
}

// Account is nil until the wallet has handed out an address.
func (p *Injected) Account() wallet.Signer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == "" {
		return nil
	}
	return &injectedSigner{wallet: p, address: p.selected}
}

func (p *Injected) Subscribe(ev wallet.Events) func() {
	p.mu.Lock()
	p.events = ev
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		p.events = wallet.Events{}
		p.mu.Unlock()
	}
}

// Disconnect forgets the account and drops the bridge connection.
func (p *Injected) Disconnect(context.Context) error {
	p.mu.Lock()
	p.selected = ""
	conn := p.conn
	p.conn = nil
	p.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Close releases the bridge connection.
func (p *Injected) Close() error {
	p.mu.Lock()
	conn := p.conn
	p.conn = nil
	p.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (p *Injected) handleNotification(method string, params json.RawMessage) {
	switch method {
	case eventAccountsChanged:
		accounts := decodeStrings(params)
		p.mu.Lock()
		if len(accounts) > 0 {
			p.selected = accounts[0]
		} else {
			p.selected = ""
		}
		fn := p.events.AccountsChanged
		p.mu.Unlock()
		if fn != nil {
			fn(accounts)
		}

	case eventNetworkChanged:
		chainID := firstString(params)
		p.mu.Lock()
		fn := p.events.NetworkChanged
		p.mu.Unlock()
		if fn != nil && chainID != "" {
			fn(chainID)
		}

	default:
		logging.Debug("ignoring wallet notification", "method", method)
	}
}

// decodeStrings accepts ["0x1", ...] or [["0x1", ...]].
func decodeStrings(raw json.RawMessage) []string {
	var flat []string
	if json.Unmarshal(raw, &flat) == nil {
		return flat
	}
	var nested [][]string
	if json.Unmarshal(raw, &nested) == nil && len(nested) > 0 {
		return nested[0]
	}
	return nil
}

// firstString accepts "0x1" or ["0x1", ...].
func firstString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		if json.Unmarshal(list[0], &s) == nil {
			return s
		}
	}
	return ""
}

type invokeCall struct {
	ContractAddress string   `json:"contract_address"`
	EntryPoint      string   `json:"entry_point"`
	Calldata        []string `json:"calldata"`
}

type injectedSigner struct {
	wallet  *Injected
	address string
}

func (s *injectedSigner) Address() string { return s.address }

func (s *injectedSigner) ChainID(ctx context.Context) (string, error) {
	return s.wallet.ChainID(ctx)
}

func (s *injectedSigner) Execute(ctx context.Context, calls ...starknet.Call) (string, error) {
	if len(calls) == 0 {
		return "", fmt.Errorf("no calls to execute")
	}
	payload := make([]invokeCall, len(calls))
	for i, c := range calls {
		calldata := c.Calldata
		if calldata == nil {
			calldata = []string{}
		}
		payload[i] = invokeCall{ContractAddress: c.ContractAddress, EntryPoint: c.EntryPoint, Calldata: calldata}
	}

	var out struct {
		TransactionHash string `json:"transaction_hash"`
	}
	if err := s.wallet.call(ctx, methodAddInvoke, map[string]any{"calls": payload}, &out); err != nil {
		return "", err
	}
	if out.TransactionHash == "" {
		return "", fmt.Errorf("wallet returned no transaction hash")
	}
	return out.TransactionHash, nil
}

func (s *injectedSigner) SignMessage(ctx context.Context, typedData any) ([]string, error) {
	var sig []string
	if err := s.wallet.call(ctx, methodSignTypedData, typedData, &sig); err != nil {
		return nil, err
	}
	return sig, nil
}
