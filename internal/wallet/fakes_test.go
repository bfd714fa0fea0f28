package wallet

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/starkstake/starkstake/internal/starknet"
)

type memSession struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemSession() *memSession { return &memSession{data: map[string]string{}} }

func (s *memSession) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memSession) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memSession) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

type fakeSigner struct {
	addr    string
	chainID string
	signed  []any
}

func (s *fakeSigner) Address() string { return s.addr }

func (s *fakeSigner) ChainID(context.Context) (string, error) { return s.chainID, nil }

func (s *fakeSigner) Execute(context.Context, ...starknet.Call) (string, error) {
	return "0xfeed", nil
}

func (s *fakeSigner) SignMessage(_ context.Context, td any) ([]string, error) {
	s.signed = append(s.signed, td)
	return []string{"0x1", "0x2"}, nil
}

type fakeInjected struct {
	mu           sync.Mutex
	id, name     string
	preauth      bool
	enableErr    error
	enableResult []string
	selected     string
	chainID      string
	account      Signer
	enabledOnce  bool
	silentCalls  int
	promptCalls  int
	disconnected int
	events       Events
}

func newFakeInjected(addr string) *fakeInjected {
	return &fakeInjected{
		id:           "argentX",
		name:         "Argent X",
		enableResult: []string{addr},
		chainID:      starknet.ChainIDSepolia,
		account:      &fakeSigner{addr: addr, chainID: starknet.ChainIDSepolia},
	}
}

func (f *fakeInjected) ID() string   { return f.id }
func (f *fakeInjected) Name() string { return f.name }

func (f *fakeInjected) IsPreauthorized(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.preauth, nil
}

func (f *fakeInjected) Enable(_ context.Context, silent bool) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if silent {
		f.silentCalls++
	} else {
		f.promptCalls++
	}
	if f.enableErr != nil {
		return nil, f.enableErr
	}
	f.enabledOnce = true
	if len(f.enableResult) > 0 {
		f.selected = f.enableResult[0]
	}
	return f.enableResult, nil
}

func (f *fakeInjected) SelectedAddress() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected
}

func (f *fakeInjected) ChainID(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chainID, nil
}

func (f *fakeInjected) Account() Signer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.enabledOnce && !f.preauth {
		return nil
	}
	return f.account
}

func (f *fakeInjected) Subscribe(ev Events) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = ev
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.events = Events{}
	}
}

func (f *fakeInjected) emitAccounts(a []string) bool {
	f.mu.Lock()
	fn := f.events.AccountsChanged
	f.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(a)
	return true
}

func (f *fakeInjected) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected++
	return nil
}

type snapHandler func(params map[string]any) (any, error)

type fakeSnapHost struct {
	mu         sync.Mutex
	installErr error
	installed  bool
	getErr     error
	handlers   map[string]snapHandler
	invoked    []string
}

func newFakeSnapHost() *fakeSnapHost {
	return &fakeSnapHost{installed: true, handlers: map[string]snapHandler{}}
}

func (h *fakeSnapHost) RequestSnaps(context.Context, string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.installErr != nil {
		return false, h.installErr
	}
	return h.installed, nil
}

func (h *fakeSnapHost) GetSnaps(context.Context) (map[string]json.RawMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.getErr != nil {
		return nil, h.getErr
	}
	if !h.installed {
		return map[string]json.RawMessage{}, nil
	}
	return map[string]json.RawMessage{SnapID: json.RawMessage(`{"version":"2.11.0"}`)}, nil
}

func (h *fakeSnapHost) InvokeSnap(_ context.Context, _ string, method string, params, result any) error {
	h.mu.Lock()
	h.invoked = append(h.invoked, method)
	handler := h.handlers[method]
	h.mu.Unlock()

	if handler == nil {
		return NewError(-32601, "method not found")
	}
	raw, _ := json.Marshal(params)
	var p map[string]any
	json.Unmarshal(raw, &p)

	out, err := handler(p)
	if err != nil {
		return err
	}
	raw, _ = json.Marshal(out)
	return json.Unmarshal(raw, result)
}

func (h *fakeSnapHost) methods() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.invoked...)
}

type fakePlatform struct {
	session  *memSession
	injected *fakeInjected
	snap     *fakeSnapHost
}

func (p *fakePlatform) Session() SessionStore { return p.session }

func (p *fakePlatform) Injected() (InjectedProvider, bool) {
	if p.injected == nil {
		return nil, false
	}
	return p.injected, true
}

func (p *fakePlatform) Snap() (SnapHost, bool) {
	if p.snap == nil {
		return nil, false
	}
	return p.snap, true
}

type fakePrompter struct {
	mu      sync.Mutex
	choice  string
	err     error
	calls   int
	offered []WalletOption
}

func (p *fakePrompter) SelectWallet(_ context.Context, options []WalletOption) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.offered = options
	return p.choice, p.err
}

func (p *fakePrompter) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
