package bridge

import "github.com/starkstake/starkstake/internal/wallet"

// Config names the bridges available to the CLI. An empty URL disables
// that backend.
type Config struct {
	InjectedURL  string
	InjectedID   string
	InjectedName string
	SnapURL      string
}

// Platform wires configured bridges and a session store into a
// wallet.Platform.
type Platform struct {
	session  wallet.SessionStore
	injected *Injected
	snap     *SnapHost
}

var _ wallet.Platform = (*Platform)(nil)

func NewPlatform(cfg Config, session wallet.SessionStore) *Platform {
	p := &Platform{session: session}
	if cfg.InjectedURL != "" {
		id := cfg.InjectedID
		if id == "" {
			id = "argentX"
		}
		p.injected = NewInjected(cfg.InjectedURL, id, cfg.InjectedName)
	}
	if cfg.SnapURL != "" {
		p.snap = NewSnapHost(cfg.SnapURL)
	}
	return p
}

func (p *Platform) Session() wallet.SessionStore { return p.session }

func (p *Platform) Injected() (wallet.InjectedProvider, bool) {
	if p.injected == nil {
		return nil, false
	}
	return p.injected, true
}

func (p *Platform) Snap() (wallet.SnapHost, bool) {
	if p.snap == nil {
		return nil, false
	}
	return p.snap, true
}

// Close drops every bridge connection.
func (p *Platform) Close() {
	if p.injected != nil {
		p.injected.Close()
	}
	if p.snap != nil {
		p.snap.Close()
	}
}
