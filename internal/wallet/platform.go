package wallet

import (
	"context"
	"encoding/json"
)

// SessionStore holds session-scoped string values.
type SessionStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Events are the change notifications an injected wallet can push.
type Events struct {
	AccountsChanged func(accounts []string)
	NetworkChanged  func(chainID string)
}

// InjectedProvider is a standard Starknet wallet (Argent X, Braavos).
type InjectedProvider interface {
	ID() string
	Name() string
	IsPreauthorized(ctx context.Context) (bool, error)
	// Enable asks for account access. With silent set the wallet must not
	// show UI and fails instead.
	Enable(ctx context.Context, silent bool) ([]string, error)
	// SelectedAddress is the last known account, "" before Enable.
	SelectedAddress() string
	ChainID(ctx context.Context) (string, error)
	// Account is nil until the wallet has been enabled.
	Account() Signer
	Subscribe(ev Events) (unsubscribe func())
	Disconnect(ctx context.Context) error
}

// SnapHost talks to MetaMask for the Starknet snap.
type SnapHost interface {
	RequestSnaps(ctx context.Context, snapID string) (bool, error)
	GetSnaps(ctx context.Context) (map[string]json.RawMessage, error)
	InvokeSnap(ctx context.Context, snapID, method string, params, result any) error
}

// Platform gives the session manager its environment.
type Platform interface {
	Session() SessionStore
	Injected() (InjectedProvider, bool)
	Snap() (SnapHost, bool)
}

// WalletOption is one entry of the wallet selection prompt.
type WalletOption struct {
	ID      string
	Name    string
	Backend Backend
}

// Prompter asks the user which wallet to connect. Returning an error of
// KindUserRejected cancels the connect.
type Prompter interface {
	SelectWallet(ctx context.Context, options []WalletOption) (string, error)
}
