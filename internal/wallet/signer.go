package wallet

import (
	"context"

	"github.com/starkstake/starkstake/internal/starknet"
)

// Signer is what every wallet backend offers once connected.
type Signer interface {
	Address() string
	ChainID(ctx context.Context) (string, error)
	// Execute submits the calls as one invoke transaction and returns its hash.
	Execute(ctx context.Context, calls ...starknet.Call) (string, error)
	SignMessage(ctx context.Context, typedData any) ([]string, error)
}

// Backend tags how a connection was established.
type Backend string

const (
	BackendInjected   Backend = "injected"
	BackendRemoteSnap Backend = "remote_snap"
)

// Connection is the active wallet session.
type Connection struct {
	Address    string  `json:"address"`
	Signer     Signer  `json:"-"`
	WalletID   string  `json:"wallet_id"`
	WalletName string  `json:"wallet_name"`
	ChainID    string  `json:"chain_id"`
	Backend    Backend `json:"backend"`
}

// Network labels the connection's chain.
func (c *Connection) Network() starknet.Network {
	return starknet.NetworkFromChainID(c.ChainID)
}

// WalletType is the catalog type of the connected wallet.
func (c *Connection) WalletType() string {
	return WalletTypeFor(c.WalletID)
}
