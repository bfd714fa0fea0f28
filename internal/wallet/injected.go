package wallet

import (
	"context"
	"fmt"

	"github.com/starkstake/starkstake/internal/logging"
)

const unknownChainID = "unknown"

// connectInjected enables the injected wallet and builds a connection from
// whatever the wallet exposes afterwards.
func (m *Manager) connectInjected(ctx context.Context, p InjectedProvider) (*Connection, error) {
	enabled, err := p.Enable(ctx, false)
	if err != nil {
		err = FromError(err)
		if IsRejection(err) {
			return nil, err
		}
		// Some wallets fail enable() yet expose the account anyway.
		logging.Debug("wallet enable failed", "wallet", p.ID(), logging.Err(err))
	}

	conn := injectedConnection(ctx, p, firstOf(enabled))
	if conn == nil {
		return nil, fmt.Errorf("%s: %w", p.Name(), ErrNoAccount)
	}
	return conn, nil
}

// resumeInjected reconnects a pre-authorized wallet without any prompt.
func (m *Manager) resumeInjected(ctx context.Context) *Connection {
	p, ok := m.platform.Injected()
	if !ok {
		return nil
	}
	pre, err := p.IsPreauthorized(ctx)
	if err != nil || !pre {
		return nil
	}

	address := p.SelectedAddress()
	if address == "" || p.Account() == nil {
		enabled, err := p.Enable(ctx, true)
		if err != nil {
			logging.Debug("silent enable failed", "wallet", p.ID(), logging.Err(err))
			return nil
		}
		address = firstOf(enabled)
	}
	return injectedConnection(ctx, p, address)
}

func injectedConnection(ctx context.Context, p InjectedProvider, address string) *Connection {
	account := p.Account()
	if address == "" {
		address = p.SelectedAddress()
	}
	if address == "" && account != nil {
		address = account.Address()
	}
	if address == "" || account == nil {
		return nil
	}

	chainID, err := p.ChainID(ctx)
	if err != nil || chainID == "" {
		if chainID, err = account.ChainID(ctx); err != nil || chainID == "" {
			chainID = unknownChainID
		}
	}

	return &Connection{
		Address:    address,
		Signer:     account,
		WalletID:   p.ID(),
		WalletName: p.Name(),
		ChainID:    chainID,
		Backend:    BackendInjected,
	}
}

func firstOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
