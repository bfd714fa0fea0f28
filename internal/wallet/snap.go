package wallet

import (
	"context"
	"fmt"

	"github.com/starkstake/starkstake/internal/logging"
	"github.com/starkstake/starkstake/internal/starknet"
)

const (
	// SnapID is the MetaMask Starknet snap.
	SnapID = "npm:@consensys/starknet-snap"
	// SessionKey stores the last snap account so a restart can resume it.
	SessionKey = "starkstake_metamask_snap_address"

	metaMaskID   = "metamask"
	metaMaskName = "MetaMask"
)

// Account scan window for starkNet_recoverAccounts.
const (
	recoverStartIndex = 0
	recoverMaxScanned = 5
	recoverMaxMissed  = 2
)

type snapAccount struct {
	Address   string `json:"address"`
	PublicKey string `json:"publicKey,omitempty"`
	ChainID   string `json:"chainId,omitempty"`
}

// SnapSigner signs through the snap host; no key material is held locally.
type SnapSigner struct {
	host    SnapHost
	address string
	chainID string
}

func NewSnapSigner(host SnapHost, address, chainID string) *SnapSigner {
	return &SnapSigner{host: host, address: address, chainID: chainID}
}

func (s *SnapSigner) Address() string { return s.address }

func (s *SnapSigner) ChainID(context.Context) (string, error) { return s.chainID, nil }

// SignMessage forwards typed data to starkNet_signMessage.
func (s *SnapSigner) SignMessage(ctx context.Context, typedData any) ([]string, error) {
	var sig []string
	err := s.host.InvokeSnap(ctx, SnapID, "starkNet_signMessage", map[string]any{
		"chainId":          s.chainID,
		"typedDataMessage": typedData,
		"signerAddress":    s.address,
		"enableAuthorize":  true,
	}, &sig)
	if err != nil {
		return nil, FromError(err)
	}
	return sig, nil
}

type snapCall struct {
	ContractAddress string   `json:"contractAddress"`
	Entrypoint      string   `json:"entrypoint"`
	Calldata        []string `json:"calldata"`
}

// Execute submits calls through starkNet_executeTxn.
func (s *SnapSigner) Execute(ctx context.Context, calls ...starknet.Call) (string, error) {
	if len(calls) == 0 {
		return "", fmt.Errorf("no calls to execute")
	}
	payload := make([]snapCall, len(calls))
	for i, c := range calls {
		payload[i] = snapCall{ContractAddress: c.ContractAddress, Entrypoint: c.EntryPoint, Calldata: c.Calldata}
	}

	var out struct {
		TransactionHash string `json:"transaction_hash"`
	}
	err := s.host.InvokeSnap(ctx, SnapID, "starkNet_executeTxn", map[string]any{
		"chainId": s.chainID,
		"address": s.address,
		"calls":   payload,
	}, &out)
	if err != nil {
		return "", FromError(err)
	}
	if out.TransactionHash == "" {
		return "", fmt.Errorf("snap returned no transaction hash")
	}
	return out.TransactionHash, nil
}

// connectSnap installs the snap and finds an account: recover existing
// accounts, else create one at index 0, else fall back to stored accounts.
// A user rejection at any step aborts the whole attempt.
func (m *Manager) connectSnap(ctx context.Context) (*Connection, error) {
	host, ok := m.platform.Snap()
	if !ok {
		return nil, ErrSnapUnavailable
	}

	installed, err := host.RequestSnaps(ctx, SnapID)
	if err != nil {
		return nil, fmt.Errorf("snap install: %w", FromError(err))
	}
	if !installed {
		return nil, &Error{Kind: KindUserRejected, Message: "starknet snap was not installed"}
	}

	chainID := m.opts.Network.ChainID()
	acct, err := m.findSnapAccount(ctx, host, chainID)
	if err != nil {
		return nil, err
	}

	if err := m.platform.Session().Set(SessionKey, acct.Address); err != nil {
		logging.Warn("failed to persist snap session", logging.Err(err))
	}
	logging.Info("snap account connected", logging.Address(acct.Address))

	return m.snapConnection(host, acct.Address), nil
}

func (m *Manager) findSnapAccount(ctx context.Context, host SnapHost, chainID string) (*snapAccount, error) {
	var recovered []snapAccount
	err := host.InvokeSnap(ctx, SnapID, "starkNet_recoverAccounts", map[string]any{
		"chainId":        chainID,
		"startScanIndex": recoverStartIndex,
		"maxScanned":     recoverMaxScanned,
		"maxMissed":      recoverMaxMissed,
	}, &recovered)
	if err = FromError(err); IsRejection(err) {
		return nil, err
	}
	if err == nil && len(recovered) > 0 && recovered[0].Address != "" {
		return &recovered[0], nil
	}
	logging.Debug("snap account recovery found nothing", logging.Err(err))

	var created snapAccount
	err = host.InvokeSnap(ctx, SnapID, "starkNet_createAccount", map[string]any{
		"chainId":      chainID,
		"addressIndex": 0,
		"deploy":       false,
	}, &created)
	if err = FromError(err); IsRejection(err) {
		return nil, err
	}
	if err == nil && created.Address != "" {
		return &created, nil
	}
	// Creating fails when the account already exists.
	logging.Debug("snap account creation failed", logging.Err(err))

	var stored []snapAccount
	err = host.InvokeSnap(ctx, SnapID, "starkNet_getStoredUserAccounts", map[string]any{
		"chainId": chainID,
	}, &stored)
	if err != nil {
		return nil, fmt.Errorf("list snap accounts: %w", FromError(err))
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: snap has no stored accounts", ErrNoAccount)
	}
	want := starknet.NetworkFromChainID(chainID)
	for i := range stored {
		if stored[i].ChainID != "" && starknet.NetworkFromChainID(stored[i].ChainID) == want {
			return &stored[i], nil
		}
	}
	return &stored[0], nil
}

func (m *Manager) snapConnection(host SnapHost, address string) *Connection {
	chainID := m.opts.Network.ChainID()
	return &Connection{
		Address:    address,
		Signer:     NewSnapSigner(host, address, chainID),
		WalletID:   metaMaskID,
		WalletName: metaMaskName,
		ChainID:    chainID,
		Backend:    BackendRemoteSnap,
	}
}

// resumeSnap rebuilds a snap connection from the session marker without
// any consent-requiring call. A missing snap clears the marker.
func (m *Manager) resumeSnap(ctx context.Context) *Connection {
	stored, ok, err := m.platform.Session().Get(SessionKey)
	if err != nil || !ok || stored == "" {
		return nil
	}
	host, ok := m.platform.Snap()
	if !ok {
		return nil
	}
	installed, err := snapInstalled(ctx, host)
	if err != nil {
		logging.Debug("snap host unreachable", logging.Err(err))
		return nil
	}
	if !installed {
		if err := m.platform.Session().Remove(SessionKey); err != nil {
			logging.Warn("failed to clear snap session", logging.Err(err))
		}
		return nil
	}
	logging.Info("resumed snap session", logging.Address(stored))
	return m.snapConnection(host, stored)
}

func snapInstalled(ctx context.Context, host SnapHost) (bool, error) {
	snaps, err := host.GetSnaps(ctx)
	if err != nil {
		return false, FromError(err)
	}
	_, ok := snaps[SnapID]
	return ok, nil
}
