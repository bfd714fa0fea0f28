package sessionstore

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/99designs/keyring"
)

const keyringServiceName = "starkstake"

// Keyring stores values in the platform keyring. Entries survive logout,
// so Disconnect is what ends the session here.
type Keyring struct {
	ring keyring.Keyring
}

func NewKeyring() (*Keyring, error) {
	backends := platformKeyringBackends()
	if len(backends) == 0 {
		return nil, fmt.Errorf("%w: no keyring on %s", ErrUnsupported, runtime.GOOS)
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName:                    keyringServiceName,
		AllowedBackends:                backends,
		KeychainTrustApplication:       true,
		KeychainAccessibleWhenUnlocked: true,
		KeychainSynchronizable:         false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &Keyring{ring: ring}, nil
}

func platformKeyringBackends() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend}
	case "linux":
		return []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend}
	}
	return nil
}

func (k *Keyring) Get(key string) (string, bool, error) {
	item, err := k.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("keyring get %s: %w", key, err)
	}
	return string(item.Data), true, nil
}

func (k *Keyring) Set(key, value string) error {
	err := k.ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       "StarkStake wallet session",
		Description: "Last connected StarkStake wallet account",
	})
	if err != nil {
		return fmt.Errorf("keyring set %s: %w", key, err)
	}
	return nil
}

func (k *Keyring) Remove(key string) error {
	err := k.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("keyring remove %s: %w", key, err)
	}
	return nil
}
