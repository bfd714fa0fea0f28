// Package sessionstore keeps the wallet session marker somewhere that lives
// exactly as long as the user's login session.
package sessionstore

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendRuntime = "runtime"
	BackendKernel  = "kernel"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
)

var (
	ErrUnknownBackend = errors.New("unknown session backend")
	ErrUnsupported    = errors.New("session backend not supported on this platform")
	ErrInvalidKey     = errors.New("invalid session key")
)

// Store holds session-scoped string values.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Open returns the store for backend. An empty name selects the runtime
// directory store.
func Open(backend string) (Store, error) {
	var (
		store Store
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendRuntime:
		store, err = unwrap(NewFile(DefaultRuntimeDir()))
	case BackendKernel:
		store, err = unwrap(NewKernel())
	case BackendKeyring:
		store, err = unwrap(NewKeyring())
	case BackendMemory:
		store = NewMemory()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// unwrap keeps a nil concrete pointer out of the Store interface.
func unwrap[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
