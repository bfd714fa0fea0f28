package sessionstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	keyPrefix      = "starkstake:"
	keyctlTimeout  = 5 * time.Second
	sessionKeyring = "@s"
)

// runFunc runs keyctl with args and returns its stdout.
type runFunc func(ctx context.Context, stdin []byte, args ...string) ([]byte, error)

// Kernel keeps values as "user" keys in the kernel session keyring, which
// the kernel drops with the login session.
type Kernel struct {
	run runFunc
}

func newKernel(run runFunc) *Kernel {
	return &Kernel{run: run}
}

func runKeyctl(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "keyctl", args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, &keyctlError{args: args, stderr: strings.TrimSpace(stderr.String()), err: err}
	}
	return out, nil
}

type keyctlError struct {
	args   []string
	stderr string
	err    error
}

func (e *keyctlError) Error() string {
	if e.stderr != "" {
		return fmt.Sprintf("keyctl %s: %s", e.args[0], e.stderr)
	}
	return fmt.Sprintf("keyctl %s: %v", e.args[0], e.err)
}

func (e *keyctlError) Unwrap() error { return e.err }

// notFound reports a failed keyctl search, which exits 1.
func notFound(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == 1
}

func (k *Kernel) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), keyctlTimeout)
}

func (k *Kernel) search(ctx context.Context, key string) (string, bool, error) {
	out, err := k.run(ctx, nil, "search", sessionKeyring, "user", keyPrefix+key)
	if notFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(string(out)), true, nil
}

func (k *Kernel) Get(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	ctx, cancel := k.ctx()
	defer cancel()

	id, ok, err := k.search(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	out, err := k.run(ctx, nil, "pipe", id)
	if notFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(out), true, nil
}

// Set uses padd so the value never shows up in the process list.
func (k *Kernel) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	ctx, cancel := k.ctx()
	defer cancel()
	_, err := k.run(ctx, []byte(value), "padd", "user", keyPrefix+key, sessionKeyring)
	return err
}

func (k *Kernel) Remove(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	ctx, cancel := k.ctx()
	defer cancel()

	id, ok, err := k.search(ctx, key)
	if err != nil || !ok {
		return err
	}
	if _, err := k.run(ctx, nil, "unlink", id, sessionKeyring); err != nil && !notFound(err) {
		return err
	}
	return nil
}
