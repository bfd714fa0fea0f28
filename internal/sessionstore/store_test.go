package sessionstore

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
)

const key = "starkstake_metamask_snap_address"

// exercise runs the Store contract against s.
func exercise(t *testing.T, s Store) {
	t.Helper()

	if _, ok, err := s.Get(key); err != nil || ok {
		t.Fatalf("Get on empty store = %v, %v", ok, err)
	}
	if err := s.Set(key, "0x0123"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get(key)
	if err != nil || !ok || v != "0x0123" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
	if err := s.Set(key, "0x0456"); err != nil {
		t.Fatal(err)
	}
	if v, _, _ := s.Get(key); v != "0x0456" {
		t.Errorf("overwrite = %q", v)
	}
	if err := s.Remove(key); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(key); ok {
		t.Error("value survived Remove")
	}
	if err := s.Remove(key); err != nil {
		t.Errorf("second Remove = %v", err)
	}
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestFile(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "session"))
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, f)

	if err := f.Set("../escape", "x"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("path key err = %v", err)
	}
}

func TestFile_Permissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")
	f, err := NewFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0700 {
		t.Errorf("dir mode = %v", info.Mode().Perm())
	}
	if err := f.Set(key, "0x1"); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(filepath.Join(dir, key))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm()&0077 != 0 {
		t.Errorf("file mode = %v", fi.Mode().Perm())
	}
}

func TestFile_WatchReportsExternalRemoval(t *testing.T) {
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Set(key, "0x1"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := f.Watch(ctx, key)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(f.Dir(), key)); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	for range changes {
	}
}

func TestFile_WatchIgnoresOtherKeys(t *testing.T) {
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := f.Watch(ctx, key)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(f.Dir(), "other"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changes:
		t.Fatal("unrelated file reported")
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	for range changes {
	}
}

func TestDefaultRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if got := DefaultRuntimeDir(); got != "/run/user/1000/starkstake" {
		t.Errorf("DefaultRuntimeDir = %s", got)
	}
	t.Setenv("XDG_RUNTIME_DIR", "")
	if got := DefaultRuntimeDir(); !strings.HasPrefix(got, os.TempDir()) {
		t.Errorf("fallback = %s", got)
	}
}

func TestKeyring(t *testing.T) {
	exercise(t, &Keyring{ring: keyring.NewArrayKeyring(nil)})
}

// fakeKeyctl mimics keyctl against an in-memory session keyring.
type fakeKeyctl struct {
	keys  map[string]string // description -> value
	calls [][]string
}

func exitErr(t *testing.T) error {
	t.Helper()
	err := exec.Command("sh", "-c", "exit 1").Run()
	if err == nil {
		t.Fatal("expected exit status 1")
	}
	return err
}

func (f *fakeKeyctl) runner(t *testing.T) runFunc {
	return func(_ context.Context, stdin []byte, args ...string) ([]byte, error) {
		f.calls = append(f.calls, args)
		switch args[0] {
		case "padd":
			f.keys[args[2]] = string(stdin)
			return []byte("1\n"), nil
		case "search":
			if _, ok := f.keys[args[3]]; ok {
				return []byte(args[3] + "\n"), nil
			}
			return nil, exitErr(t)
		case "pipe":
			if v, ok := f.keys[args[1]]; ok {
				return []byte(v), nil
			}
			return nil, exitErr(t)
		case "unlink":
			delete(f.keys, args[1])
			return nil, nil
		}
		return nil, errors.New("unexpected keyctl " + args[0])
	}
}

func TestKernel(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("needs sh to produce exit errors")
	}
	fake := &fakeKeyctl{keys: map[string]string{}}
	k := newKernel(fake.runner(t))
	exercise(t, k)

	for _, call := range fake.calls {
		if call[0] == "padd" && (call[2] != keyPrefix+key || call[3] != "@s") {
			t.Errorf("padd args = %v", call)
		}
	}
}

func TestOpen(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	s, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*File); !ok {
		t.Errorf("default backend = %T", s)
	}
	if s, err := Open("Memory"); err != nil || s == nil {
		t.Errorf("memory = %v, %v", s, err)
	}
	if _, err := Open("floppy"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("unknown backend err = %v", err)
	}
}
