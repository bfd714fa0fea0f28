package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/starkstake/starkstake/internal/starknet"
	"github.com/starkstake/starkstake/internal/wallet"
)

const (
	addrA = "0x0123"
	addrB = "0x0456"
)

func newTestInjected(t *testing.T, f *fakeWallet) *Injected {
	t.Helper()
	p := NewInjected(f.url(), "argentX", "Argent X")
	t.Cleanup(func() { p.Close() })
	return p
}

func TestInjected_EnableAndExecute(t *testing.T) {
	f := newFakeWallet(t)
	f.handle(methodGetPermissions, func(json.RawMessage) (any, error) {
		return []string{"accounts"}, nil
	})
	f.handle(methodRequestAccounts, func(raw json.RawMessage) (any, error) {
		var p struct {
			Silent bool `json:"silent_mode"`
		}
		json.Unmarshal(raw, &p)
		if p.Silent {
			return nil, &RPCError{Code: 113, Message: "silent mode refused"}
		}
		return []string{addrA}, nil
	})
	f.handle(methodRequestChainID, func(json.RawMessage) (any, error) {
		return starknet.ChainIDSepolia, nil
	})
	f.handle(methodAddInvoke, func(raw json.RawMessage) (any, error) {
		var p struct {
			Calls []invokeCall `json:"calls"`
		}
		if err := json.Unmarshal(raw, &p); err != nil || len(p.Calls) != 1 || p.Calls[0].EntryPoint != "approve" {
			return nil, &RPCError{Code: -32602, Message: "bad calls"}
		}
		return map[string]string{"transaction_hash": "0xabc"}, nil
	})

	p := newTestInjected(t, f)
	ctx := context.Background()

	pre, err := p.IsPreauthorized(ctx)
	if err != nil || !pre {
		t.Fatalf("IsPreauthorized = %v, %v", pre, err)
	}
	if p.Account() != nil {
		t.Fatal("account before enable")
	}

	if _, err := p.Enable(ctx, true); wallet.KindOf(err) != wallet.KindUserRejected {
		t.Fatalf("silent enable err = %v", err)
	}
	accounts, err := p.Enable(ctx, false)
	if err != nil || len(accounts) != 1 {
		t.Fatalf("Enable = %v, %v", accounts, err)
	}
	if p.SelectedAddress() != addrA {
		t.Errorf("selected = %s", p.SelectedAddress())
	}

	signer := p.Account()
	if signer == nil || signer.Address() != addrA {
		t.Fatal("account not exposed after enable")
	}
	chainID, err := signer.ChainID(ctx)
	if err != nil || chainID != starknet.ChainIDSepolia {
		t.Errorf("ChainID = %s, %v", chainID, err)
	}

	hash, err := signer.Execute(ctx, starknet.NewCall("0x1", "approve", addrB, "0x10", "0x0"))
	if err != nil || hash != "0xabc" {
		t.Fatalf("Execute = %s, %v", hash, err)
	}
}

func TestInjected_SignTypedData(t *testing.T) {
	f := newFakeWallet(t)
	f.handle(methodRequestAccounts, func(json.RawMessage) (any, error) { return []string{addrA}, nil })
	f.handle(methodSignTypedData, func(raw json.RawMessage) (any, error) {
		var td wallet.TypedData
		if err := json.Unmarshal(raw, &td); err != nil || td.PrimaryType != "Message" {
			return nil, &RPCError{Code: -32602, Message: "bad typed data"}
		}
		return []string{"0xr", "0xs"}, nil
	})

	p := newTestInjected(t, f)
	if _, err := p.Enable(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	sig, err := p.Account().SignMessage(context.Background(), wallet.AuthTypedData(starknet.ChainIDSepolia, "n"))
	if err != nil || len(sig) != 2 {
		t.Fatalf("SignMessage = %v, %v", sig, err)
	}
}

func TestInjected_UserRejection(t *testing.T) {
	f := newFakeWallet(t)
	f.handle(methodRequestAccounts, func(json.RawMessage) (any, error) {
		return nil, &RPCError{Code: 4001, Message: "User rejected the request"}
	})

	p := newTestInjected(t, f)
	_, err := p.Enable(context.Background(), false)
	if !wallet.IsRejection(err) {
		t.Fatalf("err = %v, want rejection", err)
	}
}

func TestInjected_UnreachableBridge(t *testing.T) {
	f := newFakeWallet(t)
	url := f.url()
	f.srv.Close()

	p := NewInjected(url, "argentX", "")
	defer p.Close()
	if p.Name() != "argentX" {
		t.Errorf("name defaults to id, got %q", p.Name())
	}

	_, err := p.IsPreauthorized(context.Background())
	if wallet.KindOf(err) != wallet.KindUnavailable {
		t.Fatalf("kind = %s (%v)", wallet.KindOf(err), err)
	}
}

func TestInjected_Notifications(t *testing.T) {
	f := newFakeWallet(t)
	f.handle(methodRequestAccounts, func(json.RawMessage) (any, error) { return []string{addrA}, nil })

	p := newTestInjected(t, f)
	if _, err := p.Enable(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	accounts := make(chan []string, 1)
	networks := make(chan string, 1)
	unsubscribe := p.Subscribe(wallet.Events{
		AccountsChanged: func(a []string) { accounts <- a },
		NetworkChanged:  func(c string) { networks <- c },
	})
	defer unsubscribe()

	f.push(eventAccountsChanged, []string{addrB})
	select {
	case a := <-accounts:
		if len(a) != 1 || a[0] != addrB {
			t.Errorf("accounts = %v", a)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no accountsChanged")
	}
	if p.SelectedAddress() != addrB {
		t.Errorf("selected = %s", p.SelectedAddress())
	}

	f.push(eventNetworkChanged, []any{starknet.ChainIDMainnet, []string{addrB}})
	select {
	case c := <-networks:
		if c != starknet.ChainIDMainnet {
			t.Errorf("chain = %s", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no networkChanged")
	}

	f.push(eventAccountsChanged, []string{})
	<-accounts
	if p.Account() != nil {
		t.Error("empty accounts should drop the signer")
	}
}

func TestInjected_RedialsAfterDrop(t *testing.T) {
	f := newFakeWallet(t)
	f.handle(methodRequestChainID, func(json.RawMessage) (any, error) { return starknet.ChainIDSepolia, nil })

	p := newTestInjected(t, f)
	if _, err := p.ChainID(context.Background()); err != nil {
		t.Fatal(err)
	}

	f.dropAll()
	waitFor(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.conn == nil || p.conn.Closed()
	})

	if _, err := p.ChainID(context.Background()); err != nil {
		t.Fatalf("after drop: %v", err)
	}
	if f.dialCount() != 2 {
		t.Errorf("dials = %d, want 2", f.dialCount())
	}
}

func TestInjected_Disconnect(t *testing.T) {
	f := newFakeWallet(t)
	f.handle(methodRequestAccounts, func(json.RawMessage) (any, error) { return []string{addrA}, nil })

	p := newTestInjected(t, f)
	if _, err := p.Enable(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if err := p.Disconnect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.Account() != nil || p.SelectedAddress() != "" {
		t.Error("disconnect should forget the account")
	}
}

func TestConn_ContextCancel(t *testing.T) {
	f := newFakeWallet(t)
	f.handle("slow", func(json.RawMessage) (any, error) { return nil, errNoReply })

	conn, err := Dial(context.Background(), f.url(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := conn.Call(ctx, "slow", nil, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestConn_CallAfterClose(t *testing.T) {
	f := newFakeWallet(t)
	conn, err := Dial(context.Background(), f.url(), nil)
	if err != nil {
		t.Fatal(err)
	}
	conn.Close()
	if err := conn.Call(context.Background(), "anything", nil, nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v", err)
	}
}
