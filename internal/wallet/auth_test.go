package wallet

import (
	"context"
	"testing"

	"github.com/starkstake/starkstake/internal/starknet"
)

func TestAuthNonce(t *testing.T) {
	tests := map[string]string{
		"Sign in\nNonce: abc123": "abc123",
		"nonce: ABCDEF":          "ABCDEF",
		"Nonce: 0123456789abcdef0123456789abcdef0123456789": "0123456789abcdef0123456789abcde",
		"no nonce here": "starkstake-auth",
	}
	for msg, want := range tests {
		if got := AuthNonce(msg); got != want {
			t.Errorf("AuthNonce(%q) = %q, want %q", msg, got, want)
		}
	}
}

func TestSignAuthMessage(t *testing.T) {
	signer := &fakeSigner{addr: addrA, chainID: starknet.ChainIDMainnet}

	sig, err := SignAuthMessage(context.Background(), signer, "Nonce: deadbeef")
	if err != nil {
		t.Fatal(err)
	}
	if len(sig) != 2 {
		t.Errorf("signature = %v", sig)
	}

	td := signer.signed[0].(TypedData)
	if td.Domain["chainId"] != starknet.ChainIDMainnet || td.Domain["name"] != "StarkStake" {
		t.Errorf("domain = %v", td.Domain)
	}
	if td.Message["action"] != "authenticate" || td.Message["nonce"] != "deadbeef" {
		t.Errorf("message = %v", td.Message)
	}
}

func TestSignAuthMessage_UnknownChainDefaultsToSepolia(t *testing.T) {
	signer := &fakeSigner{addr: addrA, chainID: "unknown"}
	if _, err := SignAuthMessage(context.Background(), signer, ""); err != nil {
		t.Fatal(err)
	}
	if td := signer.signed[0].(TypedData); td.Domain["chainId"] != starknet.ChainIDSepolia {
		t.Errorf("chainId = %s", td.Domain["chainId"])
	}
}

func TestSnapSigner(t *testing.T) {
	host := newFakeSnapHost()
	host.handlers["starkNet_signMessage"] = func(p map[string]any) (any, error) {
		if p["signerAddress"] != addrB || p["enableAuthorize"] != true {
			return nil, NewError(-32602, "bad params")
		}
		return []string{"0xr", "0xs"}, nil
	}
	host.handlers["starkNet_executeTxn"] = func(p map[string]any) (any, error) {
		calls := p["calls"].([]any)
		first := calls[0].(map[string]any)
		if first["entrypoint"] != "claim_rewards" || p["address"] != addrB {
			return nil, NewError(-32602, "bad params")
		}
		return map[string]string{"transaction_hash": "0x777"}, nil
	}

	s := NewSnapSigner(host, addrB, starknet.ChainIDSepolia)
	sig, err := s.SignMessage(context.Background(), AuthTypedData(starknet.ChainIDSepolia, "n"))
	if err != nil || len(sig) != 2 {
		t.Fatalf("SignMessage = %v, %v", sig, err)
	}

	hash, err := s.Execute(context.Background(), starknet.NewCall("0x1", "claim_rewards", addrB))
	if err != nil || hash != "0x777" {
		t.Fatalf("Execute = %q, %v", hash, err)
	}

	if _, err := s.Execute(context.Background()); err == nil {
		t.Error("empty call list should fail")
	}
}
