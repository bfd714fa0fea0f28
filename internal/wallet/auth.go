package wallet

import (
	"context"
	"fmt"
	"regexp"

	"github.com/starkstake/starkstake/internal/starknet"
)

const (
	defaultAuthNonce = "starkstake-auth"
	// maxShortString is the longest Cairo short string (one felt).
	maxShortString = 31
)

var noncePattern = regexp.MustCompile(`(?i)Nonce: ([a-f0-9]+)`)

// TypedDataField is one member of a SNIP-12 struct type.
type TypedDataField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TypedData is a SNIP-12 (revision 0) message.
type TypedData struct {
	Types       map[string][]TypedDataField `json:"types"`
	PrimaryType string                      `json:"primaryType"`
	Domain      map[string]string           `json:"domain"`
	Message     map[string]string           `json:"message"`
}

// AuthTypedData builds the sign-in message for chainID and nonce.
func AuthTypedData(chainID, nonce string) TypedData {
	return TypedData{
		Types: map[string][]TypedDataField{
			"StarkNetDomain": {
				{Name: "name", Type: "felt"},
				{Name: "version", Type: "felt"},
				{Name: "chainId", Type: "felt"},
			},
			"Message": {
				{Name: "action", Type: "felt"},
				{Name: "nonce", Type: "felt"},
			},
		},
		PrimaryType: "Message",
		Domain: map[string]string{
			"name":    "StarkStake",
			"version": "1",
			"chainId": chainID,
		},
		Message: map[string]string{
			"action": "authenticate",
			"nonce":  nonce,
		},
	}
}

// AuthNonce extracts the hex nonce from a backend challenge such as
// "Sign in to StarkStake\nNonce: 9f2c...", cut to one felt.
func AuthNonce(message string) string {
	m := noncePattern.FindStringSubmatch(message)
	if m == nil {
		return defaultAuthNonce
	}
	nonce := m[1]
	if len(nonce) > maxShortString {
		nonce = nonce[:maxShortString]
	}
	return nonce
}

// SignAuthMessage signs the sign-in typed data for message with signer.
func SignAuthMessage(ctx context.Context, signer Signer, message string) ([]string, error) {
	if signer == nil {
		return nil, ErrNotConnected
	}
	chainID, err := signer.ChainID(ctx)
	if err != nil || chainID == "" || chainID == unknownChainID {
		chainID = starknet.ChainIDSepolia
	}

	sig, err := signer.SignMessage(ctx, AuthTypedData(chainID, AuthNonce(message)))
	if err != nil {
		return nil, fmt.Errorf("sign auth message: %w", FromError(err))
	}
	if len(sig) == 0 {
		return nil, fmt.Errorf("wallet returned an empty signature")
	}
	return sig, nil
}
