package starknet

import "testing"

func TestNetworkFromChainID(t *testing.T) {
	tests := map[string]Network{
		ChainIDMainnet:         Mainnet,
		"0x534E5F4D41494E":     Mainnet,
		"starknet-mainnet":     Mainnet,
		"SN_MAIN":              Mainnet,
		ChainIDSepolia:         Sepolia,
		"":                     Sepolia,
		"something-unexpected": Sepolia,
	}
	for id, want := range tests {
		if got := NetworkFromChainID(id); got != want {
			t.Errorf("NetworkFromChainID(%q) = %s, want %s", id, got, want)
		}
	}
}

func TestParseNetwork(t *testing.T) {
	if n, err := ParseNetwork(" Mainnet "); err != nil || n != Mainnet {
		t.Errorf("ParseNetwork(Mainnet) = %s, %v", n, err)
	}
	if _, err := ParseNetwork("goerli"); err == nil {
		t.Error("expected error for goerli")
	}
}

func TestExplorerTxURL(t *testing.T) {
	if got := Sepolia.ExplorerTxURL("0xabc"); got != "https://sepolia.voyager.online/tx/0xabc" {
		t.Errorf("sepolia url = %s", got)
	}
	if got := Mainnet.ExplorerTxURL("0xabc"); got != "https://voyager.online/tx/0xabc" {
		t.Errorf("mainnet url = %s", got)
	}
}
