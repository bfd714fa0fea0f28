package wallet

import "testing"

func TestWalletTypeFor(t *testing.T) {
	tests := map[string]string{
		"argentX":          TypeArgent,
		"Argent X":         TypeArgent,
		"argentWebWallet":  TypeArgent,
		"braavos":          TypeBraavos,
		"Braavos-Wallet":   TypeBraavos,
		"metamask":         TypeMetaMask,
		"io.metamask.snap": TypeMetaMask,
		"okx":              TypeArgent,
		"":                 TypeArgent,
	}
	for id, want := range tests {
		if got := WalletTypeFor(id); got != want {
			t.Errorf("WalletTypeFor(%q) = %s, want %s", id, got, want)
		}
	}
}

func TestNetworkLabel(t *testing.T) {
	if NetworkLabel("0x534e5f4d41494e") != "Mainnet" {
		t.Error("mainnet hex should be Mainnet")
	}
	if NetworkLabel("SN_MAINNET") != "Mainnet" {
		t.Error("contains mainnet should be Mainnet")
	}
	if NetworkLabel("unknown") != "Sepolia" {
		t.Error("fallback should be Sepolia")
	}
}

func TestFormatAddress(t *testing.T) {
	addr := "0x04718f5a0fc34cc1af16a1cdee98ffb20c31f5cd61d6ab07201858f4287c938d"
	if got := FormatAddress(addr, 4); got != "0x0471...938d" {
		t.Errorf("FormatAddress = %s", got)
	}
	if got := FormatAddress("0x12", 4); got != "0x12" {
		t.Errorf("short address = %s", got)
	}
	if FormatAddress("", 4) != "" {
		t.Error("empty stays empty")
	}
}
