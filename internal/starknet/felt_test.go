package starknet

import (
	"math/big"
	"testing"
)

func TestParseFelt(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0x0", 0},
		{"0x1f", 31},
		{"0X1F", 31},
		{"42", 42},
		{"  7 ", 7},
	}
	for _, tt := range tests {
		got, err := ParseFelt(tt.in)
		if err != nil {
			t.Errorf("ParseFelt(%q): %v", tt.in, err)
			continue
		}
		if got.Int64() != tt.want {
			t.Errorf("ParseFelt(%q) = %s, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseFelt_Invalid(t *testing.T) {
	for _, in := range []string{"", "0x", "0xzz", "-1", "abc", FeltHex(fieldPrime)} {
		if _, err := ParseFelt(in); err == nil {
			t.Errorf("ParseFelt(%q) should fail", in)
		}
	}
}

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress("0xABC")
	if err != nil {
		t.Fatal(err)
	}
	want := "0x0000000000000000000000000000000000000000000000000000000000000abc"
	if got != want {
		t.Errorf("NormalizeAddress = %s, want %s", got, want)
	}
}

func TestSameAddress(t *testing.T) {
	if !SameAddress("0x00abc", "0xABC") {
		t.Error("padded and unpadded addresses should match")
	}
	if SameAddress("0x1", "0x2") {
		t.Error("different addresses should not match")
	}
	if SameAddress("garbage", "garbage") {
		t.Error("invalid addresses never match")
	}
}

func TestSelector(t *testing.T) {
	tests := map[string]string{
		"balanceOf": "0x2e4263afad30923c891518314c3c95dbe830a16874e8abc5777a9a20b54c76e",
		"transfer":  "0x83afd3f4caedc6eebf44246fe54e38c95e3179a5ec9ea81740eca5b482d12e",
	}
	for name, want := range tests {
		if got := Selector(name); got != want {
			t.Errorf("Selector(%q) = %s, want %s", name, got, want)
		}
	}
	// cached path
	if Selector("balanceOf") != tests["balanceOf"] {
		t.Error("cached selector differs")
	}
}

func TestSplitJoinU256(t *testing.T) {
	v := new(big.Int).Lsh(big.NewInt(3), 128)
	v.Add(v, big.NewInt(5))

	low, high, err := SplitU256(v)
	if err != nil {
		t.Fatal(err)
	}
	if low != "0x5" || high != "0x3" {
		t.Errorf("SplitU256 = (%s, %s)", low, high)
	}

	back, err := JoinU256(low, high)
	if err != nil {
		t.Fatal(err)
	}
	if back.Cmp(v) != 0 {
		t.Errorf("JoinU256 = %s, want %s", back, v)
	}
}

func TestSplitU256_OutOfRange(t *testing.T) {
	if _, _, err := SplitU256(new(big.Int).Lsh(big.NewInt(1), 256)); err == nil {
		t.Error("expected overflow error")
	}
	if _, _, err := SplitU256(big.NewInt(-1)); err == nil {
		t.Error("expected negative error")
	}
}

func TestCall_FunctionCall(t *testing.T) {
	fc := NewCall("0x1", "balanceOf").FunctionCall()
	if fc.Calldata == nil {
		t.Error("calldata must serialize as []")
	}
	if fc.EntryPointSelector != Selector("balanceOf") {
		t.Errorf("selector = %s", fc.EntryPointSelector)
	}
}
