package amount

import (
	"math/big"
	"testing"
)

func TestToFixedPoint(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"0.5", "500000000000000000"},
		{"20000", "20000000000000000000000"},
		{".25", "250000000000000000"},
		{"1.0000000000000000019", "1000000000000000001"}, // truncated
		{"12345.678901234567890123", "12345678901234567890123"},
		{"0", "0"},
	}

	for _, tc := range cases {
		got, err := ToFixedPoint(tc.in, Decimals)
		if err != nil {
			t.Fatalf("ToFixedPoint(%q): %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Errorf("ToFixedPoint(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestToFixedPoint_Invalid(t *testing.T) {
	for _, in := range []string{"", "-1", "abc", "1.2.3", "1e18", ".", " 1,5"} {
		if _, err := ToFixedPoint(in, Decimals); err == nil {
			t.Errorf("ToFixedPoint(%q) should fail", in)
		}
	}
}

func TestFromFixedPoint(t *testing.T) {
	v, _ := new(big.Int).SetString("1234567890000000000000", 10) // 1234.56789

	if got := FromFixedPoint(v, Decimals, 6, true); got != "1234.56789" {
		t.Errorf("trimmed = %s", got)
	}
	if got := FromFixedPoint(v, Decimals, 2, false); got != "1234.56" {
		t.Errorf("fixed = %s", got)
	}
	if got := Format(big.NewInt(0)); got != "0" {
		t.Errorf("Format(0) = %s", got)
	}
	if got := FormatFixed(big.NewInt(0)); got != "0.00" {
		t.Errorf("FormatFixed(0) = %s", got)
	}
	if got := Format(nil); got != "0" {
		t.Errorf("Format(nil) = %s", got)
	}
	if got := FormatString("not-a-number"); got != "0" {
		t.Errorf("FormatString(bad) = %s", got)
	}
	if got := FormatString("5000000000000000000"); got != "5" {
		t.Errorf("FormatString(5e18) = %s", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, in := range []string{"1", "0.5", "20000", "0.000001", "99999.123456", "42.1"} {
		fp, err := ToFixedPoint(in, Decimals)
		if err != nil {
			t.Fatalf("ToFixedPoint(%q): %v", in, err)
		}
		if got := Format(fp); got != in {
			t.Errorf("round trip %q -> %s -> %q", in, fp, got)
		}
	}
}

func TestDecodeTwoLimb(t *testing.T) {
	max128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	cases := []struct {
		low, high *big.Int
	}{
		{big.NewInt(0), big.NewInt(0)},
		{big.NewInt(12345), big.NewInt(0)},
		{big.NewInt(0), big.NewInt(1)},
		{max128, max128},
		{big.NewInt(7), big.NewInt(3)},
	}

	for _, tc := range cases {
		got, err := DecodeTwoLimb(tc.low, tc.high)
		if err != nil {
			t.Fatalf("DecodeTwoLimb: %v", err)
		}
		want := new(big.Int).Mul(tc.high, new(big.Int).Lsh(big.NewInt(1), 128))
		want.Add(want, tc.low)
		if got.Cmp(want) != 0 {
			t.Errorf("DecodeTwoLimb(%s, %s) = %s, want %s", tc.low, tc.high, got, want)
		}
	}

	if _, err := DecodeTwoLimb(big.NewInt(-1), big.NewInt(0)); err == nil {
		t.Error("negative limb should be rejected")
	}
}
