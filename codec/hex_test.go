package codec

import (
	"math/big"
	"testing"
)

func TestFixedHexRoundTrip(t *testing.T) {
	cases := []struct {
		n     uint64
		width int
	}{
		{0, 1}, {255, 1}, {256, 2}, {65535, 2}, {1 << 20, 4}, {1<<32 - 1, 4},
	}
	for _, tc := range cases {
		encoded := FixedHex(tc.n, tc.width)
		if len(encoded) != tc.width*2 {
			t.Errorf("FixedHex(%d, %d) length = %d, want %d", tc.n, tc.width, len(encoded), tc.width*2)
		}
		decoded, err := ParseFixedHex(encoded, tc.width)
		if err != nil {
			t.Fatalf("ParseFixedHex(%q): %v", encoded, err)
		}
		if decoded != tc.n {
			t.Errorf("round trip: got %d, want %d", decoded, tc.n)
		}
	}
}

func TestFixedHexBigRoundTrip(t *testing.T) {
	n, _ := new(big.Int).SetString("ffeeddccbbaa99887766554433221100", 16)
	encoded := FixedHexBig(n, 32)
	if len(encoded) != 64 {
		t.Fatalf("FixedHexBig length = %d, want 64", len(encoded))
	}
	recovered, ok := new(big.Int).SetString(encoded, 16)
	if !ok {
		t.Fatal("failed to parse encoded big int back")
	}
	if recovered.Cmp(n) != 0 {
		t.Fatalf("round trip: got %s, want %s", recovered.Text(16), n.Text(16))
	}
}

func TestParseFixedHexTruncated(t *testing.T) {
	if _, err := ParseFixedHex("ab", 4); err != ErrTruncatedVLI {
		t.Fatalf("expected ErrTruncatedVLI, got %v", err)
	}
}

func TestAddressEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{0x00, 0x01, 0xff, 0xaa, 0x55}
	addr := EncodeAddress(payload)
	decoded, err := DecodeAddress(addr)
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	if string(decoded) != string(payload) {
		t.Fatalf("round trip: got %x, want %x", decoded, payload)
	}
}
