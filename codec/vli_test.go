package codec

import "testing"

func TestVLIRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 252, 253, 254, 1000, 1<<16 - 1, 1 << 16, 1 << 20, 1<<32 - 1, 1 << 32, 1 << 40}
	for _, n := range cases {
		encoded := EncodeVLI(n)
		decoded, consumed, err := DecodeVLI(encoded + "trailing")
		if err != nil {
			t.Fatalf("DecodeVLI(%q): %v", encoded, err)
		}
		if decoded != n {
			t.Errorf("n=%d: round trip produced %d", n, decoded)
		}
		if consumed != len(encoded) {
			t.Errorf("n=%d: consumed %d chars, want %d", n, consumed, len(encoded))
		}
	}
}

func TestVLIWidths(t *testing.T) {
	tests := []struct {
		n        uint64
		wantLen  int
		wantHead string
	}{
		{0, 2, ""},
		{252, 2, ""},
		{253, 6, "fd"},
		{1<<16 - 1, 6, "fd"},
		{1 << 16, 10, "fe"},
		{1<<32 - 1, 10, "fe"},
		{1 << 32, 18, "ff"},
	}
	for _, tc := range tests {
		got := EncodeVLI(tc.n)
		if len(got) != tc.wantLen {
			t.Errorf("EncodeVLI(%d) = %q, want length %d", tc.n, got, tc.wantLen)
		}
		if tc.wantHead != "" && got[:2] != tc.wantHead {
			t.Errorf("EncodeVLI(%d) = %q, want prefix %q", tc.n, got, tc.wantHead)
		}
	}
}

func TestDecodeVLITruncated(t *testing.T) {
	if _, _, err := DecodeVLI("fd01"); err != ErrTruncatedVLI {
		t.Fatalf("expected ErrTruncatedVLI, got %v", err)
	}
	if _, _, err := DecodeVLI(""); err != ErrTruncatedVLI {
		t.Fatalf("expected ErrTruncatedVLI, got %v", err)
	}
}
