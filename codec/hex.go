package codec

import (
	"encoding/hex"
	"fmt"
	"math/big"
)

// FixedHex formats n as a fixed-width big-endian hex string occupying
// byteWidth bytes (2*byteWidth hex characters), used for header fields,
// amounts, and other fixed-size integers throughout the wire format.
func FixedHex(n uint64, byteWidth int) string {
	return fmt.Sprintf("%0*x", byteWidth*2, n)
}

// FixedHexBig is FixedHex for values that may exceed 64 bits (curve
// parameters carried in a genesis transaction).
func FixedHexBig(n *big.Int, byteWidth int) string {
	buf := make([]byte, byteWidth)
	n.FillBytes(buf)
	return hex.EncodeToString(buf)
}

// ParseFixedHex parses the first byteWidth*2 hex characters of s into a
// uint64; a caller advances its own offset by byteWidth*2.
func ParseFixedHex(s string, byteWidth int) (uint64, error) {
	width := byteWidth * 2
	if len(s) < width {
		return 0, ErrTruncatedVLI
	}
	return parseUint(s[:width])
}

func parseUint(s string) (uint64, error) {
	var v uint64
	_, err := fmt.Sscanf(s, "%x", &v)
	if err != nil {
		return 0, fmt.Errorf("codec: malformed hex field %q: %w", s, err)
	}
	return v, nil
}

// PadHex left-pads s with '0' until it is at least width hex characters;
// a longer s is returned unchanged.
func PadHex(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
