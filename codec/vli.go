// Package codec implements the wire-level primitives shared by every
// on-chain structure: fixed-width big-endian hex fields and the
// variable-length integer (VLI) byte-count prefix used ahead of
// variable-size blobs (signatures, transaction lists, compressed keys).
package codec

import (
	"fmt"
	"strconv"
)

// EncodeVLI returns the VLI hex prefix for a payload of n bytes, per
// spec.md section 4.2:
//
//	n < 253            -> 1-byte hex
//	253 <= n < 2^16     -> "FD" + 4 hex chars
//	2^16 <= n < 2^32    -> "FE" + 8 hex chars
//	2^32 <= n < 2^64    -> "FF" + 16 hex chars
func EncodeVLI(n uint64) string {
	switch {
	case n < 253:
		return fmt.Sprintf("%02x", n)
	case n < 1<<16:
		return "fd" + fmt.Sprintf("%04x", n)
	case n < 1<<32:
		return "fe" + fmt.Sprintf("%08x", n)
	default:
		return "ff" + fmt.Sprintf("%016x", n)
	}
}

// vliWidth returns the number of hex characters occupied by the
// size-indicator payload that follows a given first byte (0 for a bare
// 1-byte VLI, 4/8/16 for the 0xFD/0xFE/0xFF extended forms).
func vliWidth(firstByte uint64) int {
	switch firstByte {
	case 253:
		return 4
	case 254:
		return 8
	case 255:
		return 16
	default:
		return 0
	}
}

// DecodeVLI reads a VLI from the start of s, returning the decoded integer
// and the number of hex characters consumed (including the leading byte and
// any extended-width payload).
func DecodeVLI(s string) (value uint64, consumed int, err error) {
	if len(s) < 2 {
		return 0, 0, ErrTruncatedVLI
	}
	first, err := strconv.ParseUint(s[:2], 16, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("codec: malformed VLI first byte: %w", err)
	}

	width := vliWidth(first)
	if width == 0 {
		return first, 2, nil
	}
	if len(s) < 2+width {
		return 0, 0, ErrTruncatedVLI
	}
	value, err = strconv.ParseUint(s[2:2+width], 16, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("codec: malformed VLI payload: %w", err)
	}
	if EncodeVLI(value) != s[:2+width] {
		return 0, 0, ErrCodecMismatch
	}
	return value, 2 + width, nil
}
