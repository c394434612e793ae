package codec

import (
	"math/big"

	"github.com/mr-tron/base58"
)

// EncodeAddress base58-encodes a raw byte payload (the checksum-encoded
// public key digest), preserving leading zero bytes as leading '1'
// characters the way Bitcoin-style addresses do.
func EncodeAddress(payload []byte) string {
	return base58.Encode(payload)
}

// DecodeAddress reverses EncodeAddress.
func DecodeAddress(address string) ([]byte, error) {
	return base58.Decode(address)
}

// IntToBase58 encodes a non-negative integer as base58 over its minimal
// big-endian byte representation.
func IntToBase58(x *big.Int) string {
	return base58.Encode(x.Bytes())
}

// Base58ToInt decodes a base58 string produced by IntToBase58 back into
// its integer value.
func Base58ToInt(s string) (*big.Int, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}
