package ecc

import (
	"encoding/hex"
	"fmt"
	"math/big"
)

// CompressPoint returns the 33-byte compressed public key encoding of p:
// a one-byte parity prefix (0x02 even y, 0x03 odd y) followed by the
// 32-byte big-endian x coordinate, per spec.md section 3.
func CompressPoint(p *Point) string {
	parity := new(big.Int).Mod(p.Y, big.NewInt(2))
	prefix := byte(0x02)
	if parity.Sign() != 0 {
		prefix = 0x03
	}
	xBytes := make([]byte, 32)
	p.X.FillBytes(xBytes)
	return hex.EncodeToString([]byte{prefix}) + hex.EncodeToString(xBytes)
}

// DecompressPoint recovers the full point from a compressed public key hex
// string, using Tonelli-Shanks to recover y and flipping its parity to
// match the prefix byte, per spec.md section 4.1.
func (c *Curve) DecompressPoint(cpkHex string) (*Point, error) {
	raw, err := hex.DecodeString(cpkHex)
	if err != nil {
		return nil, fmt.Errorf("ecc: malformed compressed key: %w", err)
	}
	if len(raw) != 33 {
		return nil, fmt.Errorf("ecc: compressed key must be 33 bytes, got %d", len(raw))
	}
	parityByte := raw[0]
	x := new(big.Int).SetBytes(raw[1:])

	y, err := c.FindYFromX(x)
	if err != nil {
		return nil, err
	}

	wantOdd := parityByte == 0x03
	isOdd := new(big.Int).Mod(y, big.NewInt(2)).Sign() != 0
	if isOdd != wantOdd {
		y = new(big.Int).Sub(c.P, y)
	}

	point := &Point{X: x, Y: y}
	if !c.IsOnCurve(point) {
		return nil, ErrNotOnCurve
	}
	return point, nil
}
