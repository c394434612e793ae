package ecc

import (
	"crypto/rand"
	"math/big"
)

// Signature is an ECDSA (r, s) pair.
type Signature struct {
	R *big.Int
	S *big.Int
}

// zFromTxID reduces the tx id hex string to the integer value of its first
// n bits, where n is the bit length of the curve's group order, per
// spec.md 4.1 and original_source/wallet.py's sign_transaction.
func zFromTxID(txID string, n *big.Int) (*big.Int, error) {
	full, ok := new(big.Int).SetString(txID, 16)
	if !ok {
		return nil, ErrInvalidSignature
	}
	bitLen := n.BitLen()
	full, ok = new(big.Int).SetString(full.Text(2)[:min(bitLen, len(full.Text(2)))], 2)
	if !ok {
		return nil, ErrInvalidSignature
	}
	return full, nil
}

// Sign produces an ECDSA signature over txID (hex-encoded) using private
// key k, retrying with a fresh ephemeral scalar whenever r or s land on
// zero, and re-verifying the result before returning it (spec.md 4.1).
func (c *Curve) Sign(txID string, k *big.Int) (*Signature, error) {
	if !c.HasPrimeOrder() {
		return nil, ErrCurveOrderNotPrime
	}
	z, err := zFromTxID(txID, c.N)
	if err != nil {
		return nil, err
	}

	pub, err := c.ScalarMul(k, c.G)
	if err != nil {
		return nil, err
	}

	for {
		t, err := rand.Int(rand.Reader, new(big.Int).Sub(c.N, big.NewInt(1)))
		if err != nil {
			return nil, err
		}
		t.Add(t, big.NewInt(1)) // t in [1, n-1]

		point, err := c.ScalarMul(t, c.G)
		if err != nil {
			return nil, err
		}
		r := new(big.Int).Mod(point.X, c.N)
		if r.Sign() == 0 {
			continue
		}

		tInv := modInverse(t, c.N)
		s := new(big.Int).Mul(r, k)
		s.Add(s, z)
		s.Mul(s, tInv)
		s.Mod(s, c.N)
		if s.Sign() == 0 {
			continue
		}

		sig := &Signature{R: r, S: s}
		ok, err := c.Verify(sig, txID, pub)
		if err != nil {
			return nil, err
		}
		if ok {
			return sig, nil
		}
	}
}

// Verify checks an ECDSA signature over txID against public key pub,
// per spec.md 4.1's verify_signature contract.
func (c *Curve) Verify(sig *Signature, txID string, pub *Point) (bool, error) {
	if !c.HasPrimeOrder() {
		return false, ErrCurveOrderNotPrime
	}
	one := big.NewInt(1)
	nMinus1 := new(big.Int).Sub(c.N, one)
	if sig.R.Cmp(one) < 0 || sig.R.Cmp(nMinus1) > 0 || sig.S.Cmp(one) < 0 || sig.S.Cmp(nMinus1) > 0 {
		return false, nil
	}

	z, err := zFromTxID(txID, c.N)
	if err != nil {
		return false, err
	}

	sInv := modInverse(sig.S, c.N)
	u1 := new(big.Int).Mul(z, sInv)
	u1.Mod(u1, c.N)
	u2 := new(big.Int).Mul(sig.R, sInv)
	u2.Mod(u2, c.N)

	p1, err := c.ScalarMul(u1, c.G)
	if err != nil {
		return false, err
	}
	p2, err := c.ScalarMul(u2, pub)
	if err != nil {
		return false, err
	}
	sum, err := c.Add(p1, p2)
	if err != nil {
		return false, err
	}
	if sum == nil {
		return false, nil
	}

	x := new(big.Int).Mod(sum.X, c.N)
	return x.Cmp(sig.R) == 0, nil
}
