package ecc

import "math/big"

// modInverse returns a^-1 mod p using big.Int's extended-Euclid implementation.
func modInverse(a, p *big.Int) *big.Int {
	return new(big.Int).ModInverse(new(big.Int).Mod(a, p), p)
}

// isQuadraticResidue reports whether n is a quadratic residue mod the prime p,
// via Euler's criterion: n is a QR iff n^((p-1)/2) = 1 (mod p).
func isQuadraticResidue(n, p *big.Int) bool {
	mod := new(big.Int).Mod(n, p)
	if mod.Sign() == 0 {
		return true
	}
	exp := new(big.Int).Rsh(new(big.Int).Sub(p, big.NewInt(1)), 1)
	res := new(big.Int).Exp(n, exp, p)
	return res.Cmp(big.NewInt(1)) == 0
}

// tonelliShanks returns r such that r*r = n (mod p) for prime p, or nil if n
// is not a quadratic residue mod p. Takes the p = 3 (mod 4) shortcut when
// available, matching original_source/cryptography.py's tonelli_shanks.
func tonelliShanks(n, p *big.Int) *big.Int {
	if !isQuadraticResidue(n, p) {
		return nil
	}

	nm := new(big.Int).Mod(n, p)
	if nm.Sign() == 0 {
		return big.NewInt(0)
	}

	four := big.NewInt(4)
	three := big.NewInt(3)
	if new(big.Int).Mod(p, four).Cmp(three) == 0 {
		exp := new(big.Int).Rsh(new(big.Int).Add(p, big.NewInt(1)), 2)
		return new(big.Int).Exp(n, exp, p)
	}

	// General case: factor p-1 = 2^s * q with q odd.
	q := new(big.Int).Sub(p, big.NewInt(1))
	s := 0
	two := big.NewInt(2)
	for new(big.Int).Mod(q, two).Sign() == 0 {
		s++
		q.Div(q, two)
	}

	// Find a quadratic non-residue z.
	z := big.NewInt(2)
	for isQuadraticResidue(z, p) {
		z = new(big.Int).Add(z, big.NewInt(1))
	}

	m := s
	c := new(big.Int).Exp(z, q, p)
	t := new(big.Int).Exp(n, q, p)
	qPlus1Over2 := new(big.Int).Rsh(new(big.Int).Add(q, big.NewInt(1)), 1)
	r := new(big.Int).Exp(n, qPlus1Over2, p)

	one := big.NewInt(1)
	for t.Cmp(one) != 0 {
		// Least i such that t^(2^i) = 1 (mod p).
		i := 0
		factor := new(big.Int).Set(t)
		for factor.Cmp(one) != 0 {
			i++
			factor = new(big.Int).Mod(new(big.Int).Mul(factor, factor), p)
		}

		exp := new(big.Int).Lsh(big.NewInt(1), uint(m-i-1))
		b := new(big.Int).Exp(c, exp, p)

		m = i
		c = new(big.Int).Mod(new(big.Int).Mul(b, b), p)
		t = new(big.Int).Mod(new(big.Int).Mul(new(big.Int).Mul(t, b), b), p)
		r = new(big.Int).Mod(new(big.Int).Mul(r, b), p)
	}

	return r
}
