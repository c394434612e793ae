// Package ecc implements the prime-field and elliptic-curve primitives used
// to derive keys, addresses, and transaction signatures: modular inverse,
// Tonelli-Shanks square roots, point addition/doubling, scalar
// multiplication, and ECDSA sign/verify over a configurable short
// Weierstrass curve (secp256k1 by default).
package ecc

import "math/big"

// Point is a point on the curve. A nil *Point denotes the point at infinity,
// the group's identity element, following original_source/cryptography.py's
// use of None for the same purpose.
type Point struct {
	X *big.Int
	Y *big.Int
}

// Equal reports whether two points (including nil-as-infinity) coincide.
func (p *Point) Equal(q *Point) bool {
	if p == nil || q == nil {
		return p == nil && q == nil
	}
	return p.X.Cmp(q.X) == 0 && p.Y.Cmp(q.Y) == 0
}

// Curve is a short Weierstrass curve y^2 = x^3 + ax + b (mod p) together
// with a distinguished generator point G of order N.
type Curve struct {
	A *big.Int
	B *big.Int
	P *big.Int
	G *Point
	N *big.Int
}

// Secp256k1 returns the default curve parameters named in spec.md section 3.
func Secp256k1() *Curve {
	p, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f", 16)
	n, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)
	gx, _ := new(big.Int).SetString("79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798", 16)
	gy, _ := new(big.Int).SetString("483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8", 16)
	return &Curve{
		A: big.NewInt(0),
		B: big.NewInt(7),
		P: p,
		G: &Point{X: gx, Y: gy},
		N: n,
	}
}

// NewCurve builds a curve from explicit parameters, used when a chain's
// genesis transaction carries non-default curve parameters (spec.md 4.4).
func NewCurve(a, b, p, gx, gy, n *big.Int) *Curve {
	return &Curve{A: a, B: b, P: p, G: &Point{X: gx, Y: gy}, N: n}
}

// Discriminant returns -16(4a^3+27b^2) mod p.
func (c *Curve) Discriminant() *big.Int {
	a3 := new(big.Int).Mul(c.A, new(big.Int).Mul(c.A, c.A))
	a3.Mul(a3, big.NewInt(4))
	b2 := new(big.Int).Mul(c.B, c.B)
	b2.Mul(b2, big.NewInt(27))
	sum := new(big.Int).Add(a3, b2)
	d := new(big.Int).Mul(sum, big.NewInt(-16))
	return d.Mod(d, c.P)
}

// IsNonsingular reports whether the curve's discriminant is nonzero mod p.
func (c *Curve) IsNonsingular() bool {
	return c.Discriminant().Sign() != 0
}

// HasPrimeOrder reports whether the group order N is prime.
func (c *Curve) HasPrimeOrder() bool {
	return c.N.ProbablyPrime(20)
}

// IsXOnCurve reports whether x^3+ax+b is a quadratic residue mod p, i.e.
// whether some y exists with (x,y) on the curve.
func (c *Curve) IsXOnCurve(x *big.Int) bool {
	val := c.rhs(x)
	return isQuadraticResidue(val, c.P)
}

func (c *Curve) rhs(x *big.Int) *big.Int {
	x3 := new(big.Int).Exp(x, big.NewInt(3), c.P)
	ax := new(big.Int).Mul(c.A, x)
	val := new(big.Int).Add(x3, ax)
	val.Add(val, c.B)
	return val.Mod(val, c.P)
}

// IsOnCurve reports whether p satisfies y^2 = x^3+ax+b (mod P). The point at
// infinity (nil) is always considered on the curve.
func (c *Curve) IsOnCurve(p *Point) bool {
	if p == nil {
		return true
	}
	lhs := new(big.Int).Exp(p.Y, big.NewInt(2), c.P)
	rhs := c.rhs(p.X)
	return lhs.Cmp(rhs) == 0
}

// FindYFromX returns a y such that (x,y) is on the curve, using
// Tonelli-Shanks, or an error if x is not on the curve.
func (c *Curve) FindYFromX(x *big.Int) (*big.Int, error) {
	val := c.rhs(x)
	y := tonelliShanks(val, c.P)
	if y == nil {
		return nil, ErrNoSquareRoot
	}
	return y, nil
}

// Add computes the elliptic-curve sum of two points, treating nil as the
// point at infinity (the group identity).
func (c *Curve) Add(p1, p2 *Point) (*Point, error) {
	if !c.IsOnCurve(p1) || !c.IsOnCurve(p2) {
		return nil, ErrNotOnCurve
	}
	if p1 == nil {
		return p2, nil
	}
	if p2 == nil {
		return p1, nil
	}

	if p1.X.Cmp(p2.X) == 0 && p1.Y.Cmp(p2.Y) != 0 {
		return nil, nil
	}

	var m *big.Int
	if p1.X.Cmp(p2.X) == 0 {
		// Same point: tangent slope (3x^2+a) / (2y).
		num := new(big.Int).Mul(big.NewInt(3), new(big.Int).Mul(p1.X, p1.X))
		num.Add(num, c.A)
		den := modInverse(new(big.Int).Mul(big.NewInt(2), p1.Y), c.P)
		m = new(big.Int).Mul(num, den)
	} else {
		// Distinct points: secant slope (y2-y1) / (x2-x1).
		num := new(big.Int).Sub(p2.Y, p1.Y)
		den := modInverse(new(big.Int).Sub(p2.X, p1.X), c.P)
		m = new(big.Int).Mul(num, den)
	}
	m.Mod(m, c.P)

	x3 := new(big.Int).Mul(m, m)
	x3.Sub(x3, p1.X)
	x3.Sub(x3, p2.X)
	x3.Mod(x3, c.P)

	y3 := new(big.Int).Sub(p1.X, x3)
	y3.Mul(y3, m)
	y3.Sub(y3, p1.Y)
	y3.Mod(y3, c.P)

	result := &Point{X: x3, Y: y3}
	if !c.IsOnCurve(result) {
		return nil, ErrNotOnCurve
	}
	return result, nil
}

// ScalarMul computes n*P via left-to-right double-and-add, skipping the
// leading (most significant) bit, per spec.md 4.1.
func (c *Curve) ScalarMul(n *big.Int, p *Point) (*Point, error) {
	if p == nil {
		return nil, nil
	}
	order := c.N
	reduced := new(big.Int).Mod(n, order)
	if reduced.Sign() == 0 {
		return nil, nil
	}

	bits := reduced.Text(2)
	var result *Point = p
	var err error
	for i := 1; i < len(bits); i++ {
		result, err = c.Add(result, result)
		if err != nil {
			return nil, err
		}
		if bits[i] == '1' {
			result, err = c.Add(result, p)
			if err != nil {
				return nil, err
			}
		}
	}
	if !c.IsOnCurve(result) {
		return nil, ErrNotOnCurve
	}
	return result, nil
}
