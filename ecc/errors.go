package ecc

import "errors"

// Sentinel errors surfaced by field/curve/signature operations.
var (
	ErrCurveOrderNotPrime = errors.New("ecc: curve group order is not prime")
	ErrNotOnCurve         = errors.New("ecc: point is not on the curve")
	ErrNoSquareRoot       = errors.New("ecc: no square root exists for the given residue")
	ErrInvalidSignature   = errors.New("ecc: signature (r, s) out of range")
)
