package ecc

import (
	"math/big"
	"testing"
)

func TestGeneratorOnCurve(t *testing.T) {
	curve := Secp256k1()
	if !curve.IsOnCurve(curve.G) {
		t.Fatal("secp256k1 generator must satisfy the curve equation")
	}
}

func TestScalarMulMatchesRepeatedAdd(t *testing.T) {
	curve := Secp256k1()

	doubled, err := curve.Add(curve.G, curve.G)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	scaled, err := curve.ScalarMul(big.NewInt(2), curve.G)
	if err != nil {
		t.Fatalf("ScalarMul: %v", err)
	}
	if !doubled.Equal(scaled) {
		t.Fatalf("2*G via Add = %v, via ScalarMul = %v", doubled, scaled)
	}

	triple, err := curve.Add(doubled, curve.G)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	scaledTriple, err := curve.ScalarMul(big.NewInt(3), curve.G)
	if err != nil {
		t.Fatalf("ScalarMul: %v", err)
	}
	if !triple.Equal(scaledTriple) {
		t.Fatalf("3*G via Add = %v, via ScalarMul = %v", triple, scaledTriple)
	}
}

func TestScalarMulByOrderIsInfinity(t *testing.T) {
	curve := Secp256k1()
	result, err := curve.ScalarMul(curve.N, curve.G)
	if err != nil {
		t.Fatalf("ScalarMul: %v", err)
	}
	if result != nil {
		t.Fatalf("n*G should be the point at infinity, got %v", result)
	}
}

func TestAddRejectsOffCurvePoints(t *testing.T) {
	curve := Secp256k1()
	bad := &Point{X: big.NewInt(1), Y: big.NewInt(1)}
	if _, err := curve.Add(curve.G, bad); err != ErrNotOnCurve {
		t.Fatalf("expected ErrNotOnCurve, got %v", err)
	}
}

func TestFindYFromXRoundTrip(t *testing.T) {
	curve := Secp256k1()
	y, err := curve.FindYFromX(curve.G.X)
	if err != nil {
		t.Fatalf("FindYFromX: %v", err)
	}
	if !curve.IsOnCurve(&Point{X: curve.G.X, Y: y}) {
		t.Fatal("recovered y does not satisfy the curve equation")
	}
}

func TestHasPrimeOrder(t *testing.T) {
	if !Secp256k1().HasPrimeOrder() {
		t.Fatal("secp256k1's group order is prime")
	}
}
