package wallet

import (
	"math/big"
	"testing"

	"github.com/DrGregDoyle/GChain/ecc"
)

func TestNewWalletIsDeterministic(t *testing.T) {
	curve := ecc.Secp256k1()
	seed := big.NewInt(778899)

	w1, err := NewWallet(curve, seed, DefaultChecksumBits)
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	w2, err := NewWallet(curve, seed, DefaultChecksumBits)
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}

	if w1.Address() != w2.Address() {
		t.Fatalf("same seed produced different addresses: %s vs %s", w1.Address(), w2.Address())
	}
	if w1.CompressedPublicKey() != w2.CompressedPublicKey() {
		t.Fatal("same seed produced different compressed public keys")
	}
}

func TestDifferentSeedsDifferentAddresses(t *testing.T) {
	curve := ecc.Secp256k1()
	w1, err := NewWallet(curve, big.NewInt(1), DefaultChecksumBits)
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	w2, err := NewWallet(curve, big.NewInt(2), DefaultChecksumBits)
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	if w1.Address() == w2.Address() {
		t.Fatal("different seeds produced the same address")
	}
}

func TestAddressFromCPKMatchesWalletAddress(t *testing.T) {
	curve := ecc.Secp256k1()
	w, err := NewWallet(curve, big.NewInt(55), DefaultChecksumBits)
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	addr, err := AddressFromCPK(w.CompressedPublicKey(), DefaultChecksumBits)
	if err != nil {
		t.Fatalf("AddressFromCPK: %v", err)
	}
	if addr != w.Address() {
		t.Fatalf("AddressFromCPK = %s, want %s", addr, w.Address())
	}
}

func TestSignatureBlobRoundTrip(t *testing.T) {
	curve := ecc.Secp256k1()
	w, err := NewWallet(curve, big.NewInt(909), DefaultChecksumBits)
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}

	txID := "a1b2c3d4e5f60718293a4b5c6d7e8f9011223344556677889900aabbccddeeff"
	blob, err := w.SignTransaction(txID)
	if err != nil {
		t.Fatalf("SignTransaction: %v", err)
	}

	cpkHex, sig, err := DecodeSignatureBlob(blob)
	if err != nil {
		t.Fatalf("DecodeSignatureBlob: %v", err)
	}
	if cpkHex != w.CompressedPublicKey() {
		t.Fatalf("decoded cpk = %s, want %s", cpkHex, w.CompressedPublicKey())
	}

	ok, err := curve.Verify(sig, txID, w.PublicKey)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("expected decoded signature to verify against the wallet's public key")
	}
}

func TestWalletsRegistry(t *testing.T) {
	curve := ecc.Secp256k1()
	w, err := NewWallet(curve, big.NewInt(7), DefaultChecksumBits)
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}

	ws := NewWallets()
	addr := ws.Add(w)
	got, ok := ws.Get(addr)
	if !ok {
		t.Fatal("expected wallet to be registered under its own address")
	}
	if got.Address() != w.Address() {
		t.Fatal("registry returned a different wallet")
	}

	addrs := ws.Addresses()
	if len(addrs) != 1 || addrs[0] != addr {
		t.Fatalf("Addresses() = %v, want [%s]", addrs, addr)
	}
}
