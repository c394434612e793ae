// Package wallet derives keys, addresses, and transaction signatures from a
// seed, following the Wallet contract of spec.md section 4.3: deterministic
// master key derivation from a seed integer, a checksum-encoded base58
// address, and a signature blob ready to attach to a transaction input.
package wallet

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/DrGregDoyle/GChain/codec"
	"github.com/DrGregDoyle/GChain/ecc"
)

// DefaultChecksumBits is the default address-checksum width in bits.
const DefaultChecksumBits = 32

// Wallet holds a deterministic key pair derived from a seed and the
// resulting address, per spec.md section 4.3.
type Wallet struct {
	Curve      *ecc.Curve
	PrivateKey *big.Int
	PublicKey  *ecc.Point

	// ChainCode is the second 256 bits of SHA512(seed), reserved for
	// hierarchical derivation that this module does not implement
	// (spec.md section 1 excludes BIP32-style derivation).
	ChainCode *big.Int

	checksumBits int
	address      string
}

// NewWallet derives a wallet's keys and address from seed using curve.
// checksumBits controls the address checksum width (default 32 if <= 0).
func NewWallet(curve *ecc.Curve, seed *big.Int, checksumBits int) (*Wallet, error) {
	if checksumBits <= 0 {
		checksumBits = DefaultChecksumBits
	}

	digest := sha512.Sum512([]byte(seed.String()))
	privHex := hex.EncodeToString(digest[:32])
	chainHex := hex.EncodeToString(digest[32:])

	priv, ok := new(big.Int).SetString(privHex, 16)
	if !ok {
		return nil, fmt.Errorf("wallet: failed to parse derived private key")
	}
	chainCode, ok := new(big.Int).SetString(chainHex, 16)
	if !ok {
		return nil, fmt.Errorf("wallet: failed to parse derived chain code")
	}

	pub, err := curve.ScalarMul(priv, curve.G)
	if err != nil {
		return nil, fmt.Errorf("wallet: deriving public key: %w", err)
	}
	if !curve.IsOnCurve(pub) {
		return nil, ecc.ErrNotOnCurve
	}

	w := &Wallet{
		Curve:        curve,
		PrivateKey:   priv,
		PublicKey:    pub,
		ChainCode:    chainCode,
		checksumBits: checksumBits,
	}
	w.address, err = w.deriveAddress()
	if err != nil {
		return nil, err
	}
	return w, nil
}

// CompressedPublicKey returns the 33-byte compressed public key, hex
// encoded (66 characters), per spec.md section 3.
func (w *Wallet) CompressedPublicKey() string {
	return ecc.CompressPoint(w.PublicKey)
}

// Address returns the wallet's base58 address.
func (w *Wallet) Address() string {
	return w.address
}

// deriveAddress computes the wallet's address from its compressed public
// key, per spec.md section 3.
func (w *Wallet) deriveAddress() (string, error) {
	return AddressFromCPK(w.CompressedPublicKey(), w.checksumBits)
}

// AddressFromCPK computes base58( SHA1(SHA256(CPK_hex)) || first
// checksumBits/8 bytes of SHA256(SHA256(that)) ), following
// original_source/wallet.py's get_address (hashing operates on the ASCII
// hex text at every stage, not raw key bytes). Used both by Wallet.Address
// and by peers verifying that a UTXO output's recorded CPK resolves to the
// address it was paid to.
func AddressFromCPK(cpkHex string, checksumBits int) (string, error) {
	if checksumBits <= 0 {
		checksumBits = DefaultChecksumBits
	}

	h256 := sha256.Sum256([]byte(cpkHex))
	h256Hex := hex.EncodeToString(h256[:])
	epk := sha1.Sum([]byte(h256Hex))
	epkHex := hex.EncodeToString(epk[:])

	c1 := sha256.Sum256([]byte(epkHex))
	c1Hex := hex.EncodeToString(c1[:])
	c2 := sha256.Sum256([]byte(c1Hex))
	c2Hex := hex.EncodeToString(c2[:])

	checksumChars := checksumBits / 4
	if checksumChars > len(c2Hex) {
		checksumChars = len(c2Hex)
	}
	cepkHex := epkHex + c2Hex[:checksumChars]
	if len(cepkHex)%2 != 0 {
		cepkHex = "0" + cepkHex
	}

	payload, err := hex.DecodeString(cepkHex)
	if err != nil {
		return "", fmt.Errorf("wallet: building address payload: %w", err)
	}
	return codec.EncodeAddress(payload), nil
}

// SignTransaction signs the hex-encoded transaction id txID and returns the
// signature blob of spec.md section 3: vli(cpk) || cpk || vli(r) || r ||
// vli(s) || s.
func (w *Wallet) SignTransaction(txID string) (string, error) {
	sig, err := w.Curve.Sign(txID, w.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("wallet: signing transaction: %w", err)
	}
	return EncodeSignatureBlob(w.CompressedPublicKey(), sig), nil
}

// EncodeSignatureBlob assembles the signature-blob wire format from a
// compressed public key and an ECDSA signature.
func EncodeSignatureBlob(cpkHex string, sig *ecc.Signature) string {
	rHex := sig.R.Text(16)
	sHex := sig.S.Text(16)

	blob := codec.EncodeVLI(uint64(len(cpkHex))) + cpkHex
	blob += codec.EncodeVLI(uint64(len(rHex))) + rHex
	blob += codec.EncodeVLI(uint64(len(sHex))) + sHex
	return blob
}

// DecodeSignatureBlob parses a signature blob into its compressed public
// key hex and (r, s) signature, per spec.md section 9's guidance that
// parsers must rely on the VLI lengths, not fixed widths.
func DecodeSignatureBlob(blob string) (cpkHex string, sig *ecc.Signature, err error) {
	idx := 0

	cpkLen, n, err := codec.DecodeVLI(blob[idx:])
	if err != nil {
		return "", nil, err
	}
	idx += n
	if idx+int(cpkLen) > len(blob) {
		return "", nil, fmt.Errorf("wallet: truncated compressed key in signature blob")
	}
	cpkHex = blob[idx : idx+int(cpkLen)]
	idx += int(cpkLen)

	rLen, n, err := codec.DecodeVLI(blob[idx:])
	if err != nil {
		return "", nil, err
	}
	idx += n
	if idx+int(rLen) > len(blob) {
		return "", nil, fmt.Errorf("wallet: truncated r value in signature blob")
	}
	rHex := blob[idx : idx+int(rLen)]
	idx += int(rLen)

	sLen, n, err := codec.DecodeVLI(blob[idx:])
	if err != nil {
		return "", nil, err
	}
	idx += n
	if idx+int(sLen) > len(blob) {
		return "", nil, fmt.Errorf("wallet: truncated s value in signature blob")
	}
	sHex := blob[idx : idx+int(sLen)]
	idx += int(sLen)

	r, ok := new(big.Int).SetString(rHex, 16)
	if !ok {
		return "", nil, fmt.Errorf("wallet: malformed r value in signature blob")
	}
	s, ok := new(big.Int).SetString(sHex, 16)
	if !ok {
		return "", nil, fmt.Errorf("wallet: malformed s value in signature blob")
	}

	return cpkHex, &ecc.Signature{R: r, S: s}, nil
}
