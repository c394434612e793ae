package chain

import (
	"encoding/hex"
	"fmt"

	"github.com/DrGregDoyle/GChain/codec"
)

// cpkHexLen is the hex-character width of a 33-byte compressed public key.
const cpkHexLen = 33 * 2

// OutpointKey identifies a single transaction output: the id of the
// transaction that created it and its index within that transaction's
// output list. It is the UTXO set's map key.
type OutpointKey struct {
	TxID  [32]byte
	Index uint8
}

// Input references the output it spends and carries the signature blob
// authorizing the spend, per spec.md section 3: tx_id(32B) || tx_index(1B)
// || sig_len(1B) || signature_hex.
type Input struct {
	TxID      [32]byte
	Index     uint8
	Signature string // hex signature blob, wallet.EncodeSignatureBlob's output
}

// Outpoint returns the key identifying the output in referenced by in.
func (in Input) Outpoint() OutpointKey {
	return OutpointKey{TxID: in.TxID, Index: in.Index}
}

// Encode serializes in to its wire form.
func (in Input) Encode() string {
	sigBytes := len(in.Signature) / 2
	return fmt.Sprintf("%x", in.TxID[:]) +
		codec.FixedHex(uint64(in.Index), 1) +
		codec.FixedHex(uint64(sigBytes), 1) +
		in.Signature
}

// DecodeInput parses an Input from the start of s, returning the number of
// hex characters consumed.
func DecodeInput(s string) (Input, int, error) {
	const fixedLen = 64 + 2 + 2 // tx_id + tx_index + sig_len
	if len(s) < fixedLen {
		return Input{}, 0, fmt.Errorf("chain: truncated input: %w", codec.ErrTruncatedVLI)
	}

	raw, err := hex.DecodeString(s[:64])
	if err != nil {
		return Input{}, 0, fmt.Errorf("chain: malformed input tx_id: %w", err)
	}
	var txID [32]byte
	copy(txID[:], raw)

	idx, err := codec.ParseFixedHex(s[64:66], 1)
	if err != nil {
		return Input{}, 0, fmt.Errorf("chain: malformed input tx_index: %w", err)
	}
	sigBytes, err := codec.ParseFixedHex(s[66:68], 1)
	if err != nil {
		return Input{}, 0, fmt.Errorf("chain: malformed input sig_len: %w", err)
	}

	sigHexLen := int(sigBytes) * 2
	if len(s) < fixedLen+sigHexLen {
		return Input{}, 0, fmt.Errorf("chain: truncated input signature: %w", codec.ErrTruncatedVLI)
	}
	sig := s[fixedLen : fixedLen+sigHexLen]

	in := Input{TxID: txID, Index: uint8(idx), Signature: sig}
	consumed := fixedLen + sigHexLen
	if in.Encode() != s[:consumed] {
		return Input{}, 0, codec.ErrCodecMismatch
	}
	return in, consumed, nil
}

// Output binds an amount to the public key authorized to spend it, per
// spec.md section 3: amount(8B) || addr_len(1B) || CPK_hex(33B).
type Output struct {
	Amount uint64
	CPK    string // 66-character hex compressed public key
}

// Encode serializes o to its wire form.
func (o Output) Encode() string {
	return codec.FixedHex(o.Amount, 8) + codec.FixedHex(33, 1) + o.CPK
}

// outputHexLen is the fixed hex width of an encoded Output.
const outputHexLen = 16 + 2 + cpkHexLen

// DecodeOutput parses an Output from the start of s, returning the number of
// hex characters consumed.
func DecodeOutput(s string) (Output, int, error) {
	if len(s) < outputHexLen {
		return Output{}, 0, fmt.Errorf("chain: truncated output: %w", codec.ErrTruncatedVLI)
	}
	amount, err := codec.ParseFixedHex(s[:16], 8)
	if err != nil {
		return Output{}, 0, fmt.Errorf("chain: malformed output amount: %w", err)
	}
	addrLen, err := codec.ParseFixedHex(s[16:18], 1)
	if err != nil {
		return Output{}, 0, fmt.Errorf("chain: malformed output addr_len: %w", err)
	}
	if addrLen != 33 {
		return Output{}, 0, fmt.Errorf("chain: output addr_len must be 33, got %d", addrLen)
	}
	cpk := s[18:outputHexLen]

	o := Output{Amount: amount, CPK: cpk}
	if o.Encode() != s[:outputHexLen] {
		return Output{}, 0, codec.ErrCodecMismatch
	}
	return o, outputHexLen, nil
}
