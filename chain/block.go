package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/DrGregDoyle/GChain/codec"
)

// headerHexLen is the fixed hex width of an encoded Header.
const headerHexLen = 2 + 64 + 64 + 8 + 8 + 8

// Header is a block's fixed-width preamble, per spec.md section 3.
type Header struct {
	Version    uint8
	PrevHash   [32]byte
	MerkleRoot [32]byte
	TargetBits uint32
	Nonce      uint32
	Timestamp  uint32
}

// Encode serializes h to its wire form.
func (h Header) Encode() string {
	return codec.FixedHex(uint64(h.Version), 1) +
		hex.EncodeToString(h.PrevHash[:]) +
		hex.EncodeToString(h.MerkleRoot[:]) +
		codec.FixedHex(uint64(h.TargetBits), 4) +
		codec.FixedHex(uint64(h.Nonce), 4) +
		codec.FixedHex(uint64(h.Timestamp), 4)
}

// DecodeHeader parses a Header from the first headerHexLen characters of s.
func DecodeHeader(s string) (Header, error) {
	if len(s) < headerHexLen {
		return Header{}, fmt.Errorf("chain: truncated header: %w", codec.ErrTruncatedVLI)
	}
	version, err := codec.ParseFixedHex(s[0:2], 1)
	if err != nil {
		return Header{}, fmt.Errorf("chain: malformed header version: %w", err)
	}
	prevRaw, err := hex.DecodeString(s[2:66])
	if err != nil {
		return Header{}, fmt.Errorf("chain: malformed header prev_hash: %w", err)
	}
	rootRaw, err := hex.DecodeString(s[66:130])
	if err != nil {
		return Header{}, fmt.Errorf("chain: malformed header merkle_root: %w", err)
	}
	target, err := codec.ParseFixedHex(s[130:138], 4)
	if err != nil {
		return Header{}, fmt.Errorf("chain: malformed header target: %w", err)
	}
	nonce, err := codec.ParseFixedHex(s[138:146], 4)
	if err != nil {
		return Header{}, fmt.Errorf("chain: malformed header nonce: %w", err)
	}
	timestamp, err := codec.ParseFixedHex(s[146:154], 4)
	if err != nil {
		return Header{}, fmt.Errorf("chain: malformed header timestamp: %w", err)
	}

	var h Header
	h.Version = uint8(version)
	copy(h.PrevHash[:], prevRaw)
	copy(h.MerkleRoot[:], rootRaw)
	h.TargetBits = uint32(target)
	h.Nonce = uint32(nonce)
	h.Timestamp = uint32(timestamp)

	if h.Encode() != s[:headerHexLen] {
		return Header{}, codec.ErrCodecMismatch
	}
	return h, nil
}

// Block is a header plus its transaction list, per spec.md section 3.
// txSection caches the VLI-prefixed, concatenated raw transactions: nonce
// search only ever touches the header, so re-encoding the transaction list
// on every nonce attempt (as miner.Mine does via Raw/ID) would be wasted
// work.
type Block struct {
	Header Header
	Txs    []Transaction

	txSection string
}

// NewBlock builds a Block and caches its transaction section.
func NewBlock(header Header, txs []Transaction) *Block {
	b := &Block{Header: header, Txs: txs}
	b.txSection = encodeTxSection(txs)
	return b
}

func encodeTxSection(txs []Transaction) string {
	section := codec.EncodeVLI(uint64(len(txs)))
	for _, tx := range txs {
		section += tx.Raw()
	}
	return section
}

// Raw returns the block's full wire encoding.
func (b *Block) Raw() string {
	return b.Header.Encode() + b.txSection
}

// ID is SHA256 of the block's raw hex text, per spec.md section 3.
func (b *Block) ID() [32]byte {
	return sha256.Sum256([]byte(b.Raw()))
}

// Nonce and SetNonce satisfy miner.Candidate.
func (b *Block) Nonce() uint32         { return b.Header.Nonce }
func (b *Block) SetNonce(nonce uint32) { b.Header.Nonce = nonce }

// DecodeBlock parses a full block from its raw hex encoding.
func DecodeBlock(raw string) (*Block, error) {
	header, err := DecodeHeader(raw)
	if err != nil {
		return nil, err
	}
	off := headerHexLen

	count, n, err := codec.DecodeVLI(raw[off:])
	if err != nil {
		return nil, fmt.Errorf("chain: malformed tx_count: %w", err)
	}
	off += n

	txs := make([]Transaction, 0, count)
	for i := uint64(0); i < count; i++ {
		tx, consumed, err := DecodeTx(raw[off:])
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
		off += consumed
	}

	b := NewBlock(header, txs)
	if b.Raw() != raw[:off] {
		return nil, codec.ErrCodecMismatch
	}
	return b, nil
}
