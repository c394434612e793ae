package chain

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/DrGregDoyle/GChain/codec"
	"github.com/DrGregDoyle/GChain/ecc"
)

// TxType tags which of the three transaction variants a raw transaction
// decodes to, per spec.md section 4.4.
type TxType uint8

const (
	TxGenesis  TxType = 0
	TxOrdinary TxType = 1
	TxMining   TxType = 2
)

// Transaction is the sum type over {Genesis, Ordinary, Mining}, per
// DESIGN NOTES section 9's tagged-variant guidance. Every variant computes
// its id identically: SHA256 of its own raw hex text.
type Transaction interface {
	Raw() string
	ID() [32]byte
	Type() TxType
}

func txID(raw string) [32]byte {
	return sha256.Sum256([]byte(raw))
}

// curveFieldHexLen is the fixed hex width used for each curve parameter
// carried by a GenesisTx.
const curveFieldHexLen = 64 // 32 bytes

// GenesisTx is the sole, height-0 transaction that seeds a chain's curve and
// issuance policy, per spec.md section 4.4. It carries no inputs or
// outputs in the ordinary sense; its reward is paid out over subsequent
// MiningTx transactions.
type GenesisTx struct {
	Curve              *ecc.Curve
	TotalMiningAmount  uint64
	StartingReward     uint32
	StartingTargetBits uint8
	HeartbeatSeconds   uint16
}

func (tx *GenesisTx) Type() TxType { return TxGenesis }

func (tx *GenesisTx) Raw() string {
	c := tx.Curve
	return codec.FixedHex(uint64(TxGenesis), 1) +
		codec.FixedHexBig(c.A, 32) +
		codec.FixedHexBig(c.B, 32) +
		codec.FixedHexBig(c.P, 32) +
		codec.FixedHexBig(c.G.X, 32) +
		codec.FixedHexBig(c.G.Y, 32) +
		codec.FixedHexBig(c.N, 32) +
		codec.FixedHex(tx.TotalMiningAmount, 8) +
		codec.FixedHex(uint64(tx.StartingReward), 4) +
		codec.FixedHex(uint64(tx.StartingTargetBits), 1) +
		codec.FixedHex(uint64(tx.HeartbeatSeconds), 2)
}

func (tx *GenesisTx) ID() [32]byte { return txID(tx.Raw()) }

// genesisHexLen is the total fixed hex width of an encoded GenesisTx.
const genesisHexLen = 2 + 6*curveFieldHexLen + 16 + 8 + 2 + 4

func decodeGenesisTx(s string) (*GenesisTx, int, error) {
	if len(s) < genesisHexLen {
		return nil, 0, fmt.Errorf("chain: truncated genesis transaction: %w", codec.ErrTruncatedVLI)
	}
	off := 2 // skip the type byte DecodeTx already dispatched on
	readField := func(width int) (*big.Int, error) {
		v := new(big.Int)
		chunk := s[off : off+width]
		v.SetString(chunk, 16)
		off += width
		return v, nil
	}

	a, _ := readField(curveFieldHexLen)
	b, _ := readField(curveFieldHexLen)
	p, _ := readField(curveFieldHexLen)
	gx, _ := readField(curveFieldHexLen)
	gy, _ := readField(curveFieldHexLen)
	n, _ := readField(curveFieldHexLen)

	totalAmt, err := codec.ParseFixedHex(s[off:off+16], 8)
	if err != nil {
		return nil, 0, fmt.Errorf("chain: malformed genesis total_mining_amount: %w", err)
	}
	off += 16
	reward, err := codec.ParseFixedHex(s[off:off+8], 4)
	if err != nil {
		return nil, 0, fmt.Errorf("chain: malformed genesis starting_reward: %w", err)
	}
	off += 8
	targetBits, err := codec.ParseFixedHex(s[off:off+2], 1)
	if err != nil {
		return nil, 0, fmt.Errorf("chain: malformed genesis starting_target: %w", err)
	}
	off += 2
	heartbeat, err := codec.ParseFixedHex(s[off:off+4], 2)
	if err != nil {
		return nil, 0, fmt.Errorf("chain: malformed genesis heartbeat: %w", err)
	}
	off += 4

	tx := &GenesisTx{
		Curve:              ecc.NewCurve(a, b, p, gx, gy, n),
		TotalMiningAmount:  totalAmt,
		StartingReward:     uint32(reward),
		StartingTargetBits: uint8(targetBits),
		HeartbeatSeconds:   uint16(heartbeat),
	}
	if tx.Raw() != s[:genesisHexLen] {
		return nil, 0, codec.ErrCodecMismatch
	}
	return tx, genesisHexLen, nil
}

// OrdinaryTx spends prior outputs to new outputs, authorized by a signature
// per input, per spec.md section 4.4.
type OrdinaryTx struct {
	Inputs  []Input
	Outputs []Output
	Version uint8
}

func (tx *OrdinaryTx) Type() TxType { return TxOrdinary }

func (tx *OrdinaryTx) Raw() string {
	raw := codec.FixedHex(uint64(TxOrdinary), 1) + codec.FixedHex(uint64(len(tx.Inputs)), 1)
	for _, in := range tx.Inputs {
		raw += in.Encode()
	}
	raw += codec.FixedHex(uint64(len(tx.Outputs)), 1)
	for _, out := range tx.Outputs {
		raw += out.Encode()
	}
	raw += codec.FixedHex(uint64(tx.Version), 1)
	return raw
}

func (tx *OrdinaryTx) ID() [32]byte { return txID(tx.Raw()) }

// SigningID is the hash each input's signature is computed over: the
// transaction's raw encoding with every input's signature blanked to
// zero-length. This breaks the circularity of "sign over tx.id" when tx.id
// would otherwise depend on the very signatures being produced — every
// input signs the same stable pre-image regardless of signing order, and a
// verifier recomputes it the same way rather than hashing the final,
// fully-signed Raw().
func (tx *OrdinaryTx) SigningID() [32]byte {
	blanked := &OrdinaryTx{Outputs: tx.Outputs, Version: tx.Version}
	blanked.Inputs = make([]Input, len(tx.Inputs))
	for i, in := range tx.Inputs {
		blanked.Inputs[i] = Input{TxID: in.TxID, Index: in.Index}
	}
	return txID(blanked.Raw())
}

func decodeOrdinaryTx(s string) (*OrdinaryTx, int, error) {
	off := 2
	if len(s) < off+2 {
		return nil, 0, fmt.Errorf("chain: truncated ordinary transaction: %w", codec.ErrTruncatedVLI)
	}
	inCount, err := codec.ParseFixedHex(s[off:off+2], 1)
	if err != nil {
		return nil, 0, fmt.Errorf("chain: malformed ordinary in_count: %w", err)
	}
	off += 2

	inputs := make([]Input, 0, inCount)
	for i := uint64(0); i < inCount; i++ {
		in, n, err := DecodeInput(s[off:])
		if err != nil {
			return nil, 0, err
		}
		inputs = append(inputs, in)
		off += n
	}

	if len(s) < off+2 {
		return nil, 0, fmt.Errorf("chain: truncated ordinary out_count: %w", codec.ErrTruncatedVLI)
	}
	outCount, err := codec.ParseFixedHex(s[off:off+2], 1)
	if err != nil {
		return nil, 0, fmt.Errorf("chain: malformed ordinary out_count: %w", err)
	}
	off += 2

	outputs := make([]Output, 0, outCount)
	for i := uint64(0); i < outCount; i++ {
		out, n, err := DecodeOutput(s[off:])
		if err != nil {
			return nil, 0, err
		}
		outputs = append(outputs, out)
		off += n
	}

	if len(s) < off+2 {
		return nil, 0, fmt.Errorf("chain: truncated ordinary version: %w", codec.ErrTruncatedVLI)
	}
	version, err := codec.ParseFixedHex(s[off:off+2], 1)
	if err != nil {
		return nil, 0, fmt.Errorf("chain: malformed ordinary version: %w", err)
	}
	off += 2

	tx := &OrdinaryTx{Inputs: inputs, Outputs: outputs, Version: uint8(version)}
	if tx.Raw() != s[:off] {
		return nil, 0, codec.ErrCodecMismatch
	}
	return tx, off, nil
}

// MiningTx pays a block's reward to a single output; any fees the node
// collects are added to Output.Amount, not to Reward, per spec.md
// section 4.4. Height must equal the chain height at application time plus
// one; Reward is deducted from the chain's remaining total mining amount.
type MiningTx struct {
	Height uint64
	Reward uint32
	Output Output
}

func (tx *MiningTx) Type() TxType { return TxMining }

func (tx *MiningTx) Raw() string {
	return codec.FixedHex(uint64(TxMining), 1) +
		codec.FixedHex(tx.Height, 8) +
		codec.FixedHex(uint64(tx.Reward), 4) +
		codec.FixedHex(uint64(outputHexLen/2), 1) +
		tx.Output.Encode()
}

func (tx *MiningTx) ID() [32]byte { return txID(tx.Raw()) }

// miningHexLen is the total fixed hex width of an encoded MiningTx.
const miningHexLen = 2 + 16 + 8 + 2 + outputHexLen

func decodeMiningTx(s string) (*MiningTx, int, error) {
	if len(s) < miningHexLen {
		return nil, 0, fmt.Errorf("chain: truncated mining transaction: %w", codec.ErrTruncatedVLI)
	}
	off := 2
	height, err := codec.ParseFixedHex(s[off:off+16], 8)
	if err != nil {
		return nil, 0, fmt.Errorf("chain: malformed mining height: %w", err)
	}
	off += 16
	reward, err := codec.ParseFixedHex(s[off:off+8], 4)
	if err != nil {
		return nil, 0, fmt.Errorf("chain: malformed mining reward: %w", err)
	}
	off += 8
	outLen, err := codec.ParseFixedHex(s[off:off+2], 1)
	if err != nil {
		return nil, 0, fmt.Errorf("chain: malformed mining out_len: %w", err)
	}
	off += 2
	if outLen != uint64(outputHexLen/2) {
		return nil, 0, fmt.Errorf("chain: mining out_len must be %d, got %d", outputHexLen/2, outLen)
	}

	out, n, err := DecodeOutput(s[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n

	tx := &MiningTx{Height: height, Reward: uint32(reward), Output: out}
	if tx.Raw() != s[:off] {
		return nil, 0, codec.ErrCodecMismatch
	}
	return tx, off, nil
}

// DecodeTx dispatches on the leading type byte and decodes the matching
// variant, returning the number of hex characters consumed so a caller
// decoding a sequence of concatenated transactions can advance past it.
func DecodeTx(s string) (Transaction, int, error) {
	if len(s) < 2 {
		return nil, 0, fmt.Errorf("chain: truncated transaction type tag: %w", codec.ErrTruncatedVLI)
	}
	typeVal, err := codec.ParseFixedHex(s[:2], 1)
	if err != nil {
		return nil, 0, fmt.Errorf("chain: malformed transaction type tag: %w", err)
	}

	switch TxType(typeVal) {
	case TxGenesis:
		return decodeGenesisTx(s)
	case TxOrdinary:
		return decodeOrdinaryTx(s)
	case TxMining:
		return decodeMiningTx(s)
	default:
		return nil, 0, fmt.Errorf("chain: transaction type %d: %w", typeVal, codec.ErrUnknownType)
	}
}
