package chain

import (
	"context"
	"encoding/hex"
	"math/big"
	"sync"
	"time"

	"github.com/DrGregDoyle/GChain/ecc"
	"github.com/DrGregDoyle/GChain/miner"
	"github.com/DrGregDoyle/GChain/wallet"
)

// genesisTimestamp is the fixed timestamp recorded in every chain's genesis
// block header, per spec.md section 4.6.
const genesisTimestamp uint32 = 1231006505

// minTargetBits and maxTargetBits bound target retargeting per DESIGN NOTES
// section 9, Open Question 3.
const (
	minTargetBits uint8 = 1
	maxTargetBits uint8 = 255
)

// Blockchain holds the ordered chain of raw blocks, the current UTXO set,
// and the issuance policy carried by the genesis transaction. add_block and
// pop_block are serialized against each other by mu, per section 5's
// ordering guarantee.
type Blockchain struct {
	mu sync.Mutex

	Chain []string // raw block hex, genesis first
	UTXOs map[OutpointKey]Output

	Curve *ecc.Curve

	Reward            uint32
	TargetBits        uint8
	TotalMiningAmount uint64
	Heartbeat         time.Duration
	LastBreath        time.Time

	// ChecksumBits is the address-checksum width every wallet on this
	// chain must agree on for FindSpendableOutputs/Balance to resolve a
	// UTXO's recorded CPK back to the address it paid, per
	// wallet.AddressFromCPK.
	ChecksumBits int
}

// NewBlockchain constructs and mines a genesis block carrying curve and the
// given issuance policy, per spec.md section 4.6's Genesis construction.
// checksumBits configures every wallet-address lookup this chain performs;
// <= 0 falls back to wallet.DefaultChecksumBits.
func NewBlockchain(ctx context.Context, curve *ecc.Curve, totalMiningAmount uint64, startingReward uint32, startingTargetBits uint8, heartbeatSeconds uint16, checksumBits int) (*Blockchain, error) {
	if checksumBits <= 0 {
		checksumBits = wallet.DefaultChecksumBits
	}
	genesisTx := &GenesisTx{
		Curve:              curve,
		TotalMiningAmount:  totalMiningAmount,
		StartingReward:     startingReward,
		StartingTargetBits: startingTargetBits,
		HeartbeatSeconds:   heartbeatSeconds,
	}

	root, err := MerkleRoot([]Transaction{genesisTx})
	if err != nil {
		return nil, err
	}

	header := Header{
		Version:    0,
		PrevHash:   [32]byte{},
		MerkleRoot: root,
		TargetBits: uint32(startingTargetBits),
		Nonce:      0,
		Timestamp:  genesisTimestamp,
	}
	block := NewBlock(header, []Transaction{genesisTx})

	raw, err := miner.New().Mine(ctx, block, startingTargetBits)
	if err != nil {
		return nil, err
	}

	return &Blockchain{
		Chain:             []string{raw},
		UTXOs:             make(map[OutpointKey]Output),
		Curve:             curve,
		Reward:            startingReward,
		TargetBits:        startingTargetBits,
		TotalMiningAmount: totalMiningAmount,
		Heartbeat:         time.Duration(heartbeatSeconds) * time.Second,
		LastBreath:        time.Now(),
		ChecksumBits:      checksumBits,
	}, nil
}

// Height returns the chain's current height: len(Chain)-1.
func (bc *Blockchain) Height() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.heightLocked()
}

func (bc *Blockchain) heightLocked() int {
	return len(bc.Chain) - 1
}

// LastBlock decodes and returns the chain tip.
func (bc *Blockchain) LastBlock() (*Block, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.lastBlockLocked()
}

func (bc *Blockchain) lastBlockLocked() (*Block, error) {
	if len(bc.Chain) == 0 {
		return nil, ErrEmptyChain
	}
	return DecodeBlock(bc.Chain[len(bc.Chain)-1])
}

// CurrentReward returns the chain's reward field, per spec.md section 4.6's
// reward policy design point: this stands until an external policy changes
// bc.Reward directly.
func (bc *Blockchain) CurrentReward() uint32 {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.Reward
}

// BlockAt returns the raw block at index under bc.mu, and whether index is
// in range. Used by peer handlers serving a block-by-index request
// (MsgBlockRequest) concurrently with the mining loop appending to bc.Chain.
func (bc *Blockchain) BlockAt(index int) (string, bool) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if index < 0 || index >= len(bc.Chain) {
		return "", false
	}
	return bc.Chain[index], true
}

// Blocks returns a copy of the chain's raw blocks under bc.mu, for a caller
// that needs to walk the whole chain (hashlist construction, printchain)
// without racing a concurrent AddBlock/PopBlock.
func (bc *Blockchain) Blocks() []string {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return append([]string(nil), bc.Chain...)
}

// LookupUTXO returns the output recorded at key, if any, under bc.mu. This
// is the only safe way for a caller outside this file (mempool intake,
// fee accounting) to consult the UTXO set: AddBlock/PopBlock mutate
// bc.UTXOs under the same lock, and a node runs its mining loop, its
// listener, and per-connection handlers concurrently (spec.md section 5).
func (bc *Blockchain) LookupUTXO(key OutpointKey) (Output, bool) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	out, ok := bc.UTXOs[key]
	return out, ok
}

// ChainStatus is a consistent snapshot of the fields a mining round or a
// status exchange needs, taken under a single lock so they can't be torn
// by a concurrent AddBlock/PopBlock.
type ChainStatus struct {
	Height      int
	LastBlockID [32]byte
	Reward      uint32
	TargetBits  uint8
}

// SnapshotPolicy returns a ChainStatus under bc.mu.
func (bc *Blockchain) SnapshotPolicy() (ChainStatus, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	last, err := bc.lastBlockLocked()
	if err != nil {
		return ChainStatus{}, err
	}
	return ChainStatus{
		Height:      bc.heightLocked(),
		LastBlockID: last.ID(),
		Reward:      bc.Reward,
		TargetBits:  bc.TargetBits,
	}, nil
}

type stagedBlock struct {
	removals map[OutpointKey]struct{}
	additions map[OutpointKey]Output
	miningRewards uint64
}

// AddBlock validates raw against current chain state and, only if every
// transaction passes, atomically applies it: the UTXO set reflects either
// the entire block or none of it, per spec.md section 4.6 and section 5's
// staged-validation / atomic-apply pattern.
func (bc *Blockchain) AddBlock(raw string) (bool, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	block, err := DecodeBlock(raw)
	if err != nil {
		return false, err
	}

	target := miner.Target(uint8(block.Header.TargetBits))
	id := block.ID()
	if new(big.Int).SetBytes(id[:]).Cmp(target) > 0 {
		return false, ErrTargetNotMet
	}

	last, err := bc.lastBlockLocked()
	if err != nil {
		return false, err
	}
	lastID := last.ID()
	if block.Header.PrevHash != lastID {
		return false, ErrPrevHashMismatch
	}

	staged := &stagedBlock{
		removals:  make(map[OutpointKey]struct{}),
		additions: make(map[OutpointKey]Output),
	}

	miningTxCount := 0
	nextHeight := uint64(bc.heightLocked() + 1)
	var totalIn, totalOut uint64

	for _, tx := range block.Txs {
		switch t := tx.(type) {
		case *MiningTx:
			miningTxCount++
			if t.Height != nextHeight {
				return false, ErrBadMiningHeight
			}
			if uint64(t.Reward) > bc.TotalMiningAmount {
				return false, ErrRewardTooLarge
			}
			key := OutpointKey{TxID: t.ID(), Index: 0}
			staged.additions[key] = t.Output
			staged.miningRewards += uint64(t.Reward)
			totalOut += t.Output.Amount

		case *OrdinaryTx:
			for _, in := range t.Inputs {
				key := in.Outpoint()
				if _, already := staged.removals[key]; already {
					return false, ErrDoubleSpend
				}
				out, ok := bc.UTXOs[key]
				if !ok {
					return false, ErrMissingUTXO
				}
				if err := VerifyOrdinaryInput(bc.Curve, t, in, out); err != nil {
					return false, err
				}
				staged.removals[key] = struct{}{}
				totalIn += out.Amount
			}
			for i, out := range t.Outputs {
				key := OutpointKey{TxID: t.ID(), Index: uint8(i)}
				staged.additions[key] = out
				totalOut += out.Amount
			}

		case *GenesisTx:
			return false, ErrWrongTransactionCount
		}
	}

	if miningTxCount != 1 {
		return false, ErrWrongTransactionCount
	}
	if totalOut > totalIn+staged.miningRewards {
		return false, ErrAmountOverflow
	}

	for key := range staged.removals {
		delete(bc.UTXOs, key)
	}
	for key, out := range staged.additions {
		bc.UTXOs[key] = out
	}
	bc.Chain = append(bc.Chain, raw)
	bc.TotalMiningAmount -= staged.miningRewards
	bc.retarget()

	return true, nil
}

// retarget applies the heartbeat policy: easier by 1 bit if the last block
// took longer than Heartbeat, harder by 2 bits if it came in faster, clamped
// to [minTargetBits, maxTargetBits].
func (bc *Blockchain) retarget() {
	now := time.Now()
	elapsed := now.Sub(bc.LastBreath)
	switch {
	case elapsed > bc.Heartbeat:
		if bc.TargetBits > minTargetBits {
			bc.TargetBits--
		}
	case elapsed < bc.Heartbeat:
		if bc.TargetBits > maxTargetBits-2 {
			bc.TargetBits = maxTargetBits
		} else {
			bc.TargetBits += 2
		}
	}
	bc.LastBreath = now
}

// PopBlock reverses the chain tip: every output the tip's transactions
// created must still be present in the UTXO set (otherwise
// ErrPoppedOutputAlreadyConsumed aborts the pop, leaving the chain
// unchanged), and every input it consumed is restored by locating the
// output it referenced in an earlier block. Refuses to pop the genesis
// block.
func (bc *Blockchain) PopBlock() (bool, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if len(bc.Chain) <= 1 {
		return false, ErrGenesisImmutable
	}

	top := bc.Chain[len(bc.Chain)-1]
	block, err := DecodeBlock(top)
	if err != nil {
		return false, err
	}

	var reclaimedReward uint64
	var removals []OutpointKey
	restores := make(map[OutpointKey]Output)
	for _, tx := range block.Txs {
		switch t := tx.(type) {
		case *MiningTx:
			key := OutpointKey{TxID: t.ID(), Index: 0}
			if _, ok := bc.UTXOs[key]; !ok {
				return false, ErrPoppedOutputAlreadyConsumed
			}
			removals = append(removals, key)
			reclaimedReward += uint64(t.Reward)

		case *OrdinaryTx:
			for i := range t.Outputs {
				key := OutpointKey{TxID: t.ID(), Index: uint8(i)}
				if _, ok := bc.UTXOs[key]; !ok {
					return false, ErrPoppedOutputAlreadyConsumed
				}
				removals = append(removals, key)
			}
			for _, in := range t.Inputs {
				out, found := bc.findEarlierOutput(in.TxID, in.Index)
				if !found {
					return false, ErrPoppedOutputAlreadyConsumed
				}
				restores[in.Outpoint()] = out
			}
		}
	}

	for _, key := range removals {
		delete(bc.UTXOs, key)
	}
	for key, out := range restores {
		bc.UTXOs[key] = out
	}
	bc.Chain = bc.Chain[:len(bc.Chain)-1]
	bc.TotalMiningAmount += reclaimedReward
	return true, nil
}

// findEarlierOutput scans every block but the current tip for the
// transaction that produced (txID, index), used to restore inputs on pop.
func (bc *Blockchain) findEarlierOutput(txID [32]byte, index uint8) (Output, bool) {
	for _, raw := range bc.Chain[:len(bc.Chain)-1] {
		block, err := DecodeBlock(raw)
		if err != nil {
			continue
		}
		for _, tx := range block.Txs {
			if tx.ID() != txID {
				continue
			}
			switch t := tx.(type) {
			case *MiningTx:
				if index == 0 {
					return t.Output, true
				}
			case *OrdinaryTx:
				if int(index) < len(t.Outputs) {
					return t.Outputs[int(index)], true
				}
			}
		}
	}
	return Output{}, false
}

// SpendableOutput pairs an unspent output with the outpoint that names it,
// for a caller assembling a new transaction's inputs.
type SpendableOutput struct {
	Outpoint OutpointKey
	Output   Output
}

// FindSpendableOutputs scans the current UTXO set for outputs whose
// recorded CPK resolves to address (per wallet.AddressFromCPK), accumulating
// just enough to cover amount. It returns ErrMissingUTXO if address's total
// spendable balance falls short.
func (bc *Blockchain) FindSpendableOutputs(address string, amount uint64) ([]SpendableOutput, uint64, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	var spend []SpendableOutput
	var total uint64
	for key, out := range bc.UTXOs {
		if total >= amount {
			break
		}
		addr, err := wallet.AddressFromCPK(out.CPK, bc.ChecksumBits)
		if err != nil || addr != address {
			continue
		}
		spend = append(spend, SpendableOutput{Outpoint: key, Output: out})
		total += out.Amount
	}
	if total < amount {
		return nil, 0, ErrMissingUTXO
	}
	return spend, total, nil
}

// Balance sums every UTXO belonging to address.
func (bc *Blockchain) Balance(address string) uint64 {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	var total uint64
	for _, out := range bc.UTXOs {
		addr, err := wallet.AddressFromCPK(out.CPK, bc.ChecksumBits)
		if err != nil || addr != address {
			continue
		}
		total += out.Amount
	}
	return total
}

// VerifyOrdinaryInput checks in's signature blob against the CPK recorded
// in out, the output it claims to spend, per spec.md sections 4.1 and 4.3.
// Exported so node's mempool intake can run the same check ahead of
// AddBlock's staged validation.
func VerifyOrdinaryInput(curve *ecc.Curve, tx *OrdinaryTx, in Input, out Output) error {
	cpkHex, sig, err := wallet.DecodeSignatureBlob(in.Signature)
	if err != nil {
		return err
	}
	if cpkHex != out.CPK {
		return ErrBadSignature
	}
	pub, err := curve.DecompressPoint(out.CPK)
	if err != nil {
		return err
	}

	signingID := tx.SigningID()
	txIDHex := hex.EncodeToString(signingID[:])
	ok, err := curve.Verify(sig, txIDHex, pub)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBadSignature
	}
	return nil
}
