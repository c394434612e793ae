package node

import (
	"sync"

	"github.com/DrGregDoyle/GChain/chain"
)

// Mempool holds validated and orphaned transactions ahead of mining, plus
// the set of outpoints tentatively consumed by validated transactions, per
// spec.md section 4.8. Consumed is a set of (tx_id, tx_index) pairs rather
// than a tx_id-keyed map, per DESIGN NOTES section 9's Open Question 2, so
// two different outputs of the same parent transaction can be independently
// tentatively spent.
type Mempool struct {
	mu sync.Mutex

	Validated map[[32]byte]*chain.OrdinaryTx
	Orphans   map[[32]byte]*chain.OrdinaryTx
	Consumed  map[chain.OutpointKey]struct{}
}

// NewMempool returns an empty mempool.
func NewMempool() *Mempool {
	return &Mempool{
		Validated: make(map[[32]byte]*chain.OrdinaryTx),
		Orphans:   make(map[[32]byte]*chain.OrdinaryTx),
		Consumed:  make(map[chain.OutpointKey]struct{}),
	}
}

// Has reports whether id is already in the validated or orphan pool.
func (mp *Mempool) Has(id [32]byte) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	_, v := mp.Validated[id]
	_, o := mp.Orphans[id]
	return v || o
}

// AddTransaction implements spec.md section 4.8's six-step intake contract
// for a raw ordinary transaction: decode, reject duplicates, resolve each
// input against the UTXO set (orphaning on a missing parent), verify
// signatures, reject in-mempool double-spends, and check the amount
// invariant.
func (mp *Mempool) AddTransaction(bc *chain.Blockchain, raw string) (bool, error) {
	tx, _, err := chain.DecodeTx(raw)
	if err != nil {
		return false, err
	}
	ordinary, ok := tx.(*chain.OrdinaryTx)
	if !ok {
		return false, ErrNotOrdinary
	}
	id := ordinary.ID()

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, ok := mp.Validated[id]; ok {
		return false, ErrAlreadyQueued
	}
	if _, ok := mp.Orphans[id]; ok {
		return false, ErrAlreadyQueued
	}

	resolved := true
	var totalIn, totalOut uint64
	for _, in := range ordinary.Inputs {
		out, ok := bc.LookupUTXO(in.Outpoint())
		if !ok {
			resolved = false
			continue
		}
		if err := chain.VerifyOrdinaryInput(bc.Curve, ordinary, in, out); err != nil {
			return false, err
		}
		if _, consumed := mp.Consumed[in.Outpoint()]; consumed {
			return false, chain.ErrDoubleSpend
		}
		totalIn += out.Amount
	}
	for _, out := range ordinary.Outputs {
		totalOut += out.Amount
	}

	if !resolved {
		mp.Orphans[id] = ordinary
		return true, nil
	}
	if totalOut > totalIn {
		return false, chain.ErrAmountOverflow
	}

	for _, in := range ordinary.Inputs {
		mp.Consumed[in.Outpoint()] = struct{}{}
	}
	mp.Validated[id] = ordinary
	return true, nil
}

// IsValidated reports whether id is in the validated pool (as opposed to
// orphaned or absent).
func (mp *Mempool) IsValidated(id [32]byte) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	_, ok := mp.Validated[id]
	return ok
}

// CheckForParents re-evaluates the orphan pool against the current UTXO
// set, promoting any orphan whose inputs are now all resolvable, per
// scenario S4.
func (mp *Mempool) CheckForParents(bc *chain.Blockchain) []*chain.OrdinaryTx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var resolved []*chain.OrdinaryTx
	for id, tx := range mp.Orphans {
		allPresent := true
		for _, in := range tx.Inputs {
			if _, ok := bc.LookupUTXO(in.Outpoint()); !ok {
				allPresent = false
				break
			}
		}
		if !allPresent {
			continue
		}
		delete(mp.Orphans, id)
		mp.Validated[id] = tx
		for _, in := range tx.Inputs {
			mp.Consumed[in.Outpoint()] = struct{}{}
		}
		resolved = append(resolved, tx)
	}
	return resolved
}

// Snapshot returns the currently validated transactions, for a mining round
// to build a candidate block from.
func (mp *Mempool) Snapshot() []*chain.OrdinaryTx {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	txs := make([]*chain.OrdinaryTx, 0, len(mp.Validated))
	for _, tx := range mp.Validated {
		txs = append(txs, tx)
	}
	return txs
}

// Clear empties the validated pool and its consumed-outpoint set, per a
// newly accepted block superseding whatever it confirmed. Orphans are left
// untouched; CheckForParents re-evaluates them against the new UTXO set.
func (mp *Mempool) Clear() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.Validated = make(map[[32]byte]*chain.OrdinaryTx)
	mp.Consumed = make(map[chain.OutpointKey]struct{})
}
