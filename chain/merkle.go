package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ProofStep is one level of a Merkle proof: the sibling hash at that level
// and which side it sits on relative to the hash being proved.
type ProofStep struct {
	Sibling [32]byte
	Left    bool // true if Sibling belongs on the left of the pair being hashed
}

// leafHash is SHA256 of a transaction's id rendered as hex text, per
// spec.md section 4.5's deliberate choice to hash the id rather than the
// raw transaction bytes.
func leafHash(tx Transaction) [32]byte {
	id := tx.ID()
	return sha256.Sum256([]byte(hex.EncodeToString(id[:])))
}

// padOdd duplicates the last element of an odd-length, more-than-one-long
// layer, per spec.md section 4.5 step 2.
func padOdd(layer [][32]byte) [][32]byte {
	if len(layer)%2 == 1 && len(layer) > 1 {
		layer = append(layer, layer[len(layer)-1])
	}
	return layer
}

// combinePairs hashes each adjacent pair of an even-length layer into the
// next layer up.
func combinePairs(layer [][32]byte) [][32]byte {
	next := make([][32]byte, 0, len(layer)/2)
	for i := 0; i < len(layer); i += 2 {
		combined := append(append([]byte{}, layer[i][:]...), layer[i+1][:]...)
		next = append(next, sha256.Sum256(combined))
	}
	return next
}

// MerkleRoot computes the root over txs' ids, per spec.md section 4.5. A
// single transaction's leaf hash is itself the root.
func MerkleRoot(txs []Transaction) ([32]byte, error) {
	if len(txs) == 0 {
		return [32]byte{}, fmt.Errorf("chain: cannot compute merkle root of an empty transaction list")
	}
	layer := make([][32]byte, len(txs))
	for i, tx := range txs {
		layer[i] = leafHash(tx)
	}
	for len(layer) > 1 {
		layer = combinePairs(padOdd(layer))
	}
	return layer[0], nil
}

// MerkleProof walks the tree for the transaction at index, returning an
// ordered list of sibling hashes a verifier folds against the leaf to
// recompute the root.
func MerkleProof(txs []Transaction, index int) ([]ProofStep, error) {
	if index < 0 || index >= len(txs) {
		return nil, fmt.Errorf("chain: merkle proof index %d out of range", index)
	}
	layer := make([][32]byte, len(txs))
	for i, tx := range txs {
		layer[i] = leafHash(tx)
	}

	var steps []ProofStep
	idx := index
	for len(layer) > 1 {
		layer = padOdd(layer)
		var step ProofStep
		if idx%2 == 0 {
			step = ProofStep{Sibling: layer[idx+1], Left: false}
		} else {
			step = ProofStep{Sibling: layer[idx-1], Left: true}
		}
		steps = append(steps, step)
		layer = combinePairs(layer)
		idx /= 2
	}
	return steps, nil
}

// VerifyMerkleProof recomputes the root from leaf by folding proof in order
// and reports whether the result equals root.
func VerifyMerkleProof(leaf [32]byte, proof []ProofStep, root [32]byte) bool {
	current := leaf
	for _, step := range proof {
		var combined []byte
		if step.Left {
			combined = append(append([]byte{}, step.Sibling[:]...), current[:]...)
		} else {
			combined = append(append([]byte{}, current[:]...), step.Sibling[:]...)
		}
		current = sha256.Sum256(combined)
	}
	return current == root
}
