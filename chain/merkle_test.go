package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func txLeaf(tx Transaction) [32]byte {
	id := tx.ID()
	return sha256.Sum256([]byte(hex.EncodeToString(id[:])))
}

func miningTxs(n int) []Transaction {
	txs := make([]Transaction, n)
	for i := 0; i < n; i++ {
		txs[i] = &MiningTx{Height: uint64(i), Reward: uint32(i + 1), Output: sampleOutput(uint64(i + 1))}
	}
	return txs
}

func TestMerkleRootSingleTxIsLeaf(t *testing.T) {
	txs := miningTxs(1)
	root, err := MerkleRoot(txs)
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	if root != txLeaf(txs[0]) {
		t.Fatal("a single-transaction root must equal that transaction's leaf hash")
	}
}

func TestMerkleRootEmptyIsError(t *testing.T) {
	if _, err := MerkleRoot(nil); err == nil {
		t.Fatal("expected an error computing the root of an empty transaction list")
	}
}

func TestMerkleProofRoundTripVariousSizes(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 7} {
		txs := miningTxs(n)
		root, err := MerkleRoot(txs)
		if err != nil {
			t.Fatalf("n=%d: MerkleRoot: %v", n, err)
		}
		for i := 0; i < n; i++ {
			proof, err := MerkleProof(txs, i)
			if err != nil {
				t.Fatalf("n=%d index=%d: MerkleProof: %v", n, i, err)
			}
			leaf := txLeaf(txs[i])
			if !VerifyMerkleProof(leaf, proof, root) {
				t.Errorf("n=%d index=%d: proof failed to verify against root", n, i)
			}
		}
	}
}

func TestMerkleProofRejectsWrongLeaf(t *testing.T) {
	txs := miningTxs(4)
	root, err := MerkleRoot(txs)
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	proof, err := MerkleProof(txs, 0)
	if err != nil {
		t.Fatalf("MerkleProof: %v", err)
	}
	wrongLeaf := txLeaf(txs[1])
	if VerifyMerkleProof(wrongLeaf, proof, root) {
		t.Fatal("proof for index 0 should not verify against a different transaction's leaf")
	}
}

func TestMerkleProofIndexOutOfRange(t *testing.T) {
	txs := miningTxs(3)
	if _, err := MerkleProof(txs, 3); err == nil {
		t.Fatal("expected an error for an out-of-range proof index")
	}
	if _, err := MerkleProof(txs, -1); err == nil {
		t.Fatal("expected an error for a negative proof index")
	}
}
