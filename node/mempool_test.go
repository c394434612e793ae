package node

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/DrGregDoyle/GChain/chain"
	"github.com/DrGregDoyle/GChain/ecc"
	"github.com/DrGregDoyle/GChain/miner"
	"github.com/DrGregDoyle/GChain/wallet"
)

func mustWallet(t *testing.T, seed int64) *wallet.Wallet {
	t.Helper()
	w, err := wallet.NewWallet(ecc.Secp256k1(), big.NewInt(seed), wallet.DefaultChecksumBits)
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	return w
}

// seedChainWithOneReward mines a single block paying reward to w, returning
// the resulting Blockchain and the outpoint that owns that payment.
func seedChainWithOneReward(t *testing.T, w *wallet.Wallet) (*chain.Blockchain, chain.OutpointKey) {
	t.Helper()
	bc, err := chain.NewBlockchain(context.Background(), ecc.Secp256k1(), 21_000_000, 50, 1, 0, wallet.DefaultChecksumBits)
	if err != nil {
		t.Fatalf("NewBlockchain: %v", err)
	}

	miningTx := &chain.MiningTx{Height: 1, Reward: bc.CurrentReward(), Output: chain.Output{Amount: uint64(bc.CurrentReward()), CPK: w.CompressedPublicKey()}}
	root, err := chain.MerkleRoot([]chain.Transaction{miningTx})
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	tip, err := bc.LastBlock()
	if err != nil {
		t.Fatalf("LastBlock: %v", err)
	}
	header := chain.Header{Version: 0, PrevHash: tip.ID(), MerkleRoot: root, TargetBits: uint32(bc.TargetBits)}
	block := chain.NewBlock(header, []chain.Transaction{miningTx})
	raw, err := miner.New().Mine(context.Background(), block, bc.TargetBits)
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if raw == "" {
		t.Fatal("mine: no solution found")
	}
	if ok, err := bc.AddBlock(raw); err != nil || !ok {
		t.Fatalf("AddBlock: ok=%v err=%v", ok, err)
	}
	return bc, chain.OutpointKey{TxID: miningTx.ID(), Index: 0}
}

func buildSpend(t *testing.T, bc *chain.Blockchain, from *wallet.Wallet, toCPK string, amount uint64) *chain.OrdinaryTx {
	t.Helper()
	tx, err := chain.BuildOrdinaryTx(bc, from, toCPK, amount)
	if err != nil {
		t.Fatalf("BuildOrdinaryTx: %v", err)
	}
	return tx
}

func TestMempoolAddTransactionValidates(t *testing.T) {
	walletA := mustWallet(t, 10)
	walletB := mustWallet(t, 20)
	bc, _ := seedChainWithOneReward(t, walletA)

	spend := buildSpend(t, bc, walletA, walletB.CompressedPublicKey(), uint64(bc.CurrentReward()))

	mp := NewMempool()
	ok, err := mp.AddTransaction(bc, spend.Raw())
	if err != nil || !ok {
		t.Fatalf("AddTransaction: ok=%v err=%v", ok, err)
	}
	if !mp.IsValidated(spend.ID()) {
		t.Fatal("expected the transaction to land in the validated pool")
	}
}

func TestMempoolRejectsDuplicate(t *testing.T) {
	walletA := mustWallet(t, 11)
	walletB := mustWallet(t, 21)
	bc, _ := seedChainWithOneReward(t, walletA)
	spend := buildSpend(t, bc, walletA, walletB.CompressedPublicKey(), uint64(bc.CurrentReward()))

	mp := NewMempool()
	if ok, err := mp.AddTransaction(bc, spend.Raw()); err != nil || !ok {
		t.Fatalf("first add: ok=%v err=%v", ok, err)
	}
	ok, err := mp.AddTransaction(bc, spend.Raw())
	if ok || err != ErrAlreadyQueued {
		t.Fatalf("second add: ok=%v err=%v, want ErrAlreadyQueued", ok, err)
	}
}

func TestMempoolRejectsInMempoolDoubleSpend(t *testing.T) {
	walletA := mustWallet(t, 12)
	walletB := mustWallet(t, 22)
	walletC := mustWallet(t, 32)
	bc, outpoint := seedChainWithOneReward(t, walletA)

	first := buildSpend(t, bc, walletA, walletB.CompressedPublicKey(), uint64(bc.CurrentReward()))

	second := &chain.OrdinaryTx{
		Inputs:  []chain.Input{{TxID: outpoint.TxID, Index: outpoint.Index}},
		Outputs: []chain.Output{{Amount: uint64(bc.CurrentReward()), CPK: walletC.CompressedPublicKey()}},
	}
	signingID := second.SigningID()
	blob, err := walletA.SignTransaction(hex.EncodeToString(signingID[:]))
	if err != nil {
		t.Fatalf("SignTransaction: %v", err)
	}
	second.Inputs[0].Signature = blob

	mp := NewMempool()
	if ok, err := mp.AddTransaction(bc, first.Raw()); err != nil || !ok {
		t.Fatalf("first add: ok=%v err=%v", ok, err)
	}
	ok, err := mp.AddTransaction(bc, second.Raw())
	if ok || err != chain.ErrDoubleSpend {
		t.Fatalf("second add: ok=%v err=%v, want ErrDoubleSpend", ok, err)
	}
}

func TestMempoolOrphansUnresolvedInput(t *testing.T) {
	walletA := mustWallet(t, 13)
	walletB := mustWallet(t, 23)
	bc, _ := seedChainWithOneReward(t, walletA)

	orphan := &chain.OrdinaryTx{
		Inputs:  []chain.Input{{TxID: [32]byte{0xde, 0xad}, Index: 0}},
		Outputs: []chain.Output{{Amount: 1, CPK: walletB.CompressedPublicKey()}},
	}
	signingID := orphan.SigningID()
	blob, err := walletA.SignTransaction(hex.EncodeToString(signingID[:]))
	if err != nil {
		t.Fatalf("SignTransaction: %v", err)
	}
	orphan.Inputs[0].Signature = blob

	mp := NewMempool()
	ok, err := mp.AddTransaction(bc, orphan.Raw())
	if err != nil || !ok {
		t.Fatalf("AddTransaction(orphan): ok=%v err=%v", ok, err)
	}
	if mp.IsValidated(orphan.ID()) {
		t.Fatal("transaction referencing a missing utxo must not be validated")
	}
	if !mp.Has(orphan.ID()) {
		t.Fatal("expected the transaction to be tracked as an orphan")
	}
}

func TestMempoolClearEmptiesValidatedAndConsumed(t *testing.T) {
	walletA := mustWallet(t, 14)
	walletB := mustWallet(t, 24)
	bc, _ := seedChainWithOneReward(t, walletA)
	spend := buildSpend(t, bc, walletA, walletB.CompressedPublicKey(), uint64(bc.CurrentReward()))

	mp := NewMempool()
	if ok, err := mp.AddTransaction(bc, spend.Raw()); err != nil || !ok {
		t.Fatalf("AddTransaction: ok=%v err=%v", ok, err)
	}
	mp.Clear()
	if mp.IsValidated(spend.ID()) {
		t.Fatal("Clear must empty the validated pool")
	}
	if len(mp.Consumed) != 0 {
		t.Fatal("Clear must empty the consumed-outpoint set")
	}
}
