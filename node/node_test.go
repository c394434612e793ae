package node

import (
	"context"
	"math/big"
	"testing"

	"go.uber.org/zap"

	"github.com/DrGregDoyle/GChain/chain"
	"github.com/DrGregDoyle/GChain/ecc"
	"github.com/DrGregDoyle/GChain/wallet"
)

func newTestNode(t *testing.T, listenAddr string) *Node {
	t.Helper()
	w, err := wallet.NewWallet(ecc.Secp256k1(), big.NewInt(555), wallet.DefaultChecksumBits)
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	bc, err := chain.NewBlockchain(context.Background(), ecc.Secp256k1(), 21_000_000, 50, 1, 0, wallet.DefaultChecksumBits)
	if err != nil {
		t.Fatalf("NewBlockchain: %v", err)
	}
	return New(bc, w, zap.NewNop(), listenAddr, "", "")
}

func TestAddPeerSuppressesSelf(t *testing.T) {
	n := newTestNode(t, "127.0.0.1:9000")
	n.AddPeer("127.0.0.1:9000")
	n.AddPeer("127.0.0.1:9001")
	n.AddPeer("127.0.0.1:9001")

	peers := n.PeerList()
	if len(peers) != 1 || peers[0] != "127.0.0.1:9001" {
		t.Fatalf("PeerList() = %v, want exactly [127.0.0.1:9001]", peers)
	}
}

func TestStatusReflectsChainTip(t *testing.T) {
	n := newTestNode(t, "127.0.0.1:9010")
	status, err := n.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	last, err := n.Blockchain.LastBlock()
	if err != nil {
		t.Fatalf("LastBlock: %v", err)
	}
	if status.Height != 0 || status.Hash != last.ID() {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestMineOnceAppliesBlockAndClearsMempool(t *testing.T) {
	n := newTestNode(t, "127.0.0.1:9020")

	mined, err := n.MineOnce(context.Background())
	if err != nil {
		t.Fatalf("MineOnce: %v", err)
	}
	if !mined {
		t.Fatal("expected MineOnce to succeed against a fresh chain")
	}
	if n.Blockchain.Height() != 1 {
		t.Fatalf("Height() = %d, want 1", n.Blockchain.Height())
	}
	if got := n.Blockchain.Balance(n.Wallet.Address()); got != uint64(n.Blockchain.CurrentReward()) {
		t.Fatalf("Balance = %d, want %d", got, n.Blockchain.CurrentReward())
	}
	if len(n.Mempool.Snapshot()) != 0 {
		t.Fatal("MineOnce must clear the mempool of whatever it just confirmed")
	}
}

func TestIsMiningFalseBeforeAnyRound(t *testing.T) {
	n := newTestNode(t, "127.0.0.1:9030")
	if n.IsMining() {
		t.Fatal("a fresh node must not report mining before MineOnce runs")
	}
}
