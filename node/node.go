package node

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DrGregDoyle/GChain/chain"
	"github.com/DrGregDoyle/GChain/miner"
	"github.com/DrGregDoyle/GChain/wallet"
)

// Node owns a Blockchain, a Wallet, a mempool, and a consensus dictionary,
// per spec.md section 4.8. Peer handlers call into the Blockchain and
// Mempool via this type's serialized entry points; no state crosses Nodes
// other than through the wire protocol (section 5).
type Node struct {
	Blockchain *chain.Blockchain
	Wallet     *wallet.Wallet
	Mempool    *Mempool
	Consensus  *ConsensusDict
	Miner      *miner.Miner
	Logger     *zap.Logger

	// ListenAddr, PublicAddr, and LANAddr are the three endpoints this
	// node is reachable at; outbound calls suppress dialing any of them,
	// per DESIGN NOTES section 9.
	ListenAddr string
	PublicAddr string
	LANAddr    string

	peersMu sync.Mutex
	Peers   []string

	listening atomic.Bool
	mining    atomic.Bool
}

// New builds a Node over an already-constructed Blockchain and Wallet.
func New(bc *chain.Blockchain, w *wallet.Wallet, logger *zap.Logger, listenAddr, publicAddr, lanAddr string) *Node {
	return &Node{
		Blockchain: bc,
		Wallet:     w,
		Mempool:    NewMempool(),
		Consensus:  NewConsensusDict(),
		Miner:      miner.New(),
		Logger:     logger,
		ListenAddr: listenAddr,
		PublicAddr: publicAddr,
		LANAddr:    lanAddr,
	}
}

// AddPeer registers a peer endpoint, ignoring this node's own addresses.
func (n *Node) AddPeer(addr string) {
	if n.isSelf(addr) {
		return
	}
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	for _, p := range n.Peers {
		if p == addr {
			return
		}
	}
	n.Peers = append(n.Peers, addr)
}

// PeerList returns a snapshot of known peer endpoints.
func (n *Node) PeerList() []string {
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	return append([]string(nil), n.Peers...)
}

// SubmitTransaction runs raw through the mempool's intake contract and, if
// it lands in the validated pool (rather than as an orphan), broadcasts it
// to peers, per spec.md section 4.8 step 6.
func (n *Node) SubmitTransaction(raw string) (bool, error) {
	accepted, err := n.Mempool.AddTransaction(n.Blockchain, raw)
	if err != nil || !accepted {
		return accepted, err
	}
	tx, _, err := chain.DecodeTx(raw)
	if err != nil {
		return false, err
	}
	if n.Mempool.IsValidated(tx.ID()) {
		n.Broadcast(MsgNewTransaction, raw)
	}
	return true, nil
}

// sumFees returns the difference between spent inputs and new outputs over
// a snapshot of ordinary transactions, looked up against bc's current UTXO
// set via LookupUTXO, which takes bc.mu: this runs concurrently with the
// listener's handler goroutines mutating the same map through AddBlock
// (spec.md section 5).
func sumFees(bc *chain.Blockchain, txs []*chain.OrdinaryTx) uint64 {
	var fees uint64
	for _, tx := range txs {
		var in, out uint64
		for _, i := range tx.Inputs {
			if u, ok := bc.LookupUTXO(i.Outpoint()); ok {
				in += u.Amount
			}
		}
		for _, o := range tx.Outputs {
			out += o.Amount
		}
		if in > out {
			fees += in - out
		}
	}
	return fees
}

// MineOnce runs a single mining round, per spec.md section 4.8: build a
// mining transaction paying reward+fees to this node's own wallet, prepend
// it to a mempool snapshot, assemble a candidate block, and run the miner.
// On success, the block is applied and broadcast and the mempool is
// cleared. On interrupt, the provisional mining transaction is simply
// discarded, since it was never applied.
func (n *Node) MineOnce(ctx context.Context) (bool, error) {
	n.mining.Store(true)
	defer n.mining.Store(false)

	status, err := n.Blockchain.SnapshotPolicy()
	if err != nil {
		return false, err
	}

	snapshot := n.Mempool.Snapshot()
	fees := sumFees(n.Blockchain, snapshot)

	miningTx := &chain.MiningTx{
		Height: uint64(status.Height + 1),
		Reward: status.Reward,
		Output: chain.Output{Amount: uint64(status.Reward) + fees, CPK: n.Wallet.CompressedPublicKey()},
	}

	txs := make([]chain.Transaction, 0, len(snapshot)+1)
	txs = append(txs, miningTx)
	for _, tx := range snapshot {
		txs = append(txs, tx)
	}

	root, err := chain.MerkleRoot(txs)
	if err != nil {
		return false, err
	}

	header := chain.Header{
		Version:    0,
		PrevHash:   status.LastBlockID,
		MerkleRoot: root,
		TargetBits: uint32(status.TargetBits),
		Nonce:      0,
		Timestamp:  uint32(time.Now().Unix()),
	}
	block := chain.NewBlock(header, txs)

	raw, err := n.Miner.Mine(ctx, block, status.TargetBits)
	if err != nil {
		return false, err
	}
	if raw == "" {
		return false, nil
	}

	added, err := n.Blockchain.AddBlock(raw)
	if err != nil || !added {
		return false, err
	}

	n.Broadcast(MsgNewBlock, raw)
	n.Mempool.Clear()
	n.Mempool.CheckForParents(n.Blockchain)
	return true, nil
}

// IsMining reports whether a mining round is currently in progress.
func (n *Node) IsMining() bool {
	return n.mining.Load()
}

// Status returns this node's own current {HEIGHT, HASH, TIMESTAMP}, taken as
// a single SnapshotPolicy so height and hash can't be torn by a concurrent
// AddBlock.
func (n *Node) Status() (PeerStatus, error) {
	status, err := n.Blockchain.SnapshotPolicy()
	if err != nil {
		return PeerStatus{}, err
	}
	return PeerStatus{
		Height:    status.Height,
		Hash:      status.LastBlockID,
		Timestamp: time.Now().Unix(),
	}, nil
}

// AchieveConsensus implements spec.md section 4.8: stop mining, gather the
// consensus triple from known peer statuses, find the greatest matching
// prefix length between our hashlist and a consensus peer's, pop_block until
// only that matching prefix remains, then request successive blocks by index from consensus
// peers (round-robin) until our height reaches consensus height. Mining is
// resumed by the caller if it was running before.
func (n *Node) AchieveConsensus(ctx context.Context) error {
	n.Miner.Stop()

	statuses := n.Consensus.Snapshot()
	triple, err := GatherConsensus(statuses)
	if err != nil {
		return err
	}

	var peers []string
	for addr, s := range statuses {
		if s.Height == triple.Height && s.Hash == triple.Hash && s.Timestamp == triple.Timestamp {
			peers = append(peers, addr)
		}
	}
	if len(peers) == 0 {
		return ErrNoConsensus
	}

	ours, err := Hashlist(n.Blockchain)
	if err != nil {
		return err
	}

	matchIdx, err := n.RequestHashlistMatch(peers[0], ours)
	if err != nil {
		return err
	}

	for n.Blockchain.Height() >= matchIdx {
		if _, err := n.Blockchain.PopBlock(); err != nil {
			return err
		}
	}

	peerIdx := 0
	for n.Blockchain.Height() < triple.Height {
		peer := peers[peerIdx%len(peers)]
		peerIdx++

		raw, err := n.RequestBlock(peer, n.Blockchain.Height()+1)
		if err != nil {
			if n.Logger != nil {
				n.Logger.Warn("failed to fetch block during resync", zap.String("peer", peer), zap.Error(err))
			}
			continue
		}
		if _, err := n.Blockchain.AddBlock(raw); err != nil {
			return err
		}
	}

	status, err := n.Status()
	if err != nil {
		return err
	}
	for _, peer := range n.PeerList() {
		if err := n.SendStatus(peer, status); err != nil && n.Logger != nil {
			n.Logger.Warn("failed to report status after resync", zap.String("peer", peer), zap.Error(err))
		}
	}
	return nil
}
