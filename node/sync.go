package node

import (
	"fmt"
	"net"
	"time"

	"github.com/DrGregDoyle/GChain/chain"
	"github.com/DrGregDoyle/GChain/codec"
)

// requestBlock is call's one-shot, Node-less counterpart: used by CLI
// commands that want to replay a peer's chain without standing up a full
// Node (no retry, no self-peer bookkeeping).
func requestBlock(peerAddr string, index uint64) (string, bool, error) {
	conn, err := net.DialTimeout("tcp", peerAddr, dialTimeout)
	if err != nil {
		return "", false, fmt.Errorf("node: %w: %v", ErrConnectionRefused, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(dialTimeout))

	if err := WriteMessage(conn, MsgBlockRequest, codec.FixedHex(index, 4)); err != nil {
		return "", false, err
	}
	code, err := ReadResponse(conn)
	if err != nil {
		return "", false, err
	}
	if code != RespOK {
		return "", false, nil
	}
	_, raw, err := ReadMessage(conn)
	if err != nil {
		return "", false, err
	}
	return raw, true, nil
}

// FetchChain replays every block a peer holds, from genesis onward, into a
// freshly built in-memory Blockchain. The peer's block 0 is checked only for
// carrying a single genesis transaction and is taken as the chain's root;
// every later block goes through chain.AddBlock's full validation. Used by CLI commands (getbalance, send) to
// reconstruct UTXO state from a running node without any local persistence,
// per spec.md section 1's exclusion of a storage layer: a session has no
// state of its own until it syncs one from a peer.
func FetchChain(peerAddr string, checksumBits int) (*chain.Blockchain, error) {
	genesisRaw, ok, err := requestBlock(peerAddr, 0)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("node: peer %s has no genesis block", peerAddr)
	}

	genesisBlock, err := chain.DecodeBlock(genesisRaw)
	if err != nil {
		return nil, err
	}
	if len(genesisBlock.Txs) != 1 || genesisBlock.Txs[0].Type() != chain.TxGenesis {
		return nil, fmt.Errorf("node: peer %s's block 0 is not a genesis transaction", peerAddr)
	}
	genesisTx := genesisBlock.Txs[0].(*chain.GenesisTx)

	if checksumBits <= 0 {
		checksumBits = 32
	}
	bc := &chain.Blockchain{
		Chain:             []string{genesisRaw},
		UTXOs:             make(map[chain.OutpointKey]chain.Output),
		Curve:             genesisTx.Curve,
		Reward:            genesisTx.StartingReward,
		TargetBits:        genesisTx.StartingTargetBits,
		TotalMiningAmount: genesisTx.TotalMiningAmount,
		Heartbeat:         time.Duration(genesisTx.HeartbeatSeconds) * time.Second,
		LastBreath:        time.Now(),
		ChecksumBits:      checksumBits,
	}

	for i := uint64(1); ; i++ {
		raw, ok, err := requestBlock(peerAddr, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if _, err := bc.AddBlock(raw); err != nil {
			return nil, fmt.Errorf("node: peer %s's block %d failed validation: %w", peerAddr, i, err)
		}
	}

	return bc, nil
}
