package node

import (
	"sync"

	"github.com/DrGregDoyle/GChain/chain"
)

// PeerStatus is a peer's self-reported {HEIGHT, HASH, TIMESTAMP}, carried
// in a status-exchange message (type 0x08) and recorded in a node's
// consensus_dict, per spec.md section 4.8.
type PeerStatus struct {
	Height    int
	Hash      [32]byte
	Timestamp int64
}

// ConsensusTriple is the (height, hash, timestamp) selected across peers,
// per the GLOSSARY's "Consensus triple" entry.
type ConsensusTriple struct {
	Height    int
	Hash      [32]byte
	Timestamp int64
}

// ConsensusDict maps peer endpoints to their last-reported status.
type ConsensusDict struct {
	mu       sync.Mutex
	statuses map[string]PeerStatus
}

// NewConsensusDict returns an empty consensus dictionary.
func NewConsensusDict() *ConsensusDict {
	return &ConsensusDict{statuses: make(map[string]PeerStatus)}
}

// Update records or replaces a peer's self-reported status.
func (cd *ConsensusDict) Update(peer string, status PeerStatus) {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	cd.statuses[peer] = status
}

// Snapshot returns a copy of the current peer -> status map.
func (cd *ConsensusDict) Snapshot() map[string]PeerStatus {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	out := make(map[string]PeerStatus, len(cd.statuses))
	for k, v := range cd.statuses {
		out[k] = v
	}
	return out
}

// GatherConsensus computes (greatest_height, {(hash,ts) -> count}) from
// statuses, then picks the (hash, ts) of greatest frequency among nodes at
// the greatest height, tie-breaking on the smallest timestamp, per
// spec.md section 4.8.
func GatherConsensus(statuses map[string]PeerStatus) (ConsensusTriple, error) {
	if len(statuses) == 0 {
		return ConsensusTriple{}, ErrNoConsensus
	}

	greatest := -1
	for _, s := range statuses {
		if s.Height > greatest {
			greatest = s.Height
		}
	}

	type candidate struct {
		hash [32]byte
		ts   int64
	}
	counts := make(map[candidate]int)
	for _, s := range statuses {
		if s.Height == greatest {
			counts[candidate{s.Hash, s.Timestamp}]++
		}
	}

	var best candidate
	bestCount := 0
	hasBest := false
	for c, count := range counts {
		if !hasBest || count > bestCount || (count == bestCount && c.ts < best.ts) {
			best, bestCount, hasBest = c, count, true
		}
	}

	return ConsensusTriple{Height: greatest, Hash: best.hash, Timestamp: best.ts}, nil
}

// MatchingPrefixLength returns the length of the longest common prefix
// between ours and theirs, used by AchieveConsensus to find how far back a
// chain must be popped before it agrees with a consensus peer.
func MatchingPrefixLength(ours, theirs [][32]byte) int {
	n := len(ours)
	if len(theirs) < n {
		n = len(theirs)
	}
	for i := 0; i < n; i++ {
		if ours[i] != theirs[i] {
			return i
		}
	}
	return n
}

// Hashlist returns the ordered sequence of block ids recorded in bc, for
// prefix-match reconciliation (the GLOSSARY's "Hashlist").
func Hashlist(bc *chain.Blockchain) ([][32]byte, error) {
	blocks := bc.Blocks()
	hashes := make([][32]byte, 0, len(blocks))
	for _, raw := range blocks {
		b, err := chain.DecodeBlock(raw)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, b.ID())
	}
	return hashes, nil
}
