// Package miner searches a candidate block's nonce space for an id that
// satisfies a proof-of-work target, per spec.md section 4.7. The miner is a
// passive primitive: starting, stopping, and any surrounding concurrency
// belong to the caller.
package miner

import (
	"context"
	"math/big"
	"sync/atomic"
)

// Candidate is a block under construction whose nonce can be advanced and
// whose wire form and id are recomputed from the current nonce. chain.Block
// implements this without miner importing chain, avoiding a package cycle
// between the two.
type Candidate interface {
	Nonce() uint32
	SetNonce(nonce uint32)
	ID() [32]byte
	Raw() string
}

// Miner holds the single cooperative-cancellation flag a mining round polls.
type Miner struct {
	mining atomic.Bool
}

// New returns an idle Miner.
func New() *Miner {
	return &Miner{}
}

// Target returns 2^(256-targetBits), the threshold a block id must not
// exceed to satisfy targetBits.
func Target(targetBits uint8) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(256-int(targetBits)))
}

// Mine advances c's nonce from its current value, checking the interrupt
// flag and ctx once per iteration, until c.ID() read as a big-endian integer
// is at most Target(targetBits). It returns the mined raw block on success,
// or "" if interrupted by Stop or ctx cancellation before a solution was
// found.
func (m *Miner) Mine(ctx context.Context, c Candidate, targetBits uint8) (string, error) {
	m.mining.Store(true)
	target := Target(targetBits)

	for {
		id := c.ID()
		if new(big.Int).SetBytes(id[:]).Cmp(target) <= 0 {
			return c.Raw(), nil
		}
		if !m.mining.Load() {
			return "", nil
		}
		select {
		case <-ctx.Done():
			return "", nil
		default:
		}
		c.SetNonce(c.Nonce() + 1)
	}
}

// Stop requests that any in-progress Mine call return at its next nonce
// iteration.
func (m *Miner) Stop() {
	m.mining.Store(false)
}
