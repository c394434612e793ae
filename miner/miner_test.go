package miner

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/big"
	"testing"
	"time"
)

// fakeCandidate is a minimal Candidate whose id is just SHA256 of its nonce,
// letting tests drive the search space without depending on chain.Block.
type fakeCandidate struct {
	nonce uint32
}

func (f *fakeCandidate) Nonce() uint32         { return f.nonce }
func (f *fakeCandidate) SetNonce(nonce uint32) { f.nonce = nonce }
func (f *fakeCandidate) Raw() string           { return fmt.Sprintf("nonce:%d", f.nonce) }
func (f *fakeCandidate) ID() [32]byte          { return sha256.Sum256([]byte(f.Raw())) }

func TestTargetMonotonicallyShrinksWithBits(t *testing.T) {
	t1 := Target(1)
	t2 := Target(2)
	if t2.Cmp(t1) >= 0 {
		t.Fatalf("Target(2) = %s should be smaller than Target(1) = %s", t2, t1)
	}
}

func TestMineFindsSolutionAtLowTarget(t *testing.T) {
	m := New()
	c := &fakeCandidate{}
	raw, err := m.Mine(context.Background(), c, 1)
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if raw == "" {
		t.Fatal("expected a mined solution at target bits 1")
	}
	id := c.ID()
	if new(big.Int).SetBytes(id[:]).Cmp(Target(1)) > 0 {
		t.Fatal("mined candidate's id does not satisfy the target")
	}
}

func TestMineStopsOnExplicitStop(t *testing.T) {
	m := New()
	c := &fakeCandidate{}

	done := make(chan struct{})
	go func() {
		raw, err := m.Mine(context.Background(), c, 255)
		if err != nil {
			t.Errorf("Mine: %v", err)
		}
		if raw != "" {
			t.Errorf("expected Mine to return empty after Stop, got %q", raw)
		}
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	m.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Mine did not return promptly after Stop")
	}
}

func TestMineStopsOnContextCancellation(t *testing.T) {
	m := New()
	c := &fakeCandidate{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		raw, err := m.Mine(ctx, c, 255)
		if err != nil {
			t.Errorf("Mine: %v", err)
		}
		if raw != "" {
			t.Errorf("expected Mine to return empty after cancellation, got %q", raw)
		}
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Mine did not return promptly after context cancellation")
	}
}
