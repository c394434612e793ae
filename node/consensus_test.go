package node

import "testing"

func TestGatherConsensusPicksGreatestHeightModalHash(t *testing.T) {
	statuses := map[string]PeerStatus{
		"a": {Height: 5, Hash: [32]byte{1}, Timestamp: 100},
		"b": {Height: 5, Hash: [32]byte{1}, Timestamp: 100},
		"c": {Height: 5, Hash: [32]byte{2}, Timestamp: 50},
		"d": {Height: 3, Hash: [32]byte{9}, Timestamp: 1},
	}
	triple, err := GatherConsensus(statuses)
	if err != nil {
		t.Fatalf("GatherConsensus: %v", err)
	}
	if triple.Height != 5 || triple.Hash != [32]byte{1} || triple.Timestamp != 100 {
		t.Fatalf("unexpected consensus triple: %+v", triple)
	}
}

func TestGatherConsensusTieBreaksOnEarliestTimestamp(t *testing.T) {
	statuses := map[string]PeerStatus{
		"a": {Height: 2, Hash: [32]byte{1}, Timestamp: 200},
		"b": {Height: 2, Hash: [32]byte{2}, Timestamp: 100},
	}
	triple, err := GatherConsensus(statuses)
	if err != nil {
		t.Fatalf("GatherConsensus: %v", err)
	}
	if triple.Hash != [32]byte{2} || triple.Timestamp != 100 {
		t.Fatalf("expected the earlier-timestamp candidate to win a tie, got %+v", triple)
	}
}

func TestGatherConsensusNoStatuses(t *testing.T) {
	if _, err := GatherConsensus(nil); err != ErrNoConsensus {
		t.Fatalf("GatherConsensus(nil) = %v, want ErrNoConsensus", err)
	}
}

func TestMatchingPrefixLength(t *testing.T) {
	ours := [][32]byte{{1}, {2}, {3}, {4}}
	theirs := [][32]byte{{1}, {2}, {9}, {9}}
	if got := MatchingPrefixLength(ours, theirs); got != 2 {
		t.Fatalf("MatchingPrefixLength = %d, want 2", got)
	}
}

func TestMatchingPrefixLengthIdentical(t *testing.T) {
	ours := [][32]byte{{1}, {2}, {3}}
	if got := MatchingPrefixLength(ours, ours); got != 3 {
		t.Fatalf("MatchingPrefixLength = %d, want 3", got)
	}
}

func TestConsensusDictUpdateAndSnapshot(t *testing.T) {
	cd := NewConsensusDict()
	cd.Update("peer1", PeerStatus{Height: 1, Hash: [32]byte{7}, Timestamp: 42})
	snap := cd.Snapshot()
	if len(snap) != 1 || snap["peer1"].Height != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	cd.Update("peer1", PeerStatus{Height: 2, Hash: [32]byte{8}, Timestamp: 43})
	snap = cd.Snapshot()
	if snap["peer1"].Height != 2 {
		t.Fatal("Update must replace a peer's prior status")
	}
}
