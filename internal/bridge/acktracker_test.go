package bridge

import "testing"

func TestAckTracker_TrackIfNew(t *testing.T) {
	tr := NewAckTracker()
	if !tr.TrackIfNew("a") {
		t.Fatal("first track of a should report new")
	}
	if tr.TrackIfNew("a") {
		t.Fatal("second track of a should report seen")
	}
	if !tr.TrackIfNew("b") {
		t.Fatal("first track of b should report new")
	}
	if got := tr.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestAckTracker_ResolveClearsOnlySnapshot(t *testing.T) {
	tr := NewAckTracker()
	tr.TrackIfNew("a")
	tr.TrackIfNew("b")

	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot size = %d, want 2", len(snap))
	}

	// Tracked after submission; must survive the resolve.
	tr.TrackIfNew("c")

	tr.Resolve(snap)
	if got := tr.Len(); got != 1 {
		t.Fatalf("Len() after resolve = %d, want 1", got)
	}
	if tr.TrackIfNew("c") {
		t.Fatal("c should still be pending after resolving the old snapshot")
	}
}

func TestAckTracker_FailureLeavesSetUntouched(t *testing.T) {
	tr := NewAckTracker()
	tr.TrackIfNew("a")

	// An ack failure means Resolve is never called; the same snapshot
	// comes back on the next cycle.
	for i := 0; i < 3; i++ {
		snap := tr.Snapshot()
		if len(snap) != 1 || snap[0] != "a" {
			t.Fatalf("cycle %d: snapshot = %v, want [a]", i, snap)
		}
	}

	tr.Resolve([]string{"a"})
	if snap := tr.Snapshot(); snap != nil {
		t.Fatalf("snapshot after success = %v, want nil", snap)
	}
}
