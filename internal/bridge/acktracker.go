package bridge

import (
	"sync"

	"conduit/internal/telemetry"
)

// AckTracker holds every ack handle that has been pulled but not yet
// confirmed by the service. Membership doubles as the dedup check: a
// redelivered handle is still pending, so its message was already
// emitted once and must not be emitted again.
//
// The set is unbounded on purpose. Capping it would mean either
// re-emitting duplicates or stalling pulls while the ack backend is
// down; instead the size is exported as a gauge and callers log when
// acks keep failing.
type AckTracker struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func NewAckTracker() *AckTracker {
	return &AckTracker{pending: make(map[string]struct{})}
}

// TrackIfNew records the handle and reports whether it was unseen.
// A false return means the message is a redelivery and must be dropped.
func (t *AckTracker) TrackIfNew(ackID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[ackID]; ok {
		return false
	}
	t.pending[ackID] = struct{}{}
	telemetry.PendingAcks.Set(float64(len(t.pending)))
	return true
}

// Snapshot returns the handles to include in the next ack call. The
// matching Resolve must be given this exact slice so that handles
// tracked after submission stay pending.
func (t *AckTracker) Snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) == 0 {
		return nil
	}
	ids := make([]string, 0, len(t.pending))
	for id := range t.pending {
		ids = append(ids, id)
	}
	return ids
}

// Resolve removes exactly the given handles after a successful ack.
func (t *AckTracker) Resolve(ids []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		delete(t.pending, id)
	}
	telemetry.PendingAcks.Set(float64(len(t.pending)))
}

// Len reports the number of unresolved handles.
func (t *AckTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
