package proctor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Deduplicator collapses duplicate proctoring events arriving within a
// short window per (attempt, event type) key. It is in-memory and
// per-process: in a multi-instance deployment each instance throttles
// independently, which is a known scaling limitation of the single-node
// design, not a correctness bug here.
type Deduplicator struct {
	mu         sync.Mutex
	lastSeen   map[dedupKey]time.Time
	window     time.Duration
	maxEntries int
	retention  time.Duration
	now        func() time.Time
}

type dedupKey struct {
	attemptID uuid.UUID
	eventType string
}

// NewDeduplicator creates a Deduplicator. window is the suppression
// span per key, maxEntries the map size that triggers garbage
// collection, retention how long stale keys survive a sweep.
func NewDeduplicator(window time.Duration, maxEntries int, retention time.Duration) *Deduplicator {
	return &Deduplicator{
		lastSeen:   make(map[dedupKey]time.Time),
		window:     window,
		maxEntries: maxEntries,
		retention:  retention,
		now:        time.Now,
	}
}

// Accept reports whether an event for (attemptID, eventType) should be
// processed. It returns false when the same key was accepted within the
// window. Accepted calls refresh the key's timestamp.
func (d *Deduplicator) Accept(attemptID uuid.UUID, eventType string) bool {
	key := dedupKey{attemptID: attemptID, eventType: eventType}
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.lastSeen[key]; ok && now.Sub(last) < d.window {
		return false
	}

	d.lastSeen[key] = now

	// Coarse, size-triggered sweep instead of per-entry timers.
	if len(d.lastSeen) > d.maxEntries {
		d.gc(now)
	}
	return true
}

// Len returns the current number of tracked keys.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.lastSeen)
}

// gc purges entries older than the retention horizon in a single sweep.
// Caller holds the lock.
func (d *Deduplicator) gc(now time.Time) {
	for key, last := range d.lastSeen {
		if now.Sub(last) > d.retention {
			delete(d.lastSeen, key)
		}
	}
}
