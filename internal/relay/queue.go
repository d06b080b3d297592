package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// QueueEntry is one captured scan on the scanner endpoint. Sent flips to true
// only once a broadcast has been acknowledged; until then the entry stays
// queued, however long the link is down.
type QueueEntry struct {
	ID         string
	Barcode    string
	CapturedAt time.Time
	Sent       bool
}

// OutboundQueue holds every scan the scanner endpoint has captured, in
// capture order. Entries are never dropped implicitly: they leave the queue
// only through Clear.
type OutboundQueue struct {
	mu      sync.Mutex
	entries []QueueEntry
}

// NewOutboundQueue creates an empty queue
func NewOutboundQueue() *OutboundQueue {
	return &OutboundQueue{}
}

// Add appends a newly captured scan and returns its entry ID
func (q *OutboundQueue) Add(barcode string, capturedAt time.Time) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry := QueueEntry{
		ID:         uuid.New().String(),
		Barcode:    barcode,
		CapturedAt: capturedAt,
	}
	q.entries = append(q.entries, entry)
	return entry.ID
}

// MarkSent flags the entry as broadcast. Marking an already-sent or unknown
// entry is a no-op, so a double acknowledgement cannot corrupt the queue.
func (q *OutboundQueue) MarkSent(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.entries {
		if q.entries[i].ID == id {
			q.entries[i].Sent = true
			return
		}
	}
}

// Pending returns the unsent entries in capture order
func (q *OutboundQueue) Pending() []QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	var pending []QueueEntry
	for _, entry := range q.entries {
		if !entry.Sent {
			pending = append(pending, entry)
		}
	}
	return pending
}

// Entries returns a snapshot of the full history, sent and unsent
func (q *OutboundQueue) Entries() []QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := make([]QueueEntry, len(q.entries))
	copy(snapshot, q.entries)
	return snapshot
}

// PendingCount returns the number of unsent entries
func (q *OutboundQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, entry := range q.entries {
		if !entry.Sent {
			count++
		}
	}
	return count
}

// Clear discards the whole history. This is the operator's explicit action,
// the only path that removes unsent scans.
func (q *OutboundQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
}
