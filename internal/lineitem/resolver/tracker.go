package resolver

import "sync"

// Ticket identifies one in-flight resolution of a row.
type Ticket struct {
	RowID          string
	MaterialNumber string
	seq            uint64
}

// Tracker discards resolutions superseded by a newer edit of the same row.
// Sequence numbers are global, so a ticket issued before a row was forgotten
// never becomes current again, even if the row id is reused.
type Tracker struct {
	mu   sync.Mutex
	next uint64
	seqs map[string]uint64
}

func NewTracker() *Tracker {
	return &Tracker{seqs: make(map[string]uint64)}
}

// Begin starts a resolution for rowID and supersedes any earlier one.
func (t *Tracker) Begin(rowID, materialNumber string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	t.seqs[rowID] = t.next
	return Ticket{RowID: rowID, MaterialNumber: materialNumber, seq: t.next}
}

// Current reports whether ticket is still the latest for its row.
func (t *Tracker) Current(ticket Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	seq, ok := t.seqs[ticket.RowID]
	return ok && seq == ticket.seq
}

// Forget drops a removed row so any pending resolution for it becomes stale.
func (t *Tracker) Forget(rowID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.seqs, rowID)
}
