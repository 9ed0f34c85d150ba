package chat

import "sync"

// Presence tracks per-room viewer counts. Counts are process-local
// approximations: they reset on restart and are never reconciled across
// instances.
type Presence struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewPresence returns an empty presence tracker
func NewPresence() *Presence {
	return &Presence{counts: make(map[string]int)}
}

// Increment records a join and returns the new count
func (p *Presence) Increment(roomID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[roomID]++
	return p.counts[roomID]
}

// Decrement records a leave, floored at zero, and returns the new count
func (p *Presence) Decrement(roomID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counts[roomID] > 0 {
		p.counts[roomID]--
	}
	if p.counts[roomID] == 0 {
		delete(p.counts, roomID)
		return 0
	}
	return p.counts[roomID]
}

// Current returns the count for a room, zero when unknown
func (p *Presence) Current(roomID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[roomID]
}

// Occupied returns a snapshot of all rooms with at least one viewer
func (p *Presence) Occupied() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot := make(map[string]int, len(p.counts))
	for room, count := range p.counts {
		snapshot[room] = count
	}
	return snapshot
}
