package session

import "sync"

// Tracker enforces last-fetch-wins per session: each fetch takes a generation from
// Begin and applies its result only while that generation is still the latest.
// Generations are unique across sessions, so an entry can be dropped once its
// latest fetch is Done without a later Begin reusing an in-flight generation.
type Tracker struct {
	mu   sync.Mutex
	next uint64
	gens map[string]uint64
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{gens: make(map[string]uint64)}
}

// Begin starts a fetch for id and returns its generation.
func (t *Tracker) Begin(id string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.gens[id] = t.next
	return t.next
}

// Current reports whether gen is still the latest fetch for id.
func (t *Tracker) Current(id string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gens[id] == gen
}

// Done ends the fetch gen. The session's entry is released when gen is its latest.
func (t *Tracker) Done(id string, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gens[id] == gen {
		delete(t.gens, id)
	}
}

// Len reports how many sessions have a fetch in flight.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.gens)
}
