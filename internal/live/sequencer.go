package live

import "sync"

// Ticket identifies one load of a key.
type Ticket struct {
	Key string
	Seq uint64
}

// Sequencer orders overlapping loads of the same key. Only the most recently
// begun load of a key may commit; an older load that finishes later is
// discarded.
type Sequencer struct {
	mu     sync.Mutex
	seq    uint64
	latest map[string]uint64
	stale  uint64
}

// NewSequencer creates an empty Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{latest: make(map[string]uint64)}
}

// Begin issues a ticket for key that supersedes every earlier one.
func (s *Sequencer) Begin(key string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.latest[key] = s.seq
	return Ticket{Key: key, Seq: s.seq}
}

// Commit runs apply if t is still the latest ticket for its key and reports
// whether it did. apply runs under the sequencer lock and must not call back
// into the Sequencer.
func (s *Sequencer) Commit(t Ticket, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest[t.Key] != t.Seq {
		s.stale++
		return false
	}
	if apply != nil {
		apply()
	}
	return true
}

// Current reports whether t is still the latest ticket for its key.
func (s *Sequencer) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[t.Key] == t.Seq
}

// Stale returns how many commits have been discarded.
func (s *Sequencer) Stale() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}
