package auth

import "sync"

// sequencer admits operations one at a time in the order their tickets were taken.
type sequencer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
}

func newSequencer() *sequencer {
	s := &sequencer{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// ticket reserves the next slot. Every ticket must be passed to run exactly once.
func (s *sequencer) ticket() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.next
	s.next++
	return t
}

// run waits for ticket t, runs fn and admits the next ticket.
func (s *sequencer) run(t uint64, fn func()) {
	s.mu.Lock()
	for s.serving != t {
		s.cond.Wait()
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.serving++
		s.cond.Broadcast()
		s.mu.Unlock()
	}()
	fn()
}
