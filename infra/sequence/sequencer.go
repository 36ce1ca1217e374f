package sequence

import "sync/atomic"

// Sequencer issues the engine's strictly monotonic sequence IDs.
// Every accepted command gets one; replay restores it from the WAL.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer that will issue start+1 first.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next sequence ID.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued sequence.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}

// Reset sets the sequencer after WAL replay. Not safe against
// concurrent Next callers; call it before serving traffic.
func (s *Sequencer) Reset(v uint64) {
	s.next.Store(v)
}
