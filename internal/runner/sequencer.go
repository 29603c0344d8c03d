package runner

// sequencer reorders worker completions back into dispatch order. Results may
// arrive in any order under concurrency; push buffers out-of-order ones and
// releases the longest possible consecutive prefix starting at the next
// unwritten index. Only the single writer goroutine touches it, so it needs
// no locking.
type sequencer struct {
	pending map[int]result
	next    int
}

func newSequencer(capacity int) *sequencer {
	return &sequencer{pending: make(map[int]result, capacity)}
}

func (s *sequencer) push(res result) []result {
	s.pending[res.index] = res
	var ready []result
	for {
		r, ok := s.pending[s.next]
		if !ok {
			return ready
		}
		delete(s.pending, s.next)
		s.next++
		ready = append(ready, r)
	}
}
