package pario

import "sync/atomic"

// Stats is a point-in-time snapshot of a running or finished transfer,
// readable from Pipeline.Stats() while a call is in flight. Counters are
// updated with atomic operations the same way the teacher's worker pool
// tracks submitted/completed/failed task counts.
type Stats struct {
	ChunksDispatched int64
	ChunksCompleted  int64
	BytesMoved       int64
	BuffersInFlight  int64
}

// stats holds the atomic counters backing a Stats snapshot.
type stats struct {
	dispatched int64
	completed  int64
	bytes      int64
	inFlight   int64
}

func (s *stats) dispatch() {
	atomic.AddInt64(&s.dispatched, 1)
	atomic.AddInt64(&s.inFlight, 1)
}

func (s *stats) complete(n int64) {
	atomic.AddInt64(&s.completed, 1)
	atomic.AddInt64(&s.inFlight, -1)
	atomic.AddInt64(&s.bytes, n)
}

func (s *stats) snapshot() Stats {
	return Stats{
		ChunksDispatched: atomic.LoadInt64(&s.dispatched),
		ChunksCompleted:  atomic.LoadInt64(&s.completed),
		BytesMoved:       atomic.LoadInt64(&s.bytes),
		BuffersInFlight:  atomic.LoadInt64(&s.inFlight),
	}
}
