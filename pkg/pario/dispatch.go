package pario

// dispatcher picks the destination consumer channel for a producer's next
// chunk, cycling through the consumer set in rotation. Each producer owns
// its own dispatcher instance — the rotation state is never shared across
// producer goroutines, so no synchronization is needed here; "round-robin"
// is a per-producer property, not a global one (the spec leaves
// cross-producer interleaving unspecified).
type dispatcher struct {
	consumers []chan workMsg
	next      int
}

// newDispatcher builds a dispatcher that starts its rotation just past
// producerID, spreading the first chunk of each producer across a
// different consumer when there are at least as many consumers as
// producers.
func newDispatcher(consumers []chan workMsg, producerID int) *dispatcher {
	return &dispatcher{
		consumers: consumers,
		next:      (producerID + 1) % len(consumers),
	}
}

// pick returns the next consumer channel in rotation.
func (d *dispatcher) pick() chan workMsg {
	c := d.consumers[d.next]
	d.next = (d.next + 1) % len(d.consumers)
	return c
}
