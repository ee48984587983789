package pario

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ProducerError is raised by a producer: a read-syscall failure in read mode,
// or the client producer callback returning an error in write mode. Offset
// is the byte offset of the chunk the producer was working on.
type ProducerError struct {
	Msg    string
	Offset int64
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("pario: producer error at offset %d: %s", e.Offset, e.Msg)
}

// ConsumerError is raised by a consumer: a write-syscall failure in write
// mode. Read-mode consumer (client callback) failures are not fatal; they
// are recorded per-chunk in the result slice instead (see ChunkResult).
type ConsumerError struct {
	Msg string
}

func (e *ConsumerError) Error() string {
	return fmt.Sprintf("pario: consumer error: %s", e.Msg)
}

// SetupError wraps a failure that occurred before the pipeline started:
// validating Params, opening the file, or reading its size.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("pario: setup error: %v", e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// OperationError wraps any error surfaced by ReadFile or WriteToFile with
// the RunID of the call that produced it, so logs and error messages from
// the same invocation can be correlated.
type OperationError struct {
	RunID uuid.UUID
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("pario: run %s: %v", e.RunID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// errPriority orders fatal errors so that, when a producer error and a
// consumer error are both observed for the same call, the producer error is
// the one surfaced (per the write-mode propagation policy).
type errPriority int

const (
	prioConsumer errPriority = iota + 1
	prioProducer
)

// errCombiner keeps the highest-priority fatal error observed across all
// producer and consumer goroutines. Ties (equal priority) keep whichever
// error arrived first.
type errCombiner struct {
	mu   sync.Mutex
	err  error
	prio errPriority
}

func newErrCombiner() *errCombiner {
	return &errCombiner{}
}

func (c *errCombiner) set(err error, prio errPriority) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil || prio > c.prio {
		c.err = err
		c.prio = prio
	}
}

func (c *errCombiner) get() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
