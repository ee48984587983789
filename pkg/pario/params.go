// Package pario implements a parallel, positional-I/O file transfer engine:
// a fixed pool of P*B byte buffers is recycled across producer and consumer
// goroutines, so a call allocates the same number of buffers however many
// chunks it moves. Each buffer holds one chunk; in read mode the chunk size
// is derived from the file length, so buffer memory there grows with the
// file size divided by ChunksPerProducer.
package pario

import "fmt"

// Params configures one ReadFile or WriteToFile invocation.
//
// The total buffer pool size for a call is NumProducers * BuffersPerProducer;
// this is constant for the lifetime of the call regardless of
// ChunksPerProducer.
type Params struct {
	// NumProducers is the number of producer goroutines (P).
	NumProducers int `json:"num_producers"`

	// NumConsumers is the number of consumer goroutines (C).
	NumConsumers int `json:"num_consumers"`

	// ChunksPerProducer is the number of chunks assigned to each producer (K).
	ChunksPerProducer int `json:"chunks_per_producer"`

	// BuffersPerProducer is the number of reusable buffers each producer
	// owns (B). Must satisfy 1 <= B <= ChunksPerProducer.
	BuffersPerProducer int `json:"buffers_per_producer"`

	// BufferSize is the fixed size, in bytes, of every chunk in write mode.
	// ReadFile ignores this field; the planner derives chunk sizes from the
	// file length instead.
	BufferSize int64 `json:"buffer_size"`
}

// Validate checks that p describes a well-formed pipeline, per the
// constraints in the planner's contract: P >= 1, C >= 1, K >= 1 and
// 1 <= B <= K.
func (p Params) Validate() error {
	if p.NumProducers < 1 {
		return fmt.Errorf("pario: num producers must be >= 1, got %d", p.NumProducers)
	}
	if p.NumConsumers < 1 {
		return fmt.Errorf("pario: num consumers must be >= 1, got %d", p.NumConsumers)
	}
	if p.ChunksPerProducer < 1 {
		return fmt.Errorf("pario: chunks per producer must be >= 1, got %d", p.ChunksPerProducer)
	}
	if p.BuffersPerProducer < 1 {
		return fmt.Errorf("pario: buffers per producer must be >= 1, got %d", p.BuffersPerProducer)
	}
	if p.BuffersPerProducer > p.ChunksPerProducer {
		return fmt.Errorf("pario: buffers per producer (%d) must not exceed chunks per producer (%d)",
			p.BuffersPerProducer, p.ChunksPerProducer)
	}
	return nil
}

// ValidateForWrite additionally requires a positive BufferSize, needed only
// for WriteToFile (ReadFile derives its chunk/buffer sizing from the file).
func (p Params) ValidateForWrite() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.BufferSize < 1 {
		return fmt.Errorf("pario: buffer size must be >= 1, got %d", p.BufferSize)
	}
	return nil
}

// totalBuffers returns P * B, the size of the fixed buffer pool for a call.
func (p Params) totalBuffers() int {
	return p.NumProducers * p.BuffersPerProducer
}

// totalChunks returns P * K, the number of chunks a call partitions the
// file into.
func (p Params) totalChunks() int {
	return p.NumProducers * p.ChunksPerProducer
}
