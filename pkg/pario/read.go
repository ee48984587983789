package pario

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/uv-rust/par-io/pkg/posio"
)

// ReadCallback is invoked once per chunk, by whichever consumer dequeues it,
// with the chunk's bytes, the caller's tag, the chunk's id, the number of
// chunks per producer, and the chunk's byte offset in the file. A non-nil
// error is recorded against that chunk rather than aborting the transfer.
type ReadCallback[T any] func(buf []byte, tag any, chunkID, numChunks int, offset int64) (T, error)

// readProducer owns one file range's worth of chunks and a pool of B
// buffers sized to the largest chunk it was assigned.
type readProducer struct {
	id     int
	file   *os.File
	chunks []Chunk
	free   chan *bufSlot
	disp   *dispatcher
	stats  *stats
	errs   *errCombiner
	log    Logger
}

func (p *readProducer) run(ctx context.Context) error {
	for _, chunk := range p.chunks {
		var buf *bufSlot
		select {
		case <-ctx.Done():
			return nil
		case buf = <-p.free:
		}

		_, err := posio.ReadAt(p.file, buf.data[:chunk.Size], chunk.Offset)
		if err != nil {
			wrapped := &ProducerError{Msg: err.Error(), Offset: chunk.Offset}
			p.errs.set(wrapped, prioProducer)
			p.log.Errorf("producer %d: read at offset %d failed: %v", p.id, chunk.Offset, err)
			return wrapped
		}

		msg := workMsg{
			chunk:     chunk,
			buf:       buf,
			numChunks: len(p.chunks),
			returnTo:  p.free,
		}
		dest := p.disp.pick()
		select {
		case dest <- msg:
			p.stats.dispatch()
		case <-ctx.Done():
			p.free <- buf
			return nil
		}
	}
	return nil
}

// readConsumer drains its assigned channel, invoking callback on each
// chunk's bytes and accumulating results locally before returning the
// buffer to its producer.
type readConsumer[T any] struct {
	ch       chan workMsg
	callback ReadCallback[T]
	tag      any
	stats    *stats
	results  []ChunkResult[T]
}

func (c *readConsumer[T]) run(ctx context.Context) {
	for {
		select {
		case msg, ok := <-c.ch:
			if !ok {
				return
			}
			c.handle(msg)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

// drain processes whatever is already buffered on the channel before
// exiting, so chunks a consumer already accepted still complete per the
// cancellation contract, then stops at the first empty read.
func (c *readConsumer[T]) drain() {
	for {
		select {
		case msg, ok := <-c.ch:
			if !ok {
				return
			}
			c.handle(msg)
		default:
			return
		}
	}
}

func (c *readConsumer[T]) handle(msg workMsg) {
	value, err := c.callback(msg.buf.data[:msg.chunk.Size], c.tag, msg.chunk.ChunkID, msg.numChunks, msg.chunk.Offset)
	c.results = append(c.results, ChunkResult[T]{
		ChunkID:    msg.chunk.ChunkID,
		ProducerID: msg.chunk.ProducerID,
		Offset:     msg.chunk.Offset,
		Value:      value,
		Err:        err,
	})
	c.stats.complete(msg.chunk.Size)
	msg.returnTo <- msg.buf
}

// ReadFile partitions filename into P*K chunks, reads each with a pool of
// P*B recycled buffers, and invokes callback once per chunk from whichever
// consumer dequeues it. The returned slice has exactly P*K entries, one per
// chunk, in no guaranteed order; callback failures are recorded per-entry
// and do not abort the transfer — only a producer-side read failure or
// cancellation of ctx does, and then an error is returned instead.
func ReadFile[T any](ctx context.Context, filename string, p Params, callback ReadCallback[T], tag any, opts ...Option) ([]ChunkResult[T], error) {
	runID := uuid.New()
	o := newOptions(opts)

	if err := p.Validate(); err != nil {
		return nil, &OperationError{RunID: runID, Err: &SetupError{Err: err}}
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, &OperationError{RunID: runID, Err: &SetupError{Err: fmt.Errorf("open %s: %w", filename, err)}}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, &OperationError{RunID: runID, Err: &SetupError{Err: fmt.Errorf("stat %s: %w", filename, err)}}
	}

	posio.HintSequential(file)

	plans := planChunks(info.Size(), p.NumProducers, p.ChunksPerProducer)
	st := &stats{}
	if o.progress != nil {
		o.progress.stats = st
	}
	errs := newErrCombiner()
	log := o.logger.WithFields(map[string]interface{}{"run_id": runID.String()})

	consumerChans := buildConsumerChannels(p.NumConsumers)
	consumers := make([]*readConsumer[T], p.NumConsumers)
	for i := range consumers {
		consumers[i] = &readConsumer[T]{ch: consumerChans[i], callback: callback, tag: tag, stats: st}
	}

	g, gctx := errgroup.WithContext(ctx)
	var producerWG sync.WaitGroup
	producerWG.Add(p.NumProducers)

	log.Infof("starting read of %s (producers=%d consumers=%d chunks/producer=%d)", filename, p.NumProducers, p.NumConsumers, p.ChunksPerProducer)

	for i := 0; i < p.NumProducers; i++ {
		chunks := plans[i]
		prod := &readProducer{
			id:     i,
			file:   file,
			chunks: chunks,
			free:   newBufferPool(p.BuffersPerProducer, maxChunkSize(chunks)),
			disp:   newDispatcher(consumerChans, i),
			stats:  st,
			errs:   errs,
			log:    log,
		}
		g.Go(func() error {
			defer producerWG.Done()
			return prod.run(gctx)
		})
	}

	g.Go(func() error {
		producerWG.Wait()
		closeAll(consumerChans)
		return nil
	})

	for _, c := range consumers {
		c := c
		g.Go(func() error {
			c.run(gctx)
			return nil
		})
	}

	_ = g.Wait()

	if err := errs.get(); err != nil {
		log.Errorf("aborted: %v", err)
		return nil, &OperationError{RunID: runID, Err: err}
	}
	if err := ctx.Err(); err != nil {
		log.Errorf("cancelled: %v", err)
		return nil, &OperationError{RunID: runID, Err: err}
	}

	var results []ChunkResult[T]
	for _, c := range consumers {
		results = append(results, c.results...)
	}
	log.Infof("read complete, %d chunks", len(results))
	return results, nil
}
