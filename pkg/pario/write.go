package pario

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/uv-rust/par-io/pkg/posio"
)

// WriteCallback fills buf in place for the chunk at offset and must not
// reallocate it. buf is passed by value as a slice of a pooled buffer, and
// the consumer writes that pooled buffer's contents: assigning a new slice
// to buf inside the callback has no effect on what reaches the file.
type WriteCallback func(buf []byte, tag any, offset int64) error

// writeProducer invokes the client callback to fill each of its chunks,
// then hands the filled buffer to a consumer for the actual write syscall.
type writeProducer struct {
	id     int
	chunks []Chunk
	free   chan *bufSlot
	disp   *dispatcher
	stats  *stats
	errs   *errCombiner
	cb     WriteCallback
	tag    any
	log    Logger
}

func (p *writeProducer) run(ctx context.Context) error {
	for _, chunk := range p.chunks {
		var buf *bufSlot
		select {
		case <-ctx.Done():
			return nil
		case buf = <-p.free:
		}

		slice := buf.data[:chunk.Size]
		if err := p.cb(slice, p.tag, chunk.Offset); err != nil {
			wrapped := &ProducerError{Msg: err.Error(), Offset: chunk.Offset}
			p.errs.set(wrapped, prioProducer)
			p.log.Errorf("producer %d: callback at offset %d failed: %v", p.id, chunk.Offset, err)
			p.free <- buf
			return wrapped
		}

		msg := workMsg{chunk: chunk, buf: buf, numChunks: len(p.chunks), returnTo: p.free}
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

// writeConsumer drains its assigned channel, writing each buffer to file at
// its chunk offset and returning the buffer to its producer afterward.
type writeConsumer struct {
	ch    chan workMsg
	file  *os.File
	stats *stats
	errs  *errCombiner
	total *int64
}

func (c *writeConsumer) run(ctx context.Context) error {
	for {
		select {
		case msg, ok := <-c.ch:
			if !ok {
				return nil
			}
			if err := c.handle(msg); err != nil {
				return err
			}
		case <-ctx.Done():
			return c.drain()
		}
	}
}

func (c *writeConsumer) drain() error {
	for {
		select {
		case msg, ok := <-c.ch:
			if !ok {
				return nil
			}
			if err := c.handle(msg); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (c *writeConsumer) handle(msg workMsg) error {
	defer func() { msg.returnTo <- msg.buf }()
	_, err := posio.WriteAt(c.file, msg.buf.data[:msg.chunk.Size], msg.chunk.Offset)
	if err != nil {
		wrapped := &ConsumerError{Msg: err.Error()}
		c.errs.set(wrapped, prioConsumer)
		return wrapped
	}
	atomic.AddInt64(c.total, msg.chunk.Size)
	c.stats.complete(msg.chunk.Size)
	return nil
}

// WriteToFile creates filename (truncating any existing content to zero
// length) and writes P*ChunksPerProducer*BufferSize bytes to it, filling
// every chunk via callback from a producer and writing it via a consumer,
// using a pool of P*B recycled buffers. The file is not pre-extended; it
// grows as chunks are written. On success it returns the total bytes
// written, which equals the file's final size. If callback or a write
// syscall fails, or ctx is cancelled, the transfer aborts, the file contains
// at most the chunks that completed before the abort, and a zero byte count
// is returned alongside the error.
func WriteToFile(ctx context.Context, filename string, p Params, callback WriteCallback, tag any, opts ...Option) (int64, error) {
	runID := uuid.New()
	o := newOptions(opts)

	if err := p.ValidateForWrite(); err != nil {
		return 0, &OperationError{RunID: runID, Err: &SetupError{Err: err}}
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, &OperationError{RunID: runID, Err: &SetupError{Err: fmt.Errorf("open %s: %w", filename, err)}}
	}
	defer file.Close()

	posio.HintSequential(file)

	fileLen := int64(p.totalChunks()) * p.BufferSize
	plans := planChunks(fileLen, p.NumProducers, p.ChunksPerProducer)
	st := &stats{}
	if o.progress != nil {
		o.progress.stats = st
	}
	errs := newErrCombiner()
	log := o.logger.WithFields(map[string]interface{}{"run_id": runID.String()})
	var totalWritten int64

	consumerChans := buildConsumerChannels(p.NumConsumers)
	consumers := make([]*writeConsumer, p.NumConsumers)
	for i := range consumers {
		consumers[i] = &writeConsumer{ch: consumerChans[i], file: file, stats: st, errs: errs, total: &totalWritten}
	}

	g, gctx := errgroup.WithContext(ctx)
	var producerWG sync.WaitGroup
	producerWG.Add(p.NumProducers)

	log.Infof("starting write of %s (%d bytes, producers=%d consumers=%d)", filename, fileLen, p.NumProducers, p.NumConsumers)

	for i := 0; i < p.NumProducers; i++ {
		prod := &writeProducer{
			id:     i,
			chunks: plans[i],
			free:   newBufferPool(p.BuffersPerProducer, p.BufferSize),
			disp:   newDispatcher(consumerChans, i),
			stats:  st,
			errs:   errs,
			cb:     callback,
			tag:    tag,
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
			return c.run(gctx)
		})
	}

	_ = g.Wait()

	if err := errs.get(); err != nil {
		log.Errorf("aborted: %v", err)
		return 0, &OperationError{RunID: runID, Err: err}
	}
	if err := ctx.Err(); err != nil {
		log.Errorf("cancelled: %v", err)
		return 0, &OperationError{RunID: runID, Err: err}
	}

	log.Infof("write complete, %d bytes", totalWritten)
	return totalWritten, nil
}
