package pario

import (
	"io"

	"github.com/uv-rust/par-io/pkg/plog"
)

// Logger is the subset of structured-logging methods the producer/consumer
// goroutines call. *plog.Logger and *plog.FieldLogger both satisfy it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Option configures a ReadFile or WriteToFile call beyond Params.
type Option func(*options)

type options struct {
	logger   *plog.Logger
	progress *Pipeline
}

func newOptions(opts []Option) *options {
	o := &options{logger: plog.NewLogger(&plog.Config{Output: io.Discard})}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger attaches a structured logger. ReadFile/WriteToFile tag it with
// the call's RunID via WithFields once, up front, and use the resulting
// FieldLogger for every line the call emits, so every log line from one
// invocation can be correlated.
func WithLogger(l *plog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Pipeline is a handle to a running or finished call's live metrics. Create
// one with NewPipeline and pass it via WithProgress before calling
// ReadFile/WriteToFile; Stats is then safe to call concurrently with the
// call itself from another goroutine, which is what the CLI drivers use to
// print progress while a transfer is in flight.
type Pipeline struct {
	stats *stats
}

// NewPipeline returns an unattached progress handle. Stats returns the zero
// value until the call it was passed to via WithProgress has started.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Stats returns a point-in-time snapshot of the attached call's progress.
func (p *Pipeline) Stats() Stats {
	if p == nil || p.stats == nil {
		return Stats{}
	}
	return p.stats.snapshot()
}

// WithProgress attaches handle to a call so handle.Stats() reflects that
// call's live progress for as long as it runs.
func WithProgress(handle *Pipeline) Option {
	return func(o *options) { o.progress = handle }
}

// buildConsumerChannels allocates one work channel per consumer. Capacity 1
// lets a producer's dispatch return as soon as a consumer starts draining
// it, instead of stalling the producer for the full duration of the
// consumer's syscall or callback.
func buildConsumerChannels(numConsumers int) []chan workMsg {
	chans := make([]chan workMsg, numConsumers)
	for i := range chans {
		chans[i] = make(chan workMsg, 1)
	}
	return chans
}

// closeAll closes every consumer channel, the signal each consumer loop uses
// to stop after draining whatever is already buffered. Callers must only
// invoke this once every producer has stopped sending, which is why it
// always runs after a sync.WaitGroup covering the producer goroutines.
func closeAll(chans []chan workMsg) {
	for _, c := range chans {
		close(c)
	}
}
