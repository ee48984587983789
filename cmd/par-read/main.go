// Command par-read reads a file in parallel, logs each chunk's length at
// debug level (-verbose) as it is consumed, prints progress counters to
// stderr while the read runs, and ends with a one-line summary, mirroring
// the original example_parallel_read driver.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/uv-rust/par-io/pkg/config"
	"github.com/uv-rust/par-io/pkg/pario"
)

func main() {
	var (
		numProducers = flag.Int("producers", 4, "number of producer goroutines (P)")
		numConsumers = flag.Int("consumers", 4, "number of consumer goroutines (C)")
		chunksPerP   = flag.Int("chunks", 8, "chunks per producer (K)")
		buffersPerP  = flag.Int("buffers", 2, "buffers per producer (B)")
		configPath   = flag.String("config", "", "optional JSON config file")
		verbose      = flag.Bool("verbose", false, "debug-level logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <filename>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	filename := flag.Arg(0)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "par-read: %v\n", err)
		os.Exit(1)
	}
	cfg.Params.NumProducers = *numProducers
	cfg.Params.NumConsumers = *numConsumers
	cfg.Params.ChunksPerProducer = *chunksPerP
	cfg.Params.BuffersPerProducer = *buffersPerP
	if *verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := cfg.BuildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "par-read: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithComponent("par-read")

	callback := func(buf []byte, tag any, chunkID, numChunks int, offset int64) (int, error) {
		log.Debugf("chunk %d/%d at offset %d: %d bytes tag=%v", chunkID, numChunks, offset, len(buf), tag)
		return len(buf), nil
	}

	progress := pario.NewPipeline()
	type outcome struct {
		results []pario.ChunkResult[int]
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		results, err := pario.ReadFile(context.Background(), filename, cfg.Params, callback, "par-read",
			pario.WithLogger(log), pario.WithProgress(progress))
		done <- outcome{results: results, err: err}
	}()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	var out outcome
poll:
	for {
		select {
		case out = <-done:
			break poll
		case <-ticker.C:
			st := progress.Stats()
			fmt.Fprintf(os.Stderr, "progress: dispatched=%d completed=%d bytes=%d buffers_in_flight=%d\n",
				st.ChunksDispatched, st.ChunksCompleted, st.BytesMoved, st.BuffersInFlight)
		}
	}

	results, err := out.results, out.err
	if err != nil {
		fmt.Fprintf(os.Stderr, "par-read: %v\n", err)
		os.Exit(1)
	}

	var total int64
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		total += int64(r.Value)
	}
	fmt.Printf("read %d chunks, %d bytes, %d callback failures\n", len(results), total, failed)
}
