// Command par-write creates a file of exactly P*K*buffer-size bytes in
// parallel, filling each chunk with a repeating byte pattern derived from
// its offset, mirroring the original example_parallel_write driver.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/uv-rust/par-io/pkg/config"
	"github.com/uv-rust/par-io/pkg/pario"
)

func main() {
	var (
		numProducers = flag.Int("producers", 4, "number of producer goroutines (P)")
		numConsumers = flag.Int("consumers", 4, "number of consumer goroutines (C)")
		chunksPerP   = flag.Int("chunks", 8, "chunks per producer (K)")
		buffersPerP  = flag.Int("buffers", 2, "buffers per producer (B)")
		bufferSize   = flag.Int64("buffer-size", 65536, "bytes per chunk")
		configPath   = flag.String("config", "", "optional JSON config file")
		watchConfig  = flag.Bool("watch-config", false, "log a line whenever -config is edited on disk (requires -config)")
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
		fmt.Fprintf(os.Stderr, "par-write: %v\n", err)
		os.Exit(1)
	}
	cfg.Params.NumProducers = *numProducers
	cfg.Params.NumConsumers = *numConsumers
	cfg.Params.ChunksPerProducer = *chunksPerP
	cfg.Params.BuffersPerProducer = *buffersPerP
	cfg.Params.BufferSize = *bufferSize
	if *verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := cfg.BuildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "par-write: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithComponent("par-write")

	if *watchConfig {
		if *configPath == "" {
			fmt.Fprintln(os.Stderr, "par-write: -watch-config requires -config")
			os.Exit(2)
		}
		watchCtx, cancelWatch := context.WithCancel(context.Background())
		defer cancelWatch()
		if err := config.Watch(watchCtx, *configPath, func(reloaded *config.Config, err error) {
			if err != nil {
				log.Errorf("config reload of %s failed: %v", *configPath, err)
				return
			}
			log.Infof("config %s reloaded: producers=%d consumers=%d (the -producers/-consumers flags, set or defaulted, override these on every run)",
				*configPath, reloaded.Params.NumProducers, reloaded.Params.NumConsumers)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "par-write: %v\n", err)
			os.Exit(1)
		}
	}

	callback := func(buf []byte, tag any, offset int64) error {
		pattern := byte((offset / cfg.Params.BufferSize) % 256)
		for i := range buf {
			buf[i] = pattern
		}
		log.Debugf("filled chunk at offset %d with pattern %d tag=%v", offset, pattern, tag)
		return nil
	}

	written, err := pario.WriteToFile(context.Background(), filename, cfg.Params, callback, "par-write", pario.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "par-write: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d bytes to %s\n", written, filename)
}
