package pario

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempFile(t *testing.T, size int64) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "pario-read-*")
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.Truncate(size))
	return f.Name()
}

// S1 — single producer, single consumer, sum of lengths.
func TestReadFileSingleProducerConsumer(t *testing.T) {
	path := tempFile(t, 1024)
	params := Params{NumProducers: 1, NumConsumers: 1, ChunksPerProducer: 4, BuffersPerProducer: 2}

	callback := func(buf []byte, tag any, chunkID, numChunks int, offset int64) (int, error) {
		return len(buf), nil
	}

	results, err := ReadFile(context.Background(), path, params, callback, "S1")
	require.NoError(t, err)
	require.Len(t, results, 4)

	var sum int
	for _, r := range results {
		require.NoError(t, r.Err)
		sum += r.Value
	}
	require.Equal(t, 1024, sum)
}

// S2 — uneven tail: base chunk 166, last chunk 170.
func TestReadFileUnevenTail(t *testing.T) {
	path := tempFile(t, 1000)
	params := Params{NumProducers: 2, NumConsumers: 2, ChunksPerProducer: 3, BuffersPerProducer: 1}

	callback := func(buf []byte, tag any, chunkID, numChunks int, offset int64) (int, error) {
		return len(buf), nil
	}

	results, err := ReadFile(context.Background(), path, params, callback, "S2")
	require.NoError(t, err)
	require.Len(t, results, 6)

	var sizes []int
	for _, r := range results {
		require.NoError(t, r.Err)
		sizes = append(sizes, r.Value)
	}
	require.ElementsMatch(t, []int{166, 166, 166, 166, 166, 170}, sizes)
}

// S3 — write-then-read identity.
func TestWriteThenReadIdentity(t *testing.T) {
	path := tempFile(t, 0)
	params := Params{NumProducers: 4, NumConsumers: 2, ChunksPerProducer: 4, BuffersPerProducer: 2, BufferSize: 256}

	writeCB := func(buf []byte, tag any, offset int64) error {
		pattern := byte((offset / 256) % 256)
		for i := range buf {
			buf[i] = pattern
		}
		return nil
	}
	written, err := WriteToFile(context.Background(), path, params, writeCB, "S3")
	require.NoError(t, err)
	require.Equal(t, int64(4096), written)

	readCB := func(buf []byte, tag any, chunkID, numChunks int, offset int64) (bool, error) {
		want := byte((offset / 256) % 256)
		for _, b := range buf {
			if b != want {
				return false, nil
			}
		}
		return true, nil
	}
	results, err := ReadFile(context.Background(), path, params, readCB, "S3")
	require.NoError(t, err)
	require.Len(t, results, 16)
	for _, r := range results {
		require.NoError(t, r.Err)
		require.True(t, r.Value, "chunk at offset %d did not match write pattern", r.Offset)
	}
}

// S4 — producer error aborts writes.
func TestWriteToFileAbortsOnProducerError(t *testing.T) {
	path := tempFile(t, 0)
	params := Params{NumProducers: 2, NumConsumers: 2, ChunksPerProducer: 4, BuffersPerProducer: 2, BufferSize: 64}

	writeCB := func(buf []byte, tag any, offset int64) error {
		if offset == params.BufferSize {
			return errors.New("boom")
		}
		return nil
	}

	written, err := WriteToFile(context.Background(), path, params, writeCB, "S4")
	require.Error(t, err)
	require.Equal(t, int64(0), written)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	var prodErr *ProducerError
	require.ErrorAs(t, err, &prodErr)
	require.Equal(t, "boom", prodErr.Msg)
	require.Equal(t, params.BufferSize, prodErr.Offset)
}

// S5 — consumer-side read-callback errors are reported, not fatal.
func TestReadFileCallbackErrorsAreNotFatal(t *testing.T) {
	path := tempFile(t, 600)
	params := Params{NumProducers: 2, NumConsumers: 2, ChunksPerProducer: 3, BuffersPerProducer: 2}

	callback := func(buf []byte, tag any, chunkID, numChunks int, offset int64) (int, error) {
		if chunkID == 1 {
			return 0, errors.New("skip")
		}
		return len(buf), nil
	}

	results, err := ReadFile(context.Background(), path, params, callback, "S5")
	require.NoError(t, err)
	require.Len(t, results, 6)

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	require.Equal(t, 2, failed)
}

// S6 — B = 1 synchronous degeneration: with a single buffer per producer,
// the run still completes every chunk with no deadlock.
func TestReadFileSingleBufferDegeneration(t *testing.T) {
	path := tempFile(t, 800)
	params := Params{NumProducers: 1, NumConsumers: 1, ChunksPerProducer: 8, BuffersPerProducer: 1}

	callback := func(buf []byte, tag any, chunkID, numChunks int, offset int64) (int, error) {
		return len(buf), nil
	}

	results, err := ReadFile(context.Background(), path, params, callback, "S6")
	require.NoError(t, err)
	require.Len(t, results, 8)
}

// Invariant: buffer reuse. Over a run with K > B, only P*B distinct buffer
// identities should ever be observed.
func TestBufferReuseInvariant(t *testing.T) {
	path := tempFile(t, 4096)
	params := Params{NumProducers: 2, NumConsumers: 2, ChunksPerProducer: 8, BuffersPerProducer: 2}

	var mu sync.Mutex
	seen := make(map[*byte]bool)
	callback := func(buf []byte, tag any, chunkID, numChunks int, offset int64) (int, error) {
		if len(buf) == 0 {
			return 0, nil
		}
		mu.Lock()
		seen[&buf[0]] = true
		mu.Unlock()
		return len(buf), nil
	}

	_, err := ReadFile(context.Background(), path, params, callback, "reuse")
	require.NoError(t, err)
	require.LessOrEqual(t, len(seen), params.totalBuffers())
}
