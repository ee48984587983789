// Package diag provides opt-in diagnostic helpers for triaging a failed
// par-io call after the fact. Nothing here sits on the hot path of
// ReadFile or WriteToFile.
package diag

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Probe runs every task to completion concurrently, regardless of whether
// an earlier one fails, and returns every observed error combined with
// multierror.Append. This is the opposite of the hot path's errgroup, which
// cancels siblings after the first error and reports only that one —
// Probe exists for triaging a batch of independent checks (e.g. verifying
// several output files after a run) where knowing what every task saw
// matters more than reproducing the production error-precedence contract.
// It takes plain func(context.Context) error tasks, not pario's unexported
// producer/consumer bodies — wrap whatever needs probing in a closure.
func Probe(ctx context.Context, tasks ...func(context.Context) error) error {
	var (
		mu     sync.Mutex
		result *multierror.Error
		wg     sync.WaitGroup
	)
	wg.Add(len(tasks))
	for _, task := range tasks {
		task := task
		go func() {
			defer wg.Done()
			if err := task(ctx); err != nil {
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if result == nil {
		return nil
	}
	return result.ErrorOrNil()
}
