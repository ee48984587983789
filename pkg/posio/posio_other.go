//go:build !unix

package posio

import "os"

// HintSequential is a no-op on platforms without fadvise; os.File.ReadAt
// already goes through the platform's native positional I/O call.
func HintSequential(file *os.File) {}
