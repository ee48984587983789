//go:build unix

package posio

import (
	"os"

	"golang.org/x/sys/unix"
)

// HintSequential advises the kernel that file will be accessed sequentially
// within each producer's chunk range, which on Linux lets readahead stay
// effective despite the access pattern being chunk-parallel rather than a
// single linear scan. Best-effort: errors are not fatal to the transfer.
func HintSequential(file *os.File) {
	_ = unix.Fadvise(int(file.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
