//go:build linux

package media

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints the kernel that the file is read front to back.
// Failures are ignored; the hint only affects readahead.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
