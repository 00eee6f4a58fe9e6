//go:build linux || darwin || freebsd

package storage

import (
	"math"

	"golang.org/x/sys/unix"
)

func freeSpace(path string) uint64 {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		// Unknown, let the write itself fail
		return math.MaxUint64
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize)
}
