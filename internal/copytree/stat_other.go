//go:build !linux

package copytree

import "os"

// fileIdentity is unavailable here; symlink-loop detection degrades to a
// no-op rather than failing the run.
func fileIdentity(os.FileInfo) (devIno, bool) {
	return devIno{}, false
}

// linkCount is unavailable here; the hard-link warning is Linux-only.
func linkCount(os.FileInfo) (uint64, bool) {
	return 0, false
}
