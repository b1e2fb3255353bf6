//go:build !linux

package platform

import (
	"fmt"
	"os"
)

// ApplyMetadata mirrors the source file's permissions and modification
// time onto the destination. Extended attributes are not carried over on
// platforms without a portable xattr interface.
func ApplyMetadata(srcPath string, dstFd *os.File) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if err := dstFd.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Chtimes(dstFd.Name(), info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("chtimes: %w", err)
	}
	return nil
}
