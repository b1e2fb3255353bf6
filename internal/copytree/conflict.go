package copytree

import (
	"errors"
	"io/fs"
	"os"
)

// skipDirConflict applies the directory conflict policy for an existing
// destination. It returns true when the caller must stop processing the
// entry; counters and errors have been recorded already.
func (rc *runContext) skipDirConflict(dstPath string) bool {
	info, err := os.Stat(dstPath)
	if err != nil {
		// Not existing (or a dangling symlink): no conflict.
		return false
	}
	if !info.IsDir() {
		rc.report.errorf(dstPath, "destination is a file, expected directory: %s", dstPath)
		return true
	}

	switch rc.opts.DirConflict {
	case DirSkip:
		rc.report.addSkipped()
		return true
	case DirError:
		rc.report.errorf(dstPath, "destination exists: %s", dstPath)
		return true
	default: // DirMerge reuses the existing directory.
		return false
	}
}

// skipFileConflict is the file-side counterpart of skipDirConflict.
func (rc *runContext) skipFileConflict(dstPath string) bool {
	info, err := os.Stat(dstPath)
	if err != nil {
		return false
	}
	if info.IsDir() {
		rc.report.errorf(dstPath, "destination is a directory: %s", dstPath)
		return true
	}

	switch rc.opts.FileConflict {
	case FileSkip:
		rc.report.addSkipped()
		return true
	case FileError:
		rc.report.errorf(dstPath, "destination exists: %s", dstPath)
		return true
	default: // FileOverwrite lets the copy replace the destination.
		return false
	}
}

// isBrokenSymlink reports whether the link target does not resolve.
func isBrokenSymlink(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}
