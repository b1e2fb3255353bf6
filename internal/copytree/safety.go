package copytree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// absolutize returns a cleaned absolute form of path without resolving
// symlinks.
func absolutize(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Join(wd, path)
}

// normalizePath resolves symlinks and relative segments where possible;
// paths that do not exist yet are only absolutized.
func normalizePath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		if abs, err := filepath.Abs(resolved); err == nil {
			return abs
		}
	}
	return absolutize(path)
}

// isWithin reports whether path equals base or sits underneath it. Both
// arguments must already be absolute and clean.
func isWithin(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// isOverlap reports whether one of the two directories contains the other
// after resolving symlinks and relative segments.
func isOverlap(src, dst string) bool {
	srcResolved := normalizePath(src)
	dstResolved := normalizePath(dst)
	return isWithin(dstResolved, srcResolved) || isWithin(srcResolved, dstResolved)
}

// validateDestPath proves that a candidate destination path stays under
// the destination root and does not pass through or land on an existing
// symbolic link. It is called when an entry is planned and again when its
// copy task executes, so a symlink swapped into the destination tree in
// between still cannot redirect writes outside the root.
func validateDestPath(path, root string) error {
	rootAbs := absolutize(root)
	pathAbs := absolutize(path)

	if !isWithin(pathAbs, rootAbs) {
		return fmt.Errorf("unsafe destination path escapes destination root: %s (root=%s)", path, root)
	}

	parent := filepath.Dir(pathAbs)
	if !isWithin(parent, rootAbs) {
		return fmt.Errorf("unsafe destination parent escapes destination root: %s (root=%s)", path, root)
	}

	rel, err := filepath.Rel(rootAbs, parent)
	if err != nil {
		return fmt.Errorf("unsafe destination parent escapes destination root: %s (root=%s)", path, root)
	}
	if rel != "." {
		cursor := rootAbs
		for part := range strings.SplitSeq(rel, string(filepath.Separator)) {
			cursor = filepath.Join(cursor, part)
			info, err := os.Lstat(cursor)
			switch {
			case err == nil:
				if info.Mode()&os.ModeSymlink != 0 {
					return fmt.Errorf("unsafe destination path traverses symlink component: %s", cursor)
				}
			case !errors.Is(err, fs.ErrNotExist):
				return fmt.Errorf("inspect destination path component %s: %v", cursor, err)
			}
		}
	}

	info, err := os.Lstat(pathAbs)
	switch {
	case err == nil:
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("unsafe destination path is an existing symlink: %s", path)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("inspect destination path %s: %v", path, err)
	}

	return nil
}

// deriveDestPath maps a source entry to its destination path: the mirrored
// relative path in keep-tree mode, or root + base name when flattening.
func deriveDestPath(srcPath, name, srcRoot, dstRoot string, keepTree bool) string {
	if keepTree {
		if rel, err := filepath.Rel(srcRoot, srcPath); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.Join(dstRoot, rel)
		}
		return filepath.Join(dstRoot, name)
	}
	return filepath.Join(dstRoot, name)
}
