package copytree

import (
	"io/fs"
	"os"
	"path/filepath"
)

// devIno identifies a directory inode for symlink-loop detection.
type devIno struct {
	dev uint64
	ino uint64
}

type dirEntry struct {
	path    string
	name    string
	symlink bool
}

type fileEntry struct {
	path    string
	name    string
	symlink bool
}

// copyTask is one planned file copy, created only after filtering, depth,
// symlink and conflict decisions all approved the file.
type copyTask struct {
	src string
	dst string
}

// runContext carries the mutable state of one run through the traversal:
// compiled patterns, the report builder, the visited-directory set and the
// planned task queue. It is owned by a single goroutine until the copy
// stage hands disjoint tasks to workers.
type runContext struct {
	srcRoot string
	dstRoot string
	opts    Options
	pats    *compiledPatterns
	workers int
	report  *reportBuilder
	visited map[devIno]struct{}
	tasks   []copyTask
}

type walkItem struct {
	path  string
	depth int
}

// walk traverses the source tree depth-first using an explicit work stack,
// so pathologically deep trees cannot exhaust the call stack. Entries in a
// directory are processed in sorted name order, directories before files,
// which keeps the report and the destination tree deterministic across
// runs.
func (rc *runContext) walk() {
	stack := []walkItem{{path: rc.srcRoot, depth: 0}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		descend := rc.walkDir(item.path, item.depth)
		// Push in reverse so subtrees pop in sorted order.
		for i := len(descend) - 1; i >= 0; i-- {
			stack = append(stack, walkItem{path: descend[i], depth: item.depth + 1})
		}
	}
}

// walkDir processes one source directory whose entries sit at the given
// depth and returns the subdirectories to descend into.
func (rc *runContext) walkDir(dir string, depth int) []string {
	if rc.opts.Symlinks == SymlinkDereference {
		info, err := os.Stat(dir)
		if err != nil {
			rc.report.warnf("stat directory %s: %v", dir, err)
			return nil
		}
		if id, ok := fileIdentity(info); ok {
			if _, seen := rc.visited[id]; seen {
				rc.report.warnf("symlink loop detected: %s", dir)
				return nil
			}
			rc.visited[id] = struct{}{}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		rc.report.warnf("read directory %s: %v", dir, err)
		return nil
	}

	// os.ReadDir returns entries sorted by name, so the split dir and
	// file lists stay name-sorted as well.
	var dirs []dirEntry
	var files []fileEntry
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		mode := entry.Type()
		symlink := mode&fs.ModeSymlink != 0

		switch {
		case entry.IsDir() || (symlink && targetIsDir(path)):
			dirs = append(dirs, dirEntry{path: path, name: entry.Name(), symlink: symlink})
		case mode.IsRegular() || symlink:
			files = append(files, fileEntry{path: path, name: entry.Name(), symlink: symlink})
		default:
			rc.report.warnf("special file skipped: %s", path)
		}
	}

	if rc.pats.includeDirs != nil || rc.pats.excludeDirs != nil {
		kept := dirs[:0]
		for _, d := range dirs {
			if !shouldExclude(d.name, rc.pats.includeDirs, rc.pats.excludeDirs) {
				kept = append(kept, d)
			}
		}
		dirs = kept
	}

	// Entries below a subdirectory sit at depth+1; once that exceeds the
	// limit nothing further down can be collected, so descent stops here.
	canDescend := rc.opts.DepthLimit == nil || depth+1 <= *rc.opts.DepthLimit

	var next []string
	for _, d := range dirs {
		if rc.handleDirEntry(d, depth) && canDescend {
			next = append(next, d.path)
		}
	}
	for _, f := range files {
		rc.handleFileEntry(f, depth)
	}
	return next
}

func targetIsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// handleDirEntry applies symlink policy, depth accounting and conflict
// resolution to one directory-like entry. It returns whether the walker
// should descend into the entry; a directory outside depth or keep-tree
// accounting can still be descended through transparently in flatten mode.
func (rc *runContext) handleDirEntry(d dirEntry, depth int) bool {
	within := depthWithin(depth, &rc.opts)
	keepTree := rc.opts.keepTree()

	if d.symlink {
		if rc.opts.Symlinks == SymlinkSkip {
			if keepTree && within {
				rc.report.addScanned()
				rc.report.addMatched()
				rc.report.addSkipped()
			}
			return false
		}

		if rc.opts.Symlinks == SymlinkDereference && isBrokenSymlink(d.path) {
			rc.report.errorf(d.path, "broken symlink: %s", d.path)
			if keepTree && within {
				rc.report.addScanned()
				rc.report.addMatched()
			}
			return false
		}

		if rc.opts.Symlinks == SymlinkCopy {
			if !within {
				return false
			}
			rc.report.addScanned()
			rc.report.addMatched()

			if keepTree {
				dst := deriveDestPath(d.path, d.name, rc.srcRoot, rc.dstRoot, true)
				if rc.unsafeDest(dst) {
					return false
				}
				if rc.skipDirConflict(dst) {
					return false
				}
				// A recreated link cannot be merged into: its target is
				// not ours to write under.
				if rc.opts.DirConflict == DirMerge {
					rc.report.warnf("merge not applicable to symlink: %s", dst)
					rc.report.addSkipped()
					return false
				}
				if rc.opts.DryRun {
					rc.report.addSkipped()
					return false
				}
				rc.createSymlink(d.path, dst)
				return false
			}

			// Flatten mode treats the copied link as a leaf item at the
			// destination root, under the file conflict policy.
			dst := filepath.Join(rc.dstRoot, d.name)
			if rc.unsafeDest(dst) {
				return false
			}
			if rc.skipFileConflict(dst) {
				return false
			}
			if rc.opts.DryRun {
				rc.report.addSkipped()
				return false
			}
			rc.createSymlink(d.path, dst)
			return false
		}
	}

	if keepTree && within {
		rc.report.addScanned()
		rc.report.addMatched()

		dst := deriveDestPath(d.path, d.name, rc.srcRoot, rc.dstRoot, true)
		if rc.unsafeDest(dst) {
			return false
		}
		if rc.skipDirConflict(dst) {
			return false
		}
		if rc.opts.DryRun {
			rc.report.addSkipped()
		} else if err := os.MkdirAll(dst, 0o755); err != nil {
			rc.report.errorf(dst, "create directory: %v", err)
			return false
		} else {
			rc.report.addCopied()
		}
	}

	return true
}

// handleFileEntry filters, resolves and either materializes (symlinks) or
// plans (regular files) one file-like entry. Files beyond the depth limit
// are dropped silently, without any counting.
func (rc *runContext) handleFileEntry(f fileEntry, depth int) {
	if !depthWithin(depth, &rc.opts) {
		return
	}

	rc.report.addScanned()
	if shouldExclude(f.name, rc.pats.includeFiles, rc.pats.excludeFiles) {
		return
	}
	rc.report.addMatched()

	if f.symlink {
		if rc.opts.Symlinks == SymlinkSkip {
			rc.report.addSkipped()
			return
		}
		if rc.opts.Symlinks == SymlinkDereference && isBrokenSymlink(f.path) {
			rc.report.errorf(f.path, "broken symlink: %s", f.path)
			return
		}
	}

	if !f.symlink {
		info, err := os.Lstat(f.path)
		if err != nil {
			rc.report.errorf(f.path, "inspect file: %v", err)
			return
		}
		if !info.Mode().IsRegular() {
			rc.report.warnf("special file skipped: %s", f.path)
			rc.report.addSkipped()
			return
		}
		// Hard links are copied as independent byte streams, which a
		// caller expecting linked inodes may not want.
		if nlink, ok := linkCount(info); ok && nlink > 1 {
			rc.report.warnf("hard link detected: %s", f.path)
		}
	} else if rc.opts.Symlinks == SymlinkDereference {
		info, err := os.Stat(f.path)
		if err != nil {
			rc.report.errorf(f.path, "inspect file: %v", err)
			return
		}
		if !info.Mode().IsRegular() {
			rc.report.warnf("special file target skipped: %s", f.path)
			rc.report.addSkipped()
			return
		}
	}

	dst := deriveDestPath(f.path, f.name, rc.srcRoot, rc.dstRoot, rc.opts.keepTree())
	if rc.unsafeDest(dst) {
		return
	}

	if rc.opts.keepTree() {
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			rc.report.errorf(dst, "create parent directory: %v", err)
			return
		}
	}

	if rc.skipFileConflict(dst) {
		return
	}
	if rc.opts.DryRun {
		rc.report.addSkipped()
		return
	}

	if f.symlink && rc.opts.Symlinks == SymlinkCopy {
		// Recreating a link is cheap; no point batching it.
		rc.createSymlink(f.path, dst)
		return
	}

	rc.tasks = append(rc.tasks, copyTask{src: f.path, dst: dst})
}

func (rc *runContext) unsafeDest(dst string) bool {
	if err := validateDestPath(dst, rc.dstRoot); err != nil {
		rc.report.errorf(dst, "%v", err)
		return true
	}
	return false
}

// createSymlink materializes a new link at dst pointing at the same target
// as the source link.
func (rc *runContext) createSymlink(src, dst string) {
	target, err := os.Readlink(src)
	if err != nil {
		rc.report.errorf(dst, "read link %s: %v", src, err)
		return
	}
	if err := os.Symlink(target, dst); err != nil {
		rc.report.errorf(dst, "create symlink: %v", err)
		return
	}
	rc.report.addCopied()
}
