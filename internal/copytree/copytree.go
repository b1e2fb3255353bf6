// Package copytree implements a configurable recursive directory-copy
// engine: filtered, depth-limited traversal with conflict and symlink
// policies, destination path-safety validation, and a batched copy stage
// that runs serially or across a bounded worker pool.
//
// Per-entry failures never abort a run; they accumulate in the Report.
// Only setup and validation problems fail the call itself.
package copytree

import (
	"errors"
	"os"
)

// CopyTree copies the directory tree at srcDir into dstDir according to
// opts. It returns a Report when the run completes, possibly with
// per-entry errors recorded inside, and an error only for setup failures:
// invalid depth configuration, invalid pattern syntax, source not a
// directory, source/destination overlap, or destination-root
// initialization failure.
func CopyTree(srcDir, dstDir string, opts Options) (*Report, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	// Patterns compile before any filesystem access so a malformed
	// pattern cannot leave a half-initialized destination behind.
	pats, err := compilePatterns(&opts)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(srcDir)
	if err != nil || !info.IsDir() {
		return nil, &SourceNotDirectoryError{Path: srcDir}
	}
	if isOverlap(srcDir, dstDir) {
		return nil, &OverlapError{Source: srcDir, Destination: dstDir}
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return nil, &DestinationInitError{Path: dstDir, Err: err}
	}
	dstInfo, err := os.Lstat(dstDir)
	if err != nil {
		return nil, &DestinationInitError{Path: dstDir, Err: err}
	}
	if dstInfo.Mode()&os.ModeSymlink != 0 {
		return nil, &DestinationInitError{Path: dstDir, Err: errors.New("destination root must not be a symbolic link")}
	}

	rc := &runContext{
		srcRoot: srcDir,
		dstRoot: dstDir,
		opts:    opts,
		pats:    pats,
		workers: workerLimit(opts.Workers),
		report:  &reportBuilder{},
		visited: make(map[devIno]struct{}),
	}

	rc.walk()
	rc.flushTasks()
	return rc.report.build(), nil
}
