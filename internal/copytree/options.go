package copytree

import (
	"fmt"
	"runtime"
)

// PatternMode selects how include/exclude patterns are interpreted.
type PatternMode int

const (
	// PatternGlob interprets patterns as shell-style wildcards with
	// character classes, matched against the whole base name.
	PatternGlob PatternMode = iota
	// PatternRegex interprets patterns as regular expressions searched
	// (unanchored) against the base name.
	PatternRegex
	// PatternLiteral matches by substring containment. This is deliberate:
	// the behavior is "contains", not exact equality.
	PatternLiteral
)

func (m PatternMode) String() string {
	switch m {
	case PatternGlob:
		return "glob"
	case PatternRegex:
		return "regex"
	case PatternLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// ParsePatternMode maps a user-facing mode name to a PatternMode.
func ParsePatternMode(s string) (PatternMode, error) {
	switch s {
	case "glob":
		return PatternGlob, nil
	case "regex":
		return PatternRegex, nil
	case "literal":
		return PatternLiteral, nil
	default:
		return 0, fmt.Errorf("unknown pattern mode %q", s)
	}
}

// FileConflict decides what happens when a destination file already exists.
type FileConflict int

const (
	// FileSkip keeps the destination file and skips the source file.
	FileSkip FileConflict = iota
	// FileOverwrite replaces the destination file.
	FileOverwrite
	// FileError records a per-entry error and skips the file.
	FileError
)

func (c FileConflict) String() string {
	switch c {
	case FileSkip:
		return "skip"
	case FileOverwrite:
		return "overwrite"
	case FileError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseFileConflict maps a user-facing policy name to a FileConflict.
func ParseFileConflict(s string) (FileConflict, error) {
	switch s {
	case "skip":
		return FileSkip, nil
	case "overwrite":
		return FileOverwrite, nil
	case "error":
		return FileError, nil
	default:
		return 0, fmt.Errorf("unknown file conflict policy %q", s)
	}
}

// DirConflict decides what happens when a destination directory already
// exists.
type DirConflict int

const (
	// DirSkip does not descend into an already existing destination
	// directory.
	DirSkip DirConflict = iota
	// DirMerge reuses the destination directory and keeps copying
	// children into it.
	DirMerge
	// DirError records a per-entry error when the destination directory
	// already exists.
	DirError
)

func (c DirConflict) String() string {
	switch c {
	case DirSkip:
		return "skip"
	case DirMerge:
		return "merge"
	case DirError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseDirConflict maps a user-facing policy name to a DirConflict.
func ParseDirConflict(s string) (DirConflict, error) {
	switch s {
	case "skip":
		return DirSkip, nil
	case "merge":
		return DirMerge, nil
	case "error":
		return DirError, nil
	default:
		return 0, fmt.Errorf("unknown directory conflict policy %q", s)
	}
}

// SymlinkPolicy decides how symbolic link entries are handled.
type SymlinkPolicy int

const (
	// SymlinkCopy recreates the link at the destination, pointing at the
	// same target. A copied link is a leaf, never a traversal point.
	SymlinkCopy SymlinkPolicy = iota
	// SymlinkDereference follows the link and copies the target's
	// content or entries.
	SymlinkDereference
	// SymlinkSkip ignores symlink entries.
	SymlinkSkip
)

func (p SymlinkPolicy) String() string {
	switch p {
	case SymlinkCopy:
		return "copy"
	case SymlinkDereference:
		return "dereference"
	case SymlinkSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// ParseSymlinkPolicy maps a user-facing policy name to a SymlinkPolicy.
func ParseSymlinkPolicy(s string) (SymlinkPolicy, error) {
	switch s {
	case "copy":
		return SymlinkCopy, nil
	case "dereference":
		return SymlinkDereference, nil
	case "skip":
		return SymlinkSkip, nil
	default:
		return 0, fmt.Errorf("unknown symlink policy %q", s)
	}
}

// DepthMode decides how DepthLimit is evaluated.
type DepthMode int

const (
	// DepthAtMost keeps entries with depth <= DepthLimit.
	DepthAtMost DepthMode = iota
	// DepthExact keeps only entries with depth == DepthLimit.
	DepthExact
)

func (m DepthMode) String() string {
	switch m {
	case DepthAtMost:
		return "at-most"
	case DepthExact:
		return "exact"
	default:
		return "unknown"
	}
}

// ParseDepthMode maps a user-facing mode name to a DepthMode.
func ParseDepthMode(s string) (DepthMode, error) {
	switch s {
	case "at-most":
		return DepthAtMost, nil
	case "exact":
		return DepthExact, nil
	default:
		return 0, fmt.Errorf("unknown depth mode %q", s)
	}
}

// Options controls one CopyTree run. The zero value copies the whole tree:
// glob patterns (none configured), skip on conflicts, symlinks recreated as
// links, no depth limit, default worker count, structure preserved.
type Options struct {
	// IncludeFiles / ExcludeFiles are patterns applied to file base names.
	IncludeFiles []string
	ExcludeFiles []string
	// IncludeDirs / ExcludeDirs are patterns applied to directory base
	// names.
	IncludeDirs []string
	ExcludeDirs []string
	// PatternMode applies to all four pattern lists.
	PatternMode PatternMode

	FileConflict FileConflict
	DirConflict  DirConflict
	Symlinks     SymlinkPolicy

	// DepthLimit restricts how deep entries may sit below the source
	// root; the root's immediate children are depth 0. Nil means
	// unlimited. A configured limit must be >= 1.
	DepthLimit *int
	DepthMode  DepthMode

	// Workers caps the file-copy stage parallelism. Nil selects
	// min(NumCPU, 8); a set value is clamped to [1, NumCPU].
	Workers *int

	// Flatten drops the source directory structure and places every
	// copied file directly under the destination root.
	Flatten bool
	// DryRun plans and reports without mutating the filesystem.
	DryRun bool
	// Verify re-hashes source and destination after each file copy and
	// records a per-entry error on digest mismatch.
	Verify bool
	// BandwidthLimit caps aggregate copy read throughput in bytes per
	// second across all workers. Zero means unlimited.
	BandwidthLimit int64
}

func (o *Options) validate() error {
	if o.DepthLimit != nil && *o.DepthLimit < 1 {
		return &InvalidDepthError{Reason: "depth limit must be >= 1 or absent"}
	}
	if o.DepthMode == DepthExact && o.DepthLimit == nil {
		return &InvalidDepthError{Reason: `a depth limit is required when depth mode is "exact"`}
	}
	return nil
}

func (o *Options) keepTree() bool { return !o.Flatten }

// workerLimit resolves the effective worker count for the copy stage.
func workerLimit(requested *int) int {
	ncpu := runtime.NumCPU()
	if ncpu < 1 {
		ncpu = 1
	}
	if requested == nil {
		return min(ncpu, 8)
	}
	n := *requested
	if n < 1 {
		return 1
	}
	return min(n, ncpu)
}

// depthWithin reports whether an entry at the given depth passes the
// configured depth filter. The source root's immediate children are depth 0.
func depthWithin(depth int, opts *Options) bool {
	if opts.DepthLimit == nil {
		return true
	}
	if opts.DepthMode == DepthExact {
		return depth == *opts.DepthLimit
	}
	return depth <= *opts.DepthLimit
}
