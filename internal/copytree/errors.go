package copytree

import "fmt"

// Setup errors abort the whole CopyTree call before a report is produced.
// Per-entry failures never surface as Go errors; they are collected in the
// report instead.

// InvalidDepthError reports an invalid depth limit/mode combination.
type InvalidDepthError struct {
	Reason string
}

func (e *InvalidDepthError) Error() string { return e.Reason }

// InvalidPatternError reports a malformed include/exclude pattern.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid include/exclude pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

// SourceNotDirectoryError reports a source path that is not a directory.
type SourceNotDirectoryError struct {
	Path string
}

func (e *SourceNotDirectoryError) Error() string {
	return fmt.Sprintf("source is not a directory: %s", e.Path)
}

// OverlapError reports source and destination directories where one
// contains the other.
type OverlapError struct {
	Source      string
	Destination string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("source and destination directories overlap: %s <-> %s", e.Source, e.Destination)
}

// DestinationInitError reports a destination root that could not be
// created or inspected, or that is itself a symbolic link.
type DestinationInitError struct {
	Path string
	Err  error
}

func (e *DestinationInitError) Error() string {
	return fmt.Sprintf("initialize destination %s: %v", e.Path, e.Err)
}

func (e *DestinationInitError) Unwrap() error { return e.Err }
