package copytree

import "fmt"

// EntryError is one per-path failure recorded during a run.
type EntryError struct {
	Path    string
	Message string
}

// Report aggregates counters and diagnostics for one CopyTree run. A run
// "succeeds" even when Errors is non-empty; callers must inspect
// ErrorCount to learn about partial failures.
type Report struct {
	Scanned int64
	Matched int64
	Copied  int64
	Skipped int64
	// Warnings are non-fatal diagnostics in traversal order.
	Warnings []string
	// Errors are per-entry failures in the order they were recorded.
	Errors []EntryError
}

// ErrorCount returns the number of per-entry errors.
func (r *Report) ErrorCount() int { return len(r.Errors) }

// WarningCount returns the number of warnings.
func (r *Report) WarningCount() int { return len(r.Warnings) }

// Counters returns the machine-readable counter map.
func (r *Report) Counters() map[string]int64 {
	return map[string]int64{
		"scanned":  r.Scanned,
		"matched":  r.Matched,
		"copied":   r.Copied,
		"skipped":  r.Skipped,
		"errors":   int64(r.ErrorCount()),
		"warnings": int64(r.WarningCount()),
	}
}

// Summary returns the human-readable one-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("matched=%d scanned=%d copied=%d skipped=%d errors=%d warnings=%d",
		r.Matched, r.Scanned, r.Copied, r.Skipped, r.ErrorCount(), r.WarningCount())
}

func (r *Report) String() string { return r.Summary() }

// reportBuilder is the single mutable accumulator behind a run. It is
// owned by the planning goroutine; parallel copy outcomes are merged in by
// the orchestrating goroutine after the batch completes.
type reportBuilder struct {
	scanned  int64
	matched  int64
	copied   int64
	skipped  int64
	warnings []string
	errors   []EntryError
}

func (b *reportBuilder) addScanned() { b.scanned++ }
func (b *reportBuilder) addMatched() { b.matched++ }
func (b *reportBuilder) addCopied()  { b.copied++ }
func (b *reportBuilder) addSkipped() { b.skipped++ }

func (b *reportBuilder) warnf(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}

func (b *reportBuilder) errorf(path, format string, args ...any) {
	b.errors = append(b.errors, EntryError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (b *reportBuilder) build() *Report {
	return &Report{
		Scanned:  b.scanned,
		Matched:  b.matched,
		Copied:   b.copied,
		Skipped:  b.skipped,
		Warnings: b.warnings,
		Errors:   b.errors,
	}
}
