package copytree

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/FuqingZh/axiomkit/internal/platform"
)

// taskResult is the outcome of one copy task. Exactly one is produced per
// task, regardless of worker count.
type taskResult struct {
	dst string
	err error
}

// flushTasks drains the planned task queue, serially or across a bounded
// worker pool. Each task re-validates destination safety before touching
// bytes, so a symlink swapped into the destination tree after planning is
// still rejected. Outcomes are merged into the report by this goroutine
// only, after the batch completes.
func (rc *runContext) flushTasks() {
	tasks := rc.tasks
	rc.tasks = nil
	if len(tasks) == 0 {
		return
	}

	var limiter *rate.Limiter
	if rc.opts.BandwidthLimit > 0 {
		limiter = newBandwidthLimiter(rc.opts.BandwidthLimit)
	}

	run := func(t copyTask) error {
		if err := validateDestPath(t.dst, rc.dstRoot); err != nil {
			return err
		}
		if err := copyFileTask(t.src, t.dst, limiter); err != nil {
			return err
		}
		if rc.opts.Verify {
			return verifyCopy(t.src, t.dst)
		}
		return nil
	}

	results := make([]taskResult, len(tasks))
	serial := func() {
		for i, t := range tasks {
			results[i] = taskResult{dst: t.dst, err: run(t)}
		}
	}

	if rc.workers <= 1 {
		serial()
	} else if g, err := newCopyGroup(rc.workers); err != nil {
		rc.report.warnf("parallel copy unavailable (workers=%d): %v; falling back to serial", rc.workers, err)
		serial()
	} else {
		for i, t := range tasks {
			g.Go(func() error {
				// Each slot is written by exactly one worker.
				results[i] = taskResult{dst: t.dst, err: run(t)}
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, r := range results {
		if r.err != nil {
			rc.report.errorf(r.dst, "%v", r.err)
		} else {
			rc.report.addCopied()
		}
	}
}

// newCopyGroup builds the bounded worker group for the copy stage. Worker
// counts that cannot run in parallel are reported so the caller can fall
// back to the serial path instead of failing the run.
func newCopyGroup(workers int) (*errgroup.Group, error) {
	if workers < 2 {
		return nil, fmt.Errorf("worker count %d below parallel threshold", workers)
	}
	g := new(errgroup.Group)
	g.SetLimit(workers)
	return g, nil
}

// copyFileTask commits one planned file copy: bytes go to a uniquely named
// temp file next to the destination, metadata is applied to the open temp
// fd, and the temp file is renamed into place.
func copyFileTask(src, dst string, limiter *rate.Limiter) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dir := filepath.Dir(dst)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.axfs-tmp", filepath.Base(dst), uuid.NewString()[:8]))

	fd, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp) // no-op once the rename has happened

	if info.Size() > 0 {
		if _, err := platform.CopyFile(platform.CopyParams{
			SrcPath: src,
			DstFd:   fd,
			Size:    info.Size(),
			Limiter: limiter,
		}); err != nil {
			fd.Close()
			return fmt.Errorf("copy data: %w", err)
		}
	}

	if err := platform.ApplyMetadata(src, fd); err != nil {
		fd.Close()
		return fmt.Errorf("apply metadata: %w", err)
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("commit copy: %w", err)
	}
	return nil
}

// newBandwidthLimiter caps aggregate read throughput to bytesPerSec. The
// burst allows natural read-size chunks through without blocking on every
// small read.
func newBandwidthLimiter(bytesPerSec int64) *rate.Limiter {
	burst := 1 << 20
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}
