// Package platform hides the platform-specific parts of committing a file
// copy: the most efficient byte-copy path available and best-effort
// metadata preservation. Capabilities missing on a platform degrade to
// no-ops instead of errors.
package platform

import (
	"os"

	"golang.org/x/time/rate"
)

// CopyParams describes one whole-file byte copy.
type CopyParams struct {
	SrcPath string
	DstFd   *os.File
	Size    int64
	// Limiter, when set, throttles aggregate read throughput. Throttled
	// copies always take the buffered read/write path, since kernel-side
	// copies cannot be metered.
	Limiter *rate.Limiter
}
