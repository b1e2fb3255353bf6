package platform

import (
	"context"
	"io"
	"os"
	"sync"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// copyReadWrite copies data with positional reads and writes through a
// pooled buffer, optionally metered by the shared rate limiter.
func copyReadWrite(params CopyParams) (int64, error) {
	srcFd, err := os.Open(params.SrcPath)
	if err != nil {
		return 0, err
	}
	defer srcFd.Close()

	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)
	buf := *bufp

	chunk := bufferSize
	if params.Limiter != nil && params.Limiter.Burst() < chunk {
		// WaitN rejects requests larger than the bucket.
		chunk = params.Limiter.Burst()
	}

	var offset int64
	var total int64
	remaining := params.Size
	for remaining > 0 {
		toRead := chunk
		if int64(toRead) > remaining {
			toRead = int(remaining)
		}

		n, err := srcFd.ReadAt(buf[:toRead], offset)
		if n > 0 {
			if params.Limiter != nil {
				if waitErr := params.Limiter.WaitN(context.Background(), n); waitErr != nil {
					return total, waitErr
				}
			}
			written := 0
			for written < n {
				w, werr := params.DstFd.WriteAt(buf[written:n], offset+int64(written))
				if werr != nil {
					return total + int64(written), werr
				}
				written += w
			}
			offset += int64(n)
			remaining -= int64(n)
			total += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, err
		}
	}

	return total, nil
}
