//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// CopyFile tries the most efficient copy method available on Linux,
// falling through on unsupported/cross-device errors.
func CopyFile(params CopyParams) (int64, error) {
	preallocate(params.DstFd, params.Size)

	if params.Limiter != nil {
		return copyReadWrite(params)
	}

	n, err := copyFileRange(params)
	if err == nil {
		return n, nil
	}
	if !isFallbackErr(err) {
		return n, err
	}

	n, err = copySendfile(params)
	if err == nil {
		return n, nil
	}
	if !isFallbackErr(err) {
		return n, err
	}

	return copyReadWrite(params)
}

func copyFileRange(params CopyParams) (int64, error) {
	srcFd, err := os.Open(params.SrcPath)
	if err != nil {
		return 0, err
	}
	defer srcFd.Close()

	remaining := params.Size
	var roff, woff int64
	var total int64
	for remaining > 0 {
		n, err := unix.CopyFileRange(int(srcFd.Fd()), &roff, int(params.DstFd.Fd()), &woff, int(remaining), 0)
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}
	return total, nil
}

func copySendfile(params CopyParams) (int64, error) {
	srcFd, err := os.Open(params.SrcPath)
	if err != nil {
		return 0, err
	}
	defer srcFd.Close()

	remaining := params.Size
	var offset int64
	var total int64
	for remaining > 0 {
		n, err := unix.Sendfile(int(params.DstFd.Fd()), int(srcFd.Fd()), &offset, int(remaining))
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}
	return total, nil
}

// isFallbackErr reports whether err should trigger a fallback to the next
// copy strategy.
func isFallbackErr(err error) bool {
	switch err {
	case unix.ENOSYS, unix.EXDEV, unix.EINVAL, unix.ENOTSUP:
		return true
	}
	if e, ok := err.(*os.PathError); ok {
		return isFallbackErr(e.Err)
	}
	return false
}
