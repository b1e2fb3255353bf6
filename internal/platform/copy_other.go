//go:build !linux

package platform

// CopyFile uses the buffered read/write path on platforms without a
// kernel-side copy primitive.
func CopyFile(params CopyParams) (int64, error) {
	preallocate(params.DstFd, params.Size)
	return copyReadWrite(params)
}
