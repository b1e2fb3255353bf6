package copytree

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyTree_ParallelWorkers(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	const fileCount = 40
	for i := range fileCount {
		writeText(t, filepath.Join(src, fmt.Sprintf("file_%02d.txt", i)), fmt.Sprintf("content %d", i))
	}

	report, err := CopyTree(src, dst, Options{Workers: intp(4)})
	require.NoError(t, err)

	assert.Equal(t, int64(fileCount), report.Copied)
	assert.Empty(t, report.Errors)
	for i := range fileCount {
		name := fmt.Sprintf("file_%02d.txt", i)
		assert.Equal(t, fmt.Sprintf("content %d", i), readText(t, filepath.Join(dst, name)))
	}
}

func TestCopyTree_SingleWorker(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	createBasicTree(t, src)

	report, err := CopyTree(src, dst, Options{Workers: intp(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), report.Copied)
	assert.Empty(t, report.Errors)
}

func TestCopyTree_ZeroWorkersClampsToOne(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	createBasicTree(t, src)

	report, err := CopyTree(src, dst, Options{Workers: intp(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), report.Copied)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
}

func TestNewCopyGroup(t *testing.T) {
	_, err := newCopyGroup(0)
	assert.Error(t, err)
	_, err = newCopyGroup(1)
	assert.Error(t, err)

	g, err := newCopyGroup(2)
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestCopyFileTask(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	require.NoError(t, copyFileTask(src, dst, nil))
	assert.Equal(t, "payload", readText(t, dst))

	// No temp files survive the commit.
	leftovers, err := filepath.Glob(filepath.Join(dir, ".*.axfs-tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestCopyFileTask_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, nil, 0o644))

	require.NoError(t, copyFileTask(src, dst, nil))
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestCopyFileTask_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))

	require.NoError(t, copyFileTask(src, dst, nil))
	assert.Equal(t, "new", readText(t, dst))
}

func TestCopyFileTask_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := copyFileTask(filepath.Join(dir, "nope.txt"), filepath.Join(dir, "dst.txt"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat source")
}

func TestVerifyCopy(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	c := filepath.Join(dir, "c.txt")
	require.NoError(t, os.WriteFile(a, []byte("same bytes"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("same bytes"), 0o644))
	require.NoError(t, os.WriteFile(c, []byte("other bytes"), 0o644))

	assert.NoError(t, verifyCopy(a, b))

	err := verifyCopy(a, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(a, []byte("deterministic"), 0o644))

	h1, err := hashFile(a)
	require.NoError(t, err)
	h2, err := hashFile(a)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // hex-encoded 32-byte digest

	_, err = hashFile(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestCopyTree_Verify(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	createBasicTree(t, src)

	report, err := CopyTree(src, dst, Options{Verify: true})
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Equal(t, int64(5), report.Copied)
}

func TestNewBandwidthLimiter(t *testing.T) {
	lim := newBandwidthLimiter(512)
	assert.Equal(t, 512, lim.Burst())

	lim = newBandwidthLimiter(100 << 20)
	assert.Equal(t, 1<<20, lim.Burst(), "burst is capped at 1 MiB")
}

func TestCopyTree_BandwidthLimit(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeText(t, filepath.Join(src, "a.bin"), "small enough to pass instantly")

	report, err := CopyTree(src, dst, Options{BandwidthLimit: 10 << 20})
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Equal(t, "small enough to pass instantly", readText(t, filepath.Join(dst, "a.bin")))
}
