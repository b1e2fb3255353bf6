package copytree

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// verifyCopy re-reads source and destination and compares BLAKE3 digests.
func verifyCopy(src, dst string) error {
	srcSum, err := hashFile(src)
	if err != nil {
		return fmt.Errorf("verify source: %w", err)
	}
	dstSum, err := hashFile(dst)
	if err != nil {
		return fmt.Errorf("verify destination: %w", err)
	}
	if srcSum != dstSum {
		return fmt.Errorf("checksum mismatch after copy: %s != %s", srcSum, dstSum)
	}
	return nil
}

// hashFile computes the BLAKE3 hash of the file at path, returning the
// hex-encoded digest.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
