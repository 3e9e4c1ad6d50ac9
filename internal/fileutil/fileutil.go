// Package fileutil copies finished audio files into the downloads directory.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// CopyFile copies src to dst, creating or truncating dst with mode 0o644.
// The data is flushed to disk before returning.
func CopyFile(src, dst string) error {
	_, _, err := copyHashed(src, dst)
	return err
}

// CopyFileVerified copies src to dst and then reads dst back, comparing its
// size and SHA-256 digest with what was read from src. On mismatch dst is
// removed.
func CopyFileVerified(src, dst string) error {
	written, want, err := copyHashed(src, dst)
	if err != nil {
		return err
	}
	size, got, err := hashFile(dst)
	if err != nil {
		return fmt.Errorf("verify copy: %w", err)
	}
	switch {
	case size != written:
		_ = os.Remove(dst)
		return fmt.Errorf("verify copy: wrote %d bytes, found %d", written, size)
	case !bytes.Equal(got, want):
		_ = os.Remove(dst)
		return fmt.Errorf("verify copy: digest mismatch for %s", dst)
	}
	return nil
}

func copyHashed(src, dst string) (int64, []byte, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, nil, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, nil, err
	}
	hasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, hasher))
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, nil, err
	}
	return written, hasher.Sum(nil), nil
}

func hashFile(path string) (int64, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()
	hasher := sha256.New()
	n, err := io.Copy(hasher, f)
	if err != nil {
		return 0, nil, err
	}
	return n, hasher.Sum(nil), nil
}
