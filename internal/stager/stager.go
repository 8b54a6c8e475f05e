// Package stager stages input data files for a preparation run. Staging is a
// verbatim copy: bytes, permissions and modification time all carry over, so
// downstream tooling that compares timestamps sees the original file.
package stager

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Stage copies src to dst, preserving the file mode and modification time.
// dst's parent directories are created as needed. A missing or unreadable
// source is an error; an existing destination file is overwritten.
func Stage(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stage source: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("stage source %s: is a directory, want a file", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("stage source: %w", err)
	}
	defer in.Close()

	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("stage destination: %w", err)
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("stage destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("stage copy %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("stage copy %s: %w", dst, err)
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("stage metadata %s: %w", dst, err)
	}
	mtime := info.ModTime()
	if err := os.Chtimes(dst, mtime, mtime); err != nil {
		return fmt.Errorf("stage metadata %s: %w", dst, err)
	}
	return nil
}
