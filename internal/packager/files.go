// SPDX-License-Identifier: MPL-2.0

package packager

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644
)

// Recreate removes dir and its stale archive (dir + ".zip"), then creates dir
// empty. Leftovers from an earlier run never end up in a new submission.
func Recreate(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove output directory: %w", err)
	}
	if err := os.Remove(ArchivePath(dir)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale archive: %w", err)
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// ArchivePath returns the archive that belongs to dir: a sibling named after
// it with a .zip extension.
func ArchivePath(dir string) string {
	return filepath.Clean(dir) + ".zip"
}

// CopyFile copies src to dst, keeping the permission bits and modification
// time of src. dst is replaced if it exists.
func CopyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("failed to copy %s: not a regular file", src)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", dst, closeErr)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err = out.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", dst, err)
	}
	// Best effort: a copy with a fresh mtime is still a valid submission.
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}

// WriteFile writes content to dst with regular file permissions.
func WriteFile(dst, content string) error {
	if err := os.WriteFile(dst, []byte(content), filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}
