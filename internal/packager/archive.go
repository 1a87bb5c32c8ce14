// SPDX-License-Identifier: MPL-2.0

package packager

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Archive zips the regular files directly in dir into zipPath, each stored
// at the archive root as arXiv expects. Subdirectories are skipped; the
// submission directory is flat. On failure the partial archive is removed.
//
// It returns the absolute archive path and its size in bytes.
func Archive(dir, zipPath string) (archivePath string, size int64, err error) {
	absZip, err := filepath.Abs(zipPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to resolve archive path: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read output directory: %w", err)
	}

	if err := writeArchive(dir, absZip, entries); err != nil {
		_ = os.Remove(absZip)
		return "", 0, fmt.Errorf("failed to create archive: %w", err)
	}

	info, err := os.Stat(absZip)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat archive: %w", err)
	}
	return absZip, info.Size(), nil
}

func writeArchive(dir, zipPath string, entries []os.DirEntry) (err error) {
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := zipFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	zipWriter := zip.NewWriter(zipFile)
	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := addFile(zipWriter, filepath.Join(dir, e.Name()), e); err != nil {
			return err
		}
	}
	return nil
}

func addFile(w *zip.Writer, path string, d os.DirEntry) (err error) {
	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create file header: %w", err)
	}
	header.Name = d.Name()
	header.Method = zip.Deflate

	dst, err := w.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", d.Name(), err)
	}
	defer func() { _ = src.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.Name(), err)
	}
	return nil
}
