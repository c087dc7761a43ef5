// Package outfile writes final output artifacts so that a failed run never
// leaves a half-written file at the destination path.
package outfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Mode is the permission of every file written here.
const Mode os.FileMode = 0644

// Replace calls build with a temporary path in the destination directory and,
// if build succeeds, renames the temporary file over path.
func Replace(path string, build func(tmp string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	f.Close()

	if err := build(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	// CreateTemp makes the file owner-only.
	if err := os.Chmod(tmp, Mode); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Write streams content produced by write into path atomically.
func Write(path string, write func(w io.Writer) error) error {
	return Replace(path, func(tmp string) error {
		f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_TRUNC, Mode)
		if err != nil {
			return err
		}
		if err := write(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}
