package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// AtomicFile is a temporary file in the target's directory that replaces the
// target only on Commit. Until then nothing exists at the target path.
type AtomicFile struct {
	*os.File
	target string
	done   bool
}

// NewAtomicFile creates the temporary file next to target, creating the
// parent directory if needed.
func NewAtomicFile(target string) (*AtomicFile, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(target)+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	return &AtomicFile{File: f, target: target}, nil
}

// Target returns the final path.
func (a *AtomicFile) Target() string {
	return a.target
}

// Commit flushes, closes and renames the temporary file onto the target.
// On failure the temporary file is removed.
func (a *AtomicFile) Commit() error {
	if a.done {
		return nil
	}
	a.done = true

	chmodErr := a.Chmod(0o644) // #nosec G302 -- exported documents are meant to be shared
	syncErr := a.Sync()
	closeErr := a.Close()
	if err := errors.Join(chmodErr, syncErr, closeErr); err != nil {
		_ = os.Remove(a.Name())
		return fmt.Errorf("finalizing %s: %w", a.target, err)
	}

	if err := os.Rename(a.Name(), a.target); err != nil {
		_ = os.Remove(a.Name())
		return fmt.Errorf("finalizing %s: %w", a.target, err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	_ = a.Close()
	_ = os.Remove(a.Name())
}

// WriteFileAtomic writes data to path through an AtomicFile.
func WriteFileAtomic(path string, data []byte) error {
	af, err := NewAtomicFile(path)
	if err != nil {
		return err
	}
	if _, err := af.Write(data); err != nil {
		af.Abort()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return af.Commit()
}
