package index

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/roach88/births/internal/ir"
)

// Default file names inside the target directory.
const (
	NewerFileName    = "outdated.data"
	PreviousFileName = "outdatedEnglish.data"
)

// writeFileAtomic writes via a temp file in the same directory and renames
// it into place, so readers never see a partial index.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after a successful rename

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename index into place: %w", err)
	}
	return nil
}

// WriteNewerFile writes the newer index to path.
func WriteNewerFile(path string, newer map[string][]ir.ItemKey) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteNewer(w, newer)
	})
}

// WritePreviousFile writes the previous-value index to path.
func WritePreviousFile(path string, b Births) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WritePrevious(w, b)
	})
}

// ReadNewerFile reads a newer index from path.
func ReadNewerFile(path string) (map[string][]ir.KeyID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open newer index: %w", err)
	}
	defer f.Close()
	return ReadNewer(f)
}

// ReadPreviousFile reads a previous-value index from path.
func ReadPreviousFile(path string) (map[ir.KeyID]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open previous index: %w", err)
	}
	defer f.Close()
	return ReadPrevious(f)
}
