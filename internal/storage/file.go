package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps the link in a plain text file.
type FileStore struct {
	filePath string
}

// NewFileStore creates a file-backed store. The file is created on the first
// SaveLink.
func NewFileStore(filePath string) *FileStore {
	return &FileStore{filePath: filePath}
}

// LastLink reads the stored link. A missing or blank file means no history.
func (s *FileStore) LastLink(_ context.Context) (string, bool, error) {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read state file: %w", err)
	}

	link := strings.TrimSpace(string(data))
	if link == "" {
		return "", false, nil
	}
	return link, true, nil
}

// SaveLink replaces the file contents with link. The new contents are written
// to a temporary file in the same directory and renamed over the old file, so
// readers never see a partial write.
func (s *FileStore) SaveLink(_ context.Context, link string) error {
	if err := writeFileAtomic(s.filePath, []byte(link), 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

func writeFileAtomic(name string, data []byte, perm fs.FileMode) (err error) {
	// Same directory keeps os.Rename on one filesystem.
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Chmod(perm); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), name)
}

var _ StateStore = (*FileStore)(nil)
