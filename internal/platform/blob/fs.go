package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS stores documents as files under a single directory.
type FS struct {
	dir string
}

// NewFS creates the directory if needed and returns a filesystem store.
func NewFS(dir string) (*FS, error) {
	if dir == "" {
		return nil, fmt.Errorf("platform/blob: directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("platform/blob: mkdir %s: %w", dir, err)
	}
	return &FS{dir: dir}, nil
}

// Get implements Store.
func (s *FS) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("platform/blob: read %s: %w", key, err)
	}
	return data, nil
}

// Put implements Store. The write goes through a temp file and rename so
// a crash mid-write never leaves a truncated document behind.
func (s *FS) Put(_ context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("platform/blob: temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("platform/blob: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("platform/blob: close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("platform/blob: rename %s: %w", key, err)
	}
	return nil
}

func (s *FS) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("platform/blob: invalid key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}
