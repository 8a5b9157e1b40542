// Package storage persists uploaded files to a retrievable location on the
// local filesystem. The enqueued job references the returned path.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalStore saves and reopens uploaded files under a base directory.
type LocalStore struct {
	BaseDir string
}

// NewLocalStore creates a LocalStore rooted at baseDir, creating the
// directory if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = "uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", baseDir, err)
	}
	return &LocalStore{BaseDir: baseDir}, nil
}

// Save writes the stream to a uuid-prefixed file so two uploads with the
// same client filename never collide, and returns the stored path.
func (s *LocalStore) Save(fileName string, src io.Reader) (string, error) {
	// Strip any client-supplied directory components.
	name := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(fileName))
	path := filepath.Join(s.BaseDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload file %s: %w", path, err)
	}
	return path, nil
}

// Open reopens a previously saved file for processing.
func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload file %s: %w", path, err)
	}
	return file, nil
}

// Remove deletes a stored file. Missing files are not an error so cleanup
// sweeps can be retried safely.
func (s *LocalStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload file %s: %w", path, err)
	}
	return nil
}
