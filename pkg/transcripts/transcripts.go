// Package transcripts stores raw transcript text on disk, one file per
// transcript. Structured records (title, sessions, messages) live in
// pkg/store; this package only owns the text bodies.
package transcripts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no file exists for a transcript id.
var ErrNotFound = errors.New("transcript file not found")

// FileStore reads and writes transcript text under a single directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store rooted at it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

// Save writes the transcript text to <dir>/<id>.txt, overwriting any
// previous content.
func (s *FileStore) Save(id, content string) error {
	if err := validID(id); err != nil {
		return err
	}

	if err := os.WriteFile(s.path(id), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write transcript file: %w", err)
	}

	return nil
}

// Read returns the transcript text for id.
func (s *FileStore) Read(id string) (string, error) {
	if err := validID(id); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read transcript file: %w", err)
	}

	return string(data), nil
}

// Delete removes the transcript file for id. Deleting a missing file is an
// error so callers can surface dangling references.
func (s *FileStore) Delete(id string) error {
	if err := validID(id); err != nil {
		return err
	}

	err := os.Remove(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete transcript file: %w", err)
	}

	return nil
}

// Filename returns the basename used for a transcript id.
func (s *FileStore) Filename(id string) string {
	return id + ".txt"
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, s.Filename(id))
}

// validID rejects ids that would escape the store directory.
func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid transcript id: %q", id)
	}

	return nil
}
