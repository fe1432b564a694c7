package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a stored report path resolves outside the
// configured artifact root. Guards against path traversal through tampered
// report_path values.
var ErrOutsideRoot = errors.New("report path escapes artifact root")

// ErrNotFound is returned when a report artifact does not exist.
var ErrNotFound = errors.New("report not found")

// Store persists report artifacts under a single root directory. Artifact
// names are derived from application identifiers, never from user input.
type Store struct {
	root string
}

// NewStore creates the artifact root if needed.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &Store{root: abs}, nil
}

// PathFor returns the artifact path for an application.
func (s *Store) PathFor(applicationID uint) string {
	return filepath.Join(s.root, fmt.Sprintf("report_application_%d.html", applicationID))
}

// Save writes the artifact for an application and returns its path.
func (s *Store) Save(applicationID uint, data []byte) (string, error) {
	path := s.PathFor(applicationID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report artifact: %w", err)
	}
	return path, nil
}

// Remove deletes an artifact. Removing a missing artifact is a no-op.
func (s *Store) Remove(path string) error {
	if err := s.check(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove report artifact: %w", err)
	}
	return nil
}

// Open reads a stored artifact after validating the path is contained
// within the artifact root.
func (s *Store) Open(path string) ([]byte, error) {
	if err := s.check(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read report artifact: %w", err)
	}
	return data, nil
}

func (s *Store) check(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve report path: %w", err)
	}
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return ErrOutsideRoot
	}
	return nil
}
