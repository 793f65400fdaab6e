// internal/sandbox/store.go
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrViolation is returned when a path escapes the sandbox root.
	ErrViolation = errors.New("path is outside the sandbox root")
	// ErrNotFound is returned when a requested file does not exist.
	ErrNotFound = errors.New("file not found in sandbox")
)

// Store confines all file access to a single root directory. Every path is
// canonicalized and checked against the root before it is touched, so a
// traversal sequence or an absolute path pointing elsewhere fails before any
// read or write happens.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore canonicalizes rootDir and returns a store bound to it.
func NewStore(rootDir string, logger *zap.Logger) (*Store, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve sandbox root %q: %w", rootDir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("sandbox root %q is not accessible: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sandbox root %q is not a directory", abs)
	}

	return &Store{
		root:   abs,
		logger: logger.Named("sandbox"),
	}, nil
}

// Root returns the canonical sandbox root directory.
func (s *Store) Root() string {
	return s.root
}

// resolve canonicalizes path and verifies it stays under the root. Relative
// paths are interpreted against the root.
func (s *Store) resolve(path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.root, abs)
	}
	abs = filepath.Clean(abs)

	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		s.logger.Warn("Blocked access outside sandbox", zap.String("path", path))
		return "", fmt.Errorf("%w: %s", ErrViolation, path)
	}
	return abs, nil
}

// ReadFile returns the contents of a file inside the sandbox.
func (s *Store) ReadFile(path string) (string, error) {
	abs, err := s.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to read %q: %w", path, err)
	}
	return string(data), nil
}

// WriteFile replaces the contents of a file inside the sandbox, creating
// parent directories as needed. The path is validated before anything on
// disk changes.
func (s *Store) WriteFile(path, content string) error {
	abs, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directories for %q: %w", path, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}

	s.logger.Debug("Wrote file", zap.String("path", abs), zap.Int("bytes", len(content)))
	return nil
}

// ListSourceFiles walks the sandbox and returns every .py file that is not a
// test module (a basename starting with "test_"). Paths come back absolute
// and in walk order.
func (s *Store) ListSourceFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, ".py") && !strings.HasPrefix(name, "test_") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk sandbox root: %w", err)
	}
	return files, nil
}

// ListTestFiles returns every test_*.py file under the sandbox root.
func (s *Store) ListTestFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, ".py") && strings.HasPrefix(name, "test_") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk sandbox root: %w", err)
	}
	return files, nil
}
