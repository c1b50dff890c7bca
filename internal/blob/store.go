package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
)

// ErrNotFound signals that no blob exists under the requested name. Callers
// must treat it as a recoverable integrity fault, not a crash.
var ErrNotFound = errors.New("blob not found")

// Store persists raw video payloads as files keyed by their stored name.
// Stored names are always derived from a generated id plus a sanitized
// extension; the original filename is never trusted for storage.
type Store struct {
	baseDir string
}

// NewStore creates the blob directory if needed and returns a store bound to it.
func NewStore(baseDir string) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("blob base directory required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Put streams the payload to disk under the given stored name and returns the
// number of bytes written. The write goes through a temp file and a rename so
// a crash mid-write never leaves a partial blob under the final name.
func (s *Store) Put(storedName string, r io.Reader) (int64, error) {
	path, err := s.resolve(storedName)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(s.baseDir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp blob: %w", err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("writing blob %s: %w", storedName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("syncing blob %s: %w", storedName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("closing blob %s: %w", storedName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("placing blob %s: %w", storedName, err)
	}
	return written, nil
}

// Open returns a reader over the blob, or ErrNotFound when absent.
func (s *Store) Open(storedName string) (io.ReadSeekCloser, error) {
	path, err := s.Path(storedName)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening blob %s: %w", storedName, err)
	}
	return f, nil
}

// Path returns the on-disk location of the blob, or ErrNotFound when absent.
func (s *Store) Path(storedName string) (string, error) {
	path, err := s.resolve(storedName)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("checking blob %s: %w", storedName, err)
	}
	return path, nil
}

// Delete removes the blob. Deleting an absent blob is not an error.
func (s *Store) Delete(storedName string) error {
	path, err := s.resolve(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting blob %s: %w", storedName, err)
	}
	return nil
}

// Clear removes every blob unconditionally. It is only ever invoked together
// with a full metadata wipe.
func (s *Store) Clear() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("listing blob directory: %w", err)
	}
	var errs error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("removing %s: %w", entry.Name(), err))
		}
	}
	return errs
}

// Ping verifies the blob directory is still present and accessible.
func (s *Store) Ping(ctx context.Context) error {
	info, err := os.Stat(s.baseDir)
	if err != nil {
		return fmt.Errorf("blob directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("blob path %s is not a directory", s.baseDir)
	}
	return nil
}

func (s *Store) resolve(storedName string) (string, error) {
	clean := strings.TrimSpace(storedName)
	if clean == "" {
		return "", fmt.Errorf("stored name required")
	}
	if clean != filepath.Base(clean) || strings.HasPrefix(clean, ".") {
		return "", fmt.Errorf("invalid stored name %q", storedName)
	}
	return filepath.Join(s.baseDir, clean), nil
}
