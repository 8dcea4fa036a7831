// Package file implements a kv.Store keeping one file per key under a root
// directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/pixeloverlay/kv"
)

// Store implements kv.Store using the local filesystem.
type Store struct {
	root string
}

// New returns a store rooted at root, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("file: empty root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

// Driver returns the driver identifier.
func (s *Store) Driver() kv.Driver { return kv.DriverFile }

func (s *Store) pathFor(key string) (string, error) {
	switch {
	case strings.TrimSpace(key) == "":
		return "", errors.New("file: empty key")
	case strings.ContainsAny(key, `/\`), strings.Contains(key, ".."):
		return "", fmt.Errorf("file: invalid key %q", key)
	}
	return filepath.Join(s.root, key), nil
}

// Get returns the contents of the file for key.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", kv.ErrNotFound, key)
		}
		return "", err
	}
	return string(b), nil
}

// Set replaces the file for key. The write goes through a temporary file so
// a crash never leaves a truncated value behind.
func (s *Store) Set(_ context.Context, key, value string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(s.root, "."+key+".*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(value); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(f.Name(), path)
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
