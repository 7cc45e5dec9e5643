// Package fsops provides the filesystem surface used during plan resolution.
//
// Resolution performs only local reads (existence checks, small metadata
// reads) plus a single kind of write: touching an empty staging placeholder
// so downstream existence checks succeed. Everything goes through the FS
// interface so tests can run against a temp directory or a fake.
package fsops

import (
	"fmt"
	"os"
	"path/filepath"
)

// FS abstracts the filesystem operations the resolver needs.
type FS interface {
	// Exists reports whether a path exists.
	Exists(path string) (bool, error)

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Touch creates an empty file at path, creating parent directories
	// as needed. An existing file is left untouched.
	Touch(path string) error
}

// RealFS implements FS using actual OS operations.
type RealFS struct{}

// NewRealFS creates a new RealFS.
func NewRealFS() *RealFS {
	return &RealFS{}
}

// Exists reports whether a path exists.
func (fs *RealFS) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ReadFile reads the entire contents of a file.
func (fs *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Touch creates an empty file at path, creating parent directories as needed.
func (fs *RealFS) Touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to touch %s: %w", path, err)
	}
	return f.Close()
}
