// Package file provides file system operations adapter implementation.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang-switchport/internal/port"
)

// ManagerAdapter is an adapter that implements the FileManager port using the standard os package.
type ManagerAdapter struct{}

// Ensure ManagerAdapter implements the FileManager port
var _ port.FileManager = (*ManagerAdapter)(nil)

// NewManagerAdapter creates a new file manager adapter.
func NewManagerAdapter() *ManagerAdapter {
	return &ManagerAdapter{}
}

// ReadFile reads the contents of a file. A leading ~ is expanded first.
func (f *ManagerAdapter) ReadFile(filename string) ([]byte, error) {
	path, err := f.ExpandPath(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return data, nil
}

// FileExists checks if a file exists.
func (f *ManagerAdapter) FileExists(filename string) bool {
	path, err := f.ExpandPath(filename)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// ExpandPath resolves a leading ~ to the current user's home directory.
func (f *ManagerAdapter) ExpandPath(filename string) (string, error) {
	if filename != "~" && !strings.HasPrefix(filename, "~/") {
		return filename, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", filename, err)
	}
	return filepath.Join(home, strings.TrimPrefix(filename, "~")), nil
}
