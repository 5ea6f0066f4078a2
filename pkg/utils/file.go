package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveDirectory returns the absolute form of dir and checks that it is an
// existing directory
func ResolveDirectory(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path '%s': %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("directory does not exist: %s", abs)
		}
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path '%s' exists but is not a directory", abs)
	}
	return abs, nil
}

// EnsureDirectory creates dir if needed and returns its absolute form
func EnsureDirectory(dir string) (string, error) {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return "", fmt.Errorf("destination path '%s' exists but is not a directory", dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	return ResolveDirectory(dir)
}
