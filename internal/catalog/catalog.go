package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"resync/internal/logger"
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrNotFound    = errors.New("file not found")
)

const (
	emptyListing = "No files available in the shared directory.\n"
	errorListing = "Error opening shared directory.\n"
)

// Catalog is the flat set of regular files directly inside a shared root.
// It holds no mutable state and is safe to share between sessions.
type Catalog struct {
	root string
}

// New creates a catalog rooted at dir
func New(dir string) *Catalog {
	return &Catalog{root: filepath.Clean(dir)}
}

// Root returns the shared root path
func (c *Catalog) Root() string {
	return c.root
}

// Resolve maps a catalog name to a path inside the root. Only bare file names
// are accepted; the namespace is flat.
func (c *Catalog) Resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, os.PathSeparator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(c.root, name), nil
}

// Stat resolves name and returns its info if it is a regular file
func (c *Catalog) Stat(name string) (os.FileInfo, error) {
	path, err := c.Resolve(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrNotFound, name)
	}
	return info, nil
}

// List returns the regular files in the root in enumeration order
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read shared directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Listing renders the LIST_FILES reply: one name per line, silently cut off
// before the text would reach capacity bytes.
func (c *Catalog) Listing(capacity int) (string, error) {
	names, err := c.List()
	if err != nil {
		return errorListing, err
	}

	var b strings.Builder
	for _, name := range names {
		// room for the newline and the terminator the reference reader expects
		if b.Len()+len(name)+2 >= capacity {
			logger.Infof("File list too long, truncating at %d of %d entries", strings.Count(b.String(), "\n"), len(names))
			break
		}
		b.WriteString(name)
		b.WriteByte('\n')
	}

	if b.Len() == 0 {
		return emptyListing, nil
	}
	return b.String(), nil
}
