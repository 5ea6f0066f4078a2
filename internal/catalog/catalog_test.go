package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T, files ...string) *Catalog {
	t.Helper()
	dir := t.TempDir()
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}
	return New(dir)
}

func TestListingSkipsDirectories(t *testing.T) {
	c := newTestCatalog(t, "a.txt", "b.txt")
	require.NoError(t, os.Mkdir(filepath.Join(c.Root(), "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(c.Root(), "sub", "hidden.txt"), nil, 0644))

	listing, err := c.Listing(1024)
	require.NoError(t, err)
	assert.Equal(t, "a.txt\nb.txt\n", listing)
}

func TestListingSkipsSymlinks(t *testing.T) {
	c := newTestCatalog(t, "a.txt")
	require.NoError(t, os.Symlink(filepath.Join(c.Root(), "a.txt"), filepath.Join(c.Root(), "link.txt")))

	names, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, names)
}

func TestListingEmptyDirectory(t *testing.T) {
	c := newTestCatalog(t)

	listing, err := c.Listing(1024)
	require.NoError(t, err)
	assert.Equal(t, emptyListing, listing)
}

func TestListingMissingDirectory(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "gone"))

	listing, err := c.Listing(1024)
	assert.Error(t, err)
	assert.Equal(t, errorListing, listing)
}

func TestListingTruncates(t *testing.T) {
	var files []string
	for _, c := range "abcdefghij" {
		files = append(files, strings.Repeat(string(c), 9))
	}
	c := newTestCatalog(t, files...)

	// each entry takes 10 bytes; the fourth would leave no room for a terminator
	listing, err := c.Listing(40)
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaaa\nbbbbbbbbb\nccccccccc\n", listing)
	assert.Less(t, len(listing), 40)
}

func TestResolveRejectsPaths(t *testing.T) {
	c := newTestCatalog(t)

	for _, name := range []string{"", ".", "..", "../etc/passwd", "sub/file", `sub\file`, "/abs"} {
		_, err := c.Resolve(name)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}

	path, err := c.Resolve("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.Root(), "report.pdf"), path)
}

func TestStat(t *testing.T) {
	c := newTestCatalog(t, "a.txt")
	require.NoError(t, os.Mkdir(filepath.Join(c.Root(), "dir"), 0755))

	info, err := c.Stat("a.txt")
	require.NoError(t, err)
	assert.EqualValues(t, len("a.txt"), info.Size())

	_, err = c.Stat("dir")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Stat("missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}
