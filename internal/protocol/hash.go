package protocol

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ChunkHash returns the hex SHA-256 of the single chunk ending at offset,
// i.e. bytes [offset-ChunkSize, offset). Only this boundary chunk stands in
// for the whole prefix; corruption earlier in the file is not detected.
func ChunkHash(path string, offset int64) (string, error) {
	if offset < ChunkSize {
		return "", fmt.Errorf("%w: %d for %s", ErrInvalidOffset, offset, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open %s: %w", ErrHashIO, path, err)
	}
	defer file.Close()

	chunk := make([]byte, ChunkSize)
	if _, err := io.ReadFull(io.NewSectionReader(file, offset-ChunkSize, ChunkSize), chunk); err != nil {
		return "", fmt.Errorf("%w: failed to read chunk before offset %d of %s: %w", ErrHashIO, offset, path, err)
	}

	sum := sha256.Sum256(chunk)
	return hex.EncodeToString(sum[:]), nil
}
