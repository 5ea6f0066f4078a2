package processor

import (
	"fmt"
	"io"
	"os"
)

// FileReader wraps an open file being sent
type FileReader struct {
	file   *os.File
	size   int64
	offset int64
	read   int64
}

// Read implements io.Reader
func (r *FileReader) Read(p []byte) (int, error) {
	n, err := r.file.Read(p)
	r.read += int64(n)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("failed to read file: %w", err)
	}
	return n, err
}

// Size returns the file size at open time
func (r *FileReader) Size() int64 {
	return r.size
}

// Remaining returns the bytes left between the current position and the size
// seen at open time
func (r *FileReader) Remaining() int64 {
	return r.size - r.offset - r.read
}

func (r *FileReader) Close() error {
	return r.file.Close()
}
