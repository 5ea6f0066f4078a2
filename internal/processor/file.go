package processor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resync/internal/logger"
	"resync/pkg/utils"
)

// OpenReader opens a file for reading positioned at offset
func OpenReader(path string, offset int64) (*FileReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	if offset < 0 || offset > stat.Size() {
		file.Close()
		return nil, fmt.Errorf("offset %d outside file of %d bytes", offset, stat.Size())
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to seek to %d: %w", offset, err)
	}

	logger.Debugf("File prepared for reading: %s, size: %d bytes (%s), offset: %d",
		path, stat.Size(), utils.FormatFileSize(stat.Size()), offset)

	return &FileReader{file: file, size: stat.Size(), offset: offset}, nil
}

// CreateWriter creates or truncates path for writing from the start
func CreateWriter(path string) (*FileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	logger.Debugf("File prepared for writing: %s", path)
	return &FileWriter{file: file, path: path}, nil
}

// ResumeWriter opens an existing file, cuts it back to offset and positions
// writes there. Bytes past offset never survive a resume.
func ResumeWriter(path string, offset int64) (*FileWriter, error) {
	file, err := os.OpenFile(path, os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for resume: %w", err)
	}

	if err := file.Truncate(offset); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to truncate to %d: %w", offset, err)
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to seek to %d: %w", offset, err)
	}

	logger.Debugf("File prepared for resume: %s at offset %d", path, offset)
	return &FileWriter{file: file, path: path, offset: offset}, nil
}

// Drain discards exactly n bytes from r
func Drain(r io.Reader, n int64) error {
	discarded, err := io.CopyN(io.Discard, r, n)
	if err != nil {
		return fmt.Errorf("drained %d of %d bytes: %w", discarded, n, err)
	}
	return nil
}
