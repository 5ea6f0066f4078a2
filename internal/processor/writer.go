package processor

import (
	"fmt"
	"os"

	"resync/internal/logger"
)

// FileWriter wraps an open file being received
type FileWriter struct {
	file              *os.File
	path              string
	offset            int64
	totalBytesWritten int64
}

// Write implements io.Writer
func (w *FileWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	w.totalBytesWritten += int64(n)
	if err != nil {
		return n, fmt.Errorf("failed to write data: %w", err)
	}
	return n, nil
}

// Written returns the bytes written through this writer
func (w *FileWriter) Written() int64 {
	return w.totalBytesWritten
}

// Position returns the file offset the next write lands at
func (w *FileWriter) Position() int64 {
	return w.offset + w.totalBytesWritten
}

// Finish closes the file and returns the bytes written through this writer
func (w *FileWriter) Finish() (int64, error) {
	total := w.totalBytesWritten
	if err := w.file.Close(); err != nil {
		return total, fmt.Errorf("failed to close file: %w", err)
	}

	logger.Debugf("File writing completed: %s, %d bytes written", w.path, total)
	return total, nil
}
