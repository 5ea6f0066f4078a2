package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"resync/internal/config"

	"github.com/sirupsen/logrus"
)

// Level is the severity of a log line
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

const timestampFormat = "2006-01-02 15:04:05"

var (
	std = logrus.New()

	mu   sync.Mutex
	file *os.File
)

func newFormatter() *logrus.TextFormatter {
	return &logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
	}
}

// Init points the process-wide logger at the configured file, appending to it.
// With verbose set every line is mirrored to stdout. Call once at startup.
func Init(cfg config.LogConfig) error {
	mu.Lock()
	defer mu.Unlock()

	std.SetFormatter(newFormatter())
	std.ReplaceHooks(make(logrus.LevelHooks))

	if file != nil {
		file.Close()
		file = nil
	}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		std.SetOutput(f)
	} else {
		std.SetOutput(io.Discard)
	}

	std.SetLevel(logrus.InfoLevel)
	if cfg.Verbose {
		std.SetLevel(logrus.DebugLevel)
		std.AddHook(&consoleHook{out: os.Stdout, formatter: newFormatter()})
	}
	return nil
}

// Close releases the log file
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	std.SetOutput(io.Discard)
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// Log writes one line at the given level
func Log(level Level, format string, args ...any) {
	switch level {
	case LevelError:
		std.Errorf(format, args...)
	default:
		std.Infof(format, args...)
	}
}

func Infof(format string, args ...any) {
	std.Infof(format, args...)
}

func Errorf(format string, args ...any) {
	std.Errorf(format, args...)
}

func Debugf(format string, args ...any) {
	std.Debugf(format, args...)
}

// WithFields returns an entry carrying structured fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return std.WithFields(fields)
}

// consoleHook mirrors entries to the console in verbose mode
type consoleHook struct {
	out       io.Writer
	formatter logrus.Formatter
}

func (h *consoleHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *consoleHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.out.Write(line)
	return err
}
