package logging

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewRotatingWriter returns a size-rotated log file writer. Old files are
// kept compressed for a month.
func NewRotatingWriter(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MiB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

// NewFileLogger creates a JSON logger writing to a rotated file at path.
func NewFileLogger(path string, level string) (*slog.Logger, io.Closer) {
	w := NewRotatingWriter(path)
	logger := NewStructuredLogger(Config{
		Level:  ParseLevel(level),
		Format: FormatJSON,
		Output: w,
	})
	return logger, w
}
