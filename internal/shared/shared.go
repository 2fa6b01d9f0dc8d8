// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the name of the rotating log file inside the configured log directory.
const LogFileName = "junk_mover.log"

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps enabled.
//
// The writer defaults to [os.Stdout]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := log.Options{ReportTimestamp: true, TimeFormat: "2006-01-02 15:04:05"}
	return log.NewWithOptions(w, opts)
}

// NewRotatingWriter returns a writer appending to dir/[LogFileName], rotated by size and pruned after a year.
func NewRotatingWriter(dir string) (io.WriteCloser, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:  filepath.Join(dir, LogFileName),
		MaxSize:   10,
		MaxAge:    365,
		LocalTime: true,
	}, nil
}

// NewFileLogger creates a [log.Logger] writing to both w and the rotating log file in dir.
//
// The returned closer releases the log file.
func NewFileLogger(w io.Writer, dir, level string) (*log.Logger, io.Closer, error) {
	if w == nil {
		w = os.Stdout
	}

	ll, err := log.ParseLevel(level)
	if err != nil {
		return nil, nil, NewError(KindConfig, "invalid log level "+level, 0, nil, err)
	}

	file, err := NewRotatingWriter(dir)
	if err != nil {
		return nil, nil, err
	}

	logger := NewLogger(io.MultiWriter(w, file))
	SetLogLevel(logger, ll)
	return logger, file, nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// GenerateState returns a random OAuth2 state token.
func GenerateState() string {
	return uuid.NewString()
}
