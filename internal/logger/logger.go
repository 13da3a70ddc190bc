// Package logger provides the process-wide structured logger.
//
// Records are written as JSON to a rotating file. WARN and ERROR records are
// also kept in memory so the server can report them through status.get.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultRecentSize is the number of WARN/ERROR records kept by default.
const DefaultRecentSize = 100

// Options configures Init.
type Options struct {
	// Path of the rotating log file. Empty means DefaultLogPath.
	Path string
	// Writer receives records instead of the log file when set.
	Writer io.Writer
	Debug  bool
	// RecentSize bounds RecentEntries. Zero means DefaultRecentSize.
	RecentSize int
}

// LogEntry is a captured WARN or ERROR record.
type LogEntry struct {
	Time       time.Time  `json:"time"`
	Level      slog.Level `json:"level"`
	Message    string     `json:"message"`
	Connection string     `json:"connection,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Format renders the entry as a single status line.
func (e LogEntry) Format() string {
	msg := e.Message
	if e.Connection != "" {
		msg = "[" + e.Connection + "] " + msg
	}
	if e.Error != "" {
		msg += ": " + e.Error
	}
	return fmt.Sprintf("%s %-5s %s", e.Time.Format("15:04:05"), e.Level.String(), msg)
}

var (
	current atomic.Pointer[slog.Logger]

	mu     sync.Mutex
	path   string
	closer io.Closer
	recent *recentLog
)

// DefaultLogPath returns ~/.sqlbook/sqlbook.log, falling back to the temp dir.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".sqlbook", "sqlbook.log")
}

// Init replaces the process logger. It closes the file opened by a
// previous Init, if any.
func Init(opts Options) error {
	w := opts.Writer
	var rotating *lumberjack.Logger
	logPath := ""
	if w == nil {
		logPath = opts.Path
		if logPath == "" {
			logPath = DefaultLogPath()
		}
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		rotating = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		}
		w = rotating
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	size := opts.RecentSize
	if size <= 0 {
		size = DefaultRecentSize
	}

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer.Close()
		closer = nil
	}
	if rotating != nil {
		closer = rotating
	}
	path = logPath
	recent = newRecentLog(size)

	l := slog.New(&captureHandler{
		inner: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
		log:   recent,
	})
	current.Store(l)
	slog.SetDefault(l)
	return nil
}

// Path returns the log file in use, or "" when logging to a writer.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return path
}

// Close flushes and closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

// reset drops the process logger so later calls use slog.Default.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	current.Store(nil)
	recent = nil
	path = ""
}

func get() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// Debug logs at debug level.
func Debug(msg string, args ...any) { get().Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { get().Info(msg, args...) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { get().Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { get().Error(msg, args...) }

// With returns a logger carrying args on every record.
func With(args ...any) *slog.Logger { return get().With(args...) }

// GetCounts returns the number of warnings and errors logged since Init.
func GetCounts() (warn, err int) {
	mu.Lock()
	r := recent
	mu.Unlock()
	if r == nil {
		return 0, 0
	}
	return r.counts()
}

// RecentEntries returns the retained WARN/ERROR entries, oldest first.
func RecentEntries() []LogEntry {
	mu.Lock()
	r := recent
	mu.Unlock()
	if r == nil {
		return nil
	}
	return r.entries()
}
