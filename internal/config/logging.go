package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogLevel is how much the CLI writes to its log file.
type LogLevel int

// Log levels, in increasing verbosity.
const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelDebug
)

//nolint:gochecknoglobals // read-only lookup tables
var (
	levelNames  = [...]string{LogLevelOff: "off", LogLevelError: "error", LogLevelDebug: "debug"}
	levelByName = map[string]LogLevel{"off": LogLevelOff, "none": LogLevelOff, "error": LogLevelError, "debug": LogLevelDebug}
)

// ParseLogLevel parses a level name. Unknown names mean LogLevelError.
func ParseLogLevel(s string) LogLevel {
	if l, ok := levelByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return LogLevelError
}

func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return levelNames[LogLevelError]
	}
	return levelNames[l]
}

func (l LogLevel) logrusLevel() logrus.Level {
	if l == LogLevelDebug {
		return logrus.DebugLevel
	}
	return logrus.ErrorLevel
}

// Logger writes leveled entries to a file through logrus. A logger at
// LogLevelOff, or one without a file, discards everything.
type Logger struct {
	mu    sync.Mutex
	level LogLevel
	file  *os.File
	entry *logrus.Entry
}

// NewLogger creates a new logger appending to filePath.
func NewLogger(level LogLevel, filePath string) (*Logger, error) {
	logger := &Logger{level: level}

	if level == LogLevelOff || filePath == "" {
		return logger, nil
	}

	filePath, err := ExpandHome(filePath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, err
	}

	// #nosec G304 -- log file path is from validated config
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	logger.file = f
	logger.entry = newEntry(f, level)
	return logger, nil
}

// NewWriterLogger creates a logger writing to w instead of a file.
func NewWriterLogger(level LogLevel, w io.Writer) *Logger {
	return &Logger{level: level, entry: newEntry(w, level)}
}

func newEntry(w io.Writer, level LogLevel) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level.logrusLevel())
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return logrus.NewEntry(l)
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetLevel changes the log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	if l.entry != nil {
		l.entry.Logger.SetLevel(level.logrusLevel())
	}
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// WithField returns a logger that adds key=value to every entry.
func (l *Logger) WithField(key string, value any) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := &Logger{level: l.level}
	if l.entry != nil {
		out.entry = l.entry.WithField(key, value)
	}
	return out
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LogLevelDebug, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LogLevelError, format, args...)
}

func (l *Logger) log(level LogLevel, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.level == LogLevelOff || level > l.level || l.entry == nil {
		return
	}

	if level == LogLevelDebug {
		l.entry.Debugf(format, args...)
		return
	}
	l.entry.Errorf(format, args...)
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	return &Logger{level: LogLevelOff}
}
