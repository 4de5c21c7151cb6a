// Package logger provides leveled, structured logging for pptx-translator.
// Entries are written in logfmt style to a size-rotated file and optionally
// mirrored to the console.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Level represents the severity level of a log message
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name such as "debug" or "WARN" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger defines the logging interface
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	// With returns a logger that appends fields to every entry.
	With(fields ...Field) Logger
	SetLevel(level Level)
	Close() error
}

// Config holds the configuration for the logger
type Config struct {
	// LogFilePath is the path to the log file
	LogFilePath string
	// MaxFileSize is the size in bytes at which the file is rotated
	MaxFileSize int64
	// MaxBackups is the number of rotated files kept
	MaxBackups int
	Level      Level
	// EnableConsole mirrors entries to stderr
	EnableConsole bool
	// StackTraces appends the caller stack to error entries
	StackTraces bool
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() *Config {
	return &Config{
		LogFilePath: "pptx-translator.log",
		MaxFileSize: 10 * 1024 * 1024,
		MaxBackups:  5,
		Level:       LevelInfo,
	}
}

// sink is the shared file state behind a logger and all of its children.
type sink struct {
	config   *Config
	mu       sync.Mutex
	level    Level
	file     *os.File
	fileSize int64
	console  io.Writer
}

// DefaultLogger is the file-backed implementation of Logger
type DefaultLogger struct {
	sink   *sink
	fields []Field
}

// NewDefaultLogger creates a new DefaultLogger with the given configuration
func NewDefaultLogger(config *Config) (*DefaultLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = DefaultConfig().MaxFileSize
	}

	if dir := filepath.Dir(config.LogFilePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	s := &sink{config: config, level: config.Level}
	if config.EnableConsole {
		s.console = os.Stderr
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return &DefaultLogger{sink: s}, nil
}

func (s *sink) open() error {
	file, err := os.OpenFile(s.config.LogFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	s.file = file
	s.fileSize = info.Size()
	return nil
}

func (s *sink) write(level Level, entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if level < s.level || s.file == nil {
		return
	}
	if s.fileSize+int64(len(entry)) > s.config.MaxFileSize {
		if err := s.rotate(); err != nil {
			return
		}
	}
	n, _ := io.WriteString(s.file, entry)
	s.fileSize += int64(n)
	if s.console != nil {
		io.WriteString(s.console, entry)
	}
}

// rotate shifts name.N to name.N+1, drops the oldest and reopens name.
func (s *sink) rotate() error {
	s.file.Close()
	base := s.config.LogFilePath
	os.Remove(fmt.Sprintf("%s.%d", base, s.config.MaxBackups))
	for i := s.config.MaxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", base, i), fmt.Sprintf("%s.%d", base, i+1))
	}
	if s.config.MaxBackups > 0 {
		os.Rename(base, base+".1")
	} else {
		os.Remove(base)
	}
	return s.open()
}

func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, nil, fields)
}

func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, nil, fields)
}

func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, nil, fields)
}

func (l *DefaultLogger) Error(msg string, err error, fields ...Field) {
	l.log(LevelError, msg, err, fields)
}

// With returns a child logger sharing the same file.
func (l *DefaultLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &DefaultLogger{sink: l.sink, fields: merged}
}

// SetLevel sets the minimum log level for this logger and its children
func (l *DefaultLogger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Close closes the underlying file
func (l *DefaultLogger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.file == nil {
		return nil
	}
	err := l.sink.file.Close()
	l.sink.file = nil
	return err
}

func (l *DefaultLogger) log(level Level, msg string, err error, fields []Field) {
	l.sink.mu.Lock()
	enabled := level >= l.sink.level
	stacks := l.sink.config.StackTraces
	l.sink.mu.Unlock()
	if !enabled {
		return
	}
	l.sink.write(level, formatEntry(time.Now(), level, msg, err, l.fields, fields, stacks))
}

func formatEntry(ts time.Time, level Level, msg string, err error, base, fields []Field, stack bool) string {
	var sb strings.Builder
	sb.WriteString(ts.Format("2006-01-02 15:04:05.000"))
	sb.WriteString(" [")
	sb.WriteString(level.String())
	sb.WriteString("] ")
	sb.WriteString(msg)
	if err != nil {
		sb.WriteString(" error=")
		sb.WriteString(quote(err.Error()))
	}
	for _, set := range [][]Field{base, fields} {
		for _, f := range set {
			sb.WriteByte(' ')
			sb.WriteString(f.Key)
			sb.WriteByte('=')
			sb.WriteString(quote(fmt.Sprintf("%v", f.Value)))
		}
	}
	if level == LevelError && stack {
		sb.WriteByte('\n')
		sb.WriteString(stackTrace(5))
	}
	sb.WriteByte('\n')
	return sb.String()
}

// quote wraps values containing spaces, quotes or '=' so entries stay parseable.
func quote(v string) string {
	if v == "" {
		return `""`
	}
	if strings.ContainsAny(v, " \t\n\"=") {
		return strconv.Quote(v)
	}
	return v
}

func stackTrace(skip int) string {
	var sb strings.Builder
	sb.WriteString("Stack trace:\n")
	for i, depth := skip, 0; depth < 12; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		name := "unknown"
		if fn := runtime.FuncForPC(pc); fn != nil {
			name = fn.Name()
		}
		if strings.HasPrefix(name, "runtime.") || strings.HasPrefix(name, "testing.") {
			continue
		}
		fmt.Fprintf(&sb, "  %s:%d %s\n", file, line, name)
		depth++
	}
	return sb.String()
}

var (
	globalLogger Logger
	globalMu     sync.RWMutex
)

// Init initializes the global logger with the given configuration
func Init(config *Config) error {
	l, err := NewDefaultLogger(config)
	if err != nil {
		return err
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger != nil {
		globalLogger.Close()
	}
	globalLogger = l
	return nil
}

// GetLogger returns the global logger, or a no-op logger before Init.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return Noop()
	}
	return globalLogger
}

// SetGlobalLogger replaces the global logger instance
func SetGlobalLogger(l Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// Close closes the global logger
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		return nil
	}
	err := globalLogger.Close()
	globalLogger = nil
	return err
}

// Named returns the global logger scoped to a component.
func Named(component string) Logger {
	return GetLogger().With(String("component", component))
}

func Debug(msg string, fields ...Field) {
	GetLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...Field) {
	GetLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...Field) {
	GetLogger().Warn(msg, fields...)
}

func Error(msg string, err error, fields ...Field) {
	GetLogger().Error(msg, err, fields...)
}

// Noop returns a logger that discards everything.
func Noop() Logger { return noopLogger{} }

type noopLogger struct{}

func (noopLogger) Debug(string, ...Field)        {}
func (noopLogger) Info(string, ...Field)         {}
func (noopLogger) Warn(string, ...Field)         {}
func (noopLogger) Error(string, error, ...Field) {}
func (n noopLogger) With(...Field) Logger        { return n }
func (noopLogger) SetLevel(Level)                {}
func (noopLogger) Close() error                  { return nil }
