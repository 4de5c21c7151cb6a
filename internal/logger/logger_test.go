package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T, level Level, maxSize int64) (*DefaultLogger, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	l, err := NewDefaultLogger(&Config{
		LogFilePath: logPath,
		MaxFileSize: maxSize,
		MaxBackups:  3,
		Level:       level,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return l, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	return string(content)
}

func TestLogLevelsAndFields(t *testing.T) {
	l, path := newTestLogger(t, LevelDebug, 1<<20)

	l.Debug("debug message", String("slide", "3"))
	l.Info("info message", Int("runs", 42))
	l.Warn("warn message", Bool("rtl", true))
	l.Error("error message", errors.New("zip: not a valid zip file"), Float64("ratio", 0.5))
	l.Close()

	content := readLog(t, path)
	for _, want := range []string{
		"[DEBUG] debug message slide=3",
		"[INFO] info message runs=42",
		"[WARN] warn message rtl=true",
		`[ERROR] error message error="zip: not a valid zip file" ratio=0.5`,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("log missing %q\n%s", want, content)
		}
	}
	if strings.Contains(content, "Stack trace:") {
		t.Error("stack traces should be off by default")
	}
}

func TestLogLevelFiltering(t *testing.T) {
	l, path := newTestLogger(t, LevelWarn, 1<<20)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message", nil)
	l.Close()

	content := readLog(t, path)
	if strings.Contains(content, "[DEBUG]") || strings.Contains(content, "[INFO]") {
		t.Errorf("debug/info should be filtered:\n%s", content)
	}
	if !strings.Contains(content, "[WARN]") || !strings.Contains(content, "[ERROR]") {
		t.Errorf("warn/error should be present:\n%s", content)
	}
}

func TestWithSharesLevelAndFile(t *testing.T) {
	l, path := newTestLogger(t, LevelDebug, 1<<20)

	child := l.With(String("component", "reassembler"))
	child.Info("shape updated", Int("shape_id", 42))
	l.SetLevel(LevelError)
	child.Info("suppressed")
	l.Close()

	content := readLog(t, path)
	if !strings.Contains(content, "shape updated component=reassembler shape_id=42") {
		t.Errorf("child fields missing:\n%s", content)
	}
	if strings.Contains(content, "suppressed") {
		t.Error("child should follow parent level")
	}
}

func TestStackTraces(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "stack.log")
	l, err := NewDefaultLogger(&Config{LogFilePath: logPath, MaxFileSize: 1 << 20, Level: LevelDebug, StackTraces: true})
	if err != nil {
		t.Fatal(err)
	}
	l.Error("boom", errors.New("fail"))
	l.Close()

	if !strings.Contains(readLog(t, logPath), "Stack trace:") {
		t.Error("expected stack trace on error entry")
	}
}

func TestLogRotation(t *testing.T) {
	l, path := newTestLogger(t, LevelDebug, 100)

	for i := 0; i < 20; i++ {
		l.Info("this message is long enough to force the file over its limit")
	}
	l.Close()

	if _, err := os.Stat(path + ".1"); os.IsNotExist(err) {
		t.Error("backup log file was not created after rotation")
	}
	if _, err := os.Stat(path + ".4"); err == nil {
		t.Error("rotation kept more backups than configured")
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", `""`},
		{"two words", `"two words"`},
		{`a="b"`, `"a=\"b\""`},
		{"مرحبا", "مرحبا"},
	}
	for _, tt := range tests {
		if got := quote(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFormatEntry(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	got := formatEntry(ts, LevelInfo, "saved", nil, []Field{String("stage", "extract")}, []Field{Duration("took", 2*time.Second)}, false)
	want := "2024-05-01 10:30:00.000 [INFO] saved stage=extract took=2s\n"
	if got != want {
		t.Errorf("formatEntry() = %q, want %q", got, want)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"Error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestGlobalLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "global.log")
	if err := Init(&Config{LogFilePath: logPath, MaxFileSize: 1 << 20, Level: LevelDebug}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	Debug("global debug")
	Info("global info")
	Named("extractor").Warn("global warn")
	Error("global error", errors.New("global test error"))
	Close()

	content := readLog(t, logPath)
	for _, want := range []string{"global debug", "global info", "global warn component=extractor", "global error"} {
		if !strings.Contains(content, want) {
			t.Errorf("global log missing %q", want)
		}
	}
}

func TestNoopLogger(t *testing.T) {
	SetGlobalLogger(nil)

	Debug("test")
	Info("test")
	Warn("test")
	Error("test", nil)

	if GetLogger() == nil {
		t.Error("GetLogger should return noop logger, not nil")
	}
	if Named("x") == nil {
		t.Error("Named should never return nil")
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %s, want %s", tt.level, got, tt.expected)
		}
	}
}
