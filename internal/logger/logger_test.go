package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestLogger creates a temp log file and initializes the logger with it.
// Returns the path to the temp file and a cleanup function.
func setupTestLogger(t *testing.T) (string, func()) {
	t.Helper()
	Reset()

	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test-debug.log")
	if err := Init(logPath); err != nil {
		t.Fatalf("Failed to init logger: %v", err)
	}

	return logPath, func() {
		Reset()
	}
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	return string(content)
}

func TestDisabledUntilInit(t *testing.T) {
	Reset()
	defer Reset()

	// None of these should panic or create files
	Debug("ignored %d", 1)
	Info("ignored")
	ComponentLogger("state").Info("ignored")
	SetRun("abc")

	if Logger() != nil {
		t.Error("Logger() should be nil before Init")
	}
	if Path() != "" {
		t.Errorf("Path() = %q, want empty before Init", Path())
	}
}

func TestInit_WritesToFile(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	Info("prompt rendered in %dms", 12)

	if !strings.Contains(readLog(t, logPath), "prompt rendered in 12ms") {
		t.Error("Log file should contain the logged message")
	}
	if Path() != logPath {
		t.Errorf("Path() = %q, want %q", Path(), logPath)
	}
}

func TestDebug_RespectsLevel(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	Debug("hidden-debug-marker")
	SetDebug(true)
	Debug("visible-debug-marker")

	content := readLog(t, logPath)
	if strings.Contains(content, "hidden-debug-marker") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(content, "visible-debug-marker") {
		t.Error("debug message should be written once debug is enabled")
	}
}

func TestComponentLogger_AddsAttribute(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	ComponentLogger("bookmarks").Info("resolved", "count", 2)

	content := readLog(t, logPath)
	if !strings.Contains(content, "component=bookmarks") {
		t.Errorf("expected component attribute in %q", content)
	}
	if !strings.Contains(content, "count=2") {
		t.Errorf("expected count attribute in %q", content)
	}
}

func TestSetRun_TagsLaterLines(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	SetRun("run-1234")
	Warn("slow engine")

	if !strings.Contains(readLog(t, logPath), "run=run-1234") {
		t.Error("expected run attribute on lines after SetRun")
	}
}

func TestLog_Concurrent(t *testing.T) {
	_, cleanup := setupTestLogger(t)
	defer cleanup()

	done := make(chan bool)

	for i := 0; i < 10; i++ {
		go func(n int) {
			for j := 0; j < 100; j++ {
				Info("concurrent test %d-%d", n, j)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestReset(t *testing.T) {
	tmpDir := t.TempDir()
	logPath1 := filepath.Join(tmpDir, "log1.log")
	Reset()
	if err := Init(logPath1); err != nil {
		t.Fatalf("Failed to init logger: %v", err)
	}
	Info("message to log1")

	Reset()

	logPath2 := filepath.Join(tmpDir, "log2.log")
	if err := Init(logPath2); err != nil {
		t.Fatalf("Failed to reinit logger: %v", err)
	}
	Info("message to log2")

	content1 := readLog(t, logPath1)
	if !strings.Contains(content1, "message to log1") || strings.Contains(content1, "message to log2") {
		t.Errorf("log1 content unexpected: %q", content1)
	}
	content2 := readLog(t, logPath2)
	if !strings.Contains(content2, "message to log2") || strings.Contains(content2, "message to log1") {
		t.Errorf("log2 content unexpected: %q", content2)
	}

	Reset()
}

func TestInit_BadPath(t *testing.T) {
	Reset()
	defer Reset()

	err := Init(filepath.Join(t.TempDir(), "missing", "dir", "log.log"))
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}

func TestDefaultLogPath(t *testing.T) {
	if filepath.Base(DefaultLogPath()) != "jjline-debug.log" {
		t.Errorf("DefaultLogPath() = %q", DefaultLogPath())
	}
}
