package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestNewLogger(t *testing.T) {
	t.Setenv("SCRIBE_HOME", t.TempDir())
	Reset()
	defer Reset()

	logger := NewLogger("test-component")
	if logger == nil {
		t.Fatal("Expected logger to be created")
	}

	if logger.Data["component"] != "test-component" {
		t.Errorf("Expected component to be 'test-component', got %v", logger.Data["component"])
	}

	if again := NewLogger("test-component"); again != logger {
		t.Error("Expected the same logger instance for the same component")
	}
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&TextFormatter{Config: FormatConfig{}})

	entry := logger.WithField("component", "test")
	entry.Info("Test message")

	output := buf.String()

	if !strings.Contains(output, "[INFO]") {
		t.Errorf("Expected output to contain [INFO], got: %s", output)
	}
	if !strings.Contains(output, "[test]") {
		t.Errorf("Expected output to contain [test], got: %s", output)
	}
	if !strings.Contains(output, "Test message") {
		t.Errorf("Expected output to contain 'Test message', got: %s", output)
	}
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name    string
		config  FormatConfig
		entry   *logrus.Entry
		want    []string
		notWant []string
	}{
		{
			name:   "default format",
			config: FormatConfig{},
			entry: &logrus.Entry{
				Level:   logrus.InfoLevel,
				Message: "store saved",
				Data: logrus.Fields{
					"component": "state",
					"store":     "settings",
				},
			},
			want: []string{"[INFO]", "[state]", "store saved", "store=settings"},
		},
		{
			name: "simple format",
			config: FormatConfig{
				DisableTimestamp: true,
				DisableComponent: true,
			},
			entry: &logrus.Entry{
				Level:   logrus.WarnLevel,
				Message: "warning message",
				Data: logrus.Fields{
					"component": "state",
				},
			},
			want:    []string{"[WARN]", "warning message"},
			notWant: []string{"[state]"},
		},
		{
			name:   "caller information with function name",
			config: FormatConfig{},
			entry: func() *logrus.Entry {
				logger := logrus.New()
				logger.SetReportCaller(true)
				return &logrus.Entry{
					Logger:  logger,
					Level:   logrus.InfoLevel,
					Message: "test message with caller",
					Data: logrus.Fields{
						"component": "commands",
					},
					Caller: &runtime.Frame{
						File:     "/path/to/file.go",
						Line:     42,
						Function: "github.com/example/package.TestFunction",
					},
				}
			}(),
			want: []string{"[INFO]", "[commands]", "test message with caller", "[file.go:42 package.TestFunction]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &TextFormatter{Config: tt.config}
			tt.entry.Time = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

			output, err := formatter.Format(tt.entry)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			outputStr := string(output)

			for _, want := range tt.want {
				if !strings.Contains(outputStr, want) {
					t.Errorf("Expected output to contain '%s', got: %s", want, outputStr)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(outputStr, notWant) {
					t.Errorf("Expected output NOT to contain '%s', got: %s", notWant, outputStr)
				}
			}
		})
	}
}

func TestFormatterSortsFields(t *testing.T) {
	formatter := &TextFormatter{Config: FormatConfig{DisableTimestamp: true}}
	out, err := formatter.Format(&logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "m",
		Data:    logrus.Fields{"b": 2, "a": 1, "component": "x"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(out), "m a=1 b=2\n") {
		t.Errorf("fields not sorted: %q", string(out))
	}
}

func TestEnvironmentVariables(t *testing.T) {
	t.Setenv("SCRIBE_HOME", t.TempDir())
	t.Setenv("SCRIBE_LOG_LEVEL", "debug")
	t.Setenv("SCRIBE_LOG_CALLER", "true")
	Reset()
	defer Reset()

	logger := NewLogger("env-test")

	if logger.Logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", logger.Logger.GetLevel())
	}
	if !logger.Logger.ReportCaller {
		t.Error("Expected ReportCaller to be enabled")
	}
}

func TestConfigFileSink(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SCRIBE_HOME", home)
	t.Setenv("SCRIBE_LOG_LEVEL", "")

	logPath := filepath.Join(home, "custom.log")
	entry := newLoggerFromConfig("sink-test", Config{
		Level: "warn",
		File:  FileSinkConfig{Enabled: true, Path: logPath},
		Format: FormatConfig{
			Preset:             "json",
			StructuredToStderr: "never",
		},
	})

	entry.Info("filtered out")
	entry.Warn("kept")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "filtered out") {
		t.Error("Info message should be filtered at warn level")
	}
	if !strings.Contains(content, `"msg":"kept"`) {
		t.Errorf("Expected JSON line with message, got: %s", content)
	}
}

func TestDefaultLogFilePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SCRIBE_HOME", home)

	day := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	want := filepath.Join(home, "state", "scribe", "logs", "scribed-2025-03-09.log")
	if got := LogFilePath("scribed", day); got != want {
		t.Errorf("LogFilePath() = %s, want %s", got, want)
	}
}
