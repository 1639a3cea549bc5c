package debuglog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelOff, "OFF"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.expected {
			t.Errorf("LogLevel.String() = %q, want %q", got, test.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"WARN", LevelWarn},
		{"warning", LevelWarn},
		{"ERROR", LevelError},
		{"off", LevelOff},
		{"INVALID", LevelInfo},
		{"", LevelInfo},
	}

	for _, test := range tests {
		if got := ParseLogLevel(test.input); got != test.expected {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", test.input, got, test.expected)
		}
	}
}

func TestSetupWithLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "test.log")

	if err := Setup(LevelInfo, logPath); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if GetLevel() != LevelInfo {
		t.Errorf("GetLevel() = %v, want %v", GetLevel(), LevelInfo)
	}

	Debugf("debug message")
	Infof("info message")
	Warnf("warn message")
	Errorf("error message")

	if err := Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}

	logContent := string(content)
	if strings.Contains(logContent, "debug message") {
		t.Error("DEBUG message should not appear with INFO level")
	}
	for _, want := range []string{"[INFO] info message", "[WARN] warn message", "[ERROR] error message"} {
		if !strings.Contains(logContent, want) {
			t.Errorf("log should contain %q, got %q", want, logContent)
		}
	}
}

func TestSetupWithLevelOff(t *testing.T) {
	if err := Setup(LevelOff, ""); err != nil {
		t.Fatalf("Setup with LevelOff failed: %v", err)
	}
	if GetLevel() != LevelOff {
		t.Errorf("GetLevel() = %v, want %v", GetLevel(), LevelOff)
	}

	Infof("dropped")
}

func TestSetOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(LevelWarn, &buf)
	defer SetOutput(LevelOff, nil)

	Infof("quiet")
	Warnf("loud %d", 1)

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Error("INFO should be filtered at WARN level")
	}
	if !strings.Contains(out, "loud 1") {
		t.Errorf("expected warn line, got %q", out)
	}
}

func TestFieldLogger(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(LevelDebug, &buf)
	defer SetOutput(LevelOff, nil)

	logger := WithFields(map[string]interface{}{
		"component": "test",
		"count":     42,
	}).With("source", "#drupal")

	logger.Infof("test message with fields")

	out := buf.String()
	if !strings.Contains(out, "test message with fields [component=test count=42 source=#drupal]") {
		t.Errorf("fields should be appended in key order, got %q", out)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(LevelDebug, &buf)
	defer SetOutput(LevelOff, nil)

	Component("importer").Debugf("hello")

	if !strings.Contains(buf.String(), "hello [component=importer]") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	SetLevel(LevelDebug)
	if GetLevel() != LevelDebug {
		t.Errorf("SetLevel(LevelDebug) failed, got %v", GetLevel())
	}

	SetLevel(LevelError)
	if GetLevel() != LevelError {
		t.Errorf("SetLevel(LevelError) failed, got %v", GetLevel())
	}
	SetLevel(LevelOff)
}
