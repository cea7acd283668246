package ilog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetLOGLEVEL(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"DEBUG", DEBUG},
		{"debug", DEBUG},
		{" warn ", WARN},
		{"ERROR", ERROR},
		{"NONE", NONE},
		{"bogus", INFO},
		{"", INFO},
	}
	for _, tt := range tests {
		if got := GetLOGLEVEL(tt.in); got != tt.want {
			t.Errorf("GetLOGLEVEL(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestGetEnvLOGLEVEL(t *testing.T) {
	t.Setenv(ENV_LOGLEVEL, "error")
	if got := GetEnvLOGLEVEL(); got != ERROR {
		t.Errorf("GetEnvLOGLEVEL() = %d, want %d", got, ERROR)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logs := NewWriterLogger(WARN, &buf)
	logs.Debug("dropped %d", 1)
	logs.Info("dropped %d", 2)
	logs.Warn("kept %d", 3)
	logs.Error("kept %d", 4)
	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("below level lines written: %q", out)
	}
	if !strings.Contains(out, "WARN kept 3") || !strings.Contains(out, "ERROR kept 4") {
		t.Errorf("missing lines: %q", out)
	}
	if logs.IfDebug() {
		t.Error("IfDebug() = true at WARN")
	}
	logs.SetLOGLEVEL(DEBUG)
	if !logs.IfDebug() {
		t.Error("IfDebug() = false after SetLOGLEVEL(DEBUG)")
	}
	logs.SetLOGLEVEL(42)
	if logs.GetLOGLEVEL() != DEBUG {
		t.Errorf("invalid SetLOGLEVEL changed level to %d", logs.GetLOGLEVEL())
	}
}

func TestFatalExits(t *testing.T) {
	var buf bytes.Buffer
	logs := NewWriterLogger(NONE, &buf)
	code := -1
	logs.exit = func(c int) { code = c }
	logs.Fatal("boom %s", "now")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "FATAL boom now") {
		t.Errorf("fatal line missing: %q", buf.String())
	}
}

func TestSetLogfile(t *testing.T) {
	var buf bytes.Buffer
	logs := NewWriterLogger(INFO, &buf)
	defer logs.Close()
	logs.Info("before file")

	dir := t.TempDir()
	logfile := filepath.Join(dir, "ndb.log")
	if err := logs.SetLogfile(logfile); err != nil {
		t.Fatalf("SetLogfile err='%v'", err)
	}
	logs.Info("into file")
	if err := logs.SetLogfile(filepath.Join(dir, "missing", "ndb.log")); err == nil {
		t.Error("SetLogfile on missing dir returned nil")
	}
	logs.Info("still into file")
	if err := logs.Close(); err != nil {
		t.Fatalf("Close err='%v'", err)
	}
	logs.Info("after close")

	data, err := os.ReadFile(logfile)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if strings.Contains(got, "before file") || strings.Contains(got, "after close") {
		t.Errorf("logfile has lines outside SetLogfile..Close: %q", got)
	}
	if !strings.Contains(got, "into file") || !strings.Contains(got, "still into file") {
		t.Errorf("logfile misses lines: %q", got)
	}
	if !strings.Contains(buf.String(), "after close") || !strings.Contains(buf.String(), "into file") {
		t.Errorf("writer misses lines: %q", buf.String())
	}
	if err := logs.SetLogfile(""); err != nil {
		t.Errorf("SetLogfile(\"\") err='%v'", err)
	}
}
