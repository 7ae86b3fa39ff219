package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WARN)

	l.Info("dropped %d", 1)
	l.Warn("kept %d", 2)
	l.Error("kept %d", 3)

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "[WARN] kept 2") {
		t.Errorf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] kept 3") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestSetMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, ERROR)
	l.Debug("a")
	l.SetMinLevel(DEBUG)
	l.Debug("b")

	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("expected one line, got %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l.Enabled(CRITICAL) {
		t.Error("discard logger should not be enabled")
	}
	l.Critical("nothing happens")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"WARN", WARN, false},
		{"", INFO, false},
		{"bogus", INFO, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err=%v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%q: got %v want %v", tt.in, got, tt.want)
		}
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbw.log")
	l := NewFileLogger(FileConfig{Path: path, MaxSizeMB: 1}, INFO, false)
	l.Info("engaged at %.2f", 1.5)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "[INFO] engaged at 1.50") {
		t.Errorf("unexpected log contents: %q", data)
	}
}
