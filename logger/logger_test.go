package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLogger()
	l.SetOutput(&buf)
	l.SetLevel(LogLevelError)

	l.Info("not shown")
	l.Warn("not shown either")
	l.Error("shown: %d", 42)

	out := buf.String()
	if strings.Contains(out, "not shown") {
		t.Errorf("filtered levels leaked: %q", out)
	}
	if !strings.Contains(out, "shown: 42") {
		t.Errorf("error level missing: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLogger()
	l.SetOutput(&buf)
	l.SetFormat(LogFormatJSON)

	l.WithFields(map[string]any{"engine": "sqlite"}).Info("ready")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["engine"] != "sqlite" || entry["msg"] != "ready" || entry["level"] != "INFO" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestSQLLogging(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLogger()
	l.SetOutput(&buf)

	l.SQL("SELECT 1", 3*time.Millisecond, 7)
	if !strings.Contains(buf.String(), "SELECT 1") {
		t.Errorf("SQL text missing: %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	// must not panic and must stay silent
	l := Discard()
	l.Error("dropped")
	l.SQL("SELECT 1", time.Millisecond)
}
