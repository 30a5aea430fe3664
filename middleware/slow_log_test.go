package middleware

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/focusloop/relstore/logger"
)

func TestSlowLogWarnsOverThreshold(t *testing.T) {
	db := openTestDB(t)
	var buf bytes.Buffer
	log := logger.NewStdLogger()
	log.SetOutput(&buf)
	log.SetLevel(logger.LogLevelWarn)
	db.SetLogger(log)

	if err := db.Use(NewSlowLog(0)); err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	if _, err := db.Prepare("SELECT * FROM tasks").Bind().All(context.Background()); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(buf.String(), "slow statement") {
		t.Errorf("expected a slow statement warning, got %q", buf.String())
	}
}

func TestSlowLogQuietUnderThreshold(t *testing.T) {
	db := openTestDB(t)
	var buf bytes.Buffer
	log := logger.NewStdLogger()
	log.SetOutput(&buf)
	log.SetLevel(logger.LogLevelWarn)
	db.SetLogger(log)

	if err := db.Use(NewSlowLog(time.Hour)); err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	if _, err := db.Prepare("SELECT * FROM tasks").Bind().All(context.Background()); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if strings.Contains(buf.String(), "slow statement") {
		t.Errorf("fast statement must not warn: %q", buf.String())
	}
}
