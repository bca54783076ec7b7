package logger

import (
	"bytes"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

func TestNewWithOutput_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput("debug", &buf)
	l.WithField("identity", "10.0.0.1").Debug("login failed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON line, got %q", buf.String())
	}
	if line["msg"] != "login failed" || line["identity"] != "10.0.0.1" || line["level"] != "debug" {
		t.Fatalf("unexpected fields: %v", line)
	}
}

func TestNewWithOutput_UnknownLevelFallsBackToInfo(t *testing.T) {
	if l := NewWithOutput("loud", &bytes.Buffer{}); l.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", l.GetLevel())
	}
}
