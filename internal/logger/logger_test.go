package logger

import (
	"bytes"
	"testing"
)

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "info")

	// Debug should NOT appear at info level
	buf.Reset()
	Debug("hidden")
	if buf.Len() > 0 {
		t.Error("debug message should not appear at info level")
	}

	// Switch to debug level at runtime
	SetLevel("debug")

	buf.Reset()
	Debug("visible")
	if buf.Len() == 0 {
		t.Error("debug message should appear after SetLevel(debug)")
	}

	// Switch up to error level
	SetLevel("error")

	buf.Reset()
	Info("hidden again")
	if buf.Len() > 0 {
		t.Error("info message should not appear at error level")
	}
}

func TestSetLevelInvalidFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "garbage")

	buf.Reset()
	Debug("should be hidden")
	if buf.Len() > 0 {
		t.Error("invalid level should fall back to info, hiding debug")
	}

	buf.Reset()
	Info("should be visible")
	if buf.Len() == 0 {
		t.Error("info should be visible at info level")
	}
}
