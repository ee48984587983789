package plog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: WarnLevel, Format: TextFormat, Output: &buf})

	logger.Info("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected info line to be filtered, got %q", buf.String())
	}

	logger.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Errorf("expected warn line in output, got %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: InfoLevel, Format: JSONFormat, Output: &buf})
	logger.Info("hello")

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal JSON log line: %v", err)
	}
	if entry.Message != "hello" {
		t.Errorf("expected message %q, got %q", "hello", entry.Message)
	}
	if entry.Level != "INFO" {
		t.Errorf("expected level INFO, got %q", entry.Level)
	}
}

func TestWithComponentTagsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: InfoLevel, Format: JSONFormat, Output: &buf}).WithComponent("producer")
	logger.Info("working")

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal JSON log line: %v", err)
	}
	if entry.Fields["component"] != "producer" {
		t.Errorf("expected component field %q, got %v", "producer", entry.Fields["component"])
	}
}

func TestWithFieldsCarriesRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: InfoLevel, Format: JSONFormat, Output: &buf})
	fl := logger.WithFields(map[string]interface{}{"run_id": "abc-123"})
	fl.Info("starting")

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal JSON log line: %v", err)
	}
	if entry.Fields["run_id"] != "abc-123" {
		t.Errorf("expected run_id field, got %v", entry.Fields["run_id"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": DebugLevel, "INFO": InfoLevel, "warn": WarnLevel, "warning": WarnLevel, "error": ErrorLevel}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", input, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
	if _, err := ParseLevel("nonsense"); err == nil {
		t.Errorf("expected error for invalid level")
	}
}
