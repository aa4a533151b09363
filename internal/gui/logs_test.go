package gui

import (
	"testing"
	"time"

	"jordanella.com/tower-bot-go/internal/logging"
)

func TestParseLogLine(t *testing.T) {
	line := `{"level":"warn","component":"Scheduler","wave":42,"task":"gems","time":"2024-05-01T12:00:00Z","message":"App not found"}` + "\n"

	entry := parseLogLine([]byte(line))

	if entry.Level != logging.LogLevelWarn {
		t.Errorf("Level = %s, want WARN", entry.Level)
	}
	if entry.Component != "Scheduler" || entry.Message != "App not found" {
		t.Errorf("Unexpected entry %+v", entry)
	}
	if !entry.Timestamp.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Timestamp = %v", entry.Timestamp)
	}
	if entry.Fields != "task=gems wave=42" {
		t.Errorf("Fields = %q", entry.Fields)
	}
}

func TestParseLogLinePlainText(t *testing.T) {
	entry := parseLogLine([]byte("not json at all\n"))

	if entry.Level != logging.LogLevelInfo || entry.Message != "not json at all" {
		t.Errorf("Unexpected entry %+v", entry)
	}
}

func TestLogTabWriterTrims(t *testing.T) {
	tab := NewLogTab()
	tab.maxLogs = 3

	for i := 0; i < 5; i++ {
		if _, err := tab.Write([]byte(`{"level":"info","message":"tick"}`)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if _, err := tab.Write([]byte(`{"level":"error","message":"boom"}`)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	logs := tab.GetLogs()
	if len(logs) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(logs))
	}
	if logs[2].Level != logging.LogLevelError || logs[2].Message != "boom" {
		t.Errorf("Last entry = %+v", logs[2])
	}

	tab.ClearLogs()
	if len(tab.GetLogs()) != 0 {
		t.Error("ClearLogs left entries behind")
	}
}
