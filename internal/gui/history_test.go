package gui

import (
	"testing"
	"time"

	"jordanella.com/tower-bot-go/internal/database"
)

func TestFormatFrequency(t *testing.T) {
	tests := []struct {
		name string
		freq map[string]int
		want string
	}{
		{"empty", nil, "No perks picked yet"},
		{"by count", map[string]int{"damage": 1, "max health": 3}, "max health (3), damage (1)"},
		{"ties by name", map[string]int{"orbs": 2, "interest": 2}, "interest (2), orbs (2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatFrequency(tt.freq); got != tt.want {
				t.Errorf("formatFrequency() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionCell(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	s := &database.SessionSummary{
		Session: database.Session{
			ID:        7,
			Device:    "adb:emulator-5554",
			StartedAt: start,
			EndedAt:   &end,
			Ticks:     900,
			Status:    database.SessionStopped,
		},
		TapCount: 12,
		MaxWave:  42,
	}

	checks := map[int]string{0: "7", 1: "adb:emulator-5554", 3: "1m30s", 4: "stopped", 5: "900", 6: "42", 7: "12"}
	for col, want := range checks {
		if got := sessionCell(s, col); got != want {
			t.Errorf("sessionCell(col %d) = %q, want %q", col, got, want)
		}
	}

	s.EndedAt = nil
	if got := sessionCell(s, 3); got != "-" {
		t.Errorf("running session duration = %q, want -", got)
	}
}

func TestErrorCellTruncates(t *testing.T) {
	long := make([]byte, 120)
	for i := range long {
		long[i] = 'x'
	}
	e := &database.ErrorEntry{Message: string(long), Source: "scheduler"}

	if got := errorCell(e, 4); len(got) != 80 {
		t.Errorf("truncated message length = %d, want 80", len(got))
	}
	if got := errorCell(e, 1); got != "-" {
		t.Errorf("session column = %q, want -", got)
	}
}
