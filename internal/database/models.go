package database

import (
	"time"
)

// Session status values
const (
	SessionRunning = "running"
	SessionStopped = "stopped"
	SessionAborted = "aborted"
)

// Session is one Start/Stop cycle of the scheduler
type Session struct {
	ID        int64      `db:"id"`
	Device    string     `db:"device"`
	StartedAt time.Time  `db:"started_at"`
	EndedAt   *time.Time `db:"ended_at"`
	Ticks     int64      `db:"ticks"`
	LastWave  int        `db:"last_wave"`
	Status    string     `db:"status"`
}

// Tap is one issued tap
type Tap struct {
	ID        int64     `db:"id"`
	SessionID int64     `db:"session_id"`
	Task      string    `db:"task"`
	X         int       `db:"x"`
	Y         int       `db:"y"`
	Wave      int       `db:"wave"`
	TappedAt  time.Time `db:"tapped_at"`
}

// PerkPick is one chosen perk
type PerkPick struct {
	ID        int64     `db:"id"`
	SessionID int64     `db:"session_id"`
	Phrase    string    `db:"phrase"`
	Region    string    `db:"region"`
	Wave      int       `db:"wave"`
	PickedAt  time.Time `db:"picked_at"`
}

// ErrorEntry is one recovered task failure
type ErrorEntry struct {
	ID         int64     `db:"id"`
	SessionID  *int64    `db:"session_id"`
	Source     string    `db:"source"`
	Component  string    `db:"component"`
	Message    string    `db:"message"`
	OccurredAt time.Time `db:"occurred_at"`
}

// SessionSummary aggregates one session from the session_summary view
type SessionSummary struct {
	Session
	TapCount   int `db:"tap_count"`
	PerkCount  int `db:"perk_count"`
	MaxWave    int `db:"max_wave"`
	ErrorCount int `db:"error_count"`
}
