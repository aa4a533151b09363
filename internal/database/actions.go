package database

import (
	"fmt"
	"time"
)

// RecordTap stores one issued tap
func (db *DB) RecordTap(sessionID int64, task string, x, y, wave int, at time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO taps (session_id, task, x, y, wave, tapped_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sessionID, task, x, y, wave, at)
	if err != nil {
		return fmt.Errorf("failed to insert tap: %w", err)
	}
	return nil
}

// RecordWave stores an observed wave change
func (db *DB) RecordWave(sessionID int64, wave int, at time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO wave_log (session_id, wave, observed_at)
		VALUES (?, ?, ?)
	`, sessionID, wave, at)
	if err != nil {
		return fmt.Errorf("failed to insert wave: %w", err)
	}
	return nil
}

// RecordPerk stores a chosen perk
func (db *DB) RecordPerk(sessionID int64, phrase, region string, wave int, at time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO perk_picks (session_id, phrase, region, wave, picked_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, phrase, region, wave, at)
	if err != nil {
		return fmt.Errorf("failed to insert perk pick: %w", err)
	}
	return nil
}

// LogError stores a recovered failure. A zero sessionID stores NULL.
func (db *DB) LogError(sessionID int64, source, component, message string, at time.Time) error {
	var sid *int64
	if sessionID != 0 {
		sid = &sessionID
	}
	_, err := db.conn.Exec(`
		INSERT INTO error_log (session_id, source, component, message, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, sid, source, component, message, at)
	if err != nil {
		return fmt.Errorf("failed to insert error log: %w", err)
	}
	return nil
}

// TapCounts returns taps per task for a session
func (db *DB) TapCounts(sessionID int64) (map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT task, COUNT(*)
		FROM taps
		WHERE session_id = ?
		GROUP BY task
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var task string
		var n int
		if err := rows.Scan(&task, &n); err != nil {
			return nil, err
		}
		counts[task] = n
	}
	return counts, rows.Err()
}

// PerkPicks returns a session's perk choices in order
func (db *DB) PerkPicks(sessionID int64) ([]*PerkPick, error) {
	rows, err := db.conn.Query(`
		SELECT id, session_id, phrase, region, wave, picked_at
		FROM perk_picks
		WHERE session_id = ?
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var picks []*PerkPick
	for rows.Next() {
		p := &PerkPick{}
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Phrase, &p.Region, &p.Wave, &p.PickedAt); err != nil {
			return nil, err
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

// PerkFrequency counts how often each phrase was picked across sessions
func (db *DB) PerkFrequency() (map[string]int, error) {
	rows, err := db.conn.Query(`SELECT phrase, COUNT(*) FROM perk_picks GROUP BY phrase`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	freq := make(map[string]int)
	for rows.Next() {
		var phrase string
		var n int
		if err := rows.Scan(&phrase, &n); err != nil {
			return nil, err
		}
		freq[phrase] = n
	}
	return freq, rows.Err()
}

// RecentErrors returns the newest logged failures first
func (db *DB) RecentErrors(limit int) ([]*ErrorEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.conn.Query(`
		SELECT id, session_id, source, component, message, occurred_at
		FROM error_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*ErrorEntry
	for rows.Next() {
		e := &ErrorEntry{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Source, &e.Component, &e.Message, &e.OccurredAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
