package database

import (
	"database/sql"
	"fmt"
	"time"
)

// StartSession creates a running session and returns its ID
func (db *DB) StartSession(device string, startedAt time.Time) (int64, error) {
	var sessionID int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO sessions (device, started_at, status)
			VALUES (?, ?, 'running')
		`, device, startedAt)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}

		sessionID, err = result.LastInsertId()
		return err
	})

	if err != nil {
		return 0, err
	}
	return sessionID, nil
}

// EndSession closes a session with its final counters
func (db *DB) EndSession(sessionID int64, endedAt time.Time, ticks int64, lastWave int, status string) error {
	return db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE sessions
			SET ended_at = ?,
				ticks = ?,
				last_wave = ?,
				status = ?
			WHERE id = ?
		`, endedAt, ticks, lastWave, status, sessionID)
		if err != nil {
			return fmt.Errorf("failed to end session %d: %w", sessionID, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("session %d not found", sessionID)
		}
		return nil
	})
}

// AbortRunningSessions marks sessions left running by a crash as aborted
func (db *DB) AbortRunningSessions(at time.Time) (int64, error) {
	result, err := db.conn.Exec(`
		UPDATE sessions SET status = 'aborted', ended_at = ?
		WHERE status = 'running'
	`, at)
	if err != nil {
		return 0, fmt.Errorf("failed to abort running sessions: %w", err)
	}
	return result.RowsAffected()
}

// GetSession retrieves a session by ID
func (db *DB) GetSession(sessionID int64) (*Session, error) {
	s := &Session{}
	err := db.conn.QueryRow(`
		SELECT id, device, started_at, ended_at, ticks, last_wave, status
		FROM sessions
		WHERE id = ?
	`, sessionID).Scan(
		&s.ID, &s.Device, &s.StartedAt, &s.EndedAt, &s.Ticks, &s.LastWave, &s.Status,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// RecentSessions returns the newest sessions first
func (db *DB) RecentSessions(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(`
		SELECT id, device, started_at, ended_at, ticks, last_wave, status
		FROM sessions
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s := &Session{}
		if err := rows.Scan(&s.ID, &s.Device, &s.StartedAt, &s.EndedAt, &s.Ticks, &s.LastWave, &s.Status); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetSessionSummary returns a session with its aggregate counters
func (db *DB) GetSessionSummary(sessionID int64) (*SessionSummary, error) {
	session, err := db.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	summary := &SessionSummary{Session: *session}
	err = db.conn.QueryRow(`
		SELECT tap_count, perk_count, max_wave, error_count
		FROM session_summary
		WHERE session_id = ?
	`, sessionID).Scan(&summary.TapCount, &summary.PerkCount, &summary.MaxWave, &summary.ErrorCount)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize session %d: %w", sessionID, err)
	}
	return summary, nil
}
