package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx) error
	Down        func(*sql.Tx) error
}

// migrations is the ordered list of all database migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create schema_version table",
		Up:          migration001Up,
		Down:        migration001Down,
	},
	{
		Version:     2,
		Description: "Create sessions table",
		Up:          migration002Up,
		Down:        migration002Down,
	},
	{
		Version:     3,
		Description: "Create taps and wave_log tables",
		Up:          migration003Up,
		Down:        migration003Down,
	},
	{
		Version:     4,
		Description: "Create perk_picks and error_log tables",
		Up:          migration004Up,
		Down:        migration004Down,
	},
	{
		Version:     5,
		Description: "Create session_summary view",
		Up:          migration005Up,
		Down:        migration005Down,
	},
}

// LatestVersion is the schema version after all migrations
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// RunMigrations runs all pending database migrations
func (db *DB) RunMigrations() error {
	currentVersion, err := db.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		log.InfoWithContext("Running migration", map[string]interface{}{
			"version":     migration.Version,
			"description": migration.Description,
		})

		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := migration.Up(tx); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			_, err := tx.Exec(`
				INSERT INTO schema_version (version, description, applied_at)
				VALUES (?, ?, ?)
			`, migration.Version, migration.Description, time.Now())

			return err
		})

		if err != nil {
			return err
		}
	}

	return nil
}

// RollbackTo undoes migrations newer than version, newest first
func (db *DB) RollbackTo(version int) error {
	currentVersion, err := db.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if migration.Version <= version || migration.Version > currentVersion {
			continue
		}

		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := migration.Down(tx); err != nil {
				return fmt.Errorf("rollback of migration %d failed: %w", migration.Version, err)
			}
			if migration.Version == 1 {
				return nil
			}
			_, err := tx.Exec(`DELETE FROM schema_version WHERE version = ?`, migration.Version)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// getCurrentVersion returns the current schema version
func (db *DB) getCurrentVersion() (int, error) {
	var tableExists bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableExists)

	if err != nil {
		return 0, err
	}

	if !tableExists {
		return 0, nil
	}

	var version int
	err = db.conn.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_version
	`).Scan(&version)

	if err != nil {
		return 0, err
	}

	return version, nil
}

// Migration 001: Schema version tracking table
func migration001Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version INTEGER NOT NULL UNIQUE,
			description TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	return err
}

func migration001Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS schema_version`)
	return err
}

// Migration 002: One row per Start/Stop cycle
func migration002Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			ticks INTEGER NOT NULL DEFAULT 0,
			last_wave INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'running'
				CHECK (status IN ('running', 'stopped', 'aborted'))
		)
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at)`)
	return err
}

func migration002Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS sessions`)
	return err
}

// Migration 003: Issued taps and observed wave numbers
func migration003Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS taps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			task TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			wave INTEGER NOT NULL,
			tapped_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_taps_session_task ON taps(session_id, task)`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS wave_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			wave INTEGER NOT NULL,
			observed_at DATETIME NOT NULL
		)
	`)
	return err
}

func migration003Down(tx *sql.Tx) error {
	if _, err := tx.Exec(`DROP TABLE IF EXISTS wave_log`); err != nil {
		return err
	}
	_, err := tx.Exec(`DROP TABLE IF EXISTS taps`)
	return err
}

// Migration 004: Perk choices and task failures
func migration004Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS perk_picks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			phrase TEXT NOT NULL,
			region TEXT NOT NULL,
			wave INTEGER NOT NULL,
			picked_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS error_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER REFERENCES sessions(id) ON DELETE SET NULL,
			source TEXT NOT NULL,
			component TEXT NOT NULL,
			message TEXT NOT NULL,
			occurred_at DATETIME NOT NULL
		)
	`)
	return err
}

func migration004Down(tx *sql.Tx) error {
	if _, err := tx.Exec(`DROP TABLE IF EXISTS error_log`); err != nil {
		return err
	}
	_, err := tx.Exec(`DROP TABLE IF EXISTS perk_picks`)
	return err
}

// Migration 005: Per-session aggregate view
func migration005Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE VIEW IF NOT EXISTS session_summary AS
		SELECT
			s.id AS session_id,
			s.device,
			s.started_at,
			s.ended_at,
			s.status,
			s.ticks,
			s.last_wave,
			(SELECT COUNT(*) FROM taps t WHERE t.session_id = s.id) AS tap_count,
			(SELECT COUNT(*) FROM perk_picks p WHERE p.session_id = s.id) AS perk_count,
			(SELECT COALESCE(MAX(w.wave), 0) FROM wave_log w WHERE w.session_id = s.id) AS max_wave,
			(SELECT COUNT(*) FROM error_log e WHERE e.session_id = s.id) AS error_count
		FROM sessions s
	`)
	return err
}

func migration005Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP VIEW IF EXISTS session_summary`)
	return err
}
