package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoMigration is returned when the schema version recorded in the
// database requires a migration step this build does not carry.
var ErrNoMigration = errors.New("no migration registered for required schema version")

// migration is one forward-only schema step. Steps are applied in order
// inside their own transaction, and the reached version is recorded in
// schema_version before commit.
type migration struct {
	version int
	apply   func(tx *sql.Tx) error
}

var migrations = []migration{
	{version: 1, apply: migrateInitialSchema},
	{version: 2, apply: migrateWatermarkIndexes},
}

// Migrate brings the database schema up to the latest version. A fresh
// database runs every step; an up-to-date database is a no-op. A
// database ahead of this build fails with ErrNoMigration.
func Migrate(database *sql.DB) error {
	if _, err := database.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	current, err := currentVersion(database)
	if err != nil {
		return err
	}

	latest := migrations[len(migrations)-1].version
	if current > latest {
		return fmt.Errorf("database schema is at version %d, this build supports up to %d: %w",
			current, latest, ErrNoMigration)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(database, m); err != nil {
			return fmt.Errorf("migration to version %d: %w", m.version, err)
		}
	}
	return nil
}

// CurrentVersion returns the schema version recorded in the database,
// 0 when no migration has been applied yet.
func CurrentVersion(database *sql.DB) (int, error) {
	return currentVersion(database)
}

func currentVersion(database *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := database.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if !v.Valid {
		return 0, nil
	}
	return int(v.Int64), nil
}

func applyMigration(database *sql.DB, m migration) error {
	tx, err := database.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := m.apply(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	committed = true
	return nil
}

func migrateInitialSchema(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE projects (
			id          INTEGER PRIMARY KEY,
			name        TEXT NOT NULL,
			identifier  TEXT UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			status      INTEGER NOT NULL DEFAULT 1,
			start_date  TEXT,
			end_date    TEXT,
			created_on  TEXT,
			updated_on  TEXT,
			updated_at  TEXT NOT NULL
		)`,

		`CREATE TABLE tickets (
			id               INTEGER PRIMARY KEY,
			project_id       INTEGER NOT NULL REFERENCES projects(id),
			subject          TEXT NOT NULL,
			estimated_hours  REAL,
			status_id        INTEGER,
			status_name      TEXT NOT NULL DEFAULT '',
			created_on       TEXT,
			updated_on       TEXT,
			completed_on     TEXT,
			assigned_to_id   INTEGER,
			assigned_to_name TEXT NOT NULL DEFAULT '',
			version_id       INTEGER,
			version_name     TEXT NOT NULL DEFAULT '',
			custom_fields    TEXT,
			updated_at       TEXT NOT NULL
		)`,

		`CREATE TABLE daily_snapshots (
			id                    INTEGER PRIMARY KEY,
			date                  TEXT NOT NULL,
			project_id            INTEGER NOT NULL REFERENCES projects(id),
			total_estimated_hours REAL NOT NULL,
			completed_hours       REAL NOT NULL,
			remaining_hours       REAL NOT NULL,
			new_tickets_hours     REAL NOT NULL DEFAULT 0,
			changed_hours         REAL NOT NULL DEFAULT 0,
			deleted_hours         REAL NOT NULL DEFAULT 0,
			active_ticket_count   INTEGER NOT NULL,
			completed_ticket_count INTEGER NOT NULL,
			updated_at            TEXT NOT NULL,
			UNIQUE(date, project_id)
		)`,

		`CREATE TABLE scope_changes (
			id             TEXT PRIMARY KEY,
			date           TEXT NOT NULL,
			project_id     INTEGER NOT NULL REFERENCES projects(id),
			ticket_id      INTEGER,
			ticket_subject TEXT NOT NULL DEFAULT '',
			change_type    TEXT NOT NULL
			               CHECK(change_type IN ('added','modified','removed')),
			hours_delta    REAL NOT NULL,
			old_hours      REAL,
			new_hours      REAL,
			reason         TEXT NOT NULL DEFAULT '',
			created_at     TEXT NOT NULL
		)`,

		`CREATE INDEX idx_tickets_project_id ON tickets(project_id)`,
		`CREATE INDEX idx_tickets_updated_on ON tickets(updated_on)`,
		`CREATE INDEX idx_snapshots_project_date ON daily_snapshots(project_id, date)`,
		`CREATE INDEX idx_scope_changes_project_date ON scope_changes(project_id, date)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrateWatermarkIndexes backs the incremental-sync watermark and the
// per-day snapshot scans with composite indexes.
func migrateWatermarkIndexes(tx *sql.Tx) error {
	stmts := []string{
		`CREATE INDEX idx_tickets_project_updated ON tickets(project_id, updated_on)`,
		`CREATE INDEX idx_tickets_project_created ON tickets(project_id, created_on)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
