package sqlite

import (
	"database/sql"
	"fmt"
)

type migration struct {
	Version int
	Up      string
}

// migrations are applied in order and recorded in schema_migrations.
var migrations = []migration{
	{
		Version: 1,
		Up: `CREATE TABLE realtime_metrics (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			metric_name TEXT NOT NULL,
			timestamp_ms INTEGER NOT NULL,
			qty REAL NOT NULL DEFAULT 0,
			min REAL NOT NULL DEFAULT 0,
			avg REAL NOT NULL DEFAULT 0,
			max REAL NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT '',
			raw TEXT NOT NULL,
			ingested_at_ms INTEGER NOT NULL
		);
		CREATE INDEX idx_realtime_user_metric_time ON realtime_metrics(user_id, metric_name, timestamp_ms);

		CREATE TABLE aggregated_metrics (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			metric_name TEXT NOT NULL,
			units TEXT NOT NULL DEFAULT '',
			timestamp_ms INTEGER NOT NULL,
			qty REAL NOT NULL DEFAULT 0,
			min REAL NOT NULL DEFAULT 0,
			avg REAL NOT NULL DEFAULT 0,
			max REAL NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT '',
			raw TEXT NOT NULL,
			ingested_at_ms INTEGER NOT NULL
		);
		CREATE INDEX idx_aggregated_user_metric_time ON aggregated_metrics(user_id, metric_name, timestamp_ms);`,
	},
	{
		Version: 2,
		Up: `CREATE TABLE sleep_records (
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			asleep REAL NOT NULL DEFAULT 0,
			in_bed REAL NOT NULL DEFAULT 0,
			core REAL NOT NULL DEFAULT 0,
			deep REAL NOT NULL DEFAULT 0,
			rem REAL NOT NULL DEFAULT 0,
			awake REAL NOT NULL DEFAULT 0,
			total_sleep REAL NOT NULL DEFAULT 0,
			sleep_start_ms INTEGER,
			sleep_end_ms INTEGER,
			in_bed_start_ms INTEGER,
			in_bed_end_ms INTEGER,
			source TEXT NOT NULL DEFAULT '',
			raw TEXT NOT NULL,
			updated_at_ms INTEGER NOT NULL,
			PRIMARY KEY (user_id, date)
		);`,
	},
	{
		Version: 3,
		Up: `CREATE TABLE profiles (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL DEFAULT '',
			full_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'patient',
			created_at_ms INTEGER NOT NULL
		);`,
	},
}

func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	current, err := schemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("failed to apply migration version %d: %w", m.Version, err)
		}
	}

	return nil
}

func schemaVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	return version, err
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.Up); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}
