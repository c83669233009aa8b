//go:build !wasm

package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sql.DB) error {
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	if err := createTranscriptsTable(db); err != nil {
		return fmt.Errorf("creating transcripts table: %w", err)
	}

	if err := createPlansTable(db); err != nil {
		return fmt.Errorf("creating plans table: %w", err)
	}

	if err := createDisclosuresTable(db); err != nil {
		return fmt.Errorf("creating disclosures table: %w", err)
	}

	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}

	var version int
	if err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return err
	}
	if version != SchemaVersion {
		return fmt.Errorf("database schema version %d, expected %d", version, SchemaVersion)
	}
	return nil
}

func createTranscriptsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			id TEXT PRIMARY KEY NOT NULL,
			source TEXT,
			sent_size INTEGER NOT NULL,
			recv_size INTEGER NOT NULL
		)
	`)
	return err
}

func createPlansTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY NOT NULL,
			transcript_id TEXT NOT NULL REFERENCES transcripts(id),
			profile_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			sent_error TEXT,
			received_error TEXT,
			received_fallback INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_plans_transcript_id ON plans(transcript_id)
	`)
	return err
}

func createDisclosuresTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS disclosures (
			id TEXT NOT NULL,
			plan_id TEXT NOT NULL REFERENCES plans(id),
			direction TEXT NOT NULL,
			kind TEXT NOT NULL,
			field TEXT NOT NULL,
			offset_start INTEGER NOT NULL,
			offset_end INTEGER NOT NULL,
			start_line INTEGER,
			start_column INTEGER,
			end_line INTEGER,
			end_column INTEGER,
			fingerprint TEXT,
			PRIMARY KEY (plan_id, id)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_disclosures_plan_id ON disclosures(plan_id)
	`)
	return err
}
