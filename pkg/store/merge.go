//go:build !wasm

package store

import (
	"database/sql"
	"fmt"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the database files to merge from.
	SourcePaths []string
	// DestPath is the destination database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	TranscriptsMerged int
	PlansMerged       int
	DisclosuresMerged int
	SourcesProcessed  int
}

// table describes how rows of one table are copied.
type table struct {
	name    string
	columns string
	count   int
}

// tables are merged parents first.
var tables = []table{
	{"transcripts", "id, source, sent_size, recv_size", 4},
	{"plans", "id, transcript_id, profile_id, created_at, sent_error, received_error, received_fallback", 7},
	{"disclosures", "id, plan_id, direction, kind, field, offset_start, offset_end, start_line, start_column, end_line, end_column, fingerprint", 12},
}

// Merge combines multiple disclose databases into one.
// Deduplication is handled via INSERT OR IGNORE on primary keys.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	destDB, err := sql.Open(driverName, cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer destDB.Close()

	if err := CreateSchema(destDB); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	stats := &MergeStats{}
	for _, sourcePath := range cfg.SourcePaths {
		counts, err := mergeFrom(destDB, sourcePath)
		if err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.TranscriptsMerged += counts[0]
		stats.PlansMerged += counts[1]
		stats.DisclosuresMerged += counts[2]
		stats.SourcesProcessed++
	}

	return stats, nil
}

// mergeFrom copies every table from a source database, returning per-table counts.
func mergeFrom(destDB *sql.DB, sourcePath string) ([]int, error) {
	sourceDB, err := sql.Open(driverName, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening source database: %w", err)
	}
	defer sourceDB.Close()

	var version int
	if err := sourceDB.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return nil, fmt.Errorf("reading schema version: %w", err)
	}
	if version != SchemaVersion {
		return nil, fmt.Errorf("schema version %d, expected %d", version, SchemaVersion)
	}

	tx, err := destDB.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	counts := make([]int, len(tables))
	for i, t := range tables {
		n, err := mergeTable(tx, sourceDB, t)
		if err != nil {
			return nil, fmt.Errorf("merging %s: %w", t.name, err)
		}
		counts[i] = n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return counts, nil
}

func mergeTable(tx *sql.Tx, sourceDB *sql.DB, t table) (int, error) {
	rows, err := sourceDB.Query("SELECT " + t.columns + " FROM " + t.name)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	placeholders := "?"
	for i := 1; i < t.count; i++ {
		placeholders += ", ?"
	}
	stmt, err := tx.Prepare("INSERT OR IGNORE INTO " + t.name + " (" + t.columns + ") VALUES (" + placeholders + ")")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	values := make([]any, t.count)
	ptrs := make([]any, t.count)
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return count, err
		}
		result, err := stmt.Exec(values...)
		if err != nil {
			return count, err
		}
		affected, _ := result.RowsAffected()
		if affected > 0 {
			count++
		}
	}
	return count, rows.Err()
}
