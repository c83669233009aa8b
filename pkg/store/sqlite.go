//go:build !wasm

package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// driverName is the pure Go SQLite driver.
const driverName = "sqlite"

// timeFormat has a fixed-width fraction so created_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for an in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: every ":memory:" connection would be a separate database, and
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// AddTranscript stores a transcript record.
func (s *SQLiteStore) AddTranscript(t *transcript.Transcript) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO transcripts (id, source, sent_size, recv_size) VALUES (?, ?, ?, ?)",
		t.ID.Hex(), t.Source, len(t.Sent), len(t.Received))
	if err != nil {
		return fmt.Errorf("inserting transcript: %w", err)
	}
	return nil
}

// TranscriptExists checks if a transcript has already been recorded.
func (s *SQLiteStore) TranscriptExists(id types.TranscriptID) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM transcripts WHERE id = ?", id.Hex()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking transcript existence: %w", err)
	}
	return count > 0, nil
}

// AddPlan stores a plan and its disclosures in one transaction.
func (s *SQLiteStore) AddPlan(p *plan.Plan) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT OR IGNORE INTO plans (id, transcript_id, profile_id, created_at, sent_error, received_error, received_fallback)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.TranscriptID.Hex(),
		p.ProfileID,
		p.CreatedAt.UTC().Format(timeFormat),
		p.Sent.Error,
		p.Received.Error,
		p.Received.Fallback,
	)
	if err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO disclosures
		(id, plan_id, direction, kind, field, offset_start, offset_end,
		 start_line, start_column, end_line, end_column, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing disclosure insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range p.Disclosures() {
		loc := d.Location
		_, err := stmt.Exec(
			d.ID,
			p.ID,
			d.Direction,
			d.Kind,
			d.Field,
			loc.Offset.Start,
			loc.Offset.End,
			loc.Source.Start.Line,
			loc.Source.Start.Column,
			loc.Source.End.Line,
			loc.Source.End.Column,
			d.Fingerprint,
		)
		if err != nil {
			return fmt.Errorf("inserting disclosure %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetPlan retrieves one plan by ID.
func (s *SQLiteStore) GetPlan(id string) (*plan.Plan, error) {
	plans, err := s.queryPlans("WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	return plans[0], nil
}

// GetPlans retrieves all plans, oldest first.
func (s *SQLiteStore) GetPlans() ([]*plan.Plan, error) {
	return s.queryPlans("")
}

// GetPlansForTranscript retrieves the plans built for one transcript, oldest first.
func (s *SQLiteStore) GetPlansForTranscript(id types.TranscriptID) ([]*plan.Plan, error) {
	return s.queryPlans("WHERE transcript_id = ?", id.Hex())
}

func (s *SQLiteStore) queryPlans(where string, args ...any) ([]*plan.Plan, error) {
	rows, err := s.db.Query(`
		SELECT id, transcript_id, profile_id, created_at, sent_error, received_error, received_fallback
		FROM plans
		`+where+`
		ORDER BY created_at, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}

	var plans []*plan.Plan
	for rows.Next() {
		var p plan.Plan
		var transcriptID, createdAt string
		var sentErr, recvErr sql.NullString

		err := rows.Scan(&p.ID, &transcriptID, &p.ProfileID, &createdAt, &sentErr, &recvErr, &p.Received.Fallback)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning plan: %w", err)
		}

		if p.TranscriptID, err = types.ParseTranscriptID(transcriptID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parsing transcript ID: %w", err)
		}
		if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		p.Sent = plan.Side{Direction: types.DirectionSent, Error: sentErr.String}
		p.Received.Direction = types.DirectionReceived
		p.Received.Error = recvErr.String

		plans = append(plans, &p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating plans: %w", err)
	}
	rows.Close()

	// Disclosures are loaded after the plan rows are closed: the store holds one connection.
	for _, p := range plans {
		if err := s.loadDisclosures(p); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

func (s *SQLiteStore) loadDisclosures(p *plan.Plan) error {
	rows, err := s.db.Query(`
		SELECT id, direction, kind, field, offset_start, offset_end,
		       start_line, start_column, end_line, end_column, fingerprint
		FROM disclosures
		WHERE plan_id = ?
		ORDER BY offset_start, kind, field, offset_end
	`, p.ID)
	if err != nil {
		return fmt.Errorf("querying disclosures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d types.Disclosure
		var fingerprint sql.NullString
		loc := &d.Location

		err := rows.Scan(
			&d.ID,
			&d.Direction,
			&d.Kind,
			&d.Field,
			&loc.Offset.Start,
			&loc.Offset.End,
			&loc.Source.Start.Line,
			&loc.Source.Start.Column,
			&loc.Source.End.Line,
			&loc.Source.End.Column,
			&fingerprint,
		)
		if err != nil {
			return fmt.Errorf("scanning disclosure: %w", err)
		}
		d.Fingerprint = fingerprint.String

		side := p.Side(d.Direction)
		side.Disclosures = append(side.Disclosures, &d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating disclosures: %w", err)
	}

	finishSide(&p.Sent)
	finishSide(&p.Received)
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
