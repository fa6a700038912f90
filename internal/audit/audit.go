// Package audit records every seed assignment of a job into a SQLite
// database, for offline diagnosis of reproducibility problems. The log is
// write-only from the job's point of view: seeding never reads it back.
package audit

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Source tells where an assigned seed came from.
type Source string

const (
	// SourceConfigured marks a seed computed by the policy at registration
	// or job-level reseeding.
	SourceConfigured Source = "configured"

	// SourceEvent marks a per-event seed.
	SourceEvent Source = "event"

	// SourceOverride marks a user-overridden (frozen) seed.
	SourceOverride Source = "override"
)

// Assignment is one audit row.
type Assignment struct {
	Engine string
	Seed   uint32
	Source Source

	// Event identity; all zero outside an event.
	Run    uint32
	SubRun uint32
	Event  uint32
}

// Log is an open audit database bound to one job token.
type Log struct {
	db    *sql.DB
	token string
	seq   int64
}

// Open creates or opens the audit database at path and stamps a fresh
// job token. Use ":memory:" for tests.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply audit schema: %w", err)
	}

	token, err := uuid.NewV7()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to generate job token: %w", err)
	}

	return &Log{db: db, token: token.String()}, nil
}

// JobToken identifies this job's rows in the database.
func (l *Log) JobToken() string { return l.token }

// Record appends one assignment row.
func (l *Log) Record(a Assignment) error {
	l.seq++
	_, err := l.db.Exec(
		`INSERT INTO assignments (job_token, at_seq, engine, seed, source, run, subrun, event)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.token, l.seq, a.Engine, a.Seed, string(a.Source), a.Run, a.SubRun, a.Event,
	)
	if err != nil {
		return fmt.Errorf("failed to record seed assignment: %w", err)
	}
	return nil
}

// Assignments reads back this job's rows in record order.
func (l *Log) Assignments() ([]Assignment, error) {
	rows, err := l.db.Query(
		`SELECT engine, seed, source, run, subrun, event
		 FROM assignments WHERE job_token = ? ORDER BY at_seq`, l.token)
	if err != nil {
		return nil, fmt.Errorf("failed to read assignments: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		var source string
		if err := rows.Scan(&a.Engine, &a.Seed, &source, &a.Run, &a.SubRun, &a.Event); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Source = Source(source)
		out = append(out, a)
	}
	return out, rows.Err()
}

// DB exposes the underlying database for direct queries. Use with
// caution; prefer the Log methods.
func (l *Log) DB() *sql.DB { return l.db }

// Close closes the database.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}
