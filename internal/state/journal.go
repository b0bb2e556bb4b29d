// Package state persists status observations. The journal is a record of
// what was reported; it is never consulted when classifying.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Ning0612/syncprobe/internal/domain"
)

// DBFile is the journal database file name inside the data directory
const DBFile = "syncprobe.db"

// Journal handles observation persistence
type Journal struct {
	db *sql.DB
}

// Observation is one recorded status report
type Observation struct {
	ID              string            `json:"id" yaml:"id"`
	Path            string            `json:"path" yaml:"path"`
	Provider        string            `json:"provider" yaml:"provider"`
	Status          domain.SyncStatus `json:"status" yaml:"status"`
	FullyDownloaded bool              `json:"fully_downloaded" yaml:"fully_downloaded"`
	ByteSize        *int64            `json:"byte_size,omitempty" yaml:"byte_size,omitempty"`
	Error           string            `json:"error,omitempty" yaml:"error,omitempty"`
	ObservedAt      time.Time         `json:"observed_at" yaml:"observed_at"`
}

// Open opens (creating if needed) the journal in dataDir
func Open(dataDir string) (*Journal, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataDir, DBFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection avoids "database is locked" under parallel queries
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS observations (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		path TEXT NOT NULL,
		provider TEXT NOT NULL,
		status TEXT NOT NULL,
		fully_downloaded INTEGER NOT NULL DEFAULT 0,
		byte_size INTEGER,
		error TEXT NOT NULL DEFAULT '',
		observed_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_observations_path_time ON observations(path, observed_at DESC);
	`

	_, err := j.db.Exec(schema)
	return err
}

// Record stores a report and returns the stored observation
func (j *Journal) Record(report domain.StatusReport) (Observation, error) {
	if !report.Status.IsValid() {
		return Observation{}, fmt.Errorf("invalid status: %q", report.Status)
	}

	obs := Observation{
		ID:              uuid.NewString(),
		Path:            report.Path,
		Provider:        report.Provider,
		Status:          report.Status,
		FullyDownloaded: report.FullyDownloaded,
		ByteSize:        report.ByteSize,
		Error:           report.Error,
		ObservedAt:      report.ObservedAt.UTC(),
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now().UTC()
	}

	var size sql.NullInt64
	if obs.ByteSize != nil {
		size = sql.NullInt64{Int64: *obs.ByteSize, Valid: true}
	}

	_, err := j.db.Exec(`
		INSERT INTO observations (id, path, provider, status, fully_downloaded, byte_size, error, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		obs.ID,
		obs.Path,
		obs.Provider,
		string(obs.Status),
		obs.FullyDownloaded,
		size,
		obs.Error,
		obs.ObservedAt,
	)
	if err != nil {
		return Observation{}, fmt.Errorf("failed to save observation: %w", err)
	}

	return obs, nil
}

const selectColumns = `SELECT id, path, provider, status, fully_downloaded, byte_size, error, observed_at FROM observations`

// History returns the most recent observations for path, newest first
func (j *Journal) History(path string, limit int) ([]Observation, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := j.db.Query(selectColumns+`
		WHERE path = ?
		ORDER BY observed_at DESC, seq DESC
		LIMIT ?
	`, path, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return scanAll(rows)
}

// Recent returns the most recent observations across all paths
func (j *Journal) Recent(limit int) ([]Observation, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := j.db.Query(selectColumns+`
		ORDER BY observed_at DESC, seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent observations: %w", err)
	}
	return scanAll(rows)
}

// Last returns the latest observation for path, or nil if there is none
func (j *Journal) Last(path string) (*Observation, error) {
	obs, err := j.History(path, 1)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, nil
	}
	return &obs[0], nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanObservation(s scanner) (Observation, error) {
	var (
		obs    Observation
		status string
		size   sql.NullInt64
	)
	err := s.Scan(
		&obs.ID,
		&obs.Path,
		&obs.Provider,
		&status,
		&obs.FullyDownloaded,
		&size,
		&obs.Error,
		&obs.ObservedAt,
	)
	if err != nil {
		return Observation{}, err
	}

	obs.Status = domain.SyncStatus(status)
	if size.Valid {
		v := size.Int64
		obs.ByteSize = &v
	}
	return obs, nil
}

func scanAll(rows *sql.Rows) ([]Observation, error) {
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		out = append(out, obs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}

	return out, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}
