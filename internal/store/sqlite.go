package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iwvelando/business-forecast/pkg/version"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SQLite persists snapshots to a local database file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the version database at the given path.
func OpenSQLite(ctx context.Context, dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening version db: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Create inserts a snapshot. Re-inserting an existing id is a no-op that
// returns the stored record, which keeps retried creates idempotent.
func (s *SQLite) Create(ctx context.Context, snap version.Snapshot) (version.Snapshot, error) {
	if snap.ID == "" {
		snap = version.Stamp(snap, s.now())
	}
	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: encoding payload: %w", version.ErrEncoding, err)
	}
	drv, err := json.Marshal(snap.Drivers)
	if err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: encoding drivers: %w", version.ErrEncoding, err)
	}
	opts, err := json.Marshal(snap.Options)
	if err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: encoding options: %w", version.ErrEncoding, err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO forecast_versions
		(id, scenario_key, label, summary, forecast_payload, drivers, options, created_by, created_at, created_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		snap.ID, snap.ScenarioKey, snap.Label, snap.Summary, string(payload), string(drv), string(opts),
		snap.CreatedBy, snap.CreatedAt.UTC().Format(time.RFC3339Nano), snap.CreatedAt.UnixNano(),
	)
	if err != nil {
		return version.Snapshot{}, fmt.Errorf("inserting version: %w", err)
	}
	return s.Get(ctx, snap.ID)
}

const sqliteSelect = `SELECT id, scenario_key, label, summary, forecast_payload, drivers, options, created_by, created_at
	FROM forecast_versions`

// Get returns one snapshot.
func (s *SQLite) Get(ctx context.Context, id string) (version.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, sqliteSelect+" WHERE id = ?", id)
	snap, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return version.Snapshot{}, fmt.Errorf("%w: %s", version.ErrNotFound, id)
	}
	return snap, err
}

// List returns all snapshots, newest first.
func (s *SQLite) List(ctx context.Context) ([]version.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelect+" ORDER BY created_at_ns DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []version.Snapshot
	for rows.Next() {
		snap, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// Delete removes one snapshot.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM forecast_versions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", version.ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLite(row rowScanner) (version.Snapshot, error) {
	var snap version.Snapshot
	var summary, createdBy sql.NullString
	var payload, drv, opts, createdAt string

	if err := row.Scan(&snap.ID, &snap.ScenarioKey, &snap.Label, &summary, &payload, &drv, &opts, &createdBy, &createdAt); err != nil {
		return version.Snapshot{}, err
	}
	if summary.Valid {
		snap.Summary = summary.String
	}
	if createdBy.Valid {
		snap.CreatedBy = createdBy.String
	}

	var err error
	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return version.Snapshot{}, fmt.Errorf("parsing created_at for %s: %w", snap.ID, err)
	}
	if err := json.Unmarshal([]byte(payload), &snap.Payload); err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: decoding payload for %s: %w", version.ErrEncoding, snap.ID, err)
	}
	if err := json.Unmarshal([]byte(drv), &snap.Drivers); err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: decoding drivers for %s: %w", version.ErrEncoding, snap.ID, err)
	}
	if err := json.Unmarshal([]byte(opts), &snap.Options); err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: decoding options for %s: %w", version.ErrEncoding, snap.ID, err)
	}
	return snap, nil
}
