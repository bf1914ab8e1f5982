package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/business-forecast/pkg/version"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres persists snapshots in a PostgreSQL table with JSONB payloads.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// OpenPostgres connects to dsn and creates the versions table if needed.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store requires a dsn (store.dsn or DATABASE_URL)")
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Postgres{pool: pool, now: time.Now}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Create inserts a snapshot; re-inserting an existing id is a no-op.
func (p *Postgres) Create(ctx context.Context, snap version.Snapshot) (version.Snapshot, error) {
	if snap.ID == "" {
		snap = version.Stamp(snap, p.now())
	}
	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: failed to marshal payload: %w", version.ErrEncoding, err)
	}
	drv, err := json.Marshal(snap.Drivers)
	if err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: failed to marshal drivers: %w", version.ErrEncoding, err)
	}
	opts, err := json.Marshal(snap.Options)
	if err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: failed to marshal options: %w", version.ErrEncoding, err)
	}

	query := `
		INSERT INTO forecast_versions
			(id, scenario_key, label, summary, forecast_payload, drivers, options, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err = p.pool.Exec(ctx, query, snap.ID, snap.ScenarioKey, snap.Label, snap.Summary,
		payload, drv, opts, snap.CreatedBy, snap.CreatedAt)
	if err != nil {
		return version.Snapshot{}, fmt.Errorf("failed to save version: %w", err)
	}
	return p.Get(ctx, snap.ID)
}

const postgresSelect = `SELECT id::text, scenario_key, label, COALESCE(summary, ''), forecast_payload, drivers, options,
	COALESCE(created_by, ''), created_at FROM forecast_versions`

// Get returns one snapshot.
func (p *Postgres) Get(ctx context.Context, id string) (version.Snapshot, error) {
	snap, err := scanPostgres(p.pool.QueryRow(ctx, postgresSelect+" WHERE id::text = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return version.Snapshot{}, fmt.Errorf("%w: %s", version.ErrNotFound, id)
	}
	return snap, err
}

// List returns all snapshots, newest first.
func (p *Postgres) List(ctx context.Context) ([]version.Snapshot, error) {
	rows, err := p.pool.Query(ctx, postgresSelect+" ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var snapshots []version.Snapshot
	for rows.Next() {
		snap, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// Delete removes one snapshot.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, "DELETE FROM forecast_versions WHERE id::text = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", version.ErrNotFound, id)
	}
	return nil
}

func scanPostgres(row pgx.Row) (version.Snapshot, error) {
	var snap version.Snapshot
	var payload, drv, opts []byte
	if err := row.Scan(&snap.ID, &snap.ScenarioKey, &snap.Label, &snap.Summary, &payload, &drv, &opts,
		&snap.CreatedBy, &snap.CreatedAt); err != nil {
		return version.Snapshot{}, err
	}
	snap.CreatedAt = snap.CreatedAt.UTC()
	if err := json.Unmarshal(payload, &snap.Payload); err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: failed to unmarshal payload: %w", version.ErrEncoding, err)
	}
	if err := json.Unmarshal(drv, &snap.Drivers); err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: failed to unmarshal drivers: %w", version.ErrEncoding, err)
	}
	if err := json.Unmarshal(opts, &snap.Options); err != nil {
		return version.Snapshot{}, fmt.Errorf("%w: failed to unmarshal options: %w", version.ErrEncoding, err)
	}
	return snap, nil
}
