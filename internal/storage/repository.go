// Package storage persists dashboard snapshots in PostgreSQL.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/weatherdash/internal/dashboard"
	"github.com/neexbeast/weatherdash/internal/weather"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Snapshot is the latest dashboard stored for a location.
type Snapshot struct {
	LocationID int                 `json:"location_id"`
	Name       string              `json:"name"`
	Country    string              `json:"country"`
	Data       dashboard.Dashboard `json:"data"`
	FetchedAt  *time.Time          `json:"fetched_at,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Repository provides access to the snapshots table.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository over any Querier.
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

const snapshotColumns = `location_id, name, country, data, fetched_at, created_at, updated_at`

// GetSnapshotByName returns the most recently fetched snapshot whose location name
// matches name case-insensitively, or nil, nil when there is none.
func (r *Repository) GetSnapshotByName(ctx context.Context, name string) (*Snapshot, error) {
	const q = `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE lower(name) = lower($1)
		AND data ? 'current'
		ORDER BY fetched_at DESC NULLS LAST
		LIMIT 1
	`

	s, err := scanSnapshot(r.q.QueryRow(ctx, q, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying snapshot for %s: %w", name, err)
	}
	return s, nil
}

// UpsertSnapshot stores d under its location id, replacing any previous snapshot.
func (r *Repository) UpsertSnapshot(ctx context.Context, d dashboard.Dashboard) error {
	c := d.Current
	dataJSON, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling dashboard for %s: %w", c.Name, err)
	}

	const q = `
		INSERT INTO snapshots (location_id, name, country, data, fetched_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (location_id) DO UPDATE
		SET name       = EXCLUDED.name,
		    country    = EXCLUDED.country,
		    data       = EXCLUDED.data,
		    fetched_at = EXCLUDED.fetched_at,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := r.q.Exec(ctx, q, c.LocationID, c.Name, c.Country, dataJSON, d.GeneratedAt); err != nil {
		return fmt.Errorf("upserting snapshot for %s: %w", c.Name, err)
	}
	return nil
}

// ListSnapshotsByCondition returns snapshots whose current conditions have the given
// category, newest first.
func (r *Repository) ListSnapshotsByCondition(ctx context.Context, category weather.Category) ([]*Snapshot, error) {
	filter, err := json.Marshal(map[string]any{
		"current": map[string]any{"category": category},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling JSONB filter: %w", err)
	}

	const q = `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE data @> $1::jsonb
		ORDER BY fetched_at DESC NULLS LAST
	`

	rows, err := r.q.Query(ctx, q, string(filter))
	if err != nil {
		return nil, fmt.Errorf("querying snapshots by condition %s: %w", category, err)
	}
	defer rows.Close()

	results := []*Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}
	return results, nil
}

func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var s Snapshot
	var dataJSON []byte

	if err := row.Scan(
		&s.LocationID,
		&s.Name,
		&s.Country,
		&dataJSON,
		&s.FetchedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dataJSON, &s.Data); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot data for %s: %w", s.Name, err)
	}
	return &s, nil
}
