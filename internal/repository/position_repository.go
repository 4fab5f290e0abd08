package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/livetrack-backend-go/internal/database"
	"github.com/jengzang/livetrack-backend-go/pkg/positions"
)

// PositionRepository handles database operations for GPS samples
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// UpsertBatch stores samples for a competitor. A sample with an existing
// timestamp replaces the stored one.
func (r *PositionRepository) UpsertBatch(ctx context.Context, competitorID string, ps []positions.Position) error {
	if len(ps) == 0 {
		return nil
	}

	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO positions (competitor_id, ts_ms, latitude, longitude)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (competitor_id, ts_ms) DO UPDATE SET latitude = excluded.latitude, longitude = excluded.longitude`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range ps {
			if _, err := stmt.ExecContext(ctx, competitorID, p.Timestamp, p.Latitude, p.Longitude); err != nil {
				return fmt.Errorf("failed to store position %d: %w", p.Timestamp, err)
			}
		}
		return nil
	})
}

// LoadArchive reads the samples of a competitor with from <= timestamp <= to
// into a new archive
func (r *PositionRepository) LoadArchive(ctx context.Context, competitorID string, from, to int64) (*positions.Archive, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ts_ms, latitude, longitude FROM positions
		WHERE competitor_id = ? AND ts_ms >= ? AND ts_ms <= ?
		ORDER BY ts_ms`, competitorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	a := positions.New()
	for rows.Next() {
		var p positions.Position
		if err := rows.Scan(&p.Timestamp, &p.Latitude, &p.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		a.Push(p)
	}
	return a, rows.Err()
}

// DeleteInterval removes the samples of a competitor with start <= timestamp <= end
func (r *PositionRepository) DeleteInterval(ctx context.Context, competitorID string, start, end int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM positions WHERE competitor_id = ? AND ts_ms >= ? AND ts_ms <= ?`,
		competitorID, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to delete positions: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored samples of a competitor
func (r *PositionRepository) Count(ctx context.Context, competitorID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM positions WHERE competitor_id = ?`, competitorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count positions: %w", err)
	}
	return n, nil
}
