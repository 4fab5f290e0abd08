package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/livetrack-backend-go/internal/models"
)

// CompetitorRepository handles database operations for competitors
type CompetitorRepository struct {
	db *sql.DB
}

// NewCompetitorRepository creates a new competitor repository
func NewCompetitorRepository(db *sql.DB) *CompetitorRepository {
	return &CompetitorRepository{db: db}
}

// Create inserts a new competitor
func (r *CompetitorRepository) Create(ctx context.Context, c *models.Competitor) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO competitors (id, event_id, name, short_name) VALUES (?, ?, ?, ?)`,
		c.ID, c.EventID, c.Name, c.ShortName)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("competitor %s: %w", c.ID, ErrConflict)
		}
		return fmt.Errorf("failed to create competitor: %w", err)
	}
	return nil
}

// GetByID retrieves a single competitor, or nil when it does not exist
func (r *CompetitorRepository) GetByID(ctx context.Context, id string) (*models.Competitor, error) {
	var c models.Competitor
	err := r.db.QueryRowContext(ctx,
		`SELECT id, event_id, name, short_name, created_at FROM competitors WHERE id = ?`, id,
	).Scan(&c.ID, &c.EventID, &c.Name, &c.ShortName, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competitor: %w", err)
	}
	return &c, nil
}

// ListByEvent retrieves the competitors of an event ordered by name
func (r *CompetitorRepository) ListByEvent(ctx context.Context, eventID string) ([]models.Competitor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, name, short_name, created_at FROM competitors
		WHERE event_id = ? ORDER BY name, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitors: %w", err)
	}
	defer rows.Close()

	competitors := []models.Competitor{}
	for rows.Next() {
		var c models.Competitor
		if err := rows.Scan(&c.ID, &c.EventID, &c.Name, &c.ShortName, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan competitor: %w", err)
		}
		competitors = append(competitors, c)
	}
	return competitors, rows.Err()
}
