package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/livetrack-backend-go/internal/models"
)

// EventRepository handles database operations for events
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, name, start_ms, end_ms) VALUES (?, ?, ?, ?)`,
		e.ID, e.Name, e.StartTime, e.EndTime)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("event %s: %w", e.ID, ErrConflict)
		}
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetByID retrieves a single event, or nil when it does not exist
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, start_ms, end_ms, created_at FROM events WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &e.StartTime, &e.EndTime, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &e, nil
}

// List retrieves all events, most recent first
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, start_ms, end_ms, created_at FROM events ORDER BY start_ms DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.StartTime, &e.EndTime, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
