package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jengzang/livetrack-backend-go/internal/models"
	"github.com/jengzang/livetrack-backend-go/internal/repository"
)

// EventService handles events and their competitors
type EventService struct {
	eventRepo      *repository.EventRepository
	competitorRepo *repository.CompetitorRepository
}

// NewEventService creates a new event service
func NewEventService(eventRepo *repository.EventRepository, competitorRepo *repository.CompetitorRepository) *EventService {
	return &EventService{
		eventRepo:      eventRepo,
		competitorRepo: competitorRepo,
	}
}

// CreateEvent creates a new event
func (s *EventService) CreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.Event, error) {
	if req.EndTime < req.StartTime {
		return nil, fmt.Errorf("%w: event ends before it starts", ErrInvalidInput)
	}

	e := &models.Event{
		ID:        req.ID,
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("event %s: %w", req.ID, ErrConflict)
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return e, nil
}

// GetEvent retrieves an event
func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if e == nil {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return e, nil
}

// ListEvents retrieves all events
func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// AddCompetitor registers a competitor in an event
func (s *EventService) AddCompetitor(ctx context.Context, eventID string, req models.CreateCompetitorRequest) (*models.Competitor, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	c := &models.Competitor{
		ID:        req.ID,
		EventID:   eventID,
		Name:      req.Name,
		ShortName: req.ShortName,
	}
	if err := s.competitorRepo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("competitor %s: %w", req.ID, ErrConflict)
		}
		return nil, fmt.Errorf("failed to add competitor: %w", err)
	}
	return c, nil
}

// ListCompetitors retrieves the competitors of an event
func (s *EventService) ListCompetitors(ctx context.Context, eventID string) ([]models.Competitor, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	competitors, err := s.competitorRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}
	return competitors, nil
}
