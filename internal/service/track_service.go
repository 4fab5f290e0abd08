package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jengzang/livetrack-backend-go/internal/live"
	"github.com/jengzang/livetrack-backend-go/internal/logging"
	"github.com/jengzang/livetrack-backend-go/internal/metrics"
	"github.com/jengzang/livetrack-backend-go/internal/models"
	"github.com/jengzang/livetrack-backend-go/internal/repository"
	"github.com/jengzang/livetrack-backend-go/internal/spatial"
	"github.com/jengzang/livetrack-backend-go/pkg/gpsenc"
	"github.com/jengzang/livetrack-backend-go/pkg/positions"
)

// TrackOptions tunes TrackService
type TrackOptions struct {
	// LiveWindow is how recent the last sample must be for a competitor to count as live
	LiveWindow time.Duration
	// SpeedWindow is the trailing window speed and bearing are computed over
	SpeedWindow time.Duration
	// Now is the clock; time.Now when nil
	Now func() time.Time
}

// TrackService handles ingestion and queries of competitor tracks
type TrackService struct {
	eventRepo      *repository.EventRepository
	competitorRepo *repository.CompetitorRepository
	positionRepo   *repository.PositionRepository
	registry       *live.Registry
	opts           TrackOptions
}

// NewTrackService creates a new track service
func NewTrackService(
	eventRepo *repository.EventRepository,
	competitorRepo *repository.CompetitorRepository,
	positionRepo *repository.PositionRepository,
	registry *live.Registry,
	opts TrackOptions,
) *TrackService {
	if opts.LiveWindow <= 0 {
		opts.LiveWindow = time.Minute
	}
	if opts.SpeedWindow <= 0 {
		opts.SpeedWindow = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &TrackService{
		eventRepo:      eventRepo,
		competitorRepo: competitorRepo,
		positionRepo:   positionRepo,
		registry:       registry,
		opts:           opts,
	}
}

func (s *TrackService) now() int64 {
	return s.opts.Now().UnixMilli()
}

func (s *TrackService) competitor(ctx context.Context, id string) (*models.Competitor, error) {
	c, err := s.competitorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get competitor: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("competitor %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// snapshot returns the published archive of a competitor, loading it from the
// database on first use
func (s *TrackService) snapshot(ctx context.Context, id string) (*live.Snapshot, error) {
	if snap, ok := s.registry.Get(id); ok {
		return snap, nil
	}
	if _, err := s.competitor(ctx, id); err != nil {
		return nil, err
	}

	a, err := s.positionRepo.LoadArchive(ctx, id, 0, math.MaxInt64)
	if err != nil {
		return nil, fmt.Errorf("failed to load track: %w", err)
	}

	var dataTs int64
	if last, ok := a.Last(); ok {
		dataTs = last.Timestamp
	}
	// someone else may have published meanwhile; theirs is at least as new
	if err := s.registry.Replace(id, a, dataTs); err != nil && !errors.Is(err, live.ErrStale) {
		return nil, err
	}
	metrics.LiveCompetitors.Set(float64(s.registry.Len()))

	snap, _ := s.registry.Get(id)
	return snap, nil
}

// Ingest stores samples for a competitor and publishes the updated track.
// Out-of-range samples are dropped; it returns how many were accepted.
func (s *TrackService) Ingest(ctx context.Context, id string, points []positions.Position) (int, error) {
	if _, err := s.competitor(ctx, id); err != nil {
		return 0, err
	}

	valid := make([]positions.Position, 0, len(points))
	for _, p := range points {
		if p.Valid() {
			valid = append(valid, p)
		}
	}
	if rejected := len(points) - len(valid); rejected > 0 {
		metrics.PositionsRejected.Add(float64(rejected))
		logging.Ctx(ctx).Debug().Str("competitor", id).Int("rejected", rejected).Msg("dropped invalid positions")
	}
	if len(valid) == 0 {
		return 0, fmt.Errorf("%w: no valid positions", ErrInvalidInput)
	}

	if err := s.positionRepo.UpsertBatch(ctx, id, valid); err != nil {
		return 0, fmt.Errorf("failed to store positions: %w", err)
	}

	if _, ok := s.registry.Get(id); ok {
		s.registry.Update(id, func(a *positions.Archive) {
			for _, p := range valid {
				a.Add(p)
			}
		})
		metrics.ArchiveSwaps.WithLabelValues("applied").Inc()
	} else if _, err := s.snapshot(ctx, id); err != nil {
		// the database already has the new samples
		return 0, err
	}

	metrics.PositionsIngested.Add(float64(len(valid)))
	return len(valid), nil
}

// IngestEncoded decodes an encoded track and ingests its samples. A truncated
// string keeps every complete sample; any other corruption rejects the payload.
func (s *TrackService) IngestEncoded(ctx context.Context, id string, encoded string) (int, error) {
	a, err := positions.FromEncoded(encoded)
	if err != nil {
		metrics.RecordDecodeError("ingest", err)
		if !errors.Is(err, gpsenc.ErrTruncated) {
			return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		logging.Ctx(ctx).Warn().Err(err).Str("competitor", id).Int("kept", a.Len()).Msg("truncated track, keeping decoded samples")
	}
	return s.Ingest(ctx, id, a.Positions())
}

// PositionAt returns the (possibly interpolated) position of a competitor at t
func (s *TrackService) PositionAt(ctx context.Context, id string, t int64) (positions.Position, error) {
	snap, err := s.snapshot(ctx, id)
	if err != nil {
		return positions.Position{}, err
	}

	p, ok := snap.Archive.GetByTime(t)
	if !ok {
		return positions.Position{}, fmt.Errorf("competitor %s: %w", id, ErrNoData)
	}
	return p, nil
}

// Track returns the part of a competitor's track between from and to. A
// positive tolerance (meters) thins the returned samples.
func (s *TrackService) Track(ctx context.Context, id string, from, to int64, tolerance float64) (*models.TrackResponse, error) {
	if from > to {
		return nil, fmt.Errorf("%w: from is after to", ErrInvalidInput)
	}

	snap, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	sub := snap.Archive.ExtractInterval(from, to)
	if tolerance > 0 {
		sub = sub.Simplify(tolerance)
	}
	resp := &models.TrackResponse{
		CompetitorID: id,
		From:         from,
		To:           to,
		Count:        sub.Len(),
		Positions:    models.FromPositions(sub.Positions()),
		EncodedData:  sub.Encode(),
	}
	if b, ok := sub.Bounds(); ok {
		resp.Bounds = &b
	}
	return resp, nil
}

// Erase removes a competitor's samples with from <= timestamp <= to
func (s *TrackService) Erase(ctx context.Context, id string, from, to int64) (int64, error) {
	if from > to {
		return 0, fmt.Errorf("%w: from is after to", ErrInvalidInput)
	}
	if _, err := s.competitor(ctx, id); err != nil {
		return 0, err
	}

	removed, err := s.positionRepo.DeleteInterval(ctx, id, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to erase positions: %w", err)
	}

	// tracks not in memory yet are loaded from the database later
	if _, ok := s.registry.Get(id); ok {
		s.registry.Update(id, func(a *positions.Archive) {
			a.EraseInterval(from, to)
		})
		metrics.ArchiveSwaps.WithLabelValues("applied").Inc()
	}
	return removed, nil
}

// Stats summarises a competitor's track at time t. t == 0 means now and a
// non-positive window falls back to the configured speed window.
func (s *TrackService) Stats(ctx context.Context, id string, t int64, window time.Duration) (*models.CompetitorStats, error) {
	snap, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	a := snap.Archive
	now := s.now()
	if t == 0 {
		t = now
	}
	if window <= 0 {
		window = s.opts.SpeedWindow
	}

	st := &models.CompetitorStats{
		CompetitorID: id,
		At:           t,
		Distance:     a.DistanceUntil(t),
		Speed:        a.SpeedAt(t, window),
		Duration:     a.Duration(),
		PointCount:   a.Len(),
		Live:         a.HasPointInInterval(now-s.opts.LiveWindow.Milliseconds(), now),
	}

	if p, ok := a.GetByTime(t); ok {
		tp := models.FromPosition(p)
		st.Position = &tp

		prev, _ := a.GetByTime(t - window.Milliseconds())
		if prev.Latitude != p.Latitude || prev.Longitude != p.Longitude {
			st.Bearing = spatial.Bearing(prev.Latitude, prev.Longitude, p.Latitude, p.Longitude)
		}
	}
	if age, ok := a.Age(now); ok {
		st.Age = &age
	}
	return st, nil
}

// EventData builds the poll payload of an event: every competitor's samples
// within the event window as an encoded track
func (s *TrackService) EventData(ctx context.Context, eventID string) (*models.LiveData, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}

	competitors, err := s.competitorRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}

	data := &models.LiveData{
		EventID:     eventID,
		Timestamp:   s.now(),
		Competitors: make([]models.CompetitorLiveData, 0, len(competitors)),
	}
	for _, c := range competitors {
		snap, err := s.snapshot(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		data.Competitors = append(data.Competitors, models.CompetitorLiveData{
			ID:          c.ID,
			Name:        c.Name,
			ShortName:   c.ShortName,
			EncodedData: snap.Archive.Between(event.StartTime, event.EndTime).Encode(),
		})
	}
	return data, nil
}
