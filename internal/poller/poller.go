// Package poller mirrors the live tracks of an event from another tracking server.
package poller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jengzang/livetrack-backend-go/internal/live"
	"github.com/jengzang/livetrack-backend-go/internal/logging"
	"github.com/jengzang/livetrack-backend-go/internal/metrics"
	"github.com/jengzang/livetrack-backend-go/internal/models"
	"github.com/jengzang/livetrack-backend-go/pkg/gpsenc"
	"github.com/jengzang/livetrack-backend-go/pkg/positions"
)

// Config configures a Poller
type Config struct {
	// URL is the base address of the upstream server
	URL     string
	EventID string
	// Interval between polls
	Interval time.Duration
	// Timeout of a single HTTP request
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold uint32
	// OpenTimeout is how long the circuit stays open before a trial request
	OpenTimeout time.Duration
}

// Poller periodically fetches the poll payload of an event and publishes every
// competitor's track into a live.Registry
type Poller struct {
	cfg      Config
	endpoint string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker[*models.LiveData]
	registry *live.Registry
}

// envelope is the response wrapper used by the upstream API
type envelope struct {
	Code    int              `json:"code"`
	Message string           `json:"message"`
	Data    *models.LiveData `json:"data"`
}

// New creates a poller publishing into registry
func New(cfg Config, registry *live.Registry) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	p := &Poller{
		cfg: cfg,
		endpoint: fmt.Sprintf("%s/api/v1/events/%s/data",
			strings.TrimRight(cfg.URL, "/"), url.PathEscape(cfg.EventID)),
		client:   &http.Client{Timeout: cfg.Timeout},
		registry: registry,
	}

	p.cb = gobreaker.NewCircuitBreaker[*models.LiveData](gobreaker.Settings{
		Name:        "upstream",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("upstream circuit state changed")
		},
	})
	return p
}

// Run polls until ctx is cancelled. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) error {
	log := logging.With().Str("component", "poller").Str("event", p.cfg.EventID).Logger()
	log.Info().Str("endpoint", p.endpoint).Dur("interval", p.cfg.Interval).Msg("starting upstream poller")

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		n, err := p.Poll(ctx)
		switch {
		case err == nil:
			log.Debug().Int("competitors", n).Msg("upstream poll applied")
		case ctx.Err() == nil:
			log.Warn().Err(err).Msg("upstream poll failed")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("upstream poller stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll fetches the payload once and publishes it. It returns the number of
// competitors whose archive was replaced.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	start := time.Now()
	data, err := p.cb.Execute(func() (*models.LiveData, error) {
		return p.fetch(ctx)
	})
	metrics.UpstreamPollDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.UpstreamPolls.WithLabelValues("circuit_open").Inc()
		} else {
			metrics.UpstreamPolls.WithLabelValues("error").Inc()
		}
		return 0, err
	}
	metrics.UpstreamPolls.WithLabelValues("ok").Inc()

	return p.apply(data), nil
}

func (p *Poller) fetch(ctx context.Context) (*models.LiveData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", p.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %d", p.endpoint, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if env.Code != 0 || env.Data == nil {
		return nil, fmt.Errorf("upstream error %d: %s", env.Code, env.Message)
	}
	return env.Data, nil
}

// apply decodes every competitor into a brand-new archive and swaps it in.
// Payloads older than what is published are dropped.
func (p *Poller) apply(data *models.LiveData) int {
	applied := 0
	for _, c := range data.Competitors {
		a, err := positions.FromEncoded(c.EncodedData)
		if err != nil {
			metrics.RecordDecodeError("upstream", err)
			if !errors.Is(err, gpsenc.ErrTruncated) {
				logging.Warn().Err(err).Str("competitor", c.ID).Msg("skipping undecodable upstream track")
				continue
			}
		}

		if err := p.registry.Replace(c.ID, a, data.Timestamp); err != nil {
			if errors.Is(err, live.ErrStale) {
				metrics.ArchiveSwaps.WithLabelValues("stale").Inc()
				continue
			}
			logging.Error().Err(err).Str("competitor", c.ID).Msg("failed to publish upstream track")
			continue
		}
		metrics.ArchiveSwaps.WithLabelValues("applied").Inc()
		applied++
	}
	metrics.LiveCompetitors.Set(float64(p.registry.Len()))
	return applied
}
