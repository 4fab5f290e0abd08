package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jengzang/livetrack-backend-go/pkg/gpsenc"
)

var (
	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "livetrack_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Track decoding
	TrackDecodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livetrack_track_decode_errors_total",
			Help: "Encoded tracks that could not be fully decoded",
		},
		[]string{"source", "kind"}, // source: ingest, upstream; kind: truncated, overflow, invalid_char, out_of_range, other
	)

	PositionsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livetrack_positions_ingested_total",
			Help: "Positions accepted through the ingest API",
		},
	)

	PositionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livetrack_positions_rejected_total",
			Help: "Positions dropped because they were out of range",
		},
	)

	// Live registry
	ArchiveSwaps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livetrack_archive_swaps_total",
			Help: "Archive replacements by outcome",
		},
		[]string{"outcome"}, // applied, stale
	)

	LiveCompetitors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livetrack_live_competitors",
			Help: "Competitors with an archive in memory",
		},
	)

	// Upstream polling
	UpstreamPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livetrack_upstream_polls_total",
			Help: "Upstream poll attempts by result",
		},
		[]string{"result"}, // ok, error, circuit_open
	)

	UpstreamPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "livetrack_upstream_poll_duration_seconds",
			Help:    "Duration of upstream polls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// RecordDecodeError counts a failed track decode by its cause
func RecordDecodeError(source string, err error) {
	TrackDecodeErrors.WithLabelValues(source, DecodeErrorKind(err)).Inc()
}

// DecodeErrorKind names the gpsenc failure behind err
func DecodeErrorKind(err error) string {
	switch {
	case errors.Is(err, gpsenc.ErrTruncated):
		return "truncated"
	case errors.Is(err, gpsenc.ErrOverflow):
		return "overflow"
	case errors.Is(err, gpsenc.ErrInvalidChar):
		return "invalid_char"
	case errors.Is(err, gpsenc.ErrOutOfRange):
		return "out_of_range"
	default:
		return "other"
	}
}
