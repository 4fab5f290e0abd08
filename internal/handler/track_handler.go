package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/livetrack-backend-go/internal/models"
	"github.com/jengzang/livetrack-backend-go/internal/service"
	"github.com/jengzang/livetrack-backend-go/pkg/positions"
	"github.com/jengzang/livetrack-backend-go/pkg/response"
)

// TrackHandler handles HTTP requests for competitor tracks
type TrackHandler struct {
	trackService *service.TrackService
}

// NewTrackHandler creates a new track handler
func NewTrackHandler(trackService *service.TrackService) *TrackHandler {
	return &TrackHandler{
		trackService: trackService,
	}
}

// IngestPositions handles POST /api/v1/competitors/:id/positions
func (h *TrackHandler) IngestPositions(c *gin.Context) {
	var req models.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Positions) == 0 && req.EncodedData == "" {
		response.BadRequest(c, "positions or encoded_data is required")
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	accepted := 0

	if req.EncodedData != "" {
		n, err := h.trackService.IngestEncoded(ctx, id, req.EncodedData)
		if err != nil {
			respondError(c, err)
			return
		}
		accepted += n
	}

	if len(req.Positions) > 0 {
		ps := make([]positions.Position, len(req.Positions))
		for i, p := range req.Positions {
			ps[i] = p.ToPosition()
		}
		n, err := h.trackService.Ingest(ctx, id, ps)
		if err != nil {
			respondError(c, err)
			return
		}
		accepted += n
	}

	response.Success(c, gin.H{"accepted": accepted})
}

// ErasePositions handles DELETE /api/v1/competitors/:id/positions?from=&to=
func (h *TrackHandler) ErasePositions(c *gin.Context) {
	if c.Query("from") == "" || c.Query("to") == "" {
		response.BadRequest(c, "from and to are required")
		return
	}
	from, to, ok := timeRange(c)
	if !ok {
		return
	}

	removed, err := h.trackService.Erase(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"removed": removed})
}

// GetPosition handles GET /api/v1/competitors/:id/position?t=
func (h *TrackHandler) GetPosition(c *gin.Context) {
	t, ok := queryInt64(c, "t", time.Now().UnixMilli())
	if !ok {
		return
	}

	p, err := h.trackService.PositionAt(c.Request.Context(), c.Param("id"), t)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, models.FromPosition(p))
}

// GetTrack handles GET /api/v1/competitors/:id/track?from=&to=&simplify=
func (h *TrackHandler) GetTrack(c *gin.Context) {
	from, to, ok := timeRange(c)
	if !ok {
		return
	}

	var tolerance float64
	if raw := c.Query("simplify"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			response.BadRequest(c, "Invalid simplify parameter")
			return
		}
		tolerance = v
	}

	track, err := h.trackService.Track(c.Request.Context(), c.Param("id"), from, to, tolerance)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, track)
}

// GetStats handles GET /api/v1/competitors/:id/stats?t=&window=
func (h *TrackHandler) GetStats(c *gin.Context) {
	t, ok := queryInt64(c, "t", 0)
	if !ok {
		return
	}

	var window time.Duration
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			response.BadRequest(c, "Invalid window parameter")
			return
		}
		window = d
	}

	stats, err := h.trackService.Stats(c.Request.Context(), c.Param("id"), t, window)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, stats)
}
