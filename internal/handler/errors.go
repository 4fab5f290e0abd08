package handler

import (
	"errors"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/livetrack-backend-go/internal/logging"
	"github.com/jengzang/livetrack-backend-go/internal/service"
	"github.com/jengzang/livetrack-backend-go/pkg/response"
)

// respondError maps service errors to HTTP responses
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNoData):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		response.Conflict(c, err.Error())
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		response.InternalError(c, "internal error")
	}
}

// queryInt64 parses an optional integer query parameter
func queryInt64(c *gin.Context, name string, def int64) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid "+name+" parameter")
		return 0, false
	}
	return v, true
}

// timeRange reads ?from=&to= (ms); missing bounds cover the whole track
func timeRange(c *gin.Context) (from, to int64, ok bool) {
	if from, ok = queryInt64(c, "from", math.MinInt64); !ok {
		return 0, 0, false
	}
	if to, ok = queryInt64(c, "to", math.MaxInt64); !ok {
		return 0, 0, false
	}
	return from, to, true
}
