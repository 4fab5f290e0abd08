package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/livetrack-backend-go/internal/config"
	"github.com/jengzang/livetrack-backend-go/internal/handler"
	"github.com/jengzang/livetrack-backend-go/internal/middleware"
)

// Handlers groups the HTTP handlers served by the router
type Handlers struct {
	Events *handler.EventHandler
	Tracks *handler.TrackHandler
}

// SetupRouter 设置路由. The returned stop function releases the rate limiter.
func SetupRouter(cfg *config.Config, h Handlers) (*gin.Engine, func()) {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	stop := func() {}
	if cfg.RateLimit.Requests > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		stop = limiter.Stop
		r.Use(middleware.RateLimit(limiter))
	}

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "LiveTrack Backend API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 赛事
		events := api.Group("/events")
		{
			events.POST("", h.Events.CreateEvent)
			events.GET("", h.Events.ListEvents)
			events.GET("/:id", h.Events.GetEvent)
			events.POST("/:id/competitors", h.Events.AddCompetitor)
			events.GET("/:id/competitors", h.Events.ListCompetitors)
			events.GET("/:id/data", h.Events.GetEventData)
		}

		// 选手轨迹
		competitors := api.Group("/competitors")
		{
			competitors.POST("/:id/positions", h.Tracks.IngestPositions)
			competitors.DELETE("/:id/positions", h.Tracks.ErasePositions)
			competitors.GET("/:id/position", h.Tracks.GetPosition)
			competitors.GET("/:id/track", h.Tracks.GetTrack)
			competitors.GET("/:id/stats", h.Tracks.GetStats)
		}
	}

	return r, stop
}
