package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/livetrack-backend-go/internal/models"
	"github.com/jengzang/livetrack-backend-go/internal/service"
	"github.com/jengzang/livetrack-backend-go/pkg/response"
)

// EventHandler handles HTTP requests for events and competitors
type EventHandler struct {
	eventService *service.EventService
	trackService *service.TrackService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *service.EventService, trackService *service.TrackService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		trackService: trackService,
	}
}

// CreateEvent handles POST /api/v1/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, event)
}

// ListEvents handles GET /api/v1/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.eventService.ListEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, events)
}

// GetEvent handles GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.eventService.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, event)
}

// AddCompetitor handles POST /api/v1/events/:id/competitors
func (h *EventHandler) AddCompetitor(c *gin.Context) {
	var req models.CreateCompetitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	competitor, err := h.eventService.AddCompetitor(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, competitor)
}

// ListCompetitors handles GET /api/v1/events/:id/competitors
func (h *EventHandler) ListCompetitors(c *gin.Context) {
	competitors, err := h.eventService.ListCompetitors(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, competitors)
}

// GetEventData handles GET /api/v1/events/:id/data, the periodic poll payload
func (h *EventHandler) GetEventData(c *gin.Context) {
	data, err := h.trackService.EventData(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, data)
}
