package models

// Event is a race or training session competitors are tracked in
type Event struct {
	ID        string  `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	StartTime int64   `json:"startTime" db:"start_ms"` // ms since epoch
	EndTime   int64   `json:"endTime" db:"end_ms"`     // ms since epoch
	CreatedAt *string `json:"createdAt,omitempty" db:"created_at"`
}

// CreateEventRequest is the body of POST /api/v1/events
type CreateEventRequest struct {
	ID        string `json:"id" binding:"required,max=64"`
	Name      string `json:"name" binding:"required,max=200"`
	StartTime int64  `json:"startTime" binding:"gte=0"`
	EndTime   int64  `json:"endTime" binding:"gtefield=StartTime"`
}

// IsLive reports whether now (ms) lies within the event
func (e *Event) IsLive(now int64) bool {
	return now >= e.StartTime && now <= e.EndTime
}
