package models

// Competitor is a tracked participant of an event
type Competitor struct {
	ID        string  `json:"id" db:"id"`
	EventID   string  `json:"eventId" db:"event_id"`
	Name      string  `json:"name" db:"name"`
	ShortName string  `json:"shortName" db:"short_name"`
	CreatedAt *string `json:"createdAt,omitempty" db:"created_at"`
}

// CreateCompetitorRequest is the body of POST /api/v1/events/:id/competitors
type CreateCompetitorRequest struct {
	ID        string `json:"id" binding:"required,max=64"`
	Name      string `json:"name" binding:"required,max=200"`
	ShortName string `json:"shortName" binding:"max=32"`
}
