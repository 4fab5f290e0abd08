package models

import "github.com/jengzang/livetrack-backend-go/pkg/positions"

// TrackPoint is a GPS sample as exchanged over the JSON API
type TrackPoint struct {
	Timestamp int64   `json:"timestamp" binding:"gte=0"` // ms since epoch
	Latitude  float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" binding:"gte=-180,lte=180"`
}

// IngestRequest carries new samples for one competitor, either as a list or as
// an encoded track string
type IngestRequest struct {
	Positions   []TrackPoint `json:"positions" binding:"omitempty,dive"`
	EncodedData string       `json:"encoded_data"`
}

// TrackResponse is a piece of a competitor's track
type TrackResponse struct {
	CompetitorID string                 `json:"competitorId"`
	From         int64                  `json:"from"`
	To           int64                  `json:"to"`
	Count        int                    `json:"count"`
	Positions    []TrackPoint           `json:"positions"`
	EncodedData  string                 `json:"encoded_data"`
	Bounds       *positions.BoundingBox `json:"bounds,omitempty"`
}

// ToPosition converts the API representation to an archive sample
func (p TrackPoint) ToPosition() positions.Position {
	return positions.Position{Timestamp: p.Timestamp, Latitude: p.Latitude, Longitude: p.Longitude}
}

// FromPosition converts an archive sample to the API representation
func FromPosition(p positions.Position) TrackPoint {
	return TrackPoint{Timestamp: p.Timestamp, Latitude: p.Latitude, Longitude: p.Longitude}
}

// FromPositions converts archive samples to the API representation
func FromPositions(ps []positions.Position) []TrackPoint {
	out := make([]TrackPoint, len(ps))
	for i, p := range ps {
		out[i] = FromPosition(p)
	}
	return out
}
