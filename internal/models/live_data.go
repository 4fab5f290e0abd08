package models

// LiveData is the periodic poll payload of an event. Clients decode each
// competitor's encoded_data into a fresh archive.
type LiveData struct {
	EventID     string               `json:"event_id"`
	Timestamp   int64                `json:"timestamp"` // server time (ms) the payload was built at
	Competitors []CompetitorLiveData `json:"competitors"`
}

// CompetitorLiveData is one competitor's track inside LiveData
type CompetitorLiveData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	EncodedData string `json:"encoded_data"`
}

// CompetitorStats summarises a competitor's track at a given time
type CompetitorStats struct {
	CompetitorID string      `json:"competitorId"`
	At           int64       `json:"at"`
	Position     *TrackPoint `json:"position,omitempty"`
	Distance     float64     `json:"distance"` // meters since start
	Speed        float64     `json:"speed"`    // m/s over the speed window
	Bearing      float64     `json:"bearing"`  // degrees, 0 = north
	Duration     int64       `json:"duration"` // ms covered by the track
	Age          *int64      `json:"age,omitempty"`
	PointCount   int         `json:"pointCount"`
	Live         bool        `json:"live"`
}
