package tracking

import (
	"time"

	"backend-tripline/internal/shared/geo"
)

// Sample is an admitted, persisted track point.
type Sample struct {
	ID     int64     `json:"id"`
	TripID string    `json:"trip_id"`
	At     time.Time `json:"timestamp"`
	geo.Coordinate
	AccuracyMeters *float64 `json:"accuracy_m,omitempty"`
	SpeedMps       *float64 `json:"speed_mps,omitempty"`
	LocationName   *string  `json:"location_name,omitempty"`
}

// SpeedKmh returns the reported speed in km/h, or nil when none was reported.
func (s Sample) SpeedKmh() *float64 {
	if s.SpeedMps == nil {
		return nil
	}
	v := geo.SpeedKmh(*s.SpeedMps)
	return &v
}

// SampleCandidate is an unvalidated sample as submitted by a client.
type SampleCandidate struct {
	Timestamp      time.Time `json:"timestamp"`
	Lat            *float64  `json:"lat"`
	Lng            *float64  `json:"lng"`
	AccuracyMeters *float64  `json:"accuracy_m"`
	SpeedMps       *float64  `json:"speed_mps"`
	LocationName   *string   `json:"location_name"`
}

type BatchResult struct {
	Admitted []Sample `json:"admitted"`
	Skipped  int      `json:"skipped"`
}
