package trip

import (
	"time"

	"backend-tripline/internal/social"
)

type Trip struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// TripWithStats is the trip record together with its derived statistics.
type TripWithStats struct {
	Trip
	Stats Stats `json:"stats"`
}

// Stats summarises a trip. It is recomputed from samples and posts on every
// request and never stored.
type Stats struct {
	StepsCount         int                `json:"steps_count"`
	TotalDistanceKm    float64            `json:"total_distance_km"`
	CountriesCount     int                `json:"countries_count"`
	CitiesCount        int                `json:"cities_count"`
	PhotosCount        int                `json:"photos_count"`
	TransportBreakdown map[string]float64 `json:"transport_breakdown"`
}

// Segment is the leg between two consecutive samples.
type Segment struct {
	FromSampleID    int64   `json:"from_sample_id"`
	ToSampleID      int64   `json:"to_sample_id"`
	DistanceKm      float64 `json:"distance_km"`
	DurationSeconds int64   `json:"duration_seconds"`
	Mode            Mode    `json:"mode,omitempty"`
}

type TimelineItem struct {
	SampleID                int64              `json:"sample_id"`
	Timestamp               time.Time          `json:"timestamp"`
	Lat                     float64            `json:"lat"`
	Lng                     float64            `json:"lng"`
	LocationName            *string            `json:"location_name,omitempty"`
	SpeedKmh                *float64           `json:"speed_kmh,omitempty"`
	AccuracyMeters          *float64           `json:"accuracy_m,omitempty"`
	IsSignificant           bool               `json:"is_significant"`
	DistanceFromPreviousKm  *float64           `json:"distance_from_previous_km,omitempty"`
	TimeFromPreviousSeconds *int64             `json:"time_from_previous_seconds,omitempty"`
	Posts                   []social.PostEvent `json:"posts"`
	PhotoCount              int                `json:"photo_count"`
}

type TimelineStats struct {
	TotalDistanceKm      float64 `json:"total_distance_km"`
	TotalDurationSeconds int64   `json:"total_duration_seconds"`
	AvgSpeedKmh          float64 `json:"avg_speed_kmh"`
	MaxSpeedKmh          float64 `json:"max_speed_kmh"`
	TotalPhotos          int     `json:"total_photos"`
	TotalTrackPoints     int     `json:"total_track_points"`
}

type Timeline struct {
	Items []TimelineItem `json:"items"`
	Stats TimelineStats  `json:"stats"`
}
