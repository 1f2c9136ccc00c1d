package social

import "time"

type Post struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	UserID    string    `json:"user_id"`
	SampleID  *int64    `json:"sample_id,omitempty"`
	Text      string    `json:"text"`
	City      *string   `json:"city,omitempty"`
	Country   *string   `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Media struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// PostEvent is the read view of a post used by trip aggregation.
type PostEvent struct {
	PostID     string    `json:"post_id"`
	TripID     string    `json:"trip_id"`
	SampleID   *int64    `json:"sample_id,omitempty"`
	Text       string    `json:"text"`
	City       *string   `json:"city,omitempty"`
	Country    *string   `json:"country,omitempty"`
	MediaCount int       `json:"media_count"`
	CreatedAt  time.Time `json:"created_at"`
}
