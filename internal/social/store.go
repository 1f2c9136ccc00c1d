package social

import "context"

// Source reads the posts attached to a trip's samples. Results are ordered
// by creation time.
type Source interface {
	PostsForSample(ctx context.Context, sampleID int64) ([]PostEvent, error)
	PostsForTrip(ctx context.Context, tripID string) ([]PostEvent, error)
}

type Store interface {
	Source
	CreatePost(ctx context.Context, p Post) (Post, error)
	AddMedia(ctx context.Context, m Media) (Media, error)
}
