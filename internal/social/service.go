package social

import (
	"context"
	"strings"
	"time"

	"backend-tripline/internal/shared/apperror"

	"github.com/google/uuid"
)

// TripLookup reports whether a trip exists.
type TripLookup interface {
	Exists(ctx context.Context, tripID string) (bool, error)
}

type Service struct {
	store Store
	trips TripLookup
	now   func() time.Time
}

func NewService(store Store, trips TripLookup) *Service {
	return &Service{store: store, trips: trips, now: time.Now}
}

func (s *Service) CreatePost(ctx context.Context, input Post) (Post, error) {
	if s.trips != nil {
		ok, err := s.trips.Exists(ctx, input.TripID)
		if err != nil {
			return Post{}, apperror.Upstream("trip lookup", err)
		}
		if !ok {
			return Post{}, apperror.NotFound("trip", input.TripID)
		}
	}
	input.ID = uuid.NewString()
	input.City = trimmed(input.City)
	input.Country = trimmed(input.Country)
	input.CreatedAt = s.now().UTC()
	return s.store.CreatePost(ctx, input)
}

func (s *Service) AddMedia(ctx context.Context, postID, url, kind string) (Media, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return Media{}, apperror.NotFound("post", postID)
	}
	if strings.TrimSpace(url) == "" {
		return Media{}, apperror.Invalid("media url required")
	}
	if kind == "" {
		kind = "photo"
	}
	return s.store.AddMedia(ctx, Media{
		ID:        uuid.NewString(),
		PostID:    postID,
		URL:       url,
		Kind:      kind,
		CreatedAt: s.now().UTC(),
	})
}

func (s *Service) PostsForSample(ctx context.Context, sampleID int64) ([]PostEvent, error) {
	return s.store.PostsForSample(ctx, sampleID)
}

func (s *Service) PostsForTrip(ctx context.Context, tripID string) ([]PostEvent, error) {
	return s.store.PostsForTrip(ctx, tripID)
}

// trimmed drops blank place names so they are stored as absent.
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
