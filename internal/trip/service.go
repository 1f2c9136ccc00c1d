package trip

import (
	"context"
	"time"

	"backend-tripline/internal/events"
	"backend-tripline/internal/metrics"
	"backend-tripline/internal/shared/apperror"
	"backend-tripline/internal/social"
	"backend-tripline/internal/tracking"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SampleSource reads a trip's samples in time order.
type SampleSource interface {
	Ordered(ctx context.Context, tripID string) ([]tracking.Sample, error)
}

type Service struct {
	store   Store
	samples SampleSource
	posts   social.Source
	sink    events.Sink
	log     *zap.Logger
	now     func() time.Time
}

func NewService(store Store, samples SampleSource, posts social.Source, sink events.Sink, log *zap.Logger) *Service {
	if sink == nil {
		sink = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, samples: samples, posts: posts, sink: sink, log: log, now: time.Now}
}

func (s *Service) StartTrip(ctx context.Context, input Trip) (Trip, error) {
	input.ID = uuid.NewString()
	input.StartedAt = s.now().UTC()
	input.EndedAt = nil
	t, err := s.store.Create(ctx, input)
	if err != nil {
		return Trip{}, err
	}
	s.log.Info("trip started", zap.String("trip_id", t.ID), zap.String("user_id", t.UserID))
	return t, nil
}

func (s *Service) EndTrip(ctx context.Context, id string) (Trip, error) {
	t, err := s.store.End(ctx, id, s.now().UTC())
	if err != nil {
		return Trip{}, err
	}
	ev, err := events.New(events.TripEnded, t.ID, t)
	if err == nil {
		err = s.sink.Publish(ctx, ev)
	}
	if err != nil {
		s.log.Warn("event publish failed", zap.String("type", events.TripEnded), zap.String("trip_id", id), zap.Error(err))
	}
	return t, nil
}

func (s *Service) GetTrip(ctx context.Context, id string) (Trip, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) DeleteTrip(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("trip deleted", zap.String("trip_id", id))
	return nil
}

// Exists lets the tracking and social services check trip ids.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.store.Exists(ctx, id)
}

func (s *Service) TripWithStats(ctx context.Context, id string) (TripWithStats, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return TripWithStats{}, err
	}
	stats, err := s.computeStats(ctx, id)
	if err != nil {
		return TripWithStats{}, err
	}
	return TripWithStats{Trip: t, Stats: stats}, nil
}

// TripsByUser lists a user's trips, newest first, each with its stats.
func (s *Service) TripsByUser(ctx context.Context, userID string) ([]TripWithStats, error) {
	trips, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]TripWithStats, 0, len(trips))
	for _, t := range trips {
		stats, err := s.computeStats(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, TripWithStats{Trip: t, Stats: stats})
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context, id string) (Stats, error) {
	if err := s.requireTrip(ctx, id); err != nil {
		return Stats{}, err
	}
	return s.computeStats(ctx, id)
}

func (s *Service) Segments(ctx context.Context, id string) ([]Segment, error) {
	if err := s.requireTrip(ctx, id); err != nil {
		return nil, err
	}
	samples, err := s.samples.Ordered(ctx, id)
	if err != nil {
		return nil, apperror.Upstream("ordered samples", err)
	}
	return Segments(samples), nil
}

func (s *Service) Timeline(ctx context.Context, id string) (Timeline, error) {
	if err := s.requireTrip(ctx, id); err != nil {
		return Timeline{}, err
	}
	defer observe("timeline", time.Now())

	samples, err := s.samples.Ordered(ctx, id)
	if err != nil {
		return Timeline{}, apperror.Upstream("ordered samples", err)
	}
	postsBySample := make(map[int64][]social.PostEvent, len(samples))
	for _, sample := range samples {
		posts, err := s.posts.PostsForSample(ctx, sample.ID)
		if err != nil {
			return Timeline{}, apperror.Upstream("posts for sample", err)
		}
		postsBySample[sample.ID] = posts
	}

	tl := BuildTimeline(samples, postsBySample)
	s.log.Debug("timeline built",
		zap.String("trip_id", id),
		zap.Int("items", len(tl.Items)),
		zap.Float64("distance_km", tl.Stats.TotalDistanceKm),
		zap.Int("photos", tl.Stats.TotalPhotos))
	return tl, nil
}

func (s *Service) computeStats(ctx context.Context, id string) (Stats, error) {
	defer observe("stats", time.Now())

	samples, err := s.samples.Ordered(ctx, id)
	if err != nil {
		return Stats{}, apperror.Upstream("ordered samples", err)
	}
	posts, err := s.posts.PostsForTrip(ctx, id)
	if err != nil {
		return Stats{}, apperror.Upstream("posts for trip", err)
	}
	return ComputeStats(samples, posts), nil
}

func (s *Service) requireTrip(ctx context.Context, id string) error {
	ok, err := s.store.Exists(ctx, id)
	if err != nil {
		return apperror.Upstream("trip lookup", err)
	}
	if !ok {
		return apperror.NotFound("trip", id)
	}
	return nil
}

func observe(kind string, start time.Time) {
	metrics.AggregationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
