package tracking

import (
	"context"
	"fmt"
	"time"

	"backend-tripline/internal/events"
	"backend-tripline/internal/metrics"
	"backend-tripline/internal/shared/apperror"
	"backend-tripline/internal/shared/geo"

	"go.uber.org/zap"
)

// TripLookup reports whether a trip exists.
type TripLookup interface {
	Exists(ctx context.Context, tripID string) (bool, error)
}

type Service struct {
	store  Store
	trips  TripLookup
	policy Policy
	sink   events.Sink
	log    *zap.Logger
	now    func() time.Time
}

func NewService(store Store, trips TripLookup, policy Policy, sink events.Sink, log *zap.Logger) *Service {
	if sink == nil {
		sink = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, trips: trips, policy: policy, sink: sink, log: log, now: time.Now}
}

// AddSample admits c into the trip. It returns nil, nil when the candidate
// is discarded as a duplicate of the latest sample.
func (s *Service) AddSample(ctx context.Context, tripID string, c SampleCandidate) (*Sample, error) {
	if err := s.requireTrip(ctx, tripID); err != nil {
		return nil, err
	}
	candidate, err := s.policy.Resolve(tripID, c, s.now())
	if err != nil {
		metrics.SamplesInvalid.Inc()
		return nil, err
	}
	s.warnIfUnreasonable(candidate)

	prior, err := s.store.Latest(ctx, tripID)
	if err != nil {
		return nil, apperror.Upstream("latest sample", err)
	}
	decision := s.policy.Decide(prior, candidate)
	if !decision.Admit {
		metrics.SamplesRejected.Inc()
		s.log.Debug("sample rejected",
			zap.String("trip_id", tripID),
			zap.Float64("distance_m", decision.DistanceMeters),
			zap.Duration("interval", decision.Interval))
		return nil, nil
	}

	saved, err := s.store.Append(ctx, tripID, candidate)
	if err != nil {
		return nil, apperror.Upstream("append sample", err)
	}
	metrics.SamplesAdmitted.Inc()
	s.publish(ctx, events.SampleAdmitted, tripID, saved)
	return &saved, nil
}

// AddSamples validates every candidate before writing anything, filters the
// batch against the policy and persists the survivors in one transaction.
func (s *Service) AddSamples(ctx context.Context, tripID string, candidates []SampleCandidate) (BatchResult, error) {
	if err := s.requireTrip(ctx, tripID); err != nil {
		return BatchResult{}, err
	}

	now := s.now()
	batch := make([]Sample, 0, len(candidates))
	for i, c := range candidates {
		sample, err := s.policy.Resolve(tripID, c, now)
		if err != nil {
			metrics.SamplesInvalid.Inc()
			return BatchResult{}, fmt.Errorf("candidate %d: %w", i, err)
		}
		s.warnIfUnreasonable(sample)
		batch = append(batch, sample)
	}

	committed, err := s.store.Latest(ctx, tripID)
	if err != nil {
		return BatchResult{}, apperror.Upstream("latest sample", err)
	}
	admitted, skipped := s.policy.AdmitBatch(committed, batch)
	metrics.SamplesRejected.Add(float64(skipped))

	result := BatchResult{Admitted: []Sample{}, Skipped: skipped}
	if len(admitted) == 0 {
		return result, nil
	}
	saved, err := s.store.AppendBatch(ctx, tripID, admitted)
	if err != nil {
		return BatchResult{}, apperror.Upstream("append batch", err)
	}
	metrics.SamplesAdmitted.Add(float64(len(saved)))
	for _, sample := range saved {
		s.publish(ctx, events.SampleAdmitted, tripID, sample)
	}
	result.Admitted = saved

	s.log.Info("bulk samples stored",
		zap.String("trip_id", tripID),
		zap.Int("admitted", len(saved)),
		zap.Int("skipped", skipped))
	return result, nil
}

func (s *Service) Samples(ctx context.Context, tripID string) ([]Sample, error) {
	if err := s.requireTrip(ctx, tripID); err != nil {
		return nil, err
	}
	return s.store.Ordered(ctx, tripID)
}

func (s *Service) SamplesInRange(ctx context.Context, tripID string, start, end time.Time) ([]Sample, error) {
	if end.Before(start) {
		return nil, apperror.Invalid("range end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if err := s.requireTrip(ctx, tripID); err != nil {
		return nil, err
	}
	return s.store.OrderedInRange(ctx, tripID, start, end)
}

func (s *Service) SamplesNear(ctx context.Context, tripID string, center geo.Coordinate, radiusMeters float64) ([]Sample, error) {
	if !center.Valid() || radiusMeters <= 0 {
		return nil, apperror.Invalid("nearby query needs a valid center and a positive radius")
	}
	if err := s.requireTrip(ctx, tripID); err != nil {
		return nil, err
	}
	return s.store.Nearby(ctx, tripID, center, radiusMeters)
}

func (s *Service) SamplesInBounds(ctx context.Context, tripID string, b geo.Bounds) ([]Sample, error) {
	if !b.Valid() {
		return nil, apperror.Invalid("invalid bounding box")
	}
	if err := s.requireTrip(ctx, tripID); err != nil {
		return nil, err
	}
	return s.store.InBounds(ctx, tripID, b)
}

// Latest returns nil when the trip has no samples yet.
func (s *Service) Latest(ctx context.Context, tripID string) (*Sample, error) {
	if err := s.requireTrip(ctx, tripID); err != nil {
		return nil, err
	}
	return s.store.Latest(ctx, tripID)
}

// TotalDistanceMeters sums the haversine legs between consecutive samples.
func (s *Service) TotalDistanceMeters(ctx context.Context, tripID string) (float64, error) {
	samples, err := s.Samples(ctx, tripID)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for i := 1; i < len(samples); i++ {
		total += geo.DistanceMeters(samples[i-1].Coordinate, samples[i].Coordinate)
	}
	return total, nil
}

// SampleCount reports how many samples the trip holds.
func (s *Service) SampleCount(ctx context.Context, tripID string) (int, error) {
	if err := s.requireTrip(ctx, tripID); err != nil {
		return 0, err
	}
	return s.store.Count(ctx, tripID)
}

func (s *Service) DeleteSample(ctx context.Context, tripID string, sampleID int64) error {
	if err := s.requireTrip(ctx, tripID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, tripID, sampleID); err != nil {
		return err
	}
	s.publish(ctx, events.SampleDeleted, tripID, map[string]int64{"id": sampleID})
	return nil
}

func (s *Service) requireTrip(ctx context.Context, tripID string) error {
	if s.trips == nil {
		return nil
	}
	ok, err := s.trips.Exists(ctx, tripID)
	if err != nil {
		return apperror.Upstream("trip lookup", err)
	}
	if !ok {
		return apperror.NotFound("trip", tripID)
	}
	return nil
}

func (s *Service) warnIfUnreasonable(sample Sample) {
	if !s.policy.Unreasonable(sample) {
		return
	}
	metrics.HighSpeed.Inc()
	s.log.Warn("unreasonable speed reported",
		zap.String("trip_id", sample.TripID),
		zap.Float64("speed_kmh", *sample.SpeedKmh()),
		zap.Float64("limit_kmh", s.policy.MaxReasonableSpeedKmh))
}

func (s *Service) publish(ctx context.Context, eventType, tripID string, payload any) {
	ev, err := events.New(eventType, tripID, payload)
	if err == nil {
		err = s.sink.Publish(ctx, ev)
	}
	if err != nil {
		s.log.Warn("event publish failed", zap.String("type", eventType), zap.String("trip_id", tripID), zap.Error(err))
	}
}
