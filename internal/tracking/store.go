package tracking

import (
	"context"
	"time"

	"backend-tripline/internal/shared/geo"
)

// Store persists admitted samples. Every read returns samples ordered by
// timestamp ascending with ties broken by id. Driver failures are reported
// as apperror.ErrUpstreamUnavailable.
type Store interface {
	// Append persists s and returns it with its id. Unknown trips yield apperror.ErrNotFound.
	Append(ctx context.Context, tripID string, s Sample) (Sample, error)
	// AppendBatch persists every sample in one transaction or none of them.
	AppendBatch(ctx context.Context, tripID string, samples []Sample) ([]Sample, error)
	// Latest returns nil, nil for a trip without samples.
	Latest(ctx context.Context, tripID string) (*Sample, error)
	Ordered(ctx context.Context, tripID string) ([]Sample, error)
	// OrderedInRange includes both bounds.
	OrderedInRange(ctx context.Context, tripID string, start, end time.Time) ([]Sample, error)
	Nearby(ctx context.Context, tripID string, center geo.Coordinate, radiusMeters float64) ([]Sample, error)
	InBounds(ctx context.Context, tripID string, b geo.Bounds) ([]Sample, error)
	Count(ctx context.Context, tripID string) (int, error)
	// Delete removes a sample of tripID. Samples of other trips yield apperror.ErrNotFound.
	Delete(ctx context.Context, tripID string, sampleID int64) error
}
