package trip

import (
	"context"
	"time"
)

// Store persists trip records. Missing trips are reported as apperror.ErrNotFound.
type Store interface {
	Create(ctx context.Context, t Trip) (Trip, error)
	Get(ctx context.Context, id string) (Trip, error)
	End(ctx context.Context, id string, at time.Time) (Trip, error)
	ListByUser(ctx context.Context, userID string) ([]Trip, error)
	// Delete removes the trip together with its samples and posts.
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}
