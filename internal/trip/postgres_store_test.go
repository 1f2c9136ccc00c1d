package trip

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-tripline/internal/shared/apperror"

	"github.com/pashagolub/pgxmock/v3"
)

const tripID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

var (
	errTrip     = errors.New("trip error")
	tripColumns = []string{"id", "user_id", "title", "started_at", "ended_at"}
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestPostgresCreateAndGet(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO trips`).
		WithArgs(tripID, "user-1", "Sahara", t0).
		WillReturnRows(pgxmock.NewRows([]string{"started_at"}).AddRow(t0))

	created, err := store.Create(ctx, Trip{ID: tripID, UserID: "user-1", Title: "Sahara", StartedAt: t0})
	if err != nil || created.ID != tripID {
		t.Fatalf("create: %v", err)
	}

	ended := t0.Add(time.Hour)
	mock.ExpectQuery(`SELECT id::text, user_id, title, started_at, ended_at\s+FROM trips WHERE id=\$1`).
		WithArgs(tripID).
		WillReturnRows(pgxmock.NewRows(tripColumns).AddRow(tripID, "user-1", "Sahara", t0, &ended))

	got, err := store.Get(ctx, tripID)
	if err != nil || got.EndedAt == nil || !got.EndedAt.Equal(ended) {
		t.Fatalf("get: %v %+v", err, got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresGetErrors(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)
	ctx := context.Background()

	if _, err := store.Get(ctx, "not-a-uuid"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found for malformed id, got %v", err)
	}

	mock.ExpectQuery(`FROM trips WHERE id=\$1`).WithArgs(tripID).WillReturnRows(pgxmock.NewRows(tripColumns))
	if _, err := store.Get(ctx, tripID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery(`FROM trips WHERE id=\$1`).WithArgs(tripID).WillReturnError(errTrip)
	if _, err := store.Get(ctx, tripID); !errors.Is(err, apperror.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	mock.ExpectQuery(`INSERT INTO trips`).WillReturnError(errTrip)
	if _, err := store.Create(ctx, Trip{ID: tripID}); !errors.Is(err, apperror.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestPostgresEnd(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)
	ctx := context.Background()
	ended := t0.Add(time.Hour)

	mock.ExpectQuery(`UPDATE trips SET ended_at=\$2`).
		WithArgs(tripID, ended).
		WillReturnRows(pgxmock.NewRows(tripColumns).AddRow(tripID, "user-1", "", t0, &ended))

	got, err := store.End(ctx, tripID, ended)
	if err != nil || got.EndedAt == nil {
		t.Fatalf("end: %v", err)
	}

	mock.ExpectQuery(`UPDATE trips`).WithArgs(tripID, ended).WillReturnRows(pgxmock.NewRows(tripColumns))
	if _, err := store.End(ctx, tripID, ended); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresListByUser(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)

	mock.ExpectQuery(`FROM trips WHERE user_id=\$1\s+ORDER BY started_at DESC`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(tripColumns).
			AddRow(tripID, "user-1", "b", t0.Add(time.Hour), nil).
			AddRow("a8098c1a-f86e-11da-bd1a-00112444be1e", "user-1", "a", t0, nil))

	trips, err := store.ListByUser(context.Background(), "user-1")
	if err != nil || len(trips) != 2 || trips[0].EndedAt != nil {
		t.Fatalf("list: %v %+v", err, trips)
	}

	mock.ExpectQuery(`FROM trips WHERE user_id`).WithArgs("user-2").WillReturnError(errTrip)
	if _, err := store.ListByUser(context.Background(), "user-2"); !errors.Is(err, apperror.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestPostgresDeleteAndExists(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM trips`).WithArgs(tripID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	if err := store.Delete(ctx, tripID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	mock.ExpectExec(`DELETE FROM trips`).WithArgs(tripID).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	if err := store.Delete(ctx, tripID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(tripID).WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	if ok, err := store.Exists(ctx, tripID); err != nil || !ok {
		t.Fatalf("exists: %v", err)
	}
	if ok, err := store.Exists(ctx, "trip-1"); err != nil || ok {
		t.Fatalf("malformed ids never exist")
	}
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(tripID).WillReturnError(errTrip)
	if _, err := store.Exists(ctx, tripID); !errors.Is(err, apperror.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
