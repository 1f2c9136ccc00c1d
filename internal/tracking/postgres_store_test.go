package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-tripline/internal/shared/apperror"
	"backend-tripline/internal/shared/geo"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
)

var sampleRowColumns = []string{"id", "trip_id", "recorded_at", "lat", "lng", "accuracy_m", "speed_mps", "location_name"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestPostgresAppend(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)

	mock.ExpectQuery(`INSERT INTO track_points`).
		WithArgs("trip-1", t0, 36.8, 10.18, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	s, err := store.Append(context.Background(), "trip-1", sampleAt(36.8, 10.18, 0))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if s.ID != 42 || s.TripID != "trip-1" {
		t.Fatalf("unexpected sample: %+v", s)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresAppendUnknownTrip(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)

	mock.ExpectQuery(`INSERT INTO track_points`).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := store.Append(context.Background(), "missing", sampleAt(0, 0, 0))
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresAppendDriverError(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)

	mock.ExpectQuery(`INSERT INTO track_points`).WillReturnError(errTrack)

	_, err := store.Append(context.Background(), "trip-1", sampleAt(0, 0, 0))
	if !errors.Is(err, apperror.ErrUpstreamUnavailable) || !errors.Is(err, errTrack) {
		t.Fatalf("expected upstream error wrapping the cause, got %v", err)
	}
}

func TestPostgresAppendBatch(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO track_points`).WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`INSERT INTO track_points`).WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	out, err := store.AppendBatch(context.Background(), "trip-1", []Sample{sampleAt(0, 0, 0), sampleAt(0, 1, time.Minute)})
	if err != nil {
		t.Fatalf("append batch: %v", err)
	}
	if len(out) != 2 || out[0].ID != 1 || out[1].ID != 2 {
		t.Fatalf("unexpected batch: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresAppendBatchRollsBack(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO track_points`).WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`INSERT INTO track_points`).WillReturnError(errTrack)
	mock.ExpectRollback()

	_, err := store.AppendBatch(context.Background(), "trip-1", []Sample{sampleAt(0, 0, 0), sampleAt(0, 1, time.Minute)})
	if !errors.Is(err, apperror.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresAppendBatchEmpty(t *testing.T) {
	out, err := NewPostgresStore(nil).AppendBatch(context.Background(), "trip-1", nil)
	if err != nil || out != nil {
		t.Fatalf("expected no-op for empty batch")
	}
}

func TestPostgresLatest(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)

	mock.ExpectQuery(`SELECT id, trip_id::text, recorded_at, lat, lng .* ORDER BY recorded_at DESC, id DESC`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows(sampleRowColumns).AddRow(int64(3), "trip-1", t0, 1.0, 2.0, nil, ptr(1.5), ptr("Tunis")))

	latest, err := store.Latest(context.Background(), "trip-1")
	if err != nil || latest == nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != 3 || latest.AccuracyMeters != nil || *latest.SpeedMps != 1.5 || *latest.LocationName != "Tunis" {
		t.Fatalf("unexpected latest: %+v", latest)
	}

	mock.ExpectQuery(`SELECT id, trip_id::text`).
		WithArgs("trip-2").
		WillReturnRows(pgxmock.NewRows(sampleRowColumns))

	latest, err = store.Latest(context.Background(), "trip-2")
	if err != nil || latest != nil {
		t.Fatalf("expected nil for empty trip, got %+v %v", latest, err)
	}

	mock.ExpectQuery(`SELECT id, trip_id::text`).WithArgs("trip-3").WillReturnError(errTrack)
	if _, err := store.Latest(context.Background(), "trip-3"); !errors.Is(err, apperror.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestPostgresOrderedQueries(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)
	ctx := context.Background()

	rows := func() *pgxmock.Rows {
		return pgxmock.NewRows(sampleRowColumns).
			AddRow(int64(1), "trip-1", t0, 0.0, 0.0, nil, nil, nil).
			AddRow(int64(2), "trip-1", t0.Add(time.Minute), 0.0, 0.01, nil, ptr(0.3), nil)
	}

	mock.ExpectQuery(`FROM track_points\s+WHERE trip_id=\$1 ORDER BY recorded_at, id`).
		WithArgs("trip-1").WillReturnRows(rows())
	samples, err := store.Ordered(ctx, "trip-1")
	if err != nil || len(samples) != 2 || samples[1].ID != 2 {
		t.Fatalf("ordered: %v %+v", err, samples)
	}

	mock.ExpectQuery(`recorded_at BETWEEN \$2 AND \$3`).
		WithArgs("trip-1", t0, t0.Add(time.Minute)).WillReturnRows(rows())
	if samples, err = store.OrderedInRange(ctx, "trip-1", t0, t0.Add(time.Minute)); err != nil || len(samples) != 2 {
		t.Fatalf("in range: %v", err)
	}

	mock.ExpectQuery(`ST_DWithin\(location`).
		WithArgs("trip-1", 0.0, 0.0, 500.0).WillReturnRows(rows())
	if samples, err = store.Nearby(ctx, "trip-1", geo.Coordinate{}, 500); err != nil || len(samples) != 2 {
		t.Fatalf("nearby: %v", err)
	}

	mock.ExpectQuery(`lat BETWEEN \$2 AND \$3 AND lng BETWEEN \$4 AND \$5`).
		WithArgs("trip-1", -1.0, 1.0, -1.0, 1.0).WillReturnRows(rows())
	if samples, err = store.InBounds(ctx, "trip-1", geo.Bounds{MinLat: -1, MinLng: -1, MaxLat: 1, MaxLng: 1}); err != nil || len(samples) != 2 {
		t.Fatalf("in bounds: %v", err)
	}

	mock.ExpectQuery(`\(lng >= \$4 OR lng <= \$5\)`).
		WithArgs("trip-1", -1.0, 1.0, 179.0, -179.0).WillReturnRows(pgxmock.NewRows(sampleRowColumns))
	samples, err = store.InBounds(ctx, "trip-1", geo.Bounds{MinLat: -1, MinLng: 179, MaxLat: 1, MaxLng: -179})
	if err != nil || samples == nil || len(samples) != 0 {
		t.Fatalf("expected empty non-nil slice across the antimeridian: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresOrderedQueryError(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)

	mock.ExpectQuery(`FROM track_points`).WithArgs("trip-1").WillReturnError(errTrack)
	if _, err := store.Ordered(context.Background(), "trip-1"); !errors.Is(err, apperror.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestPostgresCountAndDelete(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM track_points`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	if n, err := store.Count(ctx, "trip-1"); err != nil || n != 2 {
		t.Fatalf("count: %d %v", n, err)
	}

	mock.ExpectExec(`DELETE FROM track_points`).WithArgs(int64(9), "trip-1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	if err := store.Delete(ctx, "trip-1", 9); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mock.ExpectExec(`DELETE FROM track_points`).WithArgs(int64(10), "trip-1").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	if err := store.Delete(ctx, "trip-1", 10); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectExec(`DELETE FROM track_points`).WithArgs(int64(11), "trip-1").WillReturnError(errTrack)
	if err := store.Delete(ctx, "trip-1", 11); !errors.Is(err, apperror.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

var errTrack = errors.New("track error")
