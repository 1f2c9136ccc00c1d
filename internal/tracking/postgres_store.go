package tracking

import (
	"context"
	"errors"
	"time"

	"backend-tripline/internal/db"
	"backend-tripline/internal/shared/apperror"
	"backend-tripline/internal/shared/geo"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	sampleColumns = `id, trip_id::text, recorded_at, lat, lng, accuracy_m, speed_mps, location_name`
	sampleOrder   = ` ORDER BY recorded_at, id`

	insertSampleSQL = `
		INSERT INTO track_points (trip_id, recorded_at, lat, lng, accuracy_m, speed_mps, location_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id`

	foreignKeyViolation = "23503"
)

type PostgresStore struct {
	db db.Querier
}

func NewPostgresStore(db db.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, tripID string, sample Sample) (Sample, error) {
	sample.TripID = tripID
	row := s.db.QueryRow(ctx, insertSampleSQL, insertArgs(sample)...)
	if err := row.Scan(&sample.ID); err != nil {
		return Sample{}, pgError("append sample", tripID, err)
	}
	return sample, nil
}

func (s *PostgresStore) AppendBatch(ctx context.Context, tripID string, samples []Sample) ([]Sample, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.Upstream("begin batch", err)
	}

	out := make([]Sample, 0, len(samples))
	for _, sample := range samples {
		sample.TripID = tripID
		if err := tx.QueryRow(ctx, insertSampleSQL, insertArgs(sample)...).Scan(&sample.ID); err != nil {
			_ = tx.Rollback(ctx)
			return nil, pgError("append batch", tripID, err)
		}
		out = append(out, sample)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.Upstream("commit batch", err)
	}
	return out, nil
}

func (s *PostgresStore) Latest(ctx context.Context, tripID string) (*Sample, error) {
	row := s.db.QueryRow(ctx, `SELECT `+sampleColumns+` FROM track_points
		WHERE trip_id=$1
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1`, tripID)
	sample, err := scanSample(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Upstream("latest sample", err)
	}
	return &sample, nil
}

func (s *PostgresStore) Ordered(ctx context.Context, tripID string) ([]Sample, error) {
	return s.query(ctx, "ordered samples", `SELECT `+sampleColumns+` FROM track_points
		WHERE trip_id=$1`+sampleOrder, tripID)
}

func (s *PostgresStore) OrderedInRange(ctx context.Context, tripID string, start, end time.Time) ([]Sample, error) {
	return s.query(ctx, "samples in range", `SELECT `+sampleColumns+` FROM track_points
		WHERE trip_id=$1 AND recorded_at BETWEEN $2 AND $3`+sampleOrder, tripID, start, end)
}

func (s *PostgresStore) Nearby(ctx context.Context, tripID string, center geo.Coordinate, radiusMeters float64) ([]Sample, error) {
	// use_spheroid=false keeps the radius consistent with the haversine math
	return s.query(ctx, "nearby samples", `SELECT `+sampleColumns+` FROM track_points
		WHERE trip_id=$1
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($2,$3), 4326)::geography, $4, false)`+sampleOrder,
		tripID, center.Lng, center.Lat, radiusMeters)
}

func (s *PostgresStore) InBounds(ctx context.Context, tripID string, b geo.Bounds) ([]Sample, error) {
	lngClause := `lng BETWEEN $4 AND $5`
	if b.MinLng > b.MaxLng {
		lngClause = `(lng >= $4 OR lng <= $5)`
	}
	return s.query(ctx, "samples in bounds", `SELECT `+sampleColumns+` FROM track_points
		WHERE trip_id=$1 AND lat BETWEEN $2 AND $3 AND `+lngClause+sampleOrder,
		tripID, b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
}

func (s *PostgresStore) Count(ctx context.Context, tripID string) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM track_points WHERE trip_id=$1`, tripID).Scan(&count); err != nil {
		return 0, apperror.Upstream("count samples", err)
	}
	return count, nil
}

func (s *PostgresStore) Delete(ctx context.Context, tripID string, sampleID int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM track_points WHERE id=$1 AND trip_id=$2`, sampleID, tripID)
	if err != nil {
		return apperror.Upstream("delete sample", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("sample", sampleID)
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, op, sql string, args ...any) ([]Sample, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.Upstream(op, err)
	}
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, apperror.Upstream(op, err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Upstream(op, err)
	}
	return samples, nil
}

func scanSample(row pgx.Row) (Sample, error) {
	var s Sample
	err := row.Scan(&s.ID, &s.TripID, &s.At, &s.Lat, &s.Lng, &s.AccuracyMeters, &s.SpeedMps, &s.LocationName)
	return s, err
}

func insertArgs(s Sample) []any {
	return []any{s.TripID, s.At, s.Lat, s.Lng, s.AccuracyMeters, s.SpeedMps, s.LocationName}
}

func pgError(op, tripID string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return apperror.NotFound("trip", tripID)
	}
	return apperror.Upstream(op, err)
}
