package tracking

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"backend-tripline/internal/db"
	"backend-tripline/internal/shared/apperror"
	"backend-tripline/internal/shared/geo"
)

const sqliteSampleColumns = `id, trip_id, recorded_at, lat, lng, accuracy_m, speed_mps, location_name`

// SQLiteStore keeps samples in the track_points table created by
// db.EnsureSQLiteSchema. Timestamps are unix nanoseconds.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: conn}
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) Append(ctx context.Context, tripID string, sample Sample) (Sample, error) {
	return s.insert(ctx, s.db, tripID, sample)
}

func (s *SQLiteStore) AppendBatch(ctx context.Context, tripID string, samples []Sample) ([]Sample, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.Upstream("begin batch", err)
	}

	out := make([]Sample, 0, len(samples))
	for _, sample := range samples {
		saved, err := s.insert(ctx, tx, tripID, sample)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		out = append(out, saved)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperror.Upstream("commit batch", err)
	}
	return out, nil
}

func (s *SQLiteStore) insert(ctx context.Context, q sqlExecer, tripID string, sample Sample) (Sample, error) {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM trips WHERE id=?`, tripID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return Sample{}, apperror.NotFound("trip", tripID)
	}
	if err != nil {
		return Sample{}, apperror.Upstream("append sample", err)
	}

	sample.TripID = tripID
	res, err := q.ExecContext(ctx, `
		INSERT INTO track_points (trip_id, recorded_at, lat, lng, accuracy_m, speed_mps, location_name)
		VALUES (?,?,?,?,?,?,?)`,
		tripID, db.SQLiteTime(sample.At), sample.Lat, sample.Lng,
		nullFloat(sample.AccuracyMeters), nullFloat(sample.SpeedMps), nullString(sample.LocationName))
	if err != nil {
		return Sample{}, apperror.Upstream("append sample", err)
	}
	if sample.ID, err = res.LastInsertId(); err != nil {
		return Sample{}, apperror.Upstream("append sample", err)
	}
	return sample, nil
}

func (s *SQLiteStore) Latest(ctx context.Context, tripID string) (*Sample, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteSampleColumns+` FROM track_points
		WHERE trip_id=? ORDER BY recorded_at DESC, id DESC LIMIT 1`, tripID)
	sample, err := scanSQLiteSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Upstream("latest sample", err)
	}
	return &sample, nil
}

func (s *SQLiteStore) Ordered(ctx context.Context, tripID string) ([]Sample, error) {
	return s.query(ctx, "ordered samples", `SELECT `+sqliteSampleColumns+` FROM track_points
		WHERE trip_id=?`+sampleOrder, tripID)
}

func (s *SQLiteStore) OrderedInRange(ctx context.Context, tripID string, start, end time.Time) ([]Sample, error) {
	return s.query(ctx, "samples in range", `SELECT `+sqliteSampleColumns+` FROM track_points
		WHERE trip_id=? AND recorded_at BETWEEN ? AND ?`+sampleOrder, tripID, db.SQLiteTime(start), db.SQLiteTime(end))
}

// Nearby prefilters with the enclosing box, then keeps samples within the
// exact haversine radius.
func (s *SQLiteStore) Nearby(ctx context.Context, tripID string, center geo.Coordinate, radiusMeters float64) ([]Sample, error) {
	candidates, err := s.InBounds(ctx, tripID, geo.BoundsAround(center, radiusMeters))
	if err != nil {
		return nil, err
	}
	out := candidates[:0]
	for _, c := range candidates {
		if geo.DistanceMeters(center, c.Coordinate) <= radiusMeters {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *SQLiteStore) InBounds(ctx context.Context, tripID string, b geo.Bounds) ([]Sample, error) {
	var where strings.Builder
	where.WriteString(`WHERE trip_id=? AND lat BETWEEN ? AND ? AND `)
	if b.MinLng > b.MaxLng {
		where.WriteString(`(lng >= ? OR lng <= ?)`)
	} else {
		where.WriteString(`lng BETWEEN ? AND ?`)
	}
	return s.query(ctx, "samples in bounds", `SELECT `+sqliteSampleColumns+` FROM track_points `+where.String()+sampleOrder,
		tripID, b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
}

func (s *SQLiteStore) Count(ctx context.Context, tripID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_points WHERE trip_id=?`, tripID).Scan(&count); err != nil {
		return 0, apperror.Upstream("count samples", err)
	}
	return count, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, tripID string, sampleID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM track_points WHERE id=? AND trip_id=?`, sampleID, tripID)
	if err != nil {
		return apperror.Upstream("delete sample", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return apperror.Upstream("delete sample", err)
	} else if n == 0 {
		return apperror.NotFound("sample", sampleID)
	}
	return nil
}

func (s *SQLiteStore) query(ctx context.Context, op, query string, args ...any) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.Upstream(op, err)
	}
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		sample, err := scanSQLiteSample(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSample(row rowScanner) (Sample, error) {
	var (
		s        Sample
		at       int64
		accuracy sql.NullFloat64
		speed    sql.NullFloat64
		name     sql.NullString
	)
	if err := row.Scan(&s.ID, &s.TripID, &at, &s.Lat, &s.Lng, &accuracy, &speed, &name); err != nil {
		return Sample{}, err
	}
	s.At = time.Unix(0, at).UTC()
	if accuracy.Valid {
		s.AccuracyMeters = &accuracy.Float64
	}
	if speed.Valid {
		s.SpeedMps = &speed.Float64
	}
	if name.Valid {
		s.LocationName = &name.String
	}
	return s, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
