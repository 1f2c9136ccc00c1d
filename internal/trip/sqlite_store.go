package trip

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"backend-tripline/internal/shared/apperror"
)

const sqliteTripColumns = `id, user_id, title, started_at, ended_at`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: conn}
}

func (s *SQLiteStore) Create(ctx context.Context, t Trip) (Trip, error) {
	_, err := s.db.ExecContext(ctx, `INSERT INTO trips (id, user_id, title, started_at) VALUES (?,?,?,?)`,
		t.ID, t.UserID, t.Title, t.StartedAt.UnixNano())
	if err != nil {
		return Trip{}, apperror.Upstream("create trip", err)
	}
	t.StartedAt = time.Unix(0, t.StartedAt.UnixNano()).UTC()
	return t, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Trip, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteTripColumns+` FROM trips WHERE id=?`, id)
	t, err := scanSQLiteTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Trip{}, apperror.NotFound("trip", id)
	}
	if err != nil {
		return Trip{}, apperror.Upstream("get trip", err)
	}
	return t, nil
}

func (s *SQLiteStore) End(ctx context.Context, id string, at time.Time) (Trip, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE trips SET ended_at=? WHERE id=?`, at.UnixNano(), id)
	if err != nil {
		return Trip{}, apperror.Upstream("end trip", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return Trip{}, apperror.Upstream("end trip", err)
	} else if n == 0 {
		return Trip{}, apperror.NotFound("trip", id)
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]Trip, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteTripColumns+` FROM trips WHERE user_id=? ORDER BY started_at DESC`, userID)
	if err != nil {
		return nil, apperror.Upstream("list trips", err)
	}
	defer rows.Close()

	trips := []Trip{}
	for rows.Next() {
		t, err := scanSQLiteTrip(rows)
		if err != nil {
			return nil, apperror.Upstream("list trips", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Upstream("list trips", err)
	}
	return trips, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trips WHERE id=?`, id)
	if err != nil {
		return apperror.Upstream("delete trip", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return apperror.Upstream("delete trip", err)
	} else if n == 0 {
		return apperror.NotFound("trip", id)
	}
	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM trips WHERE id=?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperror.Upstream("trip exists", err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTrip(row rowScanner) (Trip, error) {
	var (
		t       Trip
		started int64
		ended   sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &started, &ended); err != nil {
		return Trip{}, err
	}
	t.StartedAt = time.Unix(0, started).UTC()
	if ended.Valid {
		e := time.Unix(0, ended.Int64).UTC()
		t.EndedAt = &e
	}
	return t, nil
}
