package trip

import (
	"context"
	"errors"
	"time"

	"backend-tripline/internal/db"
	"backend-tripline/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PostgresStore struct {
	db db.Querier
}

func NewPostgresStore(db db.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, t Trip) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO trips (id, user_id, title, started_at)
		VALUES ($1,$2,$3,$4)
		RETURNING started_at
	`, t.ID, t.UserID, t.Title, t.StartedAt)
	if err := row.Scan(&t.StartedAt); err != nil {
		return Trip{}, apperror.Upstream("create trip", err)
	}
	return t, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Trip, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Trip{}, apperror.NotFound("trip", id)
	}
	row := s.db.QueryRow(ctx, `
		SELECT id::text, user_id, title, started_at, ended_at
		FROM trips WHERE id=$1
	`, id)
	t, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trip{}, apperror.NotFound("trip", id)
	}
	if err != nil {
		return Trip{}, apperror.Upstream("get trip", err)
	}
	return t, nil
}

func (s *PostgresStore) End(ctx context.Context, id string, at time.Time) (Trip, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Trip{}, apperror.NotFound("trip", id)
	}
	row := s.db.QueryRow(ctx, `
		UPDATE trips SET ended_at=$2
		WHERE id=$1
		RETURNING id::text, user_id, title, started_at, ended_at
	`, id, at)
	t, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trip{}, apperror.NotFound("trip", id)
	}
	if err != nil {
		return Trip{}, apperror.Upstream("end trip", err)
	}
	return t, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Trip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, user_id, title, started_at, ended_at
		FROM trips WHERE user_id=$1
		ORDER BY started_at DESC
	`, userID)
	if err != nil {
		return nil, apperror.Upstream("list trips", err)
	}
	defer rows.Close()

	trips := []Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
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

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NotFound("trip", id)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM trips WHERE id=$1`, id)
	if err != nil {
		return apperror.Upstream("delete trip", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("trip", id)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, apperror.Upstream("trip exists", err)
	}
	return exists, nil
}

func scanTrip(row pgx.Row) (Trip, error) {
	var t Trip
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.StartedAt, &t.EndedAt)
	return t, err
}
