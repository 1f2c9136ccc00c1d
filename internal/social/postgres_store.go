package social

import (
	"context"
	"errors"

	"backend-tripline/internal/db"
	"backend-tripline/internal/shared/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const postEventSelect = `
	SELECT p.id::text, p.trip_id::text, p.track_point_id, p.text, p.city, p.country, p.created_at,
	       (SELECT COUNT(*) FROM post_media m WHERE m.post_id = p.id)
	FROM posts p`

type PostgresStore struct {
	db db.Querier
}

func NewPostgresStore(db db.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreatePost(ctx context.Context, p Post) (Post, error) {
	// an anchor sample must belong to the post's trip
	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, trip_id, user_id, track_point_id, text, city, country, created_at)
		SELECT $1::uuid, $2::uuid, $3::text, $4::bigint, $5::text, $6::text, $7::text, $8::timestamptz
		WHERE $4::bigint IS NULL
		   OR EXISTS (SELECT 1 FROM track_points WHERE id=$4::bigint AND trip_id=$2::uuid)
		RETURNING created_at
	`, p.ID, p.TripID, p.UserID, p.SampleID, p.Text, p.City, p.Country, p.CreatedAt)
	if err := row.Scan(&p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isForeignKeyViolation(err) {
			return Post{}, apperror.NotFound("sample", derefID(p.SampleID))
		}
		return Post{}, apperror.Upstream("create post", err)
	}
	return p, nil
}

func (s *PostgresStore) AddMedia(ctx context.Context, m Media) (Media, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO post_media (id, post_id, url, kind, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, m.ID, m.PostID, m.URL, m.Kind, m.CreatedAt)
	if err := row.Scan(&m.CreatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return Media{}, apperror.NotFound("post", m.PostID)
		}
		return Media{}, apperror.Upstream("add media", err)
	}
	return m, nil
}

func (s *PostgresStore) PostsForSample(ctx context.Context, sampleID int64) ([]PostEvent, error) {
	return s.query(ctx, "posts for sample", postEventSelect+`
		WHERE p.track_point_id=$1
		ORDER BY p.created_at, p.id`, sampleID)
}

func (s *PostgresStore) PostsForTrip(ctx context.Context, tripID string) ([]PostEvent, error) {
	return s.query(ctx, "posts for trip", postEventSelect+`
		WHERE p.trip_id=$1
		ORDER BY p.created_at, p.id`, tripID)
}

func (s *PostgresStore) query(ctx context.Context, op, sql string, args ...any) ([]PostEvent, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.Upstream(op, err)
	}
	defer rows.Close()

	posts := []PostEvent{}
	for rows.Next() {
		var p PostEvent
		if err := rows.Scan(&p.PostID, &p.TripID, &p.SampleID, &p.Text, &p.City, &p.Country, &p.CreatedAt, &p.MediaCount); err != nil {
			return nil, apperror.Upstream(op, err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Upstream(op, err)
	}
	return posts, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func derefID(id *int64) any {
	if id == nil {
		return "<none>"
	}
	return *id
}
