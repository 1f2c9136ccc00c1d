package social

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"backend-tripline/internal/shared/apperror"
)

const sqlitePostEventSelect = `
	SELECT p.id, p.trip_id, p.track_point_id, p.text, p.city, p.country, p.created_at,
	       (SELECT COUNT(*) FROM post_media m WHERE m.post_id = p.id)
	FROM posts p`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: conn}
}

func (s *SQLiteStore) CreatePost(ctx context.Context, p Post) (Post, error) {
	if p.SampleID != nil {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM track_points WHERE id=? AND trip_id=?`, *p.SampleID, p.TripID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, apperror.NotFound("sample", *p.SampleID)
		}
		if err != nil {
			return Post{}, apperror.Upstream("create post", err)
		}
	}

	var sampleID sql.NullInt64
	if p.SampleID != nil {
		sampleID = sql.NullInt64{Int64: *p.SampleID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, trip_id, user_id, track_point_id, text, city, country, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		p.ID, p.TripID, p.UserID, sampleID, p.Text, nullString(p.City), nullString(p.Country), p.CreatedAt.UnixNano())
	if err != nil {
		return Post{}, apperror.Upstream("create post", err)
	}
	return p, nil
}

func (s *SQLiteStore) AddMedia(ctx context.Context, m Media) (Media, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id=?`, m.PostID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return Media{}, apperror.NotFound("post", m.PostID)
	}
	if err != nil {
		return Media{}, apperror.Upstream("add media", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO post_media (id, post_id, url, kind, created_at) VALUES (?,?,?,?,?)`,
		m.ID, m.PostID, m.URL, m.Kind, m.CreatedAt.UnixNano())
	if err != nil {
		return Media{}, apperror.Upstream("add media", err)
	}
	return m, nil
}

func (s *SQLiteStore) PostsForSample(ctx context.Context, sampleID int64) ([]PostEvent, error) {
	return s.query(ctx, "posts for sample", sqlitePostEventSelect+`
		WHERE p.track_point_id=?
		ORDER BY p.created_at, p.id`, sampleID)
}

func (s *SQLiteStore) PostsForTrip(ctx context.Context, tripID string) ([]PostEvent, error) {
	return s.query(ctx, "posts for trip", sqlitePostEventSelect+`
		WHERE p.trip_id=?
		ORDER BY p.created_at, p.id`, tripID)
}

func (s *SQLiteStore) query(ctx context.Context, op, query string, args ...any) ([]PostEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.Upstream(op, err)
	}
	defer rows.Close()

	posts := []PostEvent{}
	for rows.Next() {
		var (
			p         PostEvent
			sampleID  sql.NullInt64
			city      sql.NullString
			country   sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&p.PostID, &p.TripID, &sampleID, &p.Text, &city, &country, &createdAt, &p.MediaCount); err != nil {
			return nil, apperror.Upstream(op, err)
		}
		if sampleID.Valid {
			p.SampleID = &sampleID.Int64
		}
		if city.Valid {
			p.City = &city.String
		}
		if country.Valid {
			p.Country = &country.String
		}
		p.CreatedAt = time.Unix(0, createdAt).UTC()
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Upstream(op, err)
	}
	return posts, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
