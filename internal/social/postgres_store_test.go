package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-tripline/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
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

func TestPostgresCreatePostAndMedia(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)
	createdAt := time.Now()

	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs("post-1", "trip-1", "user-1", pgxmock.AnyArg(), "hello", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	post, err := store.CreatePost(context.Background(), Post{ID: "post-1", TripID: "trip-1", UserID: "user-1", Text: "hello"})
	if err != nil || !post.CreatedAt.Equal(createdAt) {
		t.Fatalf("create post: %v", err)
	}

	mock.ExpectQuery(`INSERT INTO post_media`).
		WithArgs("media-1", "post-1", "https://photo", "photo", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	m, err := store.AddMedia(context.Background(), Media{ID: "media-1", PostID: "post-1", URL: "https://photo", Kind: "photo"})
	if err != nil || m.ID != "media-1" {
		t.Fatalf("add media: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresWriteErrors(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO posts`).WillReturnError(&pgconn.PgError{Code: "23503"})
	if _, err := store.CreatePost(ctx, Post{SampleID: ptr(int64(5))}); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery(`INSERT INTO posts`).WillReturnRows(pgxmock.NewRows([]string{"created_at"}))
	if _, err := store.CreatePost(ctx, Post{TripID: "trip-1", SampleID: ptr(int64(7))}); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found for a sample outside the trip, got %v", err)
	}

	mock.ExpectQuery(`INSERT INTO posts`).WillReturnError(errSocial)
	if _, err := store.CreatePost(ctx, Post{}); !errors.Is(err, apperror.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	mock.ExpectQuery(`INSERT INTO post_media`).WillReturnError(&pgconn.PgError{Code: "23503"})
	if _, err := store.AddMedia(ctx, Media{PostID: "p"}); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery(`INSERT INTO post_media`).WillReturnError(errSocial)
	if _, err := store.AddMedia(ctx, Media{PostID: "p"}); !errors.Is(err, apperror.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestPostgresPostQueries(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)
	ctx := context.Background()
	createdAt := time.Now()
	columns := []string{"id", "trip_id", "track_point_id", "text", "city", "country", "created_at", "media_count"}

	mock.ExpectQuery(`FROM posts p\s+WHERE p.track_point_id=\$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("post-1", "trip-1", ptr(int64(7)), "hi", ptr("Tunis"), ptr("Tunisia"), createdAt, 2))

	posts, err := store.PostsForSample(ctx, 7)
	if err != nil || len(posts) != 1 {
		t.Fatalf("posts for sample: %v", err)
	}
	if posts[0].MediaCount != 2 || *posts[0].SampleID != 7 || *posts[0].Country != "Tunisia" {
		t.Fatalf("unexpected post: %+v", posts[0])
	}

	mock.ExpectQuery(`FROM posts p\s+WHERE p.trip_id=\$1`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("post-2", "trip-1", nil, "", nil, nil, createdAt, 0))

	posts, err = store.PostsForTrip(ctx, "trip-1")
	if err != nil || len(posts) != 1 || posts[0].SampleID != nil || posts[0].City != nil {
		t.Fatalf("posts for trip: %v %+v", err, posts)
	}

	mock.ExpectQuery(`FROM posts p`).WithArgs("trip-2").WillReturnError(errSocial)
	if _, err := store.PostsForTrip(ctx, "trip-2"); !errors.Is(err, apperror.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
