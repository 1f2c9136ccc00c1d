package db

import "context"

// postgresSchema is applied in order on startup. Every statement is idempotent.
var postgresSchema = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS track_points (
		id BIGSERIAL PRIMARY KEY,
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		recorded_at TIMESTAMPTZ NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		accuracy_m DOUBLE PRECISION,
		speed_mps DOUBLE PRECISION,
		location_name TEXT,
		location GEOGRAPHY(Point, 4326) GENERATED ALWAYS AS (ST_SetSRID(ST_MakePoint(lng, lat), 4326)::geography) STORED
	)`,
	`CREATE INDEX IF NOT EXISTS track_points_trip_time ON track_points (trip_id, recorded_at, id)`,
	`CREATE INDEX IF NOT EXISTS track_points_location ON track_points USING GIST (location)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY,
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		track_point_id BIGINT REFERENCES track_points(id) ON DELETE SET NULL,
		text TEXT NOT NULL DEFAULT '',
		city TEXT,
		country TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS posts_track_point ON posts (track_point_id)`,
	`CREATE TABLE IF NOT EXISTS post_media (
		id UUID PRIMARY KEY,
		post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'photo',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables the services rely on.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range postgresSchema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
