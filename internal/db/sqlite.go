package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (creating the parent directory if needed) a SQLite
// database in WAL mode with foreign keys enforced.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(5)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// sqlitePragmas are applied by the driver to every new pooled connection.
// foreign_keys is per-connection state in SQLite.
var sqlitePragmas = []string{"foreign_keys(1)", "journal_mode(WAL)", "busy_timeout(5000)"}

func sqliteDSN(path string) string {
	params := make([]string, 0, len(sqlitePragmas))
	for _, p := range sqlitePragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

var (
	minSQLiteTime = time.Unix(0, math.MinInt64)
	maxSQLiteTime = time.Unix(0, math.MaxInt64)
)

// SQLiteTimeRepresentable reports whether t fits the unix-nanosecond column
// encoding.
func SQLiteTimeRepresentable(t time.Time) bool {
	return !t.Before(minSQLiteTime) && !t.After(maxSQLiteTime)
}

// SQLiteTime encodes t as unix nanoseconds, clamping to the representable
// range so open-ended range bounds stay ordered.
func SQLiteTime(t time.Time) int64 {
	switch {
	case t.Before(minSQLiteTime):
		return math.MinInt64
	case t.After(maxSQLiteTime):
		return math.MaxInt64
	default:
		return t.UnixNano()
	}
}

// sqliteSchema mirrors postgresSchema. Times are stored as unix nanoseconds.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		ended_at INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS track_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		recorded_at INTEGER NOT NULL,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		accuracy_m REAL,
		speed_mps REAL,
		location_name TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS track_points_trip_time ON track_points (trip_id, recorded_at, id)`,
	`CREATE INDEX IF NOT EXISTS track_points_lat_lng ON track_points (trip_id, lat, lng)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		track_point_id INTEGER REFERENCES track_points(id) ON DELETE SET NULL,
		text TEXT NOT NULL DEFAULT '',
		city TEXT,
		country TEXT,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS posts_track_point ON posts (track_point_id)`,
	`CREATE TABLE IF NOT EXISTS post_media (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'photo',
		created_at INTEGER NOT NULL
	)`,
}

// EnsureSQLiteSchema creates the SQLite tables used when STORE_DRIVER=sqlite.
func EnsureSQLiteSchema(ctx context.Context, conn *sql.DB) error {
	for _, stmt := range sqliteSchema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
