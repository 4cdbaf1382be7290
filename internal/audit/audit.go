// Package audit records ingest and export activity.
//
// Only metadata is stored (file name, table shape, request identity). Table
// contents never leave the request, and update acknowledgements are not
// recorded at all.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/sheetedit/internal/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Kind identifies the operation being recorded.
type Kind string

const (
	KindUpload   Kind = "upload"
	KindDownload Kind = "download"
)

// Event is one audited operation.
type Event struct {
	Kind       Kind
	FileName   string
	Rows       int
	Columns    int
	Thumbnails int
	RequestID  string
	IPAddress  string
	UserAgent  string
}

// Recorder persists events.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Nop discards every event. Used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

// DB is the subset of pgxpool.Pool used by PgRecorder.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS sheet_events (
	id          UUID PRIMARY KEY,
	kind        TEXT NOT NULL,
	file_name   TEXT NOT NULL,
	row_count   INTEGER NOT NULL,
	column_count INTEGER NOT NULL,
	thumbnails  INTEGER NOT NULL DEFAULT 0,
	request_id  TEXT,
	ip_address  TEXT,
	user_agent  TEXT,
	created_at  TIMESTAMPTZ NOT NULL
)`

const insertEventSQL = `
INSERT INTO sheet_events
	(id, kind, file_name, row_count, column_count, thumbnails, request_id, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// PgRecorder writes events to the sheet_events table.
type PgRecorder struct {
	db  DB
	now func() time.Time
}

// NewPgRecorder creates a recorder backed by db.
func NewPgRecorder(db DB) *PgRecorder {
	return &PgRecorder{db: db, now: time.Now}
}

// EnsureSchema creates the events table if it does not exist.
func (r *PgRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create sheet_events: %w", err)
	}
	return nil
}

// Record inserts e with a fresh id and timestamp.
func (r *PgRecorder) Record(ctx context.Context, e Event) error {
	_, err := r.db.Exec(ctx, insertEventSQL,
		uuid.New(),
		string(e.Kind),
		e.FileName,
		e.Rows,
		e.Columns,
		e.Thumbnails,
		nullable(e.RequestID),
		nullable(e.IPAddress),
		nullable(e.UserAgent),
		r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert %s event: %w", e.Kind, err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Connect opens and pings a pgx pool sized from cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
