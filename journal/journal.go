// Package journal persists a queryable history of completed rename
// operations in SQLite.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one completed operation: which engine action ran, over which
// objects, against which preset, and what came of it. Detail holds the full
// batch report as JSON.
type Entry struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Op        string          `json:"op"`
	Kind      string          `json:"kind"`
	Preset    string          `json:"preset,omitempty"`
	Objects   []string        `json:"objects"`
	Renamed   int             `json:"renamed"`
	Merged    int             `json:"merged"`
	Failed    int             `json:"failed"`
	Detail    json.RawMessage `json:"detail,omitempty"`
}

// Journal records operation entries. A nil Journal is valid and records
// nothing, so deployments can run without one.
type Journal struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the journal database at path, creating it and its schema as
// needed.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("journal dir: %w", err)
	}

	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &Journal{sqlDB: sqlDB}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS operations (
    id TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL,
    op TEXT NOT NULL,
    kind TEXT NOT NULL,
    preset TEXT NOT NULL DEFAULT '',
    objects TEXT NOT NULL DEFAULT '[]',
    renamed INTEGER NOT NULL DEFAULT 0,
    merged INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    detail TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_operations_created_at ON operations(created_at);
`

// Close releases the underlying SQLite handle. Nil-safe so callers can
// defer it unconditionally.
func (j *Journal) Close() error {
	if j == nil || j.sqlDB == nil {
		return nil
	}
	return j.sqlDB.Close()
}

// Record inserts one entry. A zero CreatedAt is stamped with the current
// time. No-op on a nil Journal.
func (j *Journal) Record(ctx context.Context, entry Entry) error {
	if j == nil || j.sqlDB == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(entry.ID) == "" {
		return fmt.Errorf("entry id is required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	objects, err := json.Marshal(entry.Objects)
	if err != nil {
		return fmt.Errorf("encode objects: %w", err)
	}

	_, err = j.sqlDB.ExecContext(
		ctx,
		`INSERT INTO operations (
		   id, created_at, op, kind, preset, objects,
		   renamed, merged, failed, detail
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		toMillis(entry.CreatedAt),
		entry.Op,
		entry.Kind,
		entry.Preset,
		string(objects),
		entry.Renamed,
		entry.Merged,
		entry.Failed,
		string(entry.Detail),
	)
	if err != nil {
		return fmt.Errorf("record operation: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A nil Journal returns
// nothing.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j == nil || j.sqlDB == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := j.sqlDB.QueryContext(
		ctx,
		`SELECT id, created_at, op, kind, preset, objects,
		        renamed, merged, failed, detail
		   FROM operations
		  ORDER BY created_at DESC, rowid DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt int64
		var objects string
		var detail string
		if err := rows.Scan(
			&e.ID,
			&createdAt,
			&e.Op,
			&e.Kind,
			&e.Preset,
			&objects,
			&e.Renamed,
			&e.Merged,
			&e.Failed,
			&detail,
		); err != nil {
			return nil, fmt.Errorf("list operations: %w", err)
		}
		e.CreatedAt = fromMillis(createdAt)
		if err := json.Unmarshal([]byte(objects), &e.Objects); err != nil {
			return nil, fmt.Errorf("decode objects for %s: %w", e.ID, err)
		}
		if detail != "" {
			e.Detail = json.RawMessage(detail)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return entries, nil
}
