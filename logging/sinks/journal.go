// SQLite-backed event journal for post-mortem inspection of combat sessions.
package sinks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"rift-and-ruin/server/logging"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	tick INTEGER NOT NULL,
	time TEXT NOT NULL,
	severity TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	actor_id TEXT NOT NULL DEFAULT '',
	actor_kind TEXT NOT NULL DEFAULT '',
	invocation_id TEXT NOT NULL DEFAULT '',
	targets TEXT,
	payload TEXT,
	extra TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_tick ON events (tick);
CREATE INDEX IF NOT EXISTS idx_events_type ON events (type);
`

// Journal persists events to a SQLite database in small batches.
type Journal struct {
	sqlDB    *sql.DB
	maxBatch int
	pending  []logging.Event
}

// NewJournal opens (creating if needed) the journal database at path.
func NewJournal(path string, cfg logging.JournalConfig) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping journal db: %w", err)
	}
	if _, err := sqlDB.Exec(journalSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("bootstrap journal schema: %w", err)
	}
	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 64
	}
	return &Journal{
		sqlDB:    sqlDB,
		maxBatch: maxBatch,
		pending:  make([]logging.Event, 0, maxBatch),
	}, nil
}

// Write buffers the event and flushes once the batch is full. The router
// serializes calls per sink, so no locking is needed here.
func (j *Journal) Write(event logging.Event) error {
	if j == nil || j.sqlDB == nil {
		return nil
	}
	j.pending = append(j.pending, event)
	if len(j.pending) < j.maxBatch {
		return nil
	}
	return j.flush()
}

func (j *Journal) flush() error {
	if len(j.pending) == 0 {
		return nil
	}
	tx, err := j.sqlDB.Begin()
	if err != nil {
		return fmt.Errorf("begin journal batch: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO events (
		type, tick, time, severity, category,
		actor_id, actor_kind, invocation_id,
		targets, payload, extra
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare journal insert: %w", err)
	}
	for _, event := range j.pending {
		_, err := stmt.Exec(
			string(event.Type),
			int64(event.Tick),
			event.Time.UTC().Format(time.RFC3339Nano),
			event.Severity.String(),
			event.Category,
			event.Actor.ID,
			string(event.Actor.Kind),
			event.InvocationID,
			marshalColumn(event.Targets),
			marshalColumn(event.Payload),
			marshalColumn(event.Extra),
		)
		if err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("insert journal event: %w", err)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("close journal insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal batch: %w", err)
	}
	j.pending = j.pending[:0]
	return nil
}

// Close flushes any buffered events and closes the database handle.
func (j *Journal) Close(ctx context.Context) error {
	if j == nil || j.sqlDB == nil {
		return nil
	}
	flushErr := j.flush()
	closeErr := j.sqlDB.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// JournalRecord is the queryable shape of one persisted event.
type JournalRecord struct {
	Type         string
	Tick         uint64
	Severity     string
	Category     string
	ActorID      string
	ActorKind    string
	InvocationID string
}

// Recent returns up to limit records, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]JournalRecord, error) {
	if j == nil || j.sqlDB == nil {
		return nil, fmt.Errorf("journal is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.sqlDB.QueryContext(ctx, `SELECT
		type, tick, severity, category, actor_id, actor_kind, invocation_id
	FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()
	var records []JournalRecord
	for rows.Next() {
		var rec JournalRecord
		var tick int64
		if err := rows.Scan(&rec.Type, &tick, &rec.Severity, &rec.Category, &rec.ActorID, &rec.ActorKind, &rec.InvocationID); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		rec.Tick = uint64(tick)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal rows: %w", err)
	}
	return records, nil
}

func marshalColumn(value any) any {
	if value == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return string(data)
}
