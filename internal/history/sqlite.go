package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// SQLiteStore is a persistent Store backed by SQLite. Writes go through the
// database, which serializes them per connection; WAL mode keeps readers
// unblocked during appends.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS turns (
	seq                  INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id              TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	role                 TEXT NOT NULL,
	content              TEXT NOT NULL,
	sources              TEXT NOT NULL DEFAULT '[]',
	follow_up_prompt     INTEGER NOT NULL DEFAULT 0,
	follow_up_id         TEXT NOT NULL DEFAULT '',
	originating_question TEXT NOT NULL DEFAULT '',
	created_at           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turns_chat_id ON turns(chat_id);
CREATE INDEX IF NOT EXISTS idx_chats_updated_at ON chats(updated_at);
`

// NewSQLiteStore opens (or creates) the history database at dbPath and
// initializes the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists (skip for in-memory database)
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == ":memory:" {
		// Each pooled connection would otherwise open its own empty
		// in-memory database.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(time.Hour)
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Busy timeout handles concurrent appends to the same chat
	if _, err := conn.Exec("PRAGMA busy_timeout=30000"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := conn.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.Exec(sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{conn: conn, path: dbPath}, nil
}

// Create allocates a new chat with a generated id.
func (s *SQLiteStore) Create(ctx context.Context) (*Chat, error) {
	id := uuid.NewString()
	now := time.Now()
	_, err := s.conn.ExecContext(ctx,
		"INSERT INTO chats (id, created_at, updated_at) VALUES (?, ?, ?)",
		id, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return &Chat{ID: id, CreatedAt: now, UpdatedAt: now}, nil
}

// Get returns a chat and its turns in append order.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Chat, error) {
	var createdAt, updatedAt int64
	err := s.conn.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM chats WHERE id = ?", id).
		Scan(&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT role, content, sources, follow_up_prompt, follow_up_id, originating_question, created_at
		 FROM turns WHERE chat_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chat := &Chat{
		ID:        id,
		CreatedAt: time.Unix(createdAt, 0),
		UpdatedAt: time.Unix(updatedAt, 0),
	}
	for rows.Next() {
		var (
			t          Turn
			sourcesRaw string
			prompt     int
			turnAt     int64
		)
		if err := rows.Scan(&t.Role, &t.Content, &sourcesRaw, &prompt, &t.FollowUpID, &t.OriginatingQuestion, &turnAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if err := json.Unmarshal([]byte(sourcesRaw), &t.Sources); err != nil {
			return nil, fmt.Errorf("failed to decode turn sources: %w", err)
		}
		t.FollowUpPrompt = prompt != 0
		t.CreatedAt = time.Unix(turnAt, 0)
		chat.Turns = append(chat.Turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}
	return chat, nil
}

// List returns summaries of all chats, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT c.id, c.created_at, c.updated_at, COUNT(t.seq)
		 FROM chats c LEFT JOIN turns t ON t.chat_id = c.id
		 GROUP BY c.id ORDER BY c.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []Summary
	for rows.Next() {
		var (
			sum                  Summary
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&sum.ID, &createdAt, &updatedAt, &sum.TurnCount); err != nil {
			return nil, fmt.Errorf("failed to scan chat summary: %w", err)
		}
		sum.CreatedAt = time.Unix(createdAt, 0)
		sum.UpdatedAt = time.Unix(updatedAt, 0)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Append adds a turn, creating the chat row if it does not exist.
func (s *SQLiteStore) Append(ctx context.Context, id string, turn Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	sources := turn.Sources
	if sources == nil {
		sources = []string{}
	}
	sourcesRaw, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("failed to encode turn sources: %w", err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	at := turn.CreatedAt.Unix()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chats (id, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		id, at, at); err != nil {
		return fmt.Errorf("failed to upsert chat: %w", err)
	}

	prompt := 0
	if turn.FollowUpPrompt {
		prompt = 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO turns (chat_id, role, content, sources, follow_up_prompt, follow_up_id, originating_question, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, turn.Role, turn.Content, string(sourcesRaw), prompt, turn.FollowUpID, turn.OriginatingQuestion, at); err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}

	return tx.Commit()
}

// Delete removes a chat and cascades to its turns.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, "DELETE FROM chats WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrChatNotFound
	}
	return nil
}

// DeleteExpired removes chats not updated within ttl.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl).Unix()
	res, err := s.conn.ExecContext(ctx, "DELETE FROM chats WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired chats: %w", err)
	}
	return res.RowsAffected()
}

// CountChats returns the number of stored chats.
func (s *SQLiteStore) CountChats(ctx context.Context) (int, error) {
	var count int
	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM chats").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chats: %w", err)
	}
	return count, nil
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}
