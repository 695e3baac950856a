package chatstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"chatd/pkg/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLiteStore keeps chat documents in a single sqlite table.
type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, log zerolog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, ErrStorage("init", err)
	}
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(wal)")
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, ErrStorage("open", err)
	}
	// sqlite allows a single writer; one connection keeps writes serialized
	// without relying on busy retries.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, ErrStorage("schema", err)
	}
	return &SQLiteStore{
		db:  db,
		log: log.With().Str("component", "chatstore").Str("driver", "sqlite").Logger(),
	}, nil
}

// List returns every stored chat.
func (s *SQLiteStore) List(ctx context.Context) ([]types.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, doc FROM chats`)
	if err != nil {
		return nil, ErrStorage("list", err)
	}
	defer rows.Close()
	var items []keyedChat
	for rows.Next() {
		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, ErrStorage("scan", err)
		}
		chat, id, err := decodeChat([]byte(doc))
		if err != nil {
			s.log.Warn().Str("chat_id", key).Err(err).Msg("skipping malformed chat record")
			skippedRecords.WithLabelValues("sqlite").Inc()
			continue
		}
		items = append(items, keyedChat{id: id, chat: chat})
	}
	if err := rows.Err(); err != nil {
		return nil, ErrStorage("list", err)
	}
	return sortNewestFirst(items), nil
}

// Get returns one chat.
func (s *SQLiteStore) Get(ctx context.Context, id string) (types.Chat, error) {
	id, err := ValidateID(id)
	if err != nil {
		return nil, err
	}
	var doc string
	err = s.db.QueryRowContext(ctx, `SELECT doc FROM chats WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound(id)
	}
	if err != nil {
		return nil, ErrStorage("read", err)
	}
	chat, _, err := decodeChat([]byte(doc))
	if err != nil {
		return nil, ErrStorage("decode "+id, err)
	}
	return chat, nil
}

// Save upserts chat.
func (s *SQLiteStore) Save(ctx context.Context, chat types.Chat) error {
	id, err := chatID(chat)
	if err != nil {
		return err
	}
	b, err := encodeChat(chat)
	if err != nil {
		return ErrValidation("chat record is not valid JSON: " + err.Error())
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO chats (id, doc, updated_at) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		id, string(b), time.Now().Unix())
	if err != nil {
		return ErrStorage("write", err)
	}
	s.log.Debug().Str("chat_id", id).Msg("chat saved")
	return nil
}

// Delete removes the chat with id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	id, err := ValidateID(normalizeDeleteID(id))
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return ErrStorage("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ErrStorage("delete", err)
	}
	if n == 0 {
		return ErrNotFound(id)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
