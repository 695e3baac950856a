package chatstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"chatd/internal/common/fsutil"
	"chatd/pkg/types"
)

const chatExt = ".json"

// FileStore keeps one "<id>.json" document per chat in a directory.
type FileStore struct {
	dir      string
	reserved map[string]struct{}
	log      zerolog.Logger
}

// NewFileStore creates dir if needed. reserved lists filenames in dir that are
// not chats (for example the model registry bootstrap file); they are skipped
// when listing and cannot be written through Save.
func NewFileStore(dir string, reserved []string, log zerolog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("chat store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ErrStorage("init", err)
	}
	s := &FileStore{
		dir:      dir,
		reserved: make(map[string]struct{}, len(reserved)),
		log:      log.With().Str("component", "chatstore").Str("driver", "file").Logger(),
	}
	for _, name := range reserved {
		if name != "" {
			s.reserved[filepath.Base(name)] = struct{}{}
		}
	}
	return s, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+chatExt)
}

func (s *FileStore) isReserved(name string) bool {
	_, ok := s.reserved[name]
	return ok
}

// List reads every chat document in the directory.
func (s *FileStore) List(ctx context.Context) ([]types.Chat, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, ErrStorage("list", err)
	}
	items := make([]keyedChat, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, chatExt) || fsutil.IsTempName(name) || s.isReserved(name) {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				// deleted between ReadDir and ReadFile
				continue
			}
			return nil, ErrStorage("read "+name, err)
		}
		chat, id, err := decodeChat(b)
		if err != nil {
			s.log.Warn().Str("file", name).Err(err).Msg("skipping malformed chat record")
			skippedRecords.WithLabelValues("file").Inc()
			continue
		}
		items = append(items, keyedChat{id: id, chat: chat})
	}
	return sortNewestFirst(items), nil
}

// Get reads a single chat.
func (s *FileStore) Get(ctx context.Context, id string) (types.Chat, error) {
	id, err := ValidateID(id)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound(id)
		}
		return nil, ErrStorage("read", err)
	}
	chat, _, err := decodeChat(b)
	if err != nil {
		return nil, ErrStorage("decode "+id, err)
	}
	return chat, nil
}

// Save writes or replaces the document for chat's id.
func (s *FileStore) Save(ctx context.Context, chat types.Chat) error {
	id, err := chatID(chat)
	if err != nil {
		return err
	}
	if s.isReserved(id + chatExt) {
		return ErrValidation("chat id is reserved: " + id)
	}
	b, err := encodeChat(chat)
	if err != nil {
		return ErrValidation("chat record is not valid JSON: " + err.Error())
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(s.path(id), b, 0o644); err != nil {
		return ErrStorage("write", err)
	}
	s.log.Debug().Str("chat_id", id).Int("bytes", len(b)).Msg("chat saved")
	return nil
}

// Delete removes the document for id.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	id, err := ValidateID(normalizeDeleteID(id))
	if err != nil {
		return err
	}
	if s.isReserved(id + chatExt) {
		return ErrNotFound(id)
	}
	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound(id)
		}
		return ErrStorage("delete", err)
	}
	s.log.Debug().Str("chat_id", id).Msg("chat deleted")
	return nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }

// encodeChat renders chat as indented JSON without HTML escaping so stored
// documents stay readable.
func encodeChat(chat types.Chat) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chat); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeChat(b []byte) (types.Chat, string, error) {
	var chat types.Chat
	if err := json.Unmarshal(b, &chat); err != nil {
		return nil, "", err
	}
	if chat == nil {
		return nil, "", errors.New("record is null")
	}
	id, ok := chat.ID()
	if !ok {
		return nil, "", errors.New("record has no id")
	}
	return chat, id, nil
}
