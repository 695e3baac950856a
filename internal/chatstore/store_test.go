package chatstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatd/pkg/types"
)

type storeFactory func(t *testing.T) Store

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(t.TempDir(), []string{"models.json"}, zerolog.New(io.Discard))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "chats.db"), zerolog.New(io.Discard))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func mustChat(t *testing.T, doc string) types.Chat {
	t.Helper()
	var c types.Chat
	require.NoError(t, json.Unmarshal([]byte(doc), &c))
	return c
}

func ids(t *testing.T, chats []types.Chat) []string {
	t.Helper()
	out := make([]string, 0, len(chats))
	for _, c := range chats {
		id, ok := c.ID()
		require.True(t, ok)
		out = append(out, id)
	}
	return out
}

func TestStore_RoundTripKeepsFields(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			doc := `{"id":"1712","title":"<b>hi</b>","messages":[{"role":"user","text":"привет"}],"pinned":true}`
			require.NoError(t, s.Save(ctx, mustChat(t, doc)))

			chats, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, chats, 1)
			got, err := json.Marshal(chats[0])
			require.NoError(t, err)
			assert.JSONEq(t, doc, string(got))

			one, err := s.Get(ctx, "1712")
			require.NoError(t, err)
			assert.Equal(t, chats[0], one)
		})
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			require.NoError(t, s.Save(ctx, mustChat(t, `{"id":"7","title":"first"}`)))
			require.NoError(t, s.Save(ctx, mustChat(t, `{"id":"7","title":"second"}`)))

			chats, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, chats, 1)
			assert.JSONEq(t, `"second"`, string(chats[0]["title"]))
		})
	}
}

func TestStore_DeleteSemantics(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			err := s.Delete(ctx, "never-saved")
			assert.True(t, IsNotFound(err), "got %v", err)

			require.NoError(t, s.Save(ctx, mustChat(t, `{"id":"a"}`)))
			require.NoError(t, s.Save(ctx, mustChat(t, `{"id":"b"}`)))
			require.NoError(t, s.Delete(ctx, "a.json"))

			chats, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"b"}, ids(t, chats))

			_, err = s.Get(ctx, "a")
			assert.True(t, IsNotFound(err))
		})
	}
}

func TestStore_ListOrdersByIDDescending(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			for _, id := range []string{"3", "1", "2"} {
				require.NoError(t, s.Save(ctx, mustChat(t, fmt.Sprintf(`{"id":%q}`, id))))
			}
			chats, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"3", "2", "1"}, ids(t, chats))
		})
	}
}

func TestStore_NumericJSONIDs(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			for _, id := range []int{3, 1, 10, 2} {
				require.NoError(t, s.Save(ctx, mustChat(t, fmt.Sprintf(`{"id":%d}`, id))))
			}
			chats, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"10", "3", "2", "1"}, ids(t, chats))
		})
	}
}

func TestStore_SaveWithoutIDFailsAndWritesNothing(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			for _, doc := range []string{`{"title":"no id"}`, `{"id":""}`, `{"id":null}`, `{"id":"../etc/passwd"}`, `{"id":".hidden"}`} {
				err := s.Save(ctx, mustChat(t, doc))
				assert.True(t, IsValidation(err), "doc %s: got %v", doc, err)
			}
			assert.True(t, IsValidation(s.Save(ctx, nil)))
			chats, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, chats)
		})
	}
}

func TestStore_IDLengthBound(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			longest := strings.Repeat("a", MaxIDLength)
			require.NoError(t, s.Save(ctx, mustChat(t, `{"id":"`+longest+`"}`)))
			_, err := s.Get(ctx, longest)
			require.NoError(t, err)

			tooLong := strings.Repeat("b", 300)
			err = s.Save(ctx, mustChat(t, `{"id":"`+tooLong+`"}`))
			assert.True(t, IsValidation(err), "got %v", err)
			assert.True(t, IsValidation(s.Delete(ctx, tooLong)))
			chats, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{longest}, ids(t, chats))
		})
	}
}

func TestStore_ConcurrentSavesDistinctIDs(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					doc := fmt.Sprintf(`{"id":"%d","messages":[{"role":"user","text":"msg %d"}]}`, i%2, i)
					assert.NoError(t, s.Save(ctx, mustChat(t, doc)))
				}(i)
			}
			// a concurrent reader must never see a torn record
			for i := 0; i < 8; i++ {
				_, err := s.List(ctx)
				assert.NoError(t, err)
			}
			wg.Wait()

			chats, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"1", "0"}, ids(t, chats))
			for _, c := range chats {
				var msgs []map[string]string
				require.NoError(t, json.Unmarshal(c["messages"], &msgs))
				assert.Len(t, msgs, 1)
			}
		})
	}
}
