// Package chatstore persists chat records keyed by their id.
//
// Two backends share one contract: FileStore keeps one JSON document per chat
// in a directory (the default) and SQLiteStore keeps them in a single table.
// Listing returns chats ordered by id, highest first. Records that cannot be
// parsed are skipped and logged rather than failing the whole listing.
package chatstore

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"chatd/pkg/types"
)

// Store is the chat persistence contract. Implementations are safe for
// concurrent use.
type Store interface {
	List(ctx context.Context) ([]types.Chat, error)
	Get(ctx context.Context, id string) (types.Chat, error)
	Save(ctx context.Context, chat types.Chat) error
	Delete(ctx context.Context, id string) error
	Close() error
}

var skippedRecords = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "chatd",
		Subsystem: "chatstore",
		Name:      "skipped_records_total",
		Help:      "Stored chat records skipped during listing because they could not be parsed",
	},
	[]string{"driver"},
)

func init() {
	prometheus.MustRegister(skippedRecords)
}

// MaxIDLength bounds chat ids in bytes. The file store's temporary name
// ".<id>.json.<uuid>.tmp" must still fit in a 255-byte filename.
const MaxIDLength = 200

// ValidateID checks that id can serve as a filename stem and returns it.
func ValidateID(id string) (string, error) {
	switch {
	case strings.TrimSpace(id) == "":
		return "", ErrValidation("chat id is required")
	case len(id) > MaxIDLength:
		return "", ErrValidation("chat id exceeds " + strconv.Itoa(MaxIDLength) + " bytes")
	case id == "." || id == "..":
		return "", ErrValidation("chat id is invalid: " + id)
	case strings.HasPrefix(id, "."):
		return "", ErrValidation("chat id must not start with a dot")
	case strings.ContainsAny(id, "/\\\x00"):
		return "", ErrValidation("chat id must not contain path separators")
	}
	return id, nil
}

// chatID extracts and validates the id of chat.
func chatID(chat types.Chat) (string, error) {
	if chat == nil {
		return "", ErrValidation("chat record is required")
	}
	id, ok := chat.ID()
	if !ok {
		return "", ErrValidation("chat id is required")
	}
	return ValidateID(id)
}

// normalizeDeleteID strips a trailing ".json" so callers may pass either the
// id or the stored filename.
func normalizeDeleteID(id string) string {
	return strings.TrimSuffix(id, ".json")
}

// CompareIDs orders chat ids ascending. Ids that parse as finite numbers
// compare numerically and rank above non-numeric ids; everything else compares
// lexicographically, which also breaks numeric ties such as "1" and "01".
func CompareIDs(a, b string) int {
	na, aNum := numericID(a)
	nb, bNum := numericID(b)
	switch {
	case aNum && bNum:
		if na < nb {
			return -1
		}
		if na > nb {
			return 1
		}
		return strings.Compare(a, b)
	case aNum:
		return 1
	case bNum:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

func numericID(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

type keyedChat struct {
	id   string
	chat types.Chat
}

// sortNewestFirst orders chats by id, highest first.
func sortNewestFirst(items []keyedChat) []types.Chat {
	sort.SliceStable(items, func(i, j int) bool {
		return CompareIDs(items[i].id, items[j].id) > 0
	})
	out := make([]types.Chat, len(items))
	for i, it := range items {
		out[i] = it.chat
	}
	return out
}
