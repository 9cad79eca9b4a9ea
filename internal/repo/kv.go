// Package repo contains the durable storage backends for the activity log.
// Every backend exposes the same KeyValueStore capability: one named slot
// holds the whole serialized activity collection.
// No business logic lives here, only storage access and the slot codec.
package repo

import (
	"context"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/pkordes/activity-log/internal/domain"
)

// DefaultKey is the slot name the activity collection is stored under.
const DefaultKey = "activities"

// KeyValueStore is the durable slot capability injected into the store.
// The service layer depends on this interface, not on a concrete backend,
// which lets it be unit-tested against NewMemoryKV.
type KeyValueStore interface {
	// Get returns the value stored under key. ok is false when the key has
	// never been written; that is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set overwrites the value stored under key in a single write.
	Set(ctx context.Context, key, value string) error
}

// EncodeActivities serializes the full collection as a JSON array.
// A nil slice is written as "[]" so a fresh load yields an empty collection.
func EncodeActivities(list []domain.Activity) (string, error) {
	if list == nil {
		list = []domain.Activity{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeActivities parses a slot value produced by EncodeActivities.
// Blank input decodes to an empty collection. Entries written by older clients
// with "date": "" are treated as undated.
func DecodeActivities(raw string) ([]domain.Activity, error) {
	if strings.TrimSpace(raw) == "" || strings.TrimSpace(raw) == "null" {
		return []domain.Activity{}, nil
	}
	var list []domain.Activity
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Activity{}
	}
	return list, nil
}
