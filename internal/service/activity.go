// Package service contains the business logic for the activity log.
// ActivityStore validates input, owns the authoritative in-memory collection,
// and mirrors it into a repo.KeyValueStore slot after every mutation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/pkordes/activity-log/internal/clock"
	"github.com/pkordes/activity-log/internal/domain"
	"github.com/pkordes/activity-log/internal/observability"
	"github.com/pkordes/activity-log/internal/repo"
	"github.com/pkordes/activity-log/internal/schedule"
)

// ActivityStore implements the activity lifecycle over a single durable slot.
// Every mutating call re-reads the slot, applies the change, and rewrites the
// whole serialized collection with one Set, so another writer sharing the
// slot (the CLI) is not clobbered. It is safe for concurrent use; the
// midnight rollover sweeps from its own goroutine.
//
// Memory is authoritative for the session. While it holds a change the slot
// does not (dirty), re-reads are skipped and memory is written back as-is.
// Until the slot has been read successfully once (synced), nothing is
// written, so a read outage can never overwrite the durable collection.
type ActivityStore struct {
	kv    repo.KeyValueStore
	clock clock.Clock
	log   *slog.Logger
	key   string

	mu     sync.Mutex
	items  []domain.Activity
	lastID int64
	synced bool
	dirty  bool
}

// errUnsynced is wrapped into ErrStorage when a change cannot be written
// because the slot has never been read.
var errUnsynced = errors.New("slot unreadable since startup; change kept in memory only")

// Option configures an ActivityStore.
type Option func(*ActivityStore)

// WithKey overrides the slot name (default repo.DefaultKey).
func WithKey(key string) Option {
	return func(s *ActivityStore) {
		if key != "" {
			s.key = key
		}
	}
}

// NewActivityStore constructs an ActivityStore backed by kv. The collection
// starts empty; call Load to read the persisted snapshot.
func NewActivityStore(kv repo.KeyValueStore, c clock.Clock, log *slog.Logger, opts ...Option) *ActivityStore {
	if log == nil {
		log = slog.Default()
	}
	s := &ActivityStore{
		kv:    kv,
		clock: c,
		log:   log,
		key:   repo.DefaultKey,
		items: []domain.Activity{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory collection with the persisted snapshot.
// An absent, empty, unreadable, or malformed slot yields an empty collection;
// the failure is logged, never returned. After a read error the store stays
// unsynced and will not write until a later read succeeds.
func (s *ActivityStore) Load(ctx context.Context) []domain.Activity {
	list, err := s.read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty = false
	switch {
	case err == nil:
		s.synced = true
	case errors.Is(err, errMalformed):
		s.log.WarnContext(ctx, "activity slot malformed, starting empty", "key", s.key, "error", err)
		list = []domain.Activity{}
		s.synced = true
	default:
		s.log.WarnContext(ctx, "activity slot unreadable, starting empty", "key", s.key, "error", err)
		list = []domain.Activity{}
		s.synced = false
	}
	s.replaceLocked(list)
	return s.snapshotLocked()
}

// List returns a copy of the in-memory collection in insertion order.
func (s *ActivityStore) List() []domain.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Find returns the activity with the given id.
func (s *ActivityStore) Find(id int64) (domain.Activity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.items {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Activity{}, false
}

// Create validates in, appends a new activity with a fresh id, and persists.
// Returns domain.ErrValidation and a nil slice, leaving the collection
// untouched, if input violates a rule.
// On a write failure the appended record is kept in memory and the updated
// collection is returned together with an error wrapping domain.ErrStorage.
func (s *ActivityStore) Create(ctx context.Context, in domain.ActivityInput) ([]domain.Activity, error) {
	a, err := s.validate(in, true)
	if err != nil {
		observability.RecordValidationFailure()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	writable := s.syncLocked(ctx)
	a.ID = s.nextIDLocked()
	s.items = append(s.items, a)
	observability.RecordMutation("create")

	if err := s.commitLocked(ctx, writable); err != nil {
		return s.snapshotLocked(), fmt.Errorf("service.ActivityStore.Create: %w", err)
	}
	return s.snapshotLocked(), nil
}

// Update replaces every mutable field of the activity with the given id.
// Returns domain.ErrNotFound if there is no such activity and
// domain.ErrValidation for invalid input; neither changes the collection.
func (s *ActivityStore) Update(ctx context.Context, id int64, in domain.ActivityInput) ([]domain.Activity, error) {
	a, err := s.validate(in, false)
	if err != nil {
		observability.RecordValidationFailure()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	writable := s.syncLocked(ctx)
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("service.ActivityStore.Update: activity %d: %w", id, domain.ErrNotFound)
	}
	a.ID = id
	s.items[idx] = a
	observability.RecordMutation("update")

	if err := s.commitLocked(ctx, writable); err != nil {
		return s.snapshotLocked(), fmt.Errorf("service.ActivityStore.Update: %w", err)
	}
	return s.snapshotLocked(), nil
}

// Delete removes the activity with the given id. Deleting an id that is not
// present is not an error. The collection is re-persisted either way.
func (s *ActivityStore) Delete(ctx context.Context, id int64) ([]domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writable := s.syncLocked(ctx)
	if idx := s.indexLocked(id); idx >= 0 {
		s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
		observability.RecordMutation("delete")
	}

	if err := s.commitLocked(ctx, writable); err != nil {
		return s.snapshotLocked(), fmt.Errorf("service.ActivityStore.Delete: %w", err)
	}
	return s.snapshotLocked(), nil
}

// Sweep drops every activity dated before today and persists the result.
// The slot is re-read immediately before purging so edits made by another
// writer since the last load are not clobbered. Memory is purged instead when
// it holds unsaved changes or the slot cannot be read. It returns the kept
// collection and the number of activities removed.
func (s *ActivityStore) Sweep(ctx context.Context, today string) ([]domain.Activity, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writable := s.syncLocked(ctx)
	kept := schedule.PurgeExpired(s.items, today)
	purged := len(s.items) - len(kept)
	s.replaceLocked(kept)
	observability.RecordSweep(purged)

	if err := s.commitLocked(ctx, writable); err != nil {
		return s.snapshotLocked(), purged, fmt.Errorf("service.ActivityStore.Sweep: %w", err)
	}
	return s.snapshotLocked(), purged, nil
}

// errMalformed marks a slot that was read but could not be decoded.
var errMalformed = errors.New("malformed slot")

// read fetches and decodes the slot. An absent key is an empty collection.
func (s *ActivityStore) read(ctx context.Context) ([]domain.Activity, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.Activity{}, nil
	}
	list, err := repo.DecodeActivities(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}
	return list, nil
}

// syncLocked brings memory up to date with the slot before a change and
// reports whether the result may be written back:
//   - clean and synced: memory becomes the re-read slot.
//   - dirty: memory is kept; the slot is not re-read.
//   - never synced: records the session added are merged over the slot once
//     it reads successfully; until then nothing may be written.
//   - a malformed slot keeps memory and is overwritten.
//   - a failed re-read after a successful one keeps memory.
//
// Caller must hold s.mu.
func (s *ActivityStore) syncLocked(ctx context.Context) bool {
	if s.synced && s.dirty {
		return true
	}

	current, err := s.read(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errMalformed):
		s.log.WarnContext(ctx, "activity slot malformed, keeping in-memory collection", "key", s.key, "error", err)
		s.synced = true
		return true
	default:
		if !s.synced {
			s.log.WarnContext(ctx, "activity slot still unreadable, not writing", "key", s.key, "error", err)
			return false
		}
		s.log.WarnContext(ctx, "activity slot unreadable, using in-memory collection", "key", s.key, "error", err)
		return true
	}

	if !s.synced {
		current = mergeByID(current, s.items)
		s.synced = true
	}
	s.replaceLocked(current)
	return true
}

// mergeByID returns base with every record of overlay applied: records with
// a matching id are replaced in place, the rest are appended in order.
func mergeByID(base, overlay []domain.Activity) []domain.Activity {
	out := append([]domain.Activity{}, base...)
	pos := make(map[int64]int, len(out))
	for i, a := range out {
		pos[a.ID] = i
	}
	for _, a := range overlay {
		if i, ok := pos[a.ID]; ok {
			out[i] = a
			continue
		}
		out = append(out, a)
	}
	return out
}

// commitLocked persists memory when writable and tracks whether the slot
// now lags behind it. Caller must hold s.mu.
func (s *ActivityStore) commitLocked(ctx context.Context, writable bool) error {
	if !writable {
		s.dirty = true
		observability.RecordStorageFailure()
		return fmt.Errorf("%w: %w", domain.ErrStorage, errUnsynced)
	}
	if err := s.persistLocked(ctx); err != nil {
		s.dirty = true
		return err
	}
	s.dirty = false
	return nil
}

// persistLocked writes the entire collection in a single Set.
// Caller must hold s.mu.
func (s *ActivityStore) persistLocked(ctx context.Context) error {
	raw, err := repo.EncodeActivities(s.items)
	if err != nil {
		observability.RecordStorageFailure()
		return fmt.Errorf("%w: encode: %w", domain.ErrStorage, err)
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		observability.RecordStorageFailure()
		s.log.ErrorContext(ctx, "activity slot write failed", "key", s.key, "error", err)
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return nil
}

func (s *ActivityStore) replaceLocked(list []domain.Activity) {
	s.items = append([]domain.Activity{}, list...)
	for _, a := range s.items {
		if a.ID > s.lastID {
			s.lastID = a.ID
		}
	}
}

func (s *ActivityStore) snapshotLocked() []domain.Activity {
	return append([]domain.Activity{}, s.items...)
}

func (s *ActivityStore) indexLocked(id int64) int {
	for i, a := range s.items {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// nextIDLocked derives an id from the current time in milliseconds, bumped
// past the largest id seen so ids stay unique even within one millisecond.
func (s *ActivityStore) nextIDLocked() int64 {
	id := s.clock.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// validate enforces the entry rules and returns the normalized activity
// (without an id). The check order matches the order the form reports them:
//   - Name must be non-empty (whitespace-only names are rejected).
//   - Category "Other" requires a custom category, which replaces it.
//   - Duration, if given, must be a positive whole number of minutes.
//   - Date, if given, must be "YYYY-MM-DD"; on create it must not be in the past.
func (s *ActivityStore) validate(in domain.ActivityInput, creating bool) (domain.Activity, error) {
	a := domain.Activity{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Date:        strings.TrimSpace(in.Date),
	}
	if a.Name == "" {
		return domain.Activity{}, fmt.Errorf("%w: name required", domain.ErrValidation)
	}

	switch category := strings.TrimSpace(in.Category); category {
	case "":
		a.Category = domain.CategoryHobby
	case domain.CategoryOther:
		custom := strings.TrimSpace(in.CustomCategory)
		if custom == "" {
			return domain.Activity{}, fmt.Errorf("%w: custom category required", domain.ErrValidation)
		}
		a.Category = custom
	default:
		a.Category = category
	}

	if raw := strings.TrimSpace(in.Duration); raw != "" {
		minutes, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(minutes) || minutes <= 0 {
			return domain.Activity{}, fmt.Errorf("%w: duration must be positive", domain.ErrValidation)
		}
		if minutes != math.Trunc(minutes) || minutes > math.MaxInt32 {
			return domain.Activity{}, fmt.Errorf("%w: duration must be a whole number of minutes", domain.ErrValidation)
		}
		d := int(minutes)
		a.Duration = &d
	}

	if a.Date != "" {
		now := s.clock.Now()
		if _, err := domain.ParseDate(a.Date, now.Location()); err != nil {
			return domain.Activity{}, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
		}
		if creating && a.Date < domain.FormatDate(now) {
			return domain.Activity{}, fmt.Errorf("%w: date must be today or later", domain.ErrValidation)
		}
	}

	return a, nil
}
