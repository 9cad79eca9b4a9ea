package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pkordes/activity-log/internal/clock"
	"github.com/pkordes/activity-log/internal/domain"
	"github.com/pkordes/activity-log/internal/schedule"
)

// Session is the controller for one hosting session (a server process or a
// CLI invocation). It owns the store, the session's ColorAssigner, and the
// rollover Handle, and disposes the handle on Close.
type Session struct {
	id     string
	store  *ActivityStore
	clock  clock.Clock
	log    *slog.Logger
	colors *ColorAssigner

	rollover *schedule.Rollover
	handle   *schedule.Handle
}

// NewSession constructs a Session over store. Nothing is read or armed until
// Start is called.
func NewSession(store *ActivityStore, c clock.Clock, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	id := uuid.NewString()
	log = log.With("session_id", id)
	return &Session{
		id:       id,
		store:    store,
		clock:    c,
		log:      log,
		colors:   NewColorAssigner(),
		rollover: schedule.NewRollover(store, c, log),
	}
}

// ID returns the random identifier attached to this session's log lines.
func (s *Session) ID() string { return s.id }

// Store returns the session's activity store.
func (s *Session) Store() *ActivityStore { return s.store }

// Colors returns the session's category colour assigner.
func (s *Session) Colors() *ColorAssigner { return s.colors }

// Handle returns the armed rollover handle, or nil before Start.
func (s *Session) Handle() *schedule.Handle { return s.handle }

// Start loads the persisted collection, immediately drops activities dated
// before today, and arms the midnight rollover. The rollover is armed even if
// writing the swept collection fails; that error is returned for the caller
// to log.
func (s *Session) Start(ctx context.Context) error {
	loaded := s.store.Load(ctx)
	today := domain.FormatDate(s.clock.Now())
	kept, purged, err := s.store.Sweep(ctx, today)

	s.handle = s.rollover.Arm(ctx)
	s.log.InfoContext(ctx, "session started", "loaded", len(loaded), "kept", len(kept), "purged", purged)

	if err != nil {
		return fmt.Errorf("service.Session.Start: %w", err)
	}
	return nil
}

// Close cancels the rollover. Safe to call more than once, or without Start.
func (s *Session) Close() {
	if s.handle != nil {
		s.handle.Stop()
	}
}
