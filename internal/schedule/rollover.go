package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/activity-log/internal/clock"
	"github.com/pkordes/activity-log/internal/domain"
)

// SweepInterval is the minimum period between sweeps once the first
// midnight passed.
const SweepInterval = 24 * time.Hour

// Sweeper re-reads the durable collection, drops activities dated before
// today, and writes the result back. service.ActivityStore implements it.
type Sweeper interface {
	Sweep(ctx context.Context, today string) ([]domain.Activity, int, error)
}

// State is the lifecycle of a rollover Handle.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateActive
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateActive:
		return "active"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Rollover arms the midnight expiry sweep.
type Rollover struct {
	sweeper Sweeper
	clock   clock.Clock
	log     *slog.Logger
}

// NewRollover constructs a Rollover that sweeps through s using c for time.
func NewRollover(s Sweeper, c clock.Clock, log *slog.Logger) *Rollover {
	if log == nil {
		log = slog.Default()
	}
	return &Rollover{sweeper: s, clock: c, log: log}
}

// Arm schedules the first sweep for the next local midnight and later ones
// via nextAfter. The returned Handle owns the pending timer; cancelling ctx has
// the same effect as calling Handle.Stop.
func (r *Rollover) Arm(ctx context.Context) *Handle {
	h := &Handle{r: r, ctx: ctx, stopped: make(chan struct{})}

	now := r.clock.Now()
	target := NextMidnight(now)

	h.mu.Lock()
	h.state = StateArmed
	h.next = target
	h.timer = r.clock.AfterFunc(target.Sub(now), h.fire)
	h.mu.Unlock()

	r.log.Info("midnight rollover armed", "next_sweep", target.Format(time.RFC3339))

	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				h.Stop()
			case <-h.stopped:
			}
		}()
	}
	return h
}

// Handle is the session-owned reference to an armed rollover.
type Handle struct {
	r   *Rollover
	ctx context.Context

	mu    sync.Mutex
	state State
	next  time.Time
	timer clock.Timer

	stopOnce sync.Once
	stopped  chan struct{}
}

// State reports the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Next returns when the pending sweep is due. Zero after Stop.
func (h *Handle) Next() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.next
}

// Stop cancels the pending sweep and releases the timer. Safe to call more
// than once and from any goroutine.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		if h.timer != nil {
			h.timer.Stop()
			h.timer = nil
		}
		h.state = StateCancelled
		h.next = time.Time{}
		h.mu.Unlock()

		close(h.stopped)
		h.r.log.Info("midnight rollover cancelled")
	})
}

func (h *Handle) fire() {
	h.mu.Lock()
	if h.state == StateCancelled {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	today := domain.FormatDate(h.r.clock.Now())
	kept, purged, err := h.r.sweeper.Sweep(h.ctx, today)
	if err != nil {
		h.r.log.Error("midnight sweep failed", "today", today, "error", err)
	} else {
		h.r.log.Info("midnight sweep", "today", today, "kept", len(kept), "purged", purged)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateCancelled {
		return
	}
	now := h.r.clock.Now()
	h.state = StateActive
	h.next = nextAfter(now)
	h.timer = h.r.clock.AfterFunc(h.next.Sub(now), h.fire)
}

// nextAfter returns the next local midnight, or now+SweepInterval if that
// midnight is sooner. On a 25h day this keeps sweeps on midnight; on a 23h
// day the sweep lands an hour late until the next 25h day realigns it.
func nextAfter(now time.Time) time.Time {
	next := NextMidnight(now)
	if earliest := now.Add(SweepInterval); next.Before(earliest) {
		return earliest
	}
	return next
}
