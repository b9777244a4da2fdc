package sampling

import (
	"context"
	"sync"
	"time"

	"github.com/johns/codecoach/internal/signals"
)

// Defaults for the sampling policy.
const (
	DefaultPeriod        = 20 * time.Second
	DefaultIdleThreshold = 60 * time.Second
)

// Eligible reports whether an observation attempt should start for the given
// signal view. Any recorded activity qualifies; so does a long idle gap,
// which usually means the learner is stuck or thinking. When no edit has
// happened yet, idleness is measured from the session start.
func Eligible(v signals.View, now time.Time, idleThreshold time.Duration) bool {
	if v.EditCount > 0 || v.TotalRunAttempts > 0 {
		return true
	}

	since := v.LastEdit
	if since.IsZero() {
		since = v.SessionStart
	}
	return now.Sub(since) > idleThreshold
}

// Scheduler drives periodic observation attempts. Each tick re-reads the live
// signal store through the read callback; it never works from a view captured
// at construction time. Cooldown and single-flight are the observation
// client's business, so multiple eligible ticks may collapse into a single
// network call or none at all.
type Scheduler struct {
	period        time.Duration
	idleThreshold time.Duration
	read          func() signals.View
	attempt       func()
	now           func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped scheduler. Zero durations fall back to defaults.
func New(period, idleThreshold time.Duration, read func() signals.View, attempt func()) *Scheduler {
	if period <= 0 {
		period = DefaultPeriod
	}
	if idleThreshold <= 0 {
		idleThreshold = DefaultIdleThreshold
	}
	return &Scheduler{
		period:        period,
		idleThreshold: idleThreshold,
		read:          read,
		attempt:       attempt,
		now:           time.Now,
	}
}

// Start launches the ticker loop. Calling Start on a running scheduler is a
// no-op; signal churn must never restart the timer.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
}

// Stop cancels the ticker loop and waits for it to exit. Safe to call on a
// stopped scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if Eligible(s.read(), s.now(), s.idleThreshold) {
				s.attempt()
			}
		}
	}
}
