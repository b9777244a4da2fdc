package signals

import (
	"sync"
	"time"
)

// View is an immutable copy of the session signals, taken at a point in time.
// The observation client snapshots one of these before issuing a remote call
// so that in-flight requests never re-read live state.
type View struct {
	EditCount             int
	LastEdit              time.Time
	LastRun               time.Time
	ConsecutiveFailedRuns int
	LastCode              string
	LastErrorKind         string
	LastErrorMessage      string
	SameErrorStreak       int
	CursorActivity        int
	HintDismissals        int
	SessionStart          time.Time
	TotalRunAttempts      int
}

// Store holds the mutable per-session signal record. Mutators are cheap and
// safe to call from any host callback; they never block on I/O.
type Store struct {
	mu      sync.Mutex
	enabled bool
	now     func() time.Time

	editCount             int
	lastEdit              time.Time
	lastRun               time.Time
	consecutiveFailedRuns int
	lastCode              string
	lastErrorKind         string
	lastErrorMessage      string
	sameErrorStreak       int
	cursorActivity        int
	hintDismissals        int
	sessionStart          time.Time
	totalRunAttempts      int
}

// New creates a store for a fresh session, with tracking enabled.
func New() *Store {
	return newStore(time.Now)
}

func newStore(now func() time.Time) *Store {
	return &Store{
		enabled:      true,
		now:          now,
		sessionStart: now(),
	}
}

// TrackEdit records one editor change. The cursor-activity counter only
// advances once the learner has attempted at least one run this session.
func (s *Store) TrackEdit(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return
	}

	s.editCount++
	s.lastEdit = s.now()
	if !s.lastRun.IsZero() {
		s.cursorActivity++
	} else {
		s.cursorActivity = 0
	}
	s.lastCode = code
}

// TrackRun records one run attempt and its outcome. A success clears the
// failure counters and the stored error; a failure extends the same-error
// streak only when the kind matches the previous non-empty kind.
func (s *Store) TrackRun(success bool, errorKind, errorMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return
	}

	s.lastRun = s.now()
	s.totalRunAttempts++

	if success {
		s.consecutiveFailedRuns = 0
		s.sameErrorStreak = 0
		s.lastErrorKind = ""
		s.lastErrorMessage = ""
	} else {
		s.consecutiveFailedRuns++
		if errorKind != "" && errorKind == s.lastErrorKind {
			s.sameErrorStreak++
		} else {
			s.sameErrorStreak = 1
		}
		s.lastErrorKind = errorKind
		s.lastErrorMessage = errorMessage
	}

	s.cursorActivity = 0
}

// TrackHintDismiss bumps the dismissal counter without touching the rest of
// the record. Used both by the standard dismiss flow and by hosts that
// dismiss hints outside it.
func (s *Store) TrackHintDismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return
	}
	s.hintDismissals++
}

// PartialReset clears the burst counters after a completed observation so the
// next cycle measures fresh activity. Run history, error history, and
// dismissal counts survive for the rest of the session.
func (s *Store) PartialReset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editCount = 0
	s.cursorActivity = 0
}

// SetEnabled toggles tracking. While disabled every mutator is a no-op.
func (s *Store) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Enabled reports whether tracking is active.
func (s *Store) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Snapshot returns a copy of the current signal values.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return View{
		EditCount:             s.editCount,
		LastEdit:              s.lastEdit,
		LastRun:               s.lastRun,
		ConsecutiveFailedRuns: s.consecutiveFailedRuns,
		LastCode:              s.lastCode,
		LastErrorKind:         s.lastErrorKind,
		LastErrorMessage:      s.lastErrorMessage,
		SameErrorStreak:       s.sameErrorStreak,
		CursorActivity:        s.cursorActivity,
		HintDismissals:        s.hintDismissals,
		SessionStart:          s.sessionStart,
		TotalRunAttempts:      s.totalRunAttempts,
	}
}
