// Package session owns one mission's worth of behavioral telemetry: the
// signal store, the sampling scheduler, the observation client, and the
// intervention lifecycle, behind the small surface the host editor calls.
package session

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/johns/codecoach/internal/config"
	"github.com/johns/codecoach/internal/intervention"
	"github.com/johns/codecoach/internal/journal"
	"github.com/johns/codecoach/internal/observe"
	"github.com/johns/codecoach/internal/profile"
	"github.com/johns/codecoach/internal/sampling"
	"github.com/johns/codecoach/internal/sanitize"
	"github.com/johns/codecoach/internal/signals"
)

// CodeSource returns the editor's current code text. Called once per
// observation attempt, on the attempt goroutine.
type CodeSource func() string

// Session is one active coding session. Create it on mission start with New
// and release it with Close on mission end or navigation away. All methods
// are safe to call from host UI callbacks and never block on the network.
type Session struct {
	id        string
	missionID string
	cfg       config.Config

	store     *signals.Store
	lifecycle *intervention.Lifecycle
	observer  *observe.Observer
	scheduler *sampling.Scheduler
	client    *observe.Client
	source    CodeSource
	jour      *journal.Journal

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// New assembles a session for the given mission. jour may be nil to disable
// journaling. The scheduler starts immediately when the service is enabled.
func New(cfg config.Config, missionID string, prof profile.Profile, source CodeSource, jour *journal.Journal) *Session {
	s := &Session{
		id:        uuid.New().String(),
		missionID: missionID,
		cfg:       cfg,
		source:    source,
		jour:      jour,
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.store = signals.New()
	s.store.SetEnabled(cfg.Service.Enabled)
	s.client = observe.NewClient(cfg.Service.BaseURL, cfg.Service.Timeout())
	s.lifecycle = intervention.New(s.reportOutcome, s.store.TrackHintDismiss)

	var rec observe.Recorder
	if jour != nil {
		rec = &journalRecorder{jour: jour, sessionID: s.id}
	}

	s.observer = observe.New(observe.Config{
		Client:    s.client,
		Store:     s.store,
		Lifecycle: s.lifecycle,
		Profile:   prof,
		Recorder:  rec,
		UserID:    cfg.UserID,
		MissionID: missionID,
		Cooldown:  cfg.Engine.Cooldown(),
		RateFloor: cfg.Engine.RateFloor(),
		Live:      func() bool { return !s.closed.Load() },
	})

	s.scheduler = sampling.New(
		cfg.Engine.SamplingPeriod(),
		cfg.Engine.IdleThreshold(),
		s.store.Snapshot,
		s.attempt,
	)

	if cfg.Service.Enabled {
		s.scheduler.Start(s.ctx)
	}

	return s
}

// ID returns the session identity token.
func (s *Session) ID() string {
	return s.id
}

// TrackEdit records one editor change. Cheap; call on every edit callback.
func (s *Session) TrackEdit(code string) {
	if s.closed.Load() {
		return
	}
	s.store.TrackEdit(code)
}

// TrackRun records one run attempt and its outcome.
func (s *Session) TrackRun(success bool, errorKind, errorMessage string) {
	if s.closed.Load() {
		return
	}
	s.store.TrackRun(success, errorKind, errorMessage)
}

// TrackHintDismiss bumps the dismissal counter without going through the
// standard dismiss flow. For hosts that expire or hide hints on their own.
func (s *Session) TrackHintDismiss() {
	if s.closed.Load() {
		return
	}
	s.store.TrackHintDismiss()
}

// ProactiveHint returns the live hint, or nil. Reading a pending hint marks
// it shown: the host calls this exactly when it renders.
func (s *Session) ProactiveHint() *intervention.Hint {
	h := s.lifecycle.Current()
	if h != nil {
		s.lifecycle.MarkShown()
	}
	return h
}

// ChatbotContext returns the context attached to the live hint, or nil.
func (s *Session) ChatbotContext() map[string]any {
	return s.lifecycle.Context()
}

// AcceptHint resolves the live hint as accepted and returns its chatbot
// context, handed out exactly once. No-op returning nil when no hint is
// live. Feedback reporting is fire-and-forget.
func (s *Session) AcceptHint() map[string]any {
	chatCtx, ok := s.lifecycle.Accept()
	if !ok {
		return nil
	}
	return chatCtx
}

// DismissHint resolves the live hint as dismissed. No-op when no hint is
// live.
func (s *Session) DismissHint() {
	s.lifecycle.Dismiss()
}

// SetEnabled toggles tracking and the scheduler together.
func (s *Session) SetEnabled(enabled bool) {
	if s.closed.Load() {
		return
	}
	s.store.SetEnabled(enabled)
	if enabled {
		s.scheduler.Start(s.ctx)
	} else {
		s.scheduler.Stop()
	}
}

// Close tears the session down: the scheduler stops, and any in-flight
// observation may finish but its result is discarded. Safe to call twice.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.cancel()
	s.scheduler.Stop()
}

// attempt is the scheduler's eligible-tick callback. The observation runs on
// its own goroutine so a slow remote call never stalls the ticker; overlap
// is handled by the observer's single-flight guard.
func (s *Session) attempt() {
	go func() {
		code := s.source()
		// Guard skips and transport failures are already journaled and
		// logged inside the observer; nothing to surface here.
		_ = s.observer.Observe(s.ctx, code)
	}()
}

// reportOutcome posts intervention feedback without blocking the caller.
// Failures are logged and swallowed; feedback is best-effort.
func (s *Session) reportOutcome(h intervention.Hint, accepted bool) {
	fb := observe.Feedback{
		UserID:           s.cfg.UserID,
		MissionID:        s.missionID,
		InterventionType: h.Type,
		Accepted:         accepted,
		HintTrigger:      h.Trigger,
	}

	timeout := s.cfg.Service.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.client.Feedback(ctx, fb); err != nil {
			log.Printf("warning: intervention feedback failed: %v", err)
		}
	}()
}

// journalRecorder adapts the journal to the observer's Recorder interface,
// tagging entries with the session identity.
type journalRecorder struct {
	jour      *journal.Journal
	sessionID string
}

func (r *journalRecorder) Record(outcome, detail, code string) {
	if err := r.jour.Record(r.sessionID, outcome, detail, sanitize.Redact(code)); err != nil {
		log.Printf("warning: could not journal %s: %v", outcome, err)
	}
}
