package observe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/johns/codecoach/internal/intervention"
	"github.com/johns/codecoach/internal/profile"
	"github.com/johns/codecoach/internal/sanitize"
	"github.com/johns/codecoach/internal/signals"
	"github.com/johns/codecoach/internal/similarity"
)

// Defaults for the observation policy.
const (
	DefaultCooldown  = 15 * time.Second
	DefaultRateFloor = time.Minute
)

// Guard-skip sentinels. These are normal no-ops, not failures; callers can
// tell them apart from transport errors with errors.Is.
var (
	ErrDisabled = errors.New("tracking disabled")
	ErrInFlight = errors.New("observation already in flight")
	ErrCooldown = errors.New("observation cooldown active")
	ErrStale    = errors.New("session no longer active")
)

// Attempt outcome kinds recorded to the journal.
const (
	OutcomeIntervention   = "intervention"
	OutcomeNoIntervention = "no_intervention"
	OutcomeMalformed      = "malformed_response"
	OutcomeFailure        = "failure"
	OutcomeSkipDisabled   = "skip_disabled"
	OutcomeSkipInFlight   = "skip_inflight"
	OutcomeSkipCooldown   = "skip_cooldown"
	OutcomeStaleDiscard   = "stale_discard"
)

// Recorder receives attempt outcomes for the debug journal. Implementations
// must not block; a nil Recorder disables journaling.
type Recorder interface {
	Record(outcome, detail, code string)
}

// Observer builds metrics snapshots and calls the analysis service under
// cooldown and single-flight guards. It is the only component that touches
// the network during a session.
type Observer struct {
	client    *Client
	store     *signals.Store
	lifecycle *intervention.Lifecycle
	prof      profile.Profile
	rec       Recorder

	userID    string
	missionID string
	cooldown  time.Duration
	rateFloor time.Duration
	now       func() time.Time

	// live reports whether the owning session still wants results applied.
	// Checked after the remote call returns, before any lifecycle transition.
	live func() bool

	mu          sync.Mutex
	inFlight    bool
	lastAttempt time.Time
}

// Config carries the observer's construction parameters.
type Config struct {
	Client    *Client
	Store     *signals.Store
	Lifecycle *intervention.Lifecycle
	Profile   profile.Profile
	Recorder  Recorder
	UserID    string
	MissionID string
	Cooldown  time.Duration
	RateFloor time.Duration
	Live      func() bool
}

// New creates an observer. Zero durations fall back to defaults; a nil Live
// function means results are always applied.
func New(cfg Config) *Observer {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.RateFloor <= 0 {
		cfg.RateFloor = DefaultRateFloor
	}
	live := cfg.Live
	if live == nil {
		live = func() bool { return true }
	}
	return &Observer{
		client:    cfg.Client,
		store:     cfg.Store,
		lifecycle: cfg.Lifecycle,
		prof:      cfg.Profile,
		rec:       cfg.Recorder,
		userID:    cfg.UserID,
		missionID: cfg.MissionID,
		cooldown:  cfg.Cooldown,
		rateFloor: cfg.RateFloor,
		now:       time.Now,
		live:      live,
	}
}

// Observe runs one observation attempt against the given editor code. Guard
// skips return a sentinel without touching any state; transport failures are
// logged and fail open. The in-flight flag is always cleared on exit once an
// attempt proceeds.
func (o *Observer) Observe(ctx context.Context, currentCode string) error {
	if err := o.admit(); err != nil {
		o.record(outcomeForSkip(err), err.Error(), "")
		return err
	}

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	view := o.store.Snapshot()
	req := o.buildRequest(view, currentCode)

	resp, err := o.client.Observe(ctx, req)
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			// The service answered but we cannot read it: treat as a
			// completed observation that asked for nothing.
			log.Printf("warning: observe response unreadable, treating as no intervention: %v", err)
			o.record(OutcomeMalformed, err.Error(), "")
			o.store.PartialReset()
			return nil
		}
		log.Printf("warning: observation failed: %v", err)
		o.record(OutcomeFailure, err.Error(), "")
		return fmt.Errorf("observe: %w", err)
	}

	o.store.PartialReset()

	if !resp.Intervention {
		o.record(OutcomeNoIntervention, "", "")
		return nil
	}
	if resp.Message == "" {
		log.Printf("warning: intervention response missing message, ignoring")
		o.record(OutcomeMalformed, "intervention without message", "")
		return nil
	}

	if !o.live() {
		o.record(OutcomeStaleDiscard, "session changed during call", "")
		return ErrStale
	}

	hint := intervention.Hint{
		Message:  resp.Message,
		Type:     resp.InterventionType,
		Severity: resp.Severity,
		Trigger:  resp.HintTrigger,
		Analysis: resp.DetailedAnalysis,
	}
	chatCtx := resp.ContextForChatbot
	if chatCtx == nil {
		chatCtx = SynthesizeChatContext(req, resp)
	}

	if o.lifecycle.Propose(hint, chatCtx) {
		o.record(OutcomeIntervention, resp.InterventionType, currentCode)
	} else {
		o.record(OutcomeIntervention, "ignored: hint already live", "")
	}
	return nil
}

// admit applies the three guards in order. Only a successful admission marks
// an attempt and sets the in-flight flag.
func (o *Observer) admit() error {
	if !o.store.Enabled() {
		return ErrDisabled
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		return ErrInFlight
	}
	now := o.now()
	if !o.lastAttempt.IsZero() && now.Sub(o.lastAttempt) < o.cooldown {
		return ErrCooldown
	}

	o.inFlight = true
	o.lastAttempt = now
	return nil
}

// buildRequest derives the immutable metrics snapshot from a copied signal
// view. The in-flight call works only from this copy, never live state.
func (o *Observer) buildRequest(v signals.View, currentCode string) Request {
	now := o.now()

	idleSince := v.LastEdit
	if idleSince.IsZero() {
		idleSince = v.SessionStart
	}
	idle := now.Sub(idleSince)

	// Floor the denominator so a session a few seconds old cannot produce
	// an absurd edits-per-minute rate.
	minutes := now.Sub(v.SessionStart).Minutes()
	if floor := o.rateFloor.Minutes(); minutes < floor {
		minutes = floor
	}

	lastActivity := v.LastEdit
	if v.LastRun.After(lastActivity) {
		lastActivity = v.LastRun
	}
	if lastActivity.IsZero() {
		lastActivity = v.SessionStart
	}

	return Request{
		UserID:                o.userID,
		MissionID:             o.missionID,
		IdleTime:              int(idle.Seconds()),
		EditsPerMinute:        float64(v.EditCount) / minutes,
		ConsecutiveFailedRuns: v.ConsecutiveFailedRuns,
		TotalAttempts:         v.TotalRunAttempts,
		CodeSimilarity:        similarity.Score(v.LastCode, currentCode),
		SameErrorCount:        v.SameErrorStreak,
		LastErrorType:         v.LastErrorKind,
		LastErrorMessage:      v.LastErrorMessage,
		CursorMovements:       v.CursorActivity,
		HintDismissCount:      v.HintDismissals,
		TimeOnCurrentStep:     int(now.Sub(v.SessionStart).Seconds()),
		CurrentCode:           sanitize.Redact(currentCode),
		PreviousCode:          sanitize.Redact(v.LastCode),
		WeakConcepts:          o.prof.WeakConcepts,
		StrongConcepts:        o.prof.StrongConcepts,
		MasterySnapshot:       o.prof.Mastery,
		LastActivity:          lastActivity.UTC().Format(time.RFC3339),
	}
}

// SynthesizeChatContext builds a local chatbot context when the service
// omits one, from the snapshot we sent and the analysis we got back.
func SynthesizeChatContext(req Request, resp *Response) map[string]any {
	chatCtx := map[string]any{
		"interventionType": resp.InterventionType,
		"hintTrigger":      resp.HintTrigger,
		"metrics": map[string]any{
			"idleTime":              req.IdleTime,
			"editsPerMinute":        req.EditsPerMinute,
			"consecutiveFailedRuns": req.ConsecutiveFailedRuns,
			"sameErrorCount":        req.SameErrorCount,
			"codeSimilarity":        req.CodeSimilarity,
		},
	}
	if req.LastErrorType != "" {
		chatCtx["lastError"] = map[string]any{
			"type":    req.LastErrorType,
			"message": req.LastErrorMessage,
		}
	}
	if resp.DetailedAnalysis != nil {
		chatCtx["analysis"] = resp.DetailedAnalysis
	}
	return chatCtx
}

func (o *Observer) record(outcome, detail, code string) {
	if o.rec == nil {
		return
	}
	o.rec.Record(outcome, detail, code)
}

func outcomeForSkip(err error) string {
	switch {
	case errors.Is(err, ErrDisabled):
		return OutcomeSkipDisabled
	case errors.Is(err, ErrInFlight):
		return OutcomeSkipInFlight
	default:
		return OutcomeSkipCooldown
	}
}
