package intervention

import (
	"log"
	"sync"
)

// State is the position of the current hint in its lifecycle.
type State int

const (
	StateIdle State = iota
	StatePendingDisplay
	StateShown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingDisplay:
		return "pending"
	case StateShown:
		return "shown"
	default:
		return "unknown"
	}
}

// Hint is one proactive intervention surfaced to the learner.
type Hint struct {
	Message  string
	Type     string
	Severity string
	Trigger  string
	Analysis map[string]any
}

// ResolveFunc receives the terminal outcome of a hint. Implementations are
// expected to report upstream without blocking; failures stay on their side.
type ResolveFunc func(h Hint, accepted bool)

// Lifecycle tracks the single pending or shown hint. At most one hint is
// live at a time: a new intervention arriving while one is unresolved is
// ignored until the current one resolves, never silently replaced.
type Lifecycle struct {
	mu      sync.Mutex
	state   State
	hint    *Hint
	chatCtx map[string]any

	onResolve ResolveFunc
	onDismiss func()
}

// New creates an idle lifecycle. onResolve is called on accept and dismiss;
// onDismiss additionally fires on dismiss for bookkeeping. Either may be nil.
func New(onResolve ResolveFunc, onDismiss func()) *Lifecycle {
	return &Lifecycle{onResolve: onResolve, onDismiss: onDismiss}
}

// Propose moves the lifecycle from idle to pending with the given hint and
// chatbot context. Returns false, leaving state untouched, if a hint is
// already live.
func (l *Lifecycle) Propose(h Hint, chatCtx map[string]any) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateIdle {
		log.Printf("intervention: ignoring new %s hint, current one still %s", h.Type, l.state)
		return false
	}

	l.state = StatePendingDisplay
	l.hint = &h
	l.chatCtx = chatCtx
	return true
}

// MarkShown records that the host rendered the pending hint.
func (l *Lifecycle) MarkShown() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StatePendingDisplay {
		l.state = StateShown
	}
}

// Current returns a copy of the live hint, or nil when idle.
func (l *Lifecycle) Current() *Hint {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hint == nil {
		return nil
	}
	h := *l.hint
	return &h
}

// Context returns the chatbot context attached to the live hint, or nil.
func (l *Lifecycle) Context() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chatCtx
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Accept resolves the live hint as accepted and returns its chatbot context.
// The context is handed out exactly here, then cleared. A no-op returning
// (nil, false) when no hint is live, which makes accept and dismiss mutually
// exclusive per hint instance.
func (l *Lifecycle) Accept() (map[string]any, bool) {
	h, chatCtx, ok := l.take()
	if !ok {
		return nil, false
	}

	if l.onResolve != nil {
		l.onResolve(h, true)
	}
	return chatCtx, true
}

// Dismiss resolves the live hint as dismissed. No-op when no hint is live.
func (l *Lifecycle) Dismiss() bool {
	h, _, ok := l.take()
	if !ok {
		return false
	}

	if l.onResolve != nil {
		l.onResolve(h, false)
	}
	if l.onDismiss != nil {
		l.onDismiss()
	}
	return true
}

// take atomically clears the live hint and returns it.
func (l *Lifecycle) take() (Hint, map[string]any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hint == nil {
		return Hint{}, nil, false
	}

	h := *l.hint
	chatCtx := l.chatCtx
	l.hint = nil
	l.chatCtx = nil
	l.state = StateIdle
	return h, chatCtx, true
}
