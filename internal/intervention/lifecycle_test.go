package intervention

import "testing"

func testHint() Hint {
	return Hint{
		Message:  "Looks like a syntax issue — want a hint?",
		Type:     "syntax_help",
		Severity: "low",
		Trigger:  "same_error_streak",
	}
}

func TestPropose_FromIdle(t *testing.T) {
	l := New(nil, nil)

	if !l.Propose(testHint(), map[string]any{"step": 1}) {
		t.Fatal("propose from idle should succeed")
	}
	if l.State() != StatePendingDisplay {
		t.Errorf("state = %v, want pending", l.State())
	}
	if h := l.Current(); h == nil || h.Message == "" {
		t.Error("current hint missing after propose")
	}
	if l.Context() == nil {
		t.Error("chat context missing after propose")
	}
}

func TestPropose_IgnoredWhileLive(t *testing.T) {
	l := New(nil, nil)

	l.Propose(testHint(), nil)
	l.MarkShown()

	second := Hint{Message: "different hint", Type: "pacing"}
	if l.Propose(second, nil) {
		t.Fatal("propose while shown must be ignored")
	}
	if h := l.Current(); h.Message != testHint().Message {
		t.Errorf("live hint was replaced: %q", h.Message)
	}
}

func TestAccept_ReportsAndClears(t *testing.T) {
	var reported *Hint
	var accepted bool
	l := New(func(h Hint, a bool) {
		reported = &h
		accepted = a
	}, nil)

	l.Propose(testHint(), map[string]any{"analysis": "stuck"})
	l.MarkShown()

	chatCtx, ok := l.Accept()
	if !ok {
		t.Fatal("accept of shown hint should succeed")
	}
	if chatCtx["analysis"] != "stuck" {
		t.Error("accept must hand out the chatbot context")
	}
	if reported == nil || !accepted {
		t.Error("resolve callback not reported as accepted")
	}
	if l.State() != StateIdle || l.Current() != nil || l.Context() != nil {
		t.Error("accept must clear hint, context, and state")
	}
}

func TestDismiss_ReportsAndCounts(t *testing.T) {
	var accepted *bool
	dismissals := 0
	l := New(func(h Hint, a bool) {
		accepted = &a
	}, func() {
		dismissals++
	})

	l.Propose(testHint(), nil)
	l.MarkShown()

	if !l.Dismiss() {
		t.Fatal("dismiss of shown hint should succeed")
	}
	if accepted == nil || *accepted {
		t.Error("resolve callback not reported as dismissed")
	}
	if dismissals != 1 {
		t.Errorf("dismiss counter = %d, want 1", dismissals)
	}
	if l.State() != StateIdle {
		t.Error("dismiss must return lifecycle to idle")
	}
}

func TestAcceptThenDismiss_MutuallyExclusive(t *testing.T) {
	l := New(nil, nil)
	l.Propose(testHint(), nil)

	if _, ok := l.Accept(); !ok {
		t.Fatal("first accept should succeed")
	}
	if l.Dismiss() {
		t.Error("dismiss after accept must be a no-op")
	}
	if _, ok := l.Accept(); ok {
		t.Error("second accept must be a no-op")
	}
}

func TestDismissThenAccept_MutuallyExclusive(t *testing.T) {
	l := New(nil, nil)
	l.Propose(testHint(), nil)

	if !l.Dismiss() {
		t.Fatal("first dismiss should succeed")
	}
	if _, ok := l.Accept(); ok {
		t.Error("accept after dismiss must be a no-op")
	}
}

func TestMarkShown_OnlyFromPending(t *testing.T) {
	l := New(nil, nil)

	l.MarkShown()
	if l.State() != StateIdle {
		t.Error("mark shown from idle must not change state")
	}

	l.Propose(testHint(), nil)
	l.MarkShown()
	if l.State() != StateShown {
		t.Errorf("state = %v, want shown", l.State())
	}
}

func TestProposeAfterResolve_Succeeds(t *testing.T) {
	l := New(nil, nil)

	l.Propose(testHint(), nil)
	l.Dismiss()

	if !l.Propose(Hint{Message: "next hint"}, nil) {
		t.Error("lifecycle must accept a new hint once the previous resolved")
	}
}
