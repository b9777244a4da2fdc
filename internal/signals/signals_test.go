package signals

import (
	"testing"
	"time"
)

func testClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore() *Store {
	return newStore(testClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
}

func TestTrackRun_FailureCounter(t *testing.T) {
	s := newTestStore()

	s.TrackRun(false, "TypeError", "unsupported operand")
	s.TrackRun(false, "TypeError", "unsupported operand")
	if v := s.Snapshot(); v.ConsecutiveFailedRuns != 2 {
		t.Errorf("expected 2 consecutive failures, got %d", v.ConsecutiveFailedRuns)
	}

	s.TrackRun(true, "", "")
	if v := s.Snapshot(); v.ConsecutiveFailedRuns != 0 {
		t.Errorf("success must reset consecutive failures, got %d", v.ConsecutiveFailedRuns)
	}
}

func TestTrackRun_SameErrorStreak(t *testing.T) {
	s := newTestStore()

	s.TrackRun(false, "TypeError", "msg")
	if v := s.Snapshot(); v.SameErrorStreak != 1 {
		t.Errorf("first failure: streak = %d, want 1", v.SameErrorStreak)
	}

	s.TrackRun(false, "TypeError", "msg")
	if v := s.Snapshot(); v.SameErrorStreak != 2 {
		t.Errorf("repeated kind: streak = %d, want 2", v.SameErrorStreak)
	}

	s.TrackRun(false, "NameError", "msg")
	if v := s.Snapshot(); v.SameErrorStreak != 1 {
		t.Errorf("kind change: streak = %d, want 1", v.SameErrorStreak)
	}
}

func TestTrackRun_SuccessClearsError(t *testing.T) {
	s := newTestStore()

	s.TrackRun(false, "SyntaxError", "invalid syntax")
	s.TrackRun(true, "", "")

	v := s.Snapshot()
	if v.LastErrorKind != "" || v.LastErrorMessage != "" {
		t.Errorf("success should clear stored error, got %q / %q", v.LastErrorKind, v.LastErrorMessage)
	}
	if v.SameErrorStreak != 0 {
		t.Errorf("success should clear streak, got %d", v.SameErrorStreak)
	}

	// A failure after a success starts a fresh streak even with the old kind.
	s.TrackRun(false, "SyntaxError", "invalid syntax")
	if v := s.Snapshot(); v.SameErrorStreak != 1 {
		t.Errorf("streak after success = %d, want 1", v.SameErrorStreak)
	}
}

func TestTrackEdit_CursorActivity(t *testing.T) {
	s := newTestStore()

	// Before any run, cursor activity stays at zero.
	s.TrackEdit("a = 1")
	s.TrackEdit("a = 2")
	if v := s.Snapshot(); v.CursorActivity != 0 {
		t.Errorf("cursor activity before first run = %d, want 0", v.CursorActivity)
	}

	s.TrackRun(true, "", "")
	s.TrackEdit("a = 3")
	s.TrackEdit("a = 4")
	if v := s.Snapshot(); v.CursorActivity != 2 {
		t.Errorf("cursor activity after run = %d, want 2", v.CursorActivity)
	}

	// Every run resets the counter.
	s.TrackRun(false, "NameError", "a is not defined")
	if v := s.Snapshot(); v.CursorActivity != 0 {
		t.Errorf("cursor activity after second run = %d, want 0", v.CursorActivity)
	}
}

func TestTrackEdit_RecordsCodeAndCount(t *testing.T) {
	s := newTestStore()

	s.TrackEdit("print(1)")
	s.TrackEdit("print(2)")
	s.TrackEdit("print(3)")

	v := s.Snapshot()
	if v.EditCount != 3 {
		t.Errorf("edit count = %d, want 3", v.EditCount)
	}
	if v.LastCode != "print(3)" {
		t.Errorf("last code = %q, want latest snapshot", v.LastCode)
	}
	if v.LastEdit.IsZero() {
		t.Error("last edit timestamp not set")
	}
}

func TestPartialReset(t *testing.T) {
	s := newTestStore()

	s.TrackRun(false, "TypeError", "msg")
	s.TrackEdit("x")
	s.TrackEdit("y")
	s.TrackHintDismiss()

	s.PartialReset()

	v := s.Snapshot()
	if v.EditCount != 0 || v.CursorActivity != 0 {
		t.Errorf("reset should clear burst counters, got edits=%d cursor=%d", v.EditCount, v.CursorActivity)
	}
	if v.TotalRunAttempts != 1 || v.ConsecutiveFailedRuns != 1 || v.HintDismissals != 1 {
		t.Error("reset must not touch run history or dismissals")
	}
	if v.LastCode != "y" {
		t.Error("reset must keep the last code snapshot")
	}
}

func TestDisabled_MutatorsNoOp(t *testing.T) {
	s := newTestStore()
	s.SetEnabled(false)

	s.TrackEdit("x")
	s.TrackRun(false, "TypeError", "msg")
	s.TrackHintDismiss()

	v := s.Snapshot()
	if v.EditCount != 0 || v.TotalRunAttempts != 0 || v.HintDismissals != 0 {
		t.Errorf("disabled store must ignore events: %+v", v)
	}
}
