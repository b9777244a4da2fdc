package sampling

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/johns/codecoach/internal/signals"
)

func TestEligible_Activity(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		v    signals.View
		want bool
	}{
		{
			"edits present",
			signals.View{EditCount: 1, LastEdit: now.Add(-5 * time.Second)},
			true,
		},
		{
			"runs present",
			signals.View{TotalRunAttempts: 2, LastEdit: now.Add(-5 * time.Second)},
			true,
		},
		{
			"idle past threshold",
			signals.View{LastEdit: now.Add(-61 * time.Second)},
			true,
		},
		{
			"idle below threshold",
			signals.View{LastEdit: now.Add(-59 * time.Second)},
			false,
		},
		{
			"no edits yet, session just started",
			signals.View{SessionStart: now.Add(-10 * time.Second)},
			false,
		},
		{
			"no edits yet, session stalled",
			signals.View{SessionStart: now.Add(-2 * time.Minute)},
			true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Eligible(tc.v, now, time.Minute)
			if got != tc.want {
				t.Errorf("Eligible(%+v) = %v, want %v", tc.v, got, tc.want)
			}
		})
	}
}

func TestScheduler_FiresOnEligibleTick(t *testing.T) {
	var attempts atomic.Int32

	read := func() signals.View {
		return signals.View{EditCount: 1, LastEdit: time.Now()}
	}
	s := New(10*time.Millisecond, time.Minute, read, func() {
		attempts.Add(1)
	})

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for attempts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduler never fired an attempt")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestScheduler_SkipsIneligibleTicks(t *testing.T) {
	var attempts atomic.Int32

	read := func() signals.View {
		return signals.View{LastEdit: time.Now(), SessionStart: time.Now()}
	}
	s := New(10*time.Millisecond, time.Minute, read, func() {
		attempts.Add(1)
	})

	s.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if n := attempts.Load(); n != 0 {
		t.Errorf("expected no attempts for quiet fresh session, got %d", n)
	}
}

func TestScheduler_StopHalts(t *testing.T) {
	var attempts atomic.Int32

	read := func() signals.View {
		return signals.View{EditCount: 1, LastEdit: time.Now()}
	}
	s := New(10*time.Millisecond, time.Minute, read, func() {
		attempts.Add(1)
	})

	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	after := attempts.Load()
	time.Sleep(50 * time.Millisecond)
	if attempts.Load() != after {
		t.Error("scheduler fired after Stop")
	}
}

func TestScheduler_StartIdempotent(t *testing.T) {
	var attempts atomic.Int32

	read := func() signals.View {
		return signals.View{EditCount: 1, LastEdit: time.Now()}
	}
	s := New(20*time.Millisecond, time.Minute, read, func() {
		attempts.Add(1)
	})

	ctx := context.Background()
	s.Start(ctx)
	s.Start(ctx) // must not spawn a second loop
	defer s.Stop()

	time.Sleep(110 * time.Millisecond)
	if n := attempts.Load(); n > 7 {
		t.Errorf("double Start appears to run two loops: %d attempts in ~5 periods", n)
	}
}

func TestScheduler_StopTwice(t *testing.T) {
	s := New(10*time.Millisecond, time.Minute, func() signals.View {
		return signals.View{}
	}, func() {})

	s.Start(context.Background())
	s.Stop()
	s.Stop() // must not panic or block
}
