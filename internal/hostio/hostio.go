// Package hostio ingests editor events as JSON lines, one object per line,
// for host integrations that talk to the engine over a pipe instead of
// linking it directly.
package hostio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
)

// Host is the session surface the feed drives.
type Host interface {
	TrackEdit(code string)
	TrackRun(success bool, errorKind, errorMessage string)
	TrackHintDismiss()
	AcceptHint() map[string]any
	DismissHint()
}

// Event is one line of host input.
type Event struct {
	Event        string `json:"event"`
	Code         string `json:"code,omitempty"`
	Success      bool   `json:"success,omitempty"`
	ErrorKind    string `json:"errorKind,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Code snapshots can be tens of KB; allow lines up to 4 MB.
const maxLine = 4 << 20

// Feed reads events from r until EOF or context cancellation. Unknown event
// names are logged and skipped; a malformed line is an error because it
// means the pipe protocol itself is broken.
func Feed(ctx context.Context, r io.Reader, h Host) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("parse event line: %w", err)
		}

		apply(h, ev)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	return nil
}

func apply(h Host, ev Event) {
	switch ev.Event {
	case "edit":
		h.TrackEdit(ev.Code)
	case "run":
		h.TrackRun(ev.Success, ev.ErrorKind, ev.ErrorMessage)
	case "hint_dismiss":
		h.TrackHintDismiss()
	case "accept":
		h.AcceptHint()
	case "dismiss":
		h.DismissHint()
	default:
		log.Printf("warning: unknown host event %q", ev.Event)
	}
}
