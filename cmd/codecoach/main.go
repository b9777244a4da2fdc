package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/johns/codecoach/internal/check"
	"github.com/johns/codecoach/internal/config"
	"github.com/johns/codecoach/internal/hostio"
	"github.com/johns/codecoach/internal/journal"
	"github.com/johns/codecoach/internal/profile"
	"github.com/johns/codecoach/internal/session"
	"github.com/johns/codecoach/internal/watch"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal("load config: %v", err)
	}

	switch os.Args[1] {
	case "watch":
		if len(os.Args) < 3 {
			fatal("usage: codecoach watch <dir> [--mission <id>]")
		}
		dir := os.Args[2]
		mission := flagValue(os.Args[3:], "--mission")
		if mission == "" {
			mission = "local"
		}
		if err := runWatch(cfg, dir, mission); err != nil {
			fatal("watch: %v", err)
		}

	case "feed":
		mission := flagValue(os.Args[2:], "--mission")
		if mission == "" {
			mission = "local"
		}
		if err := runFeed(cfg, mission); err != nil {
			fatal("feed: %v", err)
		}

	case "journal":
		n := 20
		if v := flagValue(os.Args[2:], "-n"); v != "" {
			n, err = strconv.Atoi(v)
			if err != nil {
				fatal("bad -n value: %v", err)
			}
		}
		if err := showJournal(cfg, n); err != nil {
			fatal("journal: %v", err)
		}

	case "check":
		report := check.Run(cfg)
		fmt.Print(report.Format())
		if report.HasFailures() {
			os.Exit(1)
		}

	case "init":
		baseURL := flagValue(os.Args[2:], "--url")
		path, err := config.WriteDefault(baseURL)
		if err != nil {
			fatal("init: %v", err)
		}
		fmt.Printf("config: %s\n", path)

	case "version":
		fmt.Printf("codecoach v%s\n", version)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

// newSession builds a session plus the code mirror that feeds it.
func newSession(cfg config.Config, mission string) (*session.Session, *mirror, func()) {
	prof, err := profile.LoadFile(cfg.ProfilePath)
	if err != nil {
		log.Printf("warning: %v", err)
	}

	var jour *journal.Journal
	if cfg.Journal.Enabled {
		jour, err = journal.Open(cfg.JournalPath())
		if err != nil {
			log.Printf("warning: journal unavailable: %v", err)
			jour = nil
		}
	}

	m := &mirror{}
	sess := session.New(cfg, mission, prof, m.code, jour)
	m.sess = sess

	cleanup := func() {
		sess.Close()
		if jour != nil {
			jour.Close()
		}
	}
	return sess, m, cleanup
}

func runWatch(cfg config.Config, dir, mission string) error {
	sess, m, cleanup := newSession(cfg, mission)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go printHints(ctx, sess)

	fmt.Fprintf(os.Stderr, "codecoach: watching %s (mission %s)\n", dir, mission)
	return watch.New(dir, cfg.Watch.Extensions, m).Run(ctx)
}

func runFeed(cfg config.Config, mission string) error {
	sess, m, cleanup := newSession(cfg, mission)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go printHints(ctx, sess)

	return hostio.Feed(ctx, os.Stdin, m)
}

// printHints surfaces hints on stderr as they arrive. Reading the hint marks
// it shown; it stays live until the host (or the next learner event) resolves
// it.
func printHints(ctx context.Context, sess *session.Session) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastShown string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h := sess.ProactiveHint()
			if h == nil || h.Message == lastShown {
				continue
			}
			lastShown = h.Message
			fmt.Fprintf(os.Stderr, "\nhint: %s\n", h.Message)
		}
	}
}

func showJournal(cfg config.Config, n int) error {
	jour, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return err
	}
	defer jour.Close()

	if cfg.Journal.RetentionDays > 0 {
		retention := time.Duration(cfg.Journal.RetentionDays) * 24 * time.Hour
		if removed, err := jour.Prune(retention); err != nil {
			log.Printf("warning: prune failed: %v", err)
		} else if removed > 0 {
			fmt.Fprintf(os.Stderr, "pruned %d old entries\n", removed)
		}
	}

	entries, err := jour.Recent(n)
	if err != nil {
		return err
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-18s  %s", e.At.Format("2006-01-02 15:04:05"), e.Outcome, e.Detail)
		fmt.Println(line)
	}
	if len(entries) == 0 {
		fmt.Println("journal is empty")
	}
	return nil
}

// mirror keeps the latest code snapshot so the session's code source can
// answer "what does the editor show right now". It fronts the session for
// both the file watcher and the stdin feed.
type mirror struct {
	mu   sync.Mutex
	last string
	sess *session.Session
}

func (m *mirror) code() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *mirror) TrackEdit(code string) {
	m.mu.Lock()
	m.last = code
	m.mu.Unlock()
	m.sess.TrackEdit(code)
}

func (m *mirror) TrackRun(success bool, kind, msg string) { m.sess.TrackRun(success, kind, msg) }

func (m *mirror) TrackHintDismiss() { m.sess.TrackHintDismiss() }

func (m *mirror) AcceptHint() map[string]any { return m.sess.AcceptHint() }

func (m *mirror) DismissHint() { m.sess.DismissHint() }

func usage() {
	fmt.Fprintf(os.Stderr, `codecoach v%s — proactive coding-session coach

Usage:
  codecoach watch <dir> [--mission <id>]   Watch a directory, treat saves as edits
  codecoach feed [--mission <id>]          Read editor events as JSON lines on stdin
  codecoach journal [-n <count>]           Show recent observation attempts
  codecoach check                          Verify config, service, and journal
  codecoach init [--url <base>]            Write a default config
  codecoach version                        Print version
  codecoach help                           Show this help

Feed protocol (one JSON object per line):
  {"event":"edit","code":"..."}
  {"event":"run","success":false,"errorKind":"SyntaxError","errorMessage":"..."}
  {"event":"accept"} | {"event":"dismiss"} | {"event":"hint_dismiss"}

Configuration: ~/.config/codecoach/config.toml
`, version)
}

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "codecoach: "+format+"\n", args...)
	os.Exit(1)
}
