// Package check verifies a codecoach installation: config, analysis-service
// reachability, journal storage, and the learner profile.
package check

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/johns/codecoach/internal/config"
	"github.com/johns/codecoach/internal/journal"
	"github.com/johns/codecoach/internal/profile"
)

// Status represents the outcome of a single check.
type Status int

const (
	Pass Status = iota
	Warn
	Fail
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case Warn:
		return "warn"
	case Fail:
		return "FAIL"
	default:
		return "unknown"
	}
}

// Result holds the outcome of a single check.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Report aggregates all check results.
type Report struct {
	Results []Result
}

// HasFailures returns true if any result has Fail status.
func (r Report) HasFailures() bool {
	for _, res := range r.Results {
		if res.Status == Fail {
			return true
		}
	}
	return false
}

// Format returns the human-readable report string.
func (r Report) Format() string {
	if len(r.Results) == 0 {
		return "codecoach check\n\n  no checks ran\n"
	}

	maxName := 0
	for _, res := range r.Results {
		if len(res.Name) > maxName {
			maxName = len(res.Name)
		}
	}

	var b strings.Builder
	b.WriteString("codecoach check\n\n")

	var passed, warnings, failures int
	for _, res := range r.Results {
		switch res.Status {
		case Pass:
			passed++
		case Warn:
			warnings++
		case Fail:
			failures++
		}
		fmt.Fprintf(&b, "  %-4s  %-*s  %s\n", res.Status, maxName, res.Name, res.Detail)
	}

	fmt.Fprintf(&b, "\n%d passed, %d warning, %d failure\n", passed, warnings, failures)
	return b.String()
}

// Run executes every check against the given config.
func Run(cfg config.Config) Report {
	var r Report
	r.Results = append(r.Results, CheckConfigFile())
	r.Results = append(r.Results, CheckService(cfg.Service))
	r.Results = append(r.Results, CheckJournal(cfg))
	r.Results = append(r.Results, CheckProfile(cfg.ProfilePath))
	return r
}

// CheckConfigFile reports whether a config file exists or defaults are in
// effect. Broken TOML is caught by config.Load before we get here.
func CheckConfigFile() Result {
	path := filepath.Join(config.ConfigDir(), "config.toml")
	if _, err := os.Stat(path); err != nil {
		return Result{Name: "config", Status: Warn, Detail: "no config file, using defaults (run `codecoach init`)"}
	}
	return Result{Name: "config", Status: Pass, Detail: path}
}

// CheckService validates the base URL and probes the analysis service. Any
// HTTP response counts as reachable; the endpoint contract is not exercised.
func CheckService(scfg config.ServiceConfig) Result {
	if !scfg.Enabled {
		return Result{Name: "service", Status: Pass, Detail: "disabled"}
	}

	u, err := url.Parse(scfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Result{Name: "service", Status: Fail, Detail: fmt.Sprintf("bad base_url %q", scfg.BaseURL)}
	}

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(scfg.BaseURL)
	if err != nil {
		return Result{Name: "service", Status: Warn, Detail: fmt.Sprintf("%s unreachable (engine fails open)", scfg.BaseURL)}
	}
	resp.Body.Close()

	return Result{Name: "service", Status: Pass, Detail: scfg.BaseURL}
}

// CheckJournal verifies the journal database can be opened and written.
func CheckJournal(cfg config.Config) Result {
	if !cfg.Journal.Enabled {
		return Result{Name: "journal", Status: Pass, Detail: "disabled"}
	}

	path := cfg.JournalPath()
	j, err := journal.Open(path)
	if err != nil {
		return Result{Name: "journal", Status: Fail, Detail: fmt.Sprintf("%s: %v", path, err)}
	}
	defer j.Close()

	if _, err := j.Recent(1); err != nil {
		return Result{Name: "journal", Status: Fail, Detail: fmt.Sprintf("%s unreadable: %v", path, err)}
	}

	return Result{Name: "journal", Status: Pass, Detail: path}
}

// CheckProfile validates the learner profile file when one is configured.
func CheckProfile(path string) Result {
	if path == "" {
		return Result{Name: "profile", Status: Pass, Detail: "not configured"}
	}

	p, err := profile.LoadFile(path)
	if err != nil {
		return Result{Name: "profile", Status: Fail, Detail: err.Error()}
	}
	if len(p.WeakConcepts) == 0 && len(p.StrongConcepts) == 0 && len(p.Mastery) == 0 {
		return Result{Name: "profile", Status: Warn, Detail: path + " is empty or missing"}
	}
	return Result{Name: "profile", Status: Pass, Detail: path}
}
