package marker

import (
	"time"

	"showmark/internal/items"
)

// Status is the final state of one item.
type Status string

const (
	StatusMarked  Status = "marked"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Skip reasons reported to the caller.
const (
	ReasonNoExternalID   = "no external id"
	ReasonMissingName    = "missing local name"
	ReasonMissingEpisode = "missing season/episode"
	ReasonDryRun         = "dry run"
)

// Outcome is the result of executing one item.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Marked builds a successful outcome.
func Marked() Outcome { return Outcome{Status: StatusMarked} }

// Skipped builds a skip outcome with reason.
func Skipped(reason string) Outcome { return Outcome{Status: StatusSkipped, Reason: reason} }

// Failed builds a failure outcome with reason.
func Failed(reason string) Outcome { return Outcome{Status: StatusFailed, Reason: reason} }

// Result pairs an item with its outcome.
type Result struct {
	Item    items.Item `json:"item"`
	Outcome Outcome    `json:"outcome"`
}

// Summary is the ordered record of a run.
type Summary struct {
	RunID      string        `json:"run_id"`
	DryRun     bool          `json:"dry_run"`
	LoggedIn   bool          `json:"logged_in"`
	Results    []Result      `json:"results"`
	Marked     int           `json:"marked"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
}

func (s *Summary) add(item items.Item, outcome Outcome) {
	s.Results = append(s.Results, Result{Item: item, Outcome: outcome})
	switch outcome.Status {
	case StatusMarked:
		s.Marked++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// Statuses lists outcome statuses in result order.
func (s Summary) Statuses() []Status {
	out := make([]Status, len(s.Results))
	for i, r := range s.Results {
		out[i] = r.Outcome.Status
	}
	return out
}
