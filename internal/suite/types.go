package suite

import (
	"io"
	"io/fs"
	"net/http"
	"time"

	"pkt.systems/bookbdd/internal/events"
	"pkt.systems/bookbdd/internal/fixture"
	"pkt.systems/pslog"
)

// Options controls a single run of the booking scenarios.
type Options struct {
	// BaseURL is the absolute root of the booking API.
	BaseURL  string
	Fixtures fixture.Set
	// Paths lists feature files or directories on disk. When empty the
	// scenarios are read from FS (default: the embedded features).
	Paths []string
	FS    fs.FS
	// Tags is a godog tag expression, e.g. "@create && ~@slow".
	Tags        string
	Concurrency int
	// Format is the godog formatter written to Output (default "progress").
	Format string
	Output io.Writer
	Strict bool
	// BeforeAuth makes the Before hook fetch a token for every scenario.
	BeforeAuth bool
	// Contract enables the OpenAPI contract step.
	Contract   bool
	Timeout    time.Duration // per request timeout; 0 means default (15s)
	HTTPClient *http.Client
	Logger     pslog.Base
	// Sink receives every event in addition to the run's own recorder.
	Sink events.Sink
	// Randomize seeds scenario order; 0 keeps file order.
	Randomize     int64
	StopOnFailure bool
}

// CaseResult captures the outcome of one scenario.
type CaseResult struct {
	ID       string
	Name     string
	FilePath string
	Steps    []StepResult
	Duration time.Duration
	Passed   bool
	Skipped  bool
	Failures []StepFailure
	// ErrorText is set when the scenario failed, e.g. in its Before hook.
	ErrorText string
}

// StepResult records one executed step.
type StepResult struct {
	Text     string
	Status   string
	Duration time.Duration
	Error    string `json:",omitempty"`
}

// StepFailure mirrors a failed step.
type StepFailure struct {
	Step    string
	Message string
}

// RunSummary aggregates scenario results.
type RunSummary struct {
	Cases        []CaseResult
	Total        int
	Passed       int
	Failed       int
	Skipped      int
	TotalElapsed time.Duration
}
