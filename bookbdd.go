package bookbdd

import (
	"context"
	"net/http"
	"runtime/debug"

	"pkt.systems/bookbdd/internal/events"
	"pkt.systems/bookbdd/internal/fixture"
	"pkt.systems/bookbdd/internal/suite"
	"pkt.systems/bookbdd/internal/twin"
	"pkt.systems/pslog"
)

// Public type aliases to internal packages

type (
	// Options configure a single run.
	Options = suite.Options
	// CaseResult captures the outcome of a single scenario.
	CaseResult = suite.CaseResult
	// StepResult records one executed step.
	StepResult = suite.StepResult
	// StepFailure mirrors a failed step.
	StepFailure = suite.StepFailure
	// RunSummary aggregates scenario results.
	RunSummary = suite.RunSummary
	// Fixtures are the credentials and booking payloads the steps send.
	Fixtures = fixture.Set
	// Event is one structured observation emitted during a run.
	Event = events.Event
	// Sink receives events.
	Sink = events.Sink
	// LogSink writes events to a pslog logger.
	LogSink = events.LogSink
	// CloudEventSink converts events to CloudEvents.
	CloudEventSink = events.CloudEventSink
)

var (
	// ErrScenariosFailed is returned by Run when at least one scenario failed.
	ErrScenariosFailed = suite.ErrScenariosFailed
	// DefaultFixtures returns the embedded fixture set.
	DefaultFixtures = fixture.Default
	// LoadFixtures reads a YAML fixture file layered over the defaults.
	LoadFixtures = fixture.Load
)

// Run executes the booking scenarios. Without Options.Paths the embedded
// features are used.
func Run(ctx context.Context, opts Options) (RunSummary, error) {
	return suite.Run(ctx, opts)
}

// NewTwin returns an in-memory booking API seeded with two bookings that
// accepts the default credentials. It is handy as a httptest.Server handler.
func NewTwin(logger pslog.Base) http.Handler {
	return twin.NewDefault(logger)
}

// NewTwinFor is NewTwin accepting the credentials of fx instead of the
// default ones, so a run with the same fixtures can authenticate.
func NewTwinFor(fx Fixtures, logger pslog.Base) http.Handler {
	return twin.NewSeeded(fx.Credentials, logger)
}

// Version returns the current module version (best effort).
func Version() string {
	return moduleVersion(modulePath)
}

const modulePath = "pkt.systems/bookbdd"

var moduleVersion = buildVersion

func buildVersion(path string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(devel)"
	}
	if info.Main.Path == path && info.Main.Version != "" {
		return info.Main.Version
	}
	for _, dep := range info.Deps {
		if dep.Path == path {
			return dep.Version
		}
	}
	return "(devel)"
}
