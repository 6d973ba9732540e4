// Package suite wires the step catalog into a godog test suite and turns
// the events of a run into a RunSummary.
package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cucumber/godog"
	"pkt.systems/bookbdd/features"
	"pkt.systems/bookbdd/internal/contract"
	"pkt.systems/bookbdd/internal/events"
	"pkt.systems/bookbdd/internal/gateway"
	"pkt.systems/bookbdd/internal/steps"
	"pkt.systems/pslog"
)

const defaultFormat = "progress"

var (
	// ErrScenariosFailed is returned when at least one scenario failed.
	ErrScenariosFailed = errors.New("scenarios failed")
	// ErrInvalidOptions is returned when godog rejects the run options.
	ErrInvalidOptions = errors.New("invalid suite options")
)

// Run executes the scenarios and returns the summary. The summary is
// populated even when scenarios fail; in that case the error wraps
// ErrScenariosFailed.
func Run(ctx context.Context, opts Options) (RunSummary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = pslog.NewStructured(io.Discard)
	}
	gwOpts := []gateway.Option{gateway.WithLogger(logger)}
	if opts.HTTPClient != nil {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(opts.HTTPClient))
	}
	if opts.Timeout > 0 {
		gwOpts = append(gwOpts, gateway.WithTimeout(opts.Timeout))
	}
	gw, err := gateway.New(opts.BaseURL, gwOpts...)
	if err != nil {
		return RunSummary{}, err
	}
	if err := opts.Fixtures.Validate(); err != nil {
		return RunSummary{}, fmt.Errorf("fixtures: %w", err)
	}

	rec := &events.Recorder{}
	catOpts := []steps.Option{
		steps.WithSink(events.Multi(rec, events.LogSink{Logger: logger}, opts.Sink)),
		steps.WithBeforeAuth(opts.BeforeAuth),
	}
	if opts.Contract {
		v, err := contract.New(ctx, opts.BaseURL)
		if err != nil {
			return RunSummary{}, err
		}
		catOpts = append(catOpts, steps.WithContract(v))
	}
	cat := steps.New(gw, opts.Fixtures, catOpts...)

	gopts := godogOptions(ctx, opts)
	logger.Debug("suite start", "base", opts.BaseURL, "paths", gopts.Paths, "tags", opts.Tags, "concurrency", gopts.Concurrency)

	start := time.Now()
	ts := godog.TestSuite{
		Name:                "bookbdd",
		ScenarioInitializer: cat.InitializeScenario,
		Options:             gopts,
	}
	status := ts.Run()
	sum := Summarize(rec.Events(), time.Since(start))

	switch status {
	case 0:
		return sum, nil
	case 1:
		return sum, fmt.Errorf("%w: %d of %d", ErrScenariosFailed, sum.Failed, sum.Total)
	default:
		return sum, fmt.Errorf("%w (godog status %d)", ErrInvalidOptions, status)
	}
}

func godogOptions(ctx context.Context, opts Options) *godog.Options {
	g := &godog.Options{
		Format:         opts.Format,
		Output:         opts.Output,
		Tags:           opts.Tags,
		Concurrency:    opts.Concurrency,
		Strict:         opts.Strict,
		Randomize:      opts.Randomize,
		StopOnFailure:  opts.StopOnFailure,
		DefaultContext: ctx,
		NoColors:       true,
	}
	if g.Format == "" {
		g.Format = defaultFormat
	}
	if g.Output == nil {
		g.Output = os.Stdout
	}
	if g.Concurrency < 1 {
		g.Concurrency = 1
	}
	switch {
	case len(opts.Paths) > 0:
		g.Paths = opts.Paths
	case opts.FS != nil:
		g.FS = opts.FS
		g.Paths = []string{"."}
	default:
		g.FS = features.FS
		g.Paths = []string{"."}
	}
	return g
}
