// Package steps binds the booking scenario steps to HTTP actions and
// assertions.
//
// Every scenario gets a fresh session.Session from the Before hook; the
// session travels in the scenario context so handlers never share state
// across scenarios, even when godog runs them concurrently. Handlers report
// through the injected events.Sink and never retry or swallow errors.
package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"pkt.systems/bookbdd/internal/auth"
	"pkt.systems/bookbdd/internal/contract"
	"pkt.systems/bookbdd/internal/events"
	"pkt.systems/bookbdd/internal/fixture"
	"pkt.systems/bookbdd/internal/gateway"
	"pkt.systems/bookbdd/internal/session"
)

var (
	// ErrNoResponse is returned by Then steps that run before any request.
	ErrNoResponse = errors.New("no response recorded in session")
	// ErrNoPrevious is returned by comparisons that need two recorded responses.
	ErrNoPrevious = errors.New("no previous response recorded in session")
	// ErrNoSession means a handler ran outside a scenario started by the Before hook.
	ErrNoSession = errors.New("no session in context")
	// ErrNoContract is returned by the contract step when no validator is configured.
	ErrNoContract = errors.New("contract validation is not configured")
)

// Sender is the gateway operation the catalog depends on.
type Sender interface {
	Send(ctx context.Context, method, path string, r gateway.Request) (gateway.Response, error)
}

// Catalog holds the collaborators shared by all step handlers. It carries no
// scenario state of its own.
type Catalog struct {
	sender     Sender
	auth       *auth.Provider
	fixtures   fixture.Set
	contract   *contract.Validator
	sink       events.Sink
	beforeAuth bool
}

type catalogConfig struct {
	contract   *contract.Validator
	sink       events.Sink
	beforeAuth bool
}

// Option configures a Catalog.
type Option func(*catalogConfig)

// WithSink sets the event sink (default: events.Discard).
func WithSink(sink events.Sink) Option {
	return func(cc *catalogConfig) { cc.sink = sink }
}

// WithContract enables the contract validation step.
func WithContract(v *contract.Validator) Option {
	return func(cc *catalogConfig) { cc.contract = v }
}

// WithBeforeAuth controls whether the Before hook fetches a default token
// (enabled by default). The "valid authentication token" Given step always
// fetches a fresh one.
func WithBeforeAuth(enabled bool) Option {
	return func(cc *catalogConfig) { cc.beforeAuth = enabled }
}

// New constructs a Catalog sending through sender with the given fixtures.
func New(sender Sender, fx fixture.Set, opts ...Option) *Catalog {
	cfg := catalogConfig{beforeAuth: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.sink == nil {
		cfg.sink = events.Discard
	}
	return &Catalog{
		sender:     sender,
		auth:       auth.New(sender),
		fixtures:   fx,
		contract:   cfg.contract,
		sink:       cfg.sink,
		beforeAuth: cfg.beforeAuth,
	}
}

// InitializeScenario installs hooks and steps; it has the shape godog
// expects for TestSuite.ScenarioInitializer.
func (c *Catalog) InitializeScenario(sc *godog.ScenarioContext) {
	sc.Before(c.beforeScenario)
	sc.After(c.afterScenario)
	sc.StepContext().Before(c.beforeStep)
	sc.StepContext().After(c.afterStep)
	c.registerGiven(sc)
	c.registerWhen(sc)
	c.registerThen(sc)
}

func (c *Catalog) beforeScenario(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	s := session.New(sc.Name)
	ctx = session.NewContext(ctx, s)
	c.sink.Emit(ctx, events.Event{
		Kind:       events.ScenarioStarted,
		ScenarioID: s.ID(),
		Scenario:   sc.Name,
		URI:        sc.Uri,
		Time:       time.Now(),
	})
	if !c.beforeAuth {
		return ctx, nil
	}
	if err := c.authenticate(ctx, s); err != nil {
		return ctx, fmt.Errorf("before scenario: %w", err)
	}
	return ctx, nil
}

func (c *Catalog) afterScenario(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
	s, ok := session.FromContext(ctx)
	if !ok {
		return ctx, nil
	}
	ev := events.Event{
		Kind:       events.ScenarioFinished,
		ScenarioID: s.ID(),
		Scenario:   sc.Name,
		URI:        sc.Uri,
		Status:     events.StatusPassed,
		Time:       time.Now(),
	}
	if err != nil {
		ev.Status = events.StatusFailed
		ev.Err = err.Error()
	}
	c.sink.Emit(ctx, ev)
	return ctx, nil
}

type stepStartKey struct{}

func (c *Catalog) beforeStep(ctx context.Context, st *godog.Step) (context.Context, error) {
	return context.WithValue(ctx, stepStartKey{}, time.Now()), nil
}

func (c *Catalog) afterStep(ctx context.Context, st *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
	s, ok := session.FromContext(ctx)
	if !ok {
		return ctx, nil
	}
	ev := events.Event{
		Kind:       events.StepFinished,
		ScenarioID: s.ID(),
		Scenario:   s.Scenario(),
		Step:       st.Text,
		Status:     stepStatus(status),
		Time:       time.Now(),
	}
	if start, ok := ctx.Value(stepStartKey{}).(time.Time); ok {
		ev.Duration = time.Since(start)
	}
	if err != nil {
		ev.Err = err.Error()
	}
	c.sink.Emit(ctx, ev)
	return ctx, nil
}

func stepStatus(st godog.StepResultStatus) events.Status {
	switch st {
	case godog.StepPassed:
		return events.StatusPassed
	case godog.StepSkipped:
		return events.StatusSkipped
	case godog.StepUndefined:
		return events.StatusUndefined
	case godog.StepPending:
		return events.StatusPending
	default:
		return events.StatusFailed
	}
}

func (c *Catalog) authenticate(ctx context.Context, s *session.Session) error {
	token, err := c.auth.Authenticate(ctx, c.fixtures.Credentials)
	if err != nil {
		return err
	}
	s.SetAuthToken(token)
	c.sink.Emit(ctx, events.Event{
		Kind:       events.TokenIssued,
		ScenarioID: s.ID(),
		Scenario:   s.Scenario(),
		Time:       time.Now(),
		Attrs:      map[string]any{"sets": s.TokenSets()},
	})
	return nil
}

func current(ctx context.Context) (*session.Session, error) {
	s, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}
