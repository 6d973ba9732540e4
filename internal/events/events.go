// Package events is the observability boundary of the step engine. Step
// handlers and hooks describe what happened as Events; sinks decide where
// they go.
package events

import (
	"context"
	"sync"
	"time"
)

// Kind names an event type.
type Kind string

const (
	ScenarioStarted  Kind = "scenario.started"
	ScenarioFinished Kind = "scenario.finished"
	StepFinished     Kind = "step.finished"
	BookingCreated   Kind = "booking.created"
	TokenIssued      Kind = "auth.token"
)

// Status is the outcome carried by finished events.
type Status string

const (
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusUndefined Status = "undefined"
	StatusPending   Status = "pending"
)

// Event is one structured observation.
type Event struct {
	Kind       Kind
	ScenarioID string
	Scenario   string
	URI        string
	Step       string
	Status     Status
	Err        string
	Duration   time.Duration
	Time       time.Time
	Attrs      map[string]any
}

// Sink receives events. Implementations must be safe for concurrent use;
// scenarios may run in parallel.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event)

func (f SinkFunc) Emit(ctx context.Context, ev Event) { f(ctx, ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) {})

// Multi fans events out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var out []Sink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return SinkFunc(func(ctx context.Context, ev Event) {
		for _, s := range out {
			s.Emit(ctx, ev)
		}
	})
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (r *Recorder) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns recorded events of the given kind.
func (r *Recorder) Filter(kind Kind) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
