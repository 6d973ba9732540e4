package events

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// DefaultSource is the CloudEvents source attribute used when none is set.
const DefaultSource = "pkt.systems/bookbdd"

// CloudEventSink converts events to CloudEvents and hands them to Deliver.
// Deliver errors are reported through OnError when set.
type CloudEventSink struct {
	Source  string
	Deliver func(ctx context.Context, ce cloudevents.Event) error
	OnError func(err error)
}

// Emit implements Sink.
func (s CloudEventSink) Emit(ctx context.Context, ev Event) {
	if s.Deliver == nil {
		return
	}
	if err := s.Deliver(ctx, ToCloudEvent(s.Source, ev)); err != nil && s.OnError != nil {
		s.OnError(err)
	}
}

type cloudEventData struct {
	Scenario   string         `json:"scenario"`
	ScenarioID string         `json:"scenarioId"`
	URI        string         `json:"uri,omitempty"`
	Step       string         `json:"step,omitempty"`
	Status     Status         `json:"status,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"durationMs,omitempty"`
	Attrs      map[string]any `json:"attrs,omitempty"`
}

// ToCloudEvent maps ev to a CloudEvents v1 event with a JSON payload. The
// event type is "bookbdd." + ev.Kind and the subject is the scenario id.
func ToCloudEvent(source string, ev Event) cloudevents.Event {
	if source == "" {
		source = DefaultSource
	}
	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}
	ce := cloudevents.NewEvent()
	ce.SetID(uuid.NewString())
	ce.SetSource(source)
	ce.SetType("bookbdd." + string(ev.Kind))
	ce.SetSubject(ev.ScenarioID)
	ce.SetTime(at)
	ce.SetSpecVersion(cloudevents.VersionV1)
	_ = ce.SetData(cloudevents.ApplicationJSON, cloudEventData{
		Scenario:   ev.Scenario,
		ScenarioID: ev.ScenarioID,
		URI:        ev.URI,
		Step:       ev.Step,
		Status:     ev.Status,
		Error:      ev.Err,
		DurationMS: ev.Duration.Milliseconds(),
		Attrs:      ev.Attrs,
	})
	return ce
}
