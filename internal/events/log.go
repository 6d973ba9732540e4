package events

import (
	"context"

	"pkt.systems/pslog"
)

// LogSink writes events to a pslog logger: failures at error level, step
// results at info, everything else at debug.
type LogSink struct {
	Logger pslog.Base
}

// Emit implements Sink.
func (s LogSink) Emit(_ context.Context, ev Event) {
	if s.Logger == nil {
		return
	}
	kv := []any{"scenario", ev.Scenario, "id", ev.ScenarioID}
	if ev.Step != "" {
		kv = append(kv, "step", ev.Step)
	}
	if ev.Status != "" {
		kv = append(kv, "status", string(ev.Status))
	}
	if ev.Duration > 0 {
		kv = append(kv, "dur", ev.Duration.String())
	}
	for k, v := range ev.Attrs {
		kv = append(kv, k, v)
	}
	switch {
	case ev.Status == StatusFailed:
		kv = append(kv, "err", ev.Err)
		s.Logger.Error(string(ev.Kind), kv...)
	case ev.Kind == StepFinished || ev.Kind == ScenarioFinished:
		s.Logger.Info(string(ev.Kind), kv...)
	default:
		s.Logger.Debug(string(ev.Kind), kv...)
	}
}
