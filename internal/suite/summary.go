package suite

import (
	"time"

	"pkt.systems/bookbdd/internal/events"
)

// Summarize folds recorded events into per-scenario results, in the order
// scenarios started.
func Summarize(evs []events.Event, elapsed time.Duration) RunSummary {
	var order []string
	cases := map[string]*CaseResult{}
	started := map[string]time.Time{}

	get := func(ev events.Event) *CaseResult {
		c, ok := cases[ev.ScenarioID]
		if !ok {
			c = &CaseResult{ID: ev.ScenarioID, Name: ev.Scenario, FilePath: ev.URI}
			cases[ev.ScenarioID] = c
			order = append(order, ev.ScenarioID)
		}
		return c
	}

	for _, ev := range evs {
		switch ev.Kind {
		case events.ScenarioStarted:
			get(ev)
			started[ev.ScenarioID] = ev.Time
		case events.StepFinished:
			c := get(ev)
			c.Steps = append(c.Steps, StepResult{
				Text:     ev.Step,
				Status:   string(ev.Status),
				Duration: ev.Duration,
				Error:    ev.Err,
			})
			if ev.Status == events.StatusFailed {
				c.Failures = append(c.Failures, StepFailure{Step: ev.Step, Message: ev.Err})
			}
		case events.ScenarioFinished:
			c := get(ev)
			if c.FilePath == "" {
				c.FilePath = ev.URI
			}
			if t, ok := started[ev.ScenarioID]; ok {
				c.Duration = ev.Time.Sub(t)
			}
			c.Passed = ev.Status == events.StatusPassed && len(c.Failures) == 0
			if !c.Passed {
				c.ErrorText = ev.Err
			}
		}
	}

	sum := RunSummary{TotalElapsed: elapsed}
	for _, id := range order {
		c := cases[id]
		if c.Passed && allSkipped(c.Steps) {
			c.Skipped = true
		}
		sum.Cases = append(sum.Cases, *c)
		sum.Total++
		switch {
		case c.Skipped:
			sum.Skipped++
		case c.Passed:
			sum.Passed++
		default:
			sum.Failed++
		}
	}
	return sum
}

func allSkipped(steps []StepResult) bool {
	if len(steps) == 0 {
		return false
	}
	for _, st := range steps {
		if st.Status != string(events.StatusSkipped) {
			return false
		}
	}
	return true
}
