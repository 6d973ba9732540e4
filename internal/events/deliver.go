package events

import (
	"context"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// HTTPDeliver returns a CloudEventSink.Deliver that POSTs each event to
// target in binary content mode. A non-ACK result is returned as an error.
func HTTPDeliver(target string) (func(context.Context, cloudevents.Event) error, error) {
	p, err := cloudevents.NewHTTP(cloudevents.WithTarget(target))
	if err != nil {
		return nil, fmt.Errorf("cloudevents transport: %w", err)
	}
	c, err := cloudevents.NewClient(p, cloudevents.WithTimeNow(), cloudevents.WithUUIDs())
	if err != nil {
		return nil, fmt.Errorf("cloudevents client: %w", err)
	}
	return func(ctx context.Context, ce cloudevents.Event) error {
		if res := c.Send(ctx, ce); !cloudevents.IsACK(res) {
			return fmt.Errorf("deliver %s to %s: %w", ce.Type(), target, res)
		}
		return nil
	}, nil
}
