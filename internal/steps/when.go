package steps

import (
	"context"
	"net/http"
	"time"

	"github.com/cucumber/godog"
	"pkt.systems/bookbdd/internal/events"
	"pkt.systems/bookbdd/internal/gateway"
	"pkt.systems/bookbdd/internal/session"
)

const createdBookingEndpoint = "/booking/{{bookingid}}"

func (c *Catalog) registerWhen(sc *godog.ScenarioContext) {
	sc.When(`^the user sends a POST request to "([^"]*)" with valid credentials$`, c.postCredentials)
	sc.When(`^the user sends a GET request to "([^"]*)"$`, c.get)
	sc.When(`^the user sends a GET request for the created booking$`, c.getCreated)
	sc.When(`^the user sends a POST request to "([^"]*)" with valid booking data$`, c.createBooking)
	sc.When(`^the user sends a PUT request to "([^"]*)" with updated booking data$`, c.updateBooking)
	sc.When(`^the user sends a PATCH request to "([^"]*)" with partial booking data$`, c.patchBooking)
	sc.When(`^the user sends a DELETE request to "([^"]*)"$`, c.deleteBooking)
	sc.When(`^the user sends a DELETE request for the created booking$`, c.deleteCreated)
}

func (c *Catalog) postCredentials(ctx context.Context, endpoint string) error {
	_, err := c.send(ctx, http.MethodPost, endpoint, c.fixtures.Credentials, false)
	return err
}

func (c *Catalog) get(ctx context.Context, endpoint string) error {
	_, err := c.send(ctx, http.MethodGet, endpoint, nil, false)
	return err
}

func (c *Catalog) getCreated(ctx context.Context) error {
	return c.get(ctx, createdBookingEndpoint)
}

// createBooking posts the create fixture and stores the returned bookingid.
// A response without one leaves the stored identifier untouched so the Then
// steps can report on the response itself.
func (c *Catalog) createBooking(ctx context.Context, endpoint string) error {
	s, err := c.send(ctx, http.MethodPost, endpoint, c.fixtures.Create, false)
	if err != nil {
		return err
	}
	res, _ := s.LastResponse()
	var body struct {
		BookingID *int `json:"bookingid"`
	}
	if res.Status != http.StatusOK || res.Decode(&body) != nil || body.BookingID == nil {
		return nil
	}
	s.SetBookingID(*body.BookingID)
	c.sink.Emit(ctx, events.Event{
		Kind:       events.BookingCreated,
		ScenarioID: s.ID(),
		Scenario:   s.Scenario(),
		Time:       time.Now(),
		Attrs:      map[string]any{"bookingid": *body.BookingID},
	})
	return nil
}

func (c *Catalog) updateBooking(ctx context.Context, endpoint string) error {
	_, err := c.send(ctx, http.MethodPut, endpoint, c.fixtures.Update, true)
	return err
}

func (c *Catalog) patchBooking(ctx context.Context, endpoint string) error {
	_, err := c.send(ctx, http.MethodPatch, endpoint, c.fixtures.Patch, true)
	return err
}

func (c *Catalog) deleteBooking(ctx context.Context, endpoint string) error {
	_, err := c.send(ctx, http.MethodDelete, endpoint, nil, true)
	return err
}

func (c *Catalog) deleteCreated(ctx context.Context) error {
	return c.deleteBooking(ctx, createdBookingEndpoint)
}

// send expands the endpoint, performs the call and records the response as
// the session's last. Authorized calls carry the token cookie when the
// session holds one; without a token the request goes out bare so the API's
// rejection can be asserted.
func (c *Catalog) send(ctx context.Context, method, endpoint string, body any, authorized bool) (*session.Session, error) {
	s, err := current(ctx)
	if err != nil {
		return nil, err
	}
	path, err := expand(endpoint, s.Vars())
	if err != nil {
		return s, err
	}
	req := gateway.Request{Body: body}
	if tok := s.AuthToken(); authorized && tok != "" {
		req.Cookies = map[string]string{"token": tok}
	}
	res, err := c.sender.Send(ctx, method, path, req)
	if err != nil {
		return s, err
	}
	s.SetLastResponse(res)
	return s, nil
}
