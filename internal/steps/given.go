package steps

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
	"pkt.systems/bookbdd/internal/assert"
	"pkt.systems/bookbdd/internal/gateway"
)

func (c *Catalog) registerGiven(sc *godog.ScenarioContext) {
	sc.Given(`^the user connects to the API$`, c.userConnects)
	sc.Given(`^a booking with ID "([^"]*)" exists$`, c.bookingExists)
	sc.Given(`^the user has a valid authentication token$`, c.validToken)
	sc.Given(`^a booking has been created$`, c.bookingCreated)
	sc.Given(`^the user has no authentication token$`, c.noToken)
}

// userConnects only asserts that the scenario has a session; there is no
// connection to establish.
func (c *Catalog) userConnects(ctx context.Context) error {
	_, err := current(ctx)
	return err
}

// bookingExists fetches the booking and requires 200. The response is not
// stored: preconditions leave the session untouched.
func (c *Catalog) bookingExists(ctx context.Context, id string) error {
	s, err := current(ctx)
	if err != nil {
		return err
	}
	id, err = expand(id, s.Vars())
	if err != nil {
		return err
	}
	res, err := c.sender.Send(ctx, http.MethodGet, "/booking/"+id, gateway.Request{})
	if err != nil {
		return err
	}
	if err := assert.Status(res, http.StatusOK); err != nil {
		return fmt.Errorf("booking %s does not exist: %w", id, err)
	}
	return nil
}

// validToken fetches a fresh token and replaces whatever the Before hook stored.
func (c *Catalog) validToken(ctx context.Context) error {
	s, err := current(ctx)
	if err != nil {
		return err
	}
	return c.authenticate(ctx, s)
}

// noToken discards the token so mutating steps go out unauthenticated.
func (c *Catalog) noToken(ctx context.Context) error {
	s, err := current(ctx)
	if err != nil {
		return err
	}
	s.ClearAuthToken()
	return nil
}

func (c *Catalog) bookingCreated(ctx context.Context) error {
	if err := c.createBooking(ctx, "/booking"); err != nil {
		return err
	}
	s, _ := current(ctx)
	if !s.HasBooking() {
		res, _ := s.LastResponse()
		return fmt.Errorf("booking creation returned no bookingid (status=%d)", res.Status)
	}
	return nil
}
