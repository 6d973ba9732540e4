package steps

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
	"pkt.systems/bookbdd/internal/assert"
	"pkt.systems/bookbdd/internal/fixture"
	"pkt.systems/bookbdd/internal/gateway"
)

func (c *Catalog) registerThen(sc *godog.ScenarioContext) {
	sc.Then(`^the response status code should be (\d+)$`, c.statusIs)
	sc.Then(`^the response status code should be (\d+) or (\d+)$`, c.statusIsEither)
	sc.Then(`^the response should contain a token$`, c.containsToken)
	sc.Then(`^the response should contain a list of booking IDs$`, c.containsBookingList)
	sc.Then(`^the response should contain the booking details$`, c.containsBookingDetails)
	sc.Then(`^the response should contain the booking ID$`, c.containsBookingID)
	sc.Then(`^the response should match the provided booking details$`, c.matchesCreated)
	sc.Then(`^the response should contain the updated booking details$`, c.matchesUpdated)
	sc.Then(`^the response should contain the partially updated booking details$`, c.matchesPatched)
	sc.Then(`^the response body should be "([^"]*)"$`, c.bodyIs)
	sc.Then(`^the response field "([^"]*)" should be present$`, c.fieldPresent)
	sc.Then(`^the response field "([^"]*)" should equal "([^"]*)"$`, c.fieldEqualsString)
	sc.Then(`^the response field "([^"]*)" should equal (-?\d+)$`, c.fieldEqualsInt)
	sc.Then(`^the response field "([^"]*)" should be (true|false)$`, c.fieldIsBool)
	sc.Then(`^the response field "([^"]*)" should be unchanged from the previous response$`, c.fieldUnchanged)
	sc.Then(`^the response body should be identical to the previous response$`, c.bodyUnchanged)
	sc.Then(`^the response should conform to the booking API contract$`, c.conformsToContract)
}

func lastResponse(ctx context.Context) (gateway.Response, error) {
	s, err := current(ctx)
	if err != nil {
		return gateway.Response{}, err
	}
	res, ok := s.LastResponse()
	if !ok {
		return gateway.Response{}, ErrNoResponse
	}
	return res, nil
}

func (c *Catalog) statusIs(ctx context.Context, want int) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	return assert.Status(res, want)
}

func (c *Catalog) statusIsEither(ctx context.Context, a, b int) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	return assert.StatusIn(res, a, b)
}

func (c *Catalog) containsToken(ctx context.Context) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	return assert.FieldPresent(res, "token")
}

func (c *Catalog) containsBookingList(ctx context.Context) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	if err := assert.NonEmptyCollection(res); err != nil {
		return err
	}
	return assert.FieldPresent(res, "0.bookingid")
}

func (c *Catalog) containsBookingDetails(ctx context.Context) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	return errors.Join(
		assert.FieldPresent(res, "firstname"),
		assert.FieldPresent(res, "lastname"),
	)
}

func (c *Catalog) containsBookingID(ctx context.Context) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	return assert.FieldPresent(res, "bookingid")
}

// matchesCreated compares the creation envelope with the create fixture.
func (c *Catalog) matchesCreated(ctx context.Context) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	want := c.fixtures.Create
	return errors.Join(
		assert.FieldEquals(res, "booking.firstname", want.Firstname),
		assert.FieldEquals(res, "booking.lastname", want.Lastname),
	)
}

func (c *Catalog) matchesUpdated(ctx context.Context) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	want := c.fixtures.Update
	return errors.Join(
		assert.FieldEquals(res, "firstname", want.Firstname),
		assert.FieldEquals(res, "lastname", want.Lastname),
	)
}

// matchesPatched checks every field the partial fixture carries.
func (c *Catalog) matchesPatched(ctx context.Context) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	return errors.Join(patchChecks(res, c.fixtures.Patch)...)
}

func patchChecks(res gateway.Response, p fixture.PartialBooking) []error {
	var errs []error
	if p.Firstname != nil {
		errs = append(errs, assert.FieldEquals(res, "firstname", *p.Firstname))
	}
	if p.Lastname != nil {
		errs = append(errs, assert.FieldEquals(res, "lastname", *p.Lastname))
	}
	if p.TotalPrice != nil {
		errs = append(errs, assert.FieldEquals(res, "totalprice", *p.TotalPrice))
	}
	if p.DepositPaid != nil {
		errs = append(errs, assert.FieldEquals(res, "depositpaid", *p.DepositPaid))
	}
	if p.BookingDates != nil {
		errs = append(errs,
			assert.FieldEquals(res, "bookingdates.checkin", p.BookingDates.Checkin),
			assert.FieldEquals(res, "bookingdates.checkout", p.BookingDates.Checkout),
		)
	}
	if p.AdditionalNeeds != nil {
		errs = append(errs, assert.FieldEquals(res, "additionalneeds", *p.AdditionalNeeds))
	}
	return errs
}

func (c *Catalog) bodyIs(ctx context.Context, want string) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	return assert.BodyEquals(res, want)
}

func (c *Catalog) fieldPresent(ctx context.Context, path string) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	return assert.FieldPresent(res, path)
}

func (c *Catalog) fieldEqualsString(ctx context.Context, path, want string) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	return assert.FieldEquals(res, path, want)
}

func (c *Catalog) fieldEqualsInt(ctx context.Context, path string, want int) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	return assert.FieldEquals(res, path, want)
}

func (c *Catalog) fieldIsBool(ctx context.Context, path, want string) error {
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	b, err := strconv.ParseBool(want)
	if err != nil {
		return fmt.Errorf("invalid boolean %q: %w", want, err)
	}
	return assert.FieldEquals(res, path, b)
}

func (c *Catalog) fieldUnchanged(ctx context.Context, path string) error {
	s, err := current(ctx)
	if err != nil {
		return err
	}
	cur, ok := s.LastResponse()
	if !ok {
		return ErrNoResponse
	}
	prev, ok := s.PreviousResponse()
	if !ok {
		return fmt.Errorf("field %s: %w", path, ErrNoPrevious)
	}
	return assert.FieldUnchanged(prev, cur, path)
}

func (c *Catalog) bodyUnchanged(ctx context.Context) error {
	s, err := current(ctx)
	if err != nil {
		return err
	}
	cur, ok := s.LastResponse()
	if !ok {
		return ErrNoResponse
	}
	prev, ok := s.PreviousResponse()
	if !ok {
		return fmt.Errorf("body: %w", ErrNoPrevious)
	}
	return assert.BodyUnchanged(prev, cur)
}

func (c *Catalog) conformsToContract(ctx context.Context) error {
	if c.contract == nil {
		return ErrNoContract
	}
	res, err := lastResponse(ctx)
	if err != nil {
		return err
	}
	return c.contract.Validate(ctx, res)
}
