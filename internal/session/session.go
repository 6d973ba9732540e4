// Package session holds the state one scenario carries between its steps.
//
// A Session is created fresh for every scenario and travels through the
// scenario's context.Context; it is never shared between scenarios. Reading
// BookingID before a creation step has run is a scenario authoring error and
// is not guarded here.
package session

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"pkt.systems/bookbdd/internal/gateway"
)

// Session is scenario-scoped mutable state.
type Session struct {
	id       string
	scenario string

	authToken  string
	tokenSets  int
	bookingID  int
	hasBooking bool
	last       *gateway.Response
	previous   *gateway.Response
}

// New returns an empty session for the named scenario.
func New(scenario string) *Session {
	return &Session{id: uuid.NewString(), scenario: scenario}
}

// ID uniquely identifies the scenario execution.
func (s *Session) ID() string { return s.id }

// Scenario returns the scenario name.
func (s *Session) Scenario() string { return s.scenario }

// SetAuthToken replaces the current token.
func (s *Session) SetAuthToken(token string) {
	s.authToken = token
	s.tokenSets++
}

// ClearAuthToken drops the current token; TokenSets is unchanged.
func (s *Session) ClearAuthToken() { s.authToken = "" }

// AuthToken returns the current token ("" before authentication).
func (s *Session) AuthToken() string { return s.authToken }

// TokenSets counts how many times a token was stored in this scenario.
func (s *Session) TokenSets() int { return s.tokenSets }

// SetBookingID stores the identifier of the booking created last.
func (s *Session) SetBookingID(id int) {
	s.bookingID = id
	s.hasBooking = true
}

// BookingID returns the last created booking identifier.
func (s *Session) BookingID() int { return s.bookingID }

// HasBooking reports whether a creation step has stored an identifier.
func (s *Session) HasBooking() bool { return s.hasBooking }

// SetLastResponse records res as the most recent response; the one it
// replaces becomes Previous.
func (s *Session) SetLastResponse(res gateway.Response) {
	s.previous = s.last
	s.last = &res
}

// LastResponse returns the most recent response, if any.
func (s *Session) LastResponse() (gateway.Response, bool) {
	if s.last == nil {
		return gateway.Response{}, false
	}
	return *s.last, true
}

// PreviousResponse returns the response recorded before the last one.
func (s *Session) PreviousResponse() (gateway.Response, bool) {
	if s.previous == nil {
		return gateway.Response{}, false
	}
	return *s.previous, true
}

// Vars exposes session values for endpoint placeholder expansion.
func (s *Session) Vars() map[string]string {
	vars := map[string]string{"token": s.authToken}
	if s.hasBooking {
		vars["bookingid"] = strconv.Itoa(s.bookingID)
	}
	return vars
}

type ctxKey struct{}

// NewContext returns a child context carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext extracts the session stored by NewContext.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
