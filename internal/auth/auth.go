// Package auth exchanges credentials for a booking API token.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"pkt.systems/bookbdd/internal/fixture"
	"pkt.systems/bookbdd/internal/gateway"
)

// DefaultPath is the credential exchange endpoint.
const DefaultPath = "/auth"

// Sender is the part of the gateway the provider needs.
type Sender interface {
	Send(ctx context.Context, method, path string, r gateway.Request) (gateway.Response, error)
}

// AuthenticationError reports a failed exchange: a non-200 status or a
// response without a token.
type AuthenticationError struct {
	Status int
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed (status=%d): %s", e.Status, e.Reason)
}

// Provider performs one synchronous exchange per call; tokens are never cached.
type Provider struct {
	sender Sender
	path   string
}

// New constructs a Provider posting to DefaultPath.
func New(sender Sender) *Provider {
	return &Provider{sender: sender, path: DefaultPath}
}

// Authenticate posts creds and returns the token. Transport failures are
// returned unchanged as *gateway.TransportError.
func (p *Provider) Authenticate(ctx context.Context, creds fixture.Credentials) (string, error) {
	res, err := p.sender.Send(ctx, http.MethodPost, p.path, gateway.Request{Body: creds})
	if err != nil {
		return "", err
	}
	if res.Status != http.StatusOK {
		return "", &AuthenticationError{Status: res.Status, Reason: "unexpected status"}
	}
	var body struct {
		Token  *string `json:"token"`
		Reason string  `json:"reason"`
	}
	if err := res.Decode(&body); err != nil {
		return "", &AuthenticationError{Status: res.Status, Reason: "response is not JSON"}
	}
	if body.Token == nil || *body.Token == "" {
		reason := "response has no token"
		if body.Reason != "" {
			reason += ": " + body.Reason
		}
		return "", &AuthenticationError{Status: res.Status, Reason: reason}
	}
	return *body.Token, nil
}
