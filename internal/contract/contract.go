// Package contract validates booking API responses against an OpenAPI 3
// description of the API.
package contract

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"pkt.systems/bookbdd/internal/gateway"
)

//go:embed booker.openapi.yaml
var bookerSpec []byte

// ErrUnknownRoute is returned when a response belongs to no documented operation.
var ErrUnknownRoute = errors.New("no documented operation")

// ViolationError reports a response that does not conform to the contract.
type ViolationError struct {
	Method string
	URL    string
	Status int
	Err    error
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("contract violation: %s %s (status=%d): %v", e.Method, e.URL, e.Status, e.Err)
}

func (e *ViolationError) Unwrap() error { return e.Err }

// Validator matches responses to operations and validates status, headers
// and body.
type Validator struct {
	router routers.Router
}

// New builds a Validator for the embedded booking API description served
// at baseURL.
func New(ctx context.Context, baseURL string) (*Validator, error) {
	return NewFromData(ctx, baseURL, bookerSpec)
}

// NewFromData builds a Validator from an OpenAPI 3 document (JSON or YAML).
// The document's servers are replaced by baseURL.
func NewFromData(ctx context.Context, baseURL string, data []byte) (*Validator, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load openapi: %w", err)
	}
	doc.Servers = openapi3.Servers{&openapi3.Server{URL: strings.TrimRight(baseURL, "/")}}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi: %w", err)
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("openapi router: %w", err)
	}
	return &Validator{router: router}, nil
}

// Validate checks res against the operation its method and URL resolve to.
func (v *Validator) Validate(ctx context.Context, res gateway.Response) error {
	req, err := http.NewRequestWithContext(ctx, res.Method, res.URL, http.NoBody)
	if err != nil {
		return fmt.Errorf("rebuild request: %w", err)
	}
	route, pathParams, err := v.router.FindRoute(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnknownRoute, res.Method, res.URL, err)
	}
	header := http.Header{}
	for k, val := range res.Header {
		header.Set(k, val)
	}
	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: res.Status,
		Header: header,
		Options: &openapi3filter.Options{
			IncludeResponseStatus: true,
			MultiError:            true,
		},
	}
	input.SetBodyBytes(bytes.Clone(res.Body))
	if err := openapi3filter.ValidateResponse(ctx, input); err != nil {
		return &ViolationError{Method: res.Method, URL: res.URL, Status: res.Status, Err: err}
	}
	return nil
}
