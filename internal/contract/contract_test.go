package contract

import (
	"context"
	"errors"
	"testing"

	"pkt.systems/bookbdd/internal/gateway"
)

const base = "http://booker.test"

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New(context.Background(), base)
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	return v
}

func jsonResponse(method, path string, status int, body string) gateway.Response {
	return gateway.Response{
		Method: method,
		URL:    base + path,
		Status: status,
		Header: map[string]string{"content-type": "application/json; charset=utf-8"},
		Body:   []byte(body),
	}
}

func TestValidateAcceptsConformingResponses(t *testing.T) {
	v := newValidator(t)
	cases := []gateway.Response{
		jsonResponse("POST", "/auth", 200, `{"token":"abc"}`),
		jsonResponse("GET", "/booking", 200, `[{"bookingid":1},{"bookingid":2}]`),
		jsonResponse("POST", "/booking", 200, `{"bookingid":1,"booking":{"firstname":"Test","lastname":"User","totalprice":150,"depositpaid":true,"bookingdates":{"checkin":"2024-01-01","checkout":"2024-01-05"},"additionalneeds":"Breakfast"}}`),
		jsonResponse("PATCH", "/booking/1", 200, `{"firstname":"P","lastname":"User","totalprice":150,"depositpaid":true,"bookingdates":{"checkin":"2024-01-01","checkout":"2024-01-05"}}`),
		{Method: "DELETE", URL: base + "/booking/1", Status: 201, Header: map[string]string{"content-type": "text/plain; charset=utf-8"}, Body: []byte("Created")},
		{Method: "GET", URL: base + "/booking/9", Status: 404, Header: map[string]string{"content-type": "text/plain"}, Body: []byte("Not Found")},
	}
	for _, res := range cases {
		if err := v.Validate(context.Background(), res); err != nil {
			t.Fatalf("%s %s: unexpected violation: %v", res.Method, res.URL, err)
		}
	}
}

func TestValidateRejectsWrongFieldType(t *testing.T) {
	v := newValidator(t)
	res := jsonResponse("GET", "/booking/1", 200, `{"firstname":"Test","lastname":"User","totalprice":"150","depositpaid":true,"bookingdates":{"checkin":"2024-01-01","checkout":"2024-01-05"}}`)

	err := v.Validate(context.Background(), res)
	var ve *ViolationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ViolationError, got %v", err)
	}
	if ve.Status != 200 {
		t.Fatalf("unexpected status %d", ve.Status)
	}
}

func TestValidateRejectsMissingEnvelopeField(t *testing.T) {
	v := newValidator(t)
	res := jsonResponse("POST", "/booking", 200, `{"booking":{"firstname":"Test","lastname":"User","totalprice":150,"depositpaid":true,"bookingdates":{"checkin":"2024-01-01","checkout":"2024-01-05"}}}`)
	if err := v.Validate(context.Background(), res); err == nil {
		t.Fatalf("expected violation for missing bookingid")
	}
}

func TestValidateRejectsUndocumentedStatus(t *testing.T) {
	v := newValidator(t)
	res := jsonResponse("GET", "/booking", 418, `[]`)
	if err := v.Validate(context.Background(), res); err == nil {
		t.Fatalf("expected violation for undocumented status")
	}
}

func TestValidateUnknownRoute(t *testing.T) {
	v := newValidator(t)
	err := v.Validate(context.Background(), jsonResponse("GET", "/rooms", 200, `[]`))
	if !errors.Is(err, ErrUnknownRoute) {
		t.Fatalf("expected ErrUnknownRoute, got %v", err)
	}
}

func TestNewFromDataRejectsInvalidDocument(t *testing.T) {
	if _, err := NewFromData(context.Background(), base, []byte("openapi: 3.0.3\ninfo: {}\npaths: 12\n")); err == nil {
		t.Fatalf("expected error for invalid document")
	}
}
