package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestSendEncodesJSONBodyAndCookies(t *testing.T) {
	var gotCT, gotCookie, gotAccept, gotMethod, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotCT = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		gotCookie = r.Header.Get("Cookie")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := c.Send(context.Background(), "put", "/booking/7", Request{
		Cookies: map[string]string{"token": "abc123"},
		Body:    map[string]any{"firstname": "Test"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/booking/7" {
		t.Fatalf("unexpected request line %s %s", gotMethod, gotPath)
	}
	if gotCT != "application/json" {
		t.Fatalf("expected json content-type, got %q", gotCT)
	}
	if gotAccept != "application/json" {
		t.Fatalf("expected json accept, got %q", gotAccept)
	}
	if gotCookie != "token=abc123" {
		t.Fatalf("expected token cookie, got %q", gotCookie)
	}
	if gotBody["firstname"] != "Test" {
		t.Fatalf("unexpected body %v", gotBody)
	}
	if res.Status != http.StatusOK || !res.IsJSON() {
		t.Fatalf("unexpected response %+v", res)
	}
	if res.Header["content-type"] != "application/json" {
		t.Fatalf("expected lower-cased headers, got %v", res.Header)
	}
}

func TestSendWithoutBodyOmitsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "" {
			t.Errorf("expected no content-type, got %q", ct)
		}
		b, _ := io.ReadAll(r.Body)
		if len(b) != 0 {
			t.Errorf("expected empty body, got %q", b)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("Created"))
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	res, err := c.Send(context.Background(), http.MethodDelete, "booking/1", Request{})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Status != http.StatusCreated || res.Text() != "Created" {
		t.Fatalf("unexpected response %d %q", res.Status, res.Text())
	}
	if res.IsJSON() {
		t.Fatalf("plain text body reported as json")
	}
}

// 4xx/5xx are ordinary responses, not errors.
func TestSendReturnsErrorStatusesAsResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	res, err := c.Send(context.Background(), http.MethodGet, "/booking/999", Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Status)
	}
}

func TestSendTransportErrorIsTyped(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	c, _ := New("http://example.invalid", WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, cause
		}),
	}))

	_, err := c.Send(context.Background(), http.MethodGet, "/ping", Request{})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap, got %v", err)
	}
	if te.Method != http.MethodGet || !strings.HasSuffix(te.URL, "/ping") {
		t.Fatalf("unexpected error fields %+v", te)
	}
}

func TestSendTimeoutSurfacesAsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, _ := New(srv.URL, WithTimeout(50*time.Millisecond))
	_, err := c.Send(context.Background(), http.MethodGet, "/slow", Request{})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError on timeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWithTimeoutAboveDefaultIsNotCapped(t *testing.T) {
	c, err := New("http://example.invalid", WithTimeout(30*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if c.timeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", c.timeout)
	}
	if c.httpClient.Timeout != 0 && c.httpClient.Timeout < c.timeout {
		t.Fatalf("default client caps requests at %s below the configured %s", c.httpClient.Timeout, c.timeout)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	c, _ = New(srv.URL, WithTimeout(time.Second))
	res, err := c.Send(context.Background(), http.MethodGet, "/slow", Request{})
	if err != nil {
		t.Fatalf("expected slow response within the configured timeout, got %v", err)
	}
	if res.Status != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Status)
	}
}

func TestSendRejectsUnsupportedMethod(t *testing.T) {
	c, _ := New("http://example.invalid")
	_, err := c.Send(context.Background(), "OPTIONS", "/", Request{})
	if !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
}

func TestNewRequiresAbsoluteURL(t *testing.T) {
	if _, err := New("/relative"); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}

func TestDecode(t *testing.T) {
	res := Response{Body: []byte(`{"bookingid":12}`)}
	var out struct {
		BookingID int `json:"bookingid"`
	}
	if err := res.Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.BookingID != 12 {
		t.Fatalf("expected 12, got %d", out.BookingID)
	}
}
