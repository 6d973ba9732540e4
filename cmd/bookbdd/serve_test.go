package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pkt.systems/bookbdd"
	"pkt.systems/bookbdd/internal/config"
)

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	buf := &bytes.Buffer{}
	logger, _ := newLogger(false, "info", true, false, buf)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, bookbdd.NewTwin(nil), logger) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/booking/1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`"firstname"`)) {
		t.Fatalf("unexpected twin answer %d %s", resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}

func TestTwinHandlerUsesConfiguredCredentials(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOOKBDD_USERNAME", "ops")
	t.Setenv("BOOKBDD_PASSWORD", "s3cret")
	cfg, err := config.Load("", nil)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	h, err := twinHandler(cfg, nil)
	if err != nil {
		t.Fatalf("twin: %v", err)
	}
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/auth", "application/json", strings.NewReader(`{"username":"ops","password":"s3cret"}`))
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.Contains(body, []byte(`"token"`)) {
		t.Fatalf("expected a token for the configured credentials, got %s", body)
	}

	out, err := execute(t, "run", "--base-url", srv.URL, "--tags", "@delete", "--username", "ops", "--password", "s3cret")
	if err != nil {
		t.Fatalf("run against configured twin: %v\n%s", err, out)
	}
}

func TestTwinHandlerRejectsMissingFixtures(t *testing.T) {
	if _, err := twinHandler(config.Config{Fixtures: "does-not-exist.yaml"}, nil); err == nil {
		t.Fatalf("expected error for missing fixture file")
	}
}
