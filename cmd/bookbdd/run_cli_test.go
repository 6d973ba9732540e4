package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"pkt.systems/bookbdd"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	err := cmd.Execute()
	return buf.String(), err
}

func twinURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(bookbdd.NewTwin(nil))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestRunCommandWritesReports(t *testing.T) {
	base := twinURL(t)
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "report.json")
	junitPath := filepath.Join(dir, "report.xml")

	out, err := execute(t, "run", "--base-url", base, "--tags", "@create", "--report-json", jsonPath, "--report-junit", junitPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var sum bookbdd.RunSummary
	if err := json.Unmarshal(data, &sum); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if sum.Total != 2 || sum.Passed != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if _, err := os.Stat(junitPath); err != nil {
		t.Fatalf("junit report missing: %v", err)
	}
	if !strings.Contains(out, "summary") {
		t.Fatalf("expected summary log line, got %q", out)
	}
}

func TestRunCommandFailsOnBadCredentials(t *testing.T) {
	base := twinURL(t)
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "report.json")

	_, err := execute(t, "run", "--base-url", base, "--tags", "@auth", "--password", "nope", "--report-json", jsonPath)
	if !errors.Is(err, bookbdd.ErrScenariosFailed) {
		t.Fatalf("expected ErrScenariosFailed, got %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("report should be written for failed runs: %v", err)
	}
	if strings.Contains(string(data), `"nope"`) {
		t.Fatalf("password leaked into report: %s", data)
	}
}

func TestRunCommandEnvConfig(t *testing.T) {
	base := twinURL(t)
	t.Setenv("BOOKBDD_BASE_URL", base)
	t.Setenv("BOOKBDD_TAGS", "@delete")
	out, err := execute(t, "run")
	if err != nil {
		t.Fatalf("run via env: %v\n%s", err, out)
	}
}

func TestRunCommandPublishesCloudEvents(t *testing.T) {
	base := twinURL(t)
	var mu sync.Mutex
	types := map[string]int{}
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		types[r.Header.Get("Ce-Type")]++
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer receiver.Close()

	out, err := execute(t, "run", "--base-url", base, "--tags", "@delete", "--events-url", receiver.URL)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	mu.Lock()
	defer mu.Unlock()
	if types["bookbdd.scenario.started"] != 1 || types["bookbdd.scenario.finished"] != 1 {
		t.Fatalf("expected one start and finish event, got %v", types)
	}
	if types["bookbdd.step.finished"] != 7 || types["bookbdd.booking.created"] != 1 {
		t.Fatalf("unexpected step/booking events %v", types)
	}
}

func TestRunCommandRejectsBadConfig(t *testing.T) {
	if _, err := execute(t, "run", "--base-url", "relative/path"); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestBuildHTTPClientInsecureTLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := buildHTTPClient(true, "", false)
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
}

func TestBuildHTTPClientProxyBypass(t *testing.T) {
	client, err := buildHTTPClient(false, "", false)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if client.Transport.(*http.Transport).Proxy == nil {
		t.Fatalf("expected proxy function when noproxy=false")
	}

	client, err = buildHTTPClient(false, "", true)
	if err != nil {
		t.Fatalf("client noproxy: %v", err)
	}
	if client.Transport.(*http.Transport).Proxy != nil {
		t.Fatalf("expected proxy disabled when noproxy=true")
	}
	if client.Jar != nil {
		t.Fatalf("expected no cookie jar")
	}
}

func TestBuildHTTPClientBadCACert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, []byte("not a cert"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := buildHTTPClient(false, path, false); err == nil {
		t.Fatalf("expected error for invalid CA file")
	}
}
