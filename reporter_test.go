package bookbdd

import (
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleSummary() RunSummary {
	return RunSummary{
		Cases: []CaseResult{
			{Name: "ok", FilePath: "create.feature", Passed: true, Duration: 1200 * time.Millisecond,
				Steps: []StepResult{{Text: "the response status code should be 200", Status: "passed"}}},
			{Name: "skipped", FilePath: "read.feature", Passed: true, Skipped: true},
			{Name: "fail", FilePath: "update.feature", ErrorText: "status: expected 200, got 403",
				Failures: []StepFailure{{Step: "the response status code should be 200", Message: "status: expected 200, got 403"}},
				Duration: 800 * time.Millisecond},
		},
		Total:        3,
		Passed:       1,
		Failed:       1,
		Skipped:      1,
		TotalElapsed: 3 * time.Second,
	}
}

func TestWriteReportJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	if err := WriteReportJSON(out, sampleSummary()); err != nil {
		t.Fatalf("write json: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	var decoded RunSummary
	if err := json.NewDecoder(f).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Failed != 1 || len(decoded.Cases) != 3 || len(decoded.Cases[0].Steps) != 1 {
		t.Fatalf("unexpected decoded summary %+v", decoded)
	}
}

func TestWriteReportJUnit(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.xml")
	if err := WriteReportJUnit(out, sampleSummary()); err != nil {
		t.Fatalf("write junit: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read junit: %v", err)
	}

	var suite junitTestsuite
	if err := xml.Unmarshal(data, &suite); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if suite.Tests != 3 || suite.Failures != 1 || suite.Skipped != 1 {
		t.Fatalf("unexpected suite %+v", suite)
	}
	if len(suite.Cases) != 3 || suite.Cases[2].Failure == nil {
		t.Fatalf("expected failure case recorded")
	}
	if !strings.HasPrefix(suite.Cases[2].Failure.Body, "the response status code should be 200: ") {
		t.Fatalf("expected failing step in body, got %q", suite.Cases[2].Failure.Body)
	}
	if suite.Cases[1].Skipped == nil {
		t.Fatalf("expected skipped case recorded")
	}
}

func TestRedactReport(t *testing.T) {
	sum := RunSummary{
		Cases: []CaseResult{{
			Name:      "auth",
			ErrorText: `field present token: expected value (status=200, body="{\"token\":\"abc123\"}")`,
			Failures:  []StepFailure{{Step: "s", Message: `login with password123 failed, body {"token": "abc123"}`}},
			Steps:     []StepResult{{Text: "s", Error: "password123"}},
		}},
	}

	got := RedactReport(sum, "password123", "")
	c := got.Cases[0]
	if strings.Contains(c.Failures[0].Message, "abc123") || strings.Contains(c.Failures[0].Message, "password123") {
		t.Fatalf("secrets not masked: %q", c.Failures[0].Message)
	}
	if strings.Contains(c.ErrorText, "abc123") {
		t.Fatalf("escaped token not masked: %q", c.ErrorText)
	}
	if c.Steps[0].Error != "********" {
		t.Fatalf("step error not masked: %q", c.Steps[0].Error)
	}
	if sum.Cases[0].Steps[0].Error != "password123" {
		t.Fatalf("input summary must not be modified")
	}
	if !strings.Contains(c.Failures[0].Message, `"token": "********"`) {
		t.Fatalf("expected masked token field, got %q", c.Failures[0].Message)
	}
}

func TestWriteReportHTML(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.html")
	if err := WriteReportHTML(out, sampleSummary()); err != nil {
		t.Fatalf("write html: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	html := string(got)
	for _, want := range []string{
		"<title>bookbdd report</title>",
		"Total: 3",
		`<span class="status-fail">failed</span>`,
		`<span class="status-skip">skipped</span>`,
		"status: expected 200, got 403",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("html report missing %q:\n%s", want, html)
		}
	}
}

func TestWriteReportUnknownFormat(t *testing.T) {
	if err := WriteReport("xml", filepath.Join(t.TempDir(), "r"), RunSummary{}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
