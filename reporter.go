package bookbdd

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"os"
	"regexp"
	"strings"
)

// tokenPattern matches the token field of an auth response echoed in
// failure messages, quoted or escaped.
var tokenPattern = regexp.MustCompile(`(\\?"token\\?"\s*:\s*\\?")[^"\\]*`)

const mask = "********"

// RedactReport masks auth tokens and the given secrets (typically the
// password) in every error text of a summary before it is written out.
func RedactReport(sum RunSummary, secrets ...string) RunSummary {
	out := sum
	out.Cases = make([]CaseResult, len(sum.Cases))
	copy(out.Cases, sum.Cases)

	for i := range out.Cases {
		c := &out.Cases[i]
		c.ErrorText = redact(c.ErrorText, secrets)
		c.Failures = append([]StepFailure(nil), c.Failures...)
		for j := range c.Failures {
			c.Failures[j].Message = redact(c.Failures[j].Message, secrets)
		}
		c.Steps = append([]StepResult(nil), c.Steps...)
		for j := range c.Steps {
			c.Steps[j].Error = redact(c.Steps[j].Error, secrets)
		}
	}
	return out
}

func redact(s string, secrets []string) string {
	if s == "" {
		return s
	}
	s = tokenPattern.ReplaceAllString(s, "${1}"+mask)
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, mask)
		}
	}
	return s
}

// WriteReportJSON writes a RunSummary to a JSON file.
func WriteReportJSON(path string, sum RunSummary) error {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Minimal JUnit reporter for CI compatibility.
type junitTestsuite struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []junitTestcase `xml:"testcase"`
}

type junitTestcase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// WriteReportJUnit writes a RunSummary to JUnit XML for CI consumers.
func WriteReportJUnit(path string, sum RunSummary) error {
	ts := junitTestsuite{
		Name:     "bookbdd",
		Tests:    len(sum.Cases),
		Failures: sum.Failed,
		Skipped:  sum.Skipped,
		Time:     fmt.Sprintf("%.3f", sum.TotalElapsed.Seconds()),
	}
	for _, c := range sum.Cases {
		tc := junitTestcase{
			Name:      c.Name,
			Classname: c.FilePath,
			Time:      fmt.Sprintf("%.3f", c.Duration.Seconds()),
		}
		if c.Skipped {
			tc.Skipped = &junitSkipped{}
		} else if !c.Passed {
			msg := c.ErrorText
			body := msg
			if len(c.Failures) > 0 && c.Failures[0].Message != "" {
				msg = c.Failures[0].Message
				body = c.Failures[0].Step + ": " + msg
			}
			tc.Failure = &junitFailure{
				Message: msg,
				Type:    "step",
				Body:    body,
			}
		}
		ts.Cases = append(ts.Cases, tc)
	}
	data, err := xml.MarshalIndent(ts, "", "  ")
	if err != nil {
		return err
	}
	data = append([]byte(xml.Header), data...)
	return os.WriteFile(path, data, 0o644)
}

// HTML template: one table row per scenario, status classes per outcome.
var htmlTemplate = template.Must(template.New("report").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>bookbdd report</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 16px; background: #fafafa; }
    h1 { margin-bottom: 8px; }
    .summary { margin-bottom: 16px; }
    table { width: 100%; border-collapse: collapse; background: #fff; }
    th, td { padding: 8px 10px; border: 1px solid #e0e0e0; font-size: 14px; }
    th { background: #f5f5f5; text-align: left; }
    .status-pass { color: #2e7d32; font-weight: 600; }
    .status-fail { color: #c62828; font-weight: 600; }
    .status-skip { color: #9e9e9e; font-weight: 600; }
    .mono { font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace; font-size: 12px; }
  </style>
</head>
<body>
  <h1>bookbdd report</h1>
  <div class="summary">
    <div>Total: {{.Total}} &nbsp; Passed: {{.Passed}} &nbsp; Failed: {{.Failed}} &nbsp; Skipped: {{.Skipped}} &nbsp; Time: {{.TotalElapsed}}</div>
  </div>
  <table>
    <thead>
      <tr>
        <th>#</th>
        <th>Name</th>
        <th>Feature</th>
        <th>Status</th>
        <th>Steps</th>
        <th>Duration</th>
        <th>Error</th>
      </tr>
    </thead>
    <tbody>
      {{range $idx, $c := .Cases}}
      <tr>
        <td>{{$idx}}</td>
        <td>{{$c.Name}}</td>
        <td class="mono">{{$c.FilePath}}</td>
        <td>
          {{if $c.Skipped}}<span class="status-skip">skipped</span>{{else if $c.Passed}}<span class="status-pass">passed</span>{{else}}<span class="status-fail">failed</span>{{end}}
        </td>
        <td>{{len $c.Steps}}</td>
        <td>{{$c.Duration}}</td>
        <td>{{if $c.ErrorText}}<span class="mono">{{$c.ErrorText}}</span>{{end}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
</body>
</html>`))

// WriteReportHTML renders a simple HTML table summary.
func WriteReportHTML(path string, sum RunSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return htmlTemplate.Execute(f, sum)
}

// WriteReport picks the reporter function by format.
func WriteReport(format, path string, sum RunSummary) error {
	switch strings.ToLower(format) {
	case "json", "":
		return WriteReportJSON(path, sum)
	case "junit":
		return WriteReportJUnit(path, sum)
	case "html":
		return WriteReportHTML(path, sum)
	default:
		return fmt.Errorf("unknown format %s", format)
	}
}
