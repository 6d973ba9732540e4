// Package assert evaluates expectations against gateway responses.
//
// JSON bodies are parsed inside a goja runtime and compared with JavaScript
// strict equality, so a number never equals its string rendering and a
// missing field never equals anything.
package assert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dop251/goja"
	"pkt.systems/bookbdd/internal/gateway"
)

// AssertionError carries the expected and actual values of a failed check
// plus a snippet of the response it was evaluated against.
type AssertionError struct {
	Check    string
	Path     string
	Expected string
	Actual   string
	Status   int
	Body     []byte
}

func (e *AssertionError) Error() string {
	subject := e.Check
	if e.Path != "" {
		subject += " " + e.Path
	}
	return withHTTPContext(fmt.Sprintf("%s: expected %s, got %s", subject, e.Expected, e.Actual), e.Status, e.Body)
}

// withHTTPContext appends status/body snippets to aid debugging when checks fail.
func withHTTPContext(msg string, status int, body []byte) string {
	return fmt.Sprintf("%s (status=%d, body=%q)", msg, status, snippet(body))
}

// snippet trims body to maxBody bytes without splitting a rune.
func snippet(body []byte) string {
	const maxBody = 256
	s := strings.TrimSpace(string(body))
	if len(s) <= maxBody {
		return s
	}
	cut := maxBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func fail(res gateway.Response, check, path, expected, actual string) error {
	return &AssertionError{
		Check:    check,
		Path:     path,
		Expected: expected,
		Actual:   actual,
		Status:   res.Status,
		Body:     res.Body,
	}
}

// Status checks the response status code.
func Status(res gateway.Response, want int) error {
	if res.Status != want {
		return fail(res, "status", "", fmt.Sprint(want), fmt.Sprint(res.Status))
	}
	return nil
}

// StatusIn checks the status code is one of wants.
func StatusIn(res gateway.Response, wants ...int) error {
	if slices.Contains(wants, res.Status) {
		return nil
	}
	parts := make([]string, len(wants))
	for i, w := range wants {
		parts[i] = fmt.Sprint(w)
	}
	return fail(res, "status", "", "one of "+strings.Join(parts, ", "), fmt.Sprint(res.Status))
}

// FieldPresent checks that path resolves to a value other than null.
func FieldPresent(res gateway.Response, path string) error {
	doc, err := parseDocument(res)
	if err != nil {
		return fail(res, "field present", path, "JSON body", err.Error())
	}
	val := doc.lookup(path)
	if !present(val) {
		return fail(res, "field present", path, "non-null value", describe(val))
	}
	return nil
}

// FieldEquals checks that path resolves to a value strictly equal to want.
// want should be a string, bool or number; no coercion is applied.
func FieldEquals(res gateway.Response, path string, want any) error {
	doc, err := parseDocument(res)
	if err != nil {
		return fail(res, "field equals", path, describeGo(want), err.Error())
	}
	val := doc.lookup(path)
	if !val.StrictEquals(doc.vm.ToValue(want)) {
		return fail(res, "field equals", path, describeGo(want), describe(val))
	}
	return nil
}

// BodyEquals compares the raw body text.
func BodyEquals(res gateway.Response, want string) error {
	if got := res.Text(); got != want {
		return fail(res, "body equals", "", fmt.Sprintf("%q", want), fmt.Sprintf("%q", got))
	}
	return nil
}

// NonEmptyCollection checks that the body is a JSON array with at least one element.
func NonEmptyCollection(res gateway.Response) error {
	doc, err := parseDocument(res)
	if err != nil {
		return fail(res, "non-empty collection", "", "JSON array", err.Error())
	}
	items, ok := doc.root.Export().([]any)
	if !ok {
		return fail(res, "non-empty collection", "", "JSON array", describe(doc.root))
	}
	if len(items) == 0 {
		return fail(res, "non-empty collection", "", "at least one element", "empty array")
	}
	return nil
}

// FieldUnchanged checks that path holds the same value in cur as in prev.
// The path is also looked up under top-level object fields of each body, so
// an enveloped creation response can be compared with a bare update response.
func FieldUnchanged(prev, cur gateway.Response, path string) error {
	before, err := parseDocument(prev)
	if err != nil {
		return fail(prev, "field unchanged", path, "JSON body", err.Error())
	}
	was := before.resolve(path)
	if !present(was) {
		return fail(prev, "field unchanged", path, "value in previous response", describe(was))
	}
	after, err := parseDocument(cur)
	if err != nil {
		return fail(cur, "field unchanged", path, describe(was), err.Error())
	}
	is := after.resolve(path)
	// Values come from different runtimes; compare their JSON encodings.
	if encode(was) != encode(is) || !present(is) {
		return fail(cur, "field unchanged", path, describe(was), describe(is))
	}
	return nil
}

// BodyUnchanged checks that cur carries exactly the bytes prev did.
func BodyUnchanged(prev, cur gateway.Response) error {
	if bytes.Equal(prev.Body, cur.Body) {
		return nil
	}
	return fail(cur, "body unchanged", "", fmt.Sprintf("%q", snippet(prev.Body)), fmt.Sprintf("%q", snippet(cur.Body)))
}

func present(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

func encode(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	b, err := json.Marshal(v.Export())
	if err != nil {
		return v.String()
	}
	return string(b)
}

// describe renders a value with its JSON type, e.g. `150 (number)`.
func describe(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "<missing>"
	}
	if goja.IsNull(v) {
		return "null"
	}
	return describeGo(v.Export())
}

func describeGo(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q (string)", val)
	case bool:
		return fmt.Sprintf("%v (boolean)", val)
	case int, int32, int64, float32, float64:
		return fmt.Sprintf("%v (number)", val)
	case []any:
		b, _ := json.Marshal(val)
		return string(b) + " (array)"
	case map[string]any:
		b, _ := json.Marshal(val)
		return string(b) + " (object)"
	default:
		return fmt.Sprintf("%v (%T)", val, val)
	}
}
