package steps

import (
	"fmt"
	"regexp"
	"strings"
)

// varPattern matches {{name}} placeholders in endpoints.
var varPattern = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// expand replaces {{name}} tokens in endpoint with vars and fails on any
// placeholder it cannot resolve.
func expand(endpoint string, vars map[string]string) (string, error) {
	var missing []string
	out := varPattern.ReplaceAllStringFunc(endpoint, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		if v, ok := vars[name]; ok && v != "" {
			return v
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved placeholder(s) in %q: %s", endpoint, strings.Join(missing, ", "))
	}
	return out, nil
}
