// Package script renders recorded calls as a single-user, single-iteration k6 script.
package script

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/rsclarke/k6rec/internal/jsonenc"
	"github.com/rsclarke/k6rec/internal/models"
)

// Preamble lines shared by every script.
const (
	ImportHTTP  = `import http from 'k6/http';`
	ImportCheck = `import { check, sleep } from 'k6';`
	Options     = `export const options = { vus: 1, iterations: 1 };`
)

// Generate returns the script for calls in order. The output is
// deterministic for identical input.
func Generate(calls []models.RecordedCall) string {
	lines := []string{
		ImportHTTP,
		ImportCheck,
		Options,
		`export default function () {`,
	}
	for i, c := range calls {
		v := fmt.Sprintf("res%d", i+1)
		method := strings.ToUpper(c.Method)
		body := "null"
		if hasBody(method) {
			body = Body(c.Body)
		}
		lines = append(lines,
			"  // "+commentSafe(c.Name),
			fmt.Sprintf("  const %s = http.request('%s', %s, %s, { headers: %s });",
				v, method, jsonenc.String(c.URL), body, Headers(c.Headers)),
			fmt.Sprintf("  check(%s, { 'status is 2xx/3xx': (r) => r.status >= 200 && r.status < 400 });", v),
			"  sleep(0.1);",
		)
	}
	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}

func hasBody(method string) bool {
	switch method {
	case "GET", "DELETE", "HEAD":
		return false
	}
	return true
}

// Headers renders hs as a pretty JSON object with lower-cased keys. The
// first occurrence of a name wins regardless of case.
func Headers(hs []models.Header) string {
	out := []byte("{}")
	seen := make(map[string]struct{}, len(hs))
	for _, h := range hs {
		key := strings.ToLower(h.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		updated, err := sjson.SetRawBytes(out, jsonenc.PathKey(key), []byte(jsonenc.String(h.Value)))
		if err != nil {
			continue
		}
		seen[key] = struct{}{}
		out = updated
	}
	pretty, err := jsonenc.Indent(out)
	if err != nil {
		return "{}"
	}
	return string(pretty)
}

// Body renders a recorded body as pretty JSON, or null when absent or not
// encodable.
func Body(body any) string {
	if body == nil {
		return "null"
	}
	var raw []byte
	switch v := body.(type) {
	case json.RawMessage:
		raw = v
	default:
		b, err := jsonenc.Marshal(body)
		if err != nil {
			return "null"
		}
		raw = b
	}
	if len(raw) == 0 {
		return "null"
	}
	pretty, err := jsonenc.Indent(raw)
	if err != nil {
		return "null"
	}
	return string(pretty)
}

// commentSafe keeps a call name on one comment line.
func commentSafe(name string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(name)
}
