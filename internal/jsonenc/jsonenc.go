// Package jsonenc encodes JSON the way a JavaScript runtime prints it:
// no HTML escaping and two-space indentation.
package jsonenc

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Marshal encodes v without escaping <, > and &.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// String encodes s as a JSON string literal.
func String(s string) string {
	b, err := Marshal(s)
	if err != nil {
		// strings always encode
		return `""`
	}
	return string(b)
}

// Indent pretty-prints raw JSON with a two-space indent, keeping key order.
func Indent(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PathKey escapes an object key for use as one gjson/sjson path component.
// All-digit keys get the ':' prefix so they address an object key rather
// than an array index.
func PathKey(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		case ':':
			if i == 0 {
				b.WriteByte('\\')
			}
		}
		b.WriteRune(r)
	}
	s := b.String()
	if s != "" && strings.Trim(s, "0123456789") == "" {
		return ":" + s
	}
	return s
}
