// Package models defines the recorded call and finding types shared across the pipeline.
package models

// Source identifies the channel a secret was discovered in.
type Source string

// Finding sources.
const (
	SourceHeader Source = "header"
	SourceBody   Source = "body"
)

// Header is a single request header as the caller supplied it.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RecordedCall is a redacted snapshot of one intercepted HTTP call.
// Body holds a json.RawMessage after redaction, or the caller's original
// value when it could not be cloned.
type RecordedCall struct {
	Name            string            `json:"name"`
	Method          string            `json:"method"`
	URL             string            `json:"url"`
	Headers         []Header          `json:"headers,omitempty"`
	Body            any               `json:"body,omitempty"`
	Status          int               `json:"status,omitempty"`
	ResponseHeaders map[string]string `json:"response_headers,omitempty"`
}

// Finding describes one discovered secret occurrence and the environment
// variable it should be bound to.
type Finding struct {
	EnvName string `json:"env_name"`
	Value   string `json:"value"`
	Source  Source `json:"source"`
	Path    string `json:"path"`
}

// Session is an archived, flushed recording.
type Session struct {
	ID         string
	Slug       string
	Title      string
	ScriptPath string
	CreatedAt  int64
	CallCount  int
}
