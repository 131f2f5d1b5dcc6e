// Package redact finds and substitutes sensitive values in recorded headers and bodies.
package redact

import "github.com/rsclarke/k6rec/internal/models"

// HeaderResult replaces a header value in the recorded copy.
type HeaderResult struct {
	Value   string
	Finding *models.Finding
}

// BodyResult replaces a body leaf in the recorded copy.
type BodyResult struct {
	Value   any
	Finding *models.Finding
}

// HeaderRedactor is implemented by policies that inspect request headers.
// A nil result leaves the header untouched.
type HeaderRedactor interface {
	RedactHeader(name, value string) *HeaderResult
}

// BodyRedactor is implemented by policies that inspect body leaves.
// path is the dotted location of the leaf and value is a string, float64 or bool.
// A nil result leaves the leaf untouched.
type BodyRedactor interface {
	RedactBody(path string, value any) *BodyResult
}

// Policy is any value implementing HeaderRedactor, BodyRedactor or both.
// Capabilities are detected the same way pipeline hooks are.
type Policy any

// PolicyFuncs adapts plain functions to both redactor interfaces.
// A nil function is a pass-through.
type PolicyFuncs struct {
	Header func(name, value string) *HeaderResult
	Body   func(path string, value any) *BodyResult
}

// RedactHeader calls f.Header if set.
func (f PolicyFuncs) RedactHeader(name, value string) *HeaderResult {
	if f.Header == nil {
		return nil
	}
	return f.Header(name, value)
}

// RedactBody calls f.Body if set.
func (f PolicyFuncs) RedactBody(path string, value any) *BodyResult {
	if f.Body == nil {
		return nil
	}
	return f.Body(path, value)
}
