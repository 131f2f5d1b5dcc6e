// Package reqctx defines the verb-based request context that tests drive and
// the recorder decorates.
package reqctx

import (
	"context"
	"sort"
	"strings"

	"github.com/rsclarke/k6rec/internal/models"
)

// Context issues HTTP calls on behalf of a test. Implementations own their
// transport; callers own the Context and must Dispose it.
type Context interface {
	Get(ctx context.Context, url string, opts *Options) (*Response, error)
	Post(ctx context.Context, url string, opts *Options) (*Response, error)
	Put(ctx context.Context, url string, opts *Options) (*Response, error)
	Patch(ctx context.Context, url string, opts *Options) (*Response, error)
	Delete(ctx context.Context, url string, opts *Options) (*Response, error)
	Head(ctx context.Context, url string, opts *Options) (*Response, error)
	// Fetch issues opts.Method, defaulting to GET.
	Fetch(ctx context.Context, url string, opts *Options) (*Response, error)
	Dispose(ctx context.Context) error
}

// Options carries per-request parameters. Headers may be given as pairs,
// as a map, or both; pairs come first.
type Options struct {
	Method     string
	HeaderList []models.Header
	Headers    map[string]string
	// Data is sent as JSON unless it is a string or []byte.
	Data any
	// Name labels the call in generated scripts.
	Name string
}

// Response is a fully read HTTP response.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// MethodFor returns the method a Fetch with opts issues.
func MethodFor(opts *Options) string {
	if opts == nil || opts.Method == "" {
		return "GET"
	}
	return strings.ToUpper(opts.Method)
}

// NormalizeHeaders flattens opts into an ordered header list: HeaderList in
// order, then Headers sorted by name.
func NormalizeHeaders(opts *Options) []models.Header {
	if opts == nil {
		return nil
	}
	out := make([]models.Header, 0, len(opts.HeaderList)+len(opts.Headers))
	out = append(out, opts.HeaderList...)
	keys := make([]string, 0, len(opts.Headers))
	for k := range opts.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, models.Header{Name: k, Value: opts.Headers[k]})
	}
	return out
}
