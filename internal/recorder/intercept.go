package recorder

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/rsclarke/k6rec/internal/logging"
	"github.com/rsclarke/k6rec/internal/reqctx"
)

// Interceptor decorates a reqctx.Context. Verb methods run the real call
// with the caller's arguments and record it once it succeeds. Everything
// else, Dispose included, goes straight to the embedded context.
type Interceptor struct {
	reqctx.Context
	rec *Recorder
}

var _ reqctx.Context = (*Interceptor)(nil)

type verbFunc func(ctx context.Context, url string, opts *reqctx.Options) (*reqctx.Response, error)

// Unwrap returns the decorated context.
func (i *Interceptor) Unwrap() reqctx.Context { return i.Context }

// Recorder returns the recorder calls are appended to.
func (i *Interceptor) Recorder() *Recorder { return i.rec }

func (i *Interceptor) Get(ctx context.Context, url string, opts *reqctx.Options) (*reqctx.Response, error) {
	return i.capture(ctx, http.MethodGet, url, opts, i.Context.Get)
}

func (i *Interceptor) Post(ctx context.Context, url string, opts *reqctx.Options) (*reqctx.Response, error) {
	return i.capture(ctx, http.MethodPost, url, opts, i.Context.Post)
}

func (i *Interceptor) Put(ctx context.Context, url string, opts *reqctx.Options) (*reqctx.Response, error) {
	return i.capture(ctx, http.MethodPut, url, opts, i.Context.Put)
}

func (i *Interceptor) Patch(ctx context.Context, url string, opts *reqctx.Options) (*reqctx.Response, error) {
	return i.capture(ctx, http.MethodPatch, url, opts, i.Context.Patch)
}

func (i *Interceptor) Delete(ctx context.Context, url string, opts *reqctx.Options) (*reqctx.Response, error) {
	return i.capture(ctx, http.MethodDelete, url, opts, i.Context.Delete)
}

func (i *Interceptor) Head(ctx context.Context, url string, opts *reqctx.Options) (*reqctx.Response, error) {
	return i.capture(ctx, http.MethodHead, url, opts, i.Context.Head)
}

func (i *Interceptor) Fetch(ctx context.Context, url string, opts *reqctx.Options) (*reqctx.Response, error) {
	return i.capture(ctx, reqctx.MethodFor(opts), url, opts, i.Context.Fetch)
}

// capture runs the real call first. Redaction only ever touches the
// recorded copy, and a failed call is not recorded.
func (i *Interceptor) capture(ctx context.Context, method, url string, opts *reqctx.Options, call verbFunc) (*reqctx.Response, error) {
	resp, err := call(ctx, url, opts)
	if err != nil {
		i.rec.metrics.CallFailed(method)
		i.rec.logger.Debug("call failed, not recorded",
			logging.Method(method),
			logging.URL(url),
			zap.Error(err))
		return resp, err
	}
	i.rec.capture(method, url, opts, resp)
	return resp, nil
}
