// Package k6rec records the HTTP calls a Go test makes and exports them as a
// single-user, single-iteration k6 script.
//
// Recording is off unless K6_EXPORT is set:
//
//	setup := k6rec.New("create user", nil)
//	if setup == nil {
//		t.Skip("set K6_EXPORT=1 to export a k6 script")
//	}
//	defer setup.Context.Dispose(ctx)
//	_, _ = setup.Context.Post(ctx, "https://api.example.com/users", &k6rec.Options{Data: user})
//	path, err := setup.Recorder.Flush()
package k6rec

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rsclarke/k6rec/internal/config"
	"github.com/rsclarke/k6rec/internal/metrics"
	"github.com/rsclarke/k6rec/internal/models"
	"github.com/rsclarke/k6rec/internal/policy"
	"github.com/rsclarke/k6rec/internal/recorder"
	"github.com/rsclarke/k6rec/internal/redact"
	"github.com/rsclarke/k6rec/internal/reqctx"
)

type (
	Context       = reqctx.Context
	Options       = reqctx.Options
	Response      = reqctx.Response
	Client        = reqctx.Client
	Header        = models.Header
	RecordedCall  = models.RecordedCall
	Finding       = models.Finding
	Config        = config.Config
	Recorder      = recorder.Recorder
	Interceptor   = recorder.Interceptor
	Setup         = recorder.Setup
	Option        = recorder.Option
	Metrics       = metrics.Metrics
	HeaderResult  = redact.HeaderResult
	BodyResult    = redact.BodyResult
	PolicyFuncs   = redact.PolicyFuncs
	PolicyOptions = policy.Options
	BasicPolicy   = policy.Basic
)

// Options for New and ForTest.
var (
	WithLogger           = recorder.WithLogger
	WithMetrics          = recorder.WithMetrics
	WithPolicy           = recorder.WithPolicy
	WithoutDefaultPolicy = recorder.WithoutDefaultPolicy
	WithArchive          = recorder.WithArchive
)

// Finding sources.
const (
	SourceHeader = models.SourceHeader
	SourceBody   = models.SourceBody
)

// TestTag marks tests ForTest records.
const TestTag = "@k6"

// NewClient returns a net/http backed Context.
func NewClient(baseURL string) *Client { return reqctx.NewClient(baseURL) }

// ConfigFromEnv resolves the configuration from the environment.
func ConfigFromEnv() *Config { return config.FromEnv() }

// DefaultPolicy returns the bundled redaction policy.
func DefaultPolicy(envPrefix string) *BasicPolicy { return policy.Default(envPrefix) }

// NewPolicy compiles a Basic policy from opts.
func NewPolicy(opts PolicyOptions) (*BasicPolicy, error) { return policy.NewBasic(opts) }

// NewMetrics registers recorder counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics { return metrics.New(reg) }

// New starts a recording for the test titled title using the environment
// configuration. It returns nil when K6_EXPORT is not set.
func New(title string, base Context, opts ...Option) *Setup {
	return recorder.Start(title, base, config.FromEnv(), opts...)
}

// NewWithConfig is New with an explicit configuration.
func NewWithConfig(title string, base Context, cfg *Config, opts ...Option) *Setup {
	return recorder.Start(title, base, cfg, opts...)
}

// ForTest returns base wrapped for recording when K6_EXPORT is set and the
// test name contains TestTag, flushing on cleanup if any call was recorded.
// Otherwise base is returned as is. The caller still owns base.
func ForTest(t testing.TB, base Context, opts ...Option) Context {
	t.Helper()
	return forTest(t, base, config.FromEnv(), opts...)
}

func forTest(t testing.TB, base Context, cfg *Config, opts ...Option) Context {
	if !strings.Contains(t.Name(), TestTag) {
		return base
	}
	setup := recorder.Start(t.Name(), base, cfg, opts...)
	if setup == nil {
		return base
	}
	t.Cleanup(func() {
		if !setup.Recorder.HasCalls() {
			return
		}
		path, err := setup.Recorder.Flush()
		if err != nil {
			t.Errorf("k6 export: %v", err)
			return
		}
		t.Logf("k6 script written to %s", path)
	})
	return setup.Context
}
