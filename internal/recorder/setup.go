package recorder

import (
	"github.com/rsclarke/k6rec/internal/config"
	"github.com/rsclarke/k6rec/internal/reqctx"
)

// Setup pairs a wrapped request context with the recorder behind it.
type Setup struct {
	Context  *Interceptor
	Recorder *Recorder
}

// Start wraps base for the test titled title. It returns nil when cfg does
// not enable recording, in which case the caller should skip recording
// entirely. A nil base gets a fresh reqctx.Client; a nil cfg is read from
// the environment.
func Start(title string, base reqctx.Context, cfg *config.Config, opts ...Option) *Setup {
	if cfg == nil {
		cfg = config.FromEnv()
	}
	if !cfg.Enabled {
		return nil
	}
	if base == nil {
		base = reqctx.NewClient("")
	}
	rec := New(title, cfg, opts...)
	return &Setup{Context: rec.Wrap(base), Recorder: rec}
}
