// Package recorder captures calls made through a request context and
// flushes them as a k6 script plus env artifacts.
package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/rsclarke/k6rec/internal/config"
	"github.com/rsclarke/k6rec/internal/db"
	"github.com/rsclarke/k6rec/internal/envfile"
	"github.com/rsclarke/k6rec/internal/logging"
	"github.com/rsclarke/k6rec/internal/metrics"
	"github.com/rsclarke/k6rec/internal/models"
	"github.com/rsclarke/k6rec/internal/policy"
	"github.com/rsclarke/k6rec/internal/redact"
	"github.com/rsclarke/k6rec/internal/reqctx"
	"github.com/rsclarke/k6rec/internal/script"
)

// ScriptExt is appended to the sanitized slug to name the script file.
const ScriptExt = ".k6.js"

// ErrFlushed is returned by Flush on a recorder that already flushed.
var ErrFlushed = errors.New("recorder already flushed")

// State is the recorder lifecycle stage.
type State int

// Lifecycle stages.
const (
	StateUninitialized State = iota
	StateWrapping
	StateRecording
	StateFlushed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateWrapping:
		return "wrapping"
	case StateRecording:
		return "recording"
	case StateFlushed:
		return "flushed"
	}
	return "unknown"
}

// Recorder owns the calls and findings of one logical test. Calls are kept
// in completion order.
type Recorder struct {
	cfg     config.Config
	title   string
	slug    string
	logger  *zap.Logger
	metrics *metrics.Metrics
	archive *sql.DB

	policySource policy.Source

	mu       sync.Mutex
	state    State
	calls    []models.RecordedCall
	findings *redact.Findings
	engine   *redact.Engine
}

// Option configures a Recorder.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	metrics   *metrics.Metrics
	policy    redact.Policy
	noDefault bool
	archive   *sql.DB
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithMetrics records counters into m.
func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithPolicy supplies the redaction policy, overriding file and default
// resolution.
func WithPolicy(p redact.Policy) Option { return func(o *options) { o.policy = p } }

// WithoutDefaultPolicy skips the bundled policy during resolution.
func WithoutDefaultPolicy() Option { return func(o *options) { o.noDefault = true } }

// WithArchive saves flushed sessions into an open archive database instead
// of the one named by the config.
func WithArchive(d *sql.DB) Option { return func(o *options) { o.archive = d } }

// New creates a recorder for the test titled title. A nil cfg is read from
// the environment. The redaction policy is resolved here, once.
func New(title string, cfg *config.Config, opts ...Option) *Recorder {
	if cfg == nil {
		cfg = config.FromEnv()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	slug := MakeSlug(title)
	logger := o.logger.Named("recorder").With(logging.Slug(slug))

	providers := []policy.Provider{
		policy.Explicit(o.policy),
		policy.File(cfg.PolicyPath, cfg.EnvPrefix),
	}
	if !o.noDefault {
		providers = append(providers, policy.Builtin(cfg.EnvPrefix))
	}
	p, src := policy.Resolve(logger, providers...)
	logger.Debug("recorder created", logging.PolicySource(string(src)))

	r := &Recorder{
		cfg:          *cfg,
		title:        title,
		slug:         slug,
		logger:       logger,
		metrics:      o.metrics,
		archive:      o.archive,
		policySource: src,
		findings:     redact.NewFindings(),
	}
	r.engine = redact.NewEngine(p, r.findings, logger)
	r.engine.OnFinding = func(f models.Finding) { r.metrics.Finding(string(f.Source)) }
	r.engine.OnCloneError = func(error) { r.metrics.BodyFallback() }
	return r
}

// Slug returns the slug derived from the test title.
func (r *Recorder) Slug() string { return r.slug }

// PolicySource reports where the redaction policy came from.
func (r *Recorder) PolicySource() policy.Source { return r.policySource }

// State returns the current lifecycle stage.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Wrap returns a decorator over base that records every verb call.
// The caller keeps ownership of base.
func (r *Recorder) Wrap(base reqctx.Context) *Interceptor {
	r.mu.Lock()
	if r.state == StateUninitialized {
		r.state = StateWrapping
	}
	r.mu.Unlock()
	return &Interceptor{Context: base, rec: r}
}

// Record appends a call directly, without redaction. A nil opts records
// only the name, method and URL.
func (r *Recorder) Record(name, method, url string, opts *reqctx.Options) {
	call := models.RecordedCall{Name: name, Method: method, URL: url}
	if opts != nil {
		call.Headers = reqctx.NormalizeHeaders(opts)
		call.Body = opts.Data
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(call)
}

// HasCalls reports whether anything has been recorded.
func (r *Recorder) HasCalls() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls) > 0
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []models.RecordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.RecordedCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// Findings returns the discovered env bindings in insertion order.
func (r *Recorder) Findings() []redact.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findings.Entries()
}

// ScriptPath returns where Flush writes the script.
func (r *Recorder) ScriptPath() string {
	return filepath.Join(r.cfg.OutDir, SanitizeSlug(r.slug)+ScriptExt)
}

// capture redacts a completed call and appends it.
func (r *Recorder) capture(method, url string, opts *reqctx.Options, resp *reqctx.Response) {
	name := r.slug
	var data any
	if opts != nil {
		if opts.Name != "" {
			name = opts.Name
		}
		data = opts.Data
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	call := models.RecordedCall{
		Name:    name,
		Method:  method,
		URL:     url,
		Headers: r.engine.Headers(reqctx.NormalizeHeaders(opts)),
		Body:    r.engine.Body(data),
	}
	if resp != nil {
		call.Status = resp.Status
		call.ResponseHeaders = copyHeaders(resp.Headers)
	}
	r.appendLocked(call)
	r.logger.Debug("call recorded",
		logging.Method(method),
		logging.URL(url),
		logging.Status(call.Status))
}

func (r *Recorder) appendLocked(call models.RecordedCall) {
	if r.state == StateFlushed {
		r.logger.Warn("call completed after flush, dropped", logging.Method(call.Method), logging.URL(call.URL))
		return
	}
	r.calls = append(r.calls, call)
	r.state = StateRecording
	r.metrics.CallRecorded(call.Method)
}

// Flush writes the script and env artifacts and returns the script path.
// With no recorded calls it writes nothing and returns "". Only failure to
// write the script itself is returned as an error.
func (r *Recorder) Flush() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateFlushed {
		return "", ErrFlushed
	}
	if len(r.calls) == 0 {
		r.metrics.Flush("empty")
		return "", nil
	}

	file := r.ScriptPath()
	code := script.Generate(r.calls)

	for _, err := range r.writeEnvArtifacts() {
		r.logger.Warn("env artifact not written", zap.Error(err))
	}

	if err := os.MkdirAll(r.cfg.OutDir, 0o755); err != nil {
		r.metrics.Flush("error")
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(file, []byte(code), 0o644); err != nil {
		r.metrics.Flush("error")
		return "", fmt.Errorf("write script: %w", err)
	}
	r.state = StateFlushed
	r.metrics.Flush("ok")
	r.logger.Info("k6 script written", logging.File(file), zap.Int("calls", len(r.calls)))

	if err := r.archiveSession(file); err != nil {
		r.logger.Warn("session not archived", zap.Error(err))
	}
	return file, nil
}

// writeEnvArtifacts persists findings. Every failure is returned, none
// stops the others.
func (r *Recorder) writeEnvArtifacts() []error {
	if r.findings.IsEmpty() {
		return nil
	}
	var errs []error

	if r.cfg.WriteEnvFile {
		entries := r.findings.Entries()
		bindings := make([]envfile.Binding, 0, len(entries))
		for _, e := range entries {
			bindings = append(bindings, envfile.Binding{Name: e.Name, Value: e.Value})
		}
		if err := envfile.WriteDump(filepath.Join(r.cfg.EnvDir, envfile.DumpFile), bindings); err != nil {
			errs = append(errs, err)
		}
	}

	if r.cfg.UpdateEnvExample {
		added, err := envfile.MergeExample(filepath.Join(r.cfg.EnvDir, envfile.ExampleFile), r.findings.Names())
		if err != nil {
			errs = append(errs, err)
		}
		for _, name := range added {
			r.logger.Debug("env example updated", logging.EnvName(name))
		}
	}
	return errs
}

func (r *Recorder) archiveSession(file string) error {
	d := r.archive
	if d == nil {
		if r.cfg.ArchivePath == "" {
			return nil
		}
		opened, err := db.Open(r.cfg.ArchivePath)
		if err != nil {
			return err
		}
		defer opened.Close()
		d = opened
	}
	id, err := db.SaveSession(d, r.slug, r.title, file, r.calls)
	if err != nil {
		return err
	}
	r.logger.Debug("session archived", logging.Session(id))
	return nil
}

func copyHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
