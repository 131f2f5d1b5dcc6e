package policy

import (
	"go.uber.org/zap"

	"github.com/rsclarke/k6rec/internal/redact"
)

// Source names where a resolved policy came from.
type Source string

// Policy sources, in resolution order.
const (
	SourceExplicit Source = "explicit"
	SourceFile     Source = "file"
	SourceDefault  Source = "default"
	SourceNone     Source = "none"
)

// Provider offers a policy. ok is false when the provider has nothing to offer.
type Provider interface {
	Source() Source
	Provide() (p redact.Policy, ok bool, err error)
}

type explicitProvider struct{ policy redact.Policy }

// Explicit offers a caller-supplied policy, if non-nil.
func Explicit(p redact.Policy) Provider { return explicitProvider{policy: p} }

func (e explicitProvider) Source() Source { return SourceExplicit }

func (e explicitProvider) Provide() (redact.Policy, bool, error) {
	return e.policy, e.policy != nil, nil
}

type fileProvider struct{ path, prefix string }

// File offers the YAML policy at path, if path is set.
func File(path, defaultPrefix string) Provider {
	return fileProvider{path: path, prefix: defaultPrefix}
}

func (f fileProvider) Source() Source { return SourceFile }

func (f fileProvider) Provide() (redact.Policy, bool, error) {
	if f.path == "" {
		return nil, false, nil
	}
	p, err := LoadFile(f.path, f.prefix)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

type builtinProvider struct{ prefix string }

// Builtin offers the bundled Basic policy.
func Builtin(prefix string) Provider { return builtinProvider{prefix: prefix} }

func (b builtinProvider) Source() Source { return SourceDefault }

func (b builtinProvider) Provide() (redact.Policy, bool, error) {
	return Default(b.prefix), true, nil
}

// Resolve returns the first policy offered by providers. A provider that
// fails is logged and skipped. When none offers a policy the result is
// (nil, SourceNone) and redaction becomes a pass-through.
func Resolve(logger *zap.Logger, providers ...Provider) (redact.Policy, Source) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, pr := range providers {
		p, ok, err := pr.Provide()
		if err != nil {
			logger.Warn("redaction policy unavailable, trying next source",
				zap.String("source", string(pr.Source())),
				zap.Error(err))
			continue
		}
		if ok {
			logger.Debug("redaction policy resolved", zap.String("source", string(pr.Source())))
			return p, pr.Source()
		}
	}
	return nil, SourceNone
}
