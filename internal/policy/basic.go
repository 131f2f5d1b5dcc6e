// Package policy provides the bundled redaction policies and the resolver that
// picks one for a recorder.
package policy

import (
	"regexp"
	"strings"

	"github.com/rsclarke/k6rec/internal/models"
	"github.com/rsclarke/k6rec/internal/redact"
)

// DefaultEnvPrefix is prepended to every generated env name.
const DefaultEnvPrefix = "K6_"

// DefaultSecretHeaders are redacted regardless of their value.
var DefaultSecretHeaders = []string{
	"authorization",
	"proxy-authorization",
	"x-api-key",
	"x-apikey",
	"x-api-token",
	"x-auth-token",
	"x-access-token",
	"x-amz-security-token",
	"set-cookie",
}

// Default patterns, matched case-insensitively.
const (
	DefaultCookiePattern  = `session|token|auth`
	DefaultBodyKeyPattern = `token|secret|password|apikey|api_key`
)

var nonAlnum = regexp.MustCompile(`(?i)[^a-z0-9]+`)

// Options configures a Basic policy.
type Options struct {
	EnvPrefix string
	// DetectCommonSecrets gates header detection only.
	DetectCommonSecrets bool
	SecretHeaders       []string
	CookiePattern       string
	BodyKeyPattern      string
}

// DefaultOptions returns the options used by the bundled policy.
func DefaultOptions() Options {
	return Options{
		EnvPrefix:           DefaultEnvPrefix,
		DetectCommonSecrets: true,
		SecretHeaders:       DefaultSecretHeaders,
		CookiePattern:       DefaultCookiePattern,
		BodyKeyPattern:      DefaultBodyKeyPattern,
	}
}

// Basic replaces well-known credential headers and body fields whose path
// looks like a secret with ${ENV_NAME} placeholders.
type Basic struct {
	prefix  string
	detect  bool
	headers map[string]struct{}
	cookie  *regexp.Regexp
	bodyKey *regexp.Regexp
}

// NewBasic compiles opts into a policy.
func NewBasic(opts Options) (*Basic, error) {
	if opts.CookiePattern == "" {
		opts.CookiePattern = DefaultCookiePattern
	}
	if opts.BodyKeyPattern == "" {
		opts.BodyKeyPattern = DefaultBodyKeyPattern
	}
	if opts.SecretHeaders == nil {
		opts.SecretHeaders = DefaultSecretHeaders
	}

	cookie, err := regexp.Compile("(?i)" + opts.CookiePattern)
	if err != nil {
		return nil, err
	}
	bodyKey, err := regexp.Compile("(?i)" + opts.BodyKeyPattern)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]struct{}, len(opts.SecretHeaders))
	for _, h := range opts.SecretHeaders {
		headers[strings.ToLower(h)] = struct{}{}
	}

	return &Basic{
		prefix:  opts.EnvPrefix,
		detect:  opts.DetectCommonSecrets,
		headers: headers,
		cookie:  cookie,
		bodyKey: bodyKey,
	}, nil
}

// Default returns the bundled policy with the given env prefix.
func Default(prefix string) *Basic {
	opts := DefaultOptions()
	opts.EnvPrefix = prefix
	p, err := NewBasic(opts)
	if err != nil {
		// default patterns are constants
		panic(err)
	}
	return p
}

// RedactHeader implements redact.HeaderRedactor.
func (p *Basic) RedactHeader(name, value string) *redact.HeaderResult {
	if !p.detect {
		return nil
	}
	lower := strings.ToLower(name)
	if _, ok := p.headers[lower]; ok {
		return p.header(lower, value, "headers."+lower)
	}
	if lower == "cookie" && p.cookie.MatchString(value) {
		return p.header("cookie", value, "headers.cookie")
	}
	return nil
}

func (p *Basic) header(name, value, path string) *redact.HeaderResult {
	env := EnvName(p.prefix, name)
	return &redact.HeaderResult{
		Value: Placeholder(env),
		Finding: &models.Finding{
			EnvName: env,
			Value:   value,
			Source:  models.SourceHeader,
			Path:    path,
		},
	}
}

// RedactBody implements redact.BodyRedactor. Only string leaves are replaced.
func (p *Basic) RedactBody(path string, value any) *redact.BodyResult {
	s, ok := value.(string)
	if !ok || !p.bodyKey.MatchString(path) {
		return nil
	}
	key := path
	if i := strings.LastIndex(path, "."); i >= 0 {
		key = path[i+1:]
	}
	if key == "" {
		key = "secret"
	}
	env := EnvName(p.prefix, key)
	return &redact.BodyResult{
		Value: Placeholder(env),
		Finding: &models.Finding{
			EnvName: env,
			Value:   s,
			Source:  models.SourceBody,
			Path:    path,
		},
	}
}

// EnvName builds an upper-case env name from prefix and name, collapsing
// runs of non-alphanumerics into underscores.
func EnvName(prefix, name string) string {
	return strings.ToUpper(prefix + nonAlnum.ReplaceAllString(name, "_"))
}

// Placeholder returns the ${NAME} reference written in place of a secret.
func Placeholder(envName string) string {
	return "${" + envName + "}"
}
