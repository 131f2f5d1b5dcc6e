package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileSpec is the YAML form of a Basic policy. Unset fields keep the
// bundled defaults.
type FileSpec struct {
	EnvPrefix           *string  `yaml:"env_prefix"`
	DetectCommonSecrets *bool    `yaml:"detect_common_secrets"`
	Headers             []string `yaml:"headers"`
	CookiePattern       string   `yaml:"cookie_pattern"`
	BodyKeyPattern      string   `yaml:"body_key_pattern"`
}

// LoadFile reads a YAML policy file and compiles it. defaultPrefix is used
// when the file does not set env_prefix.
func LoadFile(path, defaultPrefix string) (*Basic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file %q: %w", path, err)
	}

	var doc FileSpec
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse policy file %q: %w", path, err)
	}

	opts := DefaultOptions()
	opts.EnvPrefix = defaultPrefix
	if doc.EnvPrefix != nil {
		opts.EnvPrefix = *doc.EnvPrefix
	}
	if doc.DetectCommonSecrets != nil {
		opts.DetectCommonSecrets = *doc.DetectCommonSecrets
	}
	if len(doc.Headers) > 0 {
		opts.SecretHeaders = doc.Headers
	}
	if doc.CookiePattern != "" {
		opts.CookiePattern = doc.CookiePattern
	}
	if doc.BodyKeyPattern != "" {
		opts.BodyKeyPattern = doc.BodyKeyPattern
	}

	p, err := NewBasic(opts)
	if err != nil {
		return nil, fmt.Errorf("compile policy file %q: %w", path, err)
	}
	return p, nil
}
