// Package envfile writes discovered secrets to dotenv-style artifacts.
package envfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// Default artifact file names.
const (
	DumpFile    = ".env.apis"
	ExampleFile = ".env.example"
)

// Binding is a single NAME=value line.
type Binding struct {
	Name  string
	Value string
}

// WriteDump replaces path with one NAME=value line per binding.
func WriteDump(path string, bindings []Binding) error {
	var b strings.Builder
	for _, kv := range bindings {
		b.WriteString(kv.Name)
		b.WriteByte('=')
		b.WriteString(kv.Value)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// MergeExample appends an empty NAME= line to path for every name not
// already declared there. Existing content is kept as is. It returns the
// names that were added.
func MergeExample(path string, names []string) ([]string, error) {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	content := string(existing)

	var missing []string
	for _, name := range names {
		if !Declares(content, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		b.WriteByte('\n')
	}
	for _, name := range missing {
		b.WriteString(name)
		b.WriteString("=\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return missing, nil
}

// Declares reports whether content has a line starting with NAME=,
// ignoring leading whitespace.
func Declares(content, name string) bool {
	re := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(name) + `=`)
	return re.MatchString(content)
}
