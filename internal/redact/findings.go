package redact

import "github.com/rsclarke/k6rec/internal/models"

// Entry is a single env name to value binding.
type Entry struct {
	Name  string
	Value string
}

// Findings accumulates discovered secrets by env name. A later value under
// the same name replaces the earlier one but keeps its original position.
type Findings struct {
	order  []string
	values map[string]string
}

// NewFindings returns an empty store.
func NewFindings() *Findings {
	return &Findings{values: make(map[string]string)}
}

// Record inserts or overwrites f.EnvName.
func (s *Findings) Record(f models.Finding) {
	if _, ok := s.values[f.EnvName]; !ok {
		s.order = append(s.order, f.EnvName)
	}
	s.values[f.EnvName] = f.Value
}

// IsEmpty reports whether nothing has been recorded.
func (s *Findings) IsEmpty() bool { return len(s.order) == 0 }

// Len returns the number of distinct env names.
func (s *Findings) Len() int { return len(s.order) }

// Get returns the current value for name.
func (s *Findings) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns env names in insertion order.
func (s *Findings) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Entries returns bindings in insertion order.
func (s *Findings) Entries() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, Entry{Name: name, Value: s.values[name]})
	}
	return out
}
