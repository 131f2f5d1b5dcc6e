package redact

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/rsclarke/k6rec/internal/jsonenc"
	"github.com/rsclarke/k6rec/internal/logging"
	"github.com/rsclarke/k6rec/internal/models"
)

// ErrInvalidJSON is returned by Clone when a raw body is not valid JSON.
var ErrInvalidJSON = errors.New("body is not valid JSON")

// Engine applies a policy to recorded copies of headers and bodies and
// registers every finding in its store.
type Engine struct {
	// OnFinding, if set, is called for every registered finding.
	OnFinding func(models.Finding)
	// OnCloneError, if set, is called when a body falls back to its
	// unredacted original.
	OnCloneError func(error)

	headers  HeaderRedactor
	body     BodyRedactor
	findings *Findings
	logger   *zap.Logger
}

// NewEngine creates an Engine. policy may be nil.
func NewEngine(policy Policy, findings *Findings, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if findings == nil {
		findings = NewFindings()
	}
	e := &Engine{findings: findings, logger: logger}
	if hr, ok := policy.(HeaderRedactor); ok {
		e.headers = hr
	}
	if br, ok := policy.(BodyRedactor); ok {
		e.body = br
	}
	return e
}

// Findings returns the store the engine records into.
func (e *Engine) Findings() *Findings { return e.findings }

// Headers returns a redacted copy of in. The input slice is never modified.
func (e *Engine) Headers(in []models.Header) []models.Header {
	if in == nil {
		return nil
	}
	out := make([]models.Header, len(in))
	copy(out, in)
	if e.headers == nil {
		return out
	}
	for i := range out {
		res := e.headers.RedactHeader(out[i].Name, out[i].Value)
		if res == nil {
			continue
		}
		out[i].Value = res.Value
		e.record(res.Finding)
	}
	return out
}

// Body returns a redacted clone of body. When body cannot be cloned the
// original value is returned untouched.
func (e *Engine) Body(body any) any {
	if body == nil {
		return nil
	}
	clone, err := Clone(body)
	if err != nil {
		e.logger.Debug("body not cloneable, recording unredacted", zap.Error(err))
		if e.OnCloneError != nil {
			e.OnCloneError(err)
		}
		return body
	}
	if e.body == nil {
		return clone
	}
	root := gjson.ParseBytes(clone)
	if !root.IsObject() && !root.IsArray() {
		return clone
	}
	var edits []edit
	e.walk(root, "", &edits)
	return json.RawMessage(splice(clone, edits))
}

// Clone returns an independent, compact JSON copy of body.
func Clone(body any) (json.RawMessage, error) {
	switch v := body.(type) {
	case json.RawMessage:
		return compact(v)
	case []byte:
		if json.Valid(v) {
			return compact(v)
		}
		return jsonenc.Marshal(string(v))
	}
	b, err := jsonenc.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

func compact(raw []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(buf.Bytes()), nil
}

// edit replaces clone[start:end] with raw.
type edit struct {
	start, end int
	raw        []byte
}

// walk visits every leaf of node in document order, collecting an edit for
// each leaf the policy replaces. Leaves are addressed by byte offset, so any
// object key works, including empty ones.
func (e *Engine) walk(node gjson.Result, path string, edits *[]edit) {
	if node.IsArray() {
		i := 0
		node.ForEach(func(_, v gjson.Result) bool {
			e.visit(v, path+"."+strconv.Itoa(i), edits)
			i++
			return true
		})
		return
	}
	node.ForEach(func(k, v gjson.Result) bool {
		p := k.String()
		if path != "" {
			p = path + "." + p
		}
		e.visit(v, p, edits)
		return true
	})
}

func (e *Engine) visit(v gjson.Result, path string, edits *[]edit) {
	if v.IsObject() || v.IsArray() {
		e.walk(v, path, edits)
		return
	}
	var leaf any
	switch v.Type {
	case gjson.Null:
		return
	case gjson.String:
		leaf = v.String()
	case gjson.Number:
		leaf = v.Float()
	case gjson.True, gjson.False:
		leaf = v.Bool()
	default:
		return
	}
	res := e.body.RedactBody(path, leaf)
	if res == nil {
		return
	}
	raw, err := jsonenc.Marshal(res.Value)
	if err != nil {
		e.logger.Warn("redacted value not encodable", zap.String("path", path), zap.Error(err))
		return
	}
	*edits = append(*edits, edit{start: v.Index, end: v.Index + len(v.Raw), raw: raw})
	e.record(res.Finding)
}

// splice applies edits, which arrive in ascending, non-overlapping order.
func splice(clone []byte, edits []edit) []byte {
	if len(edits) == 0 {
		return clone
	}
	out := make([]byte, 0, len(clone))
	pos := 0
	for _, ed := range edits {
		out = append(out, clone[pos:ed.start]...)
		out = append(out, ed.raw...)
		pos = ed.end
	}
	return append(out, clone[pos:]...)
}

func (e *Engine) record(f *models.Finding) {
	if f == nil {
		return
	}
	e.findings.Record(*f)
	if e.OnFinding != nil {
		e.OnFinding(*f)
	}
	e.logger.Debug("secret found",
		logging.EnvName(f.EnvName),
		zap.String("source", string(f.Source)),
		zap.String("path", f.Path))
}
