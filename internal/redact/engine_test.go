package redact

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/rsclarke/k6rec/internal/models"
)

type visit struct {
	path  string
	value any
}

// secretPolicy replaces any leaf or header equal to "secret-val".
func secretPolicy(visits *[]visit) PolicyFuncs {
	return PolicyFuncs{
		Header: func(name, value string) *HeaderResult {
			if !strings.EqualFold(name, "authorization") {
				return nil
			}
			return &HeaderResult{
				Value:   "${AUTH}",
				Finding: &models.Finding{EnvName: "AUTH", Value: value, Source: models.SourceHeader, Path: "headers." + name},
			}
		},
		Body: func(path string, value any) *BodyResult {
			if visits != nil {
				*visits = append(*visits, visit{path, value})
			}
			if value != "secret-val" {
				return nil
			}
			return &BodyResult{
				Value:   "${SECRET_BODY}",
				Finding: &models.Finding{EnvName: "BODY_KEY", Value: "secret-val", Source: models.SourceBody, Path: path},
			}
		},
	}
}

func TestHeadersRedactsCopyOnly(t *testing.T) {
	e := NewEngine(secretPolicy(nil), nil, zap.NewNop())
	in := []models.Header{
		{Name: "Authorization", Value: "Bearer abc"},
		{Name: "Accept", Value: "application/json"},
	}

	out := e.Headers(in)

	if in[0].Value != "Bearer abc" {
		t.Errorf("input mutated: %q", in[0].Value)
	}
	if out[0].Value != "${AUTH}" {
		t.Errorf("expected placeholder, got %q", out[0].Value)
	}
	if out[1].Value != "application/json" {
		t.Errorf("unexpected change to accept: %q", out[1].Value)
	}
	if v, ok := e.Findings().Get("AUTH"); !ok || v != "Bearer abc" {
		t.Errorf("expected finding AUTH=Bearer abc, got %q (%v)", v, ok)
	}
}

func TestHeadersWithoutPolicyPassThrough(t *testing.T) {
	e := NewEngine(nil, nil, nil)
	in := []models.Header{{Name: "Authorization", Value: "Bearer abc"}}

	out := e.Headers(in)

	if !reflect.DeepEqual(in, out) {
		t.Errorf("expected pass-through, got %v", out)
	}
	if !e.Findings().IsEmpty() {
		t.Error("expected no findings")
	}
}

func TestBodyRedactsNestedObjectsAndArrays(t *testing.T) {
	var visits []visit
	e := NewEngine(secretPolicy(&visits), nil, zap.NewNop())
	body := json.RawMessage(`{"user":{"name":"John","details":{"secret":"secret-val"}},"items":[{"id":1},{"token":"secret-val"}],"ok":true,"none":null}`)

	got := e.Body(body)

	raw, ok := got.(json.RawMessage)
	if !ok {
		t.Fatalf("expected json.RawMessage, got %T", got)
	}
	want := `{"user":{"name":"John","details":{"secret":"${SECRET_BODY}"}},"items":[{"id":1},{"token":"${SECRET_BODY}"}],"ok":true,"none":null}`
	if string(raw) != want {
		t.Errorf("unexpected body\n got: %s\nwant: %s", raw, want)
	}

	wantVisits := []visit{
		{"user.name", "John"},
		{"user.details.secret", "secret-val"},
		{"items.0.id", float64(1)},
		{"items.1.token", "secret-val"},
		{"ok", true},
	}
	if !reflect.DeepEqual(visits, wantVisits) {
		t.Errorf("unexpected visit order\n got: %v\nwant: %v", visits, wantVisits)
	}

	if v, _ := e.Findings().Get("BODY_KEY"); v != "secret-val" {
		t.Errorf("expected BODY_KEY=secret-val, got %q", v)
	}
	if string(body) == want {
		t.Error("input body was mutated")
	}
}

func TestBodyTopLevelArrayPaths(t *testing.T) {
	var visits []visit
	e := NewEngine(secretPolicy(&visits), nil, nil)

	got := e.Body([]any{"a", "secret-val"})

	if string(got.(json.RawMessage)) != `["a","${SECRET_BODY}"]` {
		t.Errorf("unexpected body: %s", got)
	}
	if len(visits) != 2 || visits[0].path != ".0" || visits[1].path != ".1" {
		t.Errorf("unexpected paths: %v", visits)
	}
}

func TestBodyKeysNeedingEscapes(t *testing.T) {
	e := NewEngine(secretPolicy(nil), nil, nil)
	body := json.RawMessage(`{"a.b":{"1":"secret-val","2":"keep"}}`)

	got := e.Body(body)

	want := `{"a.b":{"1":"${SECRET_BODY}","2":"keep"}}`
	if string(got.(json.RawMessage)) != want {
		t.Errorf("unexpected body\n got: %s\nwant: %s", got, want)
	}
}

func TestBodyNoMatchIsStructurallyUnchanged(t *testing.T) {
	e := NewEngine(PolicyFuncs{Body: func(string, any) *BodyResult { return nil }}, nil, nil)
	in := map[string]any{
		"name":  "John",
		"tags":  []any{"a", "b"},
		"count": float64(3),
		"nested": map[string]any{
			"flag": false,
		},
	}

	got := e.Body(in)

	var decoded map[string]any
	if err := json.Unmarshal(got.(json.RawMessage), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(decoded, in) {
		t.Errorf("body changed: %v", decoded)
	}
}

func TestBodyScalarNotWalked(t *testing.T) {
	called := false
	e := NewEngine(PolicyFuncs{Body: func(string, any) *BodyResult {
		called = true
		return &BodyResult{Value: "x"}
	}}, nil, nil)

	got := e.Body("secret-val")

	if called {
		t.Error("policy should not be called for scalar bodies")
	}
	if string(got.(json.RawMessage)) != `"secret-val"` {
		t.Errorf("unexpected body: %s", got)
	}
}

func TestBodyCloneFailureFallsBackToOriginal(t *testing.T) {
	var cloneErr error
	e := NewEngine(secretPolicy(nil), nil, nil)
	e.OnCloneError = func(err error) { cloneErr = err }
	body := map[string]any{"ch": make(chan int)}

	got := e.Body(body)

	if !reflect.DeepEqual(got, body) {
		t.Errorf("expected original body, got %v", got)
	}
	if cloneErr == nil {
		t.Error("expected clone error callback")
	}
}

func TestBodyInvalidRawJSONFallsBack(t *testing.T) {
	e := NewEngine(secretPolicy(nil), nil, nil)
	body := json.RawMessage(`{not json`)

	got := e.Body(body)

	if string(got.(json.RawMessage)) != `{not json` {
		t.Errorf("expected original body, got %s", got)
	}
}

func TestBodyNil(t *testing.T) {
	e := NewEngine(secretPolicy(nil), nil, nil)
	if got := e.Body(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestRedactionIsDeterministic(t *testing.T) {
	body := json.RawMessage(`{"z":"secret-val","a":[1,"secret-val",{"k":"v"}]}`)
	headers := []models.Header{{Name: "Authorization", Value: "t"}, {Name: "X-Other", Value: "o"}}

	run := func() (string, []models.Header, []Entry) {
		e := NewEngine(secretPolicy(nil), nil, nil)
		b := e.Body(body)
		h := e.Headers(headers)
		return string(b.(json.RawMessage)), h, e.Findings().Entries()
	}

	b1, h1, f1 := run()
	for i := 0; i < 5; i++ {
		b2, h2, f2 := run()
		if b1 != b2 || !reflect.DeepEqual(h1, h2) || !reflect.DeepEqual(f1, f2) {
			t.Fatalf("run %d differs: %s %v %v vs %s %v %v", i, b1, h1, f1, b2, h2, f2)
		}
	}
}

func TestOnFindingCalled(t *testing.T) {
	var got []models.Finding
	e := NewEngine(secretPolicy(nil), nil, nil)
	e.OnFinding = func(f models.Finding) { got = append(got, f) }

	e.Headers([]models.Header{{Name: "authorization", Value: "x"}})
	e.Body(map[string]string{"k": "secret-val"})

	if len(got) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(got))
	}
	if got[0].Source != models.SourceHeader || got[1].Source != models.SourceBody {
		t.Errorf("unexpected sources: %v", got)
	}
}

func TestResultWithoutFindingStillReplaces(t *testing.T) {
	e := NewEngine(PolicyFuncs{Body: func(path string, v any) *BodyResult {
		if path == "pin" {
			return &BodyResult{Value: "****"}
		}
		return nil
	}}, nil, nil)

	got := e.Body(json.RawMessage(`{"pin":1234}`))

	if string(got.(json.RawMessage)) != `{"pin":"****"}` {
		t.Errorf("unexpected body: %s", got)
	}
	if !e.Findings().IsEmpty() {
		t.Error("expected no findings")
	}
}

func TestBodyKeysThatAreNotPathSafe(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty key", `{"":"secret-val"}`, `{"":"${SECRET_BODY}"}`},
		{"empty parent key", `{"":{"k":"secret-val"}}`, `{"":{"k":"${SECRET_BODY}"}}`},
		{"bracket key", `{"[0]":"secret-val"}`, `{"[0]":"${SECRET_BODY}"}`},
		{"brace key", `{"{x}":"secret-val"}`, `{"{x}":"${SECRET_BODY}"}`},
		{"selector chars", `{"@this":"secret-val","a|b":"secret-val","#":"secret-val","x.y":{"1":"secret-val"}}`,
			`{"@this":"${SECRET_BODY}","a|b":"${SECRET_BODY}","#":"${SECRET_BODY}","x.y":{"1":"${SECRET_BODY}"}}`},
		{"escaped key", `{"a\"b":"secret-val","n":1}`, `{"a\"b":"${SECRET_BODY}","n":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(secretPolicy(nil), nil, nil)

			got := e.Body(json.RawMessage(tt.in))

			if string(got.(json.RawMessage)) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			if e.Findings().IsEmpty() {
				t.Error("expected a finding")
			}
		})
	}
}

func TestBodyRawInputIsCompacted(t *testing.T) {
	e := NewEngine(secretPolicy(nil), nil, nil)

	got := e.Body(json.RawMessage("  {\n  \"a\": [ \"secret-val\", 2 ],\n  \"b\": \"x\"\n}\n"))

	if string(got.(json.RawMessage)) != `{"a":["${SECRET_BODY}",2],"b":"x"}` {
		t.Errorf("unexpected body: %s", got)
	}
}
