// SPDX-License-Identifier: Apache-2.0

package skill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jllopis/a2alite/pkg/auth"
	a2aerrors "github.com/jllopis/a2alite/pkg/errors"
	"github.com/jllopis/a2alite/pkg/task"
)

type addArgs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func addNumbers(ctx context.Context, args addArgs) (float64, error) {
	return args.A + args.B, nil
}

func TestDefineDerivesNameFromFunction(t *testing.T) {
	def, err := Define("", addNumbers)
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	if def.Name != "addNumbers" {
		t.Fatalf("derived name = %q, want addNumbers", def.Name)
	}
	if def.Kind != KindUnary {
		t.Fatalf("kind = %v, want unary", def.Kind)
	}
}

func TestDefineRejectsBadHandlers(t *testing.T) {
	cases := []struct {
		name    string
		handler any
	}{
		{"not a function", 42},
		{"missing context", func(args addArgs) float64 { return 0 }},
		{"two args params", func(ctx context.Context, a addArgs, b addArgs) error { return nil }},
		{"bad second return", func(ctx context.Context) (int, int) { return 0, 0 }},
		{"stream returning value", nil}, // filled below
	}
	cases[4].handler = func(ctx context.Context, yield Yield) (int, error) { return 0, nil }

	for _, tc := range cases {
		if _, err := Define("bad", tc.handler); err == nil {
			t.Errorf("%s: expected registration error", tc.name)
		}
	}
}

func TestDefineDetectsStreamingFromYield(t *testing.T) {
	def, err := Define("count", func(ctx context.Context, yield Yield) error {
		return nil
	})
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	if !def.IsStreaming() {
		t.Fatal("expected streaming kind")
	}
}

func TestDefineStreamingHint(t *testing.T) {
	def, err := Define("hinted", func(ctx context.Context) (string, error) {
		return "chunk", nil
	}, WithStreaming())
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	if !def.IsStreaming() {
		t.Fatal("expected streaming kind from hint")
	}

	var chunks []any
	err = def.CallStream(context.Background(), nil, nil, nil, func(chunk any) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("call stream: %v", err)
	}
	if diff := cmp.Diff([]any{"chunk"}, chunks); diff != "" {
		t.Fatalf("chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestCallBindsAndInvokes(t *testing.T) {
	def, err := Define("add", addNumbers, WithDescription("Adds two numbers."))
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	result, err := def.Call(context.Background(), map[string]any{"a": 2, "b": 3}, nil, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result != float64(5) {
		t.Fatalf("result = %v, want 5", result)
	}
}

func TestCallInjectsTaskAndAuth(t *testing.T) {
	var gotTask *task.Context
	var gotAuth *auth.Result
	def, err := Define("whoami", func(ctx context.Context, tc *task.Context, ar *auth.Result) (string, error) {
		gotTask = tc
		gotAuth = ar
		return ar.UserID, nil
	})
	if err != nil {
		t.Fatalf("define: %v", err)
	}

	res := auth.Success("alice")
	result, err := def.Call(context.Background(), nil, nil, res)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result != "alice" {
		t.Fatalf("result = %v, want alice", result)
	}
	if gotTask != nil {
		t.Fatal("expected nil task context when tracking is absent")
	}
	if gotAuth != res {
		t.Fatal("auth result not injected")
	}
}

func TestCallReportsFieldTypeErrors(t *testing.T) {
	def, err := Define("add", addNumbers)
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	_, err = def.Call(context.Background(), map[string]any{"a": "two", "b": 3}, nil, nil)
	if err == nil {
		t.Fatal("expected coercion error")
	}
	typed := a2aerrors.As(err)
	if typed.Code != a2aerrors.CodeInvalidParams {
		t.Fatalf("code = %s, want INVALID_PARAMS", typed.Code)
	}
	if len(typed.Fields) != 1 || typed.Fields[0].Field != "a" {
		t.Fatalf("fields = %+v, want one entry for field a", typed.Fields)
	}
}

type divArgs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func (d divArgs) Validate() error {
	if d.B == 0 {
		return errors.New("b must be non-zero")
	}
	return nil
}

func TestCallRunsValidator(t *testing.T) {
	def, err := Define("divide", func(ctx context.Context, args divArgs) (float64, error) {
		return args.A / args.B, nil
	})
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	_, err = def.Call(context.Background(), map[string]any{"a": 1, "b": 0}, nil, nil)
	typed := a2aerrors.As(err)
	if typed == nil || typed.Code != a2aerrors.CodeInvalidParams {
		t.Fatalf("expected INVALID_PARAMS, got %v", err)
	}
}

func TestCallPassesMapArgsThrough(t *testing.T) {
	def, err := Define("echo", func(ctx context.Context, params map[string]any) (any, error) {
		return params["message"], nil
	})
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	result, err := def.Call(context.Background(), map[string]any{"message": "hi"}, nil, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result != "hi" {
		t.Fatalf("result = %v, want hi", result)
	}
}

func TestCallStreamYieldsChunks(t *testing.T) {
	def, err := Define("count", func(ctx context.Context, args struct {
		To int `json:"to"`
	}, yield Yield) error {
		for i := 1; i <= args.To; i++ {
			if err := yield(fmt.Sprintf("count %d", i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("define: %v", err)
	}

	var chunks []any
	err = def.CallStream(context.Background(), map[string]any{"to": 2}, nil, nil, func(chunk any) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("call stream: %v", err)
	}
	want := []any{"count 1", "count 2"}
	if diff := cmp.Diff(want, chunks); diff != "" {
		t.Fatalf("chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestInputSchemaListsProperties(t *testing.T) {
	def, err := Define("add", addNumbers)
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	if def.InputSchema == nil {
		t.Fatal("expected input schema")
	}
	for _, field := range []string{"a", "b"} {
		if _, ok := def.InputSchema.Properties.Get(field); !ok {
			t.Errorf("schema missing property %q", field)
		}
	}
}

func TestSchemaExtractionIsIdempotent(t *testing.T) {
	first, err := Define("add", addNumbers)
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	second, err := Define("add", addNumbers)
	if err != nil {
		t.Fatalf("define again: %v", err)
	}
	a, err := json.Marshal(first.InputSchema)
	if err != nil {
		t.Fatalf("marshal first schema: %v", err)
	}
	b, err := json.Marshal(second.InputSchema)
	if err != nil {
		t.Fatalf("marshal second schema: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("schemas differ:\n%s\n%s", a, b)
	}
}

func TestMapArgsGetOpaqueSchema(t *testing.T) {
	def, err := Define("echo", func(ctx context.Context, params map[string]any) (any, error) {
		return params, nil
	})
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	if def.InputSchema == nil || def.InputSchema.Type != "object" {
		t.Fatalf("expected opaque object schema, got %+v", def.InputSchema)
	}
}

func TestRegistryResolution(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("add", addNumbers)
	r.MustRegister("echo", func(ctx context.Context, params map[string]any) (any, error) {
		return params, nil
	})

	if got := r.Names(); len(got) != 2 || got[0] != "add" || got[1] != "echo" {
		t.Fatalf("names = %v", got)
	}
	if _, ok := r.Sole(); ok {
		t.Fatal("Sole should fail with two skills")
	}
	if _, err := r.Resolve("missing"); err == nil {
		t.Fatal("expected resolution error")
	}

	// Re-registering replaces the previous definition.
	r.MustRegister("add", addNumbers, WithDescription("replacement"))
	def, _ := r.Get("add")
	if def.Description != "replacement" {
		t.Fatalf("description = %q, want replacement", def.Description)
	}
	if r.Len() != 2 {
		t.Fatalf("len = %d, want 2", r.Len())
	}
}

func TestManifestOverlay(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("add", addNumbers)

	m, err := ParseManifest([]byte(`
skills:
  - name: add
    description: Adds two numbers precisely.
    tags: [math]
`))
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if err := m.Apply(r); err != nil {
		t.Fatalf("apply: %v", err)
	}
	def, _ := r.Get("add")
	if def.Description != "Adds two numbers precisely." {
		t.Fatalf("description = %q", def.Description)
	}
	if diff := cmp.Diff([]string{"math"}, def.Tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}

	bad, err := ParseManifest([]byte("skills:\n  - name: ghost\n"))
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if err := bad.Apply(r); err == nil {
		t.Fatal("expected error for unregistered skill")
	}
}
