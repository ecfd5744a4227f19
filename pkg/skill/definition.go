// SPDX-License-Identifier: Apache-2.0

// Package skill implements skill registration and introspection: handler
// signature analysis, JSON-schema extraction, parameter binding, and the
// registry the dispatcher resolves names against.
//
// A handler is an ordinary Go function. Its first parameter must be a
// context.Context; the remaining parameters may include, in any order:
//
//   - at most one args parameter: a struct (or pointer to struct) decoded
//     from the inbound params mapping, or a map[string]any passed through
//   - at most one *task.Context, injected when task tracking is enabled
//   - at most one *auth.Result, injected with the caller's auth verdict
//   - at most one Yield, which marks the handler as streaming
//
// Unary handlers return (T, error), (T), (error) or nothing; streaming
// handlers return error. Streaming is detected from the Yield parameter and
// OR-ed with the explicit WithStreaming hint.
package skill

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/jllopis/a2alite/pkg/auth"
	"github.com/jllopis/a2alite/pkg/task"
)

// Kind is the closed variant tag for handler shapes.
type Kind int

const (
	// KindUnary handlers produce at most one result value.
	KindUnary Kind = iota

	// KindStream handlers emit chunks through a Yield and produce no
	// result value of their own.
	KindStream
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == KindStream {
		return "stream"
	}
	return "unary"
}

// Yield emits one chunk from a streaming handler. Returning an error aborts
// the stream.
type Yield func(chunk any) error

// Definition is the immutable metadata record for one registered skill.
type Definition struct {
	Name        string
	Description string
	Tags        []string
	Kind        Kind

	// RequiredScopes, when non-empty, must all be present in the caller's
	// auth result before the dispatcher invokes the handler.
	RequiredScopes []string

	// InputSchema and OutputSchema are informational; they document the
	// skill in the agent card and are not enforced at dispatch time.
	InputSchema  *jsonschema.Schema
	OutputSchema *jsonschema.Schema

	// NeedsTaskContext / NeedsAuth record the injected parameters and
	// their positions in the handler signature.
	NeedsTaskContext bool
	TaskParam        int
	NeedsAuth        bool
	AuthParam        int

	handler      reflect.Value
	numIn        int
	argsType     reflect.Type
	argsParam    int
	yieldParam   int
	returnsValue bool
	returnsError bool
}

// Option configures a registration.
type Option func(*registration)

type registration struct {
	description string
	tags        []string
	scopes      []string
	streaming   bool
}

// WithDescription sets the skill description shown in the agent card.
func WithDescription(description string) Option {
	return func(r *registration) { r.description = description }
}

// WithTags sets the skill tags. Order is preserved; duplicates are allowed.
func WithTags(tags ...string) Option {
	return func(r *registration) { r.tags = tags }
}

// WithScopes declares the auth scopes a caller must hold to invoke the
// skill. Ignored when the agent runs without authentication.
func WithScopes(scopes ...string) Option {
	return func(r *registration) { r.scopes = scopes }
}

// WithStreaming marks the skill as streaming even when its signature does
// not carry a Yield parameter. OR-ed with signature detection.
func WithStreaming() Option {
	return func(r *registration) { r.streaming = true }
}

var (
	contextType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
	yieldType       = reflect.TypeOf(Yield(nil))
	taskContextType = reflect.TypeOf((*task.Context)(nil))
	authResultType  = reflect.TypeOf((*auth.Result)(nil))
	mapType         = reflect.TypeOf(map[string]any{})
)

// Define builds a Definition for the given handler. name may be empty, in
// which case it is derived from the handler's function name.
func Define(name string, handler any, opts ...Option) (*Definition, error) {
	if handler == nil {
		return nil, fmt.Errorf("skill handler is required")
	}
	value := reflect.ValueOf(handler)
	if value.Kind() != reflect.Func {
		return nil, fmt.Errorf("skill handler must be a function, got %T", handler)
	}

	if name == "" {
		name = functionName(value)
	}
	if name == "" {
		return nil, fmt.Errorf("skill name is required")
	}

	reg := registration{}
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}

	def := &Definition{
		Name:           name,
		Description:    reg.description,
		Tags:           reg.tags,
		RequiredScopes: reg.scopes,
		handler:        value,
		argsParam:      -1,
		yieldParam:     -1,
		TaskParam:      -1,
		AuthParam:      -1,
	}
	if def.Description == "" {
		def.Description = "Skill: " + name
	}

	if err := def.inspectSignature(value.Type()); err != nil {
		return nil, fmt.Errorf("skill %q: %w", name, err)
	}

	if reg.streaming {
		def.Kind = KindStream
	}
	if def.yieldParam >= 0 && def.returnsValue {
		return nil, fmt.Errorf("skill %q: handlers taking a Yield must not also return a value", name)
	}

	def.InputSchema = inputSchema(def.argsType)
	def.OutputSchema = outputSchema(value.Type(), def.returnsValue)
	return def, nil
}

func (d *Definition) inspectSignature(fn reflect.Type) error {
	if fn.NumIn() == 0 || fn.In(0) != contextType {
		return fmt.Errorf("first parameter must be context.Context")
	}
	d.numIn = fn.NumIn()

	for i := 1; i < fn.NumIn(); i++ {
		in := fn.In(i)
		switch {
		case in == taskContextType:
			if d.NeedsTaskContext {
				return fmt.Errorf("duplicate *task.Context parameter")
			}
			d.NeedsTaskContext = true
			d.TaskParam = i
		case in == authResultType:
			if d.NeedsAuth {
				return fmt.Errorf("duplicate *auth.Result parameter")
			}
			d.NeedsAuth = true
			d.AuthParam = i
		case in == yieldType:
			if d.yieldParam >= 0 {
				return fmt.Errorf("duplicate Yield parameter")
			}
			d.yieldParam = i
			d.Kind = KindStream
		case in == mapType || in.Kind() == reflect.Struct ||
			(in.Kind() == reflect.Pointer && in.Elem().Kind() == reflect.Struct):
			if d.argsParam >= 0 {
				return fmt.Errorf("more than one args parameter")
			}
			d.argsParam = i
			d.argsType = in
		default:
			return fmt.Errorf("unsupported parameter type %s", in)
		}
	}

	switch fn.NumOut() {
	case 0:
	case 1:
		if fn.Out(0) == errorType {
			d.returnsError = true
		} else {
			d.returnsValue = true
		}
	case 2:
		if fn.Out(1) != errorType {
			return fmt.Errorf("second return value must be error")
		}
		d.returnsValue = true
		d.returnsError = true
	default:
		return fmt.Errorf("too many return values")
	}
	return nil
}

// IsStreaming reports whether the skill emits a chunk stream.
func (d *Definition) IsStreaming() bool { return d.Kind == KindStream }

// Call invokes a unary skill: binds params into the args parameter, injects
// the task context and auth result where declared, and returns the result.
func (d *Definition) Call(ctx context.Context, params map[string]any, taskCtx *task.Context, authRes *auth.Result) (any, error) {
	if d.Kind != KindUnary {
		return nil, fmt.Errorf("skill %q is streaming; use CallStream", d.Name)
	}
	in, err := d.buildArgs(ctx, params, taskCtx, authRes, nil)
	if err != nil {
		return nil, err
	}
	return d.invoke(in)
}

// CallStream invokes a streaming skill, passing yield as its chunk sink.
// Handlers registered as streaming by hint but without a Yield parameter
// have their single return value emitted as one chunk.
func (d *Definition) CallStream(ctx context.Context, params map[string]any, taskCtx *task.Context, authRes *auth.Result, yield Yield) error {
	if d.Kind != KindStream {
		return fmt.Errorf("skill %q is not streaming", d.Name)
	}
	in, err := d.buildArgs(ctx, params, taskCtx, authRes, yield)
	if err != nil {
		return err
	}
	result, err := d.invoke(in)
	if err != nil {
		return err
	}
	if d.yieldParam < 0 && result != nil {
		return yield(result)
	}
	return nil
}

func (d *Definition) buildArgs(ctx context.Context, params map[string]any, taskCtx *task.Context, authRes *auth.Result, yield Yield) ([]reflect.Value, error) {
	in := make([]reflect.Value, d.numIn)
	in[0] = reflect.ValueOf(ctx)

	if d.argsParam >= 0 {
		args, err := bindParams(d.argsType, params)
		if err != nil {
			return nil, err
		}
		in[d.argsParam] = args
	}
	if d.TaskParam >= 0 {
		if taskCtx == nil {
			in[d.TaskParam] = reflect.Zero(taskContextType)
		} else {
			in[d.TaskParam] = reflect.ValueOf(taskCtx)
		}
	}
	if d.AuthParam >= 0 {
		if authRes == nil {
			in[d.AuthParam] = reflect.Zero(authResultType)
		} else {
			in[d.AuthParam] = reflect.ValueOf(authRes)
		}
	}
	if d.yieldParam >= 0 {
		in[d.yieldParam] = reflect.ValueOf(yield)
	}
	return in, nil
}

func (d *Definition) invoke(in []reflect.Value) (any, error) {
	out := d.handler.Call(in)

	var result any
	var err error
	switch {
	case d.returnsValue && d.returnsError:
		result = out[0].Interface()
		err, _ = out[1].Interface().(error)
	case d.returnsValue:
		result = out[0].Interface()
	case d.returnsError:
		err, _ = out[0].Interface().(error)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// functionName derives a skill name from the handler's symbol name:
// "main.addNumbers" becomes "addNumbers". Anonymous functions yield "".
func functionName(fn reflect.Value) string {
	rf := runtime.FuncForPC(fn.Pointer())
	if rf == nil {
		return ""
	}
	full := rf.Name()
	if idx := strings.LastIndex(full, "."); idx >= 0 {
		full = full[idx+1:]
	}
	full = strings.TrimSuffix(full, "-fm")
	// Anonymous functions compile to names like "func1".
	if strings.HasPrefix(full, "func") {
		return ""
	}
	return full
}
