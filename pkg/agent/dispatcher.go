// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/jllopis/a2alite/pkg/auth"
	a2aerrors "github.com/jllopis/a2alite/pkg/errors"
	"github.com/jllopis/a2alite/pkg/event"
	"github.com/jllopis/a2alite/pkg/middleware"
	"github.com/jllopis/a2alite/pkg/parts"
	"github.com/jllopis/a2alite/pkg/skill"
	"github.com/jllopis/a2alite/pkg/task"
)

// Metadata keys the dispatcher stashes into the middleware context. These
// are the sanctioned channel for interceptors and skills to reach the auth
// verdict, non-text payload parts, and the live event sink.
const (
	MetaAuthResult = "auth_result"
	MetaParts      = "parts"
	MetaEventSink  = "event_sink"
)

// Request is one inbound call as handed over by the transport: the decoded
// text body plus the credential-bearing envelope and any non-text parts.
type Request struct {
	Body    string
	Headers map[string]string
	Query   map[string]string
	Method  string
	Path    string
	Parts   []parts.Part
}

func (r *Request) authRequest() *auth.Request {
	return &auth.Request{
		Headers: r.Headers,
		Query:   r.Query,
		Method:  r.Method,
		Path:    r.Path,
	}
}

// Execute runs one inbound call end to end: authenticate, parse, thread the
// middleware chain around skill resolution and invocation, emit the result
// or a structured error to sink, then run completion hooks. The returned
// error reports sink failures only; every skill-level fault is emitted as a
// structured event and absorbed here.
func (a *Agent) Execute(ctx context.Context, req *Request, sink event.Sink) error {
	authResult := a.provider.Authenticate(ctx, req.authRequest())
	if a.enforcesAuth() && !authResult.Authenticated {
		fault := a2aerrors.New(a2aerrors.CodeUnauthorized, authFailureMessage(authResult), nil).
			WithScheme(a.provider.Scheme().Type)
		a.logger.WarnContext(ctx, "authentication rejected", "agent", a.name, "reason", authResult.Error)
		return emitJSON(ctx, sink, fault.Response())
	}

	skillName, params, message := parseInbound(req.Body)
	mctx := middleware.NewContext(skillName, params, message)
	mctx.Metadata[MetaAuthResult] = authResult
	mctx.Metadata[MetaEventSink] = sink
	if len(req.Parts) > 0 {
		mctx.Metadata[MetaParts] = req.Parts
	}

	result, err := a.dispatch(ctx, mctx, authResult, sink)
	if err != nil {
		return a.emitFault(ctx, sink, err)
	}

	if result != nil {
		if err := sink.Enqueue(ctx, event.NewMessage(serializeResult(result))); err != nil {
			return err
		}
	}

	a.runCompletionHooks(ctx, mctx, result)
	return nil
}

// dispatch runs the middleware chain and skill invocation, converting a
// panic anywhere inside into a SKILL_FAILURE fault so the caller always
// receives a response.
func (a *Agent) dispatch(ctx context.Context, mctx *middleware.Context, authResult *auth.Result, sink event.Sink) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.ErrorContext(ctx, "skill panicked", "agent", a.name, "skill", mctx.Skill, "panic", r)
			result = nil
			err = a2aerrors.Newf(a2aerrors.CodeSkillFailure, "skill panicked: %v", r)
		}
	}()
	return a.chain.Execute(ctx, mctx, func(ctx context.Context, mctx *middleware.Context) (any, error) {
		return a.executeSkill(ctx, mctx, authResult, sink)
	})
}

// executeSkill is the innermost handler of the middleware chain: skill
// resolution, scope enforcement, task-context creation, and invocation.
// Interceptors that rewrite mctx.Skill or mctx.Params redirect dispatch
// because resolution happens here, after the chain has run.
func (a *Agent) executeSkill(ctx context.Context, mctx *middleware.Context, authResult *auth.Result, sink event.Sink) (any, error) {
	def, err := a.resolveSkill(mctx)
	if err != nil {
		return nil, err
	}
	mctx.Skill = def.Name

	if a.enforcesAuth() && len(def.RequiredScopes) > 0 {
		if err := auth.Require(authResult, def.RequiredScopes...); err != nil {
			return nil, err
		}
	}

	var taskCtx *task.Context
	if def.NeedsTaskContext && a.store != nil {
		t, err := a.store.Create(ctx, def.Name, mctx.Params)
		if err != nil {
			return nil, a2aerrors.New(a2aerrors.CodeInternal, "task creation failed", err)
		}
		// Non-streaming skills track progress without a live event channel.
		var taskSink event.Sink
		if def.IsStreaming() {
			taskSink = sink
		}
		taskCtx = task.NewContext(t, a.store, taskSink)
		for _, cb := range a.statusCallbacks {
			taskCtx.OnStatusChange(cb)
		}
	}

	if def.IsStreaming() {
		err := def.CallStream(ctx, mctx.Params, taskCtx, authResult, func(chunk any) error {
			return sink.Enqueue(ctx, event.NewMessage(serializeChunk(chunk)))
		})
		if err != nil {
			return nil, err
		}
		// Chunks were emitted during draining; nothing to add here.
		return nil, nil
	}

	return def.Call(ctx, mctx.Params, taskCtx, authResult)
}

func (a *Agent) resolveSkill(mctx *middleware.Context) (*skill.Definition, error) {
	if mctx.Skill == "" {
		if def, ok := a.registry.Sole(); ok {
			return def, nil
		}
		return nil, a2aerrors.New(a2aerrors.CodeNoSkill, "No skill specified", nil).
			WithSkills(a.registry.Names())
	}
	def, ok := a.registry.Get(mctx.Skill)
	if !ok {
		return nil, a2aerrors.Newf(a2aerrors.CodeUnknownSkill, "Unknown skill: %s", mctx.Skill).
			WithSkills(a.registry.Names())
	}
	return def, nil
}

// emitFault routes a pipeline fault through the custom error handler when
// one is installed. A failing handler never masks the original fault; both
// are reported in one combined payload.
func (a *Agent) emitFault(ctx context.Context, sink event.Sink, fault error) error {
	typed := a2aerrors.As(fault)
	a.logger.ErrorContext(ctx, "skill execution failed", "agent", a.name, "code", string(typed.Code), "error", fault.Error())

	payload := typed.Response()
	if a.errorHandler != nil {
		custom, err := a.errorHandler(ctx, fault)
		switch {
		case err != nil:
			payload = map[string]any{
				"error":         fault.Error(),
				"handler_error": err.Error(),
				"type":          string(typed.Code),
			}
			a.logger.ErrorContext(ctx, "error handler failed", "agent", a.name, "error", err)
		case custom != nil:
			payload = custom
		}
	}
	return emitJSON(ctx, sink, payload)
}

func (a *Agent) runCompletionHooks(ctx context.Context, mctx *middleware.Context, result any) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.ErrorContext(ctx, "completion hook panicked", "agent", a.name, "skill", mctx.Skill, "panic", r)
		}
	}()
	for _, hook := range a.completionHooks {
		if err := hook(ctx, mctx.Skill, result, mctx); err != nil {
			a.logger.WarnContext(ctx, "completion hook failed", "agent", a.name, "skill", mctx.Skill, "error", err)
		}
	}
}

// Cancel marks a tracked task as canceled and emits a cancelled status
// event. Cancellation is informational; an in-progress skill body is not
// interrupted.
func (a *Agent) Cancel(ctx context.Context, taskID string, sink event.Sink) error {
	if a.store != nil {
		if t, err := a.store.Get(ctx, taskID); err == nil && !t.Status.State.IsTerminal() {
			t.UpdateStatus(task.Status{State: task.StateCanceled, Message: "cancelled by caller"})
			if err := a.store.Update(ctx, t); err != nil {
				a.logger.WarnContext(ctx, "cancel persistence failed", "task", taskID, "error", err)
			}
		}
	}
	payload := map[string]any{"status": "cancelled", "task_id": taskID}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return sink.Enqueue(ctx, event.NewStatus(string(raw)))
}

// parseInbound decodes the request body. A JSON object with a "skill" key
// yields an addressed call; anything else, including malformed JSON, is
// treated as a freeform message with the skill left unresolved.
func parseInbound(body string) (skillName string, params map[string]any, message string) {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(body), &decoded); err == nil {
		if name, ok := decoded["skill"].(string); ok && name != "" {
			params, _ := decoded["params"].(map[string]any)
			if params == nil {
				params = map[string]any{}
			}
			return name, params, body
		}
	}
	return "", map[string]any{"message": body}, body
}

// serializeResult renders a unary result for emission: structured values as
// pretty-printed JSON, strings as-is, everything else via fmt.
func serializeResult(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	switch reflect.ValueOf(result).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		if raw, err := json.MarshalIndent(result, "", "  "); err == nil {
			return string(raw)
		}
	}
	return fmt.Sprint(result)
}

// serializeChunk renders one streamed chunk: strings pass through, the rest
// follows result serialization.
func serializeChunk(chunk any) string {
	if s, ok := chunk.(string); ok {
		return s
	}
	return serializeResult(chunk)
}

func authFailureMessage(result *auth.Result) string {
	if result.Error != "" {
		return "Authentication failed: " + result.Error
	}
	return "Authentication failed"
}

func emitJSON(ctx context.Context, sink event.Sink, payload map[string]any) error {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return sink.Enqueue(ctx, event.NewMessage(string(raw)))
}
