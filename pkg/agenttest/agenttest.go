// SPDX-License-Identifier: Apache-2.0

// Package agenttest is an in-process harness for exercising an agent in
// unit tests: it invokes skills without a transport and captures the
// emitted events for assertion.
package agenttest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jllopis/a2alite/pkg/agent"
	"github.com/jllopis/a2alite/pkg/event"
)

// Client drives one agent directly.
type Client struct {
	t       *testing.T
	agent   *agent.Agent
	headers map[string]string
}

// New creates a test client for a.
func New(t *testing.T, a *agent.Agent) *Client {
	t.Helper()
	return &Client{t: t, agent: a}
}

// WithHeaders returns a client presenting the given headers on every call.
func (c *Client) WithHeaders(headers map[string]string) *Client {
	return &Client{t: c.t, agent: c.agent, headers: headers}
}

// Call invokes a skill and returns the captured events.
func (c *Client) Call(skill string, params map[string]any) *Response {
	c.t.Helper()
	payload := map[string]any{"skill": skill}
	if params != nil {
		payload["params"] = params
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		c.t.Fatalf("agenttest: marshal request: %v", err)
	}
	return c.Send(string(raw))
}

// Send dispatches a raw body, structured or freeform.
func (c *Client) Send(body string) *Response {
	c.t.Helper()
	queue := event.NewQueue(event.DefaultQueueSize)
	err := c.agent.Execute(context.Background(), &agent.Request{
		Body:    body,
		Headers: c.headers,
	}, queue)
	if err != nil {
		c.t.Fatalf("agenttest: execute: %v", err)
	}
	return &Response{t: c.t, Events: queue.Drain()}
}

// Response holds the events one call produced.
type Response struct {
	t      *testing.T
	Events []event.Event
}

// Text returns the single emitted event's text, failing the test when the
// call produced zero or several events.
func (r *Response) Text() string {
	r.t.Helper()
	if len(r.Events) != 1 {
		r.t.Fatalf("agenttest: expected one event, got %d: %v", len(r.Events), r.Events)
	}
	return r.Events[0].Text
}

// Texts returns every emitted event's text in order.
func (r *Response) Texts() []string {
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Text
	}
	return out
}

// JSON decodes the single emitted event as a JSON object.
func (r *Response) JSON() map[string]any {
	r.t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal([]byte(r.Text()), &decoded); err != nil {
		r.t.Fatalf("agenttest: event is not a JSON object: %v", err)
	}
	return decoded
}

// AssertError fails unless the call produced a structured error of the
// given type discriminator.
func (r *Response) AssertError(errType string) map[string]any {
	r.t.Helper()
	payload := r.JSON()
	if payload["type"] != errType {
		r.t.Fatalf("agenttest: error type = %v, want %s (payload %v)", payload["type"], errType, payload)
	}
	return payload
}

// AssertText fails unless the call produced exactly one event with the
// given text.
func (r *Response) AssertText(want string) {
	r.t.Helper()
	if got := r.Text(); got != want {
		r.t.Fatalf("agenttest: event text = %q, want %q", got, want)
	}
}

// AssertStream fails unless the emitted message events match want in order.
// Status events are skipped, so task progress updates do not disturb chunk
// assertions.
func (r *Response) AssertStream(want ...string) {
	r.t.Helper()
	var chunks []string
	for _, e := range r.Events {
		if e.Kind == event.KindMessage {
			chunks = append(chunks, e.Text)
		}
	}
	if len(chunks) != len(want) {
		r.t.Fatalf("agenttest: got %d chunks %v, want %d", len(chunks), chunks, len(want))
	}
	for i := range want {
		if chunks[i] != want[i] {
			r.t.Fatalf("agenttest: chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}
