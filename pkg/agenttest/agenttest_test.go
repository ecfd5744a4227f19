// SPDX-License-Identifier: Apache-2.0

package agenttest

import (
	"context"
	"fmt"
	"testing"

	"github.com/jllopis/a2alite/pkg/agent"
	"github.com/jllopis/a2alite/pkg/auth"
	"github.com/jllopis/a2alite/pkg/skill"
)

type sumArgs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func newAgent(t *testing.T, opts ...agent.Option) *agent.Agent {
	t.Helper()
	a, err := agent.New("test-agent", opts...)
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	a.MustSkill("sum", func(ctx context.Context, args sumArgs) (float64, error) {
		return args.A + args.B, nil
	})
	return a
}

func TestCallReturnsText(t *testing.T) {
	c := New(t, newAgent(t))
	c.Call("sum", map[string]any{"a": 4, "b": 8}).AssertText("12")
}

func TestSendFreeformBody(t *testing.T) {
	a := newAgent(t)
	a.MustSkill("echo", func(ctx context.Context, args map[string]any) (string, error) {
		return fmt.Sprint(args["message"]), nil
	})

	c := New(t, a)
	c.Send(`{"skill": "echo", "params": {"message": "hola"}}`).AssertText("hola")
}

func TestAssertErrorOnUnknownSkill(t *testing.T) {
	c := New(t, newAgent(t))
	payload := c.Call("ghost", nil).AssertError("UNKNOWN_SKILL")
	if payload["available_skills"] == nil {
		t.Fatalf("error payload lacks available_skills: %v", payload)
	}
}

func TestAssertStreamSkipsStatusEvents(t *testing.T) {
	a := newAgent(t)
	a.MustSkill("count", func(ctx context.Context, yield skill.Yield) error {
		for i := 1; i <= 3; i++ {
			if err := yield(fmt.Sprintf("tick %d", i)); err != nil {
				return err
			}
		}
		return nil
	})

	c := New(t, a)
	c.Call("count", nil).AssertStream("tick 1", "tick 2", "tick 3")
}

func TestWithHeadersCarriesCredentials(t *testing.T) {
	a := newAgent(t, agent.WithAuth(auth.NewAPIKey([]string{"sekrit"})))

	c := New(t, a)
	c.Call("sum", map[string]any{"a": 1, "b": 1}).AssertError("UNAUTHORIZED")

	c.WithHeaders(map[string]string{"X-API-Key": "sekrit"}).
		Call("sum", map[string]any{"a": 1, "b": 1}).
		AssertText("2")
}
