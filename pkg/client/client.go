// SPDX-License-Identifier: Apache-2.0

// Package client is the remote delegate: it invokes a skill on another
// agent over HTTP+JSON and unwraps the response into a plain value, so a
// local skill can call a remote one like a function.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jllopis/a2alite/pkg/agentcard"
	a2aerrors "github.com/jllopis/a2alite/pkg/errors"
)

// WellKnownPath is where agents publish their discovery document.
const WellKnownPath = "/.well-known/agent.json"

// Client talks to one remote agent.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
}

// Option configures the client.
type Option func(*Client)

// New creates a client for the agent at baseURL.
func New(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithHeaders sets default headers for each request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = cloneHeaders(headers)
	}
}

// WithAPIKey sends key in the X-API-Key header on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if c.headers == nil {
			c.headers = map[string]string{}
		}
		c.headers["X-API-Key"] = key
	}
}

// WithBearerToken sends token as a Bearer credential on every request.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		if c.headers == nil {
			c.headers = map[string]string{}
		}
		c.headers["Authorization"] = "Bearer " + token
	}
}

// Call invokes a skill on the remote agent and returns its unwrapped
// result: structured JSON responses decode to maps and slices, plain text
// comes back as a string. Structured error payloads surface as typed
// errors.
func (c *Client) Call(ctx context.Context, skill string, params map[string]any) (any, error) {
	payload := map[string]any{"skill": skill}
	if params != nil {
		payload["params"] = params
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoke", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	c.applyHeaders(ctx, request)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, remoteError(response.StatusCode, body)
	}
	return unwrap(body), nil
}

// Stream invokes a streaming skill and delivers each remote chunk on the
// returned channel. The channel closes when the stream ends or ctx is
// cancelled.
func (c *Client) Stream(ctx context.Context, skill string, params map[string]any) (<-chan string, error) {
	payload := map[string]any{"skill": skill}
	if params != nil {
		payload["params"] = params
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stream", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "text/event-stream")
	c.applyHeaders(ctx, request)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer response.Body.Close()
		body, _ := io.ReadAll(response.Body)
		return nil, remoteError(response.StatusCode, body)
	}

	out := make(chan string)
	go func() {
		defer response.Body.Close()
		defer close(out)
		_ = readSSE(ctx, response.Body, func(chunk []byte) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- string(chunk):
				return nil
			}
		})
	}()
	return out, nil
}

// FetchCard retrieves the remote agent's discovery document.
func (c *Client) FetchCard(ctx context.Context) (*agentcard.Card, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+WellKnownPath, nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(ctx, request)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, remoteError(response.StatusCode, body)
	}
	var card agentcard.Card
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}
	return &card, nil
}

func (c *Client) applyHeaders(ctx context.Context, request *http.Request) {
	for key, value := range c.headers {
		request.Header.Set(key, value)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(request.Header))
}

// unwrap decodes a response body: JSON values pass through decoded, a
// structured error payload becomes part of the value (the caller decides),
// anything else stays text.
func unwrap(body []byte) any {
	trimmed := bytes.TrimSpace(body)
	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err == nil {
		return decoded
	}
	return string(trimmed)
}

// remoteError converts a non-2xx response into a typed error, preserving
// the remote fault's code and message when the body carries them.
func remoteError(statusCode int, body []byte) error {
	var decoded struct {
		Error string `json:"error"`
		Type  string `json:"type"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error != "" {
		code := a2aerrors.Code(decoded.Type)
		if code == "" {
			code = a2aerrors.CodeInternal
		}
		return a2aerrors.New(code, decoded.Error, nil)
	}
	return a2aerrors.Newf(a2aerrors.CodeInternal, "remote agent returned status %d", statusCode)
}

// readSSE parses a text/event-stream body, invoking handle once per event
// payload. Multi-line data fields are joined with newlines.
func readSSE(ctx context.Context, body io.Reader, handle func([]byte) error) error {
	reader := bufio.NewReader(body)
	var buffer bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if buffer.Len() > 0 {
					_ = handle(buffer.Bytes())
				}
				return nil
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if buffer.Len() == 0 {
				continue
			}
			if err := handle(buffer.Bytes()); err != nil {
				return err
			}
			buffer.Reset()
			continue
		}
		if strings.HasPrefix(line, "data:") {
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if buffer.Len() > 0 {
				buffer.WriteByte('\n')
			}
			buffer.WriteString(payload)
		}
	}
}

func cloneHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		out[key] = value
	}
	return out
}
