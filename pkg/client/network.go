// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Network is a name-keyed registry of remote agents. Skills delegate to a
// peer by name instead of carrying URLs, and Broadcast fans one call out to
// every registered agent concurrently.
type Network struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewNetwork creates an empty network.
func NewNetwork() *Network {
	return &Network{clients: map[string]*Client{}}
}

// Add registers the agent at baseURL under name, replacing any previous
// entry, and returns its client.
func (n *Network) Add(name, baseURL string, opts ...Option) *Client {
	c := New(baseURL, opts...)
	n.AddClient(name, c)
	return c
}

// AddClient registers an already-configured client under name.
func (n *Network) AddClient(name string, c *Client) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clients[name] = c
}

// Get returns the client registered under name.
func (n *Network) Get(name string) (*Client, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	c, ok := n.clients[name]
	return c, ok
}

// Remove drops the agent registered under name.
func (n *Network) Remove(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.clients, name)
}

// Names lists the registered agent names, sorted.
func (n *Network) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := make([]string, 0, len(n.clients))
	for name := range n.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered agents.
func (n *Network) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.clients)
}

// Call invokes a skill on the agent registered under name.
func (n *Network) Call(ctx context.Context, name, skill string, params map[string]any) (any, error) {
	c, ok := n.Get(name)
	if !ok {
		return nil, fmt.Errorf("no agent registered as %q (known: %v)", name, n.Names())
	}
	return c.Call(ctx, skill, params)
}

// BroadcastResult is one agent's answer to a broadcast.
type BroadcastResult struct {
	Value any
	Err   error
}

// Broadcast invokes the same skill on every registered agent concurrently
// and returns each agent's result keyed by name. A failing agent yields an
// entry with Err set; it never hides the other answers.
func (n *Network) Broadcast(ctx context.Context, skill string, params map[string]any) map[string]BroadcastResult {
	n.mu.RLock()
	targets := make(map[string]*Client, len(n.clients))
	for name, c := range n.clients {
		targets[name] = c
	}
	n.mu.RUnlock()

	var wg sync.WaitGroup
	var resultsMu sync.Mutex
	results := make(map[string]BroadcastResult, len(targets))
	for name, c := range targets {
		wg.Add(1)
		go func(name string, c *Client) {
			defer wg.Done()
			value, err := c.Call(ctx, skill, params)
			resultsMu.Lock()
			results[name] = BroadcastResult{Value: value, Err: err}
			resultsMu.Unlock()
		}(name, c)
	}
	wg.Wait()
	return results
}
