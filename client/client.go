// Package client provides an HTTP client for a cocochain node's
// status API.
package client

import (
	"fmt"
	"time"
)

// Client connects to a cocochain node via HTTP.
type Client struct {
	nodeAddr string // nodeAddr is the HTTP address (e.g. "127.0.0.1:8080")
}

// Status holds a node's consensus and network counters.
type Status struct {
	Pending   int    `json:"pending"`   // Pending is the number of unconfirmed transactions
	Confirmed int    `json:"confirmed"` // Confirmed is the number of finalized transactions
	Authority uint64 `json:"authority"` // Authority is the current roadside authority id
	Peers     int    `json:"peers"`     // Peers is the number of connected peers
}

// NewClient creates a client connected to a node.
func NewClient(nodeAddr string) *Client {
	return &Client{nodeAddr: nodeAddr}
}

// Health checks the node's liveness endpoint.
func (c *Client) Health() error {
	var resp struct {
		Status string `json:"status"`
	}

	if err := httpGet("http://"+c.nodeAddr+"/health", &resp); err != nil {
		return fmt.Errorf("get health:\n%w", err)
	}

	if resp.Status != "ok" {
		return fmt.Errorf("unexpected health status: %q", resp.Status)
	}

	return nil
}

// Status fetches the node's current counters.
func (c *Client) Status() (*Status, error) {
	status := &Status{}

	if err := httpGet("http://"+c.nodeAddr+"/status", status); err != nil {
		return nil, fmt.Errorf("get status:\n%w", err)
	}

	return status, nil
}

// WaitHealthy polls the health endpoint until it responds ok or the
// timeout elapses.
func (c *Client) WaitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		err := c.Health()
		if err == nil {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("node not healthy after %v:\n%w", timeout, err)
		}

		time.Sleep(50 * time.Millisecond)
	}
}
