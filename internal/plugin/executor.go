package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"time"
)

// DefaultTimeout is the default execution timeout for plugins.
const DefaultTimeout = 10 * time.Second

// Executor runs plugin binaries with a JSON request on stdin and parses the
// JSON response from stdout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an Executor with the given timeout.
// If timeout is zero, DefaultTimeout is used.
func NewExecutor(timeout time.Duration) *Executor {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Executor{timeout: timeout}
}

// Execute runs a plugin with the given request and returns its response.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Stdin = bytes.NewReader(reqData)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("plugin %s timed out after %v", plugin.Manifest.Name, e.timeout)
		}
		return nil, fmt.Errorf("plugin %s failed: %w (stderr: %s)", plugin.Manifest.Name, err, stderr.String())
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("parsing plugin %s response: %w", plugin.Manifest.Name, err)
	}

	return &resp, nil
}

// NotifySessionComplete runs every plugin subscribed to the session.complete
// event with the finished session's summary. Plugin failures are logged and
// do not stop the remaining plugins.
func (e *Executor) NotifySessionComplete(ctx context.Context, m *Manager, sessionID, handType string, summary json.RawMessage) {
	for _, p := range m.Subscribers(EventSessionComplete) {
		req := &Request{
			Event:     EventSessionComplete,
			SessionID: sessionID,
			HandType:  handType,
			Summary:   summary,
			Config:    p.Manifest.ConfigSchema,
		}

		resp, err := e.Execute(ctx, p, req)
		if err != nil {
			log.Printf("plugin %s: %v", p.Manifest.Name, err)
			continue
		}
		if !resp.Success {
			log.Printf("plugin %s reported error: %s", p.Manifest.Name, resp.Error)
		}
	}
}
