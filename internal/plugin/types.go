// Package plugin provides discovery and execution of completion-hook plugins:
// external programs invoked with the results of a finished recording session
// (report generation, EMR push, webhooks).
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and the events it subscribes to.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Events       []string        `json:"events"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// EventSessionComplete is emitted when a recording session finishes and its
// summary has been computed.
const EventSessionComplete = "session.complete"

// Request represents a request sent to a plugin for execution.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"sessionId"`
	HandType  string          `json:"handType"`
	Summary   json.RawMessage `json:"summary"`
	Config    json.RawMessage `json:"config"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Subscribes reports whether the plugin wants the given event.
func (p *Plugin) Subscribes(event string) bool {
	for _, e := range p.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
