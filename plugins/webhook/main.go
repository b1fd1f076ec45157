// Package main provides a webhook plugin.
// It POSTs the summary of a completed session to a configured URL.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"sessionId"`
	HandType  string          `json:"handType"`
	Summary   json.RawMessage `json:"summary"`
	Config    json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// config holds the plugin configuration.
type config struct {
	URL string `json:"url"`
}

// payload is the document POSTed to the webhook.
type payload struct {
	Event     string          `json:"event"`
	SessionID string          `json:"sessionId"`
	HandType  string          `json:"handType"`
	Summary   json.RawMessage `json:"summary"`
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Event != "session.complete" {
		writeErrorResponse(fmt.Sprintf("unknown event: %s", req.Event))
		return
	}

	if err := deliver(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("webhook failed: %v", err))
		return
	}

	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// deliver POSTs the session summary to the configured URL.
func deliver(req *Request) error {
	var cfg config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.URL == "" {
		return fmt.Errorf("url is required in config")
	}

	body, err := json.Marshal(payload{
		Event:     req.Event,
		SessionID: req.SessionID,
		HandType:  req.HandType,
		Summary:   req.Summary,
	})
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(cfg.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
