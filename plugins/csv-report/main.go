// Package main provides a CSV report plugin.
// It writes the per-digit summary of a completed session to a CSV file.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
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

// summaryRow is one per-digit summary from the session payload.
type summaryRow struct {
	SessionID string `json:"sessionId"`
	Frames    int    `json:"frames"`
	Digit     string `json:"digit"`

	MaxTAM      float64 `json:"maxTam"`
	MaxTAMFrame int     `json:"maxTamFrame"`
	MinTAM      float64 `json:"minTam"`
	MinTAMFrame int     `json:"minTamFrame"`

	Kapandji struct {
		MaxScore int `json:"maxScore"`
	} `json:"kapandji"`

	MaxFlexion   float64 `json:"maxFlexion"`
	MaxExtension float64 `json:"maxExtension"`
	MaxRadial    float64 `json:"maxRadial"`
	MaxUlnar     float64 `json:"maxUlnar"`
}

// config holds the plugin configuration.
type config struct {
	OutputDir string `json:"outputDir"`
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

	path, err := writeReport(&req)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("report failed: %v", err))
		return
	}

	data, _ := json.Marshal(map[string]string{"path": path})
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

// writeReport writes the session summary rows to a CSV file and returns its path.
func writeReport(req *Request) (string, error) {
	var rows []summaryRow
	if err := json.Unmarshal(req.Summary, &rows); err != nil {
		return "", fmt.Errorf("failed to parse summary: %w", err)
	}

	dir, err := outputDir(req.Config)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, req.SessionID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"session_id", "hand_type", "digit", "frames",
		"max_tam", "max_tam_frame", "min_tam", "min_tam_frame",
		"kapandji", "max_flexion", "max_extension", "max_radial", "max_ulnar",
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, row := range rows {
		record := []string{
			row.SessionID,
			req.HandType,
			row.Digit,
			strconv.Itoa(row.Frames),
			formatDeg(row.MaxTAM),
			strconv.Itoa(row.MaxTAMFrame),
			formatDeg(row.MinTAM),
			strconv.Itoa(row.MinTAMFrame),
			strconv.Itoa(row.Kapandji.MaxScore),
			formatDeg(row.MaxFlexion),
			formatDeg(row.MaxExtension),
			formatDeg(row.MaxRadial),
			formatDeg(row.MaxUlnar),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	return path, w.Error()
}

// outputDir resolves the report directory from the plugin config,
// defaulting to ~/.hasta/reports.
func outputDir(raw json.RawMessage) (string, error) {
	var cfg config
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return "", fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.OutputDir != "" {
		return cfg.OutputDir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".hasta", "reports"), nil
}

// formatDeg renders an angle with one decimal place.
func formatDeg(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
