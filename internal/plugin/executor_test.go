package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// scriptPlugin writes a shell script and wraps it as a Plugin.
func scriptPlugin(t *testing.T, name, script string, events ...string) *Plugin {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping shell script test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Events:     events,
		},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "hello", `#!/bin/sh
cat <<'EOF'
{"success":true,"data":{"message":"hello world"}}
EOF
`)

	request := &Request{
		Event:     EventSessionComplete,
		SessionID: "sess-1",
		HandType:  "RIGHT",
		Summary:   json.RawMessage(`[]`),
	}

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(context.Background(), plugin, request)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Error("expected success=true, got false")
	}
	if response.Error != "" {
		t.Errorf("expected empty error, got %q", response.Error)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, "echo", `#!/bin/sh
INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)

	request := &Request{
		Event:     EventSessionComplete,
		SessionID: "sess-2",
		HandType:  "LEFT",
		Summary:   json.RawMessage(`[{"digit":"index"}]`),
	}

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(context.Background(), plugin, request)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	if data.Received.Event != EventSessionComplete {
		t.Errorf("expected event %q, got %q", EventSessionComplete, data.Received.Event)
	}
	if data.Received.SessionID != "sess-2" {
		t.Errorf("expected sessionId 'sess-2', got %q", data.Received.SessionID)
	}
	if data.Received.HandType != "LEFT" {
		t.Errorf("expected handType 'LEFT', got %q", data.Received.HandType)
	}
}

func TestExecutor_Execute_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "sleeper", `#!/bin/sh
sleep 5
echo '{"success":true}'
`)

	executor := NewExecutor(100 * time.Millisecond)
	_, err := executor.Execute(context.Background(), plugin, &Request{Event: EventSessionComplete})
	if err == nil {
		t.Fatal("expected a timeout error")
	}
}

func TestExecutor_Execute_Failure(t *testing.T) {
	plugin := scriptPlugin(t, "failing", `#!/bin/sh
echo "boom" >&2
exit 1
`)

	executor := NewExecutor(5 * time.Second)
	_, err := executor.Execute(context.Background(), plugin, &Request{Event: EventSessionComplete})
	if err == nil {
		t.Fatal("expected an error from a failing plugin")
	}
}

func TestExecutor_Execute_GarbageOutput(t *testing.T) {
	plugin := scriptPlugin(t, "garbage", `#!/bin/sh
echo "this is not json"
`)

	executor := NewExecutor(5 * time.Second)
	_, err := executor.Execute(context.Background(), plugin, &Request{Event: EventSessionComplete})
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestExecutor_NotifySessionComplete(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell script test on Windows")
	}

	tmpDir := t.TempDir()
	outPath := filepath.Join(tmpDir, "notified.json")

	// A subscribed plugin that records what it received
	pluginDir := filepath.Join(tmpDir, "recorder")
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	script := `#!/bin/sh
cat > ` + outPath + `
echo '{"success":true}'
`
	if err := os.WriteFile(filepath.Join(pluginDir, "recorder.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	manifest, _ := json.Marshal(Manifest{
		Name:       "recorder",
		Version:    "1.0.0",
		Executable: "recorder.sh",
		Events:     []string{EventSessionComplete},
	})
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), manifest, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	executor := NewExecutor(5 * time.Second)
	executor.NotifySessionComplete(context.Background(), manager, "sess-9", "RIGHT",
		json.RawMessage(`[{"digit":"index","frames":3}]`))

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("plugin was not invoked: %v", err)
	}

	var received Request
	if err := json.Unmarshal(data, &received); err != nil {
		t.Fatalf("plugin received invalid JSON: %v", err)
	}
	if received.SessionID != "sess-9" || received.HandType != "RIGHT" {
		t.Errorf("received = %+v, want sess-9/RIGHT", received)
	}
	if received.Event != EventSessionComplete {
		t.Errorf("received event %q, want %q", received.Event, EventSessionComplete)
	}
}
