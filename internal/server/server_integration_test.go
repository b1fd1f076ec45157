package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/hasta/internal/fixtures"
	"github.com/ayusman/hasta/internal/landmark"
	"github.com/ayusman/hasta/internal/store"
)

// frameBody marshals one landmark snapshot as an append-frame request.
func frameBody(t *testing.T, hand *landmark.HandFrame, pose *landmark.PoseFrame, ts int64) *bytes.Buffer {
	t.Helper()
	payload := map[string]interface{}{
		"hand":        hand,
		"pose":        pose,
		"quality":     0.9,
		"timestampMs": ts,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return bytes.NewBuffer(data)
}

func TestAPI_SessionWorkflow(t *testing.T) {
	// Setup
	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "test.db"))
	defer s.Close()

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Create a session
	createBody := `{"patientRef": "patient-1", "assessmentHand": "RIGHT", "captureFps": 15}`
	resp, err := client.Post(ts.URL+"/api/sessions", "application/json", bytes.NewBufferString(createBody))
	if err != nil {
		t.Fatalf("POST /api/sessions error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var created struct {
		ID        string `json:"id"`
		Recording bool   `json:"recording"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	if created.ID == "" {
		t.Fatal("created session has no id")
	}
	if !created.Recording {
		t.Error("created session should be recording")
	}

	// 2. Append frames
	for i, bend := range []float64{15, 40, -25} {
		hand, pose := fixtures.ArmFixture(false, bend, 0.9)
		resp, err = client.Post(
			ts.URL+"/api/sessions/"+created.ID+"/frames",
			"application/json",
			frameBody(t, hand, pose, int64(i)*66),
		)
		if err != nil {
			t.Fatalf("POST frames error = %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("POST frames status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}

		var metrics struct {
			Wrist struct {
				Flexion   float64 `json:"flexion"`
				Extension float64 `json:"extension"`
			} `json:"wrist"`
		}
		json.NewDecoder(resp.Body).Decode(&metrics)
		resp.Body.Close()

		if bend > 0 && metrics.Wrist.Flexion == 0 {
			t.Errorf("frame %d: expected nonzero flexion for bend %.0f", i, bend)
		}
	}

	// 3. In-progress session reports its live frame count
	resp, _ = client.Get(ts.URL + "/api/sessions/" + created.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET session status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var live struct {
		Frames    int  `json:"frames"`
		Recording bool `json:"recording"`
	}
	json.NewDecoder(resp.Body).Decode(&live)
	resp.Body.Close()

	if live.Frames != 3 || !live.Recording {
		t.Errorf("live session = %d frames recording=%t, want 3 frames recording", live.Frames, live.Recording)
	}

	// 4. Complete the session
	resp, err = client.Post(ts.URL+"/api/sessions/"+created.ID+"/complete", "application/json", nil)
	if err != nil {
		t.Fatalf("POST complete error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST complete status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var completed struct {
		ID        string `json:"id"`
		Frames    int    `json:"frames"`
		HandType  string `json:"handType"`
		Summaries []struct {
			Digit string `json:"digit"`
		} `json:"summaries"`
	}
	json.NewDecoder(resp.Body).Decode(&completed)
	resp.Body.Close()

	if completed.Frames != 3 {
		t.Errorf("completed frames = %d, want 3", completed.Frames)
	}
	if completed.HandType != "RIGHT" {
		t.Errorf("completed handType = %s, want RIGHT", completed.HandType)
	}
	if len(completed.Summaries) != 4 {
		t.Errorf("len(summaries) = %d, want 4", len(completed.Summaries))
	}

	// 5. List sessions
	resp, _ = client.Get(ts.URL + "/api/sessions")
	var listed struct {
		Sessions []struct {
			ID         string `json:"id"`
			PatientRef string `json:"patientRef"`
		} `json:"sessions"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1", len(listed.Sessions))
	}
	if listed.Sessions[0].PatientRef != "patient-1" {
		t.Errorf("patientRef = %s, want patient-1", listed.Sessions[0].PatientRef)
	}

	// 6. List frames of the stored session
	resp, _ = client.Get(ts.URL + "/api/sessions/" + created.ID + "/frames")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET frames status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var frames struct {
		SessionID string `json:"sessionId"`
		Frames    []struct {
			Frame struct {
				Index int `json:"index"`
			} `json:"frame"`
		} `json:"frames"`
	}
	json.NewDecoder(resp.Body).Decode(&frames)
	resp.Body.Close()

	if len(frames.Frames) != 3 {
		t.Fatalf("len(frames) = %d, want 3", len(frames.Frames))
	}
	if frames.Frames[2].Frame.Index != 2 {
		t.Errorf("last frame index = %d, want 2", frames.Frames[2].Frame.Index)
	}

	// 7. Summary for one digit
	resp, _ = client.Get(ts.URL + "/api/sessions/" + created.ID + "/summary?digit=index")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET summary status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var summary struct {
		SessionID string `json:"sessionId"`
		Digit     string `json:"digit"`
		Frames    int    `json:"frames"`
	}
	json.NewDecoder(resp.Body).Decode(&summary)
	resp.Body.Close()

	if summary.Digit != "index" || summary.Frames != 3 {
		t.Errorf("summary = %+v, want digit index over 3 frames", summary)
	}

	// 8. Delete the session
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+created.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	resp, _ = client.Get(ts.URL + "/api/sessions/" + created.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET deleted session status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_ExportImportRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "test.db"))
	defer s.Close()

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// Record and complete a session through the API
	resp, _ := client.Post(ts.URL+"/api/sessions", "application/json",
		bytes.NewBufferString(`{"assessmentHand": "LEFT"}`))
	var created struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	hand, pose := fixtures.ArmFixture(true, 20, 0.9)
	resp, _ = client.Post(ts.URL+"/api/sessions/"+created.ID+"/frames",
		"application/json", frameBody(t, hand, pose, 0))
	resp.Body.Close()

	resp, _ = client.Post(ts.URL+"/api/sessions/"+created.ID+"/complete", "application/json", nil)
	resp.Body.Close()

	// Export
	resp, err := client.Get(ts.URL + "/api/sessions/" + created.ID + "/export")
	if err != nil {
		t.Fatalf("GET export error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET export status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	exported, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if disp := resp.Header.Get("Content-Disposition"); disp == "" {
		t.Error("export should set Content-Disposition")
	}

	// Delete the original so the import is the only copy
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+created.ID, nil)
	resp, _ = client.Do(req)
	resp.Body.Close()

	// Import it back
	resp, err = client.Post(ts.URL+"/api/sessions/import", "application/json", bytes.NewBuffer(exported))
	if err != nil {
		t.Fatalf("POST import error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST import status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var imported struct {
		ID       string `json:"id"`
		HandType string `json:"handType"`
		Frames   int    `json:"frames"`
	}
	json.NewDecoder(resp.Body).Decode(&imported)
	resp.Body.Close()

	if imported.ID != created.ID {
		t.Errorf("imported id = %s, want %s", imported.ID, created.ID)
	}
	if imported.HandType != "LEFT" || imported.Frames != 1 {
		t.Errorf("imported session = %+v, want LEFT with 1 frame", imported)
	}

	// The imported session replays like the original
	resp, _ = client.Get(ts.URL + "/api/sessions/" + created.ID + "/frames")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET imported frames status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()
}

func TestAPI_ImportRejectsGarbage(t *testing.T) {
	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "test.db"))
	defer s.Close()

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/api/sessions/import", "application/json",
		bytes.NewBufferString(`{"version": 99}`))
	if err != nil {
		t.Fatalf("POST import error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("POST import status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}
