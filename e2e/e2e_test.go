// Package e2e exercises the whole system end to end: a mock camera and
// detector feed the capture pipeline, a recording is taken through the app,
// and the result is read back over the HTTP API.
package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/hasta/internal/app"
	"github.com/ayusman/hasta/internal/capture"
	"github.com/ayusman/hasta/internal/detector"
	"github.com/ayusman/hasta/internal/fixtures"
	"github.com/ayusman/hasta/internal/rom"
	"github.com/ayusman/hasta/internal/server"
	"github.com/ayusman/hasta/internal/store"
)

func TestRecordAndReview(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "hasta.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	// The patient holds a bent right arm in front of the camera
	a := app.New(app.Config{
		Store:     s,
		PluginDir: filepath.Join(tmpDir, "plugins"),
	})
	hand, pose := fixtures.ArmFixture(false, 40, 0.9)
	mock := detector.NewMockDetector()
	mock.SetObservation(detector.ObservationWith(*hand, pose))
	a.SetDetector(mock)
	a.SetCamera(capture.NewMockCamera(0, true))

	if err := a.Start(); err != nil {
		t.Fatalf("app.Start() error = %v", err)
	}
	defer a.Stop()

	srv := server.New(server.Config{Store: s, Notifier: a, Live: a})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	// Record a short session through the app, as the tray toggle would
	id, err := a.StartRecording("patient-e2e", rom.HandRight)
	if err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	time.Sleep(700 * time.Millisecond)
	sess, err := a.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording() error = %v", err)
	}
	if sess.Len() == 0 {
		t.Fatal("pipeline recorded no frames")
	}

	// The session shows up in the API listing
	resp, err := client.Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("GET /api/sessions error = %v", err)
	}
	var listed struct {
		Sessions []struct {
			ID         string `json:"id"`
			PatientRef string `json:"patientRef"`
			HandType   string `json:"handType"`
			Frames     int    `json:"frames"`
		} `json:"sessions"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1", len(listed.Sessions))
	}
	got := listed.Sessions[0]
	if got.ID != id || got.PatientRef != "patient-e2e" || got.HandType != "RIGHT" {
		t.Errorf("listed session = %+v, want id %s, patient-e2e, RIGHT", got, id)
	}
	if got.Frames != sess.Len() {
		t.Errorf("listed frames = %d, want %d", got.Frames, sess.Len())
	}

	// Wrist summary reflects the held bend (roughly 40 degrees of flexion)
	resp, err = client.Get(ts.URL + "/api/sessions/" + id + "/summary?digit=index")
	if err != nil {
		t.Fatalf("GET summary error = %v", err)
	}
	var summary struct {
		MaxFlexion float64 `json:"maxFlexion"`
		Frames     int     `json:"frames"`
	}
	json.NewDecoder(resp.Body).Decode(&summary)
	resp.Body.Close()

	if summary.Frames != sess.Len() {
		t.Errorf("summary frames = %d, want %d", summary.Frames, sess.Len())
	}
	if summary.MaxFlexion < 35 || summary.MaxFlexion > 45 {
		t.Errorf("summary maxFlexion = %.1f, want near 40", summary.MaxFlexion)
	}

	// Export the session, delete it, and import it back
	resp, err = client.Get(ts.URL + "/api/sessions/" + id + "/export")
	if err != nil {
		t.Fatalf("GET export error = %v", err)
	}
	exported, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET export status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+id, nil)
	resp, _ = client.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	resp, err = client.Post(ts.URL+"/api/sessions/import", "application/json", bytes.NewBuffer(exported))
	if err != nil {
		t.Fatalf("POST import error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST import status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	// The imported copy replays identically: same frame count, same summary
	resp, _ = client.Get(ts.URL + "/api/sessions/" + id + "/summary?digit=index")
	var reimported struct {
		MaxFlexion float64 `json:"maxFlexion"`
		Frames     int     `json:"frames"`
	}
	json.NewDecoder(resp.Body).Decode(&reimported)
	resp.Body.Close()

	if reimported.Frames != summary.Frames || reimported.MaxFlexion != summary.MaxFlexion {
		t.Errorf("reimported summary = %+v, want %+v", reimported, summary)
	}
}
