package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/hasta/internal/fixtures"
	"github.com/ayusman/hasta/internal/rom"
	"github.com/ayusman/hasta/internal/session"
)

// saveSessionWithoutSummaries stores a completed session directly, bypassing
// the recording endpoints, so no summaries exist for it yet.
func saveSessionWithoutSummaries(t *testing.T, st *SummaryHandler, id string) *session.Session {
	t.Helper()
	recorder := session.NewRecorder(id, 15, rom.HandRight)
	for i, bend := range []float64{15, 60} {
		hand, pose := fixtures.ArmFixture(false, bend, 0.9)
		recorder.AddFrame(hand, pose, 0.9, int64(i)*66)
	}
	sess := recorder.Finish()
	if err := st.store.Sessions().Save(sess, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return sess
}

func TestSummaryHandler_SingleDigit(t *testing.T) {
	s := newTestStore(t)
	sessions := NewSessionHandler(s, nil)
	handler := NewSummaryHandler(s)

	id := createSession(t, sessions, `{"assessmentHand": "RIGHT"}`)
	addFrames(t, sessions, id, []float64{15, 60})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/complete", nil)
	sessions.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/summary?digit=index", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var summary session.Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if summary.SessionID != id {
		t.Errorf("expected session ID %s, got %s", id, summary.SessionID)
	}
	if summary.Digit != rom.DigitIndex {
		t.Errorf("expected digit index, got %s", summary.Digit)
	}
	if summary.Frames != 2 {
		t.Errorf("expected 2 frames, got %d", summary.Frames)
	}
	if summary.MaxFlexion < 55 || summary.MaxFlexion > 65 {
		t.Errorf("expected max flexion near 60, got %.1f", summary.MaxFlexion)
	}
}

func TestSummaryHandler_AllDigits(t *testing.T) {
	s := newTestStore(t)
	sessions := NewSessionHandler(s, nil)
	handler := NewSummaryHandler(s)

	id := createSession(t, sessions, `{"assessmentHand": "RIGHT"}`)
	addFrames(t, sessions, id, []float64{20})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/complete", nil)
	sessions.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/summary", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response struct {
		SessionID string            `json:"sessionId"`
		Summaries []session.Summary `json:"summaries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.SessionID != id {
		t.Errorf("expected session ID %s, got %s", id, response.SessionID)
	}
	if len(response.Summaries) != len(rom.Digits) {
		t.Errorf("expected %d summaries, got %d", len(rom.Digits), len(response.Summaries))
	}
}

func TestSummaryHandler_ComputesOnDemand(t *testing.T) {
	s := newTestStore(t)
	handler := NewSummaryHandler(s)

	// A session saved without stored summaries, as an import produces
	saveSessionWithoutSummaries(t, handler, "imported-1")

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/imported-1/summary?digit=middle", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	// The computed summary is cached back to the store
	if _, err := s.Summaries().Get("imported-1", rom.DigitMiddle); err != nil {
		t.Errorf("expected the computed summary to be cached: %v", err)
	}
}

func TestSummaryHandler_InvalidDigit(t *testing.T) {
	s := newTestStore(t)
	handler := NewSummaryHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/any/summary?digit=thumb", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestSummaryHandler_SessionNotFound(t *testing.T) {
	s := newTestStore(t)
	handler := NewSummaryHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/nonexistent/summary", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
