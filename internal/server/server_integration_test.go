package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/SRojas22/GuitarMotion/internal/store"
	"github.com/google/uuid"
)

func TestAPI_SessionHistoryWorkflow(t *testing.T) {
	// Setup
	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "test.db"))
	defer s.Close()

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// Seed a finished session with placements
	sessID := uuid.NewString()
	sess := &store.Session{
		ID:        sessID,
		Mode:      store.ModeChord,
		ChordName: "Em",
		StartedAt: time.Now().Add(-5 * time.Minute),
	}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	sess.Frames = 200
	sess.PerfectFrames = 150
	sess.AvgAccuracy = 0.91
	sess.MaxStreak = 60
	if err := s.Sessions().Finish(sess); err != nil {
		t.Fatalf("failed to finish session: %v", err)
	}
	err := s.Placements().CreateBatch([]*store.Placement{
		{SessionID: sessID, TMs: 100, StringIdx: 1, Fret: 2, Note: "B2"},
		{SessionID: sessID, TMs: 120, StringIdx: 2, Fret: 2, Note: "E3"},
	})
	if err != nil {
		t.Fatalf("failed to create placements: %v", err)
	}

	// 1. List sessions
	resp, err := client.Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("GET /api/sessions error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/sessions status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var listed struct {
		Sessions []struct {
			ID          string  `json:"id"`
			Chord       string  `json:"chord"`
			AvgAccuracy float64 `json:"avg_accuracy"`
		} `json:"sessions"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Sessions) != 1 {
		t.Fatalf("listed %d sessions, want 1", len(listed.Sessions))
	}
	if listed.Sessions[0].Chord != "Em" {
		t.Errorf("listed chord = %q, want Em", listed.Sessions[0].Chord)
	}

	// 2. Get the session by ID
	resp, _ = client.Get(ts.URL + "/api/sessions/" + sessID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET session status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var got struct {
		MaxStreak int `json:"max_streak"`
		Frames    int `json:"frames"`
	}
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()
	if got.MaxStreak != 60 || got.Frames != 200 {
		t.Errorf("session = %+v, want streak 60, frames 200", got)
	}

	// 3. Get its placements
	resp, _ = client.Get(ts.URL + "/api/sessions/" + sessID + "/placements")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET placements status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var placements struct {
		Placements []struct {
			Note string `json:"note"`
		} `json:"placements"`
	}
	json.NewDecoder(resp.Body).Decode(&placements)
	resp.Body.Close()
	if len(placements.Placements) != 2 {
		t.Fatalf("got %d placements, want 2", len(placements.Placements))
	}

	// 4. Delete the session
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+sessID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	resp, _ = client.Get(ts.URL + "/api/sessions/" + sessID)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_Chords(t *testing.T) {
	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "test.db"))
	defer s.Close()

	// Record some progress so stats show up in the response
	if err := s.ChordStats().Record("Em", 0.8, false); err != nil {
		t.Fatalf("failed to record stats: %v", err)
	}

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/chords")
	if err != nil {
		t.Fatalf("GET /api/chords error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/chords status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var listed struct {
		Chords []struct {
			Key      string `json:"key"`
			Attempts int    `json:"attempts"`
			Fingers  []struct {
				String int `json:"string"`
				Fret   int `json:"fret"`
			} `json:"fingers"`
		} `json:"chords"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Chords) == 0 {
		t.Fatal("expected default chord library")
	}
	found := false
	for _, c := range listed.Chords {
		if c.Key == "Em" {
			found = true
			if len(c.Fingers) != 2 {
				t.Errorf("Em fingers = %d, want 2", len(c.Fingers))
			}
			if c.Attempts != 1 {
				t.Errorf("Em attempts = %d, want 1", c.Attempts)
			}
		}
	}
	if !found {
		t.Error("Em missing from chord list")
	}

	// Single chord lookup
	resp, _ = ts.Client().Get(ts.URL + "/api/chords/Em")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/chords/Em status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	resp, _ = ts.Client().Get(ts.URL + "/api/chords/Nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET unknown chord status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}
