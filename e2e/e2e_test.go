package e2e

import (
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/SRojas22/GuitarMotion/internal/chord"
	"github.com/SRojas22/GuitarMotion/internal/detector"
	"github.com/SRojas22/GuitarMotion/internal/hands"
	"github.com/SRojas22/GuitarMotion/internal/server"
	"github.com/SRojas22/GuitarMotion/internal/session"
	"github.com/SRojas22/GuitarMotion/internal/store"
	"github.com/SRojas22/GuitarMotion/internal/vision"
	"github.com/SRojas22/GuitarMotion/testdata"
)

func TestE2E_CompletePracticeWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data.db")

	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	// Load the chord library fixture the way the app loads a user file
	libData, err := testdata.ChordLibrary()
	if err != nil {
		t.Fatalf("chord library fixture error = %v", err)
	}
	library, err := chord.ParseLibrary(libData)
	if err != nil {
		t.Fatalf("ParseLibrary() error = %v", err)
	}

	sess := session.New(session.Config{
		Store:    s,
		CameraID: -1,
		Library:  library,
	})

	bbox := image.Rect(20, 180, 620, 300)
	mockDet := detector.NewMock()
	mockDet.SetDetection(detector.FoundAt(bbox, 0.9))
	sess.SetDetector(mockDet)

	tracker := hands.NewMockTracker()
	sess.SetTracker(tracker)

	srv := server.New(server.Config{Store: s, Session: sess, Library: library})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	t.Run("LockFretboard", func(t *testing.T) {
		for i := 0; i < vision.DefaultStableFrames; i++ {
			sess.ProcessFrame(&frame)
		}
		if sess.Phase() != session.PhaseAwaitConfirm {
			t.Fatalf("phase = %q, want %q", sess.Phase(), session.PhaseAwaitConfirm)
		}
	})

	t.Run("ConfirmAndCalibrate", func(t *testing.T) {
		if err := sess.ConfirmLock(); err != nil {
			t.Fatalf("ConfirmLock() error = %v", err)
		}
		if err := sess.Calibrate(40, 360); err != nil {
			t.Fatalf("Calibrate() error = %v", err)
		}
		if sess.Phase() != session.PhasePracticing {
			t.Fatalf("phase = %q, want %q", sess.Phase(), session.PhasePracticing)
		}
	})

	t.Run("PracticeChord", func(t *testing.T) {
		if err := sess.SelectChord("Em"); err != nil {
			t.Fatalf("SelectChord() error = %v", err)
		}

		em, _ := library.Get("Em")
		tips := make(map[int]image.Point)
		for i, f := range em.Fingers {
			px, ok := sess.Mapper().PositionPixel(f.String, f.Fret)
			if !ok {
				t.Fatalf("no pixel for %+v", f)
			}
			tips[hands.FretTips[i]] = px
		}
		tracker.SetHands([]hands.HandLandmarks{hands.HandAtPixels(tips, 640, 480)})

		sess.ProcessFrame(&frame)

		snap := sess.Snapshot()
		if snap.Score == nil || snap.Score.Accuracy != 1.0 {
			t.Fatalf("score = %+v, want perfect", snap.Score)
		}
	})

	t.Run("PlayAlong", func(t *testing.T) {
		songData, err := testdata.Song("practice_loop.json")
		if err != nil {
			t.Fatalf("song fixture error = %v", err)
		}
		songPath := filepath.Join(tmpDir, "practice_loop.json")
		if err := os.WriteFile(songPath, songData, 0644); err != nil {
			t.Fatalf("failed to write song file: %v", err)
		}

		if err := sess.LoadSong(songPath); err != nil {
			t.Fatalf("LoadSong() error = %v", err)
		}
		if err := sess.StartSong(); err != nil {
			t.Fatalf("StartSong() error = %v", err)
		}

		// The first bar of the chart selects its chord automatically.
		sess.ProcessFrame(&frame)
		snap := sess.Snapshot()
		if snap.SongTitle != "Practice Loop" {
			t.Errorf("song title = %q, want Practice Loop", snap.SongTitle)
		}
		if snap.ChordName != "Em" {
			t.Errorf("active chord = %q, want Em from bar 0", snap.ChordName)
		}
	})

	// Stop persists the run before we query the history API.
	sess.Stop()

	t.Run("SessionHistory", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions")
		if err != nil {
			t.Fatalf("GET /api/sessions error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var listed struct {
			Sessions []struct {
				ID     string `json:"id"`
				Frames int    `json:"frames"`
			} `json:"sessions"`
		}
		json.NewDecoder(resp.Body).Decode(&listed)
		if len(listed.Sessions) == 0 {
			t.Fatal("expected at least one persisted session")
		}
	})

	t.Run("APIStillWorks", func(t *testing.T) {
		resp, _ := client.Get(ts.URL + "/api/health")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health check failed after practice operations")
		}
		resp.Body.Close()
	})
}
