package session

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/SRojas22/GuitarMotion/internal/chord"
	"github.com/SRojas22/GuitarMotion/internal/detector"
	"github.com/SRojas22/GuitarMotion/internal/hands"
	"github.com/SRojas22/GuitarMotion/internal/store"
	"github.com/SRojas22/GuitarMotion/internal/vision"
)

func TestSession_PhaseGuards(t *testing.T) {
	s := New(Config{CameraID: -1})

	if err := s.ConfirmLock(); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("ConfirmLock before lock: err = %v, want ErrWrongPhase", err)
	}
	if err := s.Calibrate(100, 400); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("Calibrate before confirm: err = %v, want ErrWrongPhase", err)
	}
	if err := s.StartSong(); err == nil {
		t.Error("StartSong without a loaded song should fail")
	}
}

func TestSession_SelectChord(t *testing.T) {
	s := New(Config{CameraID: -1})

	if err := s.SelectChord("Em"); err != nil {
		t.Fatalf("SelectChord failed: %v", err)
	}
	if err := s.SelectChord("H7sus9"); err == nil {
		t.Error("expected error for unknown chord")
	}
}

func TestSession_LockConfirmCalibratePractice(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	st, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	s := New(Config{Store: st, CameraID: -1})

	bbox := image.Rect(20, 180, 620, 300)
	mockDet := detector.NewMock()
	mockDet.SetDetection(detector.FoundAt(bbox, 0.9))
	s.SetDetector(mockDet)

	tracker := hands.NewMockTracker()
	s.SetTracker(tracker)

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	// Feed qualifying frames until the lock engages.
	for i := 0; i < vision.DefaultStableFrames; i++ {
		s.ProcessFrame(&frame)
	}
	if got := s.Phase(); got != PhaseAwaitConfirm {
		t.Fatalf("phase after stable detections = %q, want %q", got, PhaseAwaitConfirm)
	}
	snap := s.Snapshot()
	if snap.LockState != vision.StateLocked {
		t.Fatalf("lock state = %q, want locked", snap.LockState)
	}
	if snap.BBox == nil || *snap.BBox != bbox {
		t.Fatalf("snapshot bbox = %v, want %v", snap.BBox, bbox)
	}

	// Confirm and calibrate: nut and 12th fret inside the region.
	if err := s.ConfirmLock(); err != nil {
		t.Fatalf("ConfirmLock failed: %v", err)
	}
	if got := s.Phase(); got != PhaseCalibrating {
		t.Fatalf("phase after confirm = %q, want %q", got, PhaseCalibrating)
	}
	if err := s.Calibrate(400, 40); err == nil {
		t.Fatal("reversed calibration points should be rejected")
	}
	if err := s.Calibrate(40, 360); err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	if got := s.Phase(); got != PhasePracticing {
		t.Fatalf("phase after calibrate = %q, want %q", got, PhasePracticing)
	}

	// Practice Em with a perfectly placed mock hand.
	if err := s.SelectChord("Em"); err != nil {
		t.Fatalf("SelectChord failed: %v", err)
	}
	em, _ := chord.DefaultLibrary().Get("Em")
	tips := make(map[int]image.Point)
	for i, f := range em.Fingers {
		px, ok := s.Mapper().PositionPixel(f.String, f.Fret)
		if !ok {
			t.Fatalf("no pixel for %+v", f)
		}
		tips[hands.FretTips[i]] = px
	}
	tracker.SetHands([]hands.HandLandmarks{hands.HandAtPixels(tips, 640, 480)})

	s.ProcessFrame(&frame)

	snap = s.Snapshot()
	if snap.Score == nil {
		t.Fatal("expected a score while practicing")
	}
	if snap.Score.Accuracy != 1.0 {
		t.Errorf("accuracy = %f, want 1.0", snap.Score.Accuracy)
	}
	if snap.Streak != 1 {
		t.Errorf("streak = %d, want 1", snap.Streak)
	}
	if s.LatestJPEG() == nil {
		t.Error("expected an encoded frame after processing")
	}

	// Stopping persists the run.
	s.Stop()

	sessions, err := st.Sessions().List()
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 persisted session, got %d", len(sessions))
	}
	if sessions[0].ChordName != "Em" || sessions[0].Frames != 1 {
		t.Errorf("persisted session = %+v", sessions[0])
	}
	if sessions[0].AvgAccuracy != 1.0 {
		t.Errorf("avg accuracy = %f, want 1.0", sessions[0].AvgAccuracy)
	}

	placements, err := st.Placements().ListBySession(sessions[0].ID)
	if err != nil {
		t.Fatalf("failed to list placements: %v", err)
	}
	if len(placements) != 2 {
		t.Errorf("expected 2 placements (Em), got %d", len(placements))
	}

	stats, err := st.ChordStats().Get("Em")
	if err != nil {
		t.Fatalf("failed to get chord stats: %v", err)
	}
	if stats.Attempts != 1 || stats.Perfect != 1 {
		t.Errorf("chord stats = %+v, want 1 attempt, 1 perfect", stats)
	}
}

// The stream handler writes the returned bytes to the HTTP response after
// the session mutex is released, so they must not share a backing array
// with the buffer the next publish overwrites.
func TestSession_LatestJPEGIsCopy(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := New(Config{CameraID: -1})

	mockDet := detector.NewMock()
	mockDet.SetDetection(detector.FoundAt(image.Rect(20, 180, 620, 300), 0.9))
	s.SetDetector(mockDet)
	s.SetTracker(hands.NewMockTracker())

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	s.ProcessFrame(&frame)

	jpg := s.LatestJPEG()
	if jpg == nil {
		t.Fatal("expected an encoded frame after processing")
	}
	jpg[0] ^= 0xFF

	if again := s.LatestJPEG(); again[0] == jpg[0] {
		t.Error("mutating the returned slice changed the session's frame buffer")
	}
}

func TestSession_LockLostResetsToDetecting(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := New(Config{CameraID: -1})

	mockDet := detector.NewMock()
	mockDet.SetDetection(detector.FoundAt(image.Rect(20, 180, 620, 300), 0.9))
	s.SetDetector(mockDet)
	s.SetTracker(hands.NewMockTracker())

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for i := 0; i < vision.DefaultStableFrames; i++ {
		s.ProcessFrame(&frame)
	}
	if got := s.Phase(); got != PhaseAwaitConfirm {
		t.Fatalf("phase = %q, want %q", got, PhaseAwaitConfirm)
	}

	// A dropped detection before confirmation falls back to searching.
	mockDet.SetDetection(detector.Detection{})
	s.ProcessFrame(&frame)
	if got := s.Phase(); got != PhaseDetecting {
		t.Errorf("phase after lost lock = %q, want %q", got, PhaseDetecting)
	}
}
