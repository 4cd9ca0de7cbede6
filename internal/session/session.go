// Package session provides the main orchestration for the GuitarMotion
// practice system: it owns the camera pipeline, fretboard lock and
// calibration flow, and live chord scoring.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/SRojas22/GuitarMotion/internal/capture"
	"github.com/SRojas22/GuitarMotion/internal/chord"
	"github.com/SRojas22/GuitarMotion/internal/detector"
	"github.com/SRojas22/GuitarMotion/internal/hands"
	"github.com/SRojas22/GuitarMotion/internal/song"
	"github.com/SRojas22/GuitarMotion/internal/store"
	"github.com/SRojas22/GuitarMotion/internal/vision"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active detection.
	ActiveFPS = 15
	// IdleTimeoutMs is the time in milliseconds to wait before switching back to idle mode.
	IdleTimeoutMs = 2000
)

// Phase is the stage the practice flow is in.
type Phase string

const (
	// PhaseDetecting means the pipeline is searching for a stable fretboard.
	PhaseDetecting Phase = "detecting"
	// PhaseAwaitConfirm means the fretboard is locked and the user must
	// confirm it before calibration.
	PhaseAwaitConfirm Phase = "await_confirm"
	// PhaseCalibrating means the user is marking the nut and 12th fret.
	PhaseCalibrating Phase = "calibrating"
	// PhasePracticing means calibration is done and fingers are scored.
	PhasePracticing Phase = "practicing"
)

// ErrWrongPhase is returned when an operation does not apply to the current
// phase.
var ErrWrongPhase = errors.New("operation not valid in current phase")

// Config holds configuration options for a practice session.
type Config struct {
	Store        *store.Store
	CameraID     int
	MotionThresh float64
	Library      chord.Library
}

// Snapshot is a point-in-time copy of the session state, safe to serialize.
type Snapshot struct {
	Phase        Phase            `json:"phase"`
	LockState    vision.State     `json:"lock_state"`
	LockProgress float64          `json:"lock_progress"`
	BBox         *image.Rectangle `json:"bbox,omitempty"`
	ChordName    string           `json:"chord,omitempty"`
	Score        *chord.Score     `json:"score,omitempty"`
	Streak       int              `json:"streak"`
	MaxStreak    int              `json:"max_streak"`
	Frames       int              `json:"frames"`
	SongTitle    string           `json:"song_title,omitempty"`
	SongBar      int              `json:"song_bar,omitempty"`
	SongProgress float64          `json:"song_progress,omitempty"`
}

// Session is the main orchestrator for one run of the practice pipeline.
type Session struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	tracker  hands.Tracker
	lock     *vision.LockStateManager
	coach    *chord.Coach

	mu       sync.RWMutex
	enabled  bool
	phase    Phase
	mapper   *vision.Mapper
	timeline *song.Timeline
	stopCh   chan struct{}

	// Current run stats, reset when practicing starts.
	runID      string
	runStart   time.Time
	frames     int
	perfect    int
	accuracies []float64
	streak     int
	maxStreak  int
	pending    []*store.Placement

	lastPlacements []chord.Placement
	lastScore      *chord.Score

	snapshot   Snapshot
	latestJPEG []byte
}

// New creates a new Session with the given configuration.
func New(config Config) *Session {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}
	library := config.Library
	if library == nil {
		library = chord.DefaultLibrary()
	}

	s := &Session{
		config: config,
		camera: capture.NewCamera(config.CameraID),
		motion: capture.NewMotionDetector(motionThreshold),
		lock:   vision.NewLockStateManager(vision.DefaultLockThreshold, vision.DefaultStableFrames),
		coach:  chord.NewCoach(library),
		phase:  PhaseDetecting,
	}

	// Try the trained detector first, fall back to edge heuristics only.
	if model, err := detector.NewModelDetector(detector.DefaultModelConfidence); err == nil {
		s.detector = detector.NewHybrid(model, detector.NewEdgeDetector())
		log.Println("Using model-based fretboard detection with edge fallback")
	} else {
		log.Printf("Model detector not available (%v), using edge detection", err)
		s.detector = detector.NewHybrid(nil, detector.NewEdgeDetector())
	}

	// Try MediaPipe hand tracking, fall back to a mock tracker.
	if tracker, err := hands.NewMediaPipeTracker(hands.DefaultConfig()); err == nil {
		s.tracker = tracker
		log.Println("Using MediaPipe hand tracking")
	} else {
		log.Printf("MediaPipe not available (%v), using mock tracker", err)
		s.tracker = hands.NewMockTracker()
	}

	return s
}

// SetEnabled enables or disables frame processing.
func (s *Session) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// IsEnabled returns whether frame processing is currently enabled.
func (s *Session) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// SetDetector sets the fretboard detector implementation to use.
func (s *Session) SetDetector(d detector.Detector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detector = d
}

// SetTracker sets the hand tracker implementation to use.
func (s *Session) SetTracker(tr hands.Tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker = tr
}

// SetCamera sets the camera implementation to use.
func (s *Session) SetCamera(c capture.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera = c
}

// Phase returns the current practice phase.
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// LatestJPEG returns the most recent annotated frame as JPEG bytes, nil if
// no frame has been processed yet. The returned slice is a copy; publish
// reuses the internal buffer on every frame, so handing it out directly
// would let the next frame overwrite bytes a stream handler is still
// writing.
func (s *Session) LatestJPEG() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latestJPEG == nil {
		return nil
	}
	out := make([]byte, len(s.latestJPEG))
	copy(out, s.latestJPEG)
	return out
}

// Mapper returns the fretboard mapper, nil before lock confirmation.
func (s *Session) Mapper() *vision.Mapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapper
}

// Coach returns the chord coach.
func (s *Session) Coach() *chord.Coach {
	return s.coach
}

// ConfirmLock accepts the locked fretboard region and moves to calibration.
// It fails unless the pipeline is waiting for confirmation.
func (s *Session) ConfirmLock() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseAwaitConfirm {
		return fmt.Errorf("%w: confirm requires a locked fretboard", ErrWrongPhase)
	}
	bbox := s.snapshot.BBox
	if bbox == nil {
		return errors.New("no fretboard region to confirm")
	}

	s.mapper = vision.NewMapper(*bbox, vision.DefaultNumStrings, vision.DefaultNumFrets)
	s.phase = PhaseCalibrating
	log.Println("Fretboard confirmed, awaiting calibration")
	return nil
}

// Calibrate sets the nut and 12th fret reference points and starts
// practicing. The points are pixel x coordinates in frame space.
func (s *Session) Calibrate(nutX, fret12X int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseCalibrating {
		return fmt.Errorf("%w: calibration requires a confirmed fretboard", ErrWrongPhase)
	}
	if err := s.mapper.SetReferencePoints(nutX, fret12X); err != nil {
		return err
	}

	s.coach.SetMapper(s.mapper)
	s.phase = PhasePracticing
	s.beginRun()
	log.Printf("Calibrated: nut at x=%d, 12th fret at x=%d, scale %dpx",
		nutX, fret12X, s.mapper.ScaleLength())
	return nil
}

// SelectChord sets the chord to practice.
func (s *Session) SelectChord(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.coach.SelectChord(name); err != nil {
		return err
	}
	s.streak = 0
	return nil
}

// LoadSong loads a song chart and switches to play-along mode. The timeline
// starts paused; call StartSong to begin.
func (s *Session) LoadSong(path string) error {
	chart, err := song.LoadFile(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline = song.NewTimeline(chart)
	return nil
}

// StartSong begins play-along playback.
func (s *Session) StartSong() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeline == nil {
		return errors.New("no song loaded")
	}
	s.timeline.Start()
	return nil
}

// PauseSong pauses play-along playback.
func (s *Session) PauseSong() {
	s.mu.RLock()
	tl := s.timeline
	s.mu.RUnlock()
	if tl != nil {
		tl.Pause()
	}
}

// ResumeSong resumes play-along playback.
func (s *Session) ResumeSong() {
	s.mu.RLock()
	tl := s.timeline
	s.mu.RUnlock()
	if tl != nil {
		tl.Resume()
	}
}

// beginRun resets run stats and opens a database session row. Caller holds mu.
func (s *Session) beginRun() {
	s.runID = ""
	s.runStart = time.Now()
	s.frames = 0
	s.perfect = 0
	s.accuracies = s.accuracies[:0]
	s.streak = 0
	s.maxStreak = 0
	s.pending = nil

	if s.config.Store == nil {
		return
	}
	s.runID = uuid.NewString()

	mode := store.ModeChord
	title := ""
	if s.timeline != nil {
		mode = store.ModeSong
		title = s.timeline.Song().Title
	}
	err := s.config.Store.Sessions().Create(&store.Session{
		ID:        s.runID,
		Mode:      mode,
		ChordName: s.coach.CurrentChordName(),
		SongTitle: title,
		StartedAt: s.runStart,
	})
	if err != nil {
		log.Printf("Failed to create session record: %v", err)
		s.runID = ""
	}
}

// finishRun persists run stats. Caller holds mu.
func (s *Session) finishRun() {
	if s.config.Store == nil || s.runID == "" || s.frames == 0 {
		return
	}

	avg := 0.0
	if len(s.accuracies) > 0 {
		avg = stat.Mean(s.accuracies, nil)
	}

	err := s.config.Store.Sessions().Finish(&store.Session{
		ID:            s.runID,
		EndedAt:       sql.NullTime{Time: time.Now(), Valid: true},
		Frames:        s.frames,
		PerfectFrames: s.perfect,
		AvgAccuracy:   avg,
		MaxStreak:     s.maxStreak,
	})
	if err != nil {
		log.Printf("Failed to finish session record: %v", err)
	}

	if err := s.config.Store.Placements().CreateBatch(s.pending); err != nil {
		log.Printf("Failed to persist placements: %v", err)
	}
	s.pending = nil

	if name := s.coach.CurrentChordName(); name != "" {
		perfect := avg >= 1.0
		if err := s.config.Store.ChordStats().Record(name, avg, perfect); err != nil {
			log.Printf("Failed to record chord stats: %v", err)
		}
	}

	s.runID = ""
}

// Start begins the practice pipeline.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Don't start if already running
	if s.stopCh != nil {
		return nil
	}

	// Open the camera
	if err := s.camera.Open(); err != nil {
		return err
	}

	// Set initial FPS to idle mode
	s.camera.SetFPS(IdleFPS)

	// Create stop channel and start the pipeline
	s.stopCh = make(chan struct{})
	go s.runPipeline(s.stopCh)

	log.Println("Practice pipeline started")
	return nil
}

// Stop halts the pipeline, persists any open run and releases resources.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Signal the pipeline to stop
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}

	s.finishRun()

	// Close the camera
	if err := s.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	// Close motion detector
	s.motion.Close()

	if s.detector != nil {
		if err := s.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
	if s.tracker != nil {
		if err := s.tracker.Close(); err != nil {
			log.Printf("Error closing hand tracker: %v", err)
		}
	}

	log.Println("Practice pipeline stopped")
}

// Camera returns the camera instance.
func (s *Session) Camera() capture.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// MotionDetector returns the motion detector instance.
func (s *Session) MotionDetector() *capture.MotionDetector {
	return s.motion
}
