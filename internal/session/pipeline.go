package session

import (
	"image"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/SRojas22/GuitarMotion/internal/music"
	"github.com/SRojas22/GuitarMotion/internal/overlay"
	"github.com/SRojas22/GuitarMotion/internal/store"
	"github.com/SRojas22/GuitarMotion/internal/vision"
)

// runPipeline is the main loop that processes frames from the camera.
// It manages the transitions between idle and active frame rates based on
// motion detection, and drives the practice phases:
//
//  1. Start in idle mode (IdleFPS)
//  2. On motion, switch to active mode (ActiveFPS)
//  3. Detect the fretboard and feed the lock state machine
//  4. Once locked and confirmed, track re-anchoring of the calibrated grid
//  5. While practicing, track the fretting hand and score placements
//  6. After 2s without motion, switch back to idle mode
func (s *Session) runPipeline(stopCh chan struct{}) {
	activeMode := false
	lastMotionTime := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// Skip processing if the pipeline is disabled
			if !s.IsEnabled() {
				continue
			}

			frame, err := s.Camera().ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			motionDetected, _ := s.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()

				if !activeMode {
					activeMode = true
					s.Camera().SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					s.Camera().SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle mode")
				}
			}

			// While practicing, keep processing even without motion so the
			// grid and score stay current. Otherwise idle frames are skipped.
			if !activeMode && s.Phase() != PhasePracticing {
				frame.Close()
				continue
			}

			s.ProcessFrame(frame)
			frame.Close()
		}
	}
}

// ProcessFrame runs detection, lock tracking, hand scoring and overlay
// drawing for one frame, then publishes the annotated JPEG and snapshot.
// The pipeline calls it per tick; tests can drive it directly.
func (s *Session) ProcessFrame(frame *gocv.Mat) {
	det, err := s.detector.Detect(frame)
	if err != nil {
		log.Printf("Error detecting fretboard: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lockState := s.lock.Update(det.BBox, det.Confidence)

	switch s.phase {
	case PhaseDetecting:
		if lockState == vision.StateLocked {
			s.phase = PhaseAwaitConfirm
			log.Println("Fretboard locked, awaiting confirmation")
		}
	case PhaseAwaitConfirm:
		if lockState != vision.StateLocked {
			s.phase = PhaseDetecting
			log.Println("Lost fretboard lock")
		}
	case PhaseCalibrating, PhasePracticing:
		// Once confirmed, the grid follows the detected region so small
		// camera or guitar shifts don't invalidate calibration.
		if det.BBox != nil && s.mapper != nil {
			s.mapper.UpdateBBox(*det.BBox)
		}
	}

	if s.phase == PhasePracticing {
		s.scoreFrame(frame)
	}

	s.drawOverlay(frame, det.BBox)
	s.publish(frame, det.BBox)
}

// scoreFrame tracks the fretting hand and folds the placement score into
// the run stats. Caller holds mu.
func (s *Session) scoreFrame(frame *gocv.Mat) {
	// In play-along mode the timeline decides the target chord.
	if s.timeline != nil && s.timeline.IsPlaying() {
		if current := s.timeline.CurrentChord(); current != "" && current != s.coach.CurrentChordName() {
			if err := s.coach.SelectChord(current); err != nil {
				log.Printf("Song names unknown chord %q: %v", current, err)
			} else {
				s.streak = 0
			}
		}
		if s.timeline.IsFinished() {
			log.Println("Song finished")
			s.finishRun()
			s.timeline = nil
		}
	}

	detected, err := s.tracker.Track(frame)
	if err != nil {
		log.Printf("Error tracking hands: %v", err)
		return
	}
	if len(detected) == 0 {
		s.lastPlacements = nil
		s.lastScore = nil
		return
	}

	hand := &detected[0]
	width, height := frame.Cols(), frame.Rows()
	s.lastPlacements = s.coach.CheckPlacement(hand, width, height)
	s.lastScore = s.coach.ScorePlacement(s.lastPlacements)

	if s.lastScore != nil {
		s.frames++
		s.accuracies = append(s.accuracies, s.lastScore.Accuracy)
		if s.lastScore.Accuracy >= 1.0 {
			s.perfect++
			s.streak++
			if s.streak > s.maxStreak {
				s.maxStreak = s.streak
			}
		} else {
			s.streak = 0
		}
	}

	if s.runID != "" {
		tMs := time.Since(s.runStart).Milliseconds()
		for _, p := range s.lastPlacements {
			note, err := music.NoteAt(p.String, p.Fret)
			if err != nil {
				note = ""
			}
			s.pending = append(s.pending, &store.Placement{
				SessionID: s.runID,
				TMs:       tMs,
				StringIdx: p.String,
				Fret:      p.Fret,
				Note:      note,
			})
		}
	}
}

// drawOverlay renders all practice feedback onto the frame. Caller holds mu.
func (s *Session) drawOverlay(frame *gocv.Mat, bbox *image.Rectangle) {
	overlay.DrawBBox(frame, bbox)
	overlay.DrawLockStatus(frame, s.lock.State(), s.lock.Progress())

	if s.phase == PhaseCalibrating || s.phase == PhasePracticing {
		overlay.DrawGrid(frame, s.mapper)
	}
	if s.phase == PhasePracticing {
		overlay.DrawTargets(frame, s.mapper, s.coach.CurrentChord())
		overlay.DrawPlacements(frame, s.lastPlacements, s.coach.CurrentChord())
		overlay.DrawScore(frame, s.coach.CurrentChordName(), s.lastScore)
		if s.timeline != nil {
			overlay.DrawSongHUD(frame, s.timeline)
		}
	}
}

// publish encodes the annotated frame and refreshes the snapshot. Caller
// holds mu.
func (s *Session) publish(frame *gocv.Mat, bbox *image.Rectangle) {
	if buf, err := gocv.IMEncode(".jpg", *frame); err == nil {
		s.latestJPEG = append(s.latestJPEG[:0], buf.GetBytes()...)
		buf.Close()
	}

	snap := Snapshot{
		Phase:        s.phase,
		LockState:    s.lock.State(),
		LockProgress: s.lock.Progress(),
		BBox:         bbox,
		ChordName:    s.coach.CurrentChordName(),
		Score:        s.lastScore,
		Streak:       s.streak,
		MaxStreak:    s.maxStreak,
		Frames:       s.frames,
	}
	if s.timeline != nil {
		snap.SongTitle = s.timeline.Song().Title
		snap.SongBar = s.timeline.CurrentBar()
		snap.SongProgress = s.timeline.Progress()
	}
	s.snapshot = snap
}
