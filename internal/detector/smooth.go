package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// Smoothing parameters for the exponential moving average applied to
// detected boxes. A lower alpha is smoother but responds slower.
const (
	smoothingAlpha   = 0.3
	smoothingHistory = 10
)

// Smoother wraps a Detector and applies exponential moving average
// smoothing to the bounding box stream to reduce frame-to-frame jitter.
// A frame below the wrapped detector's confidence bar clears the history,
// so stale geometry never bleeds into a fresh detection streak.
type Smoother struct {
	inner   Detector
	history []smoothedBox
}

type smoothedBox struct {
	x1, y1, x2, y2 float64
}

// NewSmoother wraps the given detector with EMA bbox smoothing.
func NewSmoother(inner Detector) *Smoother {
	return &Smoother{inner: inner}
}

// Detect runs the wrapped detector and smooths the resulting box.
func (s *Smoother) Detect(frame *gocv.Mat) (Detection, error) {
	det, err := s.inner.Detect(frame)
	if err != nil {
		return Detection{}, err
	}

	if det.BBox == nil {
		s.history = s.history[:0]
		return det, nil
	}

	raw := smoothedBox{
		x1: float64(det.BBox.Min.X),
		y1: float64(det.BBox.Min.Y),
		x2: float64(det.BBox.Max.X),
		y2: float64(det.BBox.Max.Y),
	}

	smoothed := raw
	if len(s.history) > 0 {
		prev := s.history[len(s.history)-1]
		smoothed = smoothedBox{
			x1: smoothingAlpha*raw.x1 + (1-smoothingAlpha)*prev.x1,
			y1: smoothingAlpha*raw.y1 + (1-smoothingAlpha)*prev.y1,
			x2: smoothingAlpha*raw.x2 + (1-smoothingAlpha)*prev.x2,
			y2: smoothingAlpha*raw.y2 + (1-smoothingAlpha)*prev.y2,
		}
	}

	s.history = append(s.history, smoothed)
	if len(s.history) > smoothingHistory {
		s.history = s.history[1:]
	}

	bbox := image.Rect(int(smoothed.x1), int(smoothed.y1), int(smoothed.x2), int(smoothed.y2))
	det.BBox = &bbox
	return det, nil
}

// Reset clears the smoothing history, useful when restarting detection.
func (s *Smoother) Reset() {
	s.history = s.history[:0]
}

// Close closes the wrapped detector.
func (s *Smoother) Close() error {
	return s.inner.Close()
}
