package hands

import (
	"image"

	"gocv.io/x/gocv"
)

// MockTracker is a test implementation of the Tracker interface.
// It allows tests to control the tracking results.
type MockTracker struct {
	hands []HandLandmarks
	err   error
}

// NewMockTracker creates a new MockTracker instance.
func NewMockTracker() *MockTracker {
	return &MockTracker{}
}

// SetHands sets the hands that will be returned by Track.
func (m *MockTracker) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Track.
func (m *MockTracker) SetError(err error) {
	m.err = err
}

// Track returns the pre-configured hands or error.
func (m *MockTracker) Track(frame *gocv.Mat) ([]HandLandmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock tracker.
func (m *MockTracker) Close() error {
	return nil
}

// HandAtPixels builds a HandLandmarks whose fingertip landmarks map to the
// given pixel positions for a frame of the given size. Landmarks not listed
// are parked in the top-left corner, far from any fretboard. Useful for
// placement tests without a camera.
func HandAtPixels(tips map[int]image.Point, width, height int) HandLandmarks {
	lm := HandLandmarks{
		Handedness: "Left",
		Score:      0.95,
	}

	for i, pt := range tips {
		if i < 0 || i >= NumLandmarks {
			continue
		}
		lm.Points[i] = Point3D{
			X: float64(pt.X) / float64(width),
			Y: float64(pt.Y) / float64(height),
		}
	}

	return lm
}
