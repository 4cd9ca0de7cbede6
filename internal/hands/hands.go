// Package hands provides fretting-hand tracking for the GuitarMotion
// practice system.
package hands

import "gocv.io/x/gocv"

// Tracker defines the interface for hand tracking implementations.
type Tracker interface {
	// Track analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Track(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the tracker.
	Close() error
}

// Config holds configuration options for hand tracking.
type Config struct {
	// MaxHands is the maximum number of hands to track (default: 1, the
	// fretting hand).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
